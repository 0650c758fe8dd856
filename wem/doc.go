// SPDX-License-Identifier: EPL-2.0

// Package wem parses Audiokinetic Wwise WEM audio containers.
//
// A WEM is a RIFF file whose fmt chunk declares codec 0xFFFF (Wwise
// Vorbis) and whose Wwise-specific vorb chunk describes how the Vorbis
// bitstream inside the data chunk was repacked: sample count, block-size
// exponents, the offsets of the setup and first audio packets, and which
// of several per-packet framing layouts is in use.
//
// # Parsing
//
//	f, err := wem.Parse(data)
//	if err != nil {
//	    // wem.ErrContainerFormat or wem.ErrUnsupportedCodec
//	}
//	fmt.Println(f.Info())
//
// Parse validates the chunk structure and returns a File whose Format
// describes the stream and whose Data holds the raw packet region. The
// input slice is referenced, not copied.
//
// # Container variants
//
// Wwise has shipped several vorb chunk layouts; all are recognized:
//
//   - 0x28/0x2C byte vorb: oldest form, the full Vorbis header triad is
//     embedded and packets use 8-byte headers.
//   - 0x2A byte vorb (or a 0x42-byte fmt with the vorb folded in):
//     2-byte packet headers with no granule field, and usually
//     "modified" packets whose type and window bits were stripped.
//   - 0x32/0x34 byte vorb: 6-byte packet headers carrying a granule.
//
// Only little-endian RIFF is supported; the big-endian RIFX variant is
// rejected.
package wem
