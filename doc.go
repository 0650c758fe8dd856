// SPDX-License-Identifier: EPL-2.0

// Package wwtools converts Audiokinetic Wwise audio assets into
// standard formats playable by any Vorbis decoder.
//
// Wwise stores Vorbis audio in WEM containers with a space-optimized
// bitstream: the header triad is stripped or reduced, codebooks are
// replaced by references into an external table, and audio packets lose
// their framing bits. ConvertWem rebuilds a conformant Ogg Vorbis file
// from such a container.
//
// # Quick Start
//
//	lib, err := codebook.LoadFile("packed_codebooks_aoTuV_603.bin")
//	if err != nil {
//	    // ...
//	}
//
//	data, _ := os.ReadFile("music.wem")
//	ogg, err := wwtools.ConvertWem(data, lib, wwtools.Options{})
//	if err != nil {
//	    // ...
//	}
//	os.WriteFile("music.ogg", ogg, 0o644)
//
// The codebook table ships with the converter and comes in two
// lineages (the stock encoder tables and the aoTuV 6.03 ones); a WEM
// converts correctly only with the lineage its game used.
//
// # Options
//
// Most WEMs convert with the zero Options value. The flags mirror the
// rarer container variants: InlineCodebooks for streams that embed
// their own codebooks, FullSetup for streams whose setup header was
// never stripped, and PacketFormat to override the modified-packet
// detection when a container lies about it. Validate decodes the
// produced stream as a final check before returning it.
//
// # Soundbanks
//
// Games frequently ship WEMs embedded in BNK soundbanks; package bnk
// lists and extracts them:
//
//	sb, _ := bnk.Parse(bankData)
//	for _, e := range sb.Entries {
//	    ogg, _ := wwtools.ConvertWem(sb.WemData(e), lib, wwtools.Options{})
//	    // ...
//	}
//
// The lower-level building blocks live in their own packages: wem
// (container parsing), codebook (codebook tables), vorbis (header
// reconstruction and packet rebuilding), ogg (page writing), and
// bitpack (the bit-level codec underneath all of them).
package wwtools
