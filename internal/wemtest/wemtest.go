// SPDX-License-Identifier: EPL-2.0

// Package wemtest builds synthetic WEM containers and codebook
// libraries for tests. The fixtures are minimal but structurally valid:
// every offset, chunk size, and bit field is what a real encoder would
// have produced for the same content.
package wemtest

import (
	"encoding/binary"

	"github.com/tnt-coders/wwise-audio-tools/bitpack"
	"github.com/tnt-coders/wwise-audio-tools/codebook"
)

// Packet is one framed packet in a container's data chunk.
type Packet struct {
	Payload []byte
	Granule uint32
}

// Container describes a WEM to synthesize. The zero value is not
// usable; fill in at least Channels, SampleRate, SampleCount, the
// block-size exponents, and Packets.
type Container struct {
	Channels      uint16
	SampleRate    uint32
	SampleCount   uint32
	UID           uint32
	Blocksize0Pow uint8
	Blocksize1Pow uint8

	// VorbSize selects the chunk layout: 0x2A, 0x2C, or 0x34 emit a
	// vorb chunk of that size; 0 folds the vorb fields into a 0x42-byte
	// fmt chunk.
	VorbSize int

	// ModSignal is the 0x2A-layout mod signal; leave zero for modified
	// packets, or use 0x4A for clean ones.
	ModSignal uint32

	// Packets holds the setup packet (or, for the 0x2C layout, the full
	// header triad) followed by the audio packets.
	Packets []Packet

	// FirstAudioIndex is the index in Packets of the first audio
	// packet; zero means 1 (3 is typical for a triad).
	FirstAudioIndex int

	// Loop, when non-nil, emits a smpl chunk with one loop spanning
	// [Loop[0], Loop[1]].
	Loop *[2]uint32
}

// Build assembles the container bytes.
func (c Container) Build() []byte {
	firstAudio := c.FirstAudioIndex
	if firstAudio == 0 {
		firstAudio = 1
	}

	var data []byte
	offsets := make([]int, len(c.Packets))
	for i, p := range c.Packets {
		offsets[i] = len(data)
		data = appendPacket(data, c.headerSize(), p)
	}

	chunks := chunk("fmt ", c.fmtBody(offsets[firstAudio]))
	if c.VorbSize != 0 {
		chunks = append(chunks, chunk("vorb", c.vorbBody(offsets[firstAudio]))...)
	}
	if c.Loop != nil {
		chunks = append(chunks, chunk("smpl", c.smplBody())...)
	}
	chunks = append(chunks, chunk("data", data)...)

	out := make([]byte, 12, 12+len(chunks))
	copy(out, "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(4+len(chunks)))
	copy(out[8:], "WAVE")
	return append(out, chunks...)
}

func (c Container) headerSize() int {
	switch c.VorbSize {
	case 0x2C:
		return 8
	case 0x34:
		return 6
	default:
		return 2
	}
}

func appendPacket(data []byte, headerSize int, p Packet) []byte {
	var hdr [8]byte
	switch headerSize {
	case 8:
		binary.LittleEndian.PutUint32(hdr[0:], uint32(len(p.Payload)))
		binary.LittleEndian.PutUint32(hdr[4:], p.Granule)
	case 6:
		binary.LittleEndian.PutUint16(hdr[0:], uint16(len(p.Payload)))
		binary.LittleEndian.PutUint32(hdr[2:], p.Granule)
	default:
		binary.LittleEndian.PutUint16(hdr[0:], uint16(len(p.Payload)))
	}
	data = append(data, hdr[:headerSize]...)
	return append(data, p.Payload...)
}

func (c Container) fmtBody(firstAudio int) []byte {
	size := 0x18
	if c.VorbSize == 0 {
		size = 0x42
	}
	body := make([]byte, size)
	binary.LittleEndian.PutUint16(body[0:], 0xFFFF)
	binary.LittleEndian.PutUint16(body[2:], c.Channels)
	binary.LittleEndian.PutUint32(body[4:], c.SampleRate)
	binary.LittleEndian.PutUint32(body[8:], c.SampleRate*4)
	binary.LittleEndian.PutUint16(body[16:], uint16(size-0x12))
	if c.VorbSize == 0 {
		copy(body[0x18:], c.vorbFields(0x2A, firstAudio))
	}
	return body
}

func (c Container) vorbBody(firstAudio int) []byte {
	return c.vorbFields(c.VorbSize, firstAudio)
}

func (c Container) vorbFields(size, firstAudio int) []byte {
	body := make([]byte, size)
	binary.LittleEndian.PutUint32(body[0:], c.SampleCount)
	switch size {
	case 0x2A:
		binary.LittleEndian.PutUint32(body[0x4:], c.ModSignal)
		binary.LittleEndian.PutUint32(body[0x14:], uint32(firstAudio))
		binary.LittleEndian.PutUint32(body[0x24:], c.UID)
		body[0x28] = c.Blocksize0Pow
		body[0x29] = c.Blocksize1Pow
	case 0x2C:
		binary.LittleEndian.PutUint32(body[0x1C:], uint32(firstAudio))
	case 0x34:
		binary.LittleEndian.PutUint32(body[0x1C:], uint32(firstAudio))
		binary.LittleEndian.PutUint32(body[0x2C:], c.UID)
		body[0x30] = c.Blocksize0Pow
		body[0x31] = c.Blocksize1Pow
	}
	return body
}

func (c Container) smplBody() []byte {
	body := make([]byte, 0x34)
	binary.LittleEndian.PutUint32(body[0x1C:], 1)
	binary.LittleEndian.PutUint32(body[0x2C:], c.Loop[0])
	binary.LittleEndian.PutUint32(body[0x30:], c.Loop[1])
	return body
}

func chunk(id string, body []byte) []byte {
	b := make([]byte, 8, 8+len(body)+1)
	copy(b, id)
	binary.LittleEndian.PutUint32(b[4:], uint32(len(body)))
	b = append(b, body...)
	if len(body)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

// TrivialCodebook returns the smallest useful codebook: one dimension,
// two entries, both with 1-bit codewords, no lookup table.
func TrivialCodebook() *codebook.Codebook {
	return &codebook.Codebook{
		Dimensions: 1,
		Entries:    2,
		Lengths:    []uint8{1, 1},
	}
}

// VendorBytes serializes cb in the packed-library vendor form, padded
// the way the library loader expects (one trailing partial or zero
// byte).
func VendorBytes(cb *codebook.Codebook) []byte {
	w := bitpack.NewWriter()
	if err := cb.Encode(w, codebook.VendorProfile); err != nil {
		panic("wemtest: encode codebook: " + err.Error())
	}
	w.Flush()
	b := w.Bytes()
	if w.BitsWritten()%8 == 0 {
		b = append(b, 0)
	}
	return b
}

// LibraryBlob packs the codebooks into a library image: serialized
// books back to back, then the offset table, self-terminated.
func LibraryBlob(books ...*codebook.Codebook) []byte {
	var blob []byte
	offsets := make([]uint32, 0, len(books)+1)
	for _, cb := range books {
		offsets = append(offsets, uint32(len(blob)))
		blob = append(blob, VendorBytes(cb)...)
	}
	offsets = append(offsets, uint32(len(blob)))
	for _, o := range offsets {
		blob = binary.LittleEndian.AppendUint32(blob, o)
	}
	return blob
}

// Library builds and loads a library of n copies of the trivial
// codebook, so tests can reference ids 0 through n-1.
func Library(n int) *codebook.Library {
	books := make([]*codebook.Codebook, n)
	for i := range books {
		books[i] = TrivialCodebook()
	}
	lib, err := codebook.Load(LibraryBlob(books...))
	if err != nil {
		panic("wemtest: load library: " + err.Error())
	}
	return lib
}
