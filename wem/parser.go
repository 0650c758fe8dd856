package wem

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

// wwiseCodecID is the fmt codec tag Wwise assigns to its Vorbis variant.
const wwiseCodecID = 0xFFFF

var (
	vorbID = [4]byte{'v', 'o', 'r', 'b'}
	cueID  = [4]byte{'c', 'u', 'e', ' '}
	smplID = [4]byte{'s', 'm', 'p', 'l'}
)

// fmtSignature trails a 0x28-byte fmt chunk's extra data.
var fmtSignature = []byte{
	1, 0, 0, 0, 0, 0, 0x10, 0, 0x80, 0, 0, 0xAA, 0, 0x38, 0x9b, 0x71,
}

// Format describes a parsed WEM stream: the fmt and vorb chunk fields
// the conversion needs, plus loop points from the smpl chunk if present.
type Format struct {
	Channels       uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	Subtype        uint32

	// SampleCount is the declared length of the stream in samples.
	SampleCount uint32
	// UID identifies the setup header when codebooks live in an external
	// library; zero for the old embedded-triad layout.
	UID uint32
	// Blocksize0Pow and Blocksize1Pow are the log2 short and long window
	// sizes.
	Blocksize0Pow uint8
	Blocksize1Pow uint8

	// SetupPacketOffset and FirstAudioPacketOffset locate the setup
	// packet and the first audio packet within the data chunk.
	SetupPacketOffset      uint32
	FirstAudioPacketOffset uint32

	// HeaderTriadPresent indicates the data chunk embeds a full Vorbis
	// header triad instead of a bare setup packet.
	HeaderTriadPresent bool
	// OldPacketHeaders indicates 8-byte packet headers with 32-bit sizes.
	OldPacketHeaders bool
	// NoGranule indicates 2-byte packet headers with no granule field.
	NoGranule bool
	// ModPackets indicates audio packets had their type and window bits
	// stripped and must be rebuilt.
	ModPackets bool

	// CueCount is the number of cue points, informational only.
	CueCount uint32

	LoopCount uint32
	LoopStart uint32
	LoopEnd   uint32
}

// BlockSize returns the window size in samples for the given block flag
// (false for the short window, true for the long one).
func (f *Format) BlockSize(long bool) uint32 {
	if long {
		return 1 << f.Blocksize1Pow
	}
	return 1 << f.Blocksize0Pow
}

// File is a parsed WEM container. Data aliases the input slice.
type File struct {
	Format Format
	Data   []byte
}

// countingReader tracks how many bytes the RIFF parser has consumed, so
// chunk bodies can be located in the backing slice.
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

// Parse reads a WEM container from data. It validates the RIFF
// structure, the fmt chunk (which must declare the Wwise Vorbis codec),
// the vorb chunk in any of its known sizes, and the optional smpl and
// cue chunks.
func Parse(data []byte) (*File, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("%w: %d bytes is too small for a RIFF header", ErrContainerFormat, len(data))
	}
	if bytes.Equal(data[:4], []byte("RIFX")) {
		return nil, fmt.Errorf("%w: big-endian RIFX container", ErrContainerFormat)
	}

	riffSize := int(binary.LittleEndian.Uint32(data[4:8])) + 8
	if riffSize > len(data) {
		return nil, fmt.Errorf("%w: RIFF declares %d bytes but only %d are present (truncated or prefetch stream)",
			ErrContainerFormat, riffSize, len(data))
	}

	cr := &countingReader{r: bytes.NewReader(data[:riffSize])}
	p := riff.New(cr)
	if err := p.ParseHeaders(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContainerFormat, err)
	}
	if p.Format != riff.WavFormatID {
		return nil, fmt.Errorf("%w: form type %q, expected WAVE", ErrContainerFormat, p.Format[:])
	}

	var fmtBody, vorbBody, dataBody, cueBody, smplBody []byte
	haveFmt, haveVorb, haveData := false, false, false
	for {
		headerPos := cr.n
		chunk, err := p.NextChunk()
		if err != nil {
			if err == io.EOF && headerPos == riffSize {
				break
			}
			return nil, fmt.Errorf("%w: chunk header truncated at %#x", ErrContainerFormat, headerPos)
		}

		// NextChunk rounds odd sizes up to the RIFF word boundary; the
		// declared size is still in the backing slice.
		size := int(binary.LittleEndian.Uint32(data[headerPos+4 : headerPos+8]))
		bodyStart := headerPos + 8
		if bodyStart+size > riffSize {
			return nil, fmt.Errorf("%w: %s chunk truncated", ErrContainerFormat, chunk.ID[:])
		}
		body := data[bodyStart : bodyStart+size]

		switch chunk.ID {
		case riff.FmtID:
			fmtBody, haveFmt = body, true
		case vorbID:
			vorbBody, haveVorb = body, true
		case riff.DataFormatID:
			dataBody, haveData = body, true
		case cueID:
			cueBody = body
		case smplID:
			smplBody = body
		}
		chunk.Done()
	}

	if !haveFmt || !haveData {
		return nil, fmt.Errorf("%w: expected fmt and data chunks", ErrContainerFormat)
	}

	f := &File{Data: dataBody}

	// A 0x42-byte fmt chunk carries the vorb fields itself, starting at
	// offset 0x18; such files have no separate vorb chunk.
	implicitVorb := false
	if !haveVorb {
		if len(fmtBody) != 0x42 {
			return nil, fmt.Errorf("%w: no vorb chunk and fmt is not 0x42 bytes", ErrContainerFormat)
		}
		vorbBody = fmtBody[0x18:]
		implicitVorb = true
	}

	if err := f.Format.parseFmt(fmtBody, implicitVorb); err != nil {
		return nil, err
	}
	if err := f.Format.parseVorb(vorbBody, implicitVorb); err != nil {
		return nil, err
	}
	if cueBody != nil {
		if len(cueBody) < 4 {
			return nil, fmt.Errorf("%w: cue chunk truncated", ErrContainerFormat)
		}
		f.Format.CueCount = binary.LittleEndian.Uint32(cueBody)
	}
	if smplBody != nil {
		if err := f.Format.parseSmpl(smplBody); err != nil {
			return nil, err
		}
	}
	if err := f.Format.fixupLoops(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Format) parseFmt(body []byte, implicitVorb bool) error {
	// The 0x42-byte layout embeds the vorb fields, so it only appears in
	// files without a separate vorb chunk.
	switch len(body) {
	case 0x12, 0x18, 0x28:
	case 0x42:
		if !implicitVorb {
			return fmt.Errorf("%w: 0x42-byte fmt chunk alongside a vorb chunk", ErrContainerFormat)
		}
	default:
		return fmt.Errorf("%w: fmt chunk size %#x", ErrContainerFormat, len(body))
	}

	if codec := binary.LittleEndian.Uint16(body[0:]); codec != wwiseCodecID {
		return fmt.Errorf("%w: codec id %#04x", ErrUnsupportedCodec, codec)
	}
	f.Channels = binary.LittleEndian.Uint16(body[2:])
	f.SampleRate = binary.LittleEndian.Uint32(body[4:])
	f.AvgBytesPerSec = binary.LittleEndian.Uint32(body[8:])
	if ba := binary.LittleEndian.Uint16(body[12:]); ba != 0 {
		return fmt.Errorf("%w: block align %d, expected 0", ErrContainerFormat, ba)
	}
	if bps := binary.LittleEndian.Uint16(body[14:]); bps != 0 {
		return fmt.Errorf("%w: bits per sample %d, expected 0", ErrContainerFormat, bps)
	}
	if extra := binary.LittleEndian.Uint16(body[16:]); int(extra) != len(body)-0x12 {
		return fmt.Errorf("%w: extra fmt length %d does not match chunk size", ErrContainerFormat, extra)
	}
	if len(body)-0x12 >= 6 {
		f.Subtype = binary.LittleEndian.Uint32(body[20:])
	}
	if len(body) == 0x28 && !bytes.Equal(body[24:40], fmtSignature) {
		return fmt.Errorf("%w: bad extra fmt signature", ErrContainerFormat)
	}
	return nil
}

func (f *Format) parseVorb(body []byte, implicit bool) error {
	size := len(body)
	if implicit {
		size = 0x2A
	}
	switch size {
	case 0x28, 0x2A, 0x2C, 0x32, 0x34:
	default:
		return fmt.Errorf("%w: vorb chunk size %#x", ErrContainerFormat, size)
	}

	f.SampleCount = binary.LittleEndian.Uint32(body[0:])

	switch size {
	case 0x2A:
		f.NoGranule = true
		modSignal := binary.LittleEndian.Uint32(body[0x4:])
		// Clean audio packets are flagged by a handful of known signal
		// values; anything else means the packets were modified.
		switch modSignal {
		case 0x4A, 0x4B, 0x69, 0x70:
		default:
			f.ModPackets = true
		}
		f.SetupPacketOffset = binary.LittleEndian.Uint32(body[0x10:])
		f.FirstAudioPacketOffset = binary.LittleEndian.Uint32(body[0x14:])
	default:
		f.SetupPacketOffset = binary.LittleEndian.Uint32(body[0x18:])
		f.FirstAudioPacketOffset = binary.LittleEndian.Uint32(body[0x1C:])
	}

	switch size {
	case 0x28, 0x2C:
		f.HeaderTriadPresent = true
		f.OldPacketHeaders = true
	case 0x2A:
		f.UID = binary.LittleEndian.Uint32(body[0x24:])
		f.Blocksize0Pow = body[0x28]
		f.Blocksize1Pow = body[0x29]
	case 0x32, 0x34:
		f.UID = binary.LittleEndian.Uint32(body[0x2C:])
		f.Blocksize0Pow = body[0x30]
		f.Blocksize1Pow = body[0x31]
	}
	return nil
}

func (f *Format) parseSmpl(body []byte) error {
	if len(body) < 0x34 {
		return fmt.Errorf("%w: smpl chunk truncated", ErrContainerFormat)
	}
	f.LoopCount = binary.LittleEndian.Uint32(body[0x1C:])
	if f.LoopCount != 1 {
		return fmt.Errorf("%w: %d loops, expected one", ErrContainerFormat, f.LoopCount)
	}
	f.LoopStart = binary.LittleEndian.Uint32(body[0x2C:])
	f.LoopEnd = binary.LittleEndian.Uint32(body[0x30:])
	return nil
}

// fixupLoops normalizes the smpl loop points: a zero end means the
// stream end, and a stored end is inclusive.
func (f *Format) fixupLoops() error {
	if f.LoopCount == 0 {
		return nil
	}
	if f.LoopEnd == 0 {
		f.LoopEnd = f.SampleCount
	} else {
		f.LoopEnd++
	}
	if f.LoopStart >= f.SampleCount || f.LoopEnd > f.SampleCount || f.LoopStart > f.LoopEnd {
		return fmt.Errorf("%w: loop %d-%d out of range for %d samples",
			ErrContainerFormat, f.LoopStart, f.LoopEnd, f.SampleCount)
	}
	return nil
}
