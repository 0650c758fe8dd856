package ogg

import "encoding/binary"

// Page header flags.
const (
	FlagContinuation = 0x01
	FlagBOS          = 0x02
	FlagEOS          = 0x04
)

const (
	headerSize  = 27
	magic       = "OggS"
	maxSegments = 255
	segmentSize = 255
)

// Page is one Ogg page ready for serialization.
type Page struct {
	HeaderType byte
	// Granule is the granule position of the last packet completed on
	// the page, or -1 when no packet completes here.
	Granule int64
	Serial  uint32
	// Sequence is the page's position in the stream, counted from 0.
	Sequence uint32
	// Segments is the lacing table; Payload the concatenated packet
	// bytes it describes.
	Segments []byte
	Payload  []byte
}

// Encode serializes the page. The checksum is computed over the whole
// page with the checksum field zeroed, then patched in.
func (p *Page) Encode() []byte {
	data := make([]byte, headerSize+len(p.Segments)+len(p.Payload))
	copy(data, magic)
	data[4] = 0 // stream structure version
	data[5] = p.HeaderType
	binary.LittleEndian.PutUint64(data[6:], uint64(p.Granule))
	binary.LittleEndian.PutUint32(data[14:], p.Serial)
	binary.LittleEndian.PutUint32(data[18:], p.Sequence)
	data[26] = byte(len(p.Segments))
	copy(data[27:], p.Segments)
	copy(data[27+len(p.Segments):], p.Payload)

	binary.LittleEndian.PutUint32(data[22:], checksum(data))
	return data
}

// lacing returns the segment table entries for one packet: a run of
// 255s and a final short segment, with a terminating zero when the
// length is an exact multiple of 255.
func lacing(packetLen int) []byte {
	segs := make([]byte, 0, packetLen/segmentSize+1)
	for ; packetLen >= segmentSize; packetLen -= segmentSize {
		segs = append(segs, segmentSize)
	}
	return append(segs, byte(packetLen))
}
