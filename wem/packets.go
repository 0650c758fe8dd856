package wem

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Packet locates one Wwise-framed packet within the data chunk.
type Packet struct {
	// Offset and Size bound the payload within File.Data.
	Offset int
	Size   int
	// Granule is the vendor-recorded absolute granule position, zero
	// when the header layout carries none.
	Granule uint32
	// Next is the offset of the following packet header.
	Next int
}

// Payload returns the packet body.
func (p *Packet) Payload(data []byte) []byte {
	return data[p.Offset : p.Offset+p.Size]
}

// HeaderSize returns the per-packet header size the container's framing
// layout uses.
func (f *Format) HeaderSize() int {
	switch {
	case f.OldPacketHeaders:
		return 8
	case f.NoGranule:
		return 2
	default:
		return 6
	}
}

// PacketAt decodes the packet header at offset within f.Data and bounds
// checks the payload it frames.
func (f *File) PacketAt(offset int) (*Packet, error) {
	hdr := f.Format.HeaderSize()
	if offset < 0 || offset+hdr > len(f.Data) {
		return nil, fmt.Errorf("%w: packet header at %#x past end of data chunk", ErrContainerFormat, offset)
	}

	p := &Packet{Offset: offset + hdr}
	if f.Format.OldPacketHeaders {
		p.Size = int(binary.LittleEndian.Uint32(f.Data[offset:]))
		p.Granule = binary.LittleEndian.Uint32(f.Data[offset+4:])
	} else {
		p.Size = int(binary.LittleEndian.Uint16(f.Data[offset:]))
		if !f.Format.NoGranule {
			p.Granule = binary.LittleEndian.Uint32(f.Data[offset+2:])
		}
	}
	p.Next = p.Offset + p.Size

	if p.Next > len(f.Data) {
		return nil, fmt.Errorf("%w: packet at %#x runs past end of data chunk", ErrContainerFormat, offset)
	}
	return p, nil
}

// Info returns a human-readable summary of the container, in the shape
// of one line per fact.
func (f *File) Info() string {
	var b strings.Builder
	fmt.Fprintf(&b, "channels: %d\n", f.Format.Channels)
	fmt.Fprintf(&b, "sample rate: %d Hz\n", f.Format.SampleRate)
	fmt.Fprintf(&b, "samples: %d\n", f.Format.SampleCount)
	fmt.Fprintf(&b, "data chunk: %d bytes\n", len(f.Data))
	if f.Format.HeaderTriadPresent {
		b.WriteString("setup: embedded header triad\n")
	} else {
		fmt.Fprintf(&b, "setup id: %#08x\n", f.Format.UID)
		fmt.Fprintf(&b, "block sizes: %d/%d samples\n",
			f.Format.BlockSize(false), f.Format.BlockSize(true))
	}
	fmt.Fprintf(&b, "packet headers: %d bytes", f.Format.HeaderSize())
	if f.Format.ModPackets {
		b.WriteString(", modified packets")
	}
	b.WriteByte('\n')
	if f.Format.LoopCount != 0 {
		fmt.Fprintf(&b, "loop: %d-%d\n", f.Format.LoopStart, f.Format.LoopEnd)
	}
	return b.String()
}
