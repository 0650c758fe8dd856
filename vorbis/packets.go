package vorbis

import (
	"fmt"
	"io"

	"github.com/tnt-coders/wwise-audio-tools/bitpack"
	"github.com/tnt-coders/wwise-audio-tools/wem"
)

// AudioPacket is one rebuilt Vorbis audio packet ready for muxing.
type AudioPacket struct {
	Payload []byte
	// Granule is the absolute granule position after this packet.
	Granule int64
	// Last marks the final packet of the stream.
	Last bool
}

// PacketReader walks the audio packets of a WEM in order, restoring the
// stripped leading bits of modified packets and recovering granule
// positions. It is single pass: the data chunk is read once, front to
// back.
type PacketReader struct {
	f       *wem.File
	headers *HeaderSet

	offset        int
	prevBlockflag bool
	lastBlocksize uint32
	granule       int64
}

// NewPacketReader positions a reader at the container's first audio
// packet. The header set must come from the same container.
func NewPacketReader(f *wem.File, headers *HeaderSet) *PacketReader {
	return &PacketReader{
		f:       f,
		headers: headers,
		offset:  int(f.Format.FirstAudioPacketOffset),
	}
}

// Next returns the next audio packet, or io.EOF after the last one.
func (pr *PacketReader) Next() (*AudioPacket, error) {
	if pr.offset >= len(pr.f.Data) {
		return nil, io.EOF
	}

	p, err := pr.f.PacketAt(pr.offset)
	if err != nil {
		return nil, err
	}
	payload := p.Payload(pr.f.Data)

	out := &AudioPacket{Last: p.Next >= len(pr.f.Data)}

	mode := uint32(0)
	haveMode := false
	if pr.f.Format.ModPackets {
		if pr.headers.ModeBlockflags == nil {
			return nil, fmt.Errorf("%w: no mode table for modified packets", ErrHeaderReconstruction)
		}
		rebuilt, m, err := pr.rebuildPacket(p, payload)
		if err != nil {
			return nil, err
		}
		out.Payload = rebuilt
		mode, haveMode = m, true
	} else {
		out.Payload = payload
		if pr.headers.ModeBlockflags != nil && len(payload) > 0 {
			// A standard audio packet leads with the type bit, then the
			// mode number.
			r := bitpack.NewReader(payload)
			r.Read(1)
			mode = pr.readMode(r)
			if err := r.Err(); err != nil {
				return nil, fmt.Errorf("audio packet at %#x: %w", pr.offset, err)
			}
			haveMode = true
		}
	}

	if pr.headers.ModeBlockflags == nil {
		// Vendor-recorded granules pass through; the all-ones marker is
		// treated as position 1.
		g := p.Granule
		if g == 0xFFFFFFFF {
			g = 1
		}
		out.Granule = int64(g)
	} else {
		if haveMode {
			if int(mode) >= len(pr.headers.ModeBlockflags) {
				return nil, fmt.Errorf("%w: mode number %d out of range", wem.ErrContainerFormat, mode)
			}
			bs := pr.f.Format.BlockSize(pr.headers.ModeBlockflags[mode])
			if pr.lastBlocksize != 0 {
				pr.granule += int64((pr.lastBlocksize + bs) / 4)
			}
			pr.lastBlocksize = bs
		}
		out.Granule = pr.granule
		if out.Last && out.Granule > int64(pr.f.Format.SampleCount) {
			out.Granule = int64(pr.f.Format.SampleCount)
		}
	}

	pr.offset = p.Next
	return out, nil
}

func (pr *PacketReader) readMode(r *bitpack.Reader) uint32 {
	if pr.headers.ModeBits == 0 {
		return 0
	}
	return r.Read(pr.headers.ModeBits)
}

// rebuildPacket restores the first byte of a modified packet: the
// packet-type bit, and for long-window modes the previous and next
// window flags, which need a peek at the following packet's mode.
func (pr *PacketReader) rebuildPacket(p *wem.Packet, payload []byte) ([]byte, uint32, error) {
	if len(payload) == 0 {
		return nil, 0, fmt.Errorf("%w: empty modified packet at %#x", wem.ErrContainerFormat, pr.offset)
	}

	r := bitpack.NewReader(payload)
	mode := pr.readMode(r)
	var remainder uint32
	if remBits := 8 - pr.headers.ModeBits; remBits > 0 {
		remainder = r.Read(remBits)
	}
	if err := r.Err(); err != nil {
		return nil, 0, fmt.Errorf("audio packet at %#x: %w", pr.offset, err)
	}
	if int(mode) >= len(pr.headers.ModeBlockflags) {
		return nil, 0, fmt.Errorf("%w: mode number %d out of range", wem.ErrContainerFormat, mode)
	}

	w := bitpack.NewWriter()
	w.WriteBool(false) // packet type: audio
	if pr.headers.ModeBits > 0 {
		w.Write(mode, pr.headers.ModeBits)
	}

	if pr.headers.ModeBlockflags[mode] {
		// Long window: the flags describe the neighboring windows, and
		// the next one has to be read ahead from the following packet.
		next := false
		if p.Next+pr.f.Format.HeaderSize() <= len(pr.f.Data) {
			if np, err := pr.f.PacketAt(p.Next); err == nil && np.Size > 0 {
				nr := bitpack.NewReader(np.Payload(pr.f.Data))
				nm := pr.readMode(nr)
				if nr.Err() == nil && int(nm) < len(pr.headers.ModeBlockflags) {
					next = pr.headers.ModeBlockflags[nm]
				}
			}
		}
		w.WriteBool(pr.prevBlockflag)
		w.WriteBool(next)
	}
	pr.prevBlockflag = pr.headers.ModeBlockflags[mode]

	if remBits := 8 - pr.headers.ModeBits; remBits > 0 {
		w.Write(remainder, remBits)
	}
	w.WriteBytes(payload[1:])
	return w.Bytes(), mode, nil
}
