package vorbis

import (
	"fmt"

	"github.com/tnt-coders/wwise-audio-tools/bitpack"
	"github.com/tnt-coders/wwise-audio-tools/codebook"
	"github.com/tnt-coders/wwise-audio-tools/wem"
)

// CopyHeaderTriad extracts the embedded Vorbis header triad from an
// old-style WEM. The identification and comment packets are copied
// verbatim; the setup packet's codebooks are decoded and re-emitted,
// which validates them without changing the encoding.
//
// The returned HeaderSet has no mode table: old containers record each
// packet's granule position explicitly, so the remuxer never needs one.
func CopyHeaderTriad(f *wem.File) (*HeaderSet, error) {
	hs := &HeaderSet{}

	offset := int(f.Format.SetupPacketOffset)
	for _, part := range []struct {
		typ  byte
		name string
		dst  *[]byte
	}{
		{packetTypeIdent, "identification", &hs.Identification},
		{packetTypeComment, "comment", &hs.Comment},
		{packetTypeSetup, "setup", &hs.Setup},
	} {
		pkt, err := f.PacketAt(offset)
		if err != nil {
			return nil, err
		}
		if pkt.Granule != 0 {
			return nil, fmt.Errorf("%w: %s packet granule %d, expected 0",
				wem.ErrContainerFormat, part.name, pkt.Granule)
		}

		payload := pkt.Payload(f.Data)
		if len(payload) == 0 || payload[0] != part.typ {
			return nil, fmt.Errorf("%w: wrong type for %s packet", wem.ErrContainerFormat, part.name)
		}

		if part.typ == packetTypeSetup {
			rebuilt, err := copySetup(payload)
			if err != nil {
				return nil, err
			}
			*part.dst = rebuilt
		} else {
			*part.dst = payload
		}
		offset = pkt.Next
	}

	if offset != int(f.Format.FirstAudioPacketOffset) {
		return nil, fmt.Errorf("%w: first audio packet does not follow setup packet", wem.ErrContainerFormat)
	}
	return hs, nil
}

// copySetup re-encodes a standard setup packet, validating each
// codebook along the way. Output bits equal input bits, so the packet
// survives unchanged apart from zeroed pad bits.
func copySetup(payload []byte) ([]byte, error) {
	r := bitpack.NewReader(payload)
	w := bitpack.NewWriter()

	w.Write(r.Read(8), 8) // packet type, checked by the caller
	for i := 0; i < 6; i++ {
		w.Write(r.Read(8), 8) // "vorbis"
	}

	countLess1 := r.Read(8)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("setup packet: %w", err)
	}
	w.Write(countLess1, 8)

	for i := uint32(0); i <= countLess1; i++ {
		cb, err := codebook.Decode(r, codebook.StandardProfile)
		if err != nil {
			return nil, fmt.Errorf("embedded codebook %d: %w", i, err)
		}
		if err := cb.Encode(w, codebook.StandardProfile); err != nil {
			return nil, fmt.Errorf("embedded codebook %d: %w", i, err)
		}
	}

	for r.BitsRead() < uint64(len(payload))*8 {
		b := r.ReadBool()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("setup packet: %w", err)
		}
		w.WriteBool(b)
	}
	return w.Bytes(), nil
}
