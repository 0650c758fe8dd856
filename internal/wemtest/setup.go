// SPDX-License-Identifier: EPL-2.0

package wemtest

import (
	"github.com/tnt-coders/wwise-audio-tools/bitpack"
	"github.com/tnt-coders/wwise-audio-tools/codebook"
)

// Setup describes a minimal stripped setup packet: the requested
// codebook references, one fixed floor, one fixed residue, one fixed
// mapping, and the given mode block flags.
type Setup struct {
	// ExternalIDs emits packed 10-bit library references; Inline emits
	// full vendor-serialized codebooks. Exactly one should be set.
	ExternalIDs []uint32
	Inline      []*codebook.Codebook

	// ModeBlockflags lists one block flag per mode.
	ModeBlockflags []bool
}

// Bytes serializes the setup packet.
func (s Setup) Bytes() []byte {
	w := bitpack.NewWriter()

	if s.Inline != nil {
		w.Write(uint32(len(s.Inline)-1), 8)
		for _, cb := range s.Inline {
			if err := cb.Encode(w, codebook.VendorProfile); err != nil {
				panic("wemtest: encode inline codebook: " + err.Error())
			}
		}
	} else {
		w.Write(uint32(len(s.ExternalIDs)-1), 8)
		for _, id := range s.ExternalIDs {
			w.Write(id, 10)
		}
	}

	// One floor: a single partition of class 0, two X values.
	w.Write(0, 6) // floor count - 1
	w.Write(1, 5) // partitions
	w.Write(0, 4) // partition 0 class
	w.Write(1, 3) // class 0 dimensions - 1
	w.Write(0, 2) // class 0 subclasses
	w.Write(0, 8) // subclass book 0
	w.Write(0, 2) // multiplier - 1
	w.Write(1, 4) // rangebits
	w.Write(0, 1) // X[2]
	w.Write(1, 1) // X[3]

	// One residue with an empty cascade.
	w.Write(0, 6)    // residue count - 1
	w.Write(0, 2)    // type
	w.Write(0, 24)   // begin
	w.Write(256, 24) // end
	w.Write(7, 24)   // partition size - 1
	w.Write(0, 6)    // classifications - 1
	w.Write(0, 8)    // classbook
	w.Write(0, 3)    // cascade low bits
	w.Write(0, 1)    // cascade bitflag

	// One mapping: single submap, no coupling.
	w.Write(0, 6) // mapping count - 1
	w.Write(0, 1) // submaps flag
	w.Write(0, 1) // square polar flag
	w.Write(0, 2) // reserved
	w.Write(0, 8) // time configuration
	w.Write(0, 8) // floor
	w.Write(0, 8) // residue

	w.Write(uint32(len(s.ModeBlockflags)-1), 6)
	for _, long := range s.ModeBlockflags {
		w.WriteBool(long)
		w.Write(0, 8) // mapping
	}

	w.Flush()
	return w.Bytes()
}

// ModAudioPacket builds a stripped audio packet first byte: the mode
// number in the low modeBits bits, rest in the remaining high bits,
// then any further payload.
func ModAudioPacket(mode uint32, modeBits uint, rest byte, body ...byte) []byte {
	w := bitpack.NewWriter()
	w.Write(mode, modeBits)
	w.Write(uint32(rest), 8-modeBits)
	w.Flush()
	return append(w.Bytes(), body...)
}
