package vorbis

import (
	"errors"
	"fmt"

	"github.com/tnt-coders/wwise-audio-tools/bitpack"
	"github.com/tnt-coders/wwise-audio-tools/codebook"
	"github.com/tnt-coders/wwise-audio-tools/wem"
)

const (
	packetTypeIdent   = 1
	packetTypeComment = 3
	packetTypeSetup   = 5
)

// vendorString identifies the converter in the comment header.
const vendorString = "converted from Audiokinetic Wwise by wwise-audio-tools"

// HeaderSet holds the three canonical Vorbis header packets, plus the
// mode table the packet remuxer needs to rebuild audio packets.
type HeaderSet struct {
	Identification []byte
	Comment        []byte
	Setup          []byte

	// ModeBlockflags maps mode number to block flag (true for the long
	// window); ModeBits is the width of the mode-number field in audio
	// packets. Both are nil/zero when the headers were copied verbatim
	// from an embedded triad.
	ModeBlockflags []bool
	ModeBits       uint
}

func writePacketType(w *bitpack.Writer, typ uint32) {
	w.Write(typ, 8)
	w.WriteBytes([]byte("vorbis"))
}

// ilog returns the number of bits needed to represent v (0 for v == 0).
func ilog(v uint32) uint {
	var n uint
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}

// ReconstructHeaders builds the Vorbis header triad for a WEM whose
// headers were stripped. External codebook references are resolved
// through lib; inlineCodebooks and fullSetup select the rarer encodings
// where the setup packet carries its own codebooks, or a complete
// unstripped setup bitstream.
func ReconstructHeaders(f *wem.File, lib *codebook.Library, inlineCodebooks, fullSetup bool) (*HeaderSet, error) {
	hs := &HeaderSet{
		Identification: identPacket(&f.Format),
		Comment:        commentPacket(&f.Format),
	}
	if err := reconstructSetup(hs, f, lib, inlineCodebooks, fullSetup); err != nil {
		return nil, err
	}
	return hs, nil
}

func identPacket(f *wem.Format) []byte {
	w := bitpack.NewWriter()
	writePacketType(w, packetTypeIdent)
	w.Write(0, 32) // version
	w.Write(uint32(f.Channels), 8)
	w.Write(f.SampleRate, 32)
	w.Write(0, 32)                  // bitrate maximum
	w.Write(f.AvgBytesPerSec*8, 32) // bitrate nominal
	w.Write(0, 32)                  // bitrate minimum
	w.Write(uint32(f.Blocksize0Pow), 4)
	w.Write(uint32(f.Blocksize1Pow), 4)
	w.WriteBool(true) // framing
	return w.Bytes()
}

func commentPacket(f *wem.Format) []byte {
	w := bitpack.NewWriter()
	writePacketType(w, packetTypeComment)

	w.Write(uint32(len(vendorString)), 32)
	w.WriteBytes([]byte(vendorString))

	if f.LoopCount == 0 {
		w.Write(0, 32)
	} else {
		w.Write(2, 32)
		for _, tag := range []string{
			fmt.Sprintf("LoopStart=%d", f.LoopStart),
			fmt.Sprintf("LoopEnd=%d", f.LoopEnd),
		} {
			w.Write(uint32(len(tag)), 32)
			w.WriteBytes([]byte(tag))
		}
	}

	w.WriteBool(true) // framing
	return w.Bytes()
}

func reconstructSetup(hs *HeaderSet, f *wem.File, lib *codebook.Library, inlineCodebooks, fullSetup bool) error {
	pkt, err := f.PacketAt(int(f.Format.SetupPacketOffset))
	if err != nil {
		return err
	}
	if pkt.Granule != 0 {
		return fmt.Errorf("%w: setup packet granule %d, expected 0", wem.ErrContainerFormat, pkt.Granule)
	}

	payload := pkt.Payload(f.Data)
	r := bitpack.NewReader(payload)
	w := bitpack.NewWriter()
	writePacketType(w, packetTypeSetup)

	countLess1 := r.Read(8)
	if err := r.Err(); err != nil {
		return fmt.Errorf("setup header: %w", err)
	}
	w.Write(countLess1, 8)
	codebookCount := countLess1 + 1

	if inlineCodebooks {
		for i := uint32(0); i < codebookCount; i++ {
			profile := codebook.VendorProfile
			if fullSetup {
				profile = codebook.StandardProfile
			}
			cb, err := codebook.Decode(r, profile)
			if err != nil {
				return fmt.Errorf("inline codebook %d: %w", i, err)
			}
			if err := cb.Encode(w, codebook.StandardProfile); err != nil {
				return fmt.Errorf("inline codebook %d: %w", i, err)
			}
		}
	} else {
		for i := uint32(0); i < codebookCount; i++ {
			id := r.Read(10)
			if err := r.Err(); err != nil {
				return fmt.Errorf("setup header: %w", err)
			}
			cb, err := lib.Lookup(int(id))
			if err != nil {
				// A reference of 0x342 positioned over the "BCV" sync
				// pattern usually means the setup was never stripped.
				if errors.Is(err, codebook.ErrNotFound) && id == 0x342 && r.Read(14) == 0x1590 {
					return fmt.Errorf("%w: stream looks like a full setup header", err)
				}
				return err
			}
			if err := cb.Encode(w, codebook.StandardProfile); err != nil {
				return fmt.Errorf("codebook %d: %w", id, err)
			}
		}
	}

	// Time-domain transform placeholder: a count of zero and one unused
	// 16-bit slot.
	w.Write(0, 6)
	w.Write(0, 16)

	if fullSetup {
		for r.BitsRead() < uint64(len(payload))*8 {
			b := r.ReadBool()
			if err := r.Err(); err != nil {
				return fmt.Errorf("setup header: %w", err)
			}
			w.WriteBool(b)
		}
	} else if err := rebuildStrippedSetup(hs, r, w, uint32(f.Format.Channels), codebookCount); err != nil {
		return err
	}

	if err := r.Err(); err != nil {
		return fmt.Errorf("setup header: %w", err)
	}
	if (r.BitsRead()+7)/8 != uint64(len(payload)) {
		return fmt.Errorf("%w: setup packet not fully consumed", ErrHeaderReconstruction)
	}
	if pkt.Next != int(f.Format.FirstAudioPacketOffset) {
		return fmt.Errorf("%w: first audio packet does not follow setup packet", wem.ErrContainerFormat)
	}

	hs.Setup = w.Bytes()
	return nil
}

// rebuildStrippedSetup expands the floor, residue, mapping, and mode
// sections from the Wwise stripped form to the standard one, recording
// the mode table on hs for the packet remuxer.
func rebuildStrippedSetup(hs *HeaderSet, r *bitpack.Reader, w *bitpack.Writer, channels, codebookCount uint32) error {
	floorCountLess1 := r.Read(6)
	w.Write(floorCountLess1, 6)
	floorCount := floorCountLess1 + 1

	for i := uint32(0); i < floorCount; i++ {
		w.Write(1, 16) // floor type, always 1

		partitions := r.Read(5)
		w.Write(partitions, 5)

		classList := make([]uint32, partitions)
		var maximumClass uint32
		for j := range classList {
			class := r.Read(4)
			w.Write(class, 4)
			classList[j] = class
			if class > maximumClass {
				maximumClass = class
			}
		}

		classDimensions := make([]uint32, maximumClass+1)
		for j := range classDimensions {
			dimsLess1 := r.Read(3)
			w.Write(dimsLess1, 3)
			classDimensions[j] = dimsLess1 + 1

			subclasses := r.Read(2)
			w.Write(subclasses, 2)
			if subclasses != 0 {
				masterbook := r.Read(8)
				w.Write(masterbook, 8)
				if r.Err() == nil && masterbook >= codebookCount {
					return fmt.Errorf("%w: floor masterbook %d out of range", ErrHeaderReconstruction, masterbook)
				}
			}
			for k := uint32(0); k < 1<<subclasses; k++ {
				bookPlus1 := r.Read(8)
				w.Write(bookPlus1, 8)
				if r.Err() == nil && bookPlus1 > codebookCount {
					return fmt.Errorf("%w: floor subclass book %d out of range", ErrHeaderReconstruction, bookPlus1-1)
				}
			}
		}

		w.Write(r.Read(2), 2) // multiplier - 1
		rangebits := r.Read(4)
		w.Write(rangebits, 4)
		if err := r.Err(); err != nil {
			return fmt.Errorf("setup header: %w", err)
		}

		// X values are rangebits wide; rangebits of zero stores nothing.
		if rangebits > 0 {
			for _, class := range classList {
				for k := uint32(0); k < classDimensions[class]; k++ {
					w.Write(r.Read(uint(rangebits)), uint(rangebits))
				}
			}
		}
	}

	residueCountLess1 := r.Read(6)
	w.Write(residueCountLess1, 6)
	residueCount := residueCountLess1 + 1

	for i := uint32(0); i < residueCount; i++ {
		residueType := r.Read(2)
		w.Write(residueType, 16)
		if r.Err() == nil && residueType > 2 {
			return fmt.Errorf("%w: residue type %d", ErrHeaderReconstruction, residueType)
		}

		w.Write(r.Read(24), 24) // begin
		w.Write(r.Read(24), 24) // end
		w.Write(r.Read(24), 24) // partition size - 1
		classificationsLess1 := r.Read(6)
		w.Write(classificationsLess1, 6)
		classbook := r.Read(8)
		w.Write(classbook, 8)
		if r.Err() == nil && classbook >= codebookCount {
			return fmt.Errorf("%w: residue classbook %d out of range", ErrHeaderReconstruction, classbook)
		}

		classifications := classificationsLess1 + 1
		cascade := make([]uint32, classifications)
		for j := range cascade {
			low := r.Read(3)
			w.Write(low, 3)
			var high uint32
			if r.ReadBool() {
				w.WriteBool(true)
				high = r.Read(5)
				w.Write(high, 5)
			} else {
				w.WriteBool(false)
			}
			cascade[j] = high*8 + low
		}
		for _, c := range cascade {
			for k := uint(0); k < 8; k++ {
				if c&(1<<k) == 0 {
					continue
				}
				book := r.Read(8)
				w.Write(book, 8)
				if r.Err() == nil && book >= codebookCount {
					return fmt.Errorf("%w: residue book %d out of range", ErrHeaderReconstruction, book)
				}
			}
		}
	}

	mappingCountLess1 := r.Read(6)
	w.Write(mappingCountLess1, 6)
	mappingCount := mappingCountLess1 + 1

	for i := uint32(0); i < mappingCount; i++ {
		w.Write(0, 16) // mapping type, always 0

		submaps := uint32(1)
		if r.ReadBool() {
			w.WriteBool(true)
			submapsLess1 := r.Read(4)
			w.Write(submapsLess1, 4)
			submaps = submapsLess1 + 1
		} else {
			w.WriteBool(false)
		}

		if r.ReadBool() {
			w.WriteBool(true)
			stepsLess1 := r.Read(8)
			w.Write(stepsLess1, 8)
			couplingBits := ilog(channels - 1)
			for j := uint32(0); j <= stepsLess1; j++ {
				var magnitude, angle uint32
				if couplingBits > 0 {
					magnitude = r.Read(couplingBits)
					w.Write(magnitude, couplingBits)
					angle = r.Read(couplingBits)
					w.Write(angle, couplingBits)
				}
				if r.Err() == nil &&
					(angle == magnitude || magnitude >= channels || angle >= channels) {
					return fmt.Errorf("%w: invalid channel coupling %d/%d", ErrHeaderReconstruction, magnitude, angle)
				}
			}
		} else {
			w.WriteBool(false)
		}

		// Wwise leaves this reserved field in place.
		reserved := r.Read(2)
		w.Write(reserved, 2)
		if r.Err() == nil && reserved != 0 {
			return fmt.Errorf("%w: mapping reserved field %d", ErrHeaderReconstruction, reserved)
		}

		if submaps > 1 {
			for j := uint32(0); j < channels; j++ {
				mux := r.Read(4)
				w.Write(mux, 4)
				if r.Err() == nil && mux >= submaps {
					return fmt.Errorf("%w: channel multiplex %d out of range", ErrHeaderReconstruction, mux)
				}
			}
		}

		for j := uint32(0); j < submaps; j++ {
			w.Write(r.Read(8), 8) // unused time configuration

			floor := r.Read(8)
			w.Write(floor, 8)
			if r.Err() == nil && floor >= floorCount {
				return fmt.Errorf("%w: submap floor %d out of range", ErrHeaderReconstruction, floor)
			}

			residue := r.Read(8)
			w.Write(residue, 8)
			if r.Err() == nil && residue >= residueCount {
				return fmt.Errorf("%w: submap residue %d out of range", ErrHeaderReconstruction, residue)
			}
		}
	}

	modeCountLess1 := r.Read(6)
	w.Write(modeCountLess1, 6)
	modeCount := modeCountLess1 + 1
	if err := r.Err(); err != nil {
		return fmt.Errorf("setup header: %w", err)
	}

	hs.ModeBlockflags = make([]bool, modeCount)
	hs.ModeBits = ilog(modeCount - 1)

	for i := uint32(0); i < modeCount; i++ {
		blockflag := r.ReadBool()
		w.WriteBool(blockflag)
		hs.ModeBlockflags[i] = blockflag

		w.Write(0, 16) // window type
		w.Write(0, 16) // transform type

		mapping := r.Read(8)
		w.Write(mapping, 8)
		if r.Err() == nil && mapping >= mappingCount {
			return fmt.Errorf("%w: mode mapping %d out of range", ErrHeaderReconstruction, mapping)
		}
	}

	w.WriteBool(true) // framing
	return nil
}
