package codebook

import (
	"fmt"

	"github.com/tnt-coders/wwise-audio-tools/bitpack"
)

// syncPattern is the 24-bit "BCV" marker that precedes every codebook in
// a standard Vorbis setup header.
const syncPattern = 0x564342

// maxCodewordLength is the longest codeword length Vorbis can express
// (a stored 5-bit length of 31, plus one).
const maxCodewordLength = 32

// Profile names the field widths a codebook serialization uses. Wwise
// narrows several counts relative to the Vorbis specification; the bit
// order is identical in both.
type Profile struct {
	// Sync indicates the 24-bit sync pattern precedes each codebook.
	Sync bool
	// DimensionBits and EntryBits size the dimension and entry-count
	// fields.
	DimensionBits uint
	EntryBits     uint
	// LookupTypeBits sizes the VQ lookup-type field.
	LookupTypeBits uint
	// NarrowLengths indicates unordered codeword lengths are stored in a
	// declared 1-5 bit field instead of the fixed 5 bits.
	NarrowLengths bool
}

var (
	// VendorProfile is the compact Wwise serialization.
	VendorProfile = Profile{
		DimensionBits:  4,
		EntryBits:      14,
		LookupTypeBits: 1,
		NarrowLengths:  true,
	}

	// StandardProfile is the Vorbis specification serialization.
	StandardProfile = Profile{
		Sync:           true,
		DimensionBits:  16,
		EntryBits:      24,
		LookupTypeBits: 4,
	}
)

// Codebook is a decoded Vorbis codebook: the Huffman code-length table
// and, for lookup type 1, the VQ value table. Descriptors are immutable
// once decoded and may be shared across conversions.
type Codebook struct {
	Dimensions uint32
	Entries    uint32

	// Ordered indicates the codeword lengths were stored as
	// monotonically increasing runs.
	Ordered bool
	// Sparse indicates unordered entries carry a presence flag.
	Sparse bool
	// Lengths holds one codeword length per entry; 0 marks an unused
	// (sparse, absent) entry.
	Lengths []uint8

	// LookupType is 0 (no VQ table) or 1 (multiplicative decomposition).
	LookupType uint32
	MinValue   uint32
	MaxValue   uint32
	// ValueBits is the width of each stored lookup value (1-16).
	ValueBits uint32
	Sequenced bool
	// LookupValues holds the quantized scalar values, quantvals of them.
	LookupValues []uint32
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

// quantvals returns floor(entries^(1/dimensions)), the number of scalar
// values a lookup type 1 table stores. The hint-and-polish loop matches
// Tremor's _book_maptype1_quantvals.
func quantvals(entries, dimensions uint32) uint32 {
	bits := ilog(entries)

	// Fewer entries than 2^dimensions means a single scalar value. The
	// early return also keeps the products below within int64 range for
	// the 16-bit dimension counts a standard codebook can declare.
	if bits <= uint(dimensions) {
		return 1
	}

	vals := int64(entries >> ((bits - 1) * (uint(dimensions) - 1) / uint(dimensions)))

	for {
		acc := int64(1)
		acc1 := int64(1)
		for i := uint32(0); i < dimensions; i++ {
			acc *= vals
			acc1 *= vals + 1
		}
		if acc <= int64(entries) && acc1 > int64(entries) {
			return uint32(vals)
		}
		if acc > int64(entries) {
			vals--
		} else {
			vals++
		}
	}
}

// Decode reads one codebook serialized under profile p. The reader is
// left positioned at the first bit after the codebook.
func Decode(r *bitpack.Reader, p Profile) (*Codebook, error) {
	if p.Sync {
		if sync := r.Read(24); r.Err() == nil && sync != syncPattern {
			return nil, fmt.Errorf("%w: bad sync pattern %#06x", ErrFormat, sync)
		}
	}

	cb := &Codebook{
		Dimensions: r.Read(p.DimensionBits),
		Entries:    r.Read(p.EntryBits),
	}
	cb.Ordered = r.ReadBool()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if cb.Entries == 0 {
		return nil, fmt.Errorf("%w: zero entries", ErrFormat)
	}

	cb.Lengths = make([]uint8, cb.Entries)
	if cb.Ordered {
		if err := decodeOrderedLengths(r, cb); err != nil {
			return nil, err
		}
	} else {
		if err := decodeUnorderedLengths(r, cb, p); err != nil {
			return nil, err
		}
	}

	cb.LookupType = r.Read(p.LookupTypeBits)
	if err := r.Err(); err != nil {
		return nil, err
	}
	switch cb.LookupType {
	case 0:
		// no lookup table
	case 1:
		if cb.Dimensions == 0 {
			return nil, fmt.Errorf("%w: lookup table with zero dimensions", ErrFormat)
		}
		cb.MinValue = r.Read(32)
		cb.MaxValue = r.Read(32)
		cb.ValueBits = r.Read(4) + 1
		cb.Sequenced = r.ReadBool()
		cb.LookupValues = make([]uint32, quantvals(cb.Entries, cb.Dimensions))
		for i := range cb.LookupValues {
			cb.LookupValues[i] = r.Read(uint(cb.ValueBits))
		}
	case 2:
		return nil, fmt.Errorf("%w: lookup type 2", ErrFormat)
	default:
		return nil, fmt.Errorf("%w: invalid lookup type %d", ErrFormat, cb.LookupType)
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := cb.checkPrefixCode(); err != nil {
		return nil, err
	}
	return cb, nil
}

func decodeOrderedLengths(r *bitpack.Reader, cb *Codebook) error {
	length := r.Read(5) + 1
	var cur uint32
	for cur < cb.Entries {
		n := r.Read(ilog(cb.Entries - cur))
		if err := r.Err(); err != nil {
			return err
		}
		if cur+n > cb.Entries {
			return fmt.Errorf("%w: ordered length run past entry count", ErrFormat)
		}
		if length > maxCodewordLength {
			return fmt.Errorf("%w: codeword length %d", ErrFormat, length)
		}
		for i := uint32(0); i < n; i++ {
			cb.Lengths[cur+i] = uint8(length)
		}
		cur += n
		length++
	}
	return r.Err()
}

func decodeUnorderedLengths(r *bitpack.Reader, cb *Codebook, p Profile) error {
	lengthBits := uint(5)
	if p.NarrowLengths {
		cll := r.Read(3)
		if err := r.Err(); err != nil {
			return err
		}
		if cll == 0 || cll > 5 {
			return fmt.Errorf("%w: nonsense codeword length width %d", ErrFormat, cll)
		}
		lengthBits = uint(cll)
	}
	cb.Sparse = r.ReadBool()
	for i := range cb.Lengths {
		present := true
		if cb.Sparse {
			present = r.ReadBool()
		}
		if present {
			cb.Lengths[i] = uint8(r.Read(lengthBits) + 1)
		}
	}
	return r.Err()
}

// checkPrefixCode rejects length tables that over-subscribe the code
// space: no assignment of codewords can then form a prefix code, so the
// book could never have been produced by a working encoder.
func (cb *Codebook) checkPrefixCode() error {
	var used uint64
	for _, l := range cb.Lengths {
		if l == 0 {
			continue
		}
		used += 1 << (maxCodewordLength - uint(l))
	}
	if used > 1<<maxCodewordLength {
		return fmt.Errorf("%w: over-subscribed codeword lengths", ErrFormat)
	}
	return nil
}

// Encode writes the codebook under profile p. Encoding under
// StandardProfile of a vendor-decoded book performs the width expansion
// a reconstructed setup header needs; lengths, lookup values, and entry
// order are emitted unchanged.
func (cb *Codebook) Encode(w *bitpack.Writer, p Profile) error {
	if p.Sync {
		w.Write(syncPattern, 24)
	}
	w.Write(cb.Dimensions, p.DimensionBits)
	w.Write(cb.Entries, p.EntryBits)
	w.WriteBool(cb.Ordered)

	if cb.Ordered {
		if err := cb.encodeOrderedLengths(w); err != nil {
			return err
		}
	} else {
		if err := cb.encodeUnorderedLengths(w, p); err != nil {
			return err
		}
	}

	w.Write(cb.LookupType, p.LookupTypeBits)
	if cb.LookupType == 1 {
		w.Write(cb.MinValue, 32)
		w.Write(cb.MaxValue, 32)
		w.Write(cb.ValueBits-1, 4)
		w.WriteBool(cb.Sequenced)
		for _, v := range cb.LookupValues {
			w.Write(v, uint(cb.ValueBits))
		}
	}
	return nil
}

func (cb *Codebook) encodeOrderedLengths(w *bitpack.Writer) error {
	if len(cb.Lengths) == 0 || cb.Lengths[0] == 0 {
		return fmt.Errorf("%w: ordered book without initial length", ErrFormat)
	}
	length := uint32(cb.Lengths[0])
	w.Write(length-1, 5)

	var cur uint32
	for cur < cb.Entries {
		if length > maxCodewordLength {
			return fmt.Errorf("%w: ordered lengths not monotonic", ErrFormat)
		}
		var n uint32
		for cur+n < cb.Entries && uint32(cb.Lengths[cur+n]) == length {
			n++
		}
		if cur+n < cb.Entries && uint32(cb.Lengths[cur+n]) < length {
			return fmt.Errorf("%w: ordered lengths not monotonic", ErrFormat)
		}
		w.Write(n, ilog(cb.Entries-cur))
		cur += n
		length++
	}
	return nil
}

func (cb *Codebook) encodeUnorderedLengths(w *bitpack.Writer, p Profile) error {
	lengthBits := uint(5)
	if p.NarrowLengths {
		var maxLen uint32
		for _, l := range cb.Lengths {
			if uint32(l) > maxLen {
				maxLen = uint32(l)
			}
		}
		if maxLen == 0 {
			return fmt.Errorf("%w: no used entries", ErrFormat)
		}
		cll := ilog(maxLen - 1)
		if cll == 0 {
			cll = 1
		}
		w.Write(uint32(cll), 3)
		lengthBits = cll
	}
	w.WriteBool(cb.Sparse)
	for _, l := range cb.Lengths {
		if cb.Sparse {
			w.WriteBool(l != 0)
			if l == 0 {
				continue
			}
		} else if l == 0 {
			return fmt.Errorf("%w: unused entry in non-sparse book", ErrFormat)
		}
		w.Write(uint32(l)-1, lengthBits)
	}
	return nil
}
