package bitpack

import "fmt"

// Reader reads unsigned integer fields of 1 to 32 bits from a byte slice,
// least-significant-bit first within each byte.
//
// Errors are sticky: after the first failure every Read returns 0 and Err
// reports the original cause.
type Reader struct {
	data []byte
	pos  int    // index of the byte currently being consumed
	bit  uint   // bits of data[pos] already consumed (0-7)
	read uint64 // total bits consumed
	err  error
}

// NewReader returns a Reader positioned at the first bit of data.
// The slice is not copied; it must not be mutated while reading.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Read consumes width bits and returns them as an unsigned integer.
// Once the reader has failed, Read returns 0.
func (r *Reader) Read(width uint) uint32 {
	if r.err != nil {
		return 0
	}
	if width == 0 || width > 32 {
		r.err = fmt.Errorf("%w: %d", ErrBitWidth, width)
		return 0
	}

	var v uint32
	for i := uint(0); i < width; i++ {
		if r.pos >= len(r.data) {
			r.err = ErrTruncatedData
			return 0
		}
		if r.data[r.pos]&(1<<r.bit) != 0 {
			v |= 1 << i
		}
		r.bit++
		r.read++
		if r.bit == 8 {
			r.bit = 0
			r.pos++
		}
	}
	return v
}

// ReadBool consumes a single bit.
func (r *Reader) ReadBool() bool {
	return r.Read(1) != 0
}

// Err returns the first error encountered, or nil.
func (r *Reader) Err() error {
	return r.err
}

// BitsRead returns the total number of bits consumed so far.
func (r *Reader) BitsRead() uint64 {
	return r.read
}
