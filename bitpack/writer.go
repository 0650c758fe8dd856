package bitpack

// Writer assembles a bitstream least-significant-bit first within each
// byte, growing its output buffer on demand.
type Writer struct {
	buf     []byte
	cur     byte
	nbits   uint   // bits stored in cur (0-7)
	written uint64 // total bits written
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write appends the low `width` bits of v to the stream. Bits of v above
// the field width are discarded. Widths outside 1-32 write nothing.
func (w *Writer) Write(v uint32, width uint) {
	if width == 0 || width > 32 {
		return
	}
	for i := uint(0); i < width; i++ {
		if v&(1<<i) != 0 {
			w.cur |= 1 << w.nbits
		}
		w.nbits++
		w.written++
		if w.nbits == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur = 0
			w.nbits = 0
		}
	}
}

// WriteBool appends a single bit.
func (w *Writer) WriteBool(b bool) {
	if b {
		w.Write(1, 1)
	} else {
		w.Write(0, 1)
	}
}

// WriteBytes appends whole bytes, bit by bit, preserving the current bit
// alignment.
func (w *Writer) WriteBytes(p []byte) {
	for _, b := range p {
		w.Write(uint32(b), 8)
	}
}

// Flush completes the current partial byte, padding it with zero bits.
// Flushing with no pending bits is a no-op.
func (w *Writer) Flush() {
	if w.nbits != 0 {
		w.buf = append(w.buf, w.cur)
		w.cur = 0
		w.nbits = 0
	}
}

// Bytes flushes and returns the assembled buffer. The returned slice is
// owned by the Writer until the next Write.
func (w *Writer) Bytes() []byte {
	w.Flush()
	return w.buf
}

// BitsWritten returns the total number of bits written, excluding flush
// padding.
func (w *Writer) BitsWritten() uint64 {
	return w.written
}
