package ogg

import (
	"fmt"
	"io"
)

// Writer assembles packets into the pages of one logical bitstream.
type Writer struct {
	w      io.Writer
	serial uint32
	seq    uint32

	segments []byte
	payload  []byte

	granule    int64
	havePacket bool
	continued  bool
	closed     bool
}

// NewWriter returns a Writer emitting pages with the given stream
// serial number.
func NewWriter(w io.Writer, serial uint32) *Writer {
	return &Writer{w: w, serial: serial}
}

// WritePacket appends one packet to the stream, emitting any pages it
// fills. The granule position is recorded as the page granule of the
// page the packet completes on. A packet written with eos set finalizes
// the stream and flushes the last page.
func (w *Writer) WritePacket(p []byte, granule int64, eos bool) error {
	if w.closed {
		return fmt.Errorf("%w: packet written after end of stream", ErrMuxing)
	}

	offset := 0
	for _, l := range lacing(len(p)) {
		if len(w.segments) == maxSegments {
			// Page filled mid-packet; the rest continues on the next
			// one.
			if err := w.emit(0, true); err != nil {
				return err
			}
		}
		w.segments = append(w.segments, l)
		w.payload = append(w.payload, p[offset:offset+int(l)]...)
		offset += int(l)
	}

	w.granule = granule
	w.havePacket = true

	if eos {
		w.closed = true
		return w.emit(FlagEOS, false)
	}
	if len(w.segments) == maxSegments {
		return w.emit(0, false)
	}
	return nil
}

// Flush emits the pending page, if any. Header packets use this to pin
// page boundaries.
func (w *Writer) Flush() error {
	if len(w.segments) == 0 {
		return nil
	}
	return w.emit(0, false)
}

// Close flushes any pending page and refuses further packets. A stream
// already finalized by an eos packet closes cleanly.
func (w *Writer) Close() error {
	err := w.Flush()
	w.closed = true
	return err
}

func (w *Writer) emit(flags byte, nextContinued bool) error {
	if w.continued {
		flags |= FlagContinuation
	}
	if w.seq == 0 {
		flags |= FlagBOS
	}

	granule := w.granule
	if !w.havePacket {
		granule = -1
	}

	page := Page{
		HeaderType: flags,
		Granule:    granule,
		Serial:     w.serial,
		Sequence:   w.seq,
		Segments:   w.segments,
		Payload:    w.payload,
	}
	if _, err := w.w.Write(page.Encode()); err != nil {
		return fmt.Errorf("%w: %w", ErrMuxing, err)
	}

	w.seq++
	w.segments = w.segments[:0]
	w.payload = w.payload[:0]
	w.continued = nextContinued
	w.havePacket = false
	return nil
}
