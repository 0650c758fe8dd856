// SPDX-License-Identifier: EPL-2.0

// Package bitpack provides bit-level reading and writing of unsigned
// integer fields over byte buffers.
//
// Bits are packed least-significant-bit first within each byte, matching
// the Vorbis bit-packing convention. Both the Wwise compact layout and
// the standard Vorbis layout use this order; the two differ only in the
// widths of individual fields, which callers select per read or write.
//
// # Reading
//
// Reader uses a sticky error model so long field sequences stay readable:
//
//	r := bitpack.NewReader(data)
//	dimensions := r.Read(4)
//	entries := r.Read(14)
//	if err := r.Err(); err != nil {
//	    // first failure, typically bitpack.ErrTruncatedData
//	}
//
// After the first failure every Read returns 0 and Err reports the cause.
// BitsRead reports the number of bits consumed so far, which format
// parsers use to verify a structure occupied exactly its declared size.
//
// # Writing
//
// Writer grows its buffer on demand and never fails:
//
//	w := bitpack.NewWriter()
//	w.Write(0x564342, 24)
//	w.Write(dimensions, 16)
//	packet := w.Bytes() // flushes, padding the last partial byte with zeros
//
// Values wider than the requested field are truncated to the low bits,
// as in Vorbis bit-packing.
package bitpack
