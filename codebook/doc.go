// SPDX-License-Identifier: EPL-2.0

// Package codebook models Vorbis codebooks and the packed codebook
// libraries that Wwise references them from.
//
// A Vorbis codebook couples a Huffman code (per-entry codeword lengths)
// with an optional vector-quantization lookup table. Wwise saves space by
// stripping codebooks out of each stream's setup header and storing them
// once, in a shared binary table, serialized with narrower field widths
// than the Vorbis specification uses. Rebuilding a playable stream means
// re-reading each codebook under the compact widths and re-emitting it
// under standard widths.
//
// # Profiles
//
// The two serializations differ only in field widths, captured by
// Profile:
//
//   - VendorProfile: 4-bit dimensions, 14-bit entry count, codeword
//     lengths in a declared 1-5 bit field, 1-bit lookup type, no sync
//     pattern.
//   - StandardProfile: 24-bit "BCV" sync pattern, 16-bit dimensions,
//     24-bit entry count, fixed 5-bit codeword lengths, 4-bit lookup
//     type.
//
// Decode and Codebook.Encode accept either profile, so the same
// descriptor round-trips inline codebooks and expands library ones.
//
// # Libraries
//
// A packed library is a blob of concatenated vendor-format codebooks
// followed by a table of 32-bit offsets; the final word of the file
// points at the table. Load parses and validates every codebook up
// front, so Lookup is a plain slice access and a Library may be shared
// by any number of concurrent conversions:
//
//	lib, err := codebook.LoadFile("packed_codebooks.bin")
//	if err != nil {
//	    // codebook.ErrLibraryFormat
//	}
//	cb, err := lib.Lookup(407)
//
// Two library lineages circulate (the stock encoder tables and the
// aoTuV 6.03 tables); a stream converts correctly only with the lineage
// its encoder used, so a failed Lookup usually means the wrong file was
// selected, not a corrupt one.
package codebook
