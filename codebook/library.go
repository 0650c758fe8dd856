package codebook

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/tnt-coders/wwise-audio-tools/bitpack"
)

// Library is an immutable table of codebooks keyed by the small integer
// ids Wwise setup headers reference. All descriptors are decoded during
// Load, so lookups are read-only and safe for concurrent use.
type Library struct {
	books []*Codebook
}

// Load parses a packed codebook blob: vendor-format codebooks back to
// back, then a table of little-endian 32-bit offsets whose final entry
// (also the final word of the blob) is the offset of the table itself.
func Load(data []byte) (*Library, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrLibraryFormat, len(data))
	}

	tableOffset := binary.LittleEndian.Uint32(data[len(data)-4:])
	if int(tableOffset) > len(data)-4 {
		return nil, fmt.Errorf("%w: offset table at %#x past end", ErrLibraryFormat, tableOffset)
	}
	if (len(data)-int(tableOffset))%4 != 0 {
		return nil, fmt.Errorf("%w: misaligned offset table", ErrLibraryFormat)
	}

	count := (len(data) - int(tableOffset)) / 4
	offsets := make([]uint32, count)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(data[int(tableOffset)+4*i:])
	}
	if offsets[count-1] != tableOffset {
		return nil, fmt.Errorf("%w: offset table not self-terminated", ErrLibraryFormat)
	}

	books := make([]*Codebook, count-1)
	for i := range books {
		start, end := offsets[i], offsets[i+1]
		if start > end || end > tableOffset {
			return nil, fmt.Errorf("%w: codebook %d spans %#x-%#x", ErrLibraryFormat, i, start, end)
		}

		r := bitpack.NewReader(data[start:end])
		cb, err := Decode(r, VendorProfile)
		if err != nil {
			return nil, fmt.Errorf("%w: codebook %d: %w", ErrLibraryFormat, i, err)
		}
		// Each stored codebook ends with a partial or zero pad byte, so a
		// fully consumed book occupies exactly bits/8+1 bytes.
		if used := r.BitsRead()/8 + 1; used != uint64(end-start) {
			return nil, fmt.Errorf("%w: codebook %d: expected %d bytes, used %d",
				ErrLibraryFormat, i, end-start, used)
		}
		books[i] = cb
	}

	return &Library{books: books}, nil
}

// LoadFile reads and parses a packed codebook file.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("codebook library: %w", err)
	}
	return Load(data)
}

// Lookup returns the codebook for id. A missing id is unrecoverable for
// the conversion that needed it and usually means the wrong library
// lineage was loaded.
func (l *Library) Lookup(id int) (*Codebook, error) {
	if id < 0 || id >= len(l.books) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return l.books[id], nil
}

// Len returns the number of codebooks in the library.
func (l *Library) Len() int {
	return len(l.books)
}
