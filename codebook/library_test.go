// SPDX-License-Identifier: EPL-2.0

package codebook_test

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tnt-coders/wwise-audio-tools/codebook"
	"github.com/tnt-coders/wwise-audio-tools/internal/wemtest"
)

func TestLoadLibrary(t *testing.T) {
	t.Parallel()

	blob := wemtest.LibraryBlob(trivialBook(), trivialBook(), trivialBook())
	lib, err := codebook.Load(blob)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lib.Len() != 3 {
		t.Fatalf("Len = %d, want 3", lib.Len())
	}

	cb, err := lib.Lookup(2)
	if err != nil {
		t.Fatalf("Lookup(2): %v", err)
	}
	if cb.Dimensions != 1 || cb.Entries != 2 {
		t.Errorf("book 2 = %d dims, %d entries", cb.Dimensions, cb.Entries)
	}

	for _, id := range []int{-1, 3, 1000} {
		if _, err := lib.Lookup(id); !errors.Is(err, codebook.ErrNotFound) {
			t.Errorf("Lookup(%d) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestLoadIsDeterministic(t *testing.T) {
	t.Parallel()

	blob := wemtest.LibraryBlob(trivialBook(), trivialBook())
	first, err := codebook.Load(blob)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	second, err := codebook.Load(blob)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}

	if first.Len() != second.Len() {
		t.Fatalf("Len = %d and %d", first.Len(), second.Len())
	}
	for id := 0; id < first.Len(); id++ {
		a, _ := first.Lookup(id)
		b, _ := second.Lookup(id)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("book %d differs between loads", id)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "books.bin")
	if err := os.WriteFile(path, wemtest.LibraryBlob(trivialBook()), 0o644); err != nil {
		t.Fatal(err)
	}

	lib, err := codebook.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if lib.Len() != 1 {
		t.Errorf("Len = %d, want 1", lib.Len())
	}

	if _, err := codebook.LoadFile(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("LoadFile on a missing path succeeded")
	}
}

func TestLoadRejectsBadBlobs(t *testing.T) {
	t.Parallel()

	good := wemtest.LibraryBlob(trivialBook(), trivialBook())

	tests := []struct {
		name   string
		mangle func([]byte) []byte
	}{
		{name: "too small", mangle: func(b []byte) []byte { return b[:4] }},
		{
			name: "offset table past end",
			mangle: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[len(b)-4:], uint32(len(b)))
				return b
			},
		},
		{
			name: "misaligned table",
			mangle: func(b []byte) []byte {
				binary.LittleEndian.PutUint32(b[len(b)-4:], 1)
				return b
			},
		},
		{
			name: "not self-terminated",
			mangle: func(b []byte) []byte {
				// Shift the final word so the table's last entry no
				// longer points at the table itself.
				binary.LittleEndian.PutUint32(b[len(b)-4:], binary.LittleEndian.Uint32(b[len(b)-4:])-4)
				return b
			},
		},
		{
			name: "book size mismatch",
			mangle: func(b []byte) []byte {
				// Grow the first book's span by shifting later offsets.
				out := append([]byte{0}, b...)
				table := len(out) - 12
				for i := table; i < len(out); i += 4 {
					v := binary.LittleEndian.Uint32(out[i:])
					binary.LittleEndian.PutUint32(out[i:], v+1)
				}
				binary.LittleEndian.PutUint32(out[table:], 0)
				return out
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			blob := tt.mangle(append([]byte(nil), good...))
			if _, err := codebook.Load(blob); !errors.Is(err, codebook.ErrLibraryFormat) {
				t.Errorf("Load error = %v, want ErrLibraryFormat", err)
			}
		})
	}
}
