// SPDX-License-Identifier: EPL-2.0

// Package bnk reads Wwise BNK soundbanks far enough to extract the WEM
// files embedded in them.
//
// A soundbank is a sequence of sections, each a four-byte tag and a
// little-endian length. Only three matter for extraction: BKHD (bank
// header), DIDX (the index of embedded files), and DATA (their bytes).
// All other sections carry event and mixer metadata and are skipped.
package bnk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrFormat reports a soundbank that cannot be interpreted.
var ErrFormat = errors.New("malformed soundbank")

// Entry is one embedded file in the bank's index.
type Entry struct {
	// ID is the file's Wwise short id, used in game event metadata and
	// conventionally as the extracted file name.
	ID uint32
	// Offset and Size locate the file within the DATA section.
	Offset uint32
	Size   uint32
}

// Soundbank is a parsed bank: header fields, the embedded-file index,
// and the data section backing it.
type Soundbank struct {
	Version uint32
	ID      uint32
	Entries []Entry

	data []byte
}

// Parse reads a soundbank from data. The slice is referenced, not
// copied. Banks without a DIDX section parse successfully with an empty
// index.
func Parse(data []byte) (*Soundbank, error) {
	if len(data) < 8 || !bytes.Equal(data[:4], []byte("BKHD")) {
		return nil, fmt.Errorf("%w: missing BKHD header section", ErrFormat)
	}

	sb := &Soundbank{}
	for offset := 0; offset < len(data); {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("%w: section header truncated at %#x", ErrFormat, offset)
		}
		tag := data[offset : offset+4]
		size := int(binary.LittleEndian.Uint32(data[offset+4:]))
		body := data[offset+8:]
		if size > len(body) {
			return nil, fmt.Errorf("%w: %s section truncated", ErrFormat, tag)
		}
		body = body[:size]

		switch string(tag) {
		case "BKHD":
			if size < 8 {
				return nil, fmt.Errorf("%w: BKHD section too small", ErrFormat)
			}
			sb.Version = binary.LittleEndian.Uint32(body)
			sb.ID = binary.LittleEndian.Uint32(body[4:])
		case "DIDX":
			if size%12 != 0 {
				return nil, fmt.Errorf("%w: DIDX size %d is not a multiple of 12", ErrFormat, size)
			}
			sb.Entries = make([]Entry, size/12)
			for i := range sb.Entries {
				rec := body[i*12:]
				sb.Entries[i] = Entry{
					ID:     binary.LittleEndian.Uint32(rec),
					Offset: binary.LittleEndian.Uint32(rec[4:]),
					Size:   binary.LittleEndian.Uint32(rec[8:]),
				}
			}
		case "DATA":
			sb.data = body
		}
		offset += 8 + size
	}

	for _, e := range sb.Entries {
		if int(e.Offset)+int(e.Size) > len(sb.data) {
			return nil, fmt.Errorf("%w: file %d extends past the DATA section", ErrFormat, e.ID)
		}
	}
	return sb, nil
}

// WemData returns the bytes of one indexed file.
func (s *Soundbank) WemData(e Entry) []byte {
	return s.data[e.Offset : e.Offset+e.Size]
}

// Lookup finds an index entry by file id.
func (s *Soundbank) Lookup(id uint32) (Entry, bool) {
	for _, e := range s.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
