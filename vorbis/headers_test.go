// SPDX-License-Identifier: EPL-2.0

package vorbis_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/tnt-coders/wwise-audio-tools/bitpack"
	"github.com/tnt-coders/wwise-audio-tools/codebook"
	"github.com/tnt-coders/wwise-audio-tools/internal/wemtest"
	"github.com/tnt-coders/wwise-audio-tools/vorbis"
	"github.com/tnt-coders/wwise-audio-tools/wem"
)

func strippedContainer(setup []byte, audio ...wemtest.Packet) wemtest.Container {
	return wemtest.Container{
		Channels:      2,
		SampleRate:    44100,
		SampleCount:   60000,
		Blocksize0Pow: 8,
		Blocksize1Pow: 11,
		VorbSize:      0x2A,
		Packets:       append([]wemtest.Packet{{Payload: setup}}, audio...),
	}
}

func parseWEM(t *testing.T, c wemtest.Container) *wem.File {
	t.Helper()
	f, err := wem.Parse(c.Build())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func TestReconstructHeadersExternal(t *testing.T) {
	t.Parallel()

	setup := wemtest.Setup{
		ExternalIDs:    []uint32{0, 1},
		ModeBlockflags: []bool{false, true},
	}.Bytes()
	f := parseWEM(t, strippedContainer(setup, wemtest.Packet{Payload: []byte{0x01}}))

	hs, err := vorbis.ReconstructHeaders(f, wemtest.Library(2), false, false)
	if err != nil {
		t.Fatalf("ReconstructHeaders: %v", err)
	}

	ident := hs.Identification
	if len(ident) != 30 || !bytes.HasPrefix(ident, []byte("\x01vorbis")) {
		t.Fatalf("identification packet = %x", ident)
	}
	if ident[11] != 2 {
		t.Errorf("channels = %d, want 2", ident[11])
	}
	if rate := binary.LittleEndian.Uint32(ident[12:]); rate != 44100 {
		t.Errorf("sample rate = %d, want 44100", rate)
	}
	if ident[28] != 8|11<<4 {
		t.Errorf("blocksize byte = %#x, want %#x", ident[28], 8|11<<4)
	}
	if ident[29] != 1 {
		t.Errorf("framing byte = %#x, want 1", ident[29])
	}

	if !bytes.HasPrefix(hs.Comment, []byte("\x03vorbis")) {
		t.Errorf("comment packet = %x", hs.Comment)
	}
	if !bytes.Contains(hs.Comment, []byte("Audiokinetic")) {
		t.Error("comment packet missing vendor string")
	}

	if want := []bool{false, true}; !boolsEqual(hs.ModeBlockflags, want) {
		t.Errorf("ModeBlockflags = %v, want %v", hs.ModeBlockflags, want)
	}
	if hs.ModeBits != 1 {
		t.Errorf("ModeBits = %d, want 1", hs.ModeBits)
	}

	// The rebuilt setup must carry both codebooks in standard form, in
	// reference order.
	r := bitpack.NewReader(hs.Setup)
	for i := 0; i < 7; i++ {
		r.Read(8)
	}
	if count := r.Read(8) + 1; count != 2 {
		t.Fatalf("setup codebook count = %d, want 2", count)
	}
	for i := 0; i < 2; i++ {
		cb, err := codebook.Decode(r, codebook.StandardProfile)
		if err != nil {
			t.Fatalf("decode rebuilt codebook %d: %v", i, err)
		}
		if cb.Dimensions != 1 || cb.Entries != 2 {
			t.Errorf("rebuilt codebook %d = %d dims, %d entries", i, cb.Dimensions, cb.Entries)
		}
	}
}

func TestReconstructHeadersFloorLayout(t *testing.T) {
	t.Parallel()

	setup := wemtest.Setup{
		ExternalIDs:    []uint32{0},
		ModeBlockflags: []bool{false, true},
	}.Bytes()
	f := parseWEM(t, strippedContainer(setup, wemtest.Packet{Payload: []byte{0x01}}))

	hs, err := vorbis.ReconstructHeaders(f, wemtest.Library(1), false, false)
	if err != nil {
		t.Fatalf("ReconstructHeaders: %v", err)
	}

	// Walk the rebuilt setup up to and through the floor definition and
	// check every field, in particular the subclass book list: floor1
	// carries 1<<subclasses book entries per class even when subclasses
	// is zero.
	r := bitpack.NewReader(hs.Setup)
	for i := 0; i < 7; i++ {
		r.Read(8)
	}
	if count := r.Read(8) + 1; count != 1 {
		t.Fatalf("setup codebook count = %d, want 1", count)
	}
	if _, err := codebook.Decode(r, codebook.StandardProfile); err != nil {
		t.Fatalf("decode rebuilt codebook: %v", err)
	}
	if timeCount := r.Read(6); timeCount != 0 {
		t.Fatalf("time count = %d, want 0", timeCount)
	}
	if slot := r.Read(16); slot != 0 {
		t.Fatalf("time slot = %#x, want 0", slot)
	}

	fields := []struct {
		name  string
		width uint
		want  uint32
	}{
		{"floor count - 1", 6, 0},
		{"floor type", 16, 1},
		{"partitions", 5, 1},
		{"partition 0 class", 4, 0},
		{"class dimensions - 1", 3, 1},
		{"class subclasses", 2, 0},
		{"subclass book 0", 8, 0},
		{"multiplier - 1", 2, 0},
		{"rangebits", 4, 1},
		{"X[2]", 1, 0},
		{"X[3]", 1, 1},
		{"residue count - 1", 6, 0},
		{"residue type", 16, 0},
	}
	for _, field := range fields {
		if got := r.Read(field.width); got != field.want {
			t.Errorf("%s = %d, want %d", field.name, got, field.want)
		}
	}
	if err := r.Err(); err != nil {
		t.Fatalf("Err = %v", err)
	}
}

func TestReconstructHeadersLoopComments(t *testing.T) {
	t.Parallel()

	setup := wemtest.Setup{
		ExternalIDs:    []uint32{0},
		ModeBlockflags: []bool{false},
	}.Bytes()
	c := strippedContainer(setup, wemtest.Packet{Payload: []byte{0x01}})
	c.Loop = &[2]uint32{100, 49999}

	f := parseWEM(t, c)
	hs, err := vorbis.ReconstructHeaders(f, wemtest.Library(1), false, false)
	if err != nil {
		t.Fatalf("ReconstructHeaders: %v", err)
	}

	for _, tag := range []string{"LoopStart=100", "LoopEnd=50000"} {
		if !bytes.Contains(hs.Comment, []byte(tag)) {
			t.Errorf("comment packet missing %q", tag)
		}
	}
}

func TestReconstructHeadersInlineCodebooks(t *testing.T) {
	t.Parallel()

	setup := wemtest.Setup{
		Inline:         []*codebook.Codebook{wemtest.TrivialCodebook()},
		ModeBlockflags: []bool{false, true},
	}.Bytes()
	f := parseWEM(t, strippedContainer(setup, wemtest.Packet{Payload: []byte{0x01}}))

	hs, err := vorbis.ReconstructHeaders(f, nil, true, false)
	if err != nil {
		t.Fatalf("ReconstructHeaders: %v", err)
	}

	r := bitpack.NewReader(hs.Setup)
	for i := 0; i < 7; i++ {
		r.Read(8)
	}
	if count := r.Read(8) + 1; count != 1 {
		t.Fatalf("setup codebook count = %d, want 1", count)
	}
	if _, err := codebook.Decode(r, codebook.StandardProfile); err != nil {
		t.Fatalf("decode rebuilt inline codebook: %v", err)
	}
}

func TestReconstructHeadersUnknownCodebook(t *testing.T) {
	t.Parallel()

	setup := wemtest.Setup{
		ExternalIDs:    []uint32{5},
		ModeBlockflags: []bool{false},
	}.Bytes()
	f := parseWEM(t, strippedContainer(setup, wemtest.Packet{Payload: []byte{0x01}}))

	_, err := vorbis.ReconstructHeaders(f, wemtest.Library(2), false, false)
	if !errors.Is(err, codebook.ErrNotFound) {
		t.Errorf("ReconstructHeaders error = %v, want ErrNotFound", err)
	}
}

func TestReconstructHeadersTrailingGarbage(t *testing.T) {
	t.Parallel()

	setup := wemtest.Setup{
		ExternalIDs:    []uint32{0},
		ModeBlockflags: []bool{false},
	}.Bytes()
	setup = append(setup, 0, 0)
	f := parseWEM(t, strippedContainer(setup, wemtest.Packet{Payload: []byte{0x01}}))

	_, err := vorbis.ReconstructHeaders(f, wemtest.Library(1), false, false)
	if !errors.Is(err, vorbis.ErrHeaderReconstruction) {
		t.Errorf("ReconstructHeaders error = %v, want ErrHeaderReconstruction", err)
	}
}

func triadSetupPacket(t *testing.T) []byte {
	t.Helper()
	w := bitpack.NewWriter()
	w.Write(5, 8)
	w.WriteBytes([]byte("vorbis"))
	w.Write(0, 8) // one codebook
	if err := wemtest.TrivialCodebook().Encode(w, codebook.StandardProfile); err != nil {
		t.Fatalf("encode codebook: %v", err)
	}
	w.WriteBool(true) // framing
	w.Flush()
	return w.Bytes()
}

func TestCopyHeaderTriad(t *testing.T) {
	t.Parallel()

	ident := append([]byte("\x01vorbis"), 0, 0, 0, 0)
	comment := append([]byte("\x03vorbis"), 0, 0, 0, 0)
	setup := triadSetupPacket(t)

	c := wemtest.Container{
		Channels:    2,
		SampleRate:  48000,
		SampleCount: 5000,
		VorbSize:    0x2C,
		Packets: []wemtest.Packet{
			{Payload: ident},
			{Payload: comment},
			{Payload: setup},
			{Payload: []byte{0xAA}, Granule: 1024},
		},
		FirstAudioIndex: 3,
	}

	f := parseWEM(t, c)
	hs, err := vorbis.CopyHeaderTriad(f)
	if err != nil {
		t.Fatalf("CopyHeaderTriad: %v", err)
	}
	if !bytes.Equal(hs.Identification, ident) {
		t.Errorf("identification = %x, want %x", hs.Identification, ident)
	}
	if !bytes.Equal(hs.Comment, comment) {
		t.Errorf("comment = %x, want %x", hs.Comment, comment)
	}
	if !bytes.Equal(hs.Setup, setup) {
		t.Errorf("setup = %x, want %x", hs.Setup, setup)
	}
	if hs.ModeBlockflags != nil {
		t.Error("triad headers should not carry a mode table")
	}
}

func TestCopyHeaderTriadWrongType(t *testing.T) {
	t.Parallel()

	c := wemtest.Container{
		Channels:    1,
		SampleRate:  48000,
		SampleCount: 5000,
		VorbSize:    0x2C,
		Packets: []wemtest.Packet{
			{Payload: []byte("\x02vorbis")}, // not an identification packet
			{Payload: []byte("\x03vorbis")},
			{Payload: []byte("\x05vorbis")},
			{Payload: []byte{0xAA}},
		},
		FirstAudioIndex: 3,
	}

	f := parseWEM(t, c)
	if _, err := vorbis.CopyHeaderTriad(f); !errors.Is(err, wem.ErrContainerFormat) {
		t.Errorf("CopyHeaderTriad error = %v, want ErrContainerFormat", err)
	}
}

func boolsEqual(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
