// SPDX-License-Identifier: EPL-2.0

package vorbis_test

import (
	"errors"
	"io"
	"testing"

	"github.com/tnt-coders/wwise-audio-tools/bitpack"
	"github.com/tnt-coders/wwise-audio-tools/internal/wemtest"
	"github.com/tnt-coders/wwise-audio-tools/vorbis"
	"github.com/tnt-coders/wwise-audio-tools/wem"
)

// readAll drains a packet reader.
func readAll(t *testing.T, pr *vorbis.PacketReader) []*vorbis.AudioPacket {
	t.Helper()
	var packets []*vorbis.AudioPacket
	for {
		p, err := pr.Next()
		if err == io.EOF {
			return packets
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		packets = append(packets, p)
	}
}

func modContainer(sampleCount uint32, audio ...wemtest.Packet) (*wem.File, *vorbis.HeaderSet, error) {
	setup := wemtest.Setup{
		ExternalIDs:    []uint32{0},
		ModeBlockflags: []bool{false, true},
	}.Bytes()
	c := wemtest.Container{
		Channels:      2,
		SampleRate:    44100,
		SampleCount:   sampleCount,
		Blocksize0Pow: 8,
		Blocksize1Pow: 11,
		VorbSize:      0x2A,
		Packets:       append([]wemtest.Packet{{Payload: setup}}, audio...),
	}
	f, err := wem.Parse(c.Build())
	if err != nil {
		return nil, nil, err
	}
	hs, err := vorbis.ReconstructHeaders(f, wemtest.Library(1), false, false)
	return f, hs, err
}

func TestPacketReaderGranuleRecovery(t *testing.T) {
	t.Parallel()

	// Three long-window packets: granules 0, 1024, 2048.
	f, hs, err := modContainer(60000,
		wemtest.Packet{Payload: wemtest.ModAudioPacket(1, 1, 0x2A, 0xBB)},
		wemtest.Packet{Payload: wemtest.ModAudioPacket(1, 1, 0x33)},
		wemtest.Packet{Payload: wemtest.ModAudioPacket(1, 1, 0x44)},
	)
	if err != nil {
		t.Fatal(err)
	}

	packets := readAll(t, vorbis.NewPacketReader(f, hs))
	if len(packets) != 3 {
		t.Fatalf("got %d packets, want 3", len(packets))
	}

	wantGranules := []int64{0, 1024, 2048}
	for i, p := range packets {
		if p.Granule != wantGranules[i] {
			t.Errorf("packet %d granule = %d, want %d", i, p.Granule, wantGranules[i])
		}
		if p.Last != (i == 2) {
			t.Errorf("packet %d Last = %v", i, p.Last)
		}
	}
}

func TestPacketReaderMixedWindows(t *testing.T) {
	t.Parallel()

	// Long, short, long: 0, (2048+256)/4 = 576, 576+(256+2048)/4 = 1152.
	f, hs, err := modContainer(60000,
		wemtest.Packet{Payload: wemtest.ModAudioPacket(1, 1, 0)},
		wemtest.Packet{Payload: wemtest.ModAudioPacket(0, 1, 0)},
		wemtest.Packet{Payload: wemtest.ModAudioPacket(1, 1, 0)},
	)
	if err != nil {
		t.Fatal(err)
	}

	packets := readAll(t, vorbis.NewPacketReader(f, hs))
	wantGranules := []int64{0, 576, 1152}
	for i, p := range packets {
		if p.Granule != wantGranules[i] {
			t.Errorf("packet %d granule = %d, want %d", i, p.Granule, wantGranules[i])
		}
	}
}

func TestPacketReaderTerminalClamp(t *testing.T) {
	t.Parallel()

	// The naive sum reaches 2048, but the stream declares 1500 samples.
	f, hs, err := modContainer(1500,
		wemtest.Packet{Payload: wemtest.ModAudioPacket(1, 1, 0)},
		wemtest.Packet{Payload: wemtest.ModAudioPacket(1, 1, 0)},
		wemtest.Packet{Payload: wemtest.ModAudioPacket(1, 1, 0)},
	)
	if err != nil {
		t.Fatal(err)
	}

	packets := readAll(t, vorbis.NewPacketReader(f, hs))
	if got := packets[len(packets)-1].Granule; got != 1500 {
		t.Errorf("terminal granule = %d, want 1500", got)
	}
	if got := packets[1].Granule; got != 1024 {
		t.Errorf("intermediate granule = %d, want 1024", got)
	}
}

func TestPacketReaderRebuildsFirstByte(t *testing.T) {
	t.Parallel()

	f, hs, err := modContainer(60000,
		wemtest.Packet{Payload: wemtest.ModAudioPacket(1, 1, 0x2A, 0xBB)},
		wemtest.Packet{Payload: wemtest.ModAudioPacket(0, 1, 0x7F)},
	)
	if err != nil {
		t.Fatal(err)
	}

	packets := readAll(t, vorbis.NewPacketReader(f, hs))

	// Long-window packet grows by the type bit and two window bits.
	r := bitpack.NewReader(packets[0].Payload)
	if r.ReadBool() {
		t.Error("packet type bit set")
	}
	if mode := r.Read(1); mode != 1 {
		t.Errorf("mode = %d, want 1", mode)
	}
	if prev := r.ReadBool(); prev {
		t.Error("previous window flag set on first packet")
	}
	if next := r.ReadBool(); next {
		t.Error("next window flag set; following packet is short")
	}
	if rest := r.Read(7); rest != 0x2A {
		t.Errorf("first byte remainder = %#x, want 0x2a", rest)
	}
	if body := r.Read(8); body != 0xBB {
		t.Errorf("payload byte = %#x, want 0xbb", body)
	}
	if len(packets[0].Payload) != 3 {
		t.Errorf("rebuilt packet length = %d, want 3", len(packets[0].Payload))
	}

	// Short-window packet gains only the type bit.
	r = bitpack.NewReader(packets[1].Payload)
	if r.ReadBool() {
		t.Error("packet type bit set")
	}
	if mode := r.Read(1); mode != 0 {
		t.Errorf("mode = %d, want 0", mode)
	}
	if rest := r.Read(7); rest != 0x7F {
		t.Errorf("first byte remainder = %#x, want 0x7f", rest)
	}
}

func TestPacketReaderVendorGranules(t *testing.T) {
	t.Parallel()

	c := wemtest.Container{
		Channels:    2,
		SampleRate:  48000,
		SampleCount: 5000,
		VorbSize:    0x2C,
		Packets: []wemtest.Packet{
			{Payload: append([]byte("\x01vorbis"), 0)},
			{Payload: append([]byte("\x03vorbis"), 0)},
			{Payload: triadSetupPacket(t)},
			{Payload: []byte{0xAA}, Granule: 0xFFFFFFFF},
			{Payload: []byte{0xBB}, Granule: 4096},
		},
		FirstAudioIndex: 3,
	}
	f, err := wem.Parse(c.Build())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	hs, err := vorbis.CopyHeaderTriad(f)
	if err != nil {
		t.Fatalf("CopyHeaderTriad: %v", err)
	}

	packets := readAll(t, vorbis.NewPacketReader(f, hs))
	if len(packets) != 2 {
		t.Fatalf("got %d packets, want 2", len(packets))
	}
	if packets[0].Granule != 1 {
		t.Errorf("all-ones granule mapped to %d, want 1", packets[0].Granule)
	}
	if packets[1].Granule != 4096 {
		t.Errorf("granule = %d, want 4096", packets[1].Granule)
	}
}

func TestPacketReaderEmptyModifiedPacket(t *testing.T) {
	t.Parallel()

	f, hs, err := modContainer(60000,
		wemtest.Packet{Payload: nil},
	)
	if err != nil {
		t.Fatal(err)
	}

	_, err = vorbis.NewPacketReader(f, hs).Next()
	if !errors.Is(err, wem.ErrContainerFormat) {
		t.Errorf("Next error = %v, want ErrContainerFormat", err)
	}
}
