package wwtools

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
	"github.com/tnt-coders/wwise-audio-tools/codebook"
	"github.com/tnt-coders/wwise-audio-tools/ogg"
	"github.com/tnt-coders/wwise-audio-tools/vorbis"
	"github.com/tnt-coders/wwise-audio-tools/wem"
)

// streamSerial is the serial number of the single logical bitstream in
// every produced file.
const streamSerial = 1

// ErrNoLibrary reports a conversion that needs an external codebook
// library but was given none.
var ErrNoLibrary = errors.New("no codebook library provided")

// PacketFormat overrides the container's modified-packet detection.
type PacketFormat int

const (
	// PacketFormatAuto trusts the container's mod signal.
	PacketFormatAuto PacketFormat = iota
	// PacketFormatModified forces treating audio packets as stripped.
	PacketFormatModified
	// PacketFormatStandard forces treating audio packets as intact.
	PacketFormatStandard
)

// Options tune a conversion. The zero value suits almost all WEMs.
type Options struct {
	// InlineCodebooks handles streams that embed their codebooks in the
	// setup packet instead of referencing an external library.
	InlineCodebooks bool
	// FullSetup handles streams whose setup packet was never stripped;
	// it implies InlineCodebooks.
	FullSetup bool
	// PacketFormat overrides modified-packet detection.
	PacketFormat PacketFormat
	// Validate decodes the produced stream before returning it, so a
	// conversion that would yield an unplayable file fails instead.
	Validate bool
}

// ConvertWem converts one WEM container to an Ogg Vorbis file. The
// library may be nil for containers that carry their own codebooks
// (inline or full-setup streams and old header-triad files).
func ConvertWem(data []byte, lib *codebook.Library, opts Options) ([]byte, error) {
	f, err := wem.Parse(data)
	if err != nil {
		return nil, err
	}

	switch opts.PacketFormat {
	case PacketFormatModified:
		f.Format.ModPackets = true
	case PacketFormatStandard:
		f.Format.ModPackets = false
	}

	var hs *vorbis.HeaderSet
	if f.Format.HeaderTriadPresent {
		hs, err = vorbis.CopyHeaderTriad(f)
	} else {
		inline := opts.InlineCodebooks || opts.FullSetup
		if !inline && lib == nil {
			return nil, ErrNoLibrary
		}
		hs, err = vorbis.ReconstructHeaders(f, lib, inline, opts.FullSetup)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := ogg.NewWriter(&buf, streamSerial)
	if err := writeStream(w, hs, f); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if opts.Validate {
		if err := validate(out, &f.Format); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeStream(w *ogg.Writer, hs *vorbis.HeaderSet, f *wem.File) error {
	// The identification packet stands alone on the first page; comment
	// and setup share the following page(s).
	if err := w.WritePacket(hs.Identification, 0, false); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := w.WritePacket(hs.Comment, 0, false); err != nil {
		return err
	}
	if err := w.WritePacket(hs.Setup, 0, false); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	pr := vorbis.NewPacketReader(f, hs)
	for {
		p, err := pr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := w.WritePacket(p.Payload, p.Granule, p.Last); err != nil {
			return err
		}
	}
	return w.Close()
}

// validate decodes the produced stream end to end and checks that its
// identity matches the source container.
func validate(out []byte, f *wem.Format) error {
	r, err := oggvorbis.NewReader(bytes.NewReader(out))
	if err != nil {
		return fmt.Errorf("validation: produced stream does not decode: %w", err)
	}
	if r.Channels() != int(f.Channels) || r.SampleRate() != int(f.SampleRate) {
		return fmt.Errorf("validation: decoded as %d ch / %d Hz, container says %d ch / %d Hz",
			r.Channels(), r.SampleRate(), f.Channels, f.SampleRate)
	}

	buf := make([]float32, 4096*int(f.Channels))
	for {
		if _, err := r.Read(buf); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("validation: decode failed mid-stream: %w", err)
		}
	}
}

// WemInfo summarizes a WEM container without converting it.
func WemInfo(data []byte) (string, error) {
	f, err := wem.Parse(data)
	if err != nil {
		return "", err
	}
	return f.Info(), nil
}
