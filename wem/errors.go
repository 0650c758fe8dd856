// SPDX-License-Identifier: EPL-2.0

package wem

import "errors"

var (
	// ErrContainerFormat reports a RIFF structure or Wwise chunk layout
	// that cannot be interpreted.
	ErrContainerFormat = errors.New("malformed WEM container")

	// ErrUnsupportedCodec reports a fmt chunk whose codec id is not the
	// Wwise Vorbis tag 0xFFFF.
	ErrUnsupportedCodec = errors.New("unsupported codec")
)
