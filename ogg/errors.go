// SPDX-License-Identifier: EPL-2.0

package ogg

import "errors"

// ErrMuxing reports a page that cannot be produced, such as a packet
// written after the stream was finalized.
var ErrMuxing = errors.New("ogg muxing failed")
