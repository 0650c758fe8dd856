// SPDX-License-Identifier: EPL-2.0

package vorbis

import "errors"

// ErrHeaderReconstruction reports a stripped setup header whose fields
// are inconsistent and cannot be expanded into a valid Vorbis header.
var ErrHeaderReconstruction = errors.New("header reconstruction failed")
