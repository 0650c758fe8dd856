// SPDX-License-Identifier: EPL-2.0

package codebook

import "errors"

var (
	ErrFormat        = errors.New("malformed codebook")
	ErrLibraryFormat = errors.New("malformed codebook library")
	ErrNotFound      = errors.New("codebook id not in library")
)
