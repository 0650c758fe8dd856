// SPDX-License-Identifier: EPL-2.0

package bitpack

import "errors"

var (
	ErrTruncatedData = errors.New("read past end of data")
	ErrBitWidth      = errors.New("bit width must be between 1 and 32")
)
