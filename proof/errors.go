// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"errors"
	"fmt"
)

// Failure categories. Every verification error wraps exactly one of these.
var (
	ErrFormat       = errors.New("malformed proof")
	ErrIndex        = errors.New("invalid handle index")
	ErrVersion      = errors.New("invalid handle version")
	ErrIntegrity    = errors.New("integrity check failed")
	ErrAuthenticity = errors.New("authenticity check failed")
)

// Codec errors
var (
	ErrEmptyProof     = fmt.Errorf("%w: empty input proof", ErrFormat)
	ErrLengthMismatch = fmt.Errorf("%w: deserializing input proof length mismatch", ErrFormat)
	ErrOutOfBounds    = fmt.Errorf("%w: read past end of proof", ErrFormat)
	ErrNoHandles      = fmt.Errorf("%w: proof carries no handles", ErrFormat)
	ErrUnknownVariant = fmt.Errorf("%w: unknown proof variant", ErrFormat)

	ErrInvalidIndex         = fmt.Errorf("%w: index out of range", ErrIndex)
	ErrInvalidHandleVersion = fmt.Errorf("%w: handle version mismatch", ErrVersion)
)
