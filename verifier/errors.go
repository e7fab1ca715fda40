// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package verifier

import (
	"errors"
	"fmt"

	"github.com/luxfi/inputverifier/proof"
)

var (
	ErrAttesterMismatch = fmt.Errorf("%w: attester signature does not match", proof.ErrAuthenticity)
	ErrQuorumNotMet     = fmt.Errorf("%w: KMS signature quorum not met", proof.ErrAuthenticity)

	ErrSerializedIndexMismatch = fmt.Errorf("%w: invalid serialized handle index", proof.ErrIntegrity)
	ErrIntegrityMismatch       = fmt.Errorf("%w: handle does not match ciphertext", proof.ErrIntegrity)
	ErrHandleMismatch          = fmt.Errorf("%w: input handle does not match proof", proof.ErrIntegrity)

	ErrNilSigners      = errors.New("nil KMS signer registry")
	ErrMissingAttester = errors.New("direct attestation requires an attester address")
)
