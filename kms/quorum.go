// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package kms

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/inputverifier/eip712"
)

// VerifyQuorum reports whether at least threshold distinct authorized signers
// signed msg. Signatures that fail to recover count as no signer. Recovery
// stops as soon as the threshold is reached.
func (r *Registry) VerifyQuorum(msg eip712.Message, sigs [][]byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.threshold == 0 || len(sigs) < int(r.threshold) {
		return false
	}

	digest := r.domain.Digest(msg)
	seen := make(map[common.Address]struct{}, len(sigs))
	for _, sig := range sigs {
		signer, err := r.recoverer.Recover(digest, sig)
		if err != nil {
			continue
		}
		if !r.isSigner[signer] {
			continue
		}
		seen[signer] = struct{}{}
		if uint32(len(seen)) >= r.threshold {
			return true
		}
	}
	return false
}
