// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package eip712

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secp256k1ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// SignatureLength is the size of an r || s || v signature.
const SignatureLength = 65

var (
	ErrInvalidSignatureLength = errors.New("invalid signature length")
	ErrInvalidSignatureV      = errors.New("invalid signature recovery id")
	ErrInvalidSignatureS      = errors.New("invalid signature s value")
	ErrRecoveryFailed         = errors.New("signature recovery failed")
	ErrNilPrivateKey          = errors.New("nil private key")
)

// Recoverer recovers the address that signed a 32 byte digest.
type Recoverer interface {
	Recover(digest common.Hash, sig []byte) (common.Address, error)
}

// ECDSARecoverer recovers secp256k1 signatures with v in {27, 28} and a
// lower-half s.
type ECDSARecoverer struct{}

func (ECDSARecoverer) Recover(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: %d", ErrInvalidSignatureLength, len(sig))
	}
	v := sig[64]
	if v != 27 && v != 28 {
		return common.Address{}, fmt.Errorf("%w: %d", ErrInvalidSignatureV, v)
	}

	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(sig[32:64]); overflow || s.IsZero() || s.IsOverHalfOrder() {
		return common.Address{}, ErrInvalidSignatureS
	}

	// compact form is v || r || s
	compact := make([]byte, SignatureLength)
	compact[0] = v
	copy(compact[1:], sig[:64])

	pub, _, err := secp256k1ecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrRecoveryFailed, err)
	}
	return PubkeyToAddress(pub), nil
}

// RecoverSigner recovers the signer of msg under domain.
func RecoverSigner(r Recoverer, domain Domain, msg Message, sig []byte) (common.Address, error) {
	return r.Recover(domain.Digest(msg), sig)
}

// PubkeyToAddress derives the 20 byte account address of a public key.
func PubkeyToAddress(pub *secp256k1.PublicKey) common.Address {
	return common.BytesToAddress(crypto.Keccak256(pub.SerializeUncompressed()[1:])[12:])
}

// SignDigest signs digest and returns r || s || v with v in {27, 28}.
func SignDigest(key *secp256k1.PrivateKey, digest common.Hash) ([]byte, error) {
	if key == nil {
		return nil, ErrNilPrivateKey
	}
	compact := secp256k1ecdsa.SignCompact(key, digest[:], false)

	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[64] = compact[0]
	return sig, nil
}

// Sign signs msg under domain.
func Sign(key *secp256k1.PrivateKey, domain Domain, msg Message) ([]byte, error) {
	return SignDigest(key, domain.Digest(msg))
}
