// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/inputverifier/handle"
)

// SignatureSize is the length of an r || s || v signature.
const SignatureSize = 65

// Variant selects the proof layout and trust model of a deployment.
type Variant uint8

const (
	// DirectAttestation proofs carry an attested ciphertext hash and one
	// additional signature from a distinguished attester.
	DirectAttestation Variant = iota + 1
	// SelfDescribing proofs carry the raw ciphertext bundle; the hash and
	// every handle are recomputed from it.
	SelfDescribing
)

var errEncode = errors.New("cannot encode proof")

func (v Variant) String() string {
	switch v {
	case DirectAttestation:
		return "direct-attestation"
	case SelfDescribing:
		return "self-describing"
	default:
		return fmt.Sprintf("variant(%d)", uint8(v))
	}
}

// ParseVariant accepts the canonical names plus the aliases "coprocessor"
// and "native".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct-attestation", "direct", "coprocessor":
		return DirectAttestation, nil
	case "self-describing", "native":
		return SelfDescribing, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

func (v Variant) MarshalText() ([]byte, error) {
	if v != DirectAttestation && v != SelfDescribing {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, uint8(v))
	}
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(text []byte) error {
	parsed, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Signature is a 65 byte r || s || v signature as carried in a proof.
type Signature [SignatureSize]byte

func (s Signature) Bytes() []byte { return s[:] }

// Header is the two byte prefix shared by both layouts.
type Header struct {
	NumHandles uint8
	NumSigners uint8
}

// Envelope is a parsed input proof.
type Envelope struct {
	Variant       Variant
	Handles       []handle.Handle
	KMSSignatures []Signature

	// HashOfCiphertext is transmitted for DirectAttestation and derived from
	// Ciphertext for SelfDescribing.
	HashOfCiphertext common.Hash

	// DirectAttestation only
	AttesterSignature Signature

	// SelfDescribing only
	Ciphertext []byte
}

func (e *Envelope) Header() Header {
	return Header{NumHandles: uint8(len(e.Handles)), NumSigners: uint8(len(e.KMSSignatures))}
}

// KMSSignatureBytes returns the signer signatures as byte slices.
func (e *Envelope) KMSSignatureBytes() [][]byte {
	out := make([][]byte, len(e.KMSSignatures))
	for i := range e.KMSSignatures {
		out[i] = e.KMSSignatures[i].Bytes()
	}
	return out
}

// Bytes serializes the envelope in its variant's wire layout.
func (e *Envelope) Bytes() ([]byte, error) {
	if len(e.Handles) == 0 || len(e.Handles) > 255 {
		return nil, fmt.Errorf("%w: %d handles", errEncode, len(e.Handles))
	}
	if len(e.KMSSignatures) > 255 {
		return nil, fmt.Errorf("%w: %d signatures", errEncode, len(e.KMSSignatures))
	}

	h := e.Header()
	switch e.Variant {
	case DirectAttestation:
		out := make([]byte, 0, ExpectedLength(DirectAttestation, h))
		out = append(out, h.NumHandles, h.NumSigners)
		out = append(out, e.HashOfCiphertext[:]...)
		for _, hd := range e.Handles {
			out = append(out, hd[:]...)
		}
		out = append(out, e.AttesterSignature[:]...)
		for _, sig := range e.KMSSignatures {
			out = append(out, sig[:]...)
		}
		return out, nil

	case SelfDescribing:
		if len(e.Ciphertext) == 0 {
			return nil, fmt.Errorf("%w: empty ciphertext bundle", errEncode)
		}
		out := make([]byte, 0, ExpectedLength(SelfDescribing, h)+len(e.Ciphertext))
		out = append(out, h.NumHandles, h.NumSigners)
		for _, hd := range e.Handles {
			out = append(out, hd[:]...)
		}
		for _, sig := range e.KMSSignatures {
			out = append(out, sig[:]...)
		}
		out = append(out, e.Ciphertext...)
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, e.Variant)
	}
}
