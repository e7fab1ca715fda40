// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package proof parses the packed binary input proofs.
//
// DirectAttestation layout:
//
//	[0]                   numHandles
//	[1]                   numSigners
//	[2..34)               hashOfCiphertext
//	[34..34+32n)          handles
//	[.. +65)              attester signature
//	[.. +65s)             KMS signatures
//
// SelfDescribing layout:
//
//	[0]                   numHandles
//	[1]                   numSigners
//	[2..2+32n)            handles
//	[.. +65s)             KMS signatures
//	[..]                  raw ciphertext bundle, at least one byte
package proof

import (
	"fmt"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/inputverifier/handle"
)

const (
	headerSize = 2

	directHandlesOffset = headerSize + common.HashLength
	selfHandlesOffset   = headerSize
)

// HandlesOffset returns where the handle array starts for a variant.
func HandlesOffset(v Variant) int {
	if v == DirectAttestation {
		return directHandlesOffset
	}
	return selfHandlesOffset
}

// ExpectedLength returns the fixed size of a DirectAttestation proof, or the
// size a SelfDescribing proof must strictly exceed.
func ExpectedLength(v Variant, h Header) int {
	n := int(h.NumHandles)*handle.Size + int(h.NumSigners)*SignatureSize
	if v == DirectAttestation {
		return directHandlesOffset + SignatureSize + n
	}
	return selfHandlesOffset + n
}

// ReadHeader reads the two count bytes.
func ReadHeader(buf []byte) (Header, error) {
	if len(buf) == 0 {
		return Header{}, ErrEmptyProof
	}
	c := NewCursor(buf)
	numHandles, _ := c.ReadU8()
	numSigners, err := c.ReadU8()
	if err != nil {
		return Header{}, err
	}
	return Header{NumHandles: numHandles, NumSigners: numSigners}, nil
}

// CheckIndex fails with ErrInvalidIndex unless index < h.NumHandles.
func CheckIndex(h Header, index uint8) error {
	if index >= h.NumHandles {
		return fmt.Errorf("%w: index %d, proof has %d handles", ErrInvalidIndex, index, h.NumHandles)
	}
	return nil
}

// CheckLength validates the total buffer length against the header.
func CheckLength(v Variant, h Header, size int) error {
	want := ExpectedLength(v, h)
	switch v {
	case DirectAttestation:
		if size != want {
			return fmt.Errorf("%w: got %d bytes, want %d", ErrLengthMismatch, size, want)
		}
	case SelfDescribing:
		if size <= want {
			return fmt.Errorf("%w: got %d bytes, want more than %d", ErrLengthMismatch, size, want)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	return nil
}

// Parse decodes and validates buf as a proof of variant v.
func Parse(buf []byte, v Variant) (*Envelope, error) {
	if v != DirectAttestation && v != SelfDescribing {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	h, err := ReadHeader(buf)
	if err != nil {
		return nil, err
	}
	if h.NumHandles == 0 {
		return nil, ErrNoHandles
	}
	if err := CheckLength(v, h, len(buf)); err != nil {
		return nil, err
	}

	c := NewCursor(buf)
	if err := c.Skip(headerSize); err != nil {
		return nil, err
	}

	env := &Envelope{
		Variant:       v,
		Handles:       make([]handle.Handle, h.NumHandles),
		KMSSignatures: make([]Signature, h.NumSigners),
	}

	if v == DirectAttestation {
		if env.HashOfCiphertext, err = c.ReadBytes32(); err != nil {
			return nil, err
		}
	}

	for i := range env.Handles {
		word, err := c.ReadBytes32()
		if err != nil {
			return nil, err
		}
		env.Handles[i] = handle.Handle(word)
	}

	if v == DirectAttestation {
		sig, err := c.ReadBytes(SignatureSize)
		if err != nil {
			return nil, err
		}
		copy(env.AttesterSignature[:], sig)
	}

	for i := range env.KMSSignatures {
		sig, err := c.ReadBytes(SignatureSize)
		if err != nil {
			return nil, err
		}
		copy(env.KMSSignatures[i][:], sig)
	}

	if v == SelfDescribing {
		env.Ciphertext = c.ReadRest()
		env.HashOfCiphertext = common.BytesToHash(crypto.Keccak256(env.Ciphertext))
	}

	for i, hd := range env.Handles {
		if hd.Version() != handle.Version {
			return nil, fmt.Errorf("%w: handle %d has version %d, want %d", ErrInvalidHandleVersion, i, hd.Version(), handle.Version)
		}
	}
	return env, nil
}

// ExtractHandle slices the handle at index directly out of buf without
// validating the rest of the proof. It is only safe for proofs that already
// passed Parse and verification.
func ExtractHandle(buf []byte, v Variant, index uint8) (handle.Handle, error) {
	h, err := ReadHeader(buf)
	if err != nil {
		return handle.Handle{}, err
	}
	if err := CheckIndex(h, index); err != nil {
		return handle.Handle{}, err
	}
	c := NewCursor(buf)
	if err := c.Skip(HandlesOffset(v) + int(index)*handle.Size); err != nil {
		return handle.Handle{}, err
	}
	word, err := c.ReadBytes32()
	if err != nil {
		return handle.Handle{}, err
	}
	return handle.Handle(word), nil
}
