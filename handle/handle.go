// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package handle implements the 256-bit self-describing identifier of an
// encrypted input.
//
// A handle packs four fields big-endian:
//
//	[0..29)  content tag, derived from the ciphertext
//	[29]     index of the ciphertext inside its input proof
//	[30]     plaintext type
//	[31]     handle format version
package handle

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// Version is the handle format version accepted by this verifier.
const Version uint8 = 0

// Layout of a handle
const (
	Size           = 32
	ContentTagSize = 29

	IndexOffset   = 29
	TypeOffset    = 30
	VersionOffset = 31
)

// Handle is an immutable 32 byte ciphertext identifier.
type Handle [Size]byte

// Fields is the decoded form of a Handle.
type Fields struct {
	ContentTag [ContentTagSize]byte
	Index      uint8
	Type       Type
	Version    uint8
}

// FromUint256 converts the integer form of a handle.
func FromUint256(v *uint256.Int) Handle {
	return Handle(v.Bytes32())
}

// FromBytes sets the handle from b, left-padding or cropping like common.BytesToHash.
func FromBytes(b []byte) Handle {
	return Handle(common.BytesToHash(b))
}

// Uint256 returns the integer form of the handle.
func (h Handle) Uint256() *uint256.Int {
	return new(uint256.Int).SetBytes32(h[:])
}

// Hash returns the handle as a 32 byte word.
func (h Handle) Hash() common.Hash {
	return common.Hash(h)
}

func (h Handle) Hex() string {
	return common.Hash(h).Hex()
}

func (h Handle) String() string {
	return h.Hex()
}

func (h Handle) ContentTag() [ContentTagSize]byte {
	var tag [ContentTagSize]byte
	copy(tag[:], h[:ContentTagSize])
	return tag
}

func (h Handle) Index() uint8 { return h[IndexOffset] }

func (h Handle) Type() Type { return Type(h[TypeOffset]) }

func (h Handle) Version() uint8 { return h[VersionOffset] }

// Decode splits a handle into its fields.
func Decode(h Handle) Fields {
	return Fields{
		ContentTag: h.ContentTag(),
		Index:      h.Index(),
		Type:       h.Type(),
		Version:    h.Version(),
	}
}

// Encode packs fields into a handle.
func Encode(f Fields) Handle {
	var h Handle
	copy(h[:ContentTagSize], f.ContentTag[:])
	h[IndexOffset] = f.Index
	h[TypeOffset] = uint8(f.Type)
	h[VersionOffset] = f.Version
	return h
}

// WithType returns a copy of h carrying type t.
func (h Handle) WithType(t Type) Handle {
	h[TypeOffset] = uint8(t)
	return h
}

// Recompute derives the handle a self-describing proof must carry at position
// index for a ciphertext bundle hashing to hashOfCiphertext:
//
//	keccak256(hashOfCiphertext ++ index)[0:29] ++ index ++ 0 ++ Version
//
// The type byte is left zero; compare with MatchesIgnoringType.
func Recompute(hashOfCiphertext common.Hash, index uint8) Handle {
	digest := crypto.Keccak256(hashOfCiphertext[:], []byte{index})

	var h Handle
	copy(h[:ContentTagSize], digest[:ContentTagSize])
	h[IndexOffset] = index
	h[VersionOffset] = Version
	return h
}

// MatchesIgnoringType compares every field of a and b except the type byte.
//
// The executor coerces out-of-range types itself, so the type is not bound to
// the ciphertext content and must not take part in integrity checks.
func MatchesIgnoringType(a, b Handle) bool {
	a[TypeOffset] = 0
	b[TypeOffset] = 0
	return a == b
}

// String pretty-prints the decoded fields.
func (f Fields) String() string {
	return fmt.Sprintf("tag=0x%x index=%d type=%s version=%d", f.ContentTag[:], f.Index, f.Type, f.Version)
}
