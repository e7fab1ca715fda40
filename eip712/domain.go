// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package eip712 hashes the verification messages signed by the attester and
// the KMS signers, and recovers signer addresses from their signatures.
package eip712

import (
	"fmt"
	"math/big"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
)

// Domain names and versions bound into every signature.
const (
	InputVerifierName = "InputVerifier"
	KMSVerifierName   = "KMSVerifier"
	DomainVersion     = "1"
)

var domainTypeHash = keccak([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

var (
	bytes32Type = mustNewType("bytes32")
	addressType = mustNewType("address")
	uint256Type = mustNewType("uint256")
)

func mustNewType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(fmt.Sprintf("failed to create ABI type %s: %v", name, err))
	}
	return t
}

// encodeWords abi.encodes statically typed words. The argument types are
// fixed by the caller so a packing error is a programming error.
func encodeWords(types []abi.Type, values ...interface{}) []byte {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		args[i] = abi.Argument{Type: t}
	}
	packed, err := args.Pack(values...)
	if err != nil {
		panic(fmt.Sprintf("failed to encode typed data: %v", err))
	}
	return packed
}

func keccak(data ...[]byte) common.Hash {
	return common.BytesToHash(crypto.Keccak256(data...))
}

// Domain is the EIP712Domain a signature is bound to.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// NewInputVerifierDomain returns the domain attester signatures are bound to.
func NewInputVerifierDomain(chainID *big.Int, verifyingContract common.Address) Domain {
	return Domain{Name: InputVerifierName, Version: DomainVersion, ChainID: chainID, VerifyingContract: verifyingContract}
}

// NewKMSVerifierDomain returns the domain KMS signer signatures are bound to.
func NewKMSVerifierDomain(chainID *big.Int, verifyingContract common.Address) Domain {
	return Domain{Name: KMSVerifierName, Version: DomainVersion, ChainID: chainID, VerifyingContract: verifyingContract}
}

// Separator returns the domain separator hash.
func (d Domain) Separator() common.Hash {
	chainID := d.ChainID
	if chainID == nil {
		chainID = new(big.Int)
	}
	encoded := encodeWords(
		[]abi.Type{bytes32Type, bytes32Type, bytes32Type, uint256Type, addressType},
		[32]byte(domainTypeHash),
		[32]byte(keccak([]byte(d.Name))),
		[32]byte(keccak([]byte(d.Version))),
		chainID,
		d.VerifyingContract,
	)
	return keccak(encoded)
}

// Message is a typed struct that can be signed under a Domain.
type Message interface {
	StructHash() common.Hash
}

// Digest returns keccak256("\x19\x01" || domainSeparator || structHash).
func (d Domain) Digest(msg Message) common.Hash {
	sep := d.Separator()
	structHash := msg.StructHash()
	return keccak([]byte{0x19, 0x01}, sep[:], structHash[:])
}
