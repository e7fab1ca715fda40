// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package eip712

import (
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
)

// Type strings of the verification messages
const (
	AttesterMessageType = "CiphertextVerificationForCopro(address aclAddress,bytes32 hashOfCiphertext,uint256[] handlesList,address userAddress,address contractAddress)"
	SignerMessageType   = "CiphertextVerificationForKMS(address aclAddress,bytes32 hashOfCiphertext,address userAddress,address contractAddress)"
)

var (
	attesterMessageTypeHash = keccak([]byte(AttesterMessageType))
	signerMessageTypeHash   = keccak([]byte(SignerMessageType))
)

// AttesterMessage is signed by the single attester of a DirectAttestation
// deployment. It binds the full list of handles.
type AttesterMessage struct {
	ACLAddress       common.Address
	HashOfCiphertext common.Hash
	Handles          []common.Hash
	UserAddress      common.Address
	ContractAddress  common.Address
}

func (m AttesterMessage) StructHash() common.Hash {
	list := make([]byte, 0, len(m.Handles)*common.HashLength)
	for _, h := range m.Handles {
		list = append(list, h[:]...)
	}
	encoded := encodeWords(
		[]abi.Type{bytes32Type, addressType, bytes32Type, bytes32Type, addressType, addressType},
		[32]byte(attesterMessageTypeHash),
		m.ACLAddress,
		[32]byte(m.HashOfCiphertext),
		[32]byte(keccak(list)),
		m.UserAddress,
		m.ContractAddress,
	)
	return keccak(encoded)
}

// SignerMessage is signed by every KMS signer.
type SignerMessage struct {
	ACLAddress       common.Address
	HashOfCiphertext common.Hash
	UserAddress      common.Address
	ContractAddress  common.Address
}

func (m SignerMessage) StructHash() common.Hash {
	encoded := encodeWords(
		[]abi.Type{bytes32Type, addressType, bytes32Type, addressType, addressType},
		[32]byte(signerMessageTypeHash),
		m.ACLAddress,
		[32]byte(m.HashOfCiphertext),
		m.UserAddress,
		m.ContractAddress,
	)
	return keccak(encoded)
}
