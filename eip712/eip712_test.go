// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package eip712

import (
	"math/big"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"
)

var (
	testChainID  = big.NewInt(96369)
	testVerifier = common.HexToAddress("0x0000000000000000000000000000000000004210")
	testACL      = common.HexToAddress("0x00000000000000000000000000000000000000ac")
	testUser     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testContract = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func word(b []byte) []byte {
	return common.LeftPadBytes(b, 32)
}

func TestDomainSeparatorLayout(t *testing.T) {
	d := NewInputVerifierDomain(testChainID, testVerifier)

	var manual []byte
	manual = append(manual, crypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))...)
	manual = append(manual, crypto.Keccak256([]byte("InputVerifier"))...)
	manual = append(manual, crypto.Keccak256([]byte("1"))...)
	manual = append(manual, word(testChainID.Bytes())...)
	manual = append(manual, word(testVerifier.Bytes())...)

	require.Equal(t, common.BytesToHash(crypto.Keccak256(manual)), d.Separator())
	require.NotEqual(t, d.Separator(), NewKMSVerifierDomain(testChainID, testVerifier).Separator())
	require.NotEqual(t, d.Separator(), NewInputVerifierDomain(big.NewInt(1), testVerifier).Separator())
}

func TestAttesterStructHashLayout(t *testing.T) {
	hashCT := common.HexToHash("0xabcdef")
	h0 := common.HexToHash("0x01")
	h1 := common.HexToHash("0x02")
	msg := AttesterMessage{
		ACLAddress:       testACL,
		HashOfCiphertext: hashCT,
		Handles:          []common.Hash{h0, h1},
		UserAddress:      testUser,
		ContractAddress:  testContract,
	}

	var manual []byte
	manual = append(manual, crypto.Keccak256([]byte(AttesterMessageType))...)
	manual = append(manual, word(testACL.Bytes())...)
	manual = append(manual, hashCT.Bytes()...)
	manual = append(manual, crypto.Keccak256(h0.Bytes(), h1.Bytes())...)
	manual = append(manual, word(testUser.Bytes())...)
	manual = append(manual, word(testContract.Bytes())...)

	require.Equal(t, common.BytesToHash(crypto.Keccak256(manual)), msg.StructHash())

	reordered := msg
	reordered.Handles = []common.Hash{h1, h0}
	require.NotEqual(t, msg.StructHash(), reordered.StructHash())
}

func TestSignerStructHashLayout(t *testing.T) {
	hashCT := common.HexToHash("0x1234")
	msg := SignerMessage{
		ACLAddress:       testACL,
		HashOfCiphertext: hashCT,
		UserAddress:      testUser,
		ContractAddress:  testContract,
	}

	var manual []byte
	manual = append(manual, crypto.Keccak256([]byte(SignerMessageType))...)
	manual = append(manual, word(testACL.Bytes())...)
	manual = append(manual, hashCT.Bytes()...)
	manual = append(manual, word(testUser.Bytes())...)
	manual = append(manual, word(testContract.Bytes())...)

	require.Equal(t, common.BytesToHash(crypto.Keccak256(manual)), msg.StructHash())

	d := NewKMSVerifierDomain(testChainID, testVerifier)
	sep := d.Separator()
	sh := msg.StructHash()
	require.Equal(t, common.BytesToHash(crypto.Keccak256([]byte{0x19, 0x01}, sep[:], sh[:])), d.Digest(msg))
}

func TestSignAndRecover(t *testing.T) {
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	want := PubkeyToAddress(key.PubKey())

	d := NewKMSVerifierDomain(testChainID, testVerifier)
	msg := SignerMessage{ACLAddress: testACL, HashOfCiphertext: common.HexToHash("0x99"), UserAddress: testUser, ContractAddress: testContract}

	sig, err := Sign(key, d, msg)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	require.Contains(t, []byte{27, 28}, sig[64])

	got, err := RecoverSigner(ECDSARecoverer{}, d, msg, sig)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// same signature under another domain recovers someone else
	other, err := RecoverSigner(ECDSARecoverer{}, NewInputVerifierDomain(testChainID, testVerifier), msg, sig)
	if err == nil {
		require.NotEqual(t, want, other)
	}
}

func TestRecoverRejectsMalformed(t *testing.T) {
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	digest := common.HexToHash("0x5555")
	sig, err := SignDigest(key, digest)
	require.NoError(t, err)

	r := ECDSARecoverer{}

	_, err = r.Recover(digest, sig[:64])
	require.ErrorIs(t, err, ErrInvalidSignatureLength)

	badV := append([]byte{}, sig...)
	badV[64] = 1
	_, err = r.Recover(digest, badV)
	require.ErrorIs(t, err, ErrInvalidSignatureV)

	zeroS := append([]byte{}, sig...)
	copy(zeroS[32:64], make([]byte, 32))
	_, err = r.Recover(digest, zeroS)
	require.ErrorIs(t, err, ErrInvalidSignatureS)

	// malleated twin (n - s, flipped v) must be refused
	var s secp256k1.ModNScalar
	s.SetByteSlice(sig[32:64])
	s.Negate()
	highS := append([]byte{}, sig...)
	sBytes := s.Bytes()
	copy(highS[32:64], sBytes[:])
	if sig[64] == 27 {
		highS[64] = 28
	} else {
		highS[64] = 27
	}
	_, err = r.Recover(digest, highS)
	require.ErrorIs(t, err, ErrInvalidSignatureS)

	zeroR := append([]byte{}, sig...)
	copy(zeroR[:32], make([]byte, 32))
	_, err = r.Recover(digest, zeroR)
	require.ErrorIs(t, err, ErrRecoveryFailed)

	_, err = SignDigest(nil, digest)
	require.ErrorIs(t, err, ErrNilPrivateKey)
}
