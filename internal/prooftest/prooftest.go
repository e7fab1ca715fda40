// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package prooftest builds signed input proofs for tests.
package prooftest

import (
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/inputverifier/eip712"
	"github.com/luxfi/inputverifier/handle"
	"github.com/luxfi/inputverifier/proof"
)

var (
	ChainID              = big.NewInt(96369)
	InputVerifierAddress = common.HexToAddress("0x0000000000000000000000000000000000004210")
	KMSVerifierAddress   = common.HexToAddress("0x0000000000000000000000000000000000004211")
	ACLAddress           = common.HexToAddress("0x00000000000000000000000000000000000000ac")
	UserAddress          = common.HexToAddress("0x1000000000000000000000000000000000000001")
	ContractAddress      = common.HexToAddress("0x2000000000000000000000000000000000000002")
	OwnerAddress         = common.HexToAddress("0x3000000000000000000000000000000000000003")
	InputVerifierDomain  = eip712.NewInputVerifierDomain(ChainID, InputVerifierAddress)
	KMSVerifierDomain    = eip712.NewKMSVerifierDomain(ChainID, KMSVerifierAddress)
)

// Signer is a secp256k1 key and its address.
type Signer struct {
	Key     *secp256k1.PrivateKey
	Address common.Address
}

func NewSigner(t testing.TB) *Signer {
	t.Helper()
	key, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	return &Signer{Key: key, Address: eip712.PubkeyToAddress(key.PubKey())}
}

func NewSigners(t testing.TB, n int) []*Signer {
	t.Helper()
	out := make([]*Signer, n)
	for i := range out {
		out[i] = NewSigner(t)
	}
	return out
}

func Addresses(signers []*Signer) []common.Address {
	out := make([]common.Address, len(signers))
	for i, s := range signers {
		out[i] = s.Address
	}
	return out
}

// Sign signs msg under domain as a proof signature.
func (s *Signer) Sign(t testing.TB, domain eip712.Domain, msg eip712.Message) proof.Signature {
	t.Helper()
	raw, err := eip712.Sign(s.Key, domain, msg)
	require.NoError(t, err)
	var sig proof.Signature
	copy(sig[:], raw)
	return sig
}

// Handles returns one handle per type, content-consistent with hashCT.
func Handles(hashCT common.Hash, types ...handle.Type) []handle.Handle {
	out := make([]handle.Handle, len(types))
	for i, ty := range types {
		out[i] = handle.Recompute(hashCT, uint8(i)).WithType(ty)
	}
	return out
}

// Builder produces signed proofs for one (acl, user, contract) context.
type Builder struct {
	ACL      common.Address
	User     common.Address
	Contract common.Address

	InputDomain eip712.Domain
	KMSDomain   eip712.Domain

	Attester *Signer
	Signers  []*Signer
}

// NewBuilder returns a builder bound to the package's default addresses and domains.
func NewBuilder(attester *Signer, signers []*Signer) *Builder {
	return &Builder{
		ACL:         ACLAddress,
		User:        UserAddress,
		Contract:    ContractAddress,
		InputDomain: InputVerifierDomain,
		KMSDomain:   KMSVerifierDomain,
		Attester:    attester,
		Signers:     signers,
	}
}

func (b *Builder) SignerMessage(hashCT common.Hash) eip712.SignerMessage {
	return eip712.SignerMessage{
		ACLAddress:       b.ACL,
		HashOfCiphertext: hashCT,
		UserAddress:      b.User,
		ContractAddress:  b.Contract,
	}
}

func (b *Builder) AttesterMessage(hashCT common.Hash, handles []handle.Handle) eip712.AttesterMessage {
	list := make([]common.Hash, len(handles))
	for i, h := range handles {
		list[i] = h.Hash()
	}
	return eip712.AttesterMessage{
		ACLAddress:       b.ACL,
		HashOfCiphertext: hashCT,
		Handles:          list,
		UserAddress:      b.User,
		ContractAddress:  b.Contract,
	}
}

// SignKMS signs hashCT with every configured signer.
func (b *Builder) SignKMS(t testing.TB, hashCT common.Hash) []proof.Signature {
	t.Helper()
	msg := b.SignerMessage(hashCT)
	sigs := make([]proof.Signature, len(b.Signers))
	for i, s := range b.Signers {
		sigs[i] = s.Sign(t, b.KMSDomain, msg)
	}
	return sigs
}

// DirectAttestation builds and serializes a signed DirectAttestation proof.
func (b *Builder) DirectAttestation(t testing.TB, hashCT common.Hash, handles []handle.Handle) (*proof.Envelope, []byte) {
	t.Helper()
	require.NotNil(t, b.Attester, "direct attestation needs an attester")
	env := &proof.Envelope{
		Variant:           proof.DirectAttestation,
		Handles:           handles,
		HashOfCiphertext:  hashCT,
		AttesterSignature: b.Attester.Sign(t, b.InputDomain, b.AttesterMessage(hashCT, handles)),
		KMSSignatures:     b.SignKMS(t, hashCT),
	}
	buf, err := env.Bytes()
	require.NoError(t, err)
	return env, buf
}

// SelfDescribing builds and serializes a signed SelfDescribing proof with one
// content-consistent handle per type.
func (b *Builder) SelfDescribing(t testing.TB, ciphertext []byte, types ...handle.Type) (*proof.Envelope, []byte) {
	t.Helper()
	hashCT := common.BytesToHash(crypto.Keccak256(ciphertext))
	env := &proof.Envelope{
		Variant:          proof.SelfDescribing,
		Handles:          Handles(hashCT, types...),
		HashOfCiphertext: hashCT,
		KMSSignatures:    b.SignKMS(t, hashCT),
		Ciphertext:       ciphertext,
	}
	buf, err := env.Bytes()
	require.NoError(t, err)
	return env, buf
}

// CountingRecoverer counts signature recoveries.
type CountingRecoverer struct {
	Inner eip712.Recoverer
	calls atomic.Int64
}

func (c *CountingRecoverer) Recover(digest common.Hash, sig []byte) (common.Address, error) {
	c.calls.Add(1)
	inner := c.Inner
	if inner == nil {
		inner = eip712.ECDSARecoverer{}
	}
	return inner.Recover(digest, sig)
}

func (c *CountingRecoverer) Calls() int64 {
	return c.calls.Load()
}

func (c *CountingRecoverer) Reset() {
	c.calls.Store(0)
}
