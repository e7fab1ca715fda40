// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompile exposes the input verifier and the KMS signer registry
// as EVM stateful precompiles.
package precompile

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/inputverifier/cache"
	"github.com/luxfi/inputverifier/contract"
	"github.com/luxfi/inputverifier/proof"
	"github.com/luxfi/inputverifier/verifier"
)

// InputVerifierRawABI is the ABI of the input verifier precompile
const InputVerifierRawABI = `[
	{"type":"function","name":"verifyCiphertext","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"userAddress","type":"address"},
		{"name":"contractAddress","type":"address"},
		{"name":"aclAddress","type":"address"},
		{"name":"inputHandle","type":"bytes32"},
		{"name":"inputProof","type":"bytes"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"cleanTransientStorage","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"getVersion","stateMutability":"pure","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"getAttesterAddress","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"getKMSVerifierAddress","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

// InputVerifierABI is the parsed ABI of the input verifier precompile
var InputVerifierABI = ParseABI(InputVerifierRawABI)

// Gas costs
const (
	GasVerifyCached    uint64 = 2000 // Proof already verified in this transaction
	GasVerifyBase      uint64 = 5000 // Cold verification, before per-item costs
	GasPerSignature    uint64 = 3000 // One ecrecover
	GasPerHandle       uint64 = 200  // One handle check
	GasPerProofWord    uint64 = 6    // Hashing one word of proof
	GasCleanupBase     uint64 = 200
	GasCleanupPerEntry uint64 = 100
	GasRead            uint64 = 200
)

type inputVerifierPrecompile struct {
	verifier *verifier.InputVerifier
}

// NewInputVerifierPrecompile wraps v as a stateful precompile.
func NewInputVerifierPrecompile(v *verifier.InputVerifier) contract.StatefulPrecompiledContract {
	return &inputVerifierPrecompile{verifier: v}
}

func scopeOf(state contract.AccessibleState) *cache.Scope {
	if state == nil {
		return nil
	}
	return state.GetScope()
}

// VerifyGas returns the gas a verifyCiphertext call is charged.
func VerifyGas(v *verifier.InputVerifier, scope *cache.Scope, ctx verifier.Context, inputProof []byte) uint64 {
	if v.IsCached(scope, ctx, inputProof) {
		return GasVerifyCached
	}
	header, err := proof.ReadHeader(inputProof)
	if err != nil {
		return GasVerifyBase
	}
	sigs := uint64(header.NumSigners)
	if v.Variant() == proof.DirectAttestation {
		sigs++
	}
	return GasVerifyBase +
		sigs*GasPerSignature +
		uint64(header.NumHandles)*GasPerHandle +
		contract.WordCount(len(inputProof))*GasPerProofWord
}

// Run executes the input verifier precompile
func (p *inputVerifierPrecompile) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	method, args, err := InputVerifierABI.Split(input)
	if err != nil {
		return nil, suppliedGas, err
	}

	switch method.Name {
	case "verifyCiphertext":
		return p.verifyCiphertext(accessibleState, args, suppliedGas, readOnly)
	case "cleanTransientStorage":
		return p.cleanTransientStorage(accessibleState, suppliedGas, readOnly)
	case "getVersion":
		return readOutput(InputVerifierABI, method.Name, suppliedGas, p.verifier.Version())
	case "getAttesterAddress":
		return readOutput(InputVerifierABI, method.Name, suppliedGas, p.verifier.Attester())
	case "getKMSVerifierAddress":
		return readOutput(InputVerifierABI, method.Name, suppliedGas, p.verifier.KMSVerifierAddress())
	default:
		return nil, suppliedGas, fmt.Errorf("%w: unknown method %s", contract.ErrInvalidInput, method.Name)
	}
}

func (p *inputVerifierPrecompile) verifyCiphertext(
	state contract.AccessibleState,
	args []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}

	vals, err := InputVerifierABI.UnpackInput("verifyCiphertext", args, false)
	if err != nil {
		return nil, suppliedGas, fmt.Errorf("%w: %v", contract.ErrInvalidInput, err)
	}
	user, ok1 := vals[0].(common.Address)
	target, ok2 := vals[1].(common.Address)
	acl, ok3 := vals[2].(common.Address)
	inputHandle, ok4 := vals[3].([32]byte)
	inputProof, ok5 := vals[4].([]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil, suppliedGas, fmt.Errorf("%w: unexpected argument types", contract.ErrInvalidInput)
	}

	ctx := verifier.Context{UserAddress: user, ContractAddress: target, ACLAddress: acl}
	scope := scopeOf(state)

	remainingGas, err := contract.DeductGas(suppliedGas, VerifyGas(p.verifier, scope, ctx, inputProof))
	if err != nil {
		return nil, 0, err
	}

	result, err := p.verifier.VerifyCiphertext(scope, ctx, new(uint256.Int).SetBytes32(inputHandle[:]), inputProof)
	if err != nil {
		return nil, remainingGas, err
	}

	out, err := InputVerifierABI.PackOutput("verifyCiphertext", result.ToBig())
	if err != nil {
		return nil, remainingGas, err
	}
	return out, remainingGas, nil
}

func (p *inputVerifierPrecompile) cleanTransientStorage(
	state contract.AccessibleState,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	scope := scopeOf(state)

	var entries uint64
	if scope != nil {
		entries = uint64(scope.Len())
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasCleanupBase+entries*GasCleanupPerEntry)
	if err != nil {
		return nil, 0, err
	}
	p.verifier.CleanupScope(scope)
	return nil, remainingGas, nil
}

func readOutput(e ExtendedABI, name string, suppliedGas uint64, args ...interface{}) ([]byte, uint64, error) {
	remainingGas, err := contract.DeductGas(suppliedGas, GasRead)
	if err != nil {
		return nil, 0, err
	}
	out, err := e.PackOutput(name, args...)
	if err != nil {
		return nil, remainingGas, err
	}
	return out, remainingGas, nil
}
