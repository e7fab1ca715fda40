// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package precompile

import (
	"fmt"
	"math"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/inputverifier/contract"
	"github.com/luxfi/inputverifier/kms"
)

// KMSVerifierRawABI is the ABI of the KMS signer registry precompile
const KMSVerifierRawABI = `[
	{"type":"function","name":"addSigner","stateMutability":"nonpayable","inputs":[{"name":"signer","type":"address"}],"outputs":[]},
	{"type":"function","name":"removeSigner","stateMutability":"nonpayable","inputs":[{"name":"signer","type":"address"}],"outputs":[]},
	{"type":"function","name":"setThreshold","stateMutability":"nonpayable","inputs":[{"name":"threshold","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]},
	{"type":"function","name":"acceptOwnership","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"getSigners","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"getThreshold","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"isSigner","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"pendingOwner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"getVersion","stateMutability":"pure","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

// KMSVerifierABI is the parsed ABI of the KMS signer registry precompile
var KMSVerifierABI = ParseABI(KMSVerifierRawABI)

// Gas costs
const (
	GasAdminWrite     uint64 = 5000
	GasSignerListItem uint64 = 100
)

type kmsVerifierPrecompile struct {
	registry *kms.Registry
}

// NewKMSVerifierPrecompile wraps r as a stateful precompile. Mutations are
// authorized against the EVM caller.
func NewKMSVerifierPrecompile(r *kms.Registry) contract.StatefulPrecompiledContract {
	return &kmsVerifierPrecompile{registry: r}
}

// Run executes the KMS verifier precompile
func (p *kmsVerifierPrecompile) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) ([]byte, uint64, error) {
	method, args, err := KMSVerifierABI.Split(input)
	if err != nil {
		return nil, suppliedGas, err
	}

	switch method.Name {
	case "addSigner":
		return p.write(suppliedGas, readOnly, func() error {
			signer, err := p.addressArg(method.Name, args)
			if err != nil {
				return err
			}
			return p.registry.AddSigner(caller, signer)
		})
	case "removeSigner":
		return p.write(suppliedGas, readOnly, func() error {
			signer, err := p.addressArg(method.Name, args)
			if err != nil {
				return err
			}
			return p.registry.RemoveSigner(caller, signer)
		})
	case "setThreshold":
		return p.write(suppliedGas, readOnly, func() error {
			threshold, err := p.thresholdArg(args)
			if err != nil {
				return err
			}
			return p.registry.SetThreshold(caller, threshold)
		})
	case "transferOwnership":
		return p.write(suppliedGas, readOnly, func() error {
			newOwner, err := p.addressArg(method.Name, args)
			if err != nil {
				return err
			}
			return p.registry.TransferOwnership(caller, newOwner)
		})
	case "acceptOwnership":
		return p.write(suppliedGas, readOnly, func() error {
			return p.registry.AcceptOwnership(caller)
		})

	case "getSigners":
		signers := p.registry.GetSigners()
		remainingGas, err := contract.DeductGas(suppliedGas, GasRead+uint64(len(signers))*GasSignerListItem)
		if err != nil {
			return nil, 0, err
		}
		out, err := KMSVerifierABI.PackOutput(method.Name, signers)
		return out, remainingGas, err
	case "getThreshold":
		return readOutput(KMSVerifierABI, method.Name, suppliedGas, new(big.Int).SetUint64(uint64(p.registry.GetThreshold())))
	case "isSigner":
		account, err := p.addressArg(method.Name, args)
		if err != nil {
			return nil, suppliedGas, err
		}
		return readOutput(KMSVerifierABI, method.Name, suppliedGas, p.registry.IsSigner(account))
	case "owner":
		return readOutput(KMSVerifierABI, method.Name, suppliedGas, p.registry.Owner())
	case "pendingOwner":
		return readOutput(KMSVerifierABI, method.Name, suppliedGas, p.registry.PendingOwner())
	case "getVersion":
		return readOutput(KMSVerifierABI, method.Name, suppliedGas, p.registry.Version())
	default:
		return nil, suppliedGas, fmt.Errorf("%w: unknown method %s", contract.ErrInvalidInput, method.Name)
	}
}

func (p *kmsVerifierPrecompile) write(suppliedGas uint64, readOnly bool, fn func() error) ([]byte, uint64, error) {
	if readOnly {
		return nil, suppliedGas, contract.ErrWriteProtection
	}
	remainingGas, err := contract.DeductGas(suppliedGas, GasAdminWrite)
	if err != nil {
		return nil, 0, err
	}
	if err := fn(); err != nil {
		return nil, remainingGas, err
	}
	return nil, remainingGas, nil
}

func (p *kmsVerifierPrecompile) addressArg(name string, args []byte) (common.Address, error) {
	vals, err := KMSVerifierABI.UnpackInput(name, args, true)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", contract.ErrInvalidInput, err)
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: expected address", contract.ErrInvalidInput)
	}
	return addr, nil
}

func (p *kmsVerifierPrecompile) thresholdArg(args []byte) (uint32, error) {
	vals, err := KMSVerifierABI.UnpackInput("setThreshold", args, true)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", contract.ErrInvalidInput, err)
	}
	threshold, ok := vals[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("%w: expected uint256", contract.ErrInvalidInput)
	}
	if !threshold.IsUint64() || threshold.Uint64() > math.MaxUint32 {
		return 0, fmt.Errorf("%w: threshold %s", kms.ErrThresholdExceedsSigners, threshold)
	}
	return uint32(threshold.Uint64()), nil
}
