// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the interfaces between the EVM host and the
// verifier precompiles.
package contract

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/inputverifier/cache"
)

// StatefulPrecompiledContract is the interface for executing a precompiled contract
type StatefulPrecompiledContract interface {
	// Run executes the precompiled contract.
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		suppliedGas uint64,
		readOnly bool,
	) (ret []byte, remainingGas uint64, err error)
}

// AccessibleState is the host state a precompile may touch during one call.
type AccessibleState interface {
	// GetScope returns the verification scope of the current transaction.
	// The host clears it, through cleanTransientStorage or directly, when the
	// transaction ends.
	GetScope() *cache.Scope
}

// TxState is an AccessibleState holding one scope per transaction.
type TxState struct {
	Scope *cache.Scope
}

// NewTxState returns state with a fresh scope.
func NewTxState() *TxState {
	return &TxState{Scope: cache.NewScope()}
}

func (s *TxState) GetScope() *cache.Scope {
	if s == nil {
		return nil
	}
	return s.Scope
}
