// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"errors"
	"strings"

	"github.com/luxfi/crypto"
)

// SelectorLen is the length of an ABI function selector.
const SelectorLen = 4

var (
	ErrOutOfGas        = errors.New("out of gas")
	ErrWriteProtection = errors.New("write protection")
	ErrInvalidInput    = errors.New("invalid input")
)

// DeductGas checks if [suppliedGas] is sufficient against [requiredGas] and
// deducts [requiredGas] from [suppliedGas].
func DeductGas(suppliedGas uint64, requiredGas uint64) (uint64, error) {
	if suppliedGas < requiredGas {
		return 0, ErrOutOfGas
	}
	return suppliedGas - requiredGas, nil
}

// CalculateFunctionSelector returns the 4 byte function selector that results
// from [functionSignature]. Ex. the function setBalance(addr address, balance
// uint256) should be passed in as the string: "setBalance(address,uint256)"
func CalculateFunctionSelector(functionSignature string) []byte {
	functionSignature = strings.ReplaceAll(functionSignature, " ", "")
	hash := crypto.Keccak256([]byte(functionSignature))
	return hash[:SelectorLen]
}

// WordCount returns the number of 32 byte words needed to hold n bytes.
func WordCount(n int) uint64 {
	return uint64((n + 31) / 32)
}
