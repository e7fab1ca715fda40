// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package precompile

import (
	"fmt"
	"strings"

	"github.com/luxfi/geth/accounts/abi"

	"github.com/luxfi/inputverifier/contract"
)

// ExtendedABI wraps the standard ABI and adds PackOutput, UnpackInput and
// selector lookup.
type ExtendedABI struct {
	abi.ABI
}

// ParseABI parses the raw ABI JSON and returns an ExtendedABI
func ParseABI(rawABI string) ExtendedABI {
	parsed, err := abi.JSON(strings.NewReader(rawABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return ExtendedABI{ABI: parsed}
}

// PackOutput packs the given args as the output of given method name to conform the ABI.
// This does not include method ID.
func (e ExtendedABI) PackOutput(name string, args ...interface{}) ([]byte, error) {
	method, exist := e.Methods[name]
	if !exist {
		return nil, fmt.Errorf("method '%s' not found", name)
	}
	return method.Outputs.Pack(args...)
}

// UnpackInput unpacks the arguments of method name.
// useStrictMode indicates whether to check the input data length strictly.
func (e ExtendedABI) UnpackInput(name string, data []byte, useStrictMode bool) ([]interface{}, error) {
	method, exist := e.Methods[name]
	if !exist {
		return nil, fmt.Errorf("method '%s' not found", name)
	}
	if useStrictMode && len(data)%32 != 0 {
		return nil, fmt.Errorf("abi: improperly formatted input: %x", data)
	}
	return method.Inputs.Unpack(data)
}

// Split resolves the method selected by input and returns it with the
// remaining argument bytes.
func (e ExtendedABI) Split(input []byte) (*abi.Method, []byte, error) {
	if len(input) < contract.SelectorLen {
		return nil, nil, fmt.Errorf("%w: missing function selector", contract.ErrInvalidInput)
	}
	method, err := e.MethodById(input[:contract.SelectorLen])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", contract.ErrInvalidInput, err)
	}
	return method, input[contract.SelectorLen:], nil
}
