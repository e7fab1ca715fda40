// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/luxfi/geth/common"
)

// AddressRange represents a continuous range of addresses
type AddressRange struct {
	Start common.Address
	End   common.Address
}

// Contains returns true iff [addr] is contained within the (inclusive)
// range of addresses defined by [a].
func (a *AddressRange) Contains(addr common.Address) bool {
	addrBytes := addr.Bytes()
	return bytes.Compare(addrBytes, a.Start[:]) >= 0 && bytes.Compare(addrBytes, a.End[:]) <= 0
}

// BlackholeAddr is the address where assets are burned
var BlackholeAddr = common.Address{
	1, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Reserved address ranges for the verifier precompiles
//
// LOW-BYTE RANGES (0x0000...PCII):
// 0x4000-0x4FFF: Privacy/ZK family page (input and KMS verifiers)
var reservedRanges = []AddressRange{
	{
		Start: common.HexToAddress("0x0000000000000000000000000000000000004000"),
		End:   common.HexToAddress("0x0000000000000000000000000000000000004fff"),
	},
}

// ReservedAddress returns true if [addr] is in a reserved range for custom precompiles
func ReservedAddress(addr common.Address) bool {
	for _, reservedRange := range reservedRanges {
		if reservedRange.Contains(addr) {
			return true
		}
	}

	return false
}

// Registry holds the precompile modules of one chain, sorted by address.
type Registry struct {
	// modules is sorted by address to preserve order for deterministic iteration
	modules []Module

	mu sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{modules: make([]Module, 0)}
}

// RegisterModule registers a stateful precompile module
func (r *Registry) RegisterModule(stm Module) error {
	address := stm.Address
	key := stm.ConfigKey

	if stm.Contract == nil {
		return fmt.Errorf("module %s has no contract", key)
	}
	if address == BlackholeAddr {
		return fmt.Errorf("address %s overlaps with blackhole address", address)
	}
	if !ReservedAddress(address) {
		return fmt.Errorf("address %s not in a reserved range", address)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, registeredModule := range r.modules {
		if registeredModule.ConfigKey == key {
			return fmt.Errorf("name %s already used by a stateful precompile", key)
		}
		if registeredModule.Address == address {
			return fmt.Errorf("address %s already used by a stateful precompile", address)
		}
	}
	// sort by address to ensure deterministic iteration
	r.modules = insertSortedByAddress(r.modules, stm)
	return nil
}

func (r *Registry) GetPrecompileModuleByAddress(address common.Address) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stm := range r.modules {
		if stm.Address == address {
			return stm, true
		}
	}
	return Module{}, false
}

func (r *Registry) GetPrecompileModule(key string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stm := range r.modules {
		if stm.ConfigKey == key {
			return stm, true
		}
	}
	return Module{}, false
}

// RegisteredModules returns a copy of the registered modules in address order.
func (r *Registry) RegisteredModules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	return out
}

func insertSortedByAddress(data []Module, stm Module) []Module {
	data = append(data, stm)
	sort.Sort(moduleArray(data))
	return data
}
