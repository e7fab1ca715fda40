// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
)

// ============================================================================
// PRECOMPILE ADDRESS SCHEME
// ============================================================================
//
// Input verification precompiles use trailing-significant 20-byte addresses:
//   Format: 0x0000000000000000000000000000000000PCII
//
//   0x 0000...0000 P C II
//                  │ │ └┴─ Item         (8 bits)
//                  │ └──── Chain slot   (4 bits)
//                  └────── Family page  (4 bits, P=4 Privacy/ZK)
//
// Only chains that run confidential contracts carry the verifiers:
//   C=2 → C-Chain
//   C=6 → Z-Chain
//
// Example: InputVerifier on C-Chain = P=4, C=2, II=0x10
//          Address = 0x0000000000000000000000000000000000004210

// Family page and items of the verifier precompiles
const (
	PrivacyPage uint8 = 4

	InputVerifierItem uint8 = 0x10
	KMSVerifierItem   uint8 = 0x11
)

const (
	InputVerifierCChain = "0x0000000000000000000000000000000000004210" // C-Chain InputVerifier
	InputVerifierZChain = "0x0000000000000000000000000000000000004610" // Z-Chain InputVerifier
	KMSVerifierCChain   = "0x0000000000000000000000000000000000004211" // C-Chain KMSVerifier
	KMSVerifierZChain   = "0x0000000000000000000000000000000000004611" // Z-Chain KMSVerifier
)

// Precompile names used in AllPrecompiles and the config file
const (
	InputVerifierName = "INPUT_VERIFIER"
	KMSVerifierName   = "KMS_VERIFIER"
)

var ErrUnknownChain = errors.New("chain does not host input verification precompiles")

// PrecompileAddress calculates address from (P, C, II) nibbles
// Returns trailing-significant format: 0x0000000000000000000000000000000000PCII
func PrecompileAddress(p, c, ii uint8) common.Address {
	if p > 15 || c > 15 {
		return common.Address{}
	}
	selector := fmt.Sprintf("%x%x%02x", p, c, ii)
	addr := "0000000000000000000000000000000000" + selector
	return common.HexToAddress("0x" + addr)
}

// ChainSlot returns the C-nibble for a chain name
func ChainSlot(chain string) uint8 {
	switch chain {
	case "P", "p":
		return 0
	case "X", "x":
		return 1
	case "C", "c":
		return 2
	case "Q", "q":
		return 3
	case "A", "a":
		return 4
	case "B", "b":
		return 5
	case "Z", "z":
		return 6
	default:
		return 0xFF
	}
}

// ChainPrecompiles defines which verifier precompiles are enabled for each chain
var ChainPrecompiles = map[string][]string{
	"C": {InputVerifierCChain, KMSVerifierCChain},
	"Z": {InputVerifierZChain, KMSVerifierZChain},
}

// PrecompileInfo contains metadata about a precompile
type PrecompileInfo struct {
	Address     string
	Name        string
	Description string
	GasBase     uint64
	Chains      []string
}

// AllPrecompiles lists the C-Chain instance of every verifier precompile
var AllPrecompiles = []PrecompileInfo{
	{InputVerifierCChain, InputVerifierName, "Encrypted input proof verification", 5000, []string{"C", "Z"}},
	{KMSVerifierCChain, KMSVerifierName, "KMS signer set and quorum threshold", 2600, []string{"C", "Z"}},
}

// GetPrecompileAddress returns the C-Chain address of a precompile by name
func GetPrecompileAddress(name string) common.Address {
	for _, p := range AllPrecompiles {
		if p.Name == name {
			return common.HexToAddress(p.Address)
		}
	}
	return common.Address{}
}

// AddressesForChain returns the InputVerifier and KMSVerifier addresses on chain.
func AddressesForChain(chain string) (inputVerifier, kmsVerifier common.Address, err error) {
	slot := ChainSlot(chain)
	if slot == 0xFF || !IsChainSupported(chain) {
		return common.Address{}, common.Address{}, fmt.Errorf("%w: %q", ErrUnknownChain, chain)
	}
	return PrecompileAddress(PrivacyPage, slot, InputVerifierItem),
		PrecompileAddress(PrivacyPage, slot, KMSVerifierItem),
		nil
}

// IsChainSupported reports whether chain hosts the verifier precompiles.
func IsChainSupported(chain string) bool {
	switch chain {
	case "C", "c", "Z", "z":
		return true
	default:
		return false
	}
}

// GetChainPrecompiles returns all precompile addresses for a chain
func GetChainPrecompiles(chainLetter string) []common.Address {
	addrs, ok := ChainPrecompiles[chainLetter]
	if !ok {
		return nil
	}

	result := make([]common.Address, len(addrs))
	for i, addr := range addrs {
		result[i] = common.HexToAddress(addr)
	}
	return result
}

// IsPrecompileEnabled checks if a precompile is enabled for a chain
func IsPrecompileEnabled(chainLetter string, precompileAddr common.Address) bool {
	for _, addr := range ChainPrecompiles[chainLetter] {
		if common.HexToAddress(addr) == precompileAddr {
			return true
		}
	}
	return false
}
