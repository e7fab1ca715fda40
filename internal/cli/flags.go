// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import "github.com/urfave/cli/v2"

// DefaultGas is supplied to the precompile by the verify command.
const DefaultGas uint64 = 10_000_000

var (
	ConfigFileFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to the verifier YAML configuration",
		Value:   "inputverifier.yaml",
		EnvVars: []string{"INPUT_VERIFIER_CONFIG"},
	}

	LogLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		Usage:   "Log level (debug, info, warn, error)",
		EnvVars: []string{"LOG_LEVEL"},
	}

	VariantFlag = &cli.StringFlag{
		Name:    "variant",
		Usage:   "Proof variant (direct-attestation, self-describing)",
		Value:   "self-describing",
		EnvVars: []string{"INPUT_VERIFIER_VARIANT"},
	}

	ProofFlag = &cli.StringFlag{
		Name:  "proof",
		Usage: "Hex-encoded input proof",
	}

	ProofFileFlag = &cli.StringFlag{
		Name:  "proof-file",
		Usage: "File holding the hex-encoded input proof",
	}

	HandleFlag = &cli.StringFlag{
		Name:     "handle",
		Usage:    "Hex-encoded 32 byte input handle",
		Required: true,
	}

	UserAddressFlag = &cli.StringFlag{
		Name:     "user",
		Usage:    "Address of the user that submitted the input",
		Required: true,
	}

	ContractAddressFlag = &cli.StringFlag{
		Name:     "contract",
		Usage:    "Address of the contract the input is bound to",
		Required: true,
	}

	ACLAddressFlag = &cli.StringFlag{
		Name:     "acl",
		Usage:    "Address of the ACL contract",
		Required: true,
		EnvVars:  []string{"ACL_ADDRESS"},
	}

	GasFlag = &cli.Uint64Flag{
		Name:  "gas",
		Usage: "Gas supplied to the precompile call",
		Value: DefaultGas,
	}
)
