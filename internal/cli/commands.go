// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"fmt"
	"math/big"

	"github.com/luxfi/log"
	"github.com/urfave/cli/v2"

	"github.com/luxfi/inputverifier/config"
	"github.com/luxfi/inputverifier/contract"
	"github.com/luxfi/inputverifier/handle"
	"github.com/luxfi/inputverifier/modules"
	"github.com/luxfi/inputverifier/precompile"
	"github.com/luxfi/inputverifier/proof"
	"github.com/luxfi/inputverifier/verifier"
)

// NewApp returns the inputverifier command line application.
func NewApp() *cli.App {
	return &cli.App{
		Name:  "inputverifier",
		Usage: "Inspect and verify encrypted input proofs",
		Flags: []cli.Flag{
			LogLevelFlag,
		},
		Commands: []*cli.Command{
			{
				Name:      "decode-handle",
				Usage:     "Print the fields of a ciphertext handle",
				ArgsUsage: "<handle>",
				Action:    decodeHandle,
			},
			{
				Name:  "inspect-proof",
				Usage: "Parse an input proof and print its contents",
				Flags: []cli.Flag{
					VariantFlag,
					ProofFlag,
					ProofFileFlag,
				},
				Action: inspectProof,
			},
			{
				Name:  "verify",
				Usage: "Verify an input proof through the input verifier precompile",
				Flags: []cli.Flag{
					ConfigFileFlag,
					HandleFlag,
					ProofFlag,
					ProofFileFlag,
					UserAddressFlag,
					ContractAddressFlag,
					ACLAddressFlag,
					GasFlag,
				},
				Action: verify,
			},
		},
	}
}

func decodeHandle(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one handle argument")
	}
	raw, err := readHandle(c.Args().First())
	if err != nil {
		return err
	}
	h := handle.Handle(raw)

	w := c.App.Writer
	fmt.Fprintf(w, "handle:  %s\n", h.Hex())
	fmt.Fprintf(w, "fields:  %s\n", handle.Decode(h))
	fmt.Fprintf(w, "uint256: %s\n", h.Uint256().Dec())
	if !h.Type().IsValid() {
		fmt.Fprintf(w, "warning: unknown ciphertext type %d\n", uint8(h.Type()))
	}
	if h.Version() != handle.Version {
		fmt.Fprintf(w, "warning: handle version %d, expected %d\n", h.Version(), handle.Version)
	}
	return nil
}

func inspectProof(c *cli.Context) error {
	variant, err := proof.ParseVariant(c.String(VariantFlag.Name))
	if err != nil {
		return err
	}
	buf, err := readProof(c)
	if err != nil {
		return err
	}
	env, err := proof.Parse(buf, variant)
	if err != nil {
		return fmt.Errorf("invalid proof: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "variant:          %s\n", env.Variant)
	fmt.Fprintf(w, "size:             %d\n", len(buf))
	fmt.Fprintf(w, "fingerprint:      %s\n", verifier.Fingerprint(buf))
	fmt.Fprintf(w, "hashOfCiphertext: %s\n", env.HashOfCiphertext.Hex())
	fmt.Fprintf(w, "kmsSignatures:    %d\n", len(env.KMSSignatures))
	if env.Variant == proof.SelfDescribing {
		fmt.Fprintf(w, "ciphertext:       %d bytes\n", len(env.Ciphertext))
	}
	for i, h := range env.Handles {
		fmt.Fprintf(w, "handle[%d]:        %s %s\n", i, h.Hex(), handle.Decode(h))
	}
	return nil
}

func verify(c *cli.Context) error {
	cliCfg := NewConfigFromCLI(c)

	cfg, err := config.Load(cliCfg.ConfigFile)
	if err != nil {
		return err
	}
	var logger log.Logger
	if c.IsSet(LogLevelFlag.Name) {
		logger = cliCfg.Logger
	}
	v, reg, err := cfg.Assemble(logger)
	if err != nil {
		return err
	}

	mods := modules.NewRegistry()
	if err := precompile.Register(mods, v, reg, cfg.InputVerifierAddress()); err != nil {
		return fmt.Errorf("failed to register precompiles: %w", err)
	}
	module, ok := mods.GetPrecompileModule(precompile.InputVerifierConfigKey)
	if !ok {
		return fmt.Errorf("input verifier module not registered")
	}

	inputHandle, err := readHandle(c.String(HandleFlag.Name))
	if err != nil {
		return err
	}
	inputProof, err := readProof(c)
	if err != nil {
		return err
	}
	user, err := readAddress(c, UserAddressFlag)
	if err != nil {
		return err
	}
	target, err := readAddress(c, ContractAddressFlag)
	if err != nil {
		return err
	}
	acl, err := readAddress(c, ACLAddressFlag)
	if err != nil {
		return err
	}

	input, err := precompile.InputVerifierABI.Pack("verifyCiphertext", user, target, acl, inputHandle, inputProof)
	if err != nil {
		return fmt.Errorf("failed to pack call: %w", err)
	}
	gas := c.Uint64(GasFlag.Name)
	out, remaining, err := module.Contract.Run(contract.NewTxState(), target, module.Address, input, gas, false)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	vals, err := precompile.InputVerifierABI.Unpack("verifyCiphertext", out)
	if err != nil {
		return fmt.Errorf("failed to unpack result: %w", err)
	}
	result, ok := vals[0].(*big.Int)
	if !ok {
		return fmt.Errorf("unexpected result type %T", vals[0])
	}

	w := c.App.Writer
	fmt.Fprintf(w, "verified:    %s\n", handle.FromBytes(result.Bytes()).Hex())
	fmt.Fprintf(w, "variant:     %s\n", v.Variant())
	fmt.Fprintf(w, "gasUsed:     %d\n", gas-remaining)
	fmt.Fprintf(w, "fingerprint: %s\n", verifier.Fingerprint(inputProof))
	return nil
}
