// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/inputverifier/cache"
	"github.com/luxfi/inputverifier/handle"
	"github.com/luxfi/inputverifier/internal/prooftest"
	"github.com/luxfi/inputverifier/kms"
	"github.com/luxfi/inputverifier/proof"
	"github.com/luxfi/inputverifier/registry"
	"github.com/luxfi/inputverifier/verifier"
)

func yamlFor(variant string, attester common.Address, signers []common.Address, extra string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "variant: %s\n", variant)
	b.WriteString("chainId: 96369\n")
	if attester != (common.Address{}) {
		fmt.Fprintf(&b, "attester: %q\n", attester.Hex())
	}
	fmt.Fprintf(&b, "owner: %q\n", prooftest.OwnerAddress.Hex())
	b.WriteString("signers:\n")
	for _, s := range signers {
		fmt.Fprintf(&b, "  - %q\n", s.Hex())
	}
	b.WriteString(extra)
	return []byte(b.String())
}

func TestParseDefaults(t *testing.T) {
	signer := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	cfg, err := Parse(yamlFor("self-describing", common.Address{}, []common.Address{signer}, ""))
	require.NoError(t, err)

	iv, kv, err := registry.AddressesForChain("C")
	require.NoError(t, err)
	require.Equal(t, DefaultChain, cfg.Chain)
	require.Equal(t, iv, cfg.InputVerifierAddress())
	require.Equal(t, kv, cfg.KMSVerifierAddress())
	require.Equal(t, uint32(DefaultThreshold), cfg.Threshold)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)

	cfg, err = Parse(yamlFor("native", common.Address{}, []common.Address{signer}, "chain: Z\nlogLevel: debug\n"))
	require.NoError(t, err)
	iv, _, err = registry.AddressesForChain("Z")
	require.NoError(t, err)
	require.Equal(t, iv, cfg.InputVerifierAddress())
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestParseErrors(t *testing.T) {
	a := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	b := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"missing variant", []byte("chainId: 1\n"), ErrMissingVariant},
		{"unknown variant", yamlFor("mixed", common.Address{}, []common.Address{a}, ""), proof.ErrUnknownVariant},
		{"no attester", yamlFor("direct-attestation", common.Address{}, []common.Address{a}, ""), ErrMissingAttester},
		{"no signers", yamlFor("self-describing", common.Address{}, nil, ""), ErrNoSigners},
		{"bad signer", yamlFor("self-describing", common.Address{}, nil, "  - \"0x1234\"\n"), ErrInvalidAddress},
		{"threshold too high", yamlFor("self-describing", common.Address{}, []common.Address{a, b}, "threshold: 3\n"), kms.ErrThresholdExceedsSigners},
		{"bad log level", yamlFor("self-describing", common.Address{}, []common.Address{a}, "logLevel: loud\n"), ErrInvalidLogLevel},
		{"unknown chain", yamlFor("self-describing", common.Address{}, []common.Address{a}, "chain: Q\n"), registry.ErrUnknownChain},
		{"zero owner", []byte("variant: native\nchainId: 1\nowner: \"0x0000000000000000000000000000000000000000\"\nsigners: [\"" + a.Hex() + "\"]\n"), ErrInvalidAddress},
		{"missing chain id", []byte("variant: native\nowner: \"" + a.Hex() + "\"\nsigners: [\"" + a.Hex() + "\"]\n"), ErrMissingChainID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			require.ErrorIs(t, err, tt.err)
		})
	}

	_, err := Parse([]byte("variant: [unterminated"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	signer := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	path := filepath.Join(t.TempDir(), "inputverifier.yaml")
	require.NoError(t, os.WriteFile(path, yamlFor("self-describing", common.Address{}, []common.Address{signer}, ""), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	addrs, err := cfg.SignerAddresses()
	require.NoError(t, err)
	require.Equal(t, []common.Address{signer}, addrs)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestAssembleSelfDescribing(t *testing.T) {
	signers := prooftest.NewSigners(t, 3)
	cfg, err := Parse(yamlFor("self-describing", common.Address{}, prooftest.Addresses(signers), "threshold: 2\n"))
	require.NoError(t, err)

	v, reg, err := cfg.Assemble(nil)
	require.NoError(t, err)
	require.Equal(t, proof.SelfDescribing, v.Variant())
	require.Equal(t, uint32(2), reg.GetThreshold())
	require.Equal(t, prooftest.OwnerAddress, reg.Owner())
	require.Equal(t, prooftest.KMSVerifierAddress, v.KMSVerifierAddress())

	builder := prooftest.NewBuilder(nil, signers[:2])
	env, buf := builder.SelfDescribing(t, []byte("assembled"), handle.TypeEuint16)
	ctx := verifier.Context{
		UserAddress:     prooftest.UserAddress,
		ContractAddress: prooftest.ContractAddress,
		ACLAddress:      prooftest.ACLAddress,
	}
	got, err := v.VerifyCiphertext(cache.NewScope(), ctx, env.Handles[0].Uint256(), buf)
	require.NoError(t, err)
	require.Equal(t, env.Handles[0].Uint256(), got)
}

func TestAssembleDirectAttestation(t *testing.T) {
	attester := prooftest.NewSigner(t)
	signers := prooftest.NewSigners(t, 1)
	cfg, err := Parse(yamlFor("coprocessor", attester.Address, prooftest.Addresses(signers), ""))
	require.NoError(t, err)

	v, _, err := cfg.Assemble(nil)
	require.NoError(t, err)
	require.Equal(t, proof.DirectAttestation, v.Variant())
	require.Equal(t, attester.Address, v.Attester())

	builder := prooftest.NewBuilder(attester, signers)
	hashCT := common.HexToHash("0xc0ffee")
	env, buf := builder.DirectAttestation(t, hashCT, prooftest.Handles(hashCT, handle.TypeEbool, handle.TypeEaddress))
	ctx := verifier.Context{
		UserAddress:     prooftest.UserAddress,
		ContractAddress: prooftest.ContractAddress,
		ACLAddress:      prooftest.ACLAddress,
	}
	got, err := v.VerifyCiphertext(nil, ctx, env.Handles[1].Uint256(), buf)
	require.NoError(t, err)
	require.Equal(t, env.Handles[1].Uint256(), got)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO", ""} {
		l, err := NewLogger(level)
		require.NoError(t, err, level)
		require.NotNil(t, l)
	}
	_, err := NewLogger("trace")
	require.ErrorIs(t, err, ErrInvalidLogLevel)
}
