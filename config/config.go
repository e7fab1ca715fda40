// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the YAML deployment configuration of the verifier
// precompiles and assembles the signer registry and input verifier from it.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"gopkg.in/yaml.v3"

	"github.com/luxfi/inputverifier/eip712"
	"github.com/luxfi/inputverifier/kms"
	"github.com/luxfi/inputverifier/proof"
	"github.com/luxfi/inputverifier/registry"
	"github.com/luxfi/inputverifier/verifier"
)

// Defaults applied to omitted fields
const (
	DefaultChain     = "C"
	DefaultThreshold = 1
	DefaultLogLevel  = "info"
)

var (
	ErrMissingVariant  = errors.New("variant is required")
	ErrMissingChainID  = errors.New("chainId is required")
	ErrInvalidAddress  = errors.New("invalid address")
	ErrMissingAttester = errors.New("attester is required for direct-attestation")
	ErrMissingOwner    = errors.New("owner is required")
	ErrNoSigners       = errors.New("at least one signer is required")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config is the on-disk deployment configuration.
type Config struct {
	Variant       string   `yaml:"variant"`
	ChainID       uint64   `yaml:"chainId"`
	Chain         string   `yaml:"chain"`
	InputVerifier string   `yaml:"inputVerifier"`
	KMSVerifier   string   `yaml:"kmsVerifier"`
	Attester      string   `yaml:"attester"`
	Owner         string   `yaml:"owner"`
	Signers       []string `yaml:"signers"`
	Threshold     uint32   `yaml:"threshold"`
	LogLevel      string   `yaml:"logLevel"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills in the chain, the precompile addresses of that chain,
// the threshold and the log level when they are omitted.
func (c *Config) ApplyDefaults() error {
	if c.Chain == "" {
		c.Chain = DefaultChain
	}
	if c.InputVerifier == "" || c.KMSVerifier == "" {
		iv, kv, err := registry.AddressesForChain(c.Chain)
		if err != nil {
			return err
		}
		if c.InputVerifier == "" {
			c.InputVerifier = iv.Hex()
		}
		if c.KMSVerifier == "" {
			c.KMSVerifier = kv.Hex()
		}
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return nil
}

// Validate checks the configuration without building anything.
func (c *Config) Validate() error {
	if c.Variant == "" {
		return ErrMissingVariant
	}
	variant, err := proof.ParseVariant(c.Variant)
	if err != nil {
		return err
	}
	if c.ChainID == 0 {
		return ErrMissingChainID
	}
	if _, err := parseAddress("inputVerifier", c.InputVerifier); err != nil {
		return err
	}
	if _, err := parseAddress("kmsVerifier", c.KMSVerifier); err != nil {
		return err
	}
	if variant == proof.DirectAttestation && c.Attester == "" {
		return ErrMissingAttester
	}
	if c.Attester != "" {
		if _, err := parseAddress("attester", c.Attester); err != nil {
			return err
		}
	}
	if c.Owner == "" {
		return ErrMissingOwner
	}
	if _, err := parseAddress("owner", c.Owner); err != nil {
		return err
	}
	if len(c.Signers) == 0 {
		return ErrNoSigners
	}
	if _, err := c.SignerAddresses(); err != nil {
		return err
	}
	if c.Threshold < 1 {
		return kms.ErrInvalidThreshold
	}
	if int(c.Threshold) > len(c.Signers) {
		return fmt.Errorf("%w: %d > %d", kms.ErrThresholdExceedsSigners, c.Threshold, len(c.Signers))
	}
	if _, err := NewLogger(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SignerAddresses returns the configured KMS signers.
func (c *Config) SignerAddresses() ([]common.Address, error) {
	out := make([]common.Address, 0, len(c.Signers))
	for i, s := range c.Signers {
		addr, err := parseAddress(fmt.Sprintf("signers[%d]", i), s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// InputVerifierAddress returns the input verifier precompile address.
func (c *Config) InputVerifierAddress() common.Address {
	return common.HexToAddress(c.InputVerifier)
}

// KMSVerifierAddress returns the KMS verifier precompile address.
func (c *Config) KMSVerifierAddress() common.Address {
	return common.HexToAddress(c.KMSVerifier)
}

// Logger returns a logger at the configured level.
func (c *Config) Logger() (log.Logger, error) {
	return NewLogger(c.LogLevel)
}

// Assemble builds the signer registry and the input verifier that checks
// quorums against it. A nil logger selects one at the configured level.
func (c *Config) Assemble(logger log.Logger) (*verifier.InputVerifier, *kms.Registry, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	if logger == nil {
		l, err := c.Logger()
		if err != nil {
			return nil, nil, err
		}
		logger = l
	}

	variant, err := proof.ParseVariant(c.Variant)
	if err != nil {
		return nil, nil, err
	}
	signers, err := c.SignerAddresses()
	if err != nil {
		return nil, nil, err
	}
	chainID := new(big.Int).SetUint64(c.ChainID)

	reg, err := kms.New(kms.Config{
		Owner:     common.HexToAddress(c.Owner),
		Signers:   signers,
		Threshold: c.Threshold,
		Domain:    eip712.NewKMSVerifierDomain(chainID, c.KMSVerifierAddress()),
		Logger:    logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create KMS registry: %w", err)
	}

	v, err := verifier.New(verifier.Config{
		Variant:  variant,
		Attester: common.HexToAddress(c.Attester),
		Domain:   eip712.NewInputVerifierDomain(chainID, c.InputVerifierAddress()),
		Logger:   logger,
	}, reg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create input verifier: %w", err)
	}
	return v, reg, nil
}

// NewLogger returns a logger at level, one of debug, info, warn or error.
func NewLogger(level string) (log.Logger, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.NewTestLogger(log.DebugLevel), nil
	case "info", "":
		return log.NewTestLogger(log.InfoLevel), nil
	case "warn", "warning":
		return log.NewTestLogger(log.WarnLevel), nil
	case "error":
		return log.NewTestLogger(log.ErrorLevel), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %s %q", ErrInvalidAddress, field, s)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s is the zero address", ErrInvalidAddress, field)
	}
	return addr, nil
}
