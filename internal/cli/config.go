// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"
	"github.com/urfave/cli/v2"

	"github.com/luxfi/inputverifier/config"
)

type Config struct {
	ConfigFile string
	LogLevel   string
	Logger     log.Logger
}

// NewConfigFromCLI reads the global flags. An unknown log level falls back
// to info.
func NewConfigFromCLI(c *cli.Context) *Config {
	cfg := &Config{
		ConfigFile: c.String(ConfigFileFlag.Name),
		LogLevel:   c.String(LogLevelFlag.Name),
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		logger, _ = config.NewLogger(config.DefaultLogLevel)
	}
	cfg.Logger = logger
	return cfg
}

// decodeHex accepts input with or without the 0x prefix.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

func readProof(c *cli.Context) ([]byte, error) {
	raw := c.String(ProofFlag.Name)
	if path := c.String(ProofFileFlag.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read proof file: %w", err)
		}
		raw = string(data)
	}
	if raw == "" {
		return nil, fmt.Errorf("one of --%s or --%s is required", ProofFlag.Name, ProofFileFlag.Name)
	}
	proofBytes, err := decodeHex(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode proof: %w", err)
	}
	return proofBytes, nil
}

func readHandle(s string) ([32]byte, error) {
	b, err := decodeHex(s)
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to decode handle: %w", err)
	}
	if len(b) != 32 {
		return [32]byte{}, fmt.Errorf("handle must be 32 bytes, got %d", len(b))
	}
	var h [32]byte
	copy(h[:], b)
	return h, nil
}

func readAddress(c *cli.Context, flag *cli.StringFlag) (common.Address, error) {
	s := c.String(flag.Name)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid --%s address %q", flag.Name, s)
	}
	return common.HexToAddress(s), nil
}
