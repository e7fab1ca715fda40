// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package kms maintains the authorized KMS signer set and its quorum
// threshold.
package kms

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/luxfi/inputverifier/eip712"
)

// Version is reported by the registry's getVersion entry point.
const Version = "KMSVerifier v0.1.0"

var (
	ErrNotOwner                = errors.New("caller is not the owner")
	ErrNotPendingOwner         = errors.New("caller is not the pending owner")
	ErrAlreadySigner           = errors.New("address is already a signer")
	ErrNotSigner               = errors.New("address is not a signer")
	ErrZeroAddress             = errors.New("zero address")
	ErrInvalidThreshold        = errors.New("threshold must be at least 1")
	ErrThresholdExceedsSigners = errors.New("threshold exceeds number of signers")
)

// Config configures a Registry.
type Config struct {
	Owner     common.Address
	Signers   []common.Address
	Threshold uint32

	// Domain signer signatures are bound to.
	Domain eip712.Domain

	// Recoverer defaults to eip712.ECDSARecoverer.
	Recoverer eip712.Recoverer
	Logger    log.Logger
}

// Registry is the owner-gated KMS signer set.
// Every read sees the state left by the last completed mutation.
type Registry struct {
	owner        common.Address
	pendingOwner common.Address

	signers   []common.Address // insertion order
	isSigner  map[common.Address]bool
	threshold uint32

	domain    eip712.Domain
	recoverer eip712.Recoverer
	log       log.Logger

	mu sync.RWMutex
}

// New creates a registry. The initial signer set must be non-empty, free of
// duplicates and zero addresses, and 1 <= threshold <= len(signers).
func New(cfg Config) (*Registry, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: owner", ErrZeroAddress)
	}
	r := &Registry{
		owner:     cfg.Owner,
		isSigner:  make(map[common.Address]bool, len(cfg.Signers)),
		domain:    cfg.Domain,
		recoverer: cfg.Recoverer,
		log:       cfg.Logger,
	}
	if r.recoverer == nil {
		r.recoverer = eip712.ECDSARecoverer{}
	}
	if r.log == nil {
		r.log = log.NewTestLogger(log.InfoLevel)
	}

	for _, s := range cfg.Signers {
		if err := r.addSigner(s); err != nil {
			return nil, err
		}
	}
	if err := r.checkThreshold(cfg.Threshold, len(r.signers)); err != nil {
		return nil, err
	}
	r.threshold = cfg.Threshold
	return r, nil
}

func (r *Registry) checkThreshold(threshold uint32, numSigners int) error {
	if threshold == 0 {
		return ErrInvalidThreshold
	}
	if int(threshold) > numSigners {
		return fmt.Errorf("%w: %d > %d", ErrThresholdExceedsSigners, threshold, numSigners)
	}
	return nil
}

func (r *Registry) onlyOwner(caller common.Address) error {
	if caller != r.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller.Hex())
	}
	return nil
}

func (r *Registry) addSigner(signer common.Address) error {
	if signer == (common.Address{}) {
		return fmt.Errorf("%w: signer", ErrZeroAddress)
	}
	if r.isSigner[signer] {
		return fmt.Errorf("%w: %s", ErrAlreadySigner, signer.Hex())
	}
	r.isSigner[signer] = true
	r.signers = append(r.signers, signer)
	return nil
}

// AddSigner adds signer to the authorized set.
func (r *Registry) AddSigner(caller, signer common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.onlyOwner(caller); err != nil {
		return err
	}
	if err := r.addSigner(signer); err != nil {
		return err
	}

	r.log.Info("KMS signer added",
		log.String("signer", signer.Hex()),
		log.Int("signers", len(r.signers)),
	)
	return nil
}

// RemoveSigner removes signer. It fails rather than leave the threshold above
// the remaining number of signers.
func (r *Registry) RemoveSigner(caller, signer common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.onlyOwner(caller); err != nil {
		return err
	}
	if !r.isSigner[signer] {
		return fmt.Errorf("%w: %s", ErrNotSigner, signer.Hex())
	}
	if err := r.checkThreshold(r.threshold, len(r.signers)-1); err != nil {
		return err
	}

	delete(r.isSigner, signer)
	kept := make([]common.Address, 0, len(r.signers)-1)
	for _, s := range r.signers {
		if s != signer {
			kept = append(kept, s)
		}
	}
	r.signers = kept

	r.log.Info("KMS signer removed",
		log.String("signer", signer.Hex()),
		log.Int("signers", len(r.signers)),
	)
	return nil
}

// SetThreshold sets the quorum threshold.
func (r *Registry) SetThreshold(caller common.Address, threshold uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.onlyOwner(caller); err != nil {
		return err
	}
	if err := r.checkThreshold(threshold, len(r.signers)); err != nil {
		return err
	}
	r.threshold = threshold

	r.log.Info("KMS threshold updated", log.Int("threshold", int(threshold)))
	return nil
}

// TransferOwnership starts a two-step ownership transfer. The zero address
// cancels a pending transfer.
func (r *Registry) TransferOwnership(caller, newOwner common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.onlyOwner(caller); err != nil {
		return err
	}
	r.pendingOwner = newOwner

	r.log.Info("KMS ownership transfer started",
		log.String("owner", r.owner.Hex()),
		log.String("pendingOwner", newOwner.Hex()),
	)
	return nil
}

// AcceptOwnership completes a transfer started by TransferOwnership.
func (r *Registry) AcceptOwnership(caller common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pendingOwner == (common.Address{}) || caller != r.pendingOwner {
		return fmt.Errorf("%w: %s", ErrNotPendingOwner, caller.Hex())
	}
	previous := r.owner
	r.owner = caller
	r.pendingOwner = common.Address{}

	r.log.Info("KMS ownership transferred",
		log.String("previousOwner", previous.Hex()),
		log.String("owner", caller.Hex()),
	)
	return nil
}

// GetSigners returns a copy of the signer list in insertion order.
func (r *Registry) GetSigners() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]common.Address, len(r.signers))
	copy(out, r.signers)
	return out
}

func (r *Registry) GetThreshold() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.threshold
}

func (r *Registry) IsSigner(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isSigner[addr]
}

func (r *Registry) Owner() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

func (r *Registry) PendingOwner() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pendingOwner
}

// Domain returns the EIP-712 domain signer signatures are checked against.
func (r *Registry) Domain() eip712.Domain {
	return r.domain
}

// Address returns the registry's verifying contract address.
func (r *Registry) Address() common.Address {
	return r.domain.VerifyingContract
}

func (r *Registry) Version() string {
	return Version
}
