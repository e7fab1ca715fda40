// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cache memoizes successful input verifications for one logical unit
// of work, such as a single transaction.
package cache

import (
	"sync"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// KeyFor returns keccak256(caller ++ acl ++ user ++ proof), packed without padding.
func KeyFor(caller, acl, user common.Address, proof []byte) common.Hash {
	return common.BytesToHash(crypto.Keccak256(caller[:], acl[:], user[:], proof))
}

// Scope is the set of verification keys recorded since the last Cleanup.
// The owner of the unit of work must call Cleanup at its boundary.
type Scope struct {
	present map[common.Hash]struct{}
	keys    []common.Hash

	mu sync.RWMutex
}

func NewScope() *Scope {
	return &Scope{present: make(map[common.Hash]struct{})}
}

// Contains reports whether key was marked in this scope.
func (s *Scope) Contains(key common.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.present[key]
	return ok
}

// Mark records key. Marking an existing key is a no-op.
func (s *Scope) Mark(key common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.present[key]; ok {
		return
	}
	s.present[key] = struct{}{}
	s.keys = append(s.keys, key)
}

// Cleanup forgets every key recorded in this scope and returns how many were
// dropped. It walks only the recorded keys.
func (s *Scope) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.keys)
	for _, k := range s.keys {
		delete(s.present, k)
	}
	s.keys = s.keys[:0]
	return n
}

// Len returns the number of recorded keys.
func (s *Scope) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Keys returns the recorded keys in insertion order.
func (s *Scope) Keys() []common.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Hash, len(s.keys))
	copy(out, s.keys)
	return out
}
