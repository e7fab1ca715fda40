// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package verifier authenticates encrypted inputs: it checks that a handle is
// backed by a signed input proof and returns the trusted handle value.
package verifier

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/zeebo/blake3"

	"github.com/luxfi/inputverifier/cache"
	"github.com/luxfi/inputverifier/eip712"
	"github.com/luxfi/inputverifier/handle"
	"github.com/luxfi/inputverifier/proof"
)

// Version is reported by the verifier's getVersion entry point.
const Version = "InputVerifier v0.1.0"

// Context identifies who submitted an input and for which contract.
type Context struct {
	UserAddress     common.Address
	ContractAddress common.Address
	ACLAddress      common.Address
}

// QuorumVerifier is the KMS signer registry as seen by the verifier.
type QuorumVerifier interface {
	VerifyQuorum(msg eip712.Message, sigs [][]byte) bool
	Address() common.Address
}

// Config configures an InputVerifier.
type Config struct {
	Variant proof.Variant

	// DirectAttestation only
	Attester common.Address
	Domain   eip712.Domain

	// Recoverer defaults to eip712.ECDSARecoverer.
	Recoverer eip712.Recoverer
	Logger    log.Logger
}

// Stats are cumulative counters since construction.
type Stats struct {
	Verifications uint64
	CacheHits     uint64
	CacheMisses   uint64
	Failures      uint64
}

// InputVerifier verifies input proofs of one configured variant.
type InputVerifier struct {
	variant  proof.Variant
	strategy strategy
	signers  QuorumVerifier
	attester common.Address
	log      log.Logger

	stats   Stats
	statsMu sync.Mutex
}

// New creates a verifier that checks KMS quorums against signers.
func New(cfg Config, signers QuorumVerifier) (*InputVerifier, error) {
	if signers == nil {
		return nil, ErrNilSigners
	}
	recoverer := cfg.Recoverer
	if recoverer == nil {
		recoverer = eip712.ECDSARecoverer{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewTestLogger(log.InfoLevel)
	}

	v := &InputVerifier{
		variant: cfg.Variant,
		signers: signers,
		log:     logger,
	}
	switch cfg.Variant {
	case proof.DirectAttestation:
		if cfg.Attester == (common.Address{}) {
			return nil, ErrMissingAttester
		}
		v.attester = cfg.Attester
		v.strategy = &directAttestation{
			attester:  cfg.Attester,
			domain:    cfg.Domain,
			recoverer: recoverer,
			signers:   signers,
		}
	case proof.SelfDescribing:
		v.strategy = &selfDescribing{signers: signers}
	default:
		return nil, fmt.Errorf("%w: %s", proof.ErrUnknownVariant, cfg.Variant)
	}
	return v, nil
}

// VerifyCiphertext checks inputProof for inputHandle and returns the handle
// value the proof commits to. Successful results are memoized in scope; a
// nil scope disables memoization. Nothing is recorded on failure.
func (v *InputVerifier) VerifyCiphertext(scope *cache.Scope, ctx Context, inputHandle *uint256.Int, inputProof []byte) (*uint256.Int, error) {
	input := handle.FromUint256(inputHandle)
	result, hit, err := v.verify(scope, ctx, input, inputProof)

	v.statsMu.Lock()
	v.stats.Verifications++
	switch {
	case err != nil:
		v.stats.Failures++
	case hit:
		v.stats.CacheHits++
	default:
		v.stats.CacheMisses++
	}
	v.statsMu.Unlock()

	if err != nil {
		v.log.Warn("Input verification failed",
			log.String("handle", input.Hex()),
			log.String("proof", Fingerprint(inputProof)),
			log.String("user", ctx.UserAddress.Hex()),
			log.String("contract", ctx.ContractAddress.Hex()),
			log.String("error", err.Error()),
		)
		return nil, err
	}

	v.log.Debug("Input verified",
		log.String("handle", input.Hex()),
		log.String("proof", Fingerprint(inputProof)),
		log.Int("proofLen", len(inputProof)),
		log.String("cached", fmt.Sprint(hit)),
	)
	return result.Uint256(), nil
}

func (v *InputVerifier) verify(scope *cache.Scope, ctx Context, input handle.Handle, inputProof []byte) (handle.Handle, bool, error) {
	index := input.Index()
	key := cache.KeyFor(ctx.ContractAddress, ctx.ACLAddress, ctx.UserAddress, inputProof)

	if scope != nil && scope.Contains(key) {
		cached, err := proof.ExtractHandle(inputProof, v.variant, index)
		if err != nil {
			return handle.Handle{}, true, err
		}
		if cached != input {
			return handle.Handle{}, true, fmt.Errorf("%w: got %s, proof has %s at index %d", ErrHandleMismatch, input, cached, index)
		}
		return cached, true, nil
	}

	header, err := proof.ReadHeader(inputProof)
	if err != nil {
		return handle.Handle{}, false, err
	}
	if err := proof.CheckIndex(header, index); err != nil {
		return handle.Handle{}, false, err
	}
	env, err := proof.Parse(inputProof, v.variant)
	if err != nil {
		return handle.Handle{}, false, err
	}

	result, err := v.strategy.verify(env, ctx, index, input)
	if err != nil {
		return handle.Handle{}, false, err
	}

	if scope != nil {
		scope.Mark(key)
	}
	return result, false, nil
}

// IsCached reports whether (ctx, inputProof) already verified in scope.
func (v *InputVerifier) IsCached(scope *cache.Scope, ctx Context, inputProof []byte) bool {
	if scope == nil {
		return false
	}
	return scope.Contains(cache.KeyFor(ctx.ContractAddress, ctx.ACLAddress, ctx.UserAddress, inputProof))
}

// CleanupScope drops every verification recorded in scope.
func (v *InputVerifier) CleanupScope(scope *cache.Scope) int {
	if scope == nil {
		return 0
	}
	n := scope.Cleanup()
	if n > 0 {
		v.log.Debug("Cleared input verification cache", log.Int("entries", n))
	}
	return n
}

func (v *InputVerifier) Stats() Stats {
	v.statsMu.Lock()
	defer v.statsMu.Unlock()
	return v.stats
}

func (v *InputVerifier) Variant() proof.Variant { return v.variant }

// Attester returns the configured attester, zero for SelfDescribing.
func (v *InputVerifier) Attester() common.Address { return v.attester }

// KMSVerifierAddress returns the address of the injected signer registry.
func (v *InputVerifier) KMSVerifierAddress() common.Address { return v.signers.Address() }

func (v *InputVerifier) Version() string { return Version }

// Fingerprint returns a short BLAKE3 digest of a proof for log correlation.
func Fingerprint(inputProof []byte) string {
	sum := blake3.Sum256(inputProof)
	return hex.EncodeToString(sum[:8])
}
