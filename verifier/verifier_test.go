// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package verifier

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/inputverifier/cache"
	"github.com/luxfi/inputverifier/handle"
	"github.com/luxfi/inputverifier/internal/prooftest"
	"github.com/luxfi/inputverifier/kms"
	"github.com/luxfi/inputverifier/proof"
)

var testCtx = Context{
	UserAddress:     prooftest.UserAddress,
	ContractAddress: prooftest.ContractAddress,
	ACLAddress:      prooftest.ACLAddress,
}

type fixture struct {
	attester *prooftest.Signer
	signers  []*prooftest.Signer
	builder  *prooftest.Builder
	registry *kms.Registry
	counter  *prooftest.CountingRecoverer
	verifier *InputVerifier
	scope    *cache.Scope
}

func newFixture(t *testing.T, variant proof.Variant, numSigners int, threshold uint32) *fixture {
	t.Helper()
	f := &fixture{
		attester: prooftest.NewSigner(t),
		signers:  prooftest.NewSigners(t, numSigners),
		counter:  &prooftest.CountingRecoverer{},
		scope:    cache.NewScope(),
	}
	f.builder = prooftest.NewBuilder(f.attester, f.signers)

	var err error
	f.registry, err = kms.New(kms.Config{
		Owner:     prooftest.OwnerAddress,
		Signers:   prooftest.Addresses(f.signers),
		Threshold: threshold,
		Domain:    prooftest.KMSVerifierDomain,
		Recoverer: f.counter,
	})
	require.NoError(t, err)

	f.verifier, err = New(Config{
		Variant:   variant,
		Attester:  f.attester.Address,
		Domain:    prooftest.InputVerifierDomain,
		Recoverer: f.counter,
	}, f.registry)
	require.NoError(t, err)
	return f
}

func (f *fixture) verify(h handle.Handle, buf []byte) (*uint256.Int, error) {
	return f.verifier.VerifyCiphertext(f.scope, testCtx, h.Uint256(), buf)
}

func TestNewRejectsBadConfig(t *testing.T) {
	f := newFixture(t, proof.SelfDescribing, 1, 1)

	_, err := New(Config{Variant: proof.SelfDescribing}, nil)
	require.ErrorIs(t, err, ErrNilSigners)

	_, err = New(Config{Variant: proof.DirectAttestation}, f.registry)
	require.ErrorIs(t, err, ErrMissingAttester)

	_, err = New(Config{Variant: proof.Variant(7)}, f.registry)
	require.ErrorIs(t, err, proof.ErrUnknownVariant)
}

func TestRoundTripDirectAttestation(t *testing.T) {
	f := newFixture(t, proof.DirectAttestation, 3, 2)
	hashCT := common.HexToHash("0x0c0ffee0")
	handles := prooftest.Handles(hashCT, handle.TypeEbool, handle.TypeEuint8, handle.TypeEuint64, handle.TypeEaddress)
	_, buf := f.builder.DirectAttestation(t, hashCT, handles)

	for _, h := range handles {
		got, err := f.verify(h, buf)
		require.NoError(t, err)
		require.Equal(t, h.Uint256(), got)
	}
	require.Equal(t, 1, f.scope.Len())
}

func TestRoundTripSelfDescribing(t *testing.T) {
	f := newFixture(t, proof.SelfDescribing, 2, 2)
	env, buf := f.builder.SelfDescribing(t, []byte("three ciphertexts"), handle.TypeEuint16, handle.TypeEuint32, handle.TypeEbytes256)

	for i, h := range env.Handles {
		// fresh scope so every index is verified cold
		got, err := f.verifier.VerifyCiphertext(cache.NewScope(), testCtx, h.Uint256(), buf)
		require.NoError(t, err, "index %d", i)
		require.Equal(t, h.Uint256(), got)
	}
}

func TestIdempotentWithinScope(t *testing.T) {
	for _, variant := range []proof.Variant{proof.DirectAttestation, proof.SelfDescribing} {
		t.Run(variant.String(), func(t *testing.T) {
			f := newFixture(t, variant, 2, 2)

			var (
				env *proof.Envelope
				buf []byte
			)
			if variant == proof.DirectAttestation {
				hashCT := common.HexToHash("0x1d")
				env, buf = f.builder.DirectAttestation(t, hashCT, prooftest.Handles(hashCT, handle.TypeEuint8, handle.TypeEuint8))
			} else {
				env, buf = f.builder.SelfDescribing(t, []byte{1, 2, 3}, handle.TypeEuint8, handle.TypeEuint8)
			}

			first, err := f.verify(env.Handles[1], buf)
			require.NoError(t, err)
			require.NotZero(t, f.counter.Calls())
			require.True(t, f.verifier.IsCached(f.scope, testCtx, buf))

			f.counter.Reset()
			second, err := f.verify(env.Handles[1], buf)
			require.NoError(t, err)
			require.Equal(t, first, second)
			require.Zero(t, f.counter.Calls(), "cache hit must not recover signatures")

			// other handles of the same proof resolve from the cache too
			other, err := f.verify(env.Handles[0], buf)
			require.NoError(t, err)
			require.Equal(t, env.Handles[0].Uint256(), other)
			require.Zero(t, f.counter.Calls())

			stats := f.verifier.Stats()
			require.Equal(t, uint64(3), stats.Verifications)
			require.Equal(t, uint64(1), stats.CacheMisses)
			require.Equal(t, uint64(2), stats.CacheHits)
			require.Zero(t, stats.Failures)
		})
	}
}

func TestNilScopeDisablesCache(t *testing.T) {
	f := newFixture(t, proof.SelfDescribing, 1, 1)
	env, buf := f.builder.SelfDescribing(t, []byte{9}, handle.TypeEbool)

	for i := 0; i < 2; i++ {
		f.counter.Reset()
		_, err := f.verifier.VerifyCiphertext(nil, testCtx, env.Handles[0].Uint256(), buf)
		require.NoError(t, err)
		require.Equal(t, int64(1), f.counter.Calls())
	}
	require.False(t, f.verifier.IsCached(nil, testCtx, buf))
	require.Zero(t, f.verifier.CleanupScope(nil))
}

func TestCacheKeyCoversContext(t *testing.T) {
	f := newFixture(t, proof.SelfDescribing, 1, 1)
	env, buf := f.builder.SelfDescribing(t, []byte{4, 2}, handle.TypeEuint4)

	_, err := f.verify(env.Handles[0], buf)
	require.NoError(t, err)

	// same proof submitted by another user misses the cache and fails the
	// signature check, since the signers bound the original user
	other := testCtx
	other.UserAddress = common.HexToAddress("0xbad")
	_, err = f.verifier.VerifyCiphertext(f.scope, other, env.Handles[0].Uint256(), buf)
	require.ErrorIs(t, err, ErrQuorumNotMet)
}

func TestQuorumDuplicateSignature(t *testing.T) {
	f := newFixture(t, proof.SelfDescribing, 2, 2)
	ciphertext := []byte("dup")
	hashCT := common.BytesToHash(crypto.Keccak256(ciphertext))
	sig := f.signers[0].Sign(t, prooftest.KMSVerifierDomain, f.builder.SignerMessage(hashCT))

	env := &proof.Envelope{
		Variant:       proof.SelfDescribing,
		Handles:       prooftest.Handles(hashCT, handle.TypeEuint8),
		KMSSignatures: []proof.Signature{sig, sig},
		Ciphertext:    ciphertext,
	}
	buf, err := env.Bytes()
	require.NoError(t, err)

	_, err = f.verify(env.Handles[0], buf)
	require.ErrorIs(t, err, ErrQuorumNotMet)
	require.ErrorIs(t, err, proof.ErrAuthenticity)
	require.Zero(t, f.scope.Len(), "failure must not be cached")
	require.Equal(t, uint64(1), f.verifier.Stats().Failures)
}

func TestAttesterMismatch(t *testing.T) {
	f := newFixture(t, proof.DirectAttestation, 1, 1)
	hashCT := common.HexToHash("0xa77e57")
	handles := prooftest.Handles(hashCT, handle.TypeEuint8)

	impostor := prooftest.NewBuilder(prooftest.NewSigner(t), f.signers)
	_, buf := impostor.DirectAttestation(t, hashCT, handles)
	_, err := f.verify(handles[0], buf)
	require.ErrorIs(t, err, ErrAttesterMismatch)
	require.ErrorIs(t, err, proof.ErrAuthenticity)

	// attester signed a different handle list
	env, buf := f.builder.DirectAttestation(t, hashCT, handles)
	env.Handles = prooftest.Handles(hashCT, handle.TypeEuint16)
	buf, err = env.Bytes()
	require.NoError(t, err)
	_, err = f.verify(env.Handles[0], buf)
	require.ErrorIs(t, err, ErrAttesterMismatch)

	// malformed attester signature
	env, _ = f.builder.DirectAttestation(t, hashCT, handles)
	env.AttesterSignature = proof.Signature{}
	buf, err = env.Bytes()
	require.NoError(t, err)
	_, err = f.verify(handles[0], buf)
	require.ErrorIs(t, err, ErrAttesterMismatch)
}

func TestDirectAttestationQuorumNotMet(t *testing.T) {
	f := newFixture(t, proof.DirectAttestation, 2, 1)
	hashCT := common.HexToHash("0x51")
	handles := prooftest.Handles(hashCT, handle.TypeEuint8)

	outsiders := prooftest.NewBuilder(f.attester, prooftest.NewSigners(t, 2))
	_, buf := outsiders.DirectAttestation(t, hashCT, handles)
	_, err := f.verify(handles[0], buf)
	require.ErrorIs(t, err, ErrQuorumNotMet)

	none := prooftest.NewBuilder(f.attester, nil)
	_, buf = none.DirectAttestation(t, hashCT, handles)
	_, err = f.verify(handles[0], buf)
	require.ErrorIs(t, err, ErrQuorumNotMet)
}

func TestHandleMismatch(t *testing.T) {
	f := newFixture(t, proof.DirectAttestation, 1, 1)
	hashCT := common.HexToHash("0x4a")
	handles := prooftest.Handles(hashCT, handle.TypeEbool, handle.TypeEuint8)
	_, buf := f.builder.DirectAttestation(t, hashCT, handles)

	wrong := handles[1].WithType(handle.TypeEuint64)
	_, err := f.verify(wrong, buf)
	require.ErrorIs(t, err, ErrHandleMismatch)
	require.ErrorIs(t, err, proof.ErrIntegrity)
	require.Zero(t, f.scope.Len())

	// populate the cache, then ask for a handle the proof does not carry
	_, err = f.verify(handles[1], buf)
	require.NoError(t, err)
	f.counter.Reset()
	_, err = f.verify(wrong, buf)
	require.ErrorIs(t, err, ErrHandleMismatch)
	require.Zero(t, f.counter.Calls())
}

func TestSelfDescribingTamperDetection(t *testing.T) {
	f := newFixture(t, proof.SelfDescribing, 1, 1)
	ciphertext := []byte("tamper evident ciphertext bundle")
	env, _ := f.builder.SelfDescribing(t, ciphertext, handle.TypeEuint8, handle.TypeEuint32)

	for _, bit := range []int{0, 7, 8, 100, len(ciphertext)*8 - 1} {
		tampered := append([]byte{}, ciphertext...)
		tampered[bit/8] ^= 1 << (bit % 8)
		hashCT := common.BytesToHash(crypto.Keccak256(tampered))

		// signers vouch for the tampered bundle; the handles no longer match it
		forged := &proof.Envelope{
			Variant:       proof.SelfDescribing,
			Handles:       env.Handles,
			KMSSignatures: f.builder.SignKMS(t, hashCT),
			Ciphertext:    tampered,
		}
		buf, err := forged.Bytes()
		require.NoError(t, err)

		for i, h := range env.Handles {
			_, err := f.verifier.VerifyCiphertext(cache.NewScope(), testCtx, h.Uint256(), buf)
			require.ErrorIs(t, err, ErrIntegrityMismatch, "bit %d handle %d", bit, i)
			require.ErrorIs(t, err, proof.ErrIntegrity)
		}
	}
}

func TestSelfDescribingTypeByteNotBound(t *testing.T) {
	f := newFixture(t, proof.SelfDescribing, 1, 1)
	_, buf := f.builder.SelfDescribing(t, []byte("bundle"), handle.TypeEuint8, handle.TypeEuint8)

	// rewrite the type byte of handle 1 after signing
	offset := proof.HandlesOffset(proof.SelfDescribing) + handle.Size + handle.TypeOffset
	buf[offset] = 0xee

	coerced, err := proof.ExtractHandle(buf, proof.SelfDescribing, 1)
	require.NoError(t, err)
	require.Equal(t, handle.Type(0xee), coerced.Type())

	got, err := f.verify(coerced, buf)
	require.NoError(t, err)
	require.Equal(t, coerced.Uint256(), got)
}

func TestSelfDescribingSerializedIndex(t *testing.T) {
	f := newFixture(t, proof.SelfDescribing, 1, 1)
	ciphertext := []byte("index")
	hashCT := common.BytesToHash(crypto.Keccak256(ciphertext))
	handles := prooftest.Handles(hashCT, handle.TypeEuint8, handle.TypeEuint8)
	handles[1][handle.IndexOffset] = 0

	env := &proof.Envelope{
		Variant:       proof.SelfDescribing,
		Handles:       handles,
		KMSSignatures: f.builder.SignKMS(t, hashCT),
		Ciphertext:    ciphertext,
	}
	buf, err := env.Bytes()
	require.NoError(t, err)

	_, err = f.verify(handles[0], buf)
	require.ErrorIs(t, err, ErrSerializedIndexMismatch)
}

func TestHandleVersionRejected(t *testing.T) {
	f := newFixture(t, proof.DirectAttestation, 1, 1)
	hashCT := common.HexToHash("0x7e")
	handles := prooftest.Handles(hashCT, handle.TypeEuint8, handle.TypeEuint8)
	handles[1][handle.VersionOffset] = 1
	_, buf := f.builder.DirectAttestation(t, hashCT, handles)

	_, err := f.verify(handles[0], buf)
	require.ErrorIs(t, err, proof.ErrInvalidHandleVersion)
	require.ErrorIs(t, err, proof.ErrVersion)
}

func TestBoundaries(t *testing.T) {
	f := newFixture(t, proof.SelfDescribing, 1, 1)
	env, buf := f.builder.SelfDescribing(t, []byte("edge"), handle.TypeEuint8, handle.TypeEuint8, handle.TypeEuint8)

	last := env.Handles[2]
	got, err := f.verify(last, buf)
	require.NoError(t, err)
	require.Equal(t, last.Uint256(), got)

	beyond := last
	beyond[handle.IndexOffset] = 3
	_, err = f.verifier.VerifyCiphertext(cache.NewScope(), testCtx, beyond.Uint256(), buf)
	require.ErrorIs(t, err, proof.ErrInvalidIndex)

	// also on the cached path
	_, err = f.verify(beyond, buf)
	require.ErrorIs(t, err, proof.ErrIndex)

	zero := append([]byte{0, 0}, make([]byte, 40)...)
	_, err = f.verifier.VerifyCiphertext(cache.NewScope(), testCtx, new(uint256.Int), zero)
	require.ErrorIs(t, err, proof.ErrInvalidIndex)

	_, err = f.verifier.VerifyCiphertext(cache.NewScope(), testCtx, new(uint256.Int), nil)
	require.ErrorIs(t, err, proof.ErrEmptyProof)
	require.ErrorIs(t, err, proof.ErrFormat)

	_, err = f.verifier.VerifyCiphertext(cache.NewScope(), testCtx, env.Handles[0].Uint256(), buf[:2+3*32+65])
	require.ErrorIs(t, err, proof.ErrLengthMismatch)
}

func TestDirectAttestationTwoHandlesTwoSigners(t *testing.T) {
	f := newFixture(t, proof.DirectAttestation, 2, 1)
	hashCT := common.BytesToHash(crypto.Keccak256([]byte("attested ciphertexts")))
	handles := prooftest.Handles(hashCT, handle.TypeEbool, handle.TypeEuint8)
	_, buf := f.builder.DirectAttestation(t, hashCT, handles)

	require.Len(t, buf, 99+32*2+65*2)
	require.Equal(t, []byte{0x02, 0x02}, buf[:2])
	require.Equal(t, hashCT.Bytes(), buf[2:34])
	require.Equal(t, handles[0][:], buf[34:66])
	require.Equal(t, handles[1][:], buf[66:98])
	require.Equal(t, handle.TypeEbool, handles[0].Type())
	require.Equal(t, uint8(1), handles[1].Index())

	got, err := f.verify(handles[0], buf)
	require.NoError(t, err)
	require.Equal(t, handles[0].Uint256(), got)

	atTwo := handles[0]
	atTwo[handle.IndexOffset] = 2
	_, err = f.verifier.VerifyCiphertext(cache.NewScope(), testCtx, atTwo.Uint256(), buf)
	require.ErrorIs(t, err, proof.ErrInvalidIndex)
}

func TestCacheInvalidationAfterSignerRemoval(t *testing.T) {
	f := newFixture(t, proof.SelfDescribing, 2, 1)

	// only signer 0 signs
	b := prooftest.NewBuilder(nil, f.signers[:1])
	env, buf := b.SelfDescribing(t, []byte("rotating"), handle.TypeEuint64)

	_, err := f.verify(env.Handles[0], buf)
	require.NoError(t, err)

	require.NoError(t, f.registry.RemoveSigner(prooftest.OwnerAddress, f.signers[0].Address))

	// still memoized inside the same scope
	f.counter.Reset()
	_, err = f.verify(env.Handles[0], buf)
	require.NoError(t, err)
	require.Zero(t, f.counter.Calls())

	require.Equal(t, 1, f.verifier.CleanupScope(f.scope))
	require.False(t, f.verifier.IsCached(f.scope, testCtx, buf))

	_, err = f.verify(env.Handles[0], buf)
	require.ErrorIs(t, err, ErrQuorumNotMet)
	require.NotZero(t, f.counter.Calls())
}

func TestGetters(t *testing.T) {
	f := newFixture(t, proof.DirectAttestation, 1, 1)
	require.Equal(t, Version, f.verifier.Version())
	require.Equal(t, f.attester.Address, f.verifier.Attester())
	require.Equal(t, prooftest.KMSVerifierAddress, f.verifier.KMSVerifierAddress())
	require.Equal(t, proof.DirectAttestation, f.verifier.Variant())
	require.Len(t, Fingerprint([]byte("x")), 16)

	f = newFixture(t, proof.SelfDescribing, 1, 1)
	require.Equal(t, common.Address{}, f.verifier.Attester())
}
