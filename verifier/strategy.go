// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package verifier

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/inputverifier/eip712"
	"github.com/luxfi/inputverifier/handle"
	"github.com/luxfi/inputverifier/proof"
)

// strategy checks a parsed envelope under one trust model and returns the
// resolved handle at index.
type strategy interface {
	verify(env *proof.Envelope, ctx Context, index uint8, input handle.Handle) (handle.Handle, error)
}

func signerMessage(env *proof.Envelope, ctx Context) eip712.SignerMessage {
	return eip712.SignerMessage{
		ACLAddress:       ctx.ACLAddress,
		HashOfCiphertext: env.HashOfCiphertext,
		UserAddress:      ctx.UserAddress,
		ContractAddress:  ctx.ContractAddress,
	}
}

func resolve(env *proof.Envelope, index uint8, input handle.Handle) (handle.Handle, error) {
	result := env.Handles[index]
	if result != input {
		return handle.Handle{}, fmt.Errorf("%w: got %s, proof has %s at index %d", ErrHandleMismatch, input, result, index)
	}
	return result, nil
}

// directAttestation trusts the transmitted ciphertext hash once the attester
// and a KMS quorum have signed it.
type directAttestation struct {
	attester  common.Address
	domain    eip712.Domain
	recoverer eip712.Recoverer
	signers   QuorumVerifier
}

func (d *directAttestation) verify(env *proof.Envelope, ctx Context, index uint8, input handle.Handle) (handle.Handle, error) {
	list := make([]common.Hash, len(env.Handles))
	for i, h := range env.Handles {
		list[i] = h.Hash()
	}
	msg := eip712.AttesterMessage{
		ACLAddress:       ctx.ACLAddress,
		HashOfCiphertext: env.HashOfCiphertext,
		Handles:          list,
		UserAddress:      ctx.UserAddress,
		ContractAddress:  ctx.ContractAddress,
	}
	signer, err := eip712.RecoverSigner(d.recoverer, d.domain, msg, env.AttesterSignature.Bytes())
	if err != nil {
		return handle.Handle{}, fmt.Errorf("%w: %v", ErrAttesterMismatch, err)
	}
	if signer != d.attester {
		return handle.Handle{}, fmt.Errorf("%w: recovered %s", ErrAttesterMismatch, signer.Hex())
	}

	if !d.signers.VerifyQuorum(signerMessage(env, ctx), env.KMSSignatureBytes()) {
		return handle.Handle{}, ErrQuorumNotMet
	}
	return resolve(env, index, input)
}

// selfDescribing recomputes every handle from the trailing ciphertext bundle.
type selfDescribing struct {
	signers QuorumVerifier
}

func (s *selfDescribing) verify(env *proof.Envelope, ctx Context, index uint8, input handle.Handle) (handle.Handle, error) {
	if !s.signers.VerifyQuorum(signerMessage(env, ctx), env.KMSSignatureBytes()) {
		return handle.Handle{}, ErrQuorumNotMet
	}

	for i, h := range env.Handles {
		if h.Index() != uint8(i) {
			return handle.Handle{}, fmt.Errorf("%w: handle %d carries index %d", ErrSerializedIndexMismatch, i, h.Index())
		}
		// type byte is not bound to the ciphertext
		if !handle.MatchesIgnoringType(h, handle.Recompute(env.HashOfCiphertext, uint8(i))) {
			return handle.Handle{}, fmt.Errorf("%w: handle %d", ErrIntegrityMismatch, i)
		}
	}
	return resolve(env, index, input)
}
