// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package precompile

import (
	"github.com/luxfi/geth/common"

	"github.com/luxfi/inputverifier/kms"
	"github.com/luxfi/inputverifier/modules"
	"github.com/luxfi/inputverifier/verifier"
)

// Config keys of the verifier modules
const (
	InputVerifierConfigKey = "inputVerifierConfig"
	KMSVerifierConfigKey   = "kmsVerifierConfig"
)

// Modules returns the input verifier module at inputVerifierAddr and the
// KMS verifier module at the registry's own address.
func Modules(v *verifier.InputVerifier, r *kms.Registry, inputVerifierAddr common.Address) []modules.Module {
	return []modules.Module{
		{
			ConfigKey: InputVerifierConfigKey,
			Address:   inputVerifierAddr,
			Contract:  NewInputVerifierPrecompile(v),
		},
		{
			ConfigKey: KMSVerifierConfigKey,
			Address:   r.Address(),
			Contract:  NewKMSVerifierPrecompile(r),
		},
	}
}

// Register adds both verifier modules to reg.
func Register(reg *modules.Registry, v *verifier.InputVerifier, r *kms.Registry, inputVerifierAddr common.Address) error {
	for _, m := range Modules(v, r, inputVerifierAddr) {
		if err := reg.RegisterModule(m); err != nil {
			return err
		}
	}
	return nil
}
