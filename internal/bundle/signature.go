package bundle

import (
	"fmt"
	"os"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
)

// SignatureOutcome records the result of an optional detached-signature check
// performed during a sync, reported in the sync report but never used to
// reject an unsigned bundle — signing is opt-in per deployment.
type SignatureOutcome string

const (
	SignatureNotConfigured SignatureOutcome = "NOT_CONFIGURED" // no trusted keyring supplied
	SignatureUnsigned      SignatureOutcome = "UNSIGNED"       // keyring configured, no .sig file present
	SignatureVerified      SignatureOutcome = "VERIFIED"
	SignatureFailed        SignatureOutcome = "FAILED"
)

// Keyring wraps a set of trusted public keys loaded from armored files on
// disk, used to verify a bundle's optional detached signature.
type Keyring struct {
	ring *crypto.KeyRing
}

// LoadKeyring reads each armored public key file named in paths into a
// single trusted keyring.
func LoadKeyring(paths []string) (*Keyring, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("bundle: no keyring paths supplied")
	}

	var ring *crypto.KeyRing
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("bundle: read key %s: %w", p, err)
		}
		key, err := crypto.NewKeyFromArmored(string(data))
		if err != nil {
			return nil, fmt.Errorf("bundle: parse key %s: %w", p, err)
		}
		if i == 0 {
			ring, err = crypto.NewKeyRing(key)
			if err != nil {
				return nil, fmt.Errorf("bundle: init keyring: %w", err)
			}
			continue
		}
		if err := ring.AddKey(key); err != nil {
			return nil, fmt.Errorf("bundle: add key %s: %w", p, err)
		}
	}
	return &Keyring{ring: ring}, nil
}

// VerifyDetached checks canonicalBytes against an armored or binary detached
// signature. It never returns an error for a missing signature — callers
// decide whether SignatureUnsigned blocks a sync (it never does, per the
// opt-in signing policy).
func (k *Keyring) VerifyDetached(canonicalBytes, sigData []byte) (SignatureOutcome, error) {
	if k == nil {
		return SignatureNotConfigured, nil
	}
	if len(sigData) == 0 {
		return SignatureUnsigned, nil
	}

	signature, err := crypto.NewPGPSignatureFromArmored(string(sigData))
	if err != nil {
		signature = crypto.NewPGPSignature(sigData)
	}

	message := crypto.NewPlainMessage(canonicalBytes)
	if err := k.ring.VerifyDetached(message, signature, 0); err != nil {
		return SignatureFailed, fmt.Errorf("bundle: signature verification failed: %w", err)
	}
	return SignatureVerified, nil
}
