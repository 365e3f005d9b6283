package signature

import (
	"crypto/ed25519"
	"crypto/x509"
	"fmt"

	"github.com/webviewbundle/wvb/internal/errs"
)

// Ed25519Verifier verifies Ed25519 signatures directly over message
// (Ed25519 is never used with a pre-hash in this scheme).
type Ed25519Verifier struct {
	pub ed25519.PublicKey
}

// NewEd25519Raw builds a verifier from a raw 32-byte Ed25519 public key.
func NewEd25519Raw(raw []byte) (*Ed25519Verifier, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: ed25519 key must be %d bytes, got %d", errs.ErrInvalidSignature, ed25519.PublicKeySize, len(raw))
	}

	return &Ed25519Verifier{pub: ed25519.PublicKey(raw)}, nil
}

// ParseEd25519SPKIDER parses an X.509 SubjectPublicKeyInfo DER block.
func ParseEd25519SPKIDER(der []byte) (*Ed25519Verifier, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidSignature, err)
	}

	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an Ed25519 public key", errs.ErrInvalidSignature)
	}

	return &Ed25519Verifier{pub: pub}, nil
}

// ParseEd25519SPKIPEM parses a PEM-encoded SPKI block.
func ParseEd25519SPKIPEM(data []byte) (*Ed25519Verifier, error) {
	der, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	return ParseEd25519SPKIDER(der)
}

// Verify implements Verifier.
func (v *Ed25519Verifier) Verify(_, message []byte, signature string) (bool, error) {
	sig := signatureBytes(signature)
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("%w: ed25519 signature must be %d bytes, got %d", errs.ErrInvalidSignature, ed25519.SignatureSize, len(sig))
	}

	return ed25519.Verify(v.pub, message, sig), nil
}
