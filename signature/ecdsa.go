package signature

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"hash"
	"math/big"

	"github.com/webviewbundle/wvb/internal/errs"
)

// ECDSAVerifier verifies ECDSA signatures over a SHA-2 digest of message,
// sized to the curve: SHA-256 for P-256, SHA-384 for P-384. The signature
// is the curve's fixed-width r||s encoding (not ASN.1/DER), matching the
// reference implementation's Signature::from_slice(signature.as_bytes()).
type ECDSAVerifier struct {
	pub  *ecdsa.PublicKey
	hash func() hash.Hash
}

// NewECDSAP256 builds a verifier around an already-parsed P-256 public key.
func NewECDSAP256(pub *ecdsa.PublicKey) *ECDSAVerifier {
	return &ECDSAVerifier{pub: pub, hash: sha256.New}
}

// NewECDSAP384 builds a verifier around an already-parsed P-384 public key.
func NewECDSAP384(pub *ecdsa.PublicKey) *ECDSAVerifier {
	return &ECDSAVerifier{pub: pub, hash: sha512.New384}
}

// ParseECDSAP256SEC1 parses an uncompressed SEC1 point (0x04 || X || Y)
// into a P-256 verifier.
func ParseECDSAP256SEC1(der []byte) (*ECDSAVerifier, error) {
	x, y := elliptic.Unmarshal(elliptic.P256(), der)
	if x == nil {
		return nil, fmt.Errorf("%w: invalid SEC1 point", errs.ErrInvalidSignature)
	}

	return NewECDSAP256(&ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}), nil
}

// ParseECDSAP256SPKIDER parses an X.509 SubjectPublicKeyInfo DER block.
func ParseECDSAP256SPKIDER(der []byte) (*ECDSAVerifier, error) {
	pub, err := parseECDSASPKI(der)
	if err != nil {
		return nil, err
	}

	return NewECDSAP256(pub), nil
}

// ParseECDSAP256SPKIPEM parses a PEM-encoded SPKI block.
func ParseECDSAP256SPKIPEM(data []byte) (*ECDSAVerifier, error) {
	der, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	return ParseECDSAP256SPKIDER(der)
}

// ParseECDSAP384SPKIDER parses an X.509 SubjectPublicKeyInfo DER block for
// a P-384 key.
func ParseECDSAP384SPKIDER(der []byte) (*ECDSAVerifier, error) {
	pub, err := parseECDSASPKI(der)
	if err != nil {
		return nil, err
	}

	return NewECDSAP384(pub), nil
}

// ParseECDSAP384SPKIPEM parses a PEM-encoded SPKI block for a P-384 key.
func ParseECDSAP384SPKIPEM(data []byte) (*ECDSAVerifier, error) {
	der, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	return ParseECDSAP384SPKIDER(der)
}

func parseECDSASPKI(der []byte) (*ecdsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidSignature, err)
	}

	pub, ok := key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an ECDSA public key", errs.ErrInvalidSignature)
	}

	return pub, nil
}

func decodePEM(data []byte) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: invalid PEM block", errs.ErrInvalidSignature)
	}

	return block.Bytes, nil
}

// Verify implements Verifier.
func (v *ECDSAVerifier) Verify(_, message []byte, signature string) (bool, error) {
	sig := signatureBytes(signature)

	fieldLen := (v.pub.Curve.Params().BitSize + 7) / 8
	if len(sig) != 2*fieldLen {
		return false, fmt.Errorf("%w: ecdsa signature must be %d bytes, got %d", errs.ErrInvalidSignature, 2*fieldLen, len(sig))
	}

	r := new(big.Int).SetBytes(sig[:fieldLen])
	s := new(big.Int).SetBytes(sig[fieldLen:])

	h := v.hash()
	h.Write(message)
	digest := h.Sum(nil)

	// ecdsa.Verify (the raw r/s form), not VerifyASN1: the wire signature is
	// fixed-width r||s, not an ASN.1 SEQUENCE.
	return ecdsa.Verify(v.pub, digest, r, s), nil
}
