package signature

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"

	"github.com/webviewbundle/wvb/internal/errs"
)

// RSAVerifier verifies RSA signatures over a SHA-256 digest of message,
// using either PKCS#1 v1.5 or PSS padding.
type RSAVerifier struct {
	pub *rsa.PublicKey
	pss bool
}

// NewRSAPKCS1v15 builds a PKCS#1 v1.5 verifier around an already-parsed key.
func NewRSAPKCS1v15(pub *rsa.PublicKey) *RSAVerifier {
	return &RSAVerifier{pub: pub}
}

// NewRSAPSS builds an RSA-PSS-SHA256 verifier around an already-parsed key.
func NewRSAPSS(pub *rsa.PublicKey) *RSAVerifier {
	return &RSAVerifier{pub: pub, pss: true}
}

// ParseRSAPKCS1DER parses a PKCS#1 RSAPublicKey DER block.
func ParseRSAPKCS1DER(der []byte) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidSignature, err)
	}

	return pub, nil
}

// ParseRSAPKCS1PEM parses a PEM-encoded PKCS#1 RSAPublicKey block.
func ParseRSAPKCS1PEM(data []byte) (*rsa.PublicKey, error) {
	der, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	return ParseRSAPKCS1DER(der)
}

// ParseRSASPKIDER parses an X.509 SubjectPublicKeyInfo DER block.
func ParseRSASPKIDER(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidSignature, err)
	}

	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", errs.ErrInvalidSignature)
	}

	return pub, nil
}

// ParseRSASPKIPEM parses a PEM-encoded SPKI block.
func ParseRSASPKIPEM(data []byte) (*rsa.PublicKey, error) {
	der, err := decodePEM(data)
	if err != nil {
		return nil, err
	}

	return ParseRSASPKIDER(der)
}

// Verify implements Verifier.
func (v *RSAVerifier) Verify(_, message []byte, signature string) (bool, error) {
	sig := signatureBytes(signature)
	digest := sha256.Sum256(message)

	var verifyErr error
	if v.pss {
		verifyErr = rsa.VerifyPSS(v.pub, crypto.SHA256, digest[:], sig, nil)
	} else {
		verifyErr = rsa.VerifyPKCS1v15(v.pub, crypto.SHA256, digest[:], sig)
	}

	return verifyErr == nil, nil
}
