package signature_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webviewbundle/wvb/signature"
)

// rawECDSASign signs digest and returns the curve's fixed-width r||s
// encoding, matching what ECDSAVerifier expects on the wire (not ASN.1).
func rawECDSASign(t *testing.T, priv *ecdsa.PrivateKey, digest []byte) string {
	t.Helper()

	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	require.NoError(t, err)

	fieldLen := (priv.Curve.Params().BitSize + 7) / 8
	buf := make([]byte, 2*fieldLen)
	r.FillBytes(buf[:fieldLen])
	s.FillBytes(buf[fieldLen:])

	return string(buf)
}

func TestEd25519Verifier_RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	message := []byte("digest bytes")
	sig := ed25519.Sign(priv, message)

	v, err := signature.NewEd25519Raw(pub)
	require.NoError(t, err)

	ok, err := v.Verify(nil, message, string(sig))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEd25519Verifier_RejectsWrongSignature(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	v, err := signature.NewEd25519Raw(pub)
	require.NoError(t, err)

	ok, err := v.Verify(nil, []byte("digest"), string(make([]byte, ed25519.SignatureSize)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewEd25519Raw_RejectsBadLength(t *testing.T) {
	_, err := signature.NewEd25519Raw([]byte("too short"))
	assert.Error(t, err)
}

func TestECDSAVerifier_RoundTrip(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	message := []byte("digest bytes")
	digest := sha256.Sum256(message)
	sig := rawECDSASign(t, priv, digest[:])

	v := signature.NewECDSAP256(&priv.PublicKey)

	ok, err := v.Verify(nil, message, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestECDSAVerifier_RejectsWrongSignature(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	fieldLen := (priv.Curve.Params().BitSize + 7) / 8
	v := signature.NewECDSAP256(&priv.PublicKey)

	ok, err := v.Verify(nil, []byte("digest"), string(make([]byte, 2*fieldLen)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestECDSAVerifier_RejectsBadLength(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	v := signature.NewECDSAP256(&priv.PublicKey)

	_, err = v.Verify(nil, []byte("digest"), "too short")
	assert.Error(t, err)
}

func TestFunc_AdaptsClosure(t *testing.T) {
	var called bool
	v := signature.Func(func(bundleBytes, message []byte, sig string) (bool, error) {
		called = true

		return sig == "trusted", nil
	})

	ok, err := v.Verify(nil, nil, "trusted")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, called)
}
