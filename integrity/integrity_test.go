package integrity_test

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webviewbundle/wvb/integrity"
)

func TestSRIChecker_Check(t *testing.T) {
	data := []byte("bundle payload bytes")
	sum := sha256.Sum256(data)
	digest := "sha256-" + base64.StdEncoding.EncodeToString(sum[:])

	var c integrity.SRIChecker
	require.NoError(t, c.Check(digest, data))
}

func TestSRIChecker_Check_Mismatch(t *testing.T) {
	data := []byte("bundle payload bytes")
	sum := sha256.Sum256([]byte("different bytes"))
	digest := "sha256-" + base64.StdEncoding.EncodeToString(sum[:])

	var c integrity.SRIChecker
	assert.Error(t, c.Check(digest, data))
}

func TestDecode_UnsupportedAlgorithm(t *testing.T) {
	_, err := integrity.Decode("md5-deadbeef", []byte("x"))
	assert.Error(t, err)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := integrity.Decode("not-a-valid-format-at-all-no-dash-left", []byte("x"))
	assert.Error(t, err)
}
