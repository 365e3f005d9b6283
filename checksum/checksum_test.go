package checksum_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webviewbundle/wvb/checksum"
)

func TestSum_HeaderVector(t *testing.T) {
	// Header(V1, index_size=1234) preceding-13-bytes checksum, default seed.
	// Reference vector from the format's test suite: the full 17-byte header
	// is F0 9F 8C 90 F0 9F 8E 81 01 00 00 04 D2 31 38 03 10.
	prefix := []byte{
		0xF0, 0x9F, 0x8C, 0x90, 0xF0, 0x9F, 0x8E, 0x81, // magic
		0x01,                   // version
		0x00, 0x00, 0x04, 0xD2, // index size = 1234
	}

	got := checksum.AppendBE(nil, checksum.DefaultSeed, prefix)
	require.Equal(t, []byte{0x31, 0x38, 0x03, 0x10}, got)
}

func TestVerify_RoundTrip(t *testing.T) {
	data := []byte("the quick brown fox")
	sum := checksum.Sum(7, data)
	require.True(t, checksum.Verify(7, data, sum))
	require.False(t, checksum.Verify(7, data, sum+1))
}
