package varint_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webviewbundle/wvb/varint"
)

func TestUint64_RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 16384, 1 << 40, ^uint64(0)} {
		buf := varint.AppendUint64(nil, v)
		got, n, err := varint.ReadUint64(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestBytes_RoundTrip(t *testing.T) {
	buf := varint.AppendBytes(nil, []byte("index.html"))
	got, n, err := varint.ReadBytes(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, []byte("index.html"), got)
}

func TestReadUint64_ShortBuffer(t *testing.T) {
	_, _, err := varint.ReadUint64([]byte{0x80, 0x80})
	require.Error(t, err)
}
