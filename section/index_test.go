package section_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webviewbundle/wvb/section"
)

func TestIndex_RoundTrip(t *testing.T) {
	idx := section.NewIndex()
	idx.Insert("/index.html", section.IndexEntry{
		Offset:        0,
		Len:           98,
		ContentType:   "text/html",
		ContentLength: 120,
		Headers:       []section.HeaderField{{Name: "ETag", Value: []byte(`"v1"`)}},
	})
	idx.Insert("/index.js", section.IndexEntry{
		Offset:        102,
		Len:           40,
		ContentType:   "text/javascript",
		ContentLength: 44,
	})

	encoded := idx.Encode()
	decoded, err := section.DecodeIndex(encoded)
	require.NoError(t, err)
	require.Equal(t, idx.Len(), decoded.Len())

	for _, path := range idx.Paths() {
		want, _ := idx.Get(path)
		got, ok := decoded.Get(path)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestIndex_MissingPath(t *testing.T) {
	idx := section.NewIndex()
	_, ok := idx.Get("/missing")
	require.False(t, ok)
}
