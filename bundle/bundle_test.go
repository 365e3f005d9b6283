package bundle_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webviewbundle/wvb/bundle"
	"github.com/webviewbundle/wvb/checksum"
)

const indexHTML = "<!DOCTYPE html>\n<html>...\n"

func TestBuildWriteRead_SingleEntry(t *testing.T) {
	b := bundle.NewBuilder(checksum.DefaultSeed)
	b.AddEntry("/index.html", []byte(indexHTML), "text/html", nil)

	built, err := b.Build()
	require.NoError(t, err)
	require.EqualValues(t, 27, built.Descriptor.Header.IndexSize)

	entry, ok := built.Descriptor.Index.Get("/index.html")
	require.True(t, ok)
	require.EqualValues(t, 0, entry.Offset)
	require.EqualValues(t, 32, entry.Len)

	var buf bytes.Buffer
	n, err := bundle.Write(&buf, built, checksum.DefaultSeed)
	require.NoError(t, err)
	require.EqualValues(t, 84, n)
	require.EqualValues(t, 84, buf.Len())

	readBack, err := bundle.ReadFull(bytes.NewReader(buf.Bytes()), checksum.DefaultSeed, true)
	require.NoError(t, err)

	got, found, err := readBack.GetData("/index.html", checksum.DefaultSeed, true)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, indexHTML, string(got))

	_, found, err = readBack.GetData("/not_found.html", checksum.DefaultSeed, true)
	require.NoError(t, err)
	require.False(t, found)
}

func TestBuildWriteRead_TwoEntries(t *testing.T) {
	b := bundle.NewBuilder(checksum.DefaultSeed)
	b.AddEntry("/index.html", []byte(indexHTML), "text/html", nil)
	b.AddEntry("/index.js", []byte("console.log('Hello World');"), "text/javascript", nil)

	built, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = bundle.Write(&buf, built, checksum.DefaultSeed)
	require.NoError(t, err)

	desc, err := bundle.ReadDescriptorAt(bytes.NewReader(buf.Bytes()), checksum.DefaultSeed, true)
	require.NoError(t, err)
	require.Equal(t, 2, desc.Index.Len())

	r := bytes.NewReader(buf.Bytes())
	html, err := bundle.ReadEntry(r, desc, desc.DataOffset(), "/index.html", checksum.DefaultSeed, true)
	require.NoError(t, err)
	require.Equal(t, indexHTML, string(html))

	js, err := bundle.ReadEntry(r, desc, desc.DataOffset(), "/index.js", checksum.DefaultSeed, true)
	require.NoError(t, err)
	require.Equal(t, "console.log('Hello World');", string(js))
}

func TestReadDescriptorAt_ChecksumTamperDetected(t *testing.T) {
	b := bundle.NewBuilder(checksum.DefaultSeed)
	b.AddEntry("/index.html", []byte(indexHTML), "text/html", nil)
	built, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = bundle.Write(&buf, built, checksum.DefaultSeed)
	require.NoError(t, err)

	raw := buf.Bytes()
	raw[12] ^= 0x01 // flip a bit in the index-size field, which the header checksum covers
	_, err = bundle.ReadDescriptorAt(bytes.NewReader(raw), checksum.DefaultSeed, true)
	require.Error(t, err)
}
