package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webviewbundle/wvb/bundle"
	"github.com/webviewbundle/wvb/checksum"
	"github.com/webviewbundle/wvb/internal/errs"
	"github.com/webviewbundle/wvb/manifest"
	"github.com/webviewbundle/wvb/source"
)

func writeBundleFile(t *testing.T, path, body string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	b := bundle.NewBuilder(checksum.DefaultSeed)
	b.AddEntry("/index.html", []byte(body), "text/html", nil)
	built, err := b.Build()
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = bundle.Write(f, built, checksum.DefaultSeed)
	require.NoError(t, err)
}

func newTestSource(t *testing.T) (*source.Source, string, string) {
	t.Helper()

	builtinDir, remoteDir := t.TempDir(), t.TempDir()
	src := source.New(builtinDir, remoteDir, source.Options{Seed: checksum.DefaultSeed, Verify: true})

	return src, builtinDir, remoteDir
}

func TestSource_Resolve_PrefersRemoteOverBuiltin(t *testing.T) {
	src, builtinDir, _ := newTestSource(t)

	writeBundleFile(t, src.Filepath(source.TierBuiltin, "app", "1.0.0"), "<h1>builtin</h1>")
	writeBuiltinManifest(t, builtinDir, "app", "1.0.0")

	version, tier, err := src.Resolve("app")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)
	assert.Equal(t, source.TierBuiltin, tier)

	b := bundle.NewBuilder(checksum.DefaultSeed)
	b.AddEntry("/index.html", []byte("<h1>remote</h1>"), "text/html", nil)
	built, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, src.WriteRemoteBundle("app", "2.0.0", built, manifest.Metadata{}))

	version, tier, err = src.Resolve("app")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", version)
	assert.Equal(t, source.TierRemote, tier)
}

func TestSource_Resolve_UnknownBundle(t *testing.T) {
	src, _, _ := newTestSource(t)

	_, _, err := src.Resolve("missing")
	assert.ErrorIs(t, err, errs.ErrBundleNotFound)
}

func TestSource_LoadDescriptor_CachesAndEvicts(t *testing.T) {
	src, builtinDir, _ := newTestSource(t)

	writeBundleFile(t, src.Filepath(source.TierBuiltin, "app", "1.0.0"), "<h1>hi</h1>")
	writeBuiltinManifest(t, builtinDir, "app", "1.0.0")

	ctx := context.Background()

	d1, err := src.LoadDescriptor(ctx, "app")
	require.NoError(t, err)

	d2, err := src.LoadDescriptor(ctx, "app")
	require.NoError(t, err)
	assert.Same(t, d1, d2, "second load must return the cached descriptor")

	src.UnloadDescriptor("app")

	d3, err := src.LoadDescriptor(ctx, "app")
	require.NoError(t, err)
	assert.NotSame(t, d1, d3, "after eviction, load must produce a fresh descriptor")
}

func TestSource_WriteRemoteBundle_DoesNotPromoteExistingBundle(t *testing.T) {
	src, _, _ := newTestSource(t)

	mk := func(version, body string) *bundle.Bundle {
		b := bundle.NewBuilder(checksum.DefaultSeed)
		b.AddEntry("/index.html", []byte(body), "text/html", nil)
		built, err := b.Build()
		require.NoError(t, err)

		return built
	}

	require.NoError(t, src.WriteRemoteBundle("app", "1.0.0", mk("1.0.0", "<h1>v1</h1>"), manifest.Metadata{}))

	version, _, err := src.Resolve("app")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version, "first install of a new bundle is current immediately")

	require.NoError(t, src.WriteRemoteBundle("app", "1.1.0", mk("1.1.0", "<h1>v1.1</h1>"), manifest.Metadata{}))

	version, _, err = src.Resolve("app")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version, "a second version must not auto-promote")

	require.NoError(t, src.UpdateVersion("app", "1.1.0"))
	require.NoError(t, src.Save())

	version, _, err = src.Resolve("app")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", version)
}

func TestSource_OpenDataReader_ReadsEntry(t *testing.T) {
	src, builtinDir, _ := newTestSource(t)

	writeBundleFile(t, src.Filepath(source.TierBuiltin, "app", "1.0.0"), "<h1>hi</h1>")
	writeBuiltinManifest(t, builtinDir, "app", "1.0.0")

	ctx := context.Background()

	desc, err := src.LoadDescriptor(ctx, "app")
	require.NoError(t, err)

	r, err := src.OpenDataReader(ctx, "app")
	require.NoError(t, err)
	defer r.Close()

	data, err := bundle.ReadEntry(r, desc, desc.DataOffset(), "/index.html", checksum.DefaultSeed, true)
	require.NoError(t, err)
	assert.Equal(t, "<h1>hi</h1>", string(data))
}

// writeBuiltinManifest writes a builtin-tier manifest.json directly, with
// version as the bundle's current version, since Source treats the builtin
// root as read-only and exposes no write path for it (only the remote tier
// is written through Source's own methods).
func writeBuiltinManifest(t *testing.T, builtinDir, bundleName, version string) {
	t.Helper()

	m := manifest.New(filepath.Join(builtinDir, "manifest.json"))
	_, err := m.InsertEntry(bundleName, version, manifest.Metadata{})
	require.NoError(t, err)
	require.NoError(t, m.UpdateCurrentVersion(bundleName, version))
	require.NoError(t, m.Save())
}
