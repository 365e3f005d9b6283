package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webviewbundle/wvb/source"
)

func TestSource_WatchBuiltin_ReloadsManifestOnChange(t *testing.T) {
	src, builtinDir, _ := newTestSource(t)

	writeBundleFile(t, src.Filepath(source.TierBuiltin, "app", "1.0.0"), "<h1>v1</h1>")
	writeBuiltinManifest(t, builtinDir, "app", "1.0.0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, src.WatchBuiltin(ctx))

	version, tier, err := src.Resolve("app")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)
	assert.Equal(t, source.TierBuiltin, tier)

	writeBundleFile(t, src.Filepath(source.TierBuiltin, "app", "2.0.0"), "<h1>v2</h1>")
	writeBuiltinManifest(t, builtinDir, "app", "2.0.0")

	require.Eventually(t, func() bool {
		version, _, err := src.Resolve("app")

		return err == nil && version == "2.0.0"
	}, 2*time.Second, 10*time.Millisecond, "watcher must pick up the re-deployed manifest")
}

func TestSource_WatchBuiltin_ReturnsErrorForMissingRoot(t *testing.T) {
	builtinDir := filepath.Join(t.TempDir(), "missing")
	src := newTestSourceWithBuiltin(t, builtinDir)

	err := src.WatchBuiltin(context.Background())
	assert.Error(t, err)
}

func newTestSourceWithBuiltin(t *testing.T, builtinDir string) *source.Source {
	t.Helper()

	remoteDir := t.TempDir()
	require.NoError(t, os.MkdirAll(remoteDir, 0o755))

	return source.New(builtinDir, remoteDir, source.Options{})
}
