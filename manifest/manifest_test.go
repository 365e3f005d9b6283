package manifest_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webviewbundle/wvb/internal/errs"
	"github.com/webviewbundle/wvb/manifest"
)

func TestManifest_LazyLoadMissingFile(t *testing.T) {
	m := manifest.New(filepath.Join(t.TempDir(), "manifest.json"))

	_, ok, err := m.CurrentVersion("app")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestManifest_InsertUpdateSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	m := manifest.New(path)

	inserted, err := m.InsertEntry("app", "1.0.0", manifest.Metadata{ETag: `"v1"`})
	require.NoError(t, err)
	require.True(t, inserted)

	cur, ok, err := m.CurrentVersion("app")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1.0.0", cur)

	inserted, err = m.InsertEntry("app", "1.0.0", manifest.Metadata{})
	require.NoError(t, err)
	require.False(t, inserted)

	_, err = m.InsertEntry("app", "1.1.0", manifest.Metadata{})
	require.NoError(t, err)
	require.NoError(t, m.UpdateCurrentVersion("app", "1.1.0"))
	require.NoError(t, m.Save())

	reloaded := manifest.New(path)
	cur, ok, err = reloaded.CurrentVersion("app")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1.1.0", cur)
}

func TestManifest_UpdateCurrentVersionUnknown(t *testing.T) {
	m := manifest.New(filepath.Join(t.TempDir(), "manifest.json"))
	_, _ = m.InsertEntry("app", "1.0.0", manifest.Metadata{})

	err := m.UpdateCurrentVersion("app", "9.9.9")
	require.ErrorIs(t, err, errs.ErrBundleEntryNotExists)
}

func TestManifest_RemoveCurrentVersionRefused(t *testing.T) {
	m := manifest.New(filepath.Join(t.TempDir(), "manifest.json"))
	_, _ = m.InsertEntry("app", "1.0.0", manifest.Metadata{})

	_, err := m.RemoveEntry("app", "1.0.0")
	require.ErrorIs(t, err, errs.ErrBundleCannotBeRemoved)
}
