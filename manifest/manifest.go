// Package manifest implements the JSON manifest.json document that
// describes which versions of which bundles exist on disk and which
// version is current for each, per the format's version-resolution rules.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/webviewbundle/wvb/internal/errs"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Version is the manifest document's own schema revision.
type Version int

// V1 is the only manifest schema this package understands.
const V1 Version = 1

// Metadata is the per-version metadata stored in the manifest.
type Metadata struct {
	ETag         string `json:"etag,omitempty"`
	Integrity    string `json:"integrity,omitempty"`
	Signature    string `json:"signature,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
}

// Entry is the per-bundle-name record: every known version's metadata,
// plus which one is current.
type Entry struct {
	Versions       map[string]Metadata `json:"versions"`
	CurrentVersion string              `json:"currentVersion"`
}

// data is the manifest document's on-disk shape.
type data struct {
	ManifestVersion Version          `json:"manifestVersion"`
	Entries         map[string]Entry `json:"entries"`
}

func newData() data {
	return data{ManifestVersion: V1, Entries: make(map[string]Entry)}
}

// Manifest is a lazily-loaded, RWMutex-guarded manifest document. Readers
// share the lock; the read-write surface (Update/Insert/Remove/Save) is
// only exposed via the methods below, which callers gate on the tier's
// writability (builtin manifests are opened read-only by convention — see
// source.Source).
type Manifest struct {
	path string

	mu      sync.RWMutex
	loaded  bool
	state   data
	readErr error
}

// New returns a Manifest that lazily loads from path on first access.
func New(path string) *Manifest {
	return &Manifest{path: path}
}

// Reload clears the loaded state so the next access re-reads the manifest
// from disk, picking up a file that changed underneath this process.
func (m *Manifest) Reload() {
	m.mu.Lock()
	m.loaded = false
	m.state = data{}
	m.readErr = nil
	m.mu.Unlock()
}

func (m *Manifest) ensureLoaded() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return m.readErr
	}

	raw, err := os.ReadFile(m.path)
	switch {
	case err == nil:
		var d data
		if err := json.Unmarshal(raw, &d); err != nil {
			m.readErr = fmt.Errorf("manifest: parse %s: %w", m.path, err)
			break
		}
		if d.Entries == nil {
			d.Entries = make(map[string]Entry)
		}
		m.state = d
	case os.IsNotExist(err):
		m.state = newData()
	default:
		m.readErr = fmt.Errorf("manifest: read %s: %w", m.path, err)
	}

	m.loaded = true

	return m.readErr
}

// CurrentVersion returns the current version of bundleName and whether it
// is known to this manifest.
func (m *Manifest) CurrentVersion(bundleName string) (string, bool, error) {
	if err := m.ensureLoaded(); err != nil {
		return "", false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.state.Entries[bundleName]
	if !ok {
		return "", false, nil
	}

	return e.CurrentVersion, true, nil
}

// VersionMetadata returns the stored metadata for (bundleName, version).
func (m *Manifest) VersionMetadata(bundleName, version string) (Metadata, bool, error) {
	if err := m.ensureLoaded(); err != nil {
		return Metadata{}, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.state.Entries[bundleName]
	if !ok {
		return Metadata{}, false, nil
	}
	meta, ok := e.Versions[version]

	return meta, ok, nil
}

// UpdateCurrentVersion sets bundleName's current version to version. The
// version must already exist in the manifest's versions map.
func (m *Manifest) UpdateCurrentVersion(bundleName, version string) error {
	if err := m.ensureLoaded(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.state.Entries[bundleName]
	if !ok {
		return errs.ErrBundleEntryNotExists
	}
	if _, ok := e.Versions[version]; !ok {
		return errs.ErrBundleEntryNotExists
	}

	e.CurrentVersion = version
	m.state.Entries[bundleName] = e

	return nil
}

// InsertEntry adds version metadata for bundleName. If the version already
// exists, this is a no-op and InsertEntry returns false. If bundleName did
// not previously exist, its current version is initialized to version.
func (m *Manifest) InsertEntry(bundleName, version string, meta Metadata) (bool, error) {
	if err := m.ensureLoaded(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.state.Entries[bundleName]
	if !exists {
		e = Entry{Versions: make(map[string]Metadata), CurrentVersion: version}
	}
	if _, ok := e.Versions[version]; ok {
		return false, nil
	}

	e.Versions[version] = meta
	m.state.Entries[bundleName] = e

	return true, nil
}

// RemoveEntry removes version from bundleName's versions. It refuses to
// remove the current version.
func (m *Manifest) RemoveEntry(bundleName, version string) (bool, error) {
	if err := m.ensureLoaded(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.state.Entries[bundleName]
	if !ok {
		return false, nil
	}
	if version == e.CurrentVersion {
		return false, errs.ErrBundleCannotBeRemoved
	}
	if _, ok := e.Versions[version]; !ok {
		return false, nil
	}

	delete(e.Versions, version)
	m.state.Entries[bundleName] = e

	return true, nil
}

// Save writes the manifest's current state to its configured path,
// creating parent directories as needed.
func (m *Manifest) Save() error {
	if err := m.ensureLoaded(); err != nil {
		return err
	}

	m.mu.RLock()
	raw, err := json.MarshalIndent(m.state, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("manifest: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("manifest: mkdir: %w", err)
	}

	if err := os.WriteFile(m.path, raw, 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", m.path, err)
	}

	return nil
}
