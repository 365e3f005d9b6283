// Package source implements the two-tier versioned bundle store (C4): a
// read-only builtin root and a writable remote root, each with its own
// manifest, a per-bundle single-flight descriptor cache, and version
// resolution that prefers remote over builtin.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/webviewbundle/wvb/bundle"
	"github.com/webviewbundle/wvb/internal/errs"
	"github.com/webviewbundle/wvb/manifest"
	"github.com/webviewbundle/wvb/metrics"
)

// Tier identifies which root a resolved version came from.
type Tier int

const (
	// TierBuiltin is the read-only, prebundled root.
	TierBuiltin Tier = iota
	// TierRemote is the writable, downloaded root.
	TierRemote
)

func (t Tier) String() string {
	if t == TierRemote {
		return "remote"
	}

	return "builtin"
}

// Options configures a Source.
type Options struct {
	// Seed is the checksum seed used for all reads through this source.
	Seed uint32
	// Verify enables checksum verification on the descriptor reads this
	// source performs.
	Verify bool
}

// Source is the two-tier bundle store.
type Source struct {
	builtinDir      string
	remoteDir       string
	builtinManifest *manifest.Manifest
	remoteManifest  *manifest.Manifest
	opts            Options

	mu          sync.RWMutex
	descriptors map[string]*bundle.Descriptor
	group       singleflight.Group
}

// New returns a Source rooted at builtinDir (read-only) and remoteDir
// (writable). Manifests live at "<dir>/manifest.json" in each root.
func New(builtinDir, remoteDir string, opts Options) *Source {
	return &Source{
		builtinDir:      builtinDir,
		remoteDir:       remoteDir,
		builtinManifest: manifest.New(filepath.Join(builtinDir, "manifest.json")),
		remoteManifest:  manifest.New(filepath.Join(remoteDir, "manifest.json")),
		opts:            opts,
		descriptors:     make(map[string]*bundle.Descriptor),
	}
}

// Resolve returns the version of bundleName to serve and which tier it
// came from: remote's currentVersion wins when present, else builtin's.
func (s *Source) Resolve(bundleName string) (version string, tier Tier, err error) {
	if v, ok, err := s.remoteManifest.CurrentVersion(bundleName); err != nil {
		return "", 0, err
	} else if ok {
		return v, TierRemote, nil
	}

	if v, ok, err := s.builtinManifest.CurrentVersion(bundleName); err != nil {
		return "", 0, err
	} else if ok {
		return v, TierBuiltin, nil
	}

	return "", 0, errs.ErrBundleNotFound
}

// Filepath returns the on-disk path for a given tier/name/version, per the
// format's "<dir>/<name>/<name>_<version>.wvb" layout.
func (s *Source) Filepath(tier Tier, bundleName, version string) string {
	root := s.builtinDir
	if tier == TierRemote {
		root = s.remoteDir
	}

	return filepath.Join(root, bundleName, fmt.Sprintf("%s_%s.wvb", bundleName, version))
}

// LoadDescriptor returns the cached descriptor for bundleName, loading it
// from disk on first access. Concurrent callers for the same name observe
// the same result (single-flight); an initialization error is not cached,
// so the next call retries.
func (s *Source) LoadDescriptor(_ context.Context, bundleName string) (*bundle.Descriptor, error) {
	s.mu.RLock()
	if d, ok := s.descriptors[bundleName]; ok {
		s.mu.RUnlock()
		metrics.DescriptorCacheTotal.WithLabelValues("hit").Inc()

		return d, nil
	}
	s.mu.RUnlock()

	v, err := func() (any, error) {
		return s.group.Do(bundleName, func() (any, error) {
			s.mu.RLock()
			if d, ok := s.descriptors[bundleName]; ok {
				s.mu.RUnlock()
				metrics.DescriptorCacheTotal.WithLabelValues("hit").Inc()

				return d, nil
			}
			s.mu.RUnlock()

			version, tier, err := s.Resolve(bundleName)
			if err != nil {
				return nil, err
			}

			path := s.Filepath(tier, bundleName, version)

			f, err := os.Open(path)
			if err != nil {
				if os.IsNotExist(err) {
					return nil, errs.ErrBundleNotFound
				}

				return nil, fmt.Errorf("source: open %s: %w", path, err)
			}
			defer f.Close()

			desc, err := bundle.ReadDescriptorAt(f, s.opts.Seed, s.opts.Verify)
			if err != nil {
				return nil, err
			}

			s.mu.Lock()
			s.descriptors[bundleName] = desc
			s.mu.Unlock()

			metrics.DescriptorCacheTotal.WithLabelValues("miss").Inc()
			metrics.DescriptorsLoaded.WithLabelValues(tier.String()).Inc()

			return desc, nil
		})
	}()
	if err != nil {
		return nil, err
	}

	return v.(*bundle.Descriptor), nil
}

// UnloadDescriptor evicts bundleName's cached descriptor. Callers already
// holding a reference retain a valid view; the next LoadDescriptor call
// produces a fresh one.
func (s *Source) UnloadDescriptor(bundleName string) {
	s.mu.Lock()
	delete(s.descriptors, bundleName)
	s.mu.Unlock()
}

// WriteRemoteBundle installs b as bundleName@version in the remote tier:
// it writes the bundle file, then registers it in the remote manifest.
// The caller is responsible for a subsequent UpdateCurrentVersion + Save
// once it decides to promote this version (see design notes — this
// two-step install/promote split is deliberate).
func (s *Source) WriteRemoteBundle(bundleName, version string, b *bundle.Bundle, meta manifest.Metadata) error {
	path := s.Filepath(TierRemote, bundleName, version)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("source: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("source: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := bundle.Write(f, b, s.opts.Seed); err != nil {
		return fmt.Errorf("source: write %s: %w", path, err)
	}

	if _, err := s.remoteManifest.InsertEntry(bundleName, version, meta); err != nil {
		return err
	}

	return nil
}

// UpdateVersion promotes version to current for bundleName in the remote
// manifest. Save must be called separately to persist it.
func (s *Source) UpdateVersion(bundleName, version string) error {
	return s.remoteManifest.UpdateCurrentVersion(bundleName, version)
}

// Save persists the remote manifest.
func (s *Source) Save() error {
	return s.remoteManifest.Save()
}
