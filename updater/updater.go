// Package updater orchestrates remote bundle discovery and installation
// (C5): listing what the remote endpoint offers, comparing against the
// locally installed version, downloading and verifying a candidate, and
// handing it to source.Source for installation.
//
// It deliberately stops short of promoting a downloaded version to
// current — see DESIGN.md's Open Question decision — leaving that as an
// explicit, separate call the embedding application makes once it decides
// the new version should take effect.
package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/webviewbundle/wvb/bundle"
	"github.com/webviewbundle/wvb/checksum"
	"github.com/webviewbundle/wvb/integrity"
	"github.com/webviewbundle/wvb/internal/errs"
	"github.com/webviewbundle/wvb/internal/options"
	"github.com/webviewbundle/wvb/manifest"
	"github.com/webviewbundle/wvb/remote"
	"github.com/webviewbundle/wvb/signature"
	"github.com/webviewbundle/wvb/source"
)

// Config configures an Updater's verification behavior. Channel scoping is
// not duplicated here: it belongs to the remote.Client passed to New (see
// remote.WithChannel), since every Remote call already goes through it.
type Config struct {
	IntegrityPolicy   integrity.Policy
	IntegrityChecker  integrity.Checker
	SignatureVerifier signature.Verifier
	// Seed and Verify govern how a downloaded bundle's own checksums are
	// parsed, matching the seed/verify configuration of the target Source.
	Seed   uint32
	Verify bool
}

// Option configures an Updater at construction time.
type Option = options.Option[*Config]

// WithIntegrityPolicy sets the integrity verification policy (defaults to
// integrity.Disabled).
func WithIntegrityPolicy(policy integrity.Policy) Option {
	return options.NoError(func(c *Config) { c.IntegrityPolicy = policy })
}

// WithIntegrityChecker installs the Checker used when the policy requires
// or allows integrity verification (defaults to integrity.SRIChecker{}).
func WithIntegrityChecker(checker integrity.Checker) Option {
	return options.NoError(func(c *Config) { c.IntegrityChecker = checker })
}

// WithSignatureVerifier installs a signature.Verifier. When set, every
// downloaded bundle must carry both an integrity digest and a signature
// that verifies against it, regardless of IntegrityPolicy.
func WithSignatureVerifier(v signature.Verifier) Option {
	return options.NoError(func(c *Config) { c.SignatureVerifier = v })
}

// WithSeed overrides the checksum seed used to parse a downloaded bundle
// (defaults to checksum.DefaultSeed). Must match the seed the target
// Source was constructed with.
func WithSeed(seed uint32) Option {
	return options.NoError(func(c *Config) { c.Seed = seed })
}

// WithVerify enables or disables checksum verification when parsing a
// downloaded bundle (defaults to true).
func WithVerify(verify bool) Option {
	return options.NoError(func(c *Config) { c.Verify = verify })
}

// BundleUpdateInfo reports whether a newer version is available for a
// bundle, and the remote metadata needed to fetch it.
type BundleUpdateInfo struct {
	Name          string
	RemoteVersion string
	LocalVersion  string
	IsAvailable   bool
	ETag          string
	Integrity     string
	Signature     string
	LastModified  string
}

// Updater ties a Source (install target) to a remote.Client (fetch source).
type Updater struct {
	Source *source.Source
	Remote *remote.Client
	Config Config
}

// New returns an Updater. Remote is constructed by the caller (it already
// carries its own endpoint and channel configuration for listing/fetching);
// Config here governs the verification steps run over what Remote returns.
func New(src *source.Source, rc *remote.Client, opts ...Option) (*Updater, error) {
	cfg := Config{IntegrityChecker: integrity.SRIChecker{}, Seed: checksum.DefaultSeed, Verify: true}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &Updater{Source: src, Remote: rc, Config: cfg}, nil
}

// ListRemotes returns every bundle the remote endpoint currently offers.
func (u *Updater) ListRemotes(ctx context.Context) ([]remote.BundleInfo, error) {
	return u.Remote.ListBundles(ctx)
}

// GetUpdate compares the remote's current version for bundleName against
// the locally resolved version and reports whether an update is available.
func (u *Updater) GetUpdate(ctx context.Context, bundleName string) (*BundleUpdateInfo, error) {
	remoteInfo, err := u.Remote.GetCurrentInfo(ctx, bundleName)
	if err != nil {
		return nil, err
	}

	localVersion, _, err := u.Source.Resolve(bundleName)
	if err != nil && !errors.Is(err, errs.ErrBundleNotFound) {
		return nil, err
	}

	return &BundleUpdateInfo{
		Name:          remoteInfo.Name,
		RemoteVersion: remoteInfo.Version,
		LocalVersion:  localVersion,
		IsAvailable:   localVersion != remoteInfo.Version,
		ETag:          remoteInfo.ETag,
		Integrity:     remoteInfo.Integrity,
		Signature:     remoteInfo.Signature,
		LastModified:  remoteInfo.LastModified,
	}, nil
}

// DownloadUpdate downloads bundleName (a specific version, or the remote's
// current version when version is ""), verifies it per Config, and installs
// it into the remote tier of Source. It does not promote the new version
// to current — call Source.UpdateVersion + Source.Save separately once the
// caller decides to do so.
func (u *Updater) DownloadUpdate(ctx context.Context, bundleName, version string) (*remote.BundleInfo, error) {
	var info *remote.BundleInfo
	var raw []byte
	var err error

	if version == "" {
		info, raw, err = u.Remote.Download(ctx, bundleName)
	} else {
		info, raw, err = u.Remote.DownloadVersion(ctx, bundleName, version)
	}
	if err != nil {
		return nil, err
	}

	b, err := bundle.ReadFull(bytes.NewReader(raw), u.Config.Seed, u.Config.Verify)
	if err != nil {
		return nil, fmt.Errorf("updater: parse downloaded bundle: %w", err)
	}

	switch u.Config.IntegrityPolicy {
	case integrity.Strict:
		if info.Integrity == "" {
			return nil, errs.ErrIntegrityRequired
		}
		if err := u.verifyIntegrity(info.Integrity, raw); err != nil {
			return nil, err
		}
	case integrity.Optional:
		if info.Integrity != "" {
			if err := u.verifyIntegrity(info.Integrity, raw); err != nil {
				return nil, err
			}
		}
	case integrity.Disabled:
	}

	if u.Config.SignatureVerifier != nil {
		if info.Integrity == "" {
			return nil, errs.ErrIntegrityRequired
		}
		if info.Signature == "" {
			return nil, errs.ErrSignatureNotExists
		}

		// The message signed is the integrity header's own bytes (the
		// "<algorithm>-<base64digest>" string), not the decoded digest —
		// matching the reference implementation's verifier.verify(&bundle,
		// message.as_bytes(), &signature) call with message = info.integrity.
		ok, err := u.Config.SignatureVerifier.Verify(raw, []byte(info.Integrity), info.Signature)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.ErrSignatureVerifyFailed
		}
	}

	meta := manifest.Metadata{
		ETag:         info.ETag,
		Integrity:    info.Integrity,
		Signature:    info.Signature,
		LastModified: info.LastModified,
	}

	if err := u.Source.WriteRemoteBundle(info.Name, info.Version, b, meta); err != nil {
		return nil, err
	}

	return info, nil
}

func (u *Updater) verifyIntegrity(digest string, raw []byte) error {
	checker := u.Config.IntegrityChecker
	if checker == nil {
		checker = integrity.SRIChecker{}
	}

	return checker.Check(digest, raw)
}
