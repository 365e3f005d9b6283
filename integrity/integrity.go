// Package integrity implements the optional content-integrity check the
// updater runs against a freshly downloaded bundle: an SRI-style
// "<algorithm>-<base64 digest>" string compared against a digest computed
// over the raw, undecoded bytes.
//
// The digest primitive itself is deliberately stdlib-only: the core scopes
// crypto primitives out of its domain surface (the format only needs a
// byte-for-byte digest comparison, not a choice of hash construction), and
// no example in the retrieval pack ships a non-stdlib hashing dependency
// for this shape of check.
package integrity

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/webviewbundle/wvb/internal/errs"
)

// Policy governs whether an integrity header must be present and must
// verify.
type Policy int

const (
	// Disabled skips integrity verification entirely.
	Disabled Policy = iota
	// Optional verifies the integrity header when present, and skips the
	// check when it is absent.
	Optional
	// Strict requires the integrity header to be present and to verify.
	Strict
)

// Checker verifies an SRI-style integrity string against raw data.
type Checker interface {
	Check(digest string, data []byte) error
}

// SRIChecker implements Checker for "sha256-<base64>" and
// "sha512-<base64>" digest strings, the two algorithms the format's
// reference implementation emits.
type SRIChecker struct{}

// Check implements Checker.
func (SRIChecker) Check(digest string, data []byte) error {
	_, err := Decode(digest, data)

	return err
}

// Decode parses digest as "<algorithm>-<base64 digest>", computes the same
// algorithm's digest over data, and returns the raw digest bytes if they
// match. It fails closed: an unrecognized algorithm, malformed base64, or
// digest mismatch all return ErrIntegrityVerifyFailed.
func Decode(digest string, data []byte) ([]byte, error) {
	algo, encoded, ok := strings.Cut(digest, "-")
	if !ok {
		return nil, fmt.Errorf("%w: malformed integrity value %q", errs.ErrIntegrityVerifyFailed, digest)
	}

	want, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrIntegrityVerifyFailed, err)
	}

	var got []byte
	switch algo {
	case "sha256":
		sum := sha256.Sum256(data)
		got = sum[:]
	case "sha512":
		sum := sha512.Sum512(data)
		got = sum[:]
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %q", errs.ErrIntegrityVerifyFailed, algo)
	}

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return nil, errs.ErrIntegrityVerifyFailed
	}

	return want, nil
}
