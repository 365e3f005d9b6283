// Package signature implements the updater's pluggable signature
// verification capability: given a downloaded bundle's raw bytes, its
// integrity string, and a signature string, decide whether the signature
// attests to that integrity string under some public key.
//
// Every concrete verifier wraps a Go stdlib crypto primitive
// (crypto/ecdsa, crypto/ed25519, crypto/rsa) rather than a third-party
// signing library: the core treats signature schemes as out-of-domain
// capabilities supplied by the embedding application, so reaching for the
// standard library's own primitives is the correct amount of dependency
// weight here (see DESIGN.md).
package signature

// Verifier is the capability the updater invokes during DownloadUpdate's
// signature step. bundleBytes is the full raw, undecoded download; message
// is the integrity header's own bytes (the "<algorithm>-<base64digest>"
// string, not the decoded digest); signature is the raw signature header
// value passed through as-is — no base64 decoding — matching the reference
// implementation's Signature::from_slice(signature.as_bytes()) call.
type Verifier interface {
	Verify(bundleBytes, message []byte, signature string) (bool, error)
}

// Func adapts a plain function to Verifier, letting an application supply
// a closure-based verifier without implementing a named type.
type Func func(bundleBytes, message []byte, signature string) (bool, error)

// Verify implements Verifier.
func (f Func) Verify(bundleBytes, message []byte, signature string) (bool, error) {
	return f(bundleBytes, message, signature)
}

// signatureBytes returns the signature header value's raw bytes, unmodified.
// The format passes the signature "as-is" to the verification primitive;
// there is no base64 (or other) encoding step to undo.
func signatureBytes(signature string) []byte {
	return []byte(signature)
}
