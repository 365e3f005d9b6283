// Package checksum implements the seeded 32-bit non-cryptographic checksum
// (C1) used at the three verification sites of a bundle: the header, the
// encoded index, and every entry's compressed payload.
//
// The checksum must be numerically identical to xxHash-32 so that bundles
// produced by other language implementations of the format verify
// correctly. The more common Go xxHash packages implement the 64-bit
// variant, which runs a different state machine and cannot be reused here.
package checksum

import (
	"github.com/pierrec/xxHash/xxHash32"

	"github.com/webviewbundle/wvb/endian"
)

// DefaultSeed is the seed used when a caller does not configure one.
const DefaultSeed uint32 = 0

// Size is the serialized length, in bytes, of a checksum value.
const Size = 4

var bigEndian = endian.GetBigEndianEngine()

// Sum computes the seeded 32-bit checksum over data.
func Sum(seed uint32, data []byte) uint32 {
	h := xxHash32.New(seed)
	_, _ = h.Write(data)

	return h.Sum32()
}

// AppendBE appends the big-endian encoding of the checksum of data (seeded
// with seed) to dst and returns the extended slice.
func AppendBE(dst []byte, seed uint32, data []byte) []byte {
	return bigEndian.AppendUint32(dst, Sum(seed, data))
}

// Verify reports whether want equals the checksum of data computed with
// seed.
func Verify(seed uint32, data []byte, want uint32) bool {
	return Sum(seed, data) == want
}
