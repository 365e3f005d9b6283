// Package compress implements the entry payload codec used by the bundle
// data section: LZ4 block compression with a 4-byte little-endian
// uncompressed-size prefix, matching the "LZ4-frame-prepended-size"
// convention the format requires so a Go reader and the reference reader
// agree byte-for-byte on entry payloads.
package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/webviewbundle/wvb/endian"
	"github.com/webviewbundle/wvb/internal/pool"
)

// prefixLen is the width of the little-endian uncompressed-size prefix
// that precedes every entry's LZ4 block bytes.
const prefixLen = 4

var littleEndian = endian.GetLittleEndianEngine()

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// CompressEntry compresses data for storage in the bundle's data section.
// The returned slice is the on-disk entry payload: a 4-byte little-endian
// uncompressed-size prefix followed by the LZ4 block.
//
// Parameters:
//   - data: Original entry bytes to compress
//
// Returns:
//   - []byte: prefix + LZ4 block (nil if data is empty)
//   - error: Compression error if any
func CompressEntry(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dstSize := lz4.CompressBlockBound(len(data))
	dst := make([]byte, prefixLen+dstSize)
	littleEndian.PutUint32(dst[:prefixLen], uint32(len(data))) //nolint:gosec

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[prefixLen:])
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, lz4.ErrInvalidSourceShortBuffer
	}

	return dst[:prefixLen+n], nil
}

// DecompressEntry decompresses an on-disk entry payload produced by
// CompressEntry. wantLen is the entry's declared content-length
// (uncompressed size); the decompressed result must have exactly that
// length, per the format's invariant.
//
// A payload whose embedded size prefix differs from wantLen is rejected
// before any decompression, and a wantLen of zero yields nil. Otherwise
// decompression starts with a buffer of wantLen bytes and doubles it (up
// to a 256MiB limit) whenever LZ4 reports the buffer as too short.
//
// Parameters:
//   - payload: prefix + LZ4 block, as produced by CompressEntry
//   - wantLen: expected decompressed length (entry content-length)
//
// Returns:
//   - []byte: Decompressed data (nil if payload is empty)
//   - error: ErrInvalidSourceShortBuffer or a length-mismatch error
func DecompressEntry(payload []byte, wantLen int) ([]byte, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	if len(payload) < prefixLen {
		return nil, errors.New("compress: payload shorter than size prefix")
	}

	declared := int(littleEndian.Uint32(payload[:prefixLen]))
	if declared != wantLen {
		return nil, errors.New("compress: declared uncompressed size does not match entry content-length")
	}

	body := payload[prefixLen:]
	if wantLen == 0 {
		return nil, nil
	}

	const maxSize = 256 * 1024 * 1024 // 256MiB safety limit
	if wantLen > maxSize {
		return nil, lz4.ErrInvalidSourceShortBuffer
	}

	bb := pool.GetEntryBuffer()
	defer pool.PutEntryBuffer(bb)

	bufSize := wantLen
	for {
		bb.Reset()
		bb.Grow(bufSize)
		bb.SetLength(bufSize)

		n, err := lz4.UncompressBlock(body, bb.Bytes())
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxSize {
				bufSize *= 2
				if bufSize > maxSize {
					bufSize = maxSize
				}

				continue
			}

			return nil, err
		}
		if n != wantLen {
			return nil, errors.New("compress: decompressed length does not match content-length")
		}

		out := make([]byte, n)
		copy(out, bb.Bytes()[:n])

		return out, nil
	}
}
