// Package bundle implements the high-level bundle codec (C2): building a
// bundle from entries, writing it to a stream, and reading it back either
// synchronously (entire bundle in memory) or cooperatively (descriptor
// only, then lazy per-entry reads against a seekable source).
package bundle

import (
	"fmt"

	"github.com/webviewbundle/wvb/checksum"
	"github.com/webviewbundle/wvb/endian"
	"github.com/webviewbundle/wvb/internal/errs"
	"github.com/webviewbundle/wvb/section"
)

var bigEndian = endian.GetBigEndianEngine()

// Descriptor is a bundle's header and index without its data section — the
// minimum needed to decide whether and how to serve a path.
type Descriptor struct {
	Header section.Header
	Index  *section.Index
}

// DataOffset returns the byte offset, relative to the start of the bundle
// file, at which the data section begins.
func (d *Descriptor) DataOffset() int64 {
	return int64(section.HeaderSize) + int64(d.Header.IndexSize) + int64(checksum.Size)
}

// ReadDescriptorAt parses a Descriptor from the first bytes of r: the
// 17-byte header, then IndexSize bytes of encoded index, then a 4-byte
// index checksum. If verify is true, both the header and index checksums
// are recomputed with seed and checked.
func ReadDescriptorAt(r ReaderAt, seed uint32, verify bool) (*Descriptor, error) {
	headerBuf := make([]byte, section.HeaderSize)
	if _, err := readFullAt(r, headerBuf, 0); err != nil {
		return nil, fmt.Errorf("bundle: read header: %w", err)
	}

	header, err := section.ParseHeader(headerBuf, seed, verify)
	if err != nil {
		return nil, err
	}

	indexBuf := make([]byte, int64(header.IndexSize)+int64(checksum.Size))
	if _, err := readFullAt(r, indexBuf, int64(section.HeaderSize)); err != nil {
		return nil, fmt.Errorf("bundle: read index: %w", err)
	}

	encodedIndex := indexBuf[:header.IndexSize]
	if verify {
		want := bigEndian.Uint32(indexBuf[header.IndexSize:])
		if !checksum.Verify(seed, encodedIndex, want) {
			return nil, errs.ErrInvalidIndexChecksum
		}
	}

	idx, err := section.DecodeIndex(encodedIndex)
	if err != nil {
		return nil, err
	}

	return &Descriptor{Header: header, Index: idx}, nil
}
