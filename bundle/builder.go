package bundle

import (
	"fmt"

	"github.com/webviewbundle/wvb/checksum"
	"github.com/webviewbundle/wvb/compress"
	"github.com/webviewbundle/wvb/section"
)

type builderEntry struct {
	data        []byte
	contentType string
	headers     []section.HeaderField
}

// Builder accumulates entries in memory and produces an immutable Bundle.
// Entries are kept in insertion order; re-inserting a path replaces its
// data without changing its position, matching the format's requirement
// that offset assignment and index encoding walk entries in one stable
// order (collect keys once, walk the vector twice).
type Builder struct {
	seed    uint32
	order   []string
	entries map[string]builderEntry
}

// NewBuilder returns an empty Builder using the given checksum seed (pass
// checksum.DefaultSeed for the format default).
func NewBuilder(seed uint32) *Builder {
	return &Builder{entries: make(map[string]builderEntry), seed: seed}
}

// AddEntry registers path with its original bytes, declared content-type,
// and optional extra headers. Compression happens in Build, so an entry
// can still be replaced cheaply before then.
func (b *Builder) AddEntry(path string, data []byte, contentType string, headers []section.HeaderField) {
	if _, exists := b.entries[path]; !exists {
		b.order = append(b.order, path)
	}
	b.entries[path] = builderEntry{data: data, contentType: contentType, headers: headers}
}

// Build runs the format's build pipeline: compress every entry, assign
// sequential data-section offsets while walking entries in insertion
// order, encode the index once to learn its size, and assemble the final
// data section bytes (compressed payload + per-entry checksum).
func (b *Builder) Build() (*Bundle, error) {
	idx := section.NewIndex()
	data := make([]byte, 0)

	var offset uint64
	for _, path := range b.order {
		e := b.entries[path]

		compressed, err := compress.CompressEntry(e.data)
		if err != nil {
			return nil, fmt.Errorf("bundle: compress %q: %w", path, err)
		}

		idx.Insert(path, section.IndexEntry{
			Offset:        offset,
			Len:           uint64(len(compressed)),
			ContentType:   e.contentType,
			ContentLength: uint64(len(e.data)),
			Headers:       e.headers,
		})

		data = append(data, compressed...)
		data = checksum.AppendBE(data, b.seed, compressed)
		offset += uint64(len(compressed)) + uint64(checksum.Size)
	}

	encodedIndex := idx.Encode()
	header := section.Header{Version: section.V1, IndexSize: uint32(len(encodedIndex))} //nolint:gosec

	return &Bundle{
		Descriptor: Descriptor{Header: header, Index: idx},
		Data:       data,
	}, nil
}
