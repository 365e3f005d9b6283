package section

import (
	"fmt"

	"github.com/webviewbundle/wvb/internal/errs"
	"github.com/webviewbundle/wvb/varint"
)

// Index is the path-keyed mapping of a bundle's index section. It keeps
// insertion order so a builder can assign data-section offsets while
// walking entries in the same order it later encodes and writes them, per
// the format's "stable iteration during build" requirement; readers must
// not rely on this order for anything beyond that.
type Index struct {
	order   []string
	entries map[string]IndexEntry
}

// NewIndex returns an empty Index ready for Insert.
func NewIndex() *Index {
	return &Index{entries: make(map[string]IndexEntry)}
}

// Insert adds or replaces the entry for path, appending path to the
// iteration order on first insertion.
func (idx *Index) Insert(path string, entry IndexEntry) {
	if _, exists := idx.entries[path]; !exists {
		idx.order = append(idx.order, path)
	}
	idx.entries[path] = entry
}

// Get looks up the entry for path.
func (idx *Index) Get(path string) (IndexEntry, bool) {
	e, ok := idx.entries[path]

	return e, ok
}

// Len returns the number of entries in the index.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Paths returns the entry paths in insertion order.
func (idx *Index) Paths() []string {
	return idx.order
}

// Encode serializes the index to its on-disk form: a varint entry count
// followed by that many (path, entry) records, in insertion order.
func (idx *Index) Encode() []byte {
	dst := varint.AppendUint64(nil, uint64(len(idx.order)))
	for _, path := range idx.order {
		dst = varint.AppendBytes(dst, []byte(path))
		dst = idx.entries[path].appendTo(dst)
	}

	return dst
}

// DecodeIndex parses an encoded index section (without its trailing
// checksum) back into an Index.
func DecodeIndex(data []byte) (*Index, error) {
	count, off, err := varint.ReadUint64(data)
	if err != nil {
		return nil, fmt.Errorf("%w: entry count: %v", errs.ErrDecode, err)
	}

	idx := &Index{
		order:   make([]string, 0, count),
		entries: make(map[string]IndexEntry, count),
	}

	for i := uint64(0); i < count; i++ {
		path, n, err := varint.ReadBytes(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d path: %v", errs.ErrDecode, i, err)
		}
		off += n

		entry, n, err := decodeIndexEntry(data[off:])
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", errs.ErrDecode, i, err)
		}
		off += n

		idx.Insert(string(path), entry)
	}

	return idx, nil
}
