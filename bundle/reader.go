package bundle

import (
	"bytes"
	"fmt"
	"io"

	"github.com/webviewbundle/wvb/checksum"
	"github.com/webviewbundle/wvb/compress"
	"github.com/webviewbundle/wvb/internal/errs"
)

// ReaderAt is the minimal capability the cooperative reader needs from its
// byte source. *os.File and *bytes.Reader both satisfy it. Implementations
// that serve multiple concurrent ReadAt calls against the same underlying
// resource must serialize them internally; the bundle package never holds
// a lock across an I/O suspension point.
type ReaderAt interface {
	ReadAt(p []byte, off int64) (int, error)
}

func readFullAt(r ReaderAt, buf []byte, off int64) (int, error) {
	n, err := r.ReadAt(buf, off)
	if err != nil && !(err == io.EOF && n == len(buf)) {
		return n, err
	}

	return n, nil
}

// Bundle is a fully materialized bundle: a Descriptor plus the raw bytes of
// the data section (compressed entry payloads, each followed by its 4-byte
// checksum, laid out in the same order the descriptor's offsets assume).
type Bundle struct {
	Descriptor Descriptor
	Data       []byte
}

// ReadFull reads an entire bundle into memory from r.
func ReadFull(r io.Reader, seed uint32, verify bool) (*Bundle, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bundle: read: %w", err)
	}

	ra := bytes.NewReader(all)
	desc, err := ReadDescriptorAt(ra, seed, verify)
	if err != nil {
		return nil, err
	}

	dataStart := desc.DataOffset()
	if dataStart > int64(len(all)) {
		return nil, fmt.Errorf("%w: data section truncated", errs.ErrDecode)
	}

	return &Bundle{Descriptor: *desc, Data: all[dataStart:]}, nil
}

// GetData returns the decompressed bytes for path, reading from the
// in-memory data section. It returns (nil, false) if path has no entry.
func (b *Bundle) GetData(path string, seed uint32, verify bool) ([]byte, bool, error) {
	entry, ok := b.Descriptor.Index.Get(path)
	if !ok {
		return nil, false, nil
	}

	end := entry.Offset + entry.Len + uint64(checksum.Size)
	if end > uint64(len(b.Data)) {
		return nil, true, fmt.Errorf("%w: entry %q out of bounds", errs.ErrDecode, path)
	}

	record := b.Data[entry.Offset:end]
	payload := record[:entry.Len]
	trailer := record[entry.Len:]

	if verify {
		want := bigEndian.Uint32(trailer)
		if !checksum.Verify(seed, payload, want) {
			return nil, true, errs.ErrInvalidEntryChecksum
		}
	}

	data, err := compress.DecompressEntry(payload, int(entry.ContentLength))
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", errs.ErrDecompress, err)
	}

	return data, true, nil
}

// ReadEntry performs a cooperative single-entry read: given a descriptor
// already obtained from ReadDescriptorAt, the byte offset at which the
// data section begins in r (baseOffset — 0 when r is a buffer containing
// only the data section, Descriptor.DataOffset() when r is the original
// file), and a path, it seeks to the entry's record and decompresses it.
func ReadEntry(r ReaderAt, d *Descriptor, baseOffset int64, path string, seed uint32, verify bool) ([]byte, error) {
	entry, ok := d.Index.Get(path)
	if !ok {
		return nil, errs.ErrEntryNotFound
	}

	record := make([]byte, entry.Len+uint64(checksum.Size))
	if _, err := readFullAt(r, record, baseOffset+int64(entry.Offset)); err != nil {
		return nil, fmt.Errorf("bundle: read entry %q: %w", path, err)
	}

	payload := record[:entry.Len]
	trailer := record[entry.Len:]

	if verify {
		want := bigEndian.Uint32(trailer)
		if !checksum.Verify(seed, payload, want) {
			return nil, errs.ErrInvalidEntryChecksum
		}
	}

	data, err := compress.DecompressEntry(payload, int(entry.ContentLength))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDecompress, err)
	}

	return data, nil
}
