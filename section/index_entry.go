package section

import (
	"fmt"

	"github.com/webviewbundle/wvb/internal/errs"
	"github.com/webviewbundle/wvb/varint"
)

// HeaderField is a single HTTP header name/value pair stored alongside an
// index entry. Name is expected to be an ASCII token; Value is an opaque
// byte string (it need not be valid UTF-8).
type HeaderField struct {
	Name  string
	Value []byte
}

// IndexEntry describes one path-addressed asset within a bundle's data
// section.
type IndexEntry struct {
	// Offset is the byte offset of the entry's compressed payload,
	// relative to the start of the data section.
	Offset uint64
	// Len is the length, in bytes, of the compressed payload (excluding
	// the trailing 4-byte checksum).
	Len uint64
	// ContentType is the MIME type to serve this entry with.
	ContentType string
	// ContentLength is the original, uncompressed byte length of the
	// entry's payload.
	ContentLength uint64
	// Headers are additional HTTP headers to copy into the response.
	Headers []HeaderField
}

// appendTo appends the binary encoding of e to dst:
//
//	offset(varint) len(varint) content-type(len-prefixed) content-length(varint)
//	headers-count(varint) [name(len-prefixed) value(len-prefixed)]*
func (e IndexEntry) appendTo(dst []byte) []byte {
	dst = varint.AppendUint64(dst, e.Offset)
	dst = varint.AppendUint64(dst, e.Len)
	dst = varint.AppendBytes(dst, []byte(e.ContentType))
	dst = varint.AppendUint64(dst, e.ContentLength)
	dst = varint.AppendUint64(dst, uint64(len(e.Headers)))
	for _, h := range e.Headers {
		dst = varint.AppendBytes(dst, []byte(h.Name))
		dst = varint.AppendBytes(dst, h.Value)
	}

	return dst
}

// decodeIndexEntry decodes a single IndexEntry from the front of data,
// returning the entry and the number of bytes consumed.
func decodeIndexEntry(data []byte) (IndexEntry, int, error) {
	var (
		e   IndexEntry
		n   int
		off int
	)

	readUint := func() (uint64, error) {
		v, consumed, err := varint.ReadUint64(data[off:])
		if err != nil {
			return 0, err
		}
		off += consumed

		return v, nil
	}
	readBytes := func() ([]byte, error) {
		b, consumed, err := varint.ReadBytes(data[off:])
		if err != nil {
			return nil, err
		}
		off += consumed

		return b, nil
	}

	var err error
	if e.Offset, err = readUint(); err != nil {
		return IndexEntry{}, 0, fmt.Errorf("%w: entry offset: %v", errs.ErrDecode, err)
	}
	if e.Len, err = readUint(); err != nil {
		return IndexEntry{}, 0, fmt.Errorf("%w: entry len: %v", errs.ErrDecode, err)
	}

	ct, err := readBytes()
	if err != nil {
		return IndexEntry{}, 0, fmt.Errorf("%w: content-type: %v", errs.ErrDecode, err)
	}
	e.ContentType = string(ct)

	if e.ContentLength, err = readUint(); err != nil {
		return IndexEntry{}, 0, fmt.Errorf("%w: content-length: %v", errs.ErrDecode, err)
	}

	headerCount, err := readUint()
	if err != nil {
		return IndexEntry{}, 0, fmt.Errorf("%w: header count: %v", errs.ErrDecode, err)
	}

	if headerCount > 0 {
		e.Headers = make([]HeaderField, 0, headerCount)
	}
	for i := uint64(0); i < headerCount; i++ {
		name, err := readBytes()
		if err != nil {
			return IndexEntry{}, 0, fmt.Errorf("%w: header name: %v", errs.ErrDecode, err)
		}
		value, err := readBytes()
		if err != nil {
			return IndexEntry{}, 0, fmt.Errorf("%w: header value: %v", errs.ErrDecode, err)
		}
		e.Headers = append(e.Headers, HeaderField{Name: string(name), Value: append([]byte(nil), value...)})
	}

	n = off

	return e, n, nil
}
