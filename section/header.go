// Package section implements the low-level binary structures that make up
// a bundle file: the fixed header and the path-keyed index, including their
// Parse/Bytes encode-decode pairs.
package section

import (
	"fmt"

	"github.com/webviewbundle/wvb/checksum"
	"github.com/webviewbundle/wvb/endian"
	"github.com/webviewbundle/wvb/internal/errs"
)

var bigEndian = endian.GetBigEndianEngine()

// MagicLen is the length, in bytes, of the bundle file's magic prefix.
const MagicLen = 8

// HeaderSize is the fixed, on-disk size of a Header: magic(8) + version(1) +
// index-size(4) + checksum(4).
const HeaderSize = MagicLen + 1 + 4 + checksum.Size

// headerChecksumLen is the number of leading bytes the header checksum is
// computed over (everything but the checksum field itself).
const headerChecksumLen = HeaderSize - checksum.Size

// Version identifies the bundle file format revision.
type Version uint8

// V1 is the only format revision this package understands.
const V1 Version = 0x01

// Magic is the 8-byte sequence every bundle file begins with.
var Magic = [MagicLen]byte{0xF0, 0x9F, 0x8C, 0x90, 0xF0, 0x9F, 0x8E, 0x81}

// Header is the fixed 17-byte prefix of a bundle file.
type Header struct {
	Version   Version
	IndexSize uint32
}

// Bytes serializes h to its 17-byte on-disk form, computing the trailing
// checksum with the given seed.
func (h Header) Bytes(seed uint32) []byte {
	buf := make([]byte, headerChecksumLen, HeaderSize)
	copy(buf, Magic[:])
	buf[MagicLen] = byte(h.Version)
	bigEndian.PutUint32(buf[MagicLen+1:], h.IndexSize)

	return checksum.AppendBE(buf, seed, buf)
}

// ParseHeader decodes a Header from the first HeaderSize bytes of data. If
// verify is true, the trailing checksum is recomputed with seed and checked
// against the stored value.
func ParseHeader(data []byte, seed uint32, verify bool) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header requires %d bytes, got %d", errs.ErrDecode, HeaderSize, len(data))
	}

	if [MagicLen]byte(data[:MagicLen]) != Magic {
		return Header{}, errs.ErrInvalidMagic
	}

	version := Version(data[MagicLen])
	if version != V1 {
		return Header{}, fmt.Errorf("%w: %d", errs.ErrInvalidVersion, version)
	}

	indexSize := bigEndian.Uint32(data[MagicLen+1 : headerChecksumLen])

	if verify {
		want := bigEndian.Uint32(data[headerChecksumLen:HeaderSize])
		if !checksum.Verify(seed, data[:headerChecksumLen], want) {
			return Header{}, errs.ErrInvalidHeaderChecksum
		}
	}

	return Header{Version: version, IndexSize: indexSize}, nil
}
