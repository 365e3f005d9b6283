// Package varint implements the big-endian variable-length unsigned integer
// encoding used throughout the bundle index: entry counts and byte-string
// length prefixes are all varints per the format's index grammar.
//
// The encoding is the same continuation-bit scheme as protobuf/LEB128 but
// big-endian bit-group order, matching the wire format the bundle codec
// must produce byte-for-byte.
package varint

import "io"

// MaxLen is the maximum number of bytes a uint64 varint can occupy.
const MaxLen = 10

// AppendUint64 appends the varint encoding of v to dst and returns the
// extended slice.
func AppendUint64(dst []byte, v uint64) []byte {
	var buf [MaxLen]byte
	n := putUint64(buf[:], v)

	return append(dst, buf[:n]...)
}

func putUint64(buf []byte, v uint64) int {
	// Emit 7-bit groups most-significant-group first, continuation bit set
	// on every group but the last, matching the format's big-endian varint.
	var groups [MaxLen]byte
	n := 0
	groups[n] = byte(v & 0x7f)
	v >>= 7
	n++
	for v > 0 {
		groups[n] = byte(v & 0x7f)
		v >>= 7
		n++
	}

	for i := 0; i < n; i++ {
		b := groups[n-1-i]
		if i != n-1 {
			b |= 0x80
		}
		buf[i] = b
	}

	return n
}

// ReadUint64 decodes a varint from the front of data, returning the value
// and the number of bytes consumed. It returns (0, 0, io.ErrUnexpectedEOF)
// if data is exhausted before a terminating byte is found.
func ReadUint64(data []byte) (uint64, int, error) {
	var v uint64
	for i, b := range data {
		if i == MaxLen {
			return 0, 0, io.ErrUnexpectedEOF
		}
		v = (v << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}

	return 0, 0, io.ErrUnexpectedEOF
}

// AppendBytes appends a length-prefixed byte string (varint length, then
// the bytes) to dst.
func AppendBytes(dst []byte, b []byte) []byte {
	dst = AppendUint64(dst, uint64(len(b)))
	dst = append(dst, b...)

	return dst
}

// ReadBytes reads a length-prefixed byte string from the front of data,
// returning a view into data, the number of bytes consumed (prefix + body),
// and any error.
func ReadBytes(data []byte) ([]byte, int, error) {
	length, n, err := ReadUint64(data)
	if err != nil {
		return nil, 0, err
	}

	end := n + int(length)
	if end > len(data) || end < n {
		return nil, 0, io.ErrUnexpectedEOF
	}

	return data[n:end], end, nil
}
