package bundle

import (
	"io"

	"github.com/webviewbundle/wvb/checksum"
)

// Write emits b to w in the format's on-disk order: header, encoded index
// + index checksum, then the data section (already containing a checksum
// after each entry, as produced by Builder.Build). It returns the total
// number of bytes written.
func Write(w io.Writer, b *Bundle, seed uint32) (int64, error) {
	var total int64

	headerBytes := b.Descriptor.Header.Bytes(seed)
	n, err := w.Write(headerBytes)
	total += int64(n)
	if err != nil {
		return total, err
	}

	encodedIndex := b.Descriptor.Index.Encode()
	indexRecord := checksum.AppendBE(append([]byte(nil), encodedIndex...), seed, encodedIndex)
	n, err = w.Write(indexRecord)
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = w.Write(b.Data)
	total += int64(n)

	return total, err
}
