package source

import (
	"context"
	"fmt"
	"os"

	"github.com/webviewbundle/wvb/internal/errs"
	"github.com/webviewbundle/wvb/protocol"
)

// dataReader adapts an *os.File to protocol.DataReader.
type dataReader struct {
	f *os.File
}

func (d dataReader) ReadAt(p []byte, off int64) (int, error) { return d.f.ReadAt(p, off) }
func (d dataReader) Close() error                            { return d.f.Close() }

// OpenDataReader opens a fresh file handle onto bundleName's resolved
// version, for a single request's cooperative entry read. Each call opens
// an independent handle so concurrent requests never share one, per the
// format's concurrency contract for cooperative reads.
func (s *Source) OpenDataReader(_ context.Context, bundleName string) (protocol.DataReader, error) {
	version, tier, err := s.Resolve(bundleName)
	if err != nil {
		return nil, err
	}

	path := s.Filepath(tier, bundleName, version)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.ErrBundleNotFound
		}

		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}

	return dataReader{f: f}, nil
}
