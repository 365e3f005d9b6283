package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/webviewbundle/wvb/bundle"
	"github.com/webviewbundle/wvb/checksum"
	"github.com/webviewbundle/wvb/protocol"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <bundle.wvb>",
	Short: "Serve a single .wvb bundle over plain HTTP",
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "address to listen on")
}

// fileSource adapts a single opened bundle file to protocol.Source,
// ignoring the bundle name in the request URI host — wvbctl serve only
// ever has one bundle loaded.
type fileSource struct {
	desc *bundle.Descriptor
	f    *os.File
	seed uint32
}

func (s *fileSource) LoadDescriptor(_ context.Context, _ string) (*bundle.Descriptor, error) {
	return s.desc, nil
}

func (s *fileSource) OpenDataReader(_ context.Context, _ string) (protocol.DataReader, error) {
	return nopCloseReaderAt{s.f}, nil
}

// nopCloseReaderAt wraps an *os.File so multiple in-flight requests against
// wvbctl serve don't close the shared handle; the process owns its lifetime.
type nopCloseReaderAt struct{ *os.File }

func (nopCloseReaderAt) Close() error { return nil }

func runServe(cmd *cobra.Command, args []string) error {
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	desc, err := bundle.ReadDescriptorAt(f, checksum.DefaultSeed, true)
	if err != nil {
		return fmt.Errorf("read descriptor: %w", err)
	}

	src := &fileSource{desc: desc, f: f, seed: checksum.DefaultSeed}
	proto := protocol.NewBundleProtocol(src, checksum.DefaultSeed, true)

	handler := func(w http.ResponseWriter, r *http.Request) {
		u := &url.URL{Host: "bundle", Path: r.URL.Path}

		req := &protocol.Request{
			Method:  protocol.Method(r.Method),
			URI:     u,
			Headers: protocol.Header{"range": {r.Header.Get("Range")}},
		}

		resp, err := proto.Handle(r.Context(), req)
		if err != nil {
			logger.Error("request failed", "path", r.URL.Path, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)

			return
		}

		for name, values := range resp.Headers {
			for _, v := range values {
				w.Header().Add(name, v)
			}
		}
		w.WriteHeader(resp.Status)
		if resp.Body != nil {
			_, _ = w.Write(resp.Body)
		}
	}

	logger.Info("serving bundle", "path", path, "addr", serveAddr, "entries", desc.Index.Len())

	return http.ListenAndServe(serveAddr, http.HandlerFunc(handler))
}
