package protocol

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/webviewbundle/wvb/bundle"
	"github.com/webviewbundle/wvb/metrics"
)

// Source is the capability the protocol needs from a bundle store: a
// cached descriptor lookup and a fresh, per-request reader over the
// bundle's data section. Implemented by source.Source.
type Source interface {
	LoadDescriptor(ctx context.Context, bundleName string) (*bundle.Descriptor, error)
	OpenDataReader(ctx context.Context, bundleName string) (DataReader, error)
}

// DataReader is a per-request handle onto a bundle's bytes: a seekable
// reader over the data section plus a Close to release the underlying
// file handle.
type DataReader interface {
	bundle.ReaderAt
	io.Closer
}

// Protocol is the request/response translation capability.
type Protocol interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// BundleProtocol implements Protocol against a Source.
type BundleProtocol struct {
	Source   Source
	Resolver URIResolver
	Seed     uint32
	Verify   bool
}

// NewBundleProtocol returns a BundleProtocol using DefaultURIResolver.
func NewBundleProtocol(src Source, seed uint32, verify bool) *BundleProtocol {
	return &BundleProtocol{Source: src, Resolver: DefaultURIResolver{}, Seed: seed, Verify: verify}
}

// Handle implements Protocol.
func (p *BundleProtocol) Handle(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := p.handle(ctx, req)

	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.Status)
	}
	metrics.RequestsTotal.WithLabelValues(status).Inc()
	metrics.RequestDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	return resp, err
}

func (p *BundleProtocol) handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Method != MethodGet && req.Method != MethodHead {
		return newResponse(405), nil
	}

	bundleName, path := p.Resolver.Resolve(req.URI)

	desc, err := p.Source.LoadDescriptor(ctx, bundleName)
	if err != nil {
		// The protocol never invents a 404 for a missing bundle — it
		// surfaces the error and lets the embedding shell decide how to
		// map it (in practice, a 500).
		return nil, err
	}

	entry, ok := desc.Index.Get(path)
	if !ok {
		return newResponse(404), nil
	}

	headers := make(Header, len(entry.Headers)+2)
	for _, h := range entry.Headers {
		headers.Add(h.Name, string(h.Value))
	}
	headers.Set("content-type", entry.ContentType)
	headers.Set("content-length", strconv.FormatUint(entry.ContentLength, 10))

	rangeHeader := req.Headers.Get("range")
	if rangeHeader == "" {
		return p.handleFull(ctx, bundleName, path, entry.ContentLength, req.Method, headers)
	}

	return p.handleRange(ctx, bundleName, path, entry.ContentType, int64(entry.ContentLength), req.Method, headers, rangeHeader) //nolint:gosec
}

func (p *BundleProtocol) handleFull(ctx context.Context, bundleName, path string, contentLength uint64, method Method, headers Header) (*Response, error) {
	resp := &Response{Status: 200, Headers: headers}
	if method == MethodHead {
		return resp, nil
	}

	data, err := p.readEntry(ctx, bundleName, path)
	if err != nil {
		return nil, err
	}
	resp.Body = data

	return resp, nil
}

func (p *BundleProtocol) handleRange(
	ctx context.Context, bundleName, path, contentType string, length int64,
	method Method, headers Header, rangeHeader string,
) (*Response, error) {
	headers.Set("accept-ranges", "bytes")
	headers.Set("access-control-expose-headers", "content-range")

	ranges, err := parseRanges(rangeHeader, length)
	if err != nil {
		resp := newResponse(416)
		resp.Headers.Set("content-range", fmt.Sprintf("bytes */%d", length))

		return resp, nil
	}

	if len(ranges) == 0 {
		resp := newResponse(416)
		resp.Headers.Set("content-range", fmt.Sprintf("bytes */%d", length))

		return resp, nil
	}

	var data []byte
	if method != MethodHead {
		data, err = p.readEntry(ctx, bundleName, path)
		if err != nil {
			return nil, err
		}
	}

	if len(ranges) == 1 {
		r := ranges[0]
		resp := &Response{Status: 206, Headers: headers}
		resp.Headers.Set("content-range", fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, length))
		resp.Headers.Set("content-length", strconv.FormatInt(r.End-r.Start+1, 10))

		if method != MethodHead {
			resp.Body = data[r.Start : r.End+1]
		}

		return resp, nil
	}

	boundary := randomBoundary()
	resp := &Response{Status: 206, Headers: headers}
	resp.Headers.Set("content-type", fmt.Sprintf("multipart/byteranges; boundary=%s", boundary))

	if method == MethodHead {
		return resp, nil
	}

	var body strings.Builder
	for _, r := range ranges {
		fmt.Fprintf(&body, "\r\n--%s\r\n", boundary)
		fmt.Fprintf(&body, "content-type: %s\r\n", contentType)
		fmt.Fprintf(&body, "content-range: bytes %d-%d/%d\r\n", r.Start, r.End, length)
		body.WriteString("\r\n")
		body.Write(data[r.Start : r.End+1])
	}
	fmt.Fprintf(&body, "\r\n--%s\r\n", boundary)
	resp.Body = []byte(body.String())

	return resp, nil
}

func (p *BundleProtocol) readEntry(ctx context.Context, bundleName, path string) ([]byte, error) {
	desc, err := p.Source.LoadDescriptor(ctx, bundleName)
	if err != nil {
		return nil, err
	}

	r, err := p.Source.OpenDataReader(ctx, bundleName)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return bundle.ReadEntry(r, desc, desc.DataOffset(), path, p.Seed, p.Verify)
}

// randomBoundary mirrors the reference implementation's random ASCII
// boundary generation (at least 60 hex characters): two UUIDv4 values,
// hyphens stripped, concatenated.
func randomBoundary() string {
	a := strings.ReplaceAll(uuid.New().String(), "-", "")
	b := strings.ReplaceAll(uuid.New().String(), "-", "")

	return a + b
}
