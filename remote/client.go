// Package remote implements the HTTP client side of the updater's wire
// protocol: listing available bundles, fetching current-version metadata,
// and downloading bundle bytes with progress callbacks, all against a
// single configured endpoint.
//
// The client is built on github.com/valyala/fasthttp, following the
// acquire/release request-response idiom used elsewhere in the retrieval
// pack's fasthttp-based proxy client, and uses github.com/goware/urlx to
// validate the endpoint URL (trailing slashes are trimmed separately).
package remote

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goware/urlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"

	"github.com/webviewbundle/wvb/internal/errs"
	"github.com/webviewbundle/wvb/internal/options"
	"github.com/webviewbundle/wvb/internal/pool"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Header names the wire protocol uses, per the format's metadata response
// contract.
const (
	headerBundleName    = "webview-bundle-name"
	headerBundleVersion = "webview-bundle-version"
	headerETag          = "etag"
	headerLastModified  = "last-modified"
	headerIntegrity     = "webview-bundle-integrity"
	headerSignature     = "webview-bundle-signature"
)

// BundleInfo is the metadata carried on a bundle list entry or a
// metadata/download response.
type BundleInfo struct {
	Name         string
	Version      string
	ETag         string
	LastModified string
	Integrity    string
	Signature    string
}

// OnDownload is invoked at each chunk boundary while a download streams in,
// mirroring the reference implementation's on_download(downloaded, total,
// endpoint) progress callback.
type OnDownload func(downloaded, total uint64, endpoint string)

// Config configures a Client.
type Config struct {
	Channel    string
	HTTPClient *fasthttp.Client
	OnDownload OnDownload
}

// Option configures a Client at construction time.
type Option = options.Option[*Config]

// WithChannel scopes list/update operations to a named release channel.
func WithChannel(channel string) Option {
	return options.NoError(func(c *Config) { c.Channel = channel })
}

// WithHTTPClient overrides the fasthttp.Client used for all requests.
func WithHTTPClient(hc *fasthttp.Client) Option {
	return options.NoError(func(c *Config) { c.HTTPClient = hc })
}

// WithOnDownload installs a download progress callback.
func WithOnDownload(cb OnDownload) Option {
	return options.NoError(func(c *Config) { c.OnDownload = cb })
}

// Client drives the updater's wire protocol against a single endpoint.
type Client struct {
	endpoint string
	cfg      Config
}

// NewClient returns a Client for endpoint (any trailing slash is trimmed),
// applying opts over the default configuration.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	parsed, err := urlx.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidRemoteURL, endpoint)
	}

	cfg := Config{HTTPClient: &fasthttp.Client{Name: "wvb-remote-client"}}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &Client{endpoint: strings.TrimRight(endpoint, "/"), cfg: cfg}, nil
}

// buildURL appends route to the endpoint and, when a channel is
// configured, a correctly-encoded channel query parameter.
func (c *Client) buildURL(route string) string {
	if c.cfg.Channel == "" {
		return c.endpoint + route
	}

	var values fasthttp.Args
	values.Set("channel", c.cfg.Channel)

	return c.endpoint + route + "?" + values.String()
}

func mapStatusError(status int, body []byte) error {
	switch status {
	case 403:
		return errs.ErrRemoteForbidden
	case 404:
		return errs.ErrRemoteBundleNotFound
	default:
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			return fmt.Errorf("%w: status %d", errs.ErrRemoteHTTP, status)
		}

		return fmt.Errorf("%w: status %d: %s", errs.ErrRemoteHTTP, status, msg)
	}
}

func infoFromHeaders(h *fasthttp.ResponseHeader, fallbackName string) (BundleInfo, error) {
	name := string(h.Peek(headerBundleName))
	version := string(h.Peek(headerBundleVersion))
	if name == "" || version == "" {
		return BundleInfo{}, fmt.Errorf("%w: header missing", errs.ErrInvalidRemoteBundle)
	}
	if fallbackName != "" && name != fallbackName {
		return BundleInfo{}, fmt.Errorf("%w: name mismatch", errs.ErrInvalidRemoteBundle)
	}

	return BundleInfo{
		Name:         name,
		Version:      version,
		ETag:         string(h.Peek(headerETag)),
		LastModified: string(h.Peek(headerLastModified)),
		Integrity:    string(h.Peek(headerIntegrity)),
		Signature:    string(h.Peek(headerSignature)),
	}, nil
}

// ListBundles returns every bundle known to the endpoint (optionally
// scoped to the configured channel).
func (c *Client) ListBundles(ctx context.Context) ([]BundleInfo, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.buildURL("/bundles"))
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.do(ctx, req, resp); err != nil {
		return nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, mapStatusError(resp.StatusCode(), resp.Body())
	}

	var entries []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidRemoteBundle, err)
	}

	out := make([]BundleInfo, len(entries))
	for i, e := range entries {
		out[i] = BundleInfo{Name: e.Name, Version: e.Version}
	}

	return out, nil
}

// GetCurrentInfo fetches the current-version metadata for name via HEAD,
// without downloading bundle bytes.
func (c *Client) GetCurrentInfo(ctx context.Context, name string) (*BundleInfo, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.buildURL("/bundles/" + name))
	req.Header.SetMethod(fasthttp.MethodHead)

	if err := c.do(ctx, req, resp); err != nil {
		return nil, err
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, mapStatusError(resp.StatusCode(), resp.Body())
	}

	info, err := infoFromHeaders(&resp.Header, name)
	if err != nil {
		return nil, err
	}

	return &info, nil
}

// Download fetches name's current bundle bytes.
func (c *Client) Download(ctx context.Context, name string) (*BundleInfo, []byte, error) {
	return c.download(ctx, "/bundles/"+name, name)
}

// DownloadVersion fetches a specific version's bundle bytes.
func (c *Client) DownloadVersion(ctx context.Context, name, version string) (*BundleInfo, []byte, error) {
	return c.download(ctx, "/bundles/"+name+"/"+version, name)
}

func (c *Client) download(ctx context.Context, route, name string) (*BundleInfo, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.buildURL(route))
	req.Header.SetMethod(fasthttp.MethodGet)
	resp.StreamBody = true

	if err := c.do(ctx, req, resp); err != nil {
		return nil, nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, nil, mapStatusError(resp.StatusCode(), resp.Body())
	}

	info, err := infoFromHeaders(&resp.Header, name)
	if err != nil {
		return nil, nil, err
	}

	total, _ := strconv.ParseUint(string(resp.Header.Peek("content-length")), 10, 64)

	buf := pool.GetBundleBuffer()
	defer pool.PutBundleBuffer(buf)

	stream := resp.BodyStream()
	chunk := make([]byte, 32*1024)
	var downloaded uint64
	for {
		n, readErr := stream.Read(chunk)
		if n > 0 {
			buf.MustWrite(chunk[:n])
			downloaded += uint64(n)
			if c.cfg.OnDownload != nil {
				c.cfg.OnDownload(downloaded, total, c.endpoint+route)
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				return nil, nil, fmt.Errorf("remote: stream %s: %w", route, readErr)
			}

			break
		}
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return &info, out, nil
}

func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.cfg.HTTPClient.DoDeadline(req, resp, deadline)
	}

	return c.cfg.HTTPClient.Do(req, resp)
}
