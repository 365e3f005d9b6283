package remote_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/webviewbundle/wvb/internal/errs"
	"github.com/webviewbundle/wvb/remote"
)

func newTestClient(t *testing.T, handler fasthttp.RequestHandler) *remote.Client {
	t.Helper()

	ln := fasthttputil.NewInMemoryListener()
	t.Cleanup(func() { _ = ln.Close() })

	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()

	hc := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}

	c, err := remote.NewClient("http://wvb.test", remote.WithHTTPClient(hc))
	require.NoError(t, err)

	return c
}

func TestClient_ListBundles(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`[{"name":"app","version":"1.0.0"}]`)
	})

	got, err := c.ListBundles(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "app", got[0].Name)
	assert.Equal(t, "1.0.0", got[0].Version)
}

func TestClient_GetCurrentInfo(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("webview-bundle-name", "app")
		ctx.Response.Header.Set("webview-bundle-version", "2.0.0")
		ctx.Response.Header.Set("etag", `"abc"`)
	})

	info, err := c.GetCurrentInfo(context.Background(), "app")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", info.Version)
	assert.Equal(t, `"abc"`, info.ETag)
}

func TestClient_GetCurrentInfo_MissingHeaders(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {})

	_, err := c.GetCurrentInfo(context.Background(), "app")
	assert.ErrorIs(t, err, errs.ErrInvalidRemoteBundle)
}

func TestClient_GetCurrentInfo_NotFound(t *testing.T) {
	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(404)
	})

	_, err := c.GetCurrentInfo(context.Background(), "app")
	assert.ErrorIs(t, err, errs.ErrRemoteBundleNotFound)
}

func TestClient_Download(t *testing.T) {
	body := make([]byte, 1024)

	c := newTestClient(t, func(ctx *fasthttp.RequestCtx) {
		ctx.Response.Header.Set("webview-bundle-name", "app")
		ctx.Response.Header.Set("webview-bundle-version", "2.0.0")
		ctx.SetBody(body)
	})

	info, got, err := c.Download(context.Background(), "app")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", info.Version)
	assert.Equal(t, body, got)
}
