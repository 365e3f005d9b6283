package protocol

import "net/url"

// DefaultPath is the path substituted when a request's decoded path is
// empty or "/".
const DefaultPath = "/index.html"

// URIResolver maps a request URI to a bundle name and an in-bundle path.
type URIResolver interface {
	Resolve(u *url.URL) (bundleName, path string)
}

// DefaultURIResolver implements the format's URI shape:
// <scheme>://<bundle-name>/<path>, host is the bundle name, path defaults
// to DefaultPath when empty.
type DefaultURIResolver struct{}

// Resolve implements URIResolver.
func (DefaultURIResolver) Resolve(u *url.URL) (string, string) {
	path := u.Path
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}

	if path == "" || path == "/" {
		path = DefaultPath
	}

	return u.Host, path
}
