package store

import (
	"fmt"
	"net/url"
	"strings"
)

// Locator is a parsed database handle.
//
// A handle has the form "scheme:///path", "scheme://host:port/name" or just
// "scheme", the last meaning the default (often ephemeral) instance of that
// scheme. The scheme is everything before the first colon.
type Locator struct {
	// Raw is the handle as given.
	Raw string

	Scheme string

	// Bare is true when the handle consisted of the scheme only.
	Bare bool

	// Host includes the port when one was given.
	Host string

	// Path is the part after the authority, for example "/data/people.db"
	// or "/:memory:". Opaque handles such as "sqlite:people.db" yield the
	// opaque part as Path.
	Path string

	User   *url.Userinfo
	Params url.Values
}

// ParseLocator parses a database handle.
func ParseLocator(handle string) (Locator, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return Locator{}, fmt.Errorf("empty handle: %w", ErrInvalidLocator)
	}

	idx := strings.Index(handle, ":")
	if idx < 0 {
		return Locator{Raw: handle, Scheme: handle, Bare: true, Params: url.Values{}}, nil
	}
	scheme := handle[:idx]
	if scheme == "" {
		return Locator{}, fmt.Errorf("handle %q has no scheme: %w", handle, ErrInvalidLocator)
	}

	loc := Locator{Raw: handle, Scheme: scheme, Params: url.Values{}}
	rest := handle[idx+1:]
	if rest == "" {
		loc.Bare = true
		return loc, nil
	}

	if !strings.HasPrefix(rest, "//") {
		// scheme:relative/path
		path, params, _ := strings.Cut(rest, "?")
		loc.Path = path
		if params != "" {
			values, err := url.ParseQuery(params)
			if err != nil {
				return Locator{}, fmt.Errorf("handle %q: %v: %w", handle, err, ErrInvalidLocator)
			}
			loc.Params = values
		}
		return loc, nil
	}

	u, err := url.Parse(handle)
	if err != nil {
		return Locator{}, fmt.Errorf("handle %q: %v: %w", handle, err, ErrInvalidLocator)
	}
	loc.Host = u.Host
	loc.Path = u.Path
	loc.User = u.User
	loc.Params = u.Query()
	return loc, nil
}

// Name returns the path without its leading slash, which network stores use
// as database or namespace name.
func (l Locator) Name() string {
	return strings.Trim(l.Path, "/")
}

// String returns the raw handle.
func (l Locator) String() string {
	return l.Raw
}
