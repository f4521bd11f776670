package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL       = errors.New("empty url")
	ErrMissingHost    = errors.New("missing host")
	ErrNotAbsolute    = errors.New("url is not absolute")
	ErrUnsupportedURL = errors.New("unsupported url scheme")
)

// ValidateTarget checks that raw is a well-formed absolute http(s) URL and
// returns it with a lower-cased, punycoded host and no fragment. It performs
// no network I/O.
func ValidateTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%q: %w", raw, ErrNotAbsolute)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%q: %w", u.Scheme, ErrUnsupportedURL)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%q: %w", raw, ErrMissingHost)
	}
	u.Host = normalizeHost(u)
	u.Fragment = ""
	u.RawFragment = ""
	return u, nil
}

func normalizeHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") || port == "" {
		if strings.Contains(host, ":") {
			// IPv6 literal
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

// Resolve resolves ref against base and returns an absolute URL string.
// data: URLs and already absolute URLs are returned as-is.
func Resolve(base *url.URL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrEmptyURL
	}
	if IsDataURL(ref) {
		return ref, nil
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", ref, err)
	}
	if base == nil {
		if !r.IsAbs() {
			return "", fmt.Errorf("%q: %w", ref, ErrNotAbsolute)
		}
		return r.String(), nil
	}
	return base.ResolveReference(r).String(), nil
}

// IsDataURL reports whether raw uses the data: scheme.
func IsDataURL(raw string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "data:")
}

// Origin returns scheme://host[:port] of u.
//
//	https://www.acme.com/listings?id=4  -> https://www.acme.com
func Origin(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// HostLabel returns the first DNS label of u's hostname, skipping a leading
// "www".
//
//	https://www.acme-realty.com.au -> acme-realty
func HostLabel(u *url.URL) string {
	if u == nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	label, _, _ := strings.Cut(host, ".")
	return label
}

// CanonicalizeOptions controls optional canonicalization policies.
type CanonicalizeOptions struct {
	DropTrackingParams bool // remove common tracking params (utm_*, gclid, fbclid, ...)
	StripTrailingSlash bool // treat /a and /a/ the same (except for root "/")
}

var defaultTrackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"gclid": {}, "fbclid": {}, "mc_cid": {}, "mc_eid": {},
}

// Canonicalize returns a deterministic form of a target URL, used to group
// scrapes of the same site in history.
func Canonicalize(raw string, opts CanonicalizeOptions) (string, error) {
	u, err := ValidateTarget(raw)
	if err != nil {
		return "", err
	}
	u.User = nil

	cleanPath := path.Clean(u.Path)
	if cleanPath == "." {
		cleanPath = "/"
	}
	if opts.StripTrailingSlash && len(cleanPath) > 1 {
		cleanPath = strings.TrimRight(cleanPath, "/")
	}
	u.Path = cleanPath
	u.RawPath = ""

	q := u.Query()
	if opts.DropTrackingParams {
		for k := range q {
			if _, ok := defaultTrackingParams[strings.ToLower(k)]; ok {
				q.Del(k)
			}
		}
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := url.Values{}
	for _, k := range keys {
		values := q[k]
		sort.Strings(values)
		for _, v := range values {
			ordered.Add(k, v)
		}
	}
	u.RawQuery = ordered.Encode()

	return u.String(), nil
}
