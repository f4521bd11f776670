// Package browser drives a headless browser to a target URL and hands the
// loaded page to in-page extraction. Each Open call owns exactly one browser
// session, which the caller must Close on every path.
package browser

import (
	"context"
	"strings"
	"time"
)

// Fetcher opens isolated browser sessions.
type Fetcher interface {
	// Open navigates a fresh session to rawURL. On error no session is
	// left running.
	Open(ctx context.Context, rawURL string) (Session, error)

	// Close releases backend-wide resources.
	Close() error
}

// Session is a loaded page.
type Session interface {
	// URL is the document URL after redirects.
	URL() string

	// StatusCode is the status of the main navigation response.
	StatusCode() int

	// WaitForAny waits up to timeout for the first selector to appear. A
	// timeout yields (false, nil).
	WaitForAny(ctx context.Context, selectors []string, timeout time.Duration) (bool, error)

	// Evaluate runs a JavaScript function expression (`() => {...}`) in the
	// page and JSON-decodes its return value into out.
	Evaluate(ctx context.Context, fn string, out any) error

	// Close terminates the browser session.
	Close() error
}

// DefaultUserAgent resembles a desktop Chrome on Windows.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Options configures how sessions are opened.
type Options struct {
	Headless bool

	ViewportWidth  int
	ViewportHeight int

	// NavigationTimeout bounds the main navigation.
	NavigationTimeout time.Duration

	// BlockedResourceTypes are CDP resource types (case-insensitive) that are
	// failed before they hit the network, e.g. "media", "other".
	BlockedResourceTypes []string

	UserAgent string

	// MaskAutomation hides navigator.webdriver and the Blink
	// AutomationControlled feature.
	MaskAutomation bool

	// ExtraHeaders are sent with every request of the session.
	ExtraHeaders map[string]string

	// ExecPath overrides browser binary discovery.
	ExecPath string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Headless:             true,
		ViewportWidth:        1920,
		ViewportHeight:       1080,
		NavigationTimeout:    30 * time.Second,
		BlockedResourceTypes: []string{"media", "other"},
		UserAgent:            DefaultUserAgent,
		MaskAutomation:       true,
		ExtraHeaders: map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
		},
	}
}

// withDefaults fills zero values from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = d.ViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = d.ViewportHeight
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = d.NavigationTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	return o
}

// blocks reports whether resourceType is in the blocklist.
func (o Options) blocks(resourceType string) bool {
	for _, b := range o.BlockedResourceTypes {
		if strings.EqualFold(b, resourceType) {
			return true
		}
	}
	return false
}

// maskScript runs before any page script in every frame.
const maskScript = `(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	if (!window.chrome) { window.chrome = { runtime: {} }; }
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
})();`
