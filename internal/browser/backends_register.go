package browser

import (
	"github.com/raysh454/brandscout/internal/logging"
)

func init() {
	RegisterDefaultBackends()
}

// RegisterDefaultBackends registers the chromedp and rod backends.
func RegisterDefaultBackends() {
	RegisterBackend("chromedp", func(opts Options, logger logging.Logger) (Fetcher, error) {
		return NewChromedpFetcher(opts, logger), nil
	})
	RegisterBackend("rod", func(opts Options, logger logging.Logger) (Fetcher, error) {
		return NewRodFetcher(opts, logger), nil
	})
}
