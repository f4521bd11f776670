// Package extract is the boundary into the page: one evaluation that
// returns plain data collected from the live DOM and CSSOM.
package extract

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/raysh454/brandscout/internal/browser"
	"github.com/raysh454/brandscout/internal/model"
)

//go:embed extract.js
var Script string

// ReadySelectors are weak "content is likely present" signals; the first
// to appear ends the ready wait.
var ReadySelectors = []string{
	"img",
	`link[rel="stylesheet"]`,
	"header",
	`a[href^="mailto:"]`,
	`a[href^="tel:"]`,
}

// Config controls the ready wait.
type Config struct {
	ReadyTimeout time.Duration
	SettleDelay  time.Duration
}

// DefaultConfig returns the 5s ready wait and 2s settle delay.
func DefaultConfig() Config {
	return Config{
		ReadyTimeout: 5 * time.Second,
		SettleDelay:  2 * time.Second,
	}
}

// EvaluationError wraps a failure escaping the in-page evaluation.
type EvaluationError struct {
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("in-page extraction failed: %v", e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// WaitReady waits for the first ready signal, then sleeps the settle delay.
// A ready timeout is not an error. It reports whether a signal was seen.
func WaitReady(ctx context.Context, s browser.Session, cfg Config) (bool, error) {
	matched, err := s.WaitForAny(ctx, ReadySelectors, cfg.ReadyTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		// Treat query failures like a timeout; extraction still runs.
		matched = false
	}
	if cfg.SettleDelay > 0 {
		t := time.NewTimer(cfg.SettleDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return matched, ctx.Err()
		case <-t.C:
		}
	}
	return matched, nil
}

// Extract runs Script in the page and returns the raw candidates.
func Extract(ctx context.Context, s browser.Session) (*model.RawPage, error) {
	var raw model.RawPage
	if err := s.Evaluate(ctx, Script, &raw); err != nil {
		return nil, &EvaluationError{Err: err}
	}
	if raw.PageURL == "" {
		raw.PageURL = s.URL()
	}
	return &raw, nil
}
