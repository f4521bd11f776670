// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without a real browser.
package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/raysh454/brandscout/internal/browser"
	"github.com/raysh454/brandscout/internal/logging"
	"github.com/raysh454/brandscout/internal/model"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnCount returns the number of recorded warnings.
func (l *DummyLogger) WarnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Warns)
}

// ─── Fetcher ───────────────────────────────────────────────────────────

// FakeFetcher implements browser.Fetcher. Open returns Session (or a fresh
// empty FakeSession) unless OpenErr is set.
type FakeFetcher struct {
	Session *FakeSession
	OpenErr error
	// OpenDelay blocks Open until it elapses or ctx is done.
	OpenDelay time.Duration

	mu     sync.Mutex
	Opened int
	URLs   []string
}

func (f *FakeFetcher) Open(ctx context.Context, rawURL string) (browser.Session, error) {
	if f.OpenDelay > 0 {
		select {
		case <-time.After(f.OpenDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.Opened++
	f.URLs = append(f.URLs, rawURL)
	f.mu.Unlock()

	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	if f.Session == nil {
		return &FakeSession{PageURL: rawURL, Status: 200}, nil
	}
	return f.Session, nil
}

func (f *FakeFetcher) Close() error { return nil }

// OpenCount returns how many times Open was called.
func (f *FakeFetcher) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Opened
}

// FakeSession implements browser.Session over a canned RawPage.
type FakeSession struct {
	PageURL string
	Status  int
	Ready   bool
	WaitErr error
	Raw     *model.RawPage
	EvalErr error

	mu        sync.Mutex
	closed    int
	waits     int
	evaluated []string
}

func (s *FakeSession) URL() string     { return s.PageURL }
func (s *FakeSession) StatusCode() int { return s.Status }

func (s *FakeSession) WaitForAny(ctx context.Context, selectors []string, timeout time.Duration) (bool, error) {
	s.mu.Lock()
	s.waits++
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.Ready, s.WaitErr
}

// Evaluate JSON-roundtrips Raw into out, as a real page evaluation would.
func (s *FakeSession) Evaluate(ctx context.Context, fn string, out any) error {
	s.mu.Lock()
	s.evaluated = append(s.evaluated, fn)
	s.mu.Unlock()
	if s.EvalErr != nil {
		return s.EvalErr
	}
	raw := s.Raw
	if raw == nil {
		raw = &model.RawPage{PageURL: s.PageURL}
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// Closed returns how many times Close was called.
func (s *FakeSession) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Waits returns how many ready waits were performed.
func (s *FakeSession) Waits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waits
}

// Evaluations returns the scripts passed to Evaluate.
func (s *FakeSession) Evaluations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.evaluated...)
}
