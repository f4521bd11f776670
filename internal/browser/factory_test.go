package browser_test

import (
	"context"
	"testing"

	"github.com/raysh454/brandscout/internal/browser"
	"github.com/raysh454/brandscout/internal/logging"
	"github.com/raysh454/brandscout/internal/testutil"
)

func TestListBackends_Defaults(t *testing.T) {
	t.Parallel()
	got := browser.ListBackends()
	want := map[string]bool{"chromedp": false, "rod": false}
	for _, name := range got {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("expected backend %q registered, got %v", name, got)
		}
	}
}

func TestNewFetcher_DefaultBackend(t *testing.T) {
	t.Parallel()
	f, err := browser.NewFetcher("", browser.DefaultOptions(), &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	defer f.Close()
	if _, ok := f.(*browser.ChromedpFetcher); !ok {
		t.Errorf("expected chromedp fetcher by default, got %T", f)
	}
}

func TestNewFetcher_Rod(t *testing.T) {
	t.Parallel()
	f, err := browser.NewFetcher("ROD", browser.DefaultOptions(), &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	defer f.Close()
	if _, ok := f.(*browser.RodFetcher); !ok {
		t.Errorf("expected rod fetcher, got %T", f)
	}
}

func TestNewFetcher_UnknownBackend(t *testing.T) {
	t.Parallel()
	f, err := browser.NewFetcher("unknown", browser.DefaultOptions(), &testutil.DummyLogger{})
	if err == nil {
		t.Fatal("Expected error for unknown backend, got nil")
	}
	if f != nil {
		t.Fatal("Expected nil fetcher for unknown backend")
	}
}

func TestRegisterBackend_Overrides(t *testing.T) {
	t.Parallel()
	fake := &testutil.FakeFetcher{}
	browser.RegisterBackend("fake-override", func(browser.Options, logging.Logger) (browser.Fetcher, error) {
		return fake, nil
	})
	f, err := browser.NewFetcher("fake-override", browser.Options{}, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	if _, err := f.Open(context.Background(), "https://a.test"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if fake.Opened != 1 {
		t.Errorf("expected fake fetcher used, opened=%d", fake.Opened)
	}
}
