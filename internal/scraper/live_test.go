package scraper_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/brandscout/internal/browser"
	"github.com/raysh454/brandscout/internal/demoserver"
	"github.com/raysh454/brandscout/internal/extract"
	"github.com/raysh454/brandscout/internal/scraper"
	"github.com/raysh454/brandscout/internal/testutil"
)

// TestLive_DemoAgency runs the whole pipeline in a real browser against the
// demo agency site. It skips when no browser can be started.
func TestLive_DemoAgency(t *testing.T) {
	ts := httptest.NewServer(demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler())
	defer ts.Close()

	opts := browser.DefaultOptions()
	opts.NavigationTimeout = 20 * time.Second
	f, err := browser.NewFetcher("chromedp", opts, &testutil.DummyLogger{})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	defer f.Close()

	s := scraper.New(f, scraper.Config{
		Extract:        extract.Config{ReadyTimeout: 5 * time.Second, SettleDelay: 500 * time.Millisecond},
		RequestTimeout: time.Minute,
	}, &testutil.DummyLogger{})

	res, err := s.Scrape(context.Background(), ts.URL+"/")
	if err != nil {
		var httpErr *browser.FetchHTTPError
		if errors.As(err, &httpErr) {
			t.Fatalf("unexpected HTTP error: %v", err)
		}
		t.Skipf("Skipping browser test (environment does not support a headless browser): %v", err)
	}

	if len(res.Logos) != 1 || !strings.HasSuffix(res.Logos[0].URL, "/static/logo.png") {
		t.Errorf("expected the header logo only, got %+v", res.Logos)
	}

	names := map[string]string{}
	for _, f := range res.Fonts {
		names[f.Name] = f.Format
	}
	if names["Google Font"] != "google" {
		t.Errorf("missing Google Font: %+v", res.Fonts)
	}
	if names["Harbour Sans"] != "woff2" || names["Harbour Serif"] != "ttf" {
		t.Errorf("missing @font-face fonts: %+v", res.Fonts)
	}
	if _, ok := names["Font Awesome 6 Free"]; ok {
		t.Error("icon font should be filtered")
	}
	if _, ok := names["Material Icons"]; ok {
		t.Error("icon font should be filtered")
	}

	ad := res.AgencyDetails
	if ad.Name != "Harbour" || ad.Email != "hello@harbour-realty.test" || ad.Phone != "+61290001234" {
		t.Errorf("unexpected agency details: %+v", ad)
	}
	if ad.Website != ts.URL {
		t.Errorf("website = %q, want %q", ad.Website, ts.URL)
	}

	_, err = s.Scrape(context.Background(), ts.URL+"/gone")
	var httpErr *browser.FetchHTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Errorf("expected 404 FetchHTTPError, got %v", err)
	}
}
