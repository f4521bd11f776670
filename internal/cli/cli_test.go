package cli

import (
	"bytes"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBackends_ListsDefault(t *testing.T) {
	t.Parallel()
	out, err := run(t, "backends")
	if err != nil {
		t.Fatalf("backends: %v", err)
	}
	if !strings.Contains(out, "chromedp (default)") || !strings.Contains(out, "rod") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestScrape_RequiresURL(t *testing.T) {
	t.Parallel()
	if _, err := run(t, "scrape"); err == nil {
		t.Fatal("expected error without url argument")
	}
}

func TestScrape_UnknownBackend(t *testing.T) {
	t.Parallel()
	_, err := run(t, "--backend", "netscape", "scrape", "https://example.com")
	if err == nil || !strings.Contains(err.Error(), "netscape") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func TestServe_RejectsArgs(t *testing.T) {
	t.Parallel()
	if _, err := run(t, "serve", "extra"); err == nil {
		t.Fatal("expected error for positional args")
	}
}

func TestRootOptions_FlagOverrides(t *testing.T) {
	t.Parallel()
	o := &rootOptions{logLevel: "debug", backend: "rod"}
	cfg, err := o.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Browser.Backend != "rod" {
		t.Errorf("flags not applied: %+v %+v", cfg.Logging, cfg.Browser)
	}
}
