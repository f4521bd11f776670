package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/raysh454/brandscout/internal/logging"
)

// RodFetcher launches one browser per session through go-rod.
type RodFetcher struct {
	opts   Options
	logger logging.Logger
}

func NewRodFetcher(opts Options, logger logging.Logger) *RodFetcher {
	componentLogger := logger.With(logging.Field{Key: "backend", Value: "rod"})
	componentLogger.Info("created rod fetcher",
		logging.Field{Key: "navigation_timeout", Value: opts.NavigationTimeout.String()},
		logging.Field{Key: "headless", Value: opts.Headless})
	return &RodFetcher{opts: opts, logger: componentLogger}
}

func (f *RodFetcher) launcher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().Context(ctx).Headless(f.opts.Headless).
		Set("window-size", fmt.Sprintf("%d,%d", f.opts.ViewportWidth, f.opts.ViewportHeight))
	if f.opts.ExecPath != "" {
		l = l.Bin(f.opts.ExecPath)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}
	if f.opts.MaskAutomation {
		l = l.Set("disable-blink-features", "AutomationControlled")
	}
	return l
}

func (f *RodFetcher) Open(ctx context.Context, rawURL string) (Session, error) {
	l := f.launcher(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	s := &rodSession{browser: b, launcher: l, logger: f.logger}

	p, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.page = p

	if err := f.configure(s); err != nil {
		s.Close()
		return nil, err
	}

	if err := f.navigate(ctx, s, rawURL); err != nil {
		s.Close()
		return nil, err
	}

	f.logger.Debug("navigated",
		logging.Field{Key: "url", Value: rawURL},
		logging.Field{Key: "final_url", Value: s.url},
		logging.Field{Key: "status", Value: s.status})
	return s, nil
}

func (f *RodFetcher) configure(s *rodSession) error {
	p := s.page
	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             f.opts.ViewportWidth,
		Height:            f.opts.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.opts.UserAgent}); err != nil {
		return fmt.Errorf("set user agent: %w", err)
	}
	if len(f.opts.ExtraHeaders) > 0 {
		dict := make([]string, 0, len(f.opts.ExtraHeaders)*2)
		for k, v := range f.opts.ExtraHeaders {
			dict = append(dict, k, v)
		}
		if _, err := p.SetExtraHeaders(dict); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
	}
	if f.opts.MaskAutomation {
		if _, err := p.EvalOnNewDocument(maskScript); err != nil {
			return fmt.Errorf("install mask script: %w", err)
		}
	}
	if f.opts.blocksAnything() {
		router := p.HijackRequests()
		if err := router.Add("*", "", func(h *rod.Hijack) {
			if f.opts.blocks(string(h.Request.Type())) {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
			h.ContinueRequest(&proto.FetchContinueRequest{})
		}); err != nil {
			return fmt.Errorf("add request hijack: %w", err)
		}
		go router.Run()
		s.router = router
	}
	return nil
}

// navigate loads rawURL and records the main document response.
func (f *RodFetcher) navigate(ctx context.Context, s *rodSession, rawURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, f.opts.NavigationTimeout)
	defer cancel()
	p := s.page.Context(navCtx)

	statusCh := make(chan int, 1)
	wait := p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		statusCh <- e.Response.Status
		return true
	})
	go wait()

	err := p.Navigate(rawURL)
	if err == nil {
		err = p.WaitLoad()
	}
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("navigate %s: %w", rawURL, ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return &FetchTimeoutError{URL: rawURL, Timeout: f.opts.NavigationTimeout, Err: err}
		}
		return &FetchNoResponseError{URL: rawURL, Err: err}
	}

	got := false
	select {
	case s.status = <-statusCh:
		got = true
	case <-time.After(500 * time.Millisecond):
	}
	if err := checkStatus(rawURL, s.status, got); err != nil {
		return err
	}

	s.url = rawURL
	if info, err := s.page.Info(); err == nil && info.URL != "" {
		s.url = info.URL
	}
	return nil
}

func (f *RodFetcher) Close() error {
	f.logger.Info("closing rod fetcher")
	return nil
}

type rodSession struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	router   *rod.HijackRouter
	logger   logging.Logger

	url    string
	status int
}

func (s *rodSession) URL() string     { return s.url }
func (s *rodSession) StatusCode() int { return s.status }

// WaitForAny races one element query per selector.
func (s *rodSession) WaitForAny(ctx context.Context, selectors []string, timeout time.Duration) (bool, error) {
	if len(selectors) == 0 {
		return false, nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	race := s.page.Context(waitCtx).Race()
	for _, sel := range selectors {
		race = race.Element(sel)
	}
	_, err := race.Do()
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return false, nil
	}
	return false, err
}

func (s *rodSession) Evaluate(ctx context.Context, fn string, out any) error {
	obj, err := s.page.Context(ctx).Eval(fn)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if err := obj.Value.Unmarshal(out); err != nil {
		return fmt.Errorf("decode evaluation result: %w", err)
	}
	return nil
}

func (s *rodSession) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
		s.router = nil
	}
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.launcher = nil
	}
	return nil
}
