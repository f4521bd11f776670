package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/brandscout/internal/logging"
)

// ChromedpFetcher launches one Chrome process per session through chromedp.
type ChromedpFetcher struct {
	opts   Options
	logger logging.Logger
}

func NewChromedpFetcher(opts Options, logger logging.Logger) *ChromedpFetcher {
	componentLogger := logger.With(logging.Field{Key: "backend", Value: "chromedp"})
	componentLogger.Info("created chromedp fetcher",
		logging.Field{Key: "navigation_timeout", Value: opts.NavigationTimeout.String()},
		logging.Field{Key: "headless", Value: opts.Headless})
	return &ChromedpFetcher{opts: opts, logger: componentLogger}
}

func (f *ChromedpFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.WindowSize(f.opts.ViewportWidth, f.opts.ViewportHeight),
		chromedp.UserAgent(f.opts.UserAgent),
	)
	if !f.opts.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if f.opts.MaskAutomation {
		opts = append(opts,
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.Flag("enable-automation", false),
		)
	}
	if f.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.opts.ExecPath))
	}
	return opts
}

// Open starts a browser, applies the session configuration and navigates.
func (f *ChromedpFetcher) Open(ctx context.Context, rawURL string) (Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &chromedpSession{
		tabCtx: tabCtx,
		close: func() {
			cancelTab()
			cancelAlloc()
		},
		logger: f.logger,
	}

	if f.opts.blocksAnything() {
		f.listenBlocked(tabCtx)
	}

	// The first Run allocates the browser; it must not run under the
	// navigation deadline or the deadline would own the process.
	if err := chromedp.Run(tabCtx, f.setupActions()...); err != nil {
		s.Close()
		return nil, fmt.Errorf("start chromedp session: %w", err)
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, f.opts.NavigationTimeout)
	defer cancelNav()

	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(rawURL))
	if err != nil {
		s.Close()
		return nil, f.navigationError(ctx, navCtx, rawURL, err)
	}
	if resp != nil {
		s.status = int(resp.Status)
	}
	if err := checkStatus(rawURL, s.status, resp != nil); err != nil {
		s.Close()
		return nil, err
	}

	if err := chromedp.Run(tabCtx, chromedp.Location(&s.url)); err != nil || s.url == "" {
		s.url = rawURL
	}

	f.logger.Debug("navigated",
		logging.Field{Key: "url", Value: rawURL},
		logging.Field{Key: "final_url", Value: s.url},
		logging.Field{Key: "status", Value: s.status})
	return s, nil
}

func (f *ChromedpFetcher) setupActions() []chromedp.Action {
	actions := []chromedp.Action{
		network.Enable(),
		chromedp.EmulateViewport(int64(f.opts.ViewportWidth), int64(f.opts.ViewportHeight)),
	}
	if len(f.opts.ExtraHeaders) > 0 {
		headers := network.Headers{}
		for k, v := range f.opts.ExtraHeaders {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	if f.opts.MaskAutomation {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(maskScript).Do(ctx)
			return err
		}))
	}
	if f.opts.blocksAnything() {
		actions = append(actions, fetch.Enable().WithPatterns([]*fetch.RequestPattern{{URLPattern: "*"}}))
	}
	return actions
}

// listenBlocked fails paused requests of blocked resource types and lets
// everything else continue.
func (f *ChromedpFetcher) listenBlocked(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			if c == nil || c.Target == nil {
				return
			}
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			if f.opts.blocks(string(e.ResourceType)) {
				_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = fetch.ContinueRequest(e.RequestID).Do(execCtx)
		}()
	})
}

func (f *ChromedpFetcher) navigationError(parent, navCtx context.Context, rawURL string, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, parent.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return &FetchTimeoutError{URL: rawURL, Timeout: f.opts.NavigationTimeout, Err: err}
	}
	return &FetchNoResponseError{URL: rawURL, Err: err}
}

func (f *ChromedpFetcher) Close() error {
	f.logger.Info("closing chromedp fetcher")
	return nil
}

func (o Options) blocksAnything() bool {
	return len(o.BlockedResourceTypes) > 0
}

type chromedpSession struct {
	tabCtx context.Context
	close  func()
	logger logging.Logger

	url    string
	status int
}

func (s *chromedpSession) URL() string     { return s.url }
func (s *chromedpSession) StatusCode() int { return s.status }

// runCtx ties ctx's cancellation to the tab context.
func (s *chromedpSession) runCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.tabCtx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// WaitForAny uses a selector group so the first matching signal resolves
// the wait.
func (s *chromedpSession) WaitForAny(ctx context.Context, selectors []string, timeout time.Duration) (bool, error) {
	if len(selectors) == 0 {
		return false, nil
	}
	runCtx, cancel := s.runCtx(ctx)
	defer cancel()
	waitCtx, cancelWait := context.WithTimeout(runCtx, timeout)
	defer cancelWait()

	err := chromedp.Run(waitCtx, chromedp.WaitReady(strings.Join(selectors, ", "), chromedp.ByQuery))
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

func (s *chromedpSession) Evaluate(ctx context.Context, fn string, out any) error {
	runCtx, cancel := s.runCtx(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Evaluate("("+fn+")()", out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

func (s *chromedpSession) Close() error {
	if s.close != nil {
		s.close()
		s.close = nil
	}
	return nil
}
