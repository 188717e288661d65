package pagedriver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromedpConfig controls the headless browser session.
type ChromedpConfig struct {
	UserAgent  string
	NavTimeout time.Duration
	// Settle is how long to wait after a navigation or click before trusting
	// the DOM. The category panels render lazily after expand controls fire.
	Settle time.Duration
	// ClickTimeout bounds the wait for a clickable control; expiry means the
	// control is absent on this page.
	ClickTimeout time.Duration
}

// Chromedp drives a single headless Chrome tab via chromedp. One browser
// context is kept warm for the whole run so cookies (notably the consent
// acknowledgement) persist across page navigations.
type Chromedp struct {
	cfg             ChromedpConfig
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
}

// NewChromedp launches a headless browser and warms up a tab.
func NewChromedp(cfg ChromedpConfig, logger *zap.Logger) (*Chromedp, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	if cfg.Settle <= 0 {
		cfg.Settle = 2 * time.Second
	}
	if cfg.ClickTimeout <= 0 {
		cfg.ClickTimeout = 5 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}
	if cfg.UserAgent != "" {
		if err := chromedp.Run(browserCtx, emulation.SetUserAgentOverride(cfg.UserAgent)); err != nil {
			browserCancel()
			allocatorCancel()
			return nil, fmt.Errorf("set user-agent: %w", err)
		}
	}

	return &Chromedp{
		cfg:             cfg,
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
	}, nil
}

// Navigate loads the URL in the shared tab and waits for the body plus the
// settle delay.
func (d *Chromedp) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := d.taskContext(ctx, d.cfg.NavTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(d.cfg.Settle),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Elements snapshots the rendered DOM and returns the matching nodes.
func (d *Chromedp) Elements(ctx context.Context, selector string) ([]Element, error) {
	runCtx, cancel := d.taskContext(ctx, d.cfg.NavTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("snapshot dom: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse dom: %w", err)
	}
	return elementsFromDocument(doc, selector), nil
}

// Click activates the first visible control matching the selector. A timeout
// waiting for the control reports (false, nil): the page simply does not have
// it, which is an expected state on already-expanded or static pages.
func (d *Chromedp) Click(ctx context.Context, selector string) (bool, error) {
	runCtx, cancel := d.taskContext(ctx, d.cfg.ClickTimeout+d.cfg.Settle)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.Sleep(d.cfg.Settle),
	)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		d.logger.Debug("Click target absent",
			zap.String("selector", selector),
			zap.Error(err),
		)
		return false, nil
	}
	return true, nil
}

// ClickUntil clicks the control until its text equals stopText. The
// freelancermap-style show-more button flips its label once the full list is
// rendered.
func (d *Chromedp) ClickUntil(ctx context.Context, selector, stopText string, maxClicks int) error {
	for i := 0; i < maxClicks; i++ {
		text, ok, err := d.controlText(ctx, selector)
		if err != nil {
			return err
		}
		if !ok || strings.TrimSpace(text) == stopText {
			return nil
		}
		clicked, err := d.Click(ctx, selector)
		if err != nil {
			return err
		}
		if !clicked {
			return nil
		}
	}
	d.logger.Warn("Expand control never reached stop text",
		zap.String("selector", selector),
		zap.String("stop_text", stopText),
		zap.Int("max_clicks", maxClicks),
	)
	return nil
}

// Close tears down the browser and allocator contexts.
func (d *Chromedp) Close(_ context.Context) error {
	d.browserCancel()
	d.allocatorCancel()
	return nil
}

func (d *Chromedp) controlText(ctx context.Context, selector string) (string, bool, error) {
	runCtx, cancel := d.taskContext(ctx, d.cfg.ClickTimeout)
	defer cancel()

	var text string
	err := chromedp.Run(runCtx, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeVisible))
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", false, nil
	}
	return text, true, nil
}

// taskContext binds a chromedp run to both the caller's context and a timeout.
func (d *Chromedp) taskContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancelTimeout := context.WithTimeout(d.browserCtx, timeout)
	stop := forwardCancel(ctx, cancelTimeout)
	return runCtx, func() {
		stop()
		cancelTimeout()
	}
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
