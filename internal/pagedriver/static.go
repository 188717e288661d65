package pagedriver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// StaticConfig controls the plain-HTTP driver.
type StaticConfig struct {
	UserAgent      string
	RequestTimeout time.Duration
}

// Static is a Driver for pages whose category panels are served fully
// rendered. It fetches over plain HTTP via Colly and parses the body with
// goquery; click operations report the control as absent, which the crawler
// already treats as "no expansion available".
type Static struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
	doc           *goquery.Document
}

// NewStatic constructs a configured Colly-backed driver.
func NewStatic(cfg StaticConfig, logger *zap.Logger) *Static {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	base := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
	base.AllowURLRevisit = true
	base.SetRequestTimeout(cfg.RequestTimeout)
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		ForceAttemptHTTP2:     true,
	})
	return &Static{
		baseCollector: base,
		logger:        logger,
	}
}

// Navigate fetches the URL and replaces the current document. Non-success
// responses surface as errors so the crawler can apply its branch policy.
func (d *Static) Navigate(ctx context.Context, url string) error {
	collector := d.baseCollector.Clone()

	var (
		once sync.Once
		body []byte
		err  error
	)
	collector.OnResponse(func(r *colly.Response) {
		once.Do(func() {
			if r.StatusCode != http.StatusOK {
				err = fmt.Errorf("unexpected status %d", r.StatusCode)
				return
			}
			body = append([]byte{}, r.Body...)
		})
	})
	collector.OnError(func(_ *colly.Response, cerr error) {
		once.Do(func() {
			if cerr == nil {
				cerr = errors.New("unknown colly error")
			}
			err = cerr
		})
	})

	if verr := collector.Visit(url); verr != nil {
		return fmt.Errorf("navigate %s: %w", url, verr)
	}
	collector.Wait()

	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if body == nil {
		return fmt.Errorf("navigate %s: no response received", url)
	}

	doc, perr := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if perr != nil {
		return fmt.Errorf("parse %s: %w", url, perr)
	}
	d.doc = doc
	return nil
}

// Elements queries the current document.
func (d *Static) Elements(_ context.Context, selector string) ([]Element, error) {
	if d.doc == nil {
		return nil, errors.New("no page navigated")
	}
	return elementsFromDocument(d.doc, selector), nil
}

// Click reports the control as absent; static pages have no scriptable
// controls.
func (d *Static) Click(_ context.Context, selector string) (bool, error) {
	d.logger.Debug("Static driver ignoring click", zap.String("selector", selector))
	return false, nil
}

// ClickUntil is a no-op for the same reason as Click.
func (d *Static) ClickUntil(context.Context, string, string, int) error {
	return nil
}

// Close releases nothing; the transport is pooled by net/http.
func (d *Static) Close(context.Context) error {
	return nil
}
