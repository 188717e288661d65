package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avollmer/marketpulse/internal/pagedriver"
	"github.com/avollmer/marketpulse/internal/record"
)

// maxExpandClicks bounds click-until expansion so a control that never
// reaches its stop text cannot spin forever.
const maxExpandClicks = 25

// Crawler walks a category tree through a page driver and emits dated count
// records. One Crawler instance serves all targets of a run so the consent
// handshake happens exactly once.
type Crawler struct {
	driver    pagedriver.Driver
	pauser    pauseController
	logger    *zap.Logger
	now       func() time.Time
	consented bool
}

// New constructs a Crawler over the given driver.
func New(driver pagedriver.Driver, logger *zap.Logger) *Crawler {
	return &Crawler{
		driver: driver,
		pauser: &timerPauseController{},
		logger: logger,
		now:    time.Now,
	}
}

// Summary reports what one crawl pass produced.
type Summary struct {
	RunID           string
	Source          string
	DataType        string
	Table           string
	Records         int
	PagesVisited    int
	BranchesSkipped int
}

type frame struct {
	url   string
	depth int
}

// Run crawls one target of a source depth-first and returns the flat record
// set. All records of the pass carry the day captured at start, so a pass
// spanning midnight still writes a single day. A root navigation failure
// aborts the pass; a subcategory failure skips that branch and keeps the
// partial results, which are still useful.
func (c *Crawler) Run(ctx context.Context, src Source, tgt Target) ([]record.Record, Summary, error) {
	summary := Summary{
		RunID:    uuid.NewString(),
		Source:   src.Name,
		DataType: tgt.DataType,
		Table:    tgt.Table,
	}
	day := record.DayOf(c.now())
	logger := c.logger.With(
		zap.String("run_id", summary.RunID),
		zap.String("source", src.Name),
		zap.String("data_type", tgt.DataType),
	)

	c.acceptConsent(ctx, src, logger)

	var records []record.Record
	visited := newVisitTracker()
	visited.MarkIfNew(tgt.URL)
	stack := []frame{{url: tgt.URL, depth: 0}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			summary.Records = len(records)
			return records, summary, err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c.pauser.Pause(ctx, src.Delay)

		entries, err := c.loadPage(ctx, src, f.url)
		if err != nil {
			NavigationFailures.Inc()
			if f.depth == 0 {
				summary.Records = len(records)
				return nil, summary, fmt.Errorf("crawl %s root: %w", tgt.DataType, err)
			}
			summary.BranchesSkipped++
			logger.Warn("Skipping subcategory branch",
				zap.String("url", f.url),
				zap.Int("depth", f.depth),
				zap.Error(err),
			)
			continue
		}
		PagesVisited.Inc()
		summary.PagesVisited++

		for _, entry := range entries {
			rec, ok := extractEntry(src, entry, day)
			if !ok {
				EntriesSkipped.Inc()
				continue
			}
			EntriesExtracted.Inc()
			records = append(records, rec)

			if rec.Href != "" && f.depth+1 < tgt.MaxDepth {
				next := src.ResolveHref(rec.Href)
				if next != "" && visited.MarkIfNew(next) {
					stack = append(stack, frame{url: next, depth: f.depth + 1})
				}
			}
		}
		logger.Debug("Page extracted",
			zap.String("url", f.url),
			zap.Int("depth", f.depth),
			zap.Int("entries", len(entries)),
		)
	}

	summary.Records = len(records)
	logger.Info("Crawl pass finished",
		zap.Int("records", summary.Records),
		zap.Int("pages", summary.PagesVisited),
		zap.Int("branches_skipped", summary.BranchesSkipped),
	)
	return records, summary, nil
}

// acceptConsent performs the one-time cookie handshake against the source
// base page. Best effort: a missing dialog means consent was already given.
func (c *Crawler) acceptConsent(ctx context.Context, src Source, logger *zap.Logger) {
	if c.consented || src.Selectors.Consent == "" || src.BaseURL == "" {
		return
	}
	c.consented = true
	if err := c.driver.Navigate(ctx, src.BaseURL); err != nil {
		logger.Warn("Consent page navigation failed", zap.Error(err))
		return
	}
	clicked, err := c.driver.Click(ctx, src.Selectors.Consent)
	if err != nil {
		logger.Warn("Consent click failed", zap.Error(err))
		return
	}
	if !clicked {
		logger.Debug("Consent dialog not present, continuing")
	}
}

// loadPage navigates to a category page, fires its expand control, and
// returns the list entries. A failed expand is "no expansion available".
func (c *Crawler) loadPage(ctx context.Context, src Source, url string) ([]pagedriver.Element, error) {
	if err := c.driver.Navigate(ctx, url); err != nil {
		return nil, err
	}
	c.expand(ctx, src)
	return c.driver.Elements(ctx, src.Selectors.ListEntry)
}

func (c *Crawler) expand(ctx context.Context, src Source) {
	sel := src.Selectors.Expand
	if sel == "" {
		return
	}
	var err error
	if src.Selectors.ExpandStop != "" {
		err = c.driver.ClickUntil(ctx, sel, src.Selectors.ExpandStop, maxExpandClicks)
	} else {
		_, err = c.driver.Click(ctx, sel)
	}
	if err != nil {
		c.logger.Debug("Expand control unavailable", zap.String("selector", sel), zap.Error(err))
	}
}

// extractEntry maps one list entry to a record. Entries without the anchor or
// the count span are decorative list items, not categories, and are skipped
// silently.
func extractEntry(src Source, entry pagedriver.Element, day time.Time) (record.Record, bool) {
	anchor, ok := entry.First(src.Selectors.Anchor)
	if !ok {
		return record.Record{}, false
	}
	countEl, ok := entry.First(src.Selectors.Count)
	if !ok {
		return record.Record{}, false
	}
	category := record.ParseLabel(anchor.Text())
	if category == "" {
		return record.Record{}, false
	}
	return record.Record{
		Date:     day,
		Category: category,
		Num:      record.ParseCount(countEl.Text()),
		Href:     anchor.Attr("href"),
	}, true
}
