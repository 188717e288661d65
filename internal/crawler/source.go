// Package crawler walks marketplace category trees and turns them into dated
// count records.
package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Data type discriminators for the two crawl passes of a run.
const (
	DataTypeJobs        = "jobs"
	DataTypeFreelancers = "freelancers"
)

// Selectors names the page structure of one marketplace. Every field is a CSS
// selector except ExpandStop, which is the literal control text that marks a
// fully expanded list.
type Selectors struct {
	// ListEntry matches one category menu entry.
	ListEntry string
	// Anchor matches the category link inside an entry.
	Anchor string
	// Count matches the count span inside an entry.
	Count string
	// Expand matches the show-all control, when the site has one.
	Expand string
	// ExpandStop, when set, switches Expand to click-until-text semantics.
	ExpandStop string
	// Consent matches the one-time cookie dialog accept button.
	Consent string
}

// Target is one crawlable root: a data type, its entry URL, and the logical
// table its records land in.
type Target struct {
	DataType string
	URL      string
	Table    string
	MaxDepth int
}

// Source describes one marketplace: where to start, how its pages are shaped,
// and how fast it tolerates being visited.
type Source struct {
	Name      string
	BaseURL   string
	Delay     time.Duration
	Selectors Selectors
	Targets   []Target
}

// Validate rejects sources the crawler cannot work with.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("source name must be set")
	}
	if s.Selectors.ListEntry == "" {
		return fmt.Errorf("source %s: list entry selector must be set", s.Name)
	}
	if s.Selectors.Anchor == "" {
		return fmt.Errorf("source %s: anchor selector must be set", s.Name)
	}
	if len(s.Targets) == 0 {
		return fmt.Errorf("source %s: at least one target must be set", s.Name)
	}
	for _, t := range s.Targets {
		if t.URL == "" {
			return fmt.Errorf("source %s: target %s has no URL", s.Name, t.DataType)
		}
		if t.Table == "" {
			return fmt.Errorf("source %s: target %s has no table", s.Name, t.DataType)
		}
		if t.MaxDepth < 1 {
			return fmt.Errorf("source %s: target %s max depth must be >= 1", s.Name, t.DataType)
		}
	}
	return nil
}

// ResolveHref turns a category href into an absolute URL against the source
// base. Already-absolute hrefs pass through.
func (s Source) ResolveHref(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil || base.Host == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
