package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesVisited tracks category pages navigated successfully.
	PagesVisited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketpulse_pages_visited_total",
		Help: "The total number of category pages navigated.",
	})
	// EntriesExtracted tracks list entries turned into records.
	EntriesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketpulse_entries_extracted_total",
		Help: "The total number of category entries extracted as records.",
	})
	// EntriesSkipped tracks list entries missing a link or count span.
	EntriesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketpulse_entries_skipped_total",
		Help: "The total number of list entries skipped as non-category items.",
	})
	// NavigationFailures tracks page loads that did not complete.
	NavigationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketpulse_navigation_failures_total",
		Help: "The total number of failed page navigations.",
	})
)
