// Package pagedriver abstracts page navigation and DOM inspection behind a
// small capability interface so the crawl logic stays independent of the
// concrete browser-automation or HTML-parsing engine.
package pagedriver

import "context"

// Element is one node of a navigated document.
type Element interface {
	// Text returns the combined text content of the node.
	Text() string
	// Attr returns the named attribute, or "" when absent.
	Attr(name string) string
	// First returns the first descendant matching the selector.
	First(selector string) (Element, bool)
}

// Driver navigates pages and exposes their rendered DOM. Implementations are
// stateful: Elements and Click operate on the most recently navigated page.
// A Driver is not safe for concurrent use; the crawl is strictly sequential.
type Driver interface {
	// Navigate loads the given URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// Elements returns all nodes matching the CSS selector on the current page.
	Elements(ctx context.Context, selector string) ([]Element, error)

	// Click activates the first control matching the selector and waits for
	// the page to settle. It reports false, without error, when the control is
	// absent or the click times out: a missing expand control is an expected
	// page state, not a failure.
	Click(ctx context.Context, selector string) (bool, error)

	// ClickUntil clicks the control repeatedly until its own text equals
	// stopText or maxClicks is reached. Used for show-more style controls that
	// lazily render list chunks per click. An absent control is a no-op.
	ClickUntil(ctx context.Context, selector, stopText string, maxClicks int) error

	// Close releases browser or transport resources.
	Close(ctx context.Context) error
}
