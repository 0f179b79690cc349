// Package browser abstracts the rendering surface the scrape adapters
// automate. Adapters speak the Tab capability (navigate, wait, click,
// synthetic input, synthetic paste); production wires a Chrome DevTools
// Protocol backend, tests wire a scripted fake.
package browser

import (
	"context"
	"time"
)

// Browser opens automation tabs.
type Browser interface {
	// OpenTab opens a new tab navigated to url. The tab is not
	// guaranteed to have finished loading; call WaitReady first.
	OpenTab(ctx context.Context, url string) (Tab, error)
}

// Tab is one automation surface, scoped to a single scrape session.
type Tab interface {
	// ID identifies this tab for session correlation.
	ID() string

	// WaitReady resolves once the page load completes.
	WaitReady(ctx context.Context) error

	// WaitForElement polls for a node matching selector, failing with
	// ErrElementNotFound once timeout elapses. A timeout <= 0 uses
	// DefaultWaitTimeout.
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) error

	// Click activates the first node matching selector.
	Click(ctx context.Context, selector string) error

	// InsertText focuses the node matching selector and inserts text as
	// a single synthetic input, triggering the page's own change
	// detection rather than silently mutating the DOM.
	InsertText(ctx context.Context, selector, text string) error

	// PasteFile dispatches a synthetic clipboard-paste event carrying a
	// file built from the inline-encoded image to the node matching
	// selector.
	PasteFile(ctx context.Context, selector, filename, dataURI string) error

	// Text returns the trimmed text content of the first node matching
	// selector, or "" when no node matches.
	Text(ctx context.Context, selector string) (string, error)

	// Attr returns the named attribute of the first node matching
	// selector. ok is false when the node or attribute is absent.
	Attr(ctx context.Context, selector, name string) (value string, ok bool, err error)

	// Close tears the tab down. Safe to call more than once.
	Close() error
}
