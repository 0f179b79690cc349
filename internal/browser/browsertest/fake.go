// Package browsertest provides a scripted in-memory browser for testing
// scrape adapters and the router without any real DOM.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Shub3am/PostPilot/internal/browser"
	"github.com/google/uuid"
)

// Page scripts the surface a tab presents for one URL.
type Page struct {
	// Present lists the selectors that currently match a node.
	Present map[string]bool
	// Texts maps selectors to their text content.
	Texts map[string]string
	// Attrs maps selectors to attribute name/value pairs.
	Attrs map[string]map[string]string
	// Reveal lists selectors that become present once the keyed
	// selector is clicked, mimicking UIs that render their editor
	// surface lazily.
	Reveal map[string][]string
}

// Browser is a scripted browser.Browser.
type Browser struct {
	mu      sync.Mutex
	pages   map[string]*Page
	opened  []string
	tabs    []*Tab
	OpenErr error
}

// New creates a fake browser serving the given pages by URL. URLs with
// no scripted page open as an empty surface where nothing matches.
func New(pages map[string]*Page) *Browser {
	if pages == nil {
		pages = map[string]*Page{}
	}
	return &Browser{pages: pages}
}

// OpenTab opens a scripted tab for url.
func (b *Browser) OpenTab(_ context.Context, url string) (browser.Tab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}

	page := b.pages[url]
	if page == nil {
		page = &Page{}
	}
	t := &Tab{id: uuid.NewString(), url: url, page: page}
	b.opened = append(b.opened, url)
	b.tabs = append(b.tabs, t)
	return t, nil
}

// OpenedURLs returns every URL a tab was opened for, in order.
func (b *Browser) OpenedURLs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.opened...)
}

// Tabs returns every tab opened so far.
func (b *Browser) Tabs() []*Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Tab(nil), b.tabs...)
}

// TabByID returns the tab with the given ID, or nil.
func (b *Browser) TabByID(id string) *Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tabs {
		if t.id == id {
			return t
		}
	}
	return nil
}

// Tab is a scripted browser.Tab that records every interaction.
type Tab struct {
	mu   sync.Mutex
	id   string
	url  string
	page *Page

	clicks  []string
	inserts map[string]string
	pastes  map[string]string
	closed  bool
}

func (t *Tab) ID() string { return t.id }

// URL returns the URL the tab was opened with.
func (t *Tab) URL() string { return t.url }

func (t *Tab) WaitReady(context.Context) error { return nil }

func (t *Tab) WaitForElement(_ context.Context, selector string, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.page.Present[selector] {
		return fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	return nil
}

func (t *Tab) Click(_ context.Context, selector string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.page.Present[selector] {
		return fmt.Errorf("click: %w: %s", browser.ErrElementNotFound, selector)
	}
	t.clicks = append(t.clicks, selector)
	for _, revealed := range t.page.Reveal[selector] {
		if t.page.Present == nil {
			t.page.Present = map[string]bool{}
		}
		t.page.Present[revealed] = true
	}
	return nil
}

func (t *Tab) InsertText(_ context.Context, selector, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.page.Present[selector] {
		return fmt.Errorf("insert text: %w: %s", browser.ErrElementNotFound, selector)
	}
	if t.inserts == nil {
		t.inserts = map[string]string{}
	}
	t.inserts[selector] = text
	return nil
}

func (t *Tab) PasteFile(_ context.Context, selector, filename, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.page.Present[selector] {
		return fmt.Errorf("paste file: %w: %s", browser.ErrElementNotFound, selector)
	}
	if t.pastes == nil {
		t.pastes = map[string]string{}
	}
	t.pastes[selector] = filename
	return nil
}

func (t *Tab) Text(_ context.Context, selector string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page.Texts[selector], nil
}

func (t *Tab) Attr(_ context.Context, selector, name string) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	attrs, ok := t.page.Attrs[selector]
	if !ok {
		return "", false, nil
	}
	value, ok := attrs[name]
	return value, ok, nil
}

func (t *Tab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Closed reports whether Close was called.
func (t *Tab) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Clicked returns the selectors clicked, in order.
func (t *Tab) Clicked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.clicks...)
}

// Inserted returns the text inserted into selector, if any.
func (t *Tab) Inserted(selector string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	text, ok := t.inserts[selector]
	return text, ok
}

// Pasted returns the filename pasted into selector, if any.
func (t *Tab) Pasted(selector string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	name, ok := t.pastes[selector]
	return name, ok
}
