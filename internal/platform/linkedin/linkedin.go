// Package linkedin publishes by automating the LinkedIn feed UI.
// LinkedIn exposes no posting API here, so every operation drives a
// transient browser tab against the logged-in web UI.
package linkedin

import (
	"context"
	"log"
	"time"

	"github.com/Shub3am/PostPilot/internal/browser"
	"github.com/Shub3am/PostPilot/internal/platform"
	"github.com/Shub3am/PostPilot/internal/store"
	"github.com/Shub3am/PostPilot/internal/types"
)

const feedURL = "https://www.linkedin.com/feed"

// Selectors for the logged-in feed page and its share box. These track
// LinkedIn's current markup; a silent UI change shows up as an abandoned
// session, not a false success.
const (
	selProfileName  = ".profile-card-name"
	selProfileImage = ".profile-card-profile-picture"
	selTopBar       = ".share-box-feed-entry__top-bar"
	selStartButton  = ".share-box-feed-entry__top-bar button"
	selEditor       = ".ql-editor"
	selActions      = ".share-box_actions"
	selPostButton   = ".share-box_actions button"
)

// Delays are the settle pauses absorbed between UI-triggering actions.
// They tolerate LinkedIn's own asynchronous rendering; they are not a
// correctness guarantee.
type Delays struct {
	PageSettle   time.Duration // after load completes, before injecting
	EditorSettle time.Duration // after the editor materializes
	AfterInsert  time.Duration // after text insertion
	ImageSettle  time.Duration // after the image paste, for the upload pipeline
}

// DefaultDelays mirrors the timings the web UI tolerates in practice.
func DefaultDelays() Delays {
	return Delays{
		PageSettle:   time.Second,
		EditorSettle: 300 * time.Millisecond,
		AfterInsert:  500 * time.Millisecond,
		ImageSettle:  time.Second,
	}
}

// Adapter is the scrape adapter for LinkedIn.
type Adapter struct {
	Browser     browser.Browser
	Store       *store.Store
	Events      platform.Events
	Delays      Delays
	WaitTimeout time.Duration // 0 uses browser.DefaultWaitTimeout
	Logf        func(format string, args ...any)
}

// New creates the adapter with default timings.
func New(b browser.Browser, st *store.Store, events platform.Events) *Adapter {
	return &Adapter{
		Browser: b,
		Store:   st,
		Events:  events,
		Delays:  DefaultDelays(),
	}
}

var _ platform.Adapter = (*Adapter)(nil)

// Name implements platform.Adapter.
func (a *Adapter) Name() types.Platform {
	return types.PlatformLinkedin
}

func (a *Adapter) logf(format string, args ...any) {
	if a.Logf != nil {
		a.Logf(format, args...)
		return
	}
	log.Printf("[linkedin] "+format, args...)
}

// CheckConnection opens a background tab on the feed and probes the
// profile card. The result arrives through Events.ConnectionChecked;
// the call itself only reports whether the probe was started.
func (a *Adapter) CheckConnection(ctx context.Context) error {
	go a.runCheck(ctx)
	return nil
}

func (a *Adapter) runCheck(ctx context.Context) {
	tab, err := a.Browser.OpenTab(ctx, feedURL)
	if err != nil {
		a.logf("connection check: open tab: %v", err)
		a.Events.ConnectionChecked(a.Name(), nil, types.NotConnected())
		return
	}

	if err := tab.WaitReady(ctx); err != nil {
		a.logf("connection check: page load: %v", err)
		a.Events.ConnectionChecked(a.Name(), tab, types.NotConnected())
		return
	}
	sleep(ctx, a.Delays.PageSettle)

	name, err := tab.Text(ctx, selProfileName)
	if err != nil {
		a.logf("connection check: read profile name: %v", err)
		a.Events.ConnectionChecked(a.Name(), tab, types.NotConnected())
		return
	}
	image, ok, err := tab.Attr(ctx, selProfileImage, "src")
	if err != nil {
		a.logf("connection check: read profile image: %v", err)
		a.Events.ConnectionChecked(a.Name(), tab, types.NotConnected())
		return
	}

	if name == "" || !ok || image == "" {
		a.Events.ConnectionChecked(a.Name(), tab, types.NotConnected())
		return
	}
	a.Events.ConnectionChecked(a.Name(), tab, types.Connected(name, image))
}

// Publish fails fast with ErrNotConnected unless the last probe
// succeeded; it never opens a tab for an unauthenticated session. The
// automation session runs asynchronously and reports through Events.
func (a *Adapter) Publish(ctx context.Context, req types.PublishRequest) error {
	conn, err := a.Store.GetConnection(a.Name())
	if err != nil {
		return err
	}
	if conn.Status != types.StatusConnected {
		return platform.ErrNotConnected
	}

	go a.runPost(ctx, req)
	return nil
}

func (a *Adapter) runPost(ctx context.Context, req types.PublishRequest) {
	tab, err := a.Browser.OpenTab(ctx, feedURL)
	if err != nil {
		a.logf("publish: open tab: %v", err)
		a.Events.Abandoned(a.Name(), nil, "open tab failed")
		return
	}

	if err := tab.WaitReady(ctx); err != nil {
		a.abandon(tab, "page never loaded", err)
		return
	}
	sleep(ctx, a.Delays.PageSettle)

	if err := tab.WaitForElement(ctx, selTopBar, a.WaitTimeout); err != nil {
		a.abandon(tab, "post widget not found", err)
		return
	}
	if err := tab.Click(ctx, selStartButton); err != nil {
		a.abandon(tab, "start button not found", err)
		return
	}

	if err := tab.WaitForElement(ctx, selEditor, a.WaitTimeout); err != nil {
		a.abandon(tab, "editor not found", err)
		return
	}
	sleep(ctx, a.Delays.EditorSettle)

	if err := tab.InsertText(ctx, selEditor, platform.ComposeBody(req)); err != nil {
		a.abandon(tab, "text insertion failed", err)
		return
	}
	sleep(ctx, a.Delays.AfterInsert)

	if req.Image != nil {
		if err := tab.PasteFile(ctx, selEditor, "post-image.jpg", *req.Image); err != nil {
			a.abandon(tab, "image paste failed", err)
			return
		}
		sleep(ctx, a.Delays.ImageSettle)
	}

	if err := tab.WaitForElement(ctx, selActions, a.WaitTimeout); err != nil {
		a.abandon(tab, "post actions not found", err)
		return
	}
	if err := tab.Click(ctx, selPostButton); err != nil {
		a.abandon(tab, "post button not found", err)
		return
	}

	a.Events.Posted(a.Name(), tab, req)
}

// abandon reports a dead session. No completion signal is emitted and no
// history is recorded; the tab is handed to the router for teardown.
func (a *Adapter) abandon(tab browser.Tab, reason string, err error) {
	a.logf("publish abandoned: %s: %v", reason, err)
	a.Events.Abandoned(a.Name(), tab, reason)
}

// sleep pauses without outliving a cancelled session.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
