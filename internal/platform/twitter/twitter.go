// Package twitter publishes by automating the X/Twitter web UI through
// a transient browser tab.
package twitter

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Shub3am/PostPilot/internal/browser"
	"github.com/Shub3am/PostPilot/internal/platform"
	"github.com/Shub3am/PostPilot/internal/store"
	"github.com/Shub3am/PostPilot/internal/types"
)

const (
	homeURL    = "https://x.com/home"
	composeURL = "https://x.com/compose/tweet"
)

const (
	selProfileButton = `[aria-label='Profile']`
	selUserName      = `[data-testid="UserName"]`
	selTextbox       = `div[role="textbox"]`
	selEditor        = `div[role="textbox"][contenteditable="true"]`
	selTweetButton   = `[data-testid="tweetButton"]`
)

// Delays are the settle pauses between UI-triggering actions. The image
// paste settle is longer than LinkedIn's: X initializes its upload
// pipeline before the editor accepts further input.
type Delays struct {
	PageSettle  time.Duration
	ImageSettle time.Duration
	PreInsert   time.Duration
}

// DefaultDelays mirrors the timings the web UI tolerates in practice.
func DefaultDelays() Delays {
	return Delays{
		PageSettle:  time.Second,
		ImageSettle: 1200 * time.Millisecond,
		PreInsert:   2 * time.Second,
	}
}

// Adapter is the scrape adapter for X/Twitter.
type Adapter struct {
	Browser     browser.Browser
	Store       *store.Store
	Events      platform.Events
	Delays      Delays
	WaitTimeout time.Duration
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
	return types.PlatformTwitter
}

func (a *Adapter) logf(format string, args ...any) {
	if a.Logf != nil {
		a.Logf(format, args...)
		return
	}
	log.Printf("[twitter] "+format, args...)
}

// CheckConnection opens the home timeline and probes the profile
// drawer. The result arrives through Events.ConnectionChecked.
func (a *Adapter) CheckConnection(ctx context.Context) error {
	go a.runCheck(ctx)
	return nil
}

func (a *Adapter) runCheck(ctx context.Context) {
	tab, err := a.Browser.OpenTab(ctx, homeURL)
	if err != nil {
		a.logf("connection check: open tab: %v", err)
		a.Events.ConnectionChecked(a.Name(), nil, types.NotConnected())
		return
	}

	conn := a.probe(ctx, tab)
	a.Events.ConnectionChecked(a.Name(), tab, conn)
}

// probe reads the profile name and avatar. Any missing element yields a
// clean not-connected result, never a partially populated one.
func (a *Adapter) probe(ctx context.Context, tab browser.Tab) types.PlatformConnection {
	if err := tab.WaitReady(ctx); err != nil {
		a.logf("connection check: page load: %v", err)
		return types.NotConnected()
	}
	sleep(ctx, a.Delays.PageSettle)

	if err := tab.Click(ctx, selProfileButton); err != nil {
		a.logf("connection check: profile button: %v", err)
		return types.NotConnected()
	}
	if err := tab.WaitForElement(ctx, selUserName, a.WaitTimeout); err != nil {
		a.logf("connection check: user name: %v", err)
		return types.NotConnected()
	}

	rawName, err := tab.Text(ctx, selUserName)
	if err != nil || rawName == "" {
		a.logf("connection check: read user name: %v", err)
		return types.NotConnected()
	}
	// The UserName block renders as "<display name>@<handle>"; store it
	// as "name/handle" and key the avatar selector off the handle.
	name := strings.Join(strings.Split(rawName, "@"), "/")
	parts := strings.SplitN(name, "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		return types.NotConnected()
	}
	avatarSel := fmt.Sprintf(`[data-testid="UserAvatar-Container-%s"] img`, parts[1])

	if err := tab.WaitForElement(ctx, avatarSel, a.WaitTimeout); err != nil {
		a.logf("connection check: avatar: %v", err)
		return types.NotConnected()
	}
	image, ok, err := tab.Attr(ctx, avatarSel, "src")
	if err != nil || !ok || image == "" {
		return types.NotConnected()
	}

	return types.Connected(name, image)
}

// Publish fails fast with ErrNotConnected unless the last probe
// succeeded; no tab is opened for an unauthenticated session.
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
	tab, err := a.Browser.OpenTab(ctx, composeURL)
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

	if err := tab.WaitForElement(ctx, selTextbox, a.WaitTimeout); err != nil {
		a.abandon(tab, "editor not found", err)
		return
	}

	// Image goes in first: pasting into a populated editor makes X
	// re-render the draft and drop the attachment.
	if req.Image != nil {
		if err := tab.PasteFile(ctx, selEditor, "tweet-image.jpg", *req.Image); err != nil {
			a.abandon(tab, "image paste failed", err)
			return
		}
		sleep(ctx, a.Delays.ImageSettle)
	}
	sleep(ctx, a.Delays.PreInsert)

	if err := tab.InsertText(ctx, selEditor, platform.ComposeBody(req)); err != nil {
		a.abandon(tab, "text insertion failed", err)
		return
	}

	if err := tab.WaitForElement(ctx, selTweetButton, a.WaitTimeout); err != nil {
		a.abandon(tab, "tweet button not found", err)
		return
	}
	if err := tab.Click(ctx, selTweetButton); err != nil {
		a.abandon(tab, "tweet button not clickable", err)
		return
	}

	a.Events.Posted(a.Name(), tab, req)
}

func (a *Adapter) abandon(tab browser.Tab, reason string, err error) {
	a.logf("publish abandoned: %s: %v", reason, err)
	a.Events.Abandoned(a.Name(), tab, reason)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
