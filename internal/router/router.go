// Package router is the publish orchestrator: it fans one logical
// publish request out to every requested platform adapter, collects
// per-platform outcomes independently, and reconciles the unsolicited
// completion signals scrape sessions emit back into the history and
// connection-state store.
package router

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Shub3am/PostPilot/internal/browser"
	"github.com/Shub3am/PostPilot/internal/platform"
	"github.com/Shub3am/PostPilot/internal/store"
	"github.com/Shub3am/PostPilot/internal/types"
)

// Notifier is the user-facing surface for platform-scoped outcomes.
type Notifier interface {
	Notify(title, body string)
}

// Config holds router tuning.
type Config struct {
	// GraceDelay is how long a tab stays open after a publish
	// completion signal, letting the platform's own post-submit UI
	// settle before teardown.
	GraceDelay time.Duration
	Logf       func(format string, args ...any)
}

// DefaultConfig returns the default router configuration.
func DefaultConfig() Config {
	return Config{GraceDelay: 2500 * time.Millisecond}
}

// Router dispatches publish and connection-check requests to platform
// adapters and implements platform.Events for their completion signals.
type Router struct {
	mu       sync.Mutex
	cond     *sync.Cond
	store    *store.Store
	notifier Notifier
	adapters map[types.Platform]platform.Adapter
	grace    time.Duration
	logf     func(format string, args ...any)

	// inflight counts dispatch goroutines plus open scrape sessions,
	// including post-completion grace teardowns. Wait drains it.
	inflight int
	// pending correlates a completed session's tab ID to its tab while
	// the grace teardown runs, so no session is ever left dangling.
	pending map[string]browser.Tab
}

// New creates a router over the given store and notifier.
func New(st *store.Store, notifier Notifier, cfg Config) *Router {
	if cfg.GraceDelay == 0 {
		cfg.GraceDelay = DefaultConfig().GraceDelay
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(format string, args ...any) {
			log.Printf("[router] "+format, args...)
		}
	}
	r := &Router{
		store:    st,
		notifier: notifier,
		adapters: make(map[types.Platform]platform.Adapter),
		grace:    cfg.GraceDelay,
		logf:     logf,
		pending:  make(map[string]browser.Tab),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Register adds an adapter for its platform.
func (r *Router) Register(a platform.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Adapter returns the registered adapter for p.
func (r *Router) Adapter(p types.Platform) (platform.Adapter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.adapters[p]
	return a, ok
}

// MessageType names the inbound messages the router handles.
type MessageType string

const (
	// MsgCreatePost fans a publish request out to its target platforms.
	MsgCreatePost MessageType = "CREATE_POST"
	// MsgCheckConnection triggers a platform's connection probe.
	MsgCheckConnection MessageType = "CHECK_CONNECTION"
)

// Message is one inbound request.
type Message struct {
	Type      MessageType
	Platform  types.Platform        // CHECK_CONNECTION
	Request   *types.PublishRequest // CREATE_POST
	Platforms []types.Platform      // CREATE_POST targets
}

// Dispatch routes an inbound message.
func (r *Router) Dispatch(ctx context.Context, msg Message) error {
	switch msg.Type {
	case MsgCreatePost:
		if msg.Request == nil {
			return fmt.Errorf("CREATE_POST without request")
		}
		r.CreatePost(ctx, *msg.Request, msg.Platforms)
		return nil
	case MsgCheckConnection:
		return r.CheckConnection(ctx, msg.Platform)
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// CreatePost dispatches req to each named platform independently.
// Failures surface as platform-scoped notifications and never abort the
// other platforms' attempts; partial success is a normal outcome. No
// adapter call is retried.
func (r *Router) CreatePost(ctx context.Context, req types.PublishRequest, platforms []types.Platform) {
	for _, p := range platforms {
		adapter, ok := r.Adapter(p)
		if !ok {
			r.notifyFailure(p, fmt.Errorf("no adapter registered"))
			continue
		}
		// The transport is a fixed property of the platform, never read
		// from the stored methods map: a hand-edited method must not
		// desync the session accounting below.
		scrape := p.Transport() == types.MethodScrape

		r.track(1)
		if scrape {
			// Count the session before Publish spawns it so Wait can
			// never observe the gap.
			r.track(1)
		}
		go func(p types.Platform, adapter platform.Adapter, scrape bool) {
			defer r.track(-1)
			if err := adapter.Publish(ctx, req); err != nil {
				if scrape {
					// Fast-fail before any session opened.
					r.track(-1)
				}
				r.notifyFailure(p, err)
				return
			}
			if !scrape {
				// API path is awaited: history is already appended.
				r.notifier.Notify("PostPilot", fmt.Sprintf("Published to %s", p.DisplayName()))
			}
		}(p, adapter, scrape)
	}
}

// CheckConnection delegates to the platform's adapter. For scrape
// platforms the result lands asynchronously via ConnectionChecked; for
// API platforms the adapter updates the store before returning.
func (r *Router) CheckConnection(ctx context.Context, p types.Platform) error {
	adapter, ok := r.Adapter(p)
	if !ok {
		return fmt.Errorf("no adapter registered for %s", p)
	}

	if p.Transport() == types.MethodScrape {
		r.track(1)
		if err := adapter.CheckConnection(ctx); err != nil {
			r.track(-1)
			r.notifyFailure(p, err)
			return err
		}
		return nil
	}

	r.track(1)
	go func() {
		defer r.track(-1)
		if err := adapter.CheckConnection(ctx); err != nil {
			r.notifyFailure(p, err)
		}
	}()
	return nil
}

// ConnectionChecked implements platform.Events. Inconclusive results are
// normalized to a clean not-connected record; the probe tab is closed
// immediately.
func (r *Router) ConnectionChecked(p types.Platform, tab browser.Tab, conn types.PlatformConnection) {
	defer r.track(-1)

	if conn.Status != types.StatusConnected || conn.ProfileName == nil || conn.ProfileImage == nil {
		conn = types.NotConnected()
	}
	if err := r.store.SetConnection(p, conn); err != nil {
		r.logf("connection check %s: persist state: %v", p, err)
	}
	if tab != nil {
		_ = tab.Close()
	}
}

// Posted implements platform.Events: appends the history record for a
// completed scrape publish and closes the tab after the grace delay.
func (r *Router) Posted(p types.Platform, tab browser.Tab, req types.PublishRequest) {
	rec := types.HistoryRecord{
		Title:    req.Title,
		Content:  req.Content,
		Tags:     req.Tags,
		Image:    req.Image,
		PostedOn: p.DisplayName(),
	}
	if err := r.store.AddHistory(rec); err != nil {
		r.logf("publish %s: append history: %v", p, err)
	}
	r.notifier.Notify("PostPilot", fmt.Sprintf("Published to %s", p.DisplayName()))

	if tab == nil {
		r.track(-1)
		return
	}

	r.mu.Lock()
	r.pending[tab.ID()] = tab
	r.mu.Unlock()

	go func() {
		defer r.track(-1)
		time.Sleep(r.grace)
		_ = tab.Close()
		r.mu.Lock()
		delete(r.pending, tab.ID())
		r.mu.Unlock()
	}()
}

// Abandoned implements platform.Events: the session died before its
// submit action, so no history is recorded. The failure is still
// reported rather than silently logged, and the tab is torn down.
func (r *Router) Abandoned(p types.Platform, tab browser.Tab, reason string) {
	defer r.track(-1)

	r.notifyFailure(p, fmt.Errorf("%w: %s", platform.ErrSessionAbandoned, reason))
	if tab != nil {
		_ = tab.Close()
	}
}

// Wait blocks until every dispatch, session, and teardown in flight has
// drained, or ctx is cancelled.
func (r *Router) Wait(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		// Wake the waiter so it observes the cancellation.
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for r.inflight != 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.cond.Wait()
	}
	return nil
}

func (r *Router) track(n int) {
	r.mu.Lock()
	r.inflight += n
	if r.inflight == 0 {
		r.cond.Broadcast()
	}
	r.mu.Unlock()
}

func (r *Router) notifyFailure(p types.Platform, err error) {
	r.logf("%s: %v", p, err)
	r.notifier.Notify("PostPilot", fmt.Sprintf("%s: %v", p.DisplayName(), err))
}
