package linkedin

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Shub3am/PostPilot/internal/browser"
	"github.com/Shub3am/PostPilot/internal/browser/browsertest"
	"github.com/Shub3am/PostPilot/internal/platform"
	"github.com/Shub3am/PostPilot/internal/store"
	"github.com/Shub3am/PostPilot/internal/types"
)

type checkedEvent struct {
	tab  browser.Tab
	conn types.PlatformConnection
}

type postedEvent struct {
	tab browser.Tab
	req types.PublishRequest
}

type abandonedEvent struct {
	tab    browser.Tab
	reason string
}

// recorder collects the completion signals a session emits.
type recorder struct {
	checked   chan checkedEvent
	posted    chan postedEvent
	abandoned chan abandonedEvent
}

func newRecorder() *recorder {
	return &recorder{
		checked:   make(chan checkedEvent, 1),
		posted:    make(chan postedEvent, 1),
		abandoned: make(chan abandonedEvent, 1),
	}
}

func (r *recorder) ConnectionChecked(p types.Platform, tab browser.Tab, conn types.PlatformConnection) {
	r.checked <- checkedEvent{tab: tab, conn: conn}
}

func (r *recorder) Posted(p types.Platform, tab browser.Tab, req types.PublishRequest) {
	r.posted <- postedEvent{tab: tab, req: req}
}

func (r *recorder) Abandoned(p types.Platform, tab browser.Tab, reason string) {
	r.abandoned <- abandonedEvent{tab: tab, reason: reason}
}

func testAdapter(t *testing.T, pages map[string]*browsertest.Page) (*Adapter, *browsertest.Browser, *store.Store, *recorder) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "postpilot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	b := browsertest.New(pages)
	rec := newRecorder()
	a := New(b, st, rec)
	a.Delays = Delays{} // no settle pauses in tests
	a.Logf = t.Logf
	return a, b, st, rec
}

func markConnected(t *testing.T, st *store.Store) {
	t.Helper()
	if err := st.SetConnection(types.PlatformLinkedin, types.Connected("Jane Doe", "https://img.example/jane.jpg")); err != nil {
		t.Fatalf("set connection: %v", err)
	}
}

func loggedInFeed() *browsertest.Page {
	return &browsertest.Page{
		Present: map[string]bool{
			selTopBar:      true,
			selStartButton: true,
		},
		Texts: map[string]string{selProfileName: "Jane Doe"},
		Attrs: map[string]map[string]string{
			selProfileImage: {"src": "https://img.example/jane.jpg"},
		},
		// Clicking the start button materializes the share modal.
		Reveal: map[string][]string{
			selStartButton: {selEditor, selActions, selPostButton},
		},
	}
}

func TestCheckConnectionLoggedIn(t *testing.T) {
	a, b, _, rec := testAdapter(t, map[string]*browsertest.Page{feedURL: loggedInFeed()})

	if err := a.CheckConnection(context.Background()); err != nil {
		t.Fatalf("check connection: %v", err)
	}

	ev := <-rec.checked
	if ev.conn.Status != types.StatusConnected {
		t.Fatalf("status = %q, want connected", ev.conn.Status)
	}
	if *ev.conn.ProfileName != "Jane Doe" || *ev.conn.ProfileImage != "https://img.example/jane.jpg" {
		t.Errorf("profile = %q / %q, want probed values", *ev.conn.ProfileName, *ev.conn.ProfileImage)
	}
	if got := b.OpenedURLs(); len(got) != 1 || got[0] != feedURL {
		t.Errorf("opened %v, want the feed", got)
	}
}

func TestCheckConnectionLoggedOut(t *testing.T) {
	// A feed without the profile card: the probe yields a clean
	// not-connected result, never a partial one.
	a, _, _, rec := testAdapter(t, map[string]*browsertest.Page{feedURL: {}})

	if err := a.CheckConnection(context.Background()); err != nil {
		t.Fatalf("check connection: %v", err)
	}

	ev := <-rec.checked
	if ev.conn.Status != types.StatusNotConnected || ev.conn.ProfileName != nil || ev.conn.ProfileImage != nil {
		t.Errorf("conn = %+v, want clean not_connected", ev.conn)
	}
	if ev.tab == nil {
		t.Error("probe tab missing from completion signal")
	}
}

func TestPublishNotConnected(t *testing.T) {
	a, b, _, _ := testAdapter(t, map[string]*browsertest.Page{feedURL: loggedInFeed()})

	err := a.Publish(context.Background(), types.PublishRequest{Title: "t", Content: "b"})
	if err != platform.ErrNotConnected {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if got := b.OpenedURLs(); len(got) != 0 {
		t.Errorf("opened %v, want no tab for an unauthenticated publish", got)
	}
}

func TestPublishHappyPath(t *testing.T) {
	a, b, st, rec := testAdapter(t, map[string]*browsertest.Page{feedURL: loggedInFeed()})
	markConnected(t, st)

	req := types.PublishRequest{
		Title:   "Hello",
		Content: "Body text.",
		Tags:    []string{"golang"},
	}
	if err := a.Publish(context.Background(), req); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ev := <-rec.posted
	if ev.req.Title != "Hello" {
		t.Errorf("posted request title = %q, want Hello", ev.req.Title)
	}

	tab := b.TabByID(ev.tab.ID())
	if tab == nil {
		t.Fatal("posted tab not found")
	}
	text, ok := tab.Inserted(selEditor)
	if !ok {
		t.Fatal("nothing inserted into the editor")
	}
	if want := "Hello\n\nBody text.\n\n#golang"; text != want {
		t.Errorf("inserted %q, want %q", text, want)
	}
	clicks := tab.Clicked()
	if len(clicks) != 2 || clicks[0] != selStartButton || clicks[1] != selPostButton {
		t.Errorf("clicks = %v, want start then post", clicks)
	}
}

func TestPublishWithImage(t *testing.T) {
	a, b, st, rec := testAdapter(t, map[string]*browsertest.Page{feedURL: loggedInFeed()})
	markConnected(t, st)

	image := "data:image/jpeg;base64,aGVsbG8="
	req := types.PublishRequest{Title: "t", Content: "b", Image: &image}
	if err := a.Publish(context.Background(), req); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ev := <-rec.posted
	tab := b.TabByID(ev.tab.ID())
	name, ok := tab.Pasted(selEditor)
	if !ok || name != "post-image.jpg" {
		t.Errorf("pasted file = %q (%v), want post-image.jpg", name, ok)
	}
}

func TestPublishAbandonedWhenActionsMissing(t *testing.T) {
	page := loggedInFeed()
	// The editor appears but the actions bar never does.
	page.Reveal[selStartButton] = []string{selEditor}
	a, _, st, rec := testAdapter(t, map[string]*browsertest.Page{feedURL: page})
	markConnected(t, st)

	if err := a.Publish(context.Background(), types.PublishRequest{Title: "t", Content: "b"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-rec.abandoned:
		if ev.reason != "post actions not found" {
			t.Errorf("reason = %q, want post actions not found", ev.reason)
		}
		if ev.tab == nil {
			t.Error("abandoned signal lost its tab")
		}
	case <-rec.posted:
		t.Fatal("session completed despite the missing actions bar")
	case <-time.After(5 * time.Second):
		t.Fatal("no completion signal")
	}
}

func TestPublishAbandonedWhenShareBoxMissing(t *testing.T) {
	a, _, st, rec := testAdapter(t, map[string]*browsertest.Page{feedURL: {}})
	markConnected(t, st)

	if err := a.Publish(context.Background(), types.PublishRequest{Title: "t", Content: "b"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-rec.abandoned:
		if ev.reason != "post widget not found" {
			t.Errorf("reason = %q, want post widget not found", ev.reason)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no completion signal")
	}
}
