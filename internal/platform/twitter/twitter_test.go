package twitter

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Shub3am/PostPilot/internal/browser"
	"github.com/Shub3am/PostPilot/internal/browser/browsertest"
	"github.com/Shub3am/PostPilot/internal/platform"
	"github.com/Shub3am/PostPilot/internal/store"
	"github.com/Shub3am/PostPilot/internal/types"
)

const avatarSel = `[data-testid="UserAvatar-Container-janedoe"] img`

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
	a.Delays = Delays{}
	a.Logf = t.Logf
	return a, b, st, rec
}

func markConnected(t *testing.T, st *store.Store) {
	t.Helper()
	if err := st.SetConnection(types.PlatformTwitter, types.Connected("Jane Doe/janedoe", "https://img.example/jane.jpg")); err != nil {
		t.Fatalf("set connection: %v", err)
	}
}

func loggedInHome() *browsertest.Page {
	return &browsertest.Page{
		Present: map[string]bool{
			selProfileButton: true,
			selUserName:      true,
			avatarSel:        true,
		},
		Texts: map[string]string{selUserName: "Jane Doe@janedoe"},
		Attrs: map[string]map[string]string{
			avatarSel: {"src": "https://img.example/jane.jpg"},
		},
	}
}

func composePage() *browsertest.Page {
	return &browsertest.Page{
		Present: map[string]bool{
			selTextbox:     true,
			selEditor:      true,
			selTweetButton: true,
		},
	}
}

func TestCheckConnectionLoggedIn(t *testing.T) {
	a, _, _, rec := testAdapter(t, map[string]*browsertest.Page{homeURL: loggedInHome()})

	if err := a.CheckConnection(context.Background()); err != nil {
		t.Fatalf("check connection: %v", err)
	}

	ev := <-rec.checked
	if ev.conn.Status != types.StatusConnected {
		t.Fatalf("status = %q, want connected", ev.conn.Status)
	}
	// The rendered "name@handle" is stored as "name/handle".
	if *ev.conn.ProfileName != "Jane Doe/janedoe" {
		t.Errorf("profile name = %q, want Jane Doe/janedoe", *ev.conn.ProfileName)
	}
	if *ev.conn.ProfileImage != "https://img.example/jane.jpg" {
		t.Errorf("profile image = %q, want the avatar src", *ev.conn.ProfileImage)
	}
}

func TestCheckConnectionIdempotent(t *testing.T) {
	a, _, _, rec := testAdapter(t, map[string]*browsertest.Page{homeURL: loggedInHome()})

	if err := a.CheckConnection(context.Background()); err != nil {
		t.Fatalf("first check: %v", err)
	}
	first := <-rec.checked

	// The page is unchanged: the second probe converges to the same tuple.
	if err := a.CheckConnection(context.Background()); err != nil {
		t.Fatalf("second check: %v", err)
	}
	second := <-rec.checked

	if first.conn.Status != types.StatusConnected {
		t.Fatalf("status = %q, want connected", first.conn.Status)
	}
	if !reflect.DeepEqual(first.conn, second.conn) {
		t.Errorf("repeated probes diverged: %+v then %+v", first.conn, second.conn)
	}
}

func TestCheckConnectionLoggedOut(t *testing.T) {
	a, _, _, rec := testAdapter(t, map[string]*browsertest.Page{homeURL: {}})

	if err := a.CheckConnection(context.Background()); err != nil {
		t.Fatalf("check connection: %v", err)
	}

	ev := <-rec.checked
	if ev.conn.Status != types.StatusNotConnected || ev.conn.ProfileName != nil {
		t.Errorf("conn = %+v, want clean not_connected", ev.conn)
	}
}

func TestCheckConnectionMissingAvatar(t *testing.T) {
	page := loggedInHome()
	delete(page.Present, avatarSel)
	a, _, _, rec := testAdapter(t, map[string]*browsertest.Page{homeURL: page})

	if err := a.CheckConnection(context.Background()); err != nil {
		t.Fatalf("check connection: %v", err)
	}

	ev := <-rec.checked
	if ev.conn.Status != types.StatusNotConnected {
		t.Errorf("status = %q, want not_connected when the avatar is absent", ev.conn.Status)
	}
}

func TestPublishNotConnected(t *testing.T) {
	a, b, _, _ := testAdapter(t, map[string]*browsertest.Page{composeURL: composePage()})

	err := a.Publish(context.Background(), types.PublishRequest{Title: "t", Content: "b"})
	if err != platform.ErrNotConnected {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if got := b.OpenedURLs(); len(got) != 0 {
		t.Errorf("opened %v, want no tab for an unauthenticated publish", got)
	}
}

func TestPublishHappyPath(t *testing.T) {
	a, b, st, rec := testAdapter(t, map[string]*browsertest.Page{composeURL: composePage()})
	markConnected(t, st)

	req := types.PublishRequest{Title: "Hello", Content: "Body text.", Tags: []string{"golang"}}
	if err := a.Publish(context.Background(), req); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ev := <-rec.posted
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
	if len(clicks) != 1 || clicks[0] != selTweetButton {
		t.Errorf("clicks = %v, want just the tweet button", clicks)
	}
	if got := b.OpenedURLs(); len(got) != 1 || got[0] != composeURL {
		t.Errorf("opened %v, want the compose page", got)
	}
}

func TestPublishPastesImageBeforeText(t *testing.T) {
	a, b, st, rec := testAdapter(t, map[string]*browsertest.Page{composeURL: composePage()})
	markConnected(t, st)

	image := "data:image/jpeg;base64,aGVsbG8="
	if err := a.Publish(context.Background(), types.PublishRequest{Title: "t", Content: "b", Image: &image}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ev := <-rec.posted
	tab := b.TabByID(ev.tab.ID())
	name, ok := tab.Pasted(selEditor)
	if !ok || name != "tweet-image.jpg" {
		t.Errorf("pasted file = %q (%v), want tweet-image.jpg", name, ok)
	}
	if _, ok := tab.Inserted(selEditor); !ok {
		t.Error("text never inserted")
	}
}

func TestPublishAbandonedWhenEditorMissing(t *testing.T) {
	a, _, st, rec := testAdapter(t, map[string]*browsertest.Page{composeURL: {}})
	markConnected(t, st)

	if err := a.Publish(context.Background(), types.PublishRequest{Title: "t", Content: "b"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-rec.abandoned:
		if ev.reason != "editor not found" {
			t.Errorf("reason = %q, want editor not found", ev.reason)
		}
	case <-rec.posted:
		t.Fatal("session completed despite the missing editor")
	case <-time.After(5 * time.Second):
		t.Fatal("no completion signal")
	}
}
