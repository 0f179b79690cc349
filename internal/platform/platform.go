// Package platform defines the capability contract shared by every
// publishing destination, whether reached by direct API call or by
// browser automation.
package platform

import (
	"context"
	"errors"
	"strings"

	"github.com/Shub3am/PostPilot/internal/browser"
	"github.com/Shub3am/PostPilot/internal/types"
)

// Failure taxonomy. Adapter failures are matched with errors.Is at the
// router's dispatch boundary and turned into platform-scoped
// notifications; they never abort sibling platforms.
var (
	// ErrMissingCredential means no token is stored for an API platform.
	ErrMissingCredential = errors.New("missing credential")
	// ErrIdentityVerificationFailed means the identity endpoint rejected
	// the stored token or could not be reached.
	ErrIdentityVerificationFailed = errors.New("identity verification failed")
	// ErrImageUploadFailed means the image host did not return a URL.
	ErrImageUploadFailed = errors.New("image upload failed")
	// ErrPublishFailed covers transport errors and any response that is
	// not the platform's canonical created status, including unexpected
	// 2xx codes.
	ErrPublishFailed = errors.New("publish failed")
	// ErrNotConnected means a scrape publish was requested while the
	// platform's connection state is not connected. No tab is opened.
	ErrNotConnected = errors.New("not connected")
	// ErrSessionAbandoned means a required UI element never appeared
	// after the automation session had already opened a tab.
	ErrSessionAbandoned = errors.New("session abandoned")
)

// Adapter is one publishing destination. CheckConnection's result for
// scrape platforms arrives asynchronously through Events; the call
// itself only reports whether the probe could be started.
type Adapter interface {
	Name() types.Platform
	CheckConnection(ctx context.Context) error
	Publish(ctx context.Context, req types.PublishRequest) error
}

// Events receives the unsolicited completion signals scrape sessions
// emit. The router implements it, correlating signals back to their
// originating session by tab ID and owning tab teardown.
type Events interface {
	// ConnectionChecked reports a finished connection probe. conn is
	// already normalized: connected only when both profile fields were
	// captured.
	ConnectionChecked(p types.Platform, tab browser.Tab, conn types.PlatformConnection)

	// Posted reports a finished scrape publish carrying the original
	// request. The receiver appends history and closes the tab after a
	// grace delay.
	Posted(p types.Platform, tab browser.Tab, req types.PublishRequest)

	// Abandoned reports a session that opened a tab but never reached
	// its submit action. No history is appended for it.
	Abandoned(p types.Platform, tab browser.Tab, reason string)
}

// HashtagLine renders tags as a space-joined hashtag list, prefixing
// each tag with # unless already prefixed.
func HashtagLine(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		parts = append(parts, tag)
	}
	return strings.Join(parts, " ")
}

// ComposeBody builds the text inserted into a scrape platform's editor:
// title, blank line, body, blank line, hashtag list.
func ComposeBody(req types.PublishRequest) string {
	sections := []string{req.Title, req.Content}
	if line := HashtagLine(req.Tags); line != "" {
		sections = append(sections, line)
	}
	return strings.Join(sections, "\n\n")
}
