// Package notify surfaces platform-scoped outcomes as desktop
// notifications, falling back to stderr when the desktop bus is
// unavailable (headless hosts, CI).
package notify

import (
	"log"

	"github.com/gen2brain/beeep"
)

// Desktop sends notifications through the OS notification surface.
type Desktop struct {
	// Silent suppresses desktop delivery and only logs. Used by
	// non-interactive commands.
	Silent bool
}

// Notify delivers one notification. Delivery failures are logged, never
// propagated: a missed toast must not fail a publish.
func (d *Desktop) Notify(title, body string) {
	log.Printf("[notify] %s: %s", title, body)
	if d.Silent {
		return
	}
	if err := beeep.Notify(title, body, ""); err != nil {
		log.Printf("[notify] delivery failed: %v", err)
	}
}
