package store

import (
	"context"
	"testing"
	"time"

	"github.com/Shub3am/PostPilot/internal/types"
)

func TestWatchSignalsOnWrite(t *testing.T) {
	s := testStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := s.AddHistory(types.HistoryRecord{Title: "a", PostedOn: "dev.to"}); err != nil {
		t.Fatalf("add history: %v", err)
	}

	select {
	case _, ok := <-ch:
		if !ok {
			t.Fatal("watch channel closed before cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no signal after a store write")
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	s := testStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			// A buffered signal may still be pending; the close follows.
			if _, ok := <-ch; ok {
				t.Fatal("channel still open after cancel")
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel never closed after cancel")
	}
}
