package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingSender captures every event it is asked to deliver.
type recordingSender struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSender) Send(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestPoolDeliversDispatchedEvents(t *testing.T) {
	sender := &recordingSender{}
	pool := NewPool(2, sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	for i := 0; i < 5; i++ {
		pool.Dispatch(Event{Type: EventGigBroadcast, GigID: "gig-1", ProviderIDs: []string{"p1", "p2"}})
	}

	assert.Eventually(t, func() bool {
		return sender.count() == 5
	}, time.Second, 10*time.Millisecond)
}

func TestDispatchNeverBlocks(t *testing.T) {
	// No workers started: the buffered queue fills up and further
	// dispatches are dropped instead of blocking the caller.
	pool := NewPool(1, &recordingSender{})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			pool.Dispatch(Event{Type: EventOfferSent, GigID: "gig-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}
	assert.Equal(t, cap(pool.Jobs()), len(pool.Jobs()))
}
