// Package notification fans allocation events out to the notification
// collaborator. Delivery transports (SMS, USSD, push) live behind the Sender
// interface and are out of scope here; dispatch is fire-and-forget and must
// never block or fail an allocation command.
package notification

import (
	"context"
	"log"
)

// Event types emitted by the allocation engine.
const (
	EventOfferSent    = "offer_sent"
	EventGigAccepted  = "gig_accepted"
	EventGigBroadcast = "gig_broadcast"
)

// Event describes one allocation outcome worth telling providers about.
type Event struct {
	Type        string
	GigID       string
	ProviderIDs []string
}

// Sender delivers a single event. Implementations are supplied by the
// surrounding system.
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// LogSender is the default Sender: it only logs. Real transports replace it
// in production wiring.
type LogSender struct{}

// Send logs the event and reports success.
func (LogSender) Send(_ context.Context, ev Event) error {
	log.Printf("notify %s: gig %s -> %d provider(s)", ev.Type, ev.GigID, len(ev.ProviderIDs))
	return nil
}

// Pool manages a pool of workers draining the event channel.
type Pool struct {
	size   int
	jobs   chan Event
	sender Sender
}

// NewPool creates a worker pool of the given size. A nil sender falls back
// to LogSender.
func NewPool(size int, sender Sender) *Pool {
	if size < 1 {
		size = 1
	}
	if sender == nil {
		sender = LogSender{}
	}
	return &Pool{
		size:   size,
		jobs:   make(chan Event, size*4),
		sender: sender,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.worker(ctx, i)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	for {
		select {
		case ev := <-p.jobs:
			if err := p.sender.Send(ctx, ev); err != nil {
				log.Printf("worker %d: failed to send %s for gig %s: %v", id, ev.Type, ev.GigID, err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Dispatch queues an event without blocking. If the queue is full the event
// is dropped; allocation correctness never depends on delivery.
func (p *Pool) Dispatch(ev Event) {
	select {
	case p.jobs <- ev:
	default:
		log.Printf("notification queue full, dropping %s for gig %s", ev.Type, ev.GigID)
	}
}

// Jobs returns the jobs channel for testing.
func (p *Pool) Jobs() chan Event {
	return p.jobs
}
