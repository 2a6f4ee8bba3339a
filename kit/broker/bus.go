package broker

import (
	"context"
	"log"
	"sync"
)

// Event is anything that can flow over the bus. Enrollment lifecycle events
// additionally carry a PartitionKey (the enrollment id), but the bus itself
// only cares about the name.
type Event interface {
	Name() string
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) []error
}

type Handler func(ctx context.Context, evt Event) error

// Bus is the in-process pub/sub fabric between the web layer and the
// consumers (CRM sync, audit, metrics, notifications, read model). Delivery
// is synchronous and in subscription order; a panicking or failing handler
// never stops the remaining handlers.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]Handler
}

func New() *Bus {
	return &Bus{subs: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(eventName string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subs[eventName] = append(b.subs[eventName], h)
	b.mu.Unlock()
}

// Publish delivers evt to every subscriber of its name and returns the
// per-handler errors, if any. Publishers in this codebase treat those errors
// as best-effort signals; the state change that produced the event already
// happened.
func (b *Bus) Publish(ctx context.Context, evt Event) []error {
	b.mu.RLock()
	hs := make([]Handler, len(b.subs[evt.Name()]))
	copy(hs, b.subs[evt.Name()])
	b.mu.RUnlock()

	var errs []error
	for i, h := range hs {
		if err := b.deliver(ctx, evt, i, h); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (b *Bus) deliver(ctx context.Context, evt Event, idx int, h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("layer=broker component=bus event=%s handler_index=%d panic=%v", evt.Name(), idx, r)
			err = context.Canceled
		}
	}()
	if err := h(ctx, evt); err != nil {
		log.Printf("layer=broker component=bus event=%s handler_index=%d err=%v", evt.Name(), idx, err)
		return err
	}
	return nil
}
