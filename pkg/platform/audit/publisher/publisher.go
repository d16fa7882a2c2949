package publisher

import (
	"context"
	"sync"
	"time"

	id "carefund/pkg/domain"
	audit "carefund/pkg/platform/audit"
)

// Publisher captures structured audit events. It is append-only and delegates
// persistence to the store so tests can swap sinks easily. In async mode
// events are buffered and drained by a background goroutine; a full buffer
// drops the event rather than blocking the hot path.
type Publisher struct {
	store audit.Store

	inbox   chan audit.Event
	done    chan struct{}
	closing sync.Once
	wg      sync.WaitGroup
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given buffer size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
		// Buffer full: dropping is preferable to stalling a donation or vote.
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, principal id.Principal) ([]audit.Event, error) {
	return p.store.ListByPrincipal(ctx, principal)
}

// Close stops the background drain, flushing any buffered events first.
func (p *Publisher) Close() {
	p.closing.Do(func() {
		close(p.done)
		if p.inbox != nil {
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.inbox:
			_ = p.store.Append(context.Background(), event)
		case <-p.done:
			for {
				select {
				case event := <-p.inbox:
					_ = p.store.Append(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}
