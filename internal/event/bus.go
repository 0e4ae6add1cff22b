// Package event provides the in-process event bus modules publish content
// changes on, and a WebSocket stream that forwards those events to admin
// clients.
package event

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/showcase/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.EventBus = (*Bus)(nil)

type subscription struct {
	id      uint64
	handler plugin.EventHandler
}

// Bus is a synchronous, topic-keyed event bus. Handlers run on the
// publisher's goroutine unless PublishAsync is used. A panicking handler
// is logged and does not stop the remaining handlers.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string][]subscription
	all    []subscription
	logger *zap.Logger
	onPub  func(topic string)
	now    func() time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithPublishHook registers fn to be called once per published event, for
// metrics.
func WithPublishHook(fn func(topic string)) Option {
	return func(b *Bus) { b.onPub = fn }
}

// NewBus returns an empty bus.
func NewBus(logger *zap.Logger, opts ...Option) *Bus {
	b := &Bus{
		topics: make(map[string][]subscription),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers event to topic subscribers, then to SubscribeAll
// subscribers. A zero Timestamp is set to the current time.
func (b *Bus) Publish(ctx context.Context, event plugin.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = b.now().UTC()
	}
	if b.onPub != nil {
		b.onPub(event.Topic)
	}
	for _, h := range b.handlers(event.Topic) {
		b.call(ctx, h, event)
	}
	return nil
}

// PublishAsync delivers event on a new goroutine.
func (b *Bus) PublishAsync(ctx context.Context, event plugin.Event) {
	go func() {
		_ = b.Publish(context.WithoutCancel(ctx), event)
	}()
}

// Subscribe registers handler for one topic and returns a function that
// removes it.
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription{id: id, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.topics[topic] = remove(b.topics[topic], id)
		if len(b.topics[topic]) == 0 {
			delete(b.topics, topic)
		}
	}
}

// SubscribeAll registers handler for every topic.
func (b *Bus) SubscribeAll(handler plugin.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: handler})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = remove(b.all, id)
	}
}

// handlers snapshots the handlers for topic so delivery runs unlocked.
func (b *Bus) handlers(topic string) []plugin.EventHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]plugin.EventHandler, 0, len(b.topics[topic])+len(b.all))
	for _, s := range b.topics[topic] {
		out = append(out, s.handler)
	}
	for _, s := range b.all {
		out = append(out, s.handler)
	}
	return out
}

func (b *Bus) call(ctx context.Context, h plugin.EventHandler, event plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	h(ctx, event)
}

func remove(subs []subscription, id uint64) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
