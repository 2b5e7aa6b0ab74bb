// Package events is an in-process publish/subscribe bus with typed topics.
package events

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Topic binds a name to its payload type.
type Topic[T any] struct {
	name string
}

// NewTopic declares a topic.
func NewTopic[T any](name string) Topic[T] { return Topic[T]{name: name} }

func (t Topic[T]) Name() string { return t.name }

// Bus delivers payloads synchronously to subscribers in subscription order.
// The zero value is not usable; call New.
type Bus struct {
	mu     sync.RWMutex
	next   uint64
	subs   map[string]map[uint64]func(any)
	logger *zap.Logger
}

// New builds a bus. A nil logger discards handler panics silently.
func New(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{subs: make(map[string]map[uint64]func(any)), logger: logger}
}

// Subscribe registers fn for topic and returns a func that removes it.
func Subscribe[T any](b *Bus, topic Topic[T], fn func(T)) (unsubscribe func()) {
	if b == nil || fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.next++
	id := b.next
	if b.subs[topic.name] == nil {
		b.subs[topic.name] = make(map[uint64]func(any))
	}
	b.subs[topic.name][id] = func(v any) { fn(v.(T)) }
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic.name], id)
			if len(b.subs[topic.name]) == 0 {
				delete(b.subs, topic.name)
			}
			b.mu.Unlock()
		})
	}
}

// Publish delivers payload to every current subscriber of topic. A panicking
// handler is logged and does not stop delivery to the rest.
func Publish[T any](b *Bus, topic Topic[T], payload T) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := b.subs[topic.name]
	ids := make([]uint64, 0, len(handlers))
	for id := range handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(any), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, handlers[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		b.deliver(topic.name, fn, payload)
	}
}

func (b *Bus) deliver(topic string, fn func(any), payload any) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("events: handler panicked",
				zap.String("topic", topic),
				zap.String("panic", fmt.Sprint(rec)),
			)
		}
	}()
	fn(payload)
}

// Subscribers returns the number of handlers on topic.
func (b *Bus) Subscribers(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}
