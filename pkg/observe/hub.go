// Package observe provides the change notification used by the session
// and the synchronizers.
package observe

import "sync"

// Hub fans a value out to subscribers. Callbacks run synchronously on the
// publishing goroutine, in subscription order.
type Hub[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(T)
	order  []uint64

	deliverMu sync.Mutex
	lastSeq   uint64
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (h *Hub[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[uint64]func(T))
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = fn
	h.order = append(h.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Publish calls every current subscriber with v. The subscriber list is
// copied first so callbacks may subscribe or unsubscribe.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	fns := make([]func(T), 0, len(h.order))
	for _, id := range h.order {
		fns = append(fns, h.subs[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// PublishSeq is Publish for values stamped with an increasing sequence
// number. A value older than one already delivered is dropped, so
// subscribers never see state go backwards when publishers race. It
// reports whether v was delivered. Callbacks must not publish to the same
// hub.
func (h *Hub[T]) PublishSeq(seq uint64, v T) bool {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	if seq <= h.lastSeq {
		return false
	}
	h.lastSeq = seq
	h.Publish(v)
	return true
}

// Len returns the number of subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}
