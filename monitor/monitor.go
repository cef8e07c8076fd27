// Package monitor observes the queues of the simulator through akita hooks.
package monitor

import (
	"sort"
	"sync"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pimfuncsim/core"
)

// QueueHook counts the buffer events of every queue it is attached to.
type QueueHook struct {
	mu     sync.Mutex
	counts map[string]uint64
}

// NewQueueHook creates an empty hook.
func NewQueueHook() *QueueHook {
	return &QueueHook{counts: make(map[string]uint64)}
}

// Func records one event.
func (h *QueueHook) Func(ctx sim.HookCtx) {
	name := "?"
	if n, ok := ctx.Domain.(sim.Named); ok {
		name = n.Name()
	}

	h.mu.Lock()
	h.counts[name]++
	h.mu.Unlock()

	core.Trace("Queue", "queue", name, "pos", ctx.Pos.Name, "item", ctx.Item)
}

// Attach registers the hook on a set of buffers.
func (h *QueueHook) Attach(buffers ...sim.Buffer) {
	for _, b := range buffers {
		b.AcceptHook(h)
	}
}

// Count returns the events seen on one queue.
func (h *QueueHook) Count(queue string) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.counts[queue]
}

// Total returns the events seen on all queues.
func (h *QueueHook) Total() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	var t uint64
	for _, c := range h.counts {
		t += c
	}

	return t
}

// Queues lists the queues that produced events, sorted by name.
func (h *QueueHook) Queues() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.counts))
	for n := range h.counts {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
