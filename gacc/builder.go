package gacc

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// Builder can create global accumulators.
type Builder struct {
	capacity int
	hooks    []sim.Hook
}

// NewBuilder returns a builder with the default queue capacity.
func NewBuilder() Builder {
	return Builder{capacity: QueueCapacity}
}

// WithQueueCapacity sets the size ceiling of every queue.
func (b Builder) WithQueueCapacity(capacity int) Builder {
	b.capacity = capacity
	return b
}

// WithHook attaches a hook to every queue.
func (b Builder) WithHook(hook sim.Hook) Builder {
	b.hooks = append(append([]sim.Hook(nil), b.hooks...), hook)
	return b
}

// Build creates the tree: 16 leaves, then 8, 4 and 2 queues, then the
// result queue.
func (b Builder) Build(name string) *Accumulator {
	a := &Accumulator{name: name}

	for n, level := Leaves, 1; n >= 2; n, level = n/2, level+1 {
		queues := make([]sim.Buffer, n)
		for i := range queues {
			queues[i] = sim.NewBuffer(
				fmt.Sprintf("%s.Level%d[%d]", name, level, i), b.capacity)
		}

		a.levels = append(a.levels, queues)
	}

	a.result = sim.NewBuffer(name+".Result", b.capacity)

	for _, h := range b.hooks {
		for _, q := range a.Buffers() {
			q.AcceptHook(h)
		}
	}

	return a
}
