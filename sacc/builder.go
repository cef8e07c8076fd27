package sacc

import (
	"github.com/sarchlab/akita/v4/sim"
)

// Builder can create shared accumulators.
type Builder struct {
	id          int
	left, right Unit
	hooks       []sim.Hook
}

// NewBuilder returns an empty builder.
func NewBuilder() Builder {
	return Builder{}
}

// WithID sets the accumulator index.
func (b Builder) WithID(id int) Builder {
	b.id = id
	return b
}

// WithUnits sets the even (left) and odd (right) unit of the pair.
func (b Builder) WithUnits(left, right Unit) Builder {
	b.left = left
	b.right = right
	return b
}

// WithHook attaches a hook to both queues.
func (b Builder) WithHook(hook sim.Hook) Builder {
	b.hooks = append(append([]sim.Hook(nil), b.hooks...), hook)
	return b
}

// Build creates an accumulator. The name must be a valid akita name.
func (b Builder) Build(name string) *Accumulator {
	if b.left == nil || b.right == nil {
		panic("shared accumulator needs two units")
	}

	a := &Accumulator{
		name:  name,
		id:    b.id,
		left:  b.left,
		right: b.right,
		lq:    sim.NewBuffer(name+".LeftQueue", QueueCapacity),
		rq:    sim.NewBuffer(name+".RightQueue", QueueCapacity),
	}

	for _, h := range b.hooks {
		a.lq.AcceptHook(h)
		a.rq.AcceptHook(h)
	}

	return a
}
