package controller

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/core"
	"github.com/sarchlab/pimfuncsim/gacc"
	"github.com/sarchlab/pimfuncsim/sacc"
)

// Builder can create controllers.
type Builder struct {
	topo    Topology
	mapping addrmap.Mapping
	memory  Memory
	hooks   []sim.Hook
}

// NewBuilder returns a builder for one HBM2-like stack.
func NewBuilder() Builder {
	return Builder{
		topo: Topology{
			Channels:      16,
			BankGroups:    4,
			BanksPerGroup: 4,
		},
		mapping: addrmap.NewMapping(addrmap.DefaultLayout()),
	}
}

// WithTopology sets the bank organisation.
func (b Builder) WithTopology(t Topology) Builder {
	b.topo = t
	return b
}

// WithMapping sets the address mapping.
func (b Builder) WithMapping(m addrmap.Mapping) Builder {
	b.mapping = m
	return b
}

// WithMemory sets the bank storage.
func (b Builder) WithMemory(m Memory) Builder {
	b.memory = m
	return b
}

// WithHook attaches a hook to every accumulator queue.
func (b Builder) WithHook(hook sim.Hook) Builder {
	b.hooks = append(append([]sim.Hook(nil), b.hooks...), hook)
	return b
}

// Build creates the controller together with its units and accumulators.
func (b Builder) Build(name string) *Controller {
	if b.memory == nil {
		panic("controller needs a memory")
	}

	if b.topo.Banks()%4 != 0 || b.topo.Channels <= 0 {
		panic(fmt.Sprintf("unsupported topology %+v", b.topo))
	}

	c := &Controller{
		name:     name,
		topo:     b.topo,
		mapping:  b.mapping,
		memory:   b.memory,
		channels: make([]channelState, b.topo.Channels),
	}

	for i := 0; i < b.topo.Units(); i++ {
		c.units = append(c.units, core.NewBuilder().
			WithID(i).
			WithMemory(b.memory).
			Build(fmt.Sprintf("%s.Unit[%d]", name, i)))
	}

	for i := 0; i < len(c.units)/2; i++ {
		sb := sacc.NewBuilder().
			WithID(i).
			WithUnits(c.units[2*i], c.units[2*i+1])
		for _, h := range b.hooks {
			sb = sb.WithHook(h)
		}

		c.shared = append(c.shared,
			sb.Build(fmt.Sprintf("%s.SharedAcc[%d]", name, i)))
	}

	gb := gacc.NewBuilder()
	for _, h := range b.hooks {
		gb = gb.WithHook(h)
	}

	c.global = gb.Build(name + ".GlobalAcc")

	return c
}
