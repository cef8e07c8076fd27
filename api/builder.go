package api

import (
	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/dram"
)

// DriverBuilder creates a new instance of Driver.
type DriverBuilder struct {
	memory    dram.MemorySystem
	mapping   addrmap.Mapping
	tickLimit int
}

// MakeDriverBuilder returns a builder with the default mapping.
func MakeDriverBuilder() DriverBuilder {
	return DriverBuilder{
		mapping:   addrmap.NewMapping(addrmap.DefaultLayout()),
		tickLimit: 1 << 20,
	}
}

// WithMemorySystem sets the memory system the driver talks to.
func (b DriverBuilder) WithMemorySystem(m dram.MemorySystem) DriverBuilder {
	b.memory = m
	return b
}

// WithMapping sets the address mapping used to compose addresses.
func (b DriverBuilder) WithMapping(m addrmap.Mapping) DriverBuilder {
	b.mapping = m
	return b
}

// WithTickLimit sets how many cycles the driver waits for a full queue.
func (b DriverBuilder) WithTickLimit(n int) DriverBuilder {
	b.tickLimit = n
	return b
}

// Build creates a driver.
func (b DriverBuilder) Build(name string) Driver {
	if b.memory == nil {
		panic("driver requires a memory system")
	}

	return &driverImpl{
		name:      name,
		memory:    b.memory,
		mapping:   b.mapping,
		tickLimit: b.tickLimit,
	}
}
