package core

import (
	"github.com/sarchlab/pimfuncsim/isa"
)

// Builder can create new compute units.
type Builder struct {
	id     int
	memory BankMemory
}

// NewBuilder returns a builder with default settings.
func NewBuilder() Builder {
	return Builder{}
}

// WithID sets the global index of the unit.
func (b Builder) WithID(id int) Builder {
	b.id = id
	return b
}

// WithMemory sets the bank storage the unit stages bursts from.
func (b Builder) WithMemory(memory BankMemory) Builder {
	b.memory = memory
	return b
}

// Build creates a compute unit. Every CRF slot starts as NOP 0.
func (b Builder) Build(name string) *ComputeUnit {
	if b.memory == nil {
		panic("compute unit needs a bank memory")
	}

	u := &ComputeUnit{
		name:   name,
		id:     b.id,
		memory: b.memory,
	}

	for i := range u.crf {
		u.crf[i] = isa.Nop(0)
	}

	return u
}
