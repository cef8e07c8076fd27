package dram

import (
	"github.com/sarchlab/akita/v4/sim"
)

// Builder can create functional memory systems.
type Builder struct {
	freq          sim.Freq
	handler       Handler
	readLatency   uint64
	writeLatency  uint64
	queueDepth    int
	threshold     int
	readCallback  func(t *Transaction)
	writeCallback func(t *Transaction)
	hooks         []sim.Hook
}

// NewBuilder returns a builder with HBM2-like defaults.
func NewBuilder() Builder {
	return Builder{
		freq:         1 * sim.GHz,
		readLatency:  20,
		writeLatency: 20,
		queueDepth:   32,
		threshold:    8,
	}
}

// WithFreq sets the clock frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithHandler sets what performs accepted transactions.
func (b Builder) WithHandler(h Handler) Builder {
	b.handler = h
	return b
}

// WithReadLatency sets the cycles between accepting and retiring a read.
func (b Builder) WithReadLatency(cycles uint64) Builder {
	b.readLatency = cycles
	return b
}

// WithWriteLatency sets the minimum cycles a write stays buffered.
func (b Builder) WithWriteLatency(cycles uint64) Builder {
	b.writeLatency = cycles
	return b
}

// WithQueueDepth sets the capacity of the read and of the write queue.
func (b Builder) WithQueueDepth(depth int) Builder {
	b.queueDepth = depth
	return b
}

// WithWriteBufferThreshold sets the default write buffer threshold.
func (b Builder) WithWriteBufferThreshold(n int) Builder {
	b.threshold = n
	return b
}

// WithReadCallback sets the function called when a read retires.
func (b Builder) WithReadCallback(f func(t *Transaction)) Builder {
	b.readCallback = f
	return b
}

// WithWriteCallback sets the function called when a write retires.
func (b Builder) WithWriteCallback(f func(t *Transaction)) Builder {
	b.writeCallback = f
	return b
}

// WithHook attaches a hook to both queues.
func (b Builder) WithHook(hook sim.Hook) Builder {
	b.hooks = append(append([]sim.Hook(nil), b.hooks...), hook)
	return b
}

// Build creates the memory system.
func (b Builder) Build(name string) *FunctionalMemorySystem {
	if b.handler == nil {
		panic("memory system needs a handler")
	}

	s := &FunctionalMemorySystem{
		name:             name,
		freq:             b.freq,
		handler:          b.handler,
		reads:            sim.NewBuffer(name+".ReadQueue", b.queueDepth),
		writes:           sim.NewBuffer(name+".WriteQueue", b.queueDepth),
		readLatency:      b.readLatency,
		writeLatency:     b.writeLatency,
		threshold:        b.threshold,
		defaultThreshold: b.threshold,
		readCallback:     b.readCallback,
		writeCallback:    b.writeCallback,
	}

	for _, h := range b.hooks {
		s.reads.AcceptHook(h)
		s.writes.AcceptHook(h)
	}

	return s
}
