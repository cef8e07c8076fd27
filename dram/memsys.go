package dram

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// ErrQueueFull is returned when a transaction is added without room for it.
var ErrQueueFull = errors.New("transaction queue full")

// MemorySystem is the host-facing view of the DRAM.
type MemorySystem interface {
	WillAcceptTransaction(addr uint64, isWrite bool) bool
	AddTransaction(addr uint64, isWrite bool, data []byte) error
	ClockTick()
	SetWriteBufferThreshold(n int)
	IsPendingTransaction() bool
}

// Transaction is one 32-byte access. Data carries the write payload, or the
// returned burst once a read has been handled.
type Transaction struct {
	ID      string
	Addr    uint64
	IsWrite bool
	Data    []byte

	IssuedAt uint64
	ReadyAt  uint64
}

// Handler performs the functional effect of a transaction at the moment it
// is accepted.
type Handler interface {
	Handle(t *Transaction) error
}

// Stats counts memory system activity.
type Stats struct {
	Cycles         uint64
	Reads          uint64
	Writes         uint64
	RetiredReads   uint64
	RetiredWrites  uint64
	MaxPendingRead int
}

// FunctionalMemorySystem executes transactions on acceptance and retires
// them in order after a fixed latency. Writes are held back until the write
// buffer holds more than the threshold.
type FunctionalMemorySystem struct {
	name string
	freq sim.Freq

	handler Handler
	reads   sim.Buffer
	writes  sim.Buffer

	readLatency      uint64
	writeLatency     uint64
	threshold        int
	defaultThreshold int

	readCallback  func(t *Transaction)
	writeCallback func(t *Transaction)

	cycle uint64
	stats Stats
}

// Name returns the name of the memory system.
func (s *FunctionalMemorySystem) Name() string { return s.name }

// Cycle returns the number of elapsed clock ticks.
func (s *FunctionalMemorySystem) Cycle() uint64 { return s.cycle }

// Now converts the cycle count to simulated time.
func (s *FunctionalMemorySystem) Now() sim.VTimeInSec {
	return sim.VTimeInSec(float64(s.cycle)) * s.freq.Period()
}

// Stats returns the counters.
func (s *FunctionalMemorySystem) Stats() Stats { return s.stats }

// Buffers returns the read and write queues.
func (s *FunctionalMemorySystem) Buffers() []sim.Buffer {
	return []sim.Buffer{s.reads, s.writes}
}

// WriteBufferThreshold returns the active threshold.
func (s *FunctionalMemorySystem) WriteBufferThreshold() int { return s.threshold }

// WillAcceptTransaction reports whether the queue for the access has room.
func (s *FunctionalMemorySystem) WillAcceptTransaction(
	addr uint64,
	isWrite bool,
) bool {
	if isWrite {
		return s.writes.CanPush()
	}

	return s.reads.CanPush()
}

// AddTransaction accepts a transaction, hands it to the handler and queues
// it for retirement.
func (s *FunctionalMemorySystem) AddTransaction(
	addr uint64,
	isWrite bool,
	data []byte,
) error {
	if !s.WillAcceptTransaction(addr, isWrite) {
		return fmt.Errorf("%s: %#x: %w", s.name, addr, ErrQueueFull)
	}

	t := &Transaction{
		ID:       sim.GetIDGenerator().Generate(),
		Addr:     addr,
		IsWrite:  isWrite,
		Data:     data,
		IssuedAt: s.cycle,
	}

	if err := s.handler.Handle(t); err != nil {
		return fmt.Errorf("%s: %#x: %w", s.name, addr, err)
	}

	if isWrite {
		t.ReadyAt = s.cycle + s.writeLatency
		s.writes.Push(t)
		s.stats.Writes++
	} else {
		t.ReadyAt = s.cycle + s.readLatency
		s.reads.Push(t)
		s.stats.Reads++

		if s.reads.Size() > s.stats.MaxPendingRead {
			s.stats.MaxPendingRead = s.reads.Size()
		}
	}

	return nil
}

// ClockTick advances one cycle and retires what is due.
func (s *FunctionalMemorySystem) ClockTick() {
	s.cycle++
	s.stats.Cycles++

	for {
		t, ok := s.reads.Peek().(*Transaction)
		if !ok || t.ReadyAt > s.cycle {
			break
		}

		s.reads.Pop()
		s.stats.RetiredReads++

		if s.readCallback != nil {
			s.readCallback(t)
		}
	}

	for s.writes.Size() > s.threshold {
		t := s.writes.Peek().(*Transaction)
		if t.ReadyAt > s.cycle {
			break
		}

		s.writes.Pop()
		s.stats.RetiredWrites++

		if s.writeCallback != nil {
			s.writeCallback(t)
		}
	}
}

// SetWriteBufferThreshold sets how many writes may stay buffered. A
// negative value restores the configured default.
func (s *FunctionalMemorySystem) SetWriteBufferThreshold(n int) {
	if n < 0 {
		n = s.defaultThreshold
	}

	s.threshold = n
}

// IsPendingTransaction reports whether any transaction is unretired.
func (s *FunctionalMemorySystem) IsPendingTransaction() bool {
	return s.reads.Size() > 0 || s.writes.Size() > 0
}
