// Package sacc implements the accumulator shared by the two compute units of
// a bank-group pair. Each unit contributes a sorted stream of composite
// indices and matching entries are summed into the left unit's GRF_A.
package sacc

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pimfuncsim/core"
)

// Queue geometry and limits.
const (
	QueueCapacity  = 16
	FlushThreshold = 8
	MergeLimit     = 100000

	firstHalfEntries  = 8
	secondHalfEntries = 7
)

// Handshake errors.
var (
	ErrForeignUnit = errors.New("event from a unit outside the pair")
	ErrHalfPending = errors.New("half already posted")
	ErrNotReady    = errors.New("both halves must be posted before commit")
)

// OverflowError is the panic value raised when a queue exceeds its capacity.
type OverflowError struct {
	Queue string
}

func (e *OverflowError) Error() string {
	return e.Queue + " overflow"
}

// Unit is the view of a compute unit the accumulator needs.
type Unit interface {
	ID() int
	Registers() *core.RegisterFile
}

// Element is one queued index. Order is the GRF_A scalar slot holding the
// value that belongs to the index.
type Element struct {
	Order uint8
	Index uint32
}

// Report describes one run.
type Report struct {
	Matches     int
	Misses      int
	ColumnFlush bool
	Flushed     bool
}

// Stats accumulates reports.
type Stats struct {
	Runs            uint64
	Matches         uint64
	Misses          uint64
	ColumnFlushes   uint64
	OverflowFlushes uint64
}

// Accumulator merges the index streams of its left (even) and right (odd)
// unit.
type Accumulator struct {
	name string
	id   int

	left, right Unit
	lq, rq      sim.Buffer

	halves [2]*core.ShareEvent

	seen       bool
	prevColumn uint32
	epoch      int

	stats Stats
}

// Name returns the name of the accumulator.
func (a *Accumulator) Name() string { return a.name }

// ID returns the accumulator index. It decides which side a column change
// flushes.
func (a *Accumulator) ID() int { return a.id }

// Queues returns the left and right queues.
func (a *Accumulator) Queues() (sim.Buffer, sim.Buffer) { return a.lq, a.rq }

// LeftLen returns the number of queued left indices.
func (a *Accumulator) LeftLen() int { return a.lq.Size() }

// RightLen returns the number of queued right indices.
func (a *Accumulator) RightLen() int { return a.rq.Size() }

// PeekLeft returns the front of the left queue.
func (a *Accumulator) PeekLeft() (Element, bool) { return peek(a.lq) }

// PeekRight returns the front of the right queue.
func (a *Accumulator) PeekRight() (Element, bool) { return peek(a.rq) }

// Stats returns the cumulative counters.
func (a *Accumulator) Stats() Stats { return a.stats }

// ColumnEpoch is the word of the column-group burst the next run compares.
func (a *Accumulator) ColumnEpoch() int { return a.epoch }

func peek(q sim.Buffer) (Element, bool) {
	e := q.Peek()
	if e == nil {
		return Element{}, false
	}

	return e.(Element), true
}

// Post records the half-ready event of one unit and reports whether both
// halves are now present.
func (a *Accumulator) Post(ev core.ShareEvent) (bool, error) {
	side := -1

	switch ev.Unit {
	case a.left.ID():
		side = 0
	case a.right.ID():
		side = 1
	}

	if side < 0 {
		return false, fmt.Errorf("%s: unit %d: %w", a.name, ev.Unit, ErrForeignUnit)
	}

	if a.halves[side] != nil {
		return false, fmt.Errorf("%s: unit %d: %w", a.name, ev.Unit, ErrHalfPending)
	}

	a.halves[side] = &ev

	return a.Ready(), nil
}

// Ready reports whether both halves have been posted.
func (a *Accumulator) Ready() bool {
	return a.halves[0] != nil && a.halves[1] != nil
}

// Commit consumes both halves: their indices are queued according to the
// column parity and a run is made against the given column-group word.
func (a *Accumulator) Commit(columnWord uint32) (Report, error) {
	if !a.Ready() {
		return Report{}, fmt.Errorf("%s: %w", a.name, ErrNotReady)
	}

	l, r := a.halves[0], a.halves[1]
	a.halves = [2]*core.ShareEvent{}

	if l.Column%2 == 0 {
		a.LoadIndices(l.Indices, r.Indices)
	} else {
		a.LoadIndicesSecondHalf(l.Indices, r.Indices)
	}

	return a.Run(columnWord), nil
}

// LoadIndices queues the packed indices of slots 0 to 7. Zero indices are
// skipped.
func (a *Accumulator) LoadIndices(left, right [core.ScratchSize]uint32) {
	for i := 0; i < firstHalfEntries; i++ {
		a.push(a.lq, uint8(i), left[i])
		a.push(a.rq, uint8(i), right[i])
	}
}

// LoadIndicesSecondHalf queues slots 8 to 14 from scratch entries 0 to 6.
func (a *Accumulator) LoadIndicesSecondHalf(left, right [core.ScratchSize]uint32) {
	for i := 0; i < secondHalfEntries; i++ {
		a.push(a.lq, uint8(firstHalfEntries+i), left[i])
		a.push(a.rq, uint8(firstHalfEntries+i), right[i])
	}
}

func (a *Accumulator) push(q sim.Buffer, order uint8, index uint32) {
	if index == 0 {
		return
	}

	if !q.CanPush() {
		panic(&OverflowError{Queue: q.Name()})
	}

	q.Push(Element{Order: order, Index: index})
}

// Run flushes the responsible side if the column-group word changed, then
// merges the two queues until one of them is empty.
func (a *Accumulator) Run(columnWord uint32) Report {
	var rep Report

	if a.seen && columnWord != a.prevColumn {
		a.flushResponsibleSide()
		rep.ColumnFlush = true
		a.stats.ColumnFlushes++
	}

	a.seen = true
	a.prevColumn = columnWord
	a.epoch = (a.epoch + 1) % core.ScratchSize

	for i := 0; a.lq.Size() > 0 && a.rq.Size() > 0; i++ {
		if i >= MergeLimit {
			panic(fmt.Sprintf("%s: merge did not finish in %d steps",
				a.name, MergeLimit))
		}

		l, _ := peek(a.lq)
		r, _ := peek(a.rq)

		switch {
		case l.Index == r.Index && l.Index != 0:
			a.lq.Pop()
			a.rq.Pop()
			a.accumulate(l, r)
			rep.Matches++
		case l.Index < r.Index:
			a.lq.Pop()
			rep.Misses++
		default:
			a.rq.Pop()
			rep.Misses++
		}
	}

	if a.lq.Size() > FlushThreshold || a.rq.Size() > FlushThreshold {
		a.Flush()
		rep.Flushed = true
		a.stats.OverflowFlushes++
	}

	a.stats.Runs++
	a.stats.Matches += uint64(rep.Matches)
	a.stats.Misses += uint64(rep.Misses)

	core.Trace("SharedAccRun", "acc", a.name, "matches", rep.Matches,
		"misses", rep.Misses, "left", a.lq.Size(), "right", a.rq.Size())

	return rep
}

func (a *Accumulator) accumulate(l, r Element) {
	lregs := a.left.Registers()
	rregs := a.right.Registers()

	sum := lregs.GRFAScalar(int(l.Order)) + rregs.GRFAScalar(int(r.Order))
	lregs.SetGRFAScalar(int(l.Order), sum)
	rregs.SetGRFAScalar(int(r.Order), 0)
}

func (a *Accumulator) flushResponsibleSide() {
	if a.id%2 == 1 {
		a.lq.Clear()
	} else {
		a.rq.Clear()
	}
}

// Flush empties both queues.
func (a *Accumulator) Flush() {
	a.lq.Clear()
	a.rq.Clear()
}

// Reset empties both queues and forgets pending halves and the last column
// word. Stats are kept.
func (a *Accumulator) Reset() {
	a.Flush()
	a.halves = [2]*core.ShareEvent{}
	a.seen = false
	a.prevColumn = 0
	a.epoch = 0
}
