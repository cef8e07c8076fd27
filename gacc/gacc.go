// Package gacc implements the global reduction accumulator: a binary tree of
// FIFOs that merges sixteen sorted (index, value) streams into one.
package gacc

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pimfuncsim/core"
)

// Tree geometry and limits.
const (
	Leaves        = 16
	QueueCapacity = 1 << 16
	DrainLimit    = 1 << 22
)

// ErrLeafOutOfRange is returned for an injection outside the leaf range.
var ErrLeafOutOfRange = errors.New("leaf index out of range")

// Pair is one partial result.
type Pair struct {
	Index uint32
	Data  uint16
}

// Stats counts tree activity.
type Stats struct {
	Injected uint64
	Combined uint64
	Emitted  uint64
	Steps    uint64
}

// Accumulator is the reduction tree. levels[0] holds the leaves; each next
// level has half as many queues and the last level feeds the result queue.
type Accumulator struct {
	name   string
	levels [][]sim.Buffer
	result sim.Buffer
	out    []Pair
	stats  Stats
}

// Name returns the name of the accumulator.
func (a *Accumulator) Name() string { return a.name }

// Stats returns the counters.
func (a *Accumulator) Stats() Stats { return a.stats }

// Results returns every pair emitted since the last ClearResults.
func (a *Accumulator) Results() []Pair {
	return append([]Pair(nil), a.out...)
}

// ClearResults forgets emitted pairs.
func (a *Accumulator) ClearResults() {
	a.out = nil
}

// Buffers returns every queue of the tree, leaves first.
func (a *Accumulator) Buffers() []sim.Buffer {
	var all []sim.Buffer
	for _, level := range a.levels {
		all = append(all, level...)
	}

	return append(all, a.result)
}

// LeafLen returns the number of pairs queued at a leaf.
func (a *Accumulator) LeafLen(i int) int {
	return a.levels[0][i].Size()
}

// InjectLeaf appends a pair to a leaf queue. Pairs of one leaf must arrive in
// increasing index order.
func (a *Accumulator) InjectLeaf(i int, p Pair) error {
	if i < 0 || i >= Leaves {
		return fmt.Errorf("%s: leaf %d: %w", a.name, i, ErrLeafOutOfRange)
	}

	push(a.levels[0][i], p)
	a.stats.Injected++

	return nil
}

func push(q sim.Buffer, p Pair) {
	if !q.CanPush() {
		panic(fmt.Sprintf("%s overflow", q.Name()))
	}

	q.Push(p)
}

// MergeStep moves at most one pair from l or r into out. Equal indices are
// combined. When one side is empty and drained is set for it, the other side
// passes through. It reports whether anything moved and whether two pairs
// were combined.
func MergeStep(l, r, out sim.Buffer, lDrained, rDrained bool) (moved, combined bool) {
	lf, rf := l.Peek(), r.Peek()

	switch {
	case lf != nil && rf != nil:
		lp, rp := lf.(Pair), rf.(Pair)

		switch {
		case lp.Index == rp.Index:
			l.Pop()
			r.Pop()
			push(out, Pair{Index: lp.Index, Data: lp.Data + rp.Data})

			return true, true
		case lp.Index < rp.Index:
			push(out, lp)
			l.Pop()
		default:
			push(out, rp)
			r.Pop()
		}
	case lf != nil && rDrained:
		push(out, lf.(Pair))
		l.Pop()
	case rf != nil && lDrained:
		push(out, rf.(Pair))
		r.Pop()
	default:
		return false, false
	}

	return true, false
}

// drained reports whether queue i of a level and everything upstream of it
// is empty.
func (a *Accumulator) drained(level, i int) bool {
	if a.levels[level][i].Size() > 0 {
		return false
	}

	if level == 0 {
		return true
	}

	return a.drained(level-1, 2*i) && a.drained(level-1, 2*i+1)
}

// SimulateStep advances every merge of the tree once, leaves first, and
// emits the front of the result queue.
func (a *Accumulator) SimulateStep() {
	for level := 0; level < len(a.levels); level++ {
		for i := 0; i < len(a.levels[level])/2; i++ {
			out := a.result
			if level+1 < len(a.levels) {
				out = a.levels[level+1][i]
			}

			_, combined := MergeStep(
				a.levels[level][2*i], a.levels[level][2*i+1], out,
				a.drained(level, 2*i), a.drained(level, 2*i+1))
			if combined {
				a.stats.Combined++
			}
		}
	}

	if p := a.result.Pop(); p != nil {
		a.out = append(a.out, p.(Pair))
		a.stats.Emitted++
	}

	a.stats.Steps++
}

// Empty reports whether every queue is empty.
func (a *Accumulator) Empty() bool {
	for _, q := range a.Buffers() {
		if q.Size() > 0 {
			return false
		}
	}

	return true
}

// Drain steps the tree until it is empty and returns the pairs it emitted.
func (a *Accumulator) Drain() []Pair {
	start := len(a.out)

	for i := 0; !a.Empty(); i++ {
		if i >= DrainLimit {
			panic(fmt.Sprintf("%s: drain did not finish in %d steps",
				a.name, DrainLimit))
		}

		a.SimulateStep()
	}

	core.Trace("GlobalAccDrain", "acc", a.name, "emitted", len(a.out)-start)

	return append([]Pair(nil), a.out[start:]...)
}
