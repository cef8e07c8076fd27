package workload

import (
	"fmt"
	"maps"
	"slices"

	"github.com/sarchlab/pimfuncsim/api"
	"github.com/sarchlab/pimfuncsim/config"
	"github.com/sarchlab/pimfuncsim/core"
	"github.com/sarchlab/pimfuncsim/gacc"
	valgen "github.com/sarchlab/pimfuncsim/util"
)

const (
	valueRow = 0x20
	indexRow = 0x21
	outRow   = 0x22

	maxIndex = 24
)

// SharedAccumulate gives every compute unit of a channel a sparse vector.
// Paired units merge their vectors in the shared accumulators, and the
// merged vectors of all units are reduced by the global accumulator.
type SharedAccumulate struct {
	dev     *config.Device
	channel int

	indices [][core.ScratchSize]uint32
	values  []core.Word

	merged  []core.Word
	results []gacc.Pair
}

// NewSharedAccumulate prepares random sorted vectors for every unit.
func NewSharedAccumulate(dev *config.Device, channel int, seed uint32) *SharedAccumulate {
	units := dev.Config.Topology().Banks() / 2
	if units > gacc.Leaves {
		panic(fmt.Sprintf("%d units do not fit %d leaves", units, gacc.Leaves))
	}

	gen := valgen.MakeLCGGen(seed, 1000)

	s := &SharedAccumulate{
		dev:     dev,
		channel: channel,
		indices: make([][core.ScratchSize]uint32, units),
		values:  make([]core.Word, units),
	}

	for u := 0; u < units; u++ {
		picked := map[uint32]bool{}
		n := 4 + int(gen()%5)

		for len(picked) < n {
			picked[1+gen()%maxIndex] = true
		}

		for k, idx := range slices.Sorted(maps.Keys(picked)) {
			s.indices[u][k] = idx
			s.values[u][k] = uint16(1 + gen())
		}
	}

	return s
}

// Name returns the workload name.
func (s *SharedAccumulate) Name() string { return "shared" }

// Kernel returns the CRF words the workload programs.
func (s *SharedAccumulate) Kernel() []uint32 { return api.SharedAccumulateKernel() }

// Results returns what the global accumulator emitted.
func (s *SharedAccumulate) Results() []gacc.Pair { return s.results }

func (s *SharedAccumulate) unitBank(u int) int { return 2 * u }

// Run loads the vectors, launches the kernel once, and reduces the merged
// vectors through the global accumulator.
func (s *SharedAccumulate) Run(d api.Driver) error {
	if err := d.EnterSingleBank(s.channel); err != nil {
		return err
	}

	for u := range s.values {
		bank := s.unitBank(u)

		if err := d.Write(bankAddress(s.dev, s.channel, bank, valueRow, 0),
			s.values[u].Bytes()); err != nil {
			return err
		}

		if err := d.Write(bankAddress(s.dev, s.channel, bank, indexRow, 0),
			indexBurst(s.indices[u])); err != nil {
			return err
		}
	}

	ctrl := s.dev.Controller
	first := s.channel * len(s.values) / 2
	for p := first; p < first+len(s.values)/2; p++ {
		ctrl.Shared(p).Flush()
	}

	if err := d.EnterAllBank(s.channel); err != nil {
		return err
	}

	if err := d.ProgramCRF(s.channel, s.Kernel()); err != nil {
		return err
	}

	if err := d.EnterPim(s.channel); err != nil {
		return err
	}

	for _, step := range []struct {
		row     int
		isWrite bool
	}{{valueRow, false}, {indexRow, false}, {outRow, true}} {
		a := bankAddress(s.dev, s.channel, 0, step.row, 0)

		var err error
		if step.isWrite {
			err = d.Write(a, nil)
		} else {
			err = d.Read(a)
		}

		if err != nil {
			return err
		}
	}

	d.Barrier()

	return s.reduce(d)
}

func (s *SharedAccumulate) reduce(d api.Driver) error {
	s.merged = make([]core.Word, len(s.values))

	for u := range s.values {
		w, err := readWord(s.dev, bankAddress(s.dev, s.channel, s.unitBank(u), outRow, 0))
		if err != nil {
			return err
		}

		s.merged[u] = w

		for k, idx := range s.indices[u] {
			if idx == 0 {
				continue
			}

			p := gacc.Pair{Index: idx, Data: w[k]}
			if err := s.dev.Controller.InjectGlobal(u, p); err != nil {
				return err
			}
		}
	}

	s.dev.Controller.Global().ClearResults()

	if err := d.TriggerGlobalAccumulate(s.channel); err != nil {
		return err
	}

	s.results = s.dev.Controller.GlobalResults()

	return nil
}

func (s *SharedAccumulate) expectedMerge() []core.Word {
	want := slices.Clone(s.values)

	for p := 0; p+1 < len(want); p += 2 {
		l, r := s.indices[p], s.indices[p+1]

		for i, j := 0, 0; i < len(l) && j < len(r) && l[i] != 0 && r[j] != 0; {
			switch {
			case l[i] == r[j]:
				want[p][i] += want[p+1][j]
				want[p+1][j] = 0
				i++
				j++
			case l[i] < r[j]:
				i++
			default:
				j++
			}
		}
	}

	return want
}

func (s *SharedAccumulate) expectedSums() []gacc.Pair {
	sums := map[uint32]uint16{}

	for u, idxs := range s.indices {
		for k, idx := range idxs {
			if idx != 0 {
				sums[idx] += s.values[u][k]
			}
		}
	}

	var out []gacc.Pair
	for _, idx := range slices.Sorted(maps.Keys(sums)) {
		out = append(out, gacc.Pair{Index: idx, Data: sums[idx]})
	}

	return out
}

// Check compares the merged vectors and the reduced sums with the host
// reference.
func (s *SharedAccumulate) Check() error {
	for u, want := range s.expectedMerge() {
		if s.merged[u] != want {
			return fmt.Errorf("unit %d: got %v, want %v: %w",
				u, s.merged[u], want, ErrMismatch)
		}
	}

	want := s.expectedSums()
	if !slices.Equal(s.results, want) {
		return fmt.Errorf("global sums: got %v, want %v: %w",
			s.results, want, ErrMismatch)
	}

	return nil
}
