package workload

import (
	"fmt"
	"maps"
	"slices"

	"github.com/sarchlab/pimfuncsim/api"
	"github.com/sarchlab/pimfuncsim/config"
	"github.com/sarchlab/pimfuncsim/core"
	"github.com/sarchlab/pimfuncsim/sacc"
	valgen "github.com/sarchlab/pimfuncsim/util"
)

const (
	spmvMatrixRow = 0x30
	spmvVectorRow = 0x31
	spmvIndexRow  = 0x32
	spmvOutRow    = 0x33

	spmvMaxPasses = 4
)

// Spmv runs the sparse matrix-vector kernel. Every pass loads a row of
// matrix values into SRF_M, scales a vector burst by the value its address
// selects, and merges the column indices of paired units in the shared
// accumulators. GRF_A[0] of every unit is stored after the last pass.
type Spmv struct {
	dev     *config.Device
	channel int
	passes  int

	matrix  [][]core.Word
	vectors [][]core.Word
	indices [][][core.ScratchSize]uint32

	out []core.Word
}

// NewSpmv prepares random operands for passes kernel iterations.
func NewSpmv(dev *config.Device, channel, passes int, seed uint32) *Spmv {
	if passes < 1 || passes > spmvMaxPasses {
		panic(fmt.Sprintf("cannot run %d SpMV passes", passes))
	}

	units := dev.Config.Topology().Banks() / 2
	gen := valgen.MakeLCGGen(seed, 1<<10)

	s := &Spmv{
		dev:     dev,
		channel: channel,
		passes:  passes,
		matrix:  make([][]core.Word, units),
		vectors: make([][]core.Word, units),
		indices: make([][][core.ScratchSize]uint32, units),
	}

	for u := 0; u < units; u++ {
		s.matrix[u] = make([]core.Word, passes)
		s.vectors[u] = make([]core.Word, passes)
		s.indices[u] = make([][core.ScratchSize]uint32, passes)

		for p := 0; p < passes; p++ {
			for i := range s.matrix[u][p] {
				s.matrix[u][p][i] = uint16(1 + gen()%15)
				s.vectors[u][p][i] = uint16(gen() % 100)
			}

			picked := map[uint32]bool{}
			for n := 3 + int(gen()%6); len(picked) < n; {
				picked[1+gen()%maxIndex] = true
			}

			for k, idx := range slices.Sorted(maps.Keys(picked)) {
				s.indices[u][p][k] = idx
			}
		}
	}

	return s
}

// Name returns the workload name.
func (s *Spmv) Name() string { return "spmv" }

// Kernel returns the CRF words the workload programs.
func (s *Spmv) Kernel() []uint32 { return api.SpmvKernel(s.passes - 1) }

// Out returns the stored GRF_A[0] of every unit.
func (s *Spmv) Out() []core.Word { return s.out }

func spmvMatrixColumn(pass int) int { return pass }

// The vector of every pass sits at a column whose aligned slot is 0, so the
// product is what the shared accumulator reads.
func spmvVectorColumn(pass int) int { return pass * core.GRFSlots }

// Indices use even columns so that they fill orders 0 to 7. Column 0 holds
// the constant column-group word.
func spmvIndexColumn(pass int) int { return 2 * (pass + 1) }

// Run stores the operands, runs every pass in one kernel launch and stores
// the results.
func (s *Spmv) Run(d api.Driver) error {
	if err := d.EnterSingleBank(s.channel); err != nil {
		return err
	}

	var group core.Word
	for i := range group {
		group[i] = 1
	}

	for u := range s.matrix {
		bank := 2 * u

		if err := d.Write(bankAddress(s.dev, s.channel, bank, spmvIndexRow, 0),
			group.Bytes()); err != nil {
			return err
		}

		for p := 0; p < s.passes; p++ {
			for _, w := range []struct {
				row, column int
				data        []byte
			}{
				{spmvMatrixRow, spmvMatrixColumn(p), s.matrix[u][p].Bytes()},
				{spmvVectorRow, spmvVectorColumn(p), s.vectors[u][p].Bytes()},
				{spmvIndexRow, spmvIndexColumn(p), indexBurst(s.indices[u][p])},
			} {
				a := bankAddress(s.dev, s.channel, bank, w.row, w.column)
				if err := d.Write(a, w.data); err != nil {
					return err
				}
			}
		}
	}

	ctrl := s.dev.Controller
	first := s.channel * len(s.matrix) / 2
	for p := first; p < first+len(s.matrix)/2; p++ {
		ctrl.Shared(p).Reset()
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

	for p := 0; p < s.passes; p++ {
		for _, r := range [][2]int{
			{spmvMatrixRow, spmvMatrixColumn(p)},
			{spmvVectorRow, spmvVectorColumn(p)},
			{spmvIndexRow, spmvIndexColumn(p)},
		} {
			if err := d.Read(bankAddress(s.dev, s.channel, 0, r[0], r[1])); err != nil {
				return err
			}
		}
	}

	if err := d.Write(bankAddress(s.dev, s.channel, 0, spmvOutRow, 0), nil); err != nil {
		return err
	}

	d.Barrier()

	s.out = make([]core.Word, len(s.matrix))
	for u := range s.out {
		w, err := readWord(s.dev, bankAddress(s.dev, s.channel, 2*u, spmvOutRow, 0))
		if err != nil {
			return err
		}

		s.out[u] = w
	}

	return nil
}

type spmvElement struct {
	order int
	index uint32
}

func queueIndices(q []spmvElement, indices [core.ScratchSize]uint32) []spmvElement {
	for i, idx := range indices {
		if idx != 0 {
			q = append(q, spmvElement{order: i, index: idx})
		}
	}

	return q
}

// expected replays the kernel on the host, pass by pass.
func (s *Spmv) expected() []core.Word {
	grfa := make([][core.GRFSlots]core.Word, len(s.matrix))

	for left := 0; left+1 < len(grfa); left += 2 {
		right := left + 1

		var lq, rq []spmvElement

		for p := 0; p < s.passes; p++ {
			slot := core.AlignedSlot(spmvVectorRow, spmvVectorColumn(p), 0)

			for _, u := range []int{left, right} {
				scalar := s.matrix[u][p][slot]
				for i, v := range s.vectors[u][p] {
					grfa[u][slot][i] = v * scalar
				}
			}

			lq = queueIndices(lq, s.indices[left][p])
			rq = queueIndices(rq, s.indices[right][p])

			for len(lq) > 0 && len(rq) > 0 {
				l, r := lq[0], rq[0]

				switch {
				case l.index == r.index:
					grfa[left][0][l.order] += grfa[right][0][r.order]
					grfa[right][0][r.order] = 0
					lq, rq = lq[1:], rq[1:]
				case l.index < r.index:
					lq = lq[1:]
				default:
					rq = rq[1:]
				}
			}

			if len(lq) > sacc.FlushThreshold || len(rq) > sacc.FlushThreshold {
				lq, rq = nil, nil
			}
		}
	}

	want := make([]core.Word, len(grfa))
	for u := range grfa {
		want[u] = grfa[u][0]
	}

	return want
}

// Check compares the stored GRF_A[0] of every unit with the host replay.
func (s *Spmv) Check() error {
	expected := s.expected()
	if len(s.out) != len(expected) {
		return fmt.Errorf("%d of %d results stored: %w",
			len(s.out), len(expected), ErrMismatch)
	}

	for u, want := range expected {
		if s.out[u] != want {
			return fmt.Errorf("unit %d: got %v, want %v: %w",
				u, s.out[u], want, ErrMismatch)
		}
	}

	return nil
}
