package workload

import (
	"fmt"

	"github.com/sarchlab/pimfuncsim/api"
	"github.com/sarchlab/pimfuncsim/config"
	"github.com/sarchlab/pimfuncsim/core"
	valgen "github.com/sarchlab/pimfuncsim/util"
)

const scaleRow = 0x10

// Scale multiplies a row of every bank in a channel by a scalar. Even and
// odd banks run as two separate kernel launches.
type Scale struct {
	dev     *config.Device
	channel int
	columns int
	scalar  uint16
	data    [][]core.Word
}

// NewScale prepares a scale of the first columns of a row.
func NewScale(dev *config.Device, channel, columns int, seed uint32) *Scale {
	if columns < 1 || columns > 1<<dev.Config.Layout.Column.Width {
		panic(fmt.Sprintf("cannot scale %d columns", columns))
	}

	gen := valgen.MakeLCGGen(seed, 1<<8)

	s := &Scale{
		dev:     dev,
		channel: channel,
		columns: columns,
		scalar:  uint16(gen()) | 1,
	}

	banks := dev.Config.Topology().Banks()
	s.data = make([][]core.Word, banks)

	for b := range s.data {
		s.data[b] = make([]core.Word, columns)

		for c := range s.data[b] {
			for i, v := range valgen.Take(core.UnitsPerWord, gen) {
				s.data[b][c][i] = uint16(v)
			}
		}
	}

	return s
}

// Name returns the workload name.
func (s *Scale) Name() string { return "scale" }

// Kernel returns the CRF words the workload programs.
func (s *Scale) Kernel() []uint32 { return api.ScaleKernel(s.columns - 1) }

// Scalar returns the multiplier.
func (s *Scale) Scalar() uint16 { return s.scalar }

// Run loads the data, launches the kernel and waits for every write.
func (s *Scale) Run(d api.Driver) error {
	if err := d.EnterSingleBank(s.channel); err != nil {
		return err
	}

	for b, cols := range s.data {
		for c, w := range cols {
			a := bankAddress(s.dev, s.channel, b, scaleRow, c)
			if err := d.Write(a, w.Bytes()); err != nil {
				return err
			}
		}
	}

	var srf core.Word
	srf[core.SRFSlots] = s.scalar

	if err := d.EnterAllBank(s.channel); err != nil {
		return err
	}

	if err := d.ProgramSRF(s.channel, srf.Bytes()); err != nil {
		return err
	}

	if err := d.ProgramCRF(s.channel, s.Kernel()); err != nil {
		return err
	}

	for parity := 0; parity < 2; parity++ {
		if err := s.launch(d, parity); err != nil {
			return err
		}
	}

	d.Barrier()

	return nil
}

func (s *Scale) launch(d api.Driver, parity int) error {
	if err := d.EnterPim(s.channel); err != nil {
		return err
	}

	for c := 0; c < s.columns; c++ {
		a := bankAddress(s.dev, s.channel, parity, scaleRow, c)

		if err := d.Read(a); err != nil {
			return err
		}

		if err := d.Write(a, nil); err != nil {
			return err
		}
	}

	return nil
}

// Check compares every scaled burst with the host product.
func (s *Scale) Check() error {
	for b, cols := range s.data {
		for c, w := range cols {
			a := bankAddress(s.dev, s.channel, b, scaleRow, c)

			got, err := readWord(s.dev, a)
			if err != nil {
				return err
			}

			for i, v := range w {
				if want := v * s.scalar; got[i] != want {
					return fmt.Errorf("%s lane %d: got %d, want %d: %w",
						a, i, got[i], want, ErrMismatch)
				}
			}
		}
	}

	return nil
}
