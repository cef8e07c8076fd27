// Package workload contains host programs that exercise a PIM device and
// check its results against a software reference.
package workload

import (
	"encoding/binary"
	"errors"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/api"
	"github.com/sarchlab/pimfuncsim/config"
	"github.com/sarchlab/pimfuncsim/core"
)

// ErrMismatch is wrapped by every failed check.
var ErrMismatch = errors.New("result mismatch")

// Workload is a host program run against a device.
type Workload interface {
	Name() string
	Kernel() []uint32
	Run(d api.Driver) error
	Check() error
}

// New creates a workload by name.
func New(name string, dev *config.Device, channel int, seed uint32) (Workload, error) {
	switch name {
	case "scale":
		return NewScale(dev, channel, 8, seed), nil
	case "shared":
		return NewSharedAccumulate(dev, channel, seed), nil
	case "spmv":
		return NewSpmv(dev, channel, spmvMaxPasses, seed), nil
	}

	return nil, errors.New("unknown workload " + name)
}

func bankAddress(dev *config.Device, channel, bank, row, column int) addrmap.Address {
	bpg := dev.Config.BanksPerGroup

	return addrmap.Address{
		Channel:   channel,
		BankGroup: bank / bpg,
		Bank:      bank % bpg,
		Row:       row,
		Column:    column,
	}
}

func readWord(dev *config.Device, a addrmap.Address) (core.Word, error) {
	var w core.Word

	b, err := dev.Memory.Read(dev.Mapping.Reverse(a), core.WordBytes)
	if err != nil {
		return w, err
	}

	w.Load(b)

	return w, nil
}

func indexBurst(indices [core.ScratchSize]uint32) []byte {
	b := make([]byte, core.WordBytes)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(b[4*i:], idx)
	}

	return b
}
