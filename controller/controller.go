// Package controller implements the bank-mode controller that sits between
// the memory system and the compute units. It decodes reserved rows into
// mode changes and register programming, and routes data transactions to
// banks or units according to the mode of each channel.
package controller

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/core"
	"github.com/sarchlab/pimfuncsim/dram"
	"github.com/sarchlab/pimfuncsim/gacc"
	"github.com/sarchlab/pimfuncsim/sacc"
)

// Memory is the bank storage the controller reads and writes.
type Memory interface {
	core.BankMemory
	ReadWord(addr uint64, i int) (uint32, error)
}

// Stats counts controller activity.
type Stats struct {
	Transactions    [numModes]uint64
	ModeChanges     uint64
	RegisterWrites  uint64
	UnitSteps       uint64
	NopCompletions  uint64
	ExitCompletions uint64
	SharedCommits   uint64
	SharedMatches   uint64
	GlobalDrains    uint64
	GlobalRejected  uint64
}

// Controller owns the compute units and accumulators of a device.
type Controller struct {
	name     string
	topo     Topology
	mapping  addrmap.Mapping
	memory   Memory
	units    []*core.ComputeUnit
	shared   []*sacc.Accumulator
	global   *gacc.Accumulator
	channels []channelState
	stats    Stats
}

// Name returns the name of the controller.
func (c *Controller) Name() string { return c.name }

// Topology returns the bank organisation.
func (c *Controller) Topology() Topology { return c.topo }

// Mapping returns the address mapping.
func (c *Controller) Mapping() addrmap.Mapping { return c.mapping }

// Unit returns a compute unit by global index.
func (c *Controller) Unit(i int) *core.ComputeUnit { return c.units[i] }

// Units returns every compute unit.
func (c *Controller) Units() []*core.ComputeUnit { return c.units }

// Shared returns a shared accumulator by index.
func (c *Controller) Shared(i int) *sacc.Accumulator { return c.shared[i] }

// Global returns the global accumulator.
func (c *Controller) Global() *gacc.Accumulator { return c.global }

// Stats returns the counters.
func (c *Controller) Stats() Stats { return c.stats }

// ModeOf returns the mode of a channel.
func (c *Controller) ModeOf(channel int) Mode {
	return c.channels[channel].mode()
}

// UnitIndex returns the compute unit serving a bank.
func (c *Controller) UnitIndex(a addrmap.Address) int {
	bank := a.BankGroup*c.topo.BanksPerGroup + a.Bank
	return (a.Channel*c.topo.Banks() + bank) / 2
}

// Handle performs a transaction accepted by the memory system.
func (c *Controller) Handle(t *dram.Transaction) error {
	_, err := c.Dispatch(t)
	return err
}

// Dispatch performs a transaction and returns the mode it executed in.
func (c *Controller) Dispatch(t *dram.Transaction) (Mode, error) {
	a := c.mapping.Map(t.Addr)
	if a.Channel >= len(c.channels) {
		return SingleBank, fmt.Errorf("%s: channel %d out of range",
			c.name, a.Channel)
	}

	mode := c.ModeOf(a.Channel)
	c.stats.Transactions[mode]++

	switch a.Row {
	case RowSingleBank, RowAllBank, RowAllBankPim:
		c.changeMode(a.Channel, a.Row)
		return mode, nil
	case RowCRF, RowGRF, RowSRF, RowDRF:
		return mode, c.program(mode, a, t)
	case RowGlobalAcc:
		c.global.Drain()
		c.stats.GlobalDrains++
		return mode, nil
	}

	var err error
	switch mode {
	case SingleBank:
		err = c.access(t.Addr, t)
	case AllBank:
		err = c.broadcast(a, t)
	case AllBankPim:
		err = c.execute(a, t)
	}

	return mode, err
}

func (c *Controller) changeMode(channel, row int) {
	s := &c.channels[channel]
	before := s.mode()

	switch row {
	case RowSingleBank:
		s.allBank = false
	case RowAllBank:
		s.allBank = true
	case RowAllBankPim:
		s.pim = true
	}

	if s.mode() != before {
		c.stats.ModeChanges++
		core.Trace("ModeChange", "ctrl", c.name, "channel", channel,
			"from", before.String(), "to", s.mode().String())
	}
}

// targets lists the units a register write reaches.
func (c *Controller) targets(mode Mode, a addrmap.Address) []*core.ComputeUnit {
	if mode == SingleBank {
		return c.units[c.UnitIndex(a) : c.UnitIndex(a)+1]
	}

	base := a.Channel * c.topo.Banks() / 2

	return c.units[base : base+c.topo.Banks()/2]
}

func (c *Controller) program(
	mode Mode,
	a addrmap.Address,
	t *dram.Transaction,
) error {
	if !t.IsWrite {
		return nil
	}

	var errs []error

	for _, u := range c.targets(mode, a) {
		var err error

		switch a.Row {
		case RowCRF:
			err = u.ProgramCRF(a.Column, t.Data)
		case RowGRF:
			err = u.SetGRF(a.Column, t.Data)
		case RowSRF:
			u.SetSRF(t.Data)
		case RowDRF:
			u.SetDRF(a.Column, t.Data)
		}

		if err != nil {
			errs = append(errs, err)
			continue
		}

		c.stats.RegisterWrites++
	}

	return c.joinErrors(errs)
}

// joinErrors reports every unit that failed a fanned-out transaction. The
// other units have already been stepped.
func (c *Controller) joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %w", c.name, errors.Join(errs...))
}

func (c *Controller) access(flat uint64, t *dram.Transaction) error {
	if t.IsWrite {
		if len(t.Data) == 0 {
			return nil
		}

		return c.memory.Write(flat, t.Data)
	}

	data, err := c.memory.Read(flat, core.WordBytes)
	if err != nil {
		return err
	}

	t.Data = data

	return nil
}

// parityBanks returns the addresses of every bank of the channel with the
// same bank parity as a.
func (c *Controller) parityBanks(a addrmap.Address) []addrmap.Address {
	bpg := c.topo.BanksPerGroup
	parity := (a.BankGroup*bpg + a.Bank) % 2

	var out []addrmap.Address
	for i := parity; i < c.topo.Banks(); i += 2 {
		out = append(out, a.WithBank(i/bpg, i%bpg))
	}

	return out
}

func (c *Controller) broadcast(a addrmap.Address, t *dram.Transaction) error {
	var data []byte

	for _, ba := range c.parityBanks(a) {
		flat := c.mapping.Reverse(ba)
		if err := c.access(flat, t); err != nil {
			return err
		}

		if ba == a {
			data = t.Data
		}
	}

	if !t.IsWrite {
		t.Data = data
	}

	return nil
}

func (c *Controller) execute(a addrmap.Address, t *dram.Transaction) error {
	exited := false

	var errs []error

	for _, ba := range c.parityBanks(a) {
		flat := c.mapping.Reverse(ba)
		u := c.units[c.UnitIndex(ba)]

		completion, err := u.AddTransaction(flat, ba, t.IsWrite, t.Data)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		c.stats.UnitSteps++

		switch completion {
		case core.NopComplete:
			c.stats.NopCompletions++
		case core.ExitComplete:
			c.stats.ExitCompletions++
			exited = true
		}

		if ev, ok := u.TakeShare(); ok {
			if err := c.share(ev, ba); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if exited {
		c.channels[a.Channel].pim = false
		core.Trace("PimExit", "ctrl", c.name, "channel", a.Channel)
	}

	return c.joinErrors(errs)
}

func (c *Controller) share(ev core.ShareEvent, ba addrmap.Address) error {
	acc := c.shared[ev.Unit/2]

	ready, err := acc.Post(ev)
	if err != nil || !ready {
		return err
	}

	colAddr := c.mapping.Reverse(ba.WithColumn(0))

	word, err := c.memory.ReadWord(colAddr, acc.ColumnEpoch())
	if err != nil {
		return fmt.Errorf("%s: column word: %w", c.name, err)
	}

	rep, err := acc.Commit(word)
	if err != nil {
		return err
	}

	c.stats.SharedCommits++
	c.stats.SharedMatches += uint64(rep.Matches)

	return nil
}

// InjectGlobal feeds a partial result into a leaf of the global
// accumulator. Out-of-range leaves are logged and rejected.
func (c *Controller) InjectGlobal(leaf int, p gacc.Pair) error {
	if err := c.global.InjectLeaf(leaf, p); err != nil {
		slog.Error("rejected global accumulator injection",
			"ctrl", c.name, "leaf", leaf, "index", p.Index, "err", err)
		c.stats.GlobalRejected++

		return err
	}

	return nil
}

// GlobalResults returns every pair the global accumulator has emitted.
func (c *Controller) GlobalResults() []gacc.Pair {
	return c.global.Results()
}
