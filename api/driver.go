// Package api defines the host driver of a PIM device.
package api

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/controller"
	"github.com/sarchlab/pimfuncsim/core"
	"github.com/sarchlab/pimfuncsim/dram"
	"github.com/sarchlab/pimfuncsim/isa"
)

// ErrStalled is returned when the memory system refuses a transaction for
// longer than the driver is willing to wait.
var ErrStalled = errors.New("memory system stalled")

// ErrKernelTooLong is returned when a kernel does not fit the CRF.
var ErrKernelTooLong = errors.New("kernel does not fit the CRF")

// Driver issues host transactions to a PIM device.
type Driver interface {
	// TryAddTransaction waits until the memory system accepts the access,
	// adds it and advances one cycle.
	TryAddTransaction(addr uint64, isWrite bool, data []byte) error

	// Barrier retires every buffered transaction.
	Barrier()

	// Clk advances the memory system one cycle.
	Clk()

	// Cycles returns the cycles the driver has advanced.
	Cycles() uint64

	// SetMode issues an access to one of the mode rows of a channel.
	SetMode(channel, row int) error
	EnterSingleBank(channel int) error
	EnterAllBank(channel int) error
	EnterPim(channel int) error

	// ProgramCRF writes a kernel into the instruction buffers of a
	// channel. Unused slots are filled with NOP.
	ProgramCRF(channel int, words []uint32) error
	ProgramGRF(channel, column int, burst []byte) error
	ProgramSRF(channel int, burst []byte) error
	ProgramDRF(channel, column int, burst []byte) error

	// TriggerGlobalAccumulate drains the global accumulator.
	TriggerGlobalAccumulate(channel int) error

	Read(a addrmap.Address) error
	Write(a addrmap.Address, burst []byte) error
}

type driverImpl struct {
	name      string
	memory    dram.MemorySystem
	mapping   addrmap.Mapping
	tickLimit int
	cycles    uint64
}

func (d *driverImpl) Clk() {
	d.memory.ClockTick()
	d.cycles++
}

func (d *driverImpl) Cycles() uint64 { return d.cycles }

func (d *driverImpl) TryAddTransaction(
	addr uint64,
	isWrite bool,
	data []byte,
) error {
	for i := 0; !d.memory.WillAcceptTransaction(addr, isWrite); i++ {
		if i >= d.tickLimit {
			return fmt.Errorf("%s: %#x: %w", d.name, addr, ErrStalled)
		}

		d.Clk()
	}

	if err := d.memory.AddTransaction(addr, isWrite, data); err != nil {
		return err
	}

	d.Clk()

	return nil
}

func (d *driverImpl) Barrier() {
	d.memory.SetWriteBufferThreshold(0)

	for d.memory.IsPendingTransaction() {
		d.Clk()
	}

	d.memory.SetWriteBufferThreshold(-1)
}

func (d *driverImpl) command(channel, row, column int, isWrite bool, data []byte) error {
	a := addrmap.Address{Channel: channel, Row: row, Column: column}
	return d.TryAddTransaction(d.mapping.Reverse(a), isWrite, data)
}

func (d *driverImpl) SetMode(channel, row int) error {
	switch row {
	case controller.RowSingleBank, controller.RowAllBank, controller.RowAllBankPim:
	default:
		return fmt.Errorf("%s: row %#x is not a mode row", d.name, row)
	}

	core.Trace("SetMode", "driver", d.name, "channel", channel, "row", row)

	return d.command(channel, row, 0, false, nil)
}

func (d *driverImpl) EnterSingleBank(channel int) error {
	return d.SetMode(channel, controller.RowSingleBank)
}

func (d *driverImpl) EnterAllBank(channel int) error {
	return d.SetMode(channel, controller.RowAllBank)
}

func (d *driverImpl) EnterPim(channel int) error {
	return d.SetMode(channel, controller.RowAllBankPim)
}

func (d *driverImpl) ProgramCRF(channel int, words []uint32) error {
	if len(words) > isa.CRFSize {
		return fmt.Errorf("%s: %d words: %w", d.name, len(words), ErrKernelTooLong)
	}

	perColumn := core.WordBytes / 4
	nop := isa.Encode(isa.Nop(0))

	for col := 0; col*perColumn < len(words); col++ {
		burst := make([]byte, core.WordBytes)

		for i := 0; i < perColumn; i++ {
			w := nop
			if slot := col*perColumn + i; slot < len(words) {
				w = words[slot]
			}

			binary.LittleEndian.PutUint32(burst[4*i:], w)
		}

		if err := d.command(channel, controller.RowCRF, col, true, burst); err != nil {
			return err
		}
	}

	return nil
}

func (d *driverImpl) ProgramGRF(channel, column int, burst []byte) error {
	return d.command(channel, controller.RowGRF, column, true, burst)
}

func (d *driverImpl) ProgramSRF(channel int, burst []byte) error {
	return d.command(channel, controller.RowSRF, 0, true, burst)
}

func (d *driverImpl) ProgramDRF(channel, column int, burst []byte) error {
	return d.command(channel, controller.RowDRF, column, true, burst)
}

func (d *driverImpl) TriggerGlobalAccumulate(channel int) error {
	return d.command(channel, controller.RowGlobalAcc, 0, false, nil)
}

func (d *driverImpl) Read(a addrmap.Address) error {
	return d.TryAddTransaction(d.mapping.Reverse(a), false, nil)
}

func (d *driverImpl) Write(a addrmap.Address, burst []byte) error {
	return d.TryAddTransaction(d.mapping.Reverse(a), true, burst)
}
