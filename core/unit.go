// Package core implements the PIM compute unit: its instruction memory,
// register files and the one-transaction-one-step execution contract.
package core

import (
	"errors"
	"fmt"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/isa"
)

// BankMemory is the bank storage a unit moves bursts to and from.
type BankMemory interface {
	Read(addr uint64, n uint64) ([]byte, error)
	Write(addr uint64, data []byte) error
}

// Completion tells the caller what a transaction finished.
type Completion int

// The completion codes returned by AddTransaction.
const (
	Continue Completion = iota
	NopComplete
	ExitComplete
)

func (c Completion) String() string {
	switch c {
	case NopComplete:
		return "NopComplete"
	case ExitComplete:
		return "ExitComplete"
	}

	return "Continue"
}

// ShareEvent is posted by SACC. It carries the packed indices a shared
// accumulator needs from this unit.
type ShareEvent struct {
	Unit    int
	Column  int
	Indices [ScratchSize]uint32
}

// Stats counts what a unit has done.
type Stats struct {
	Executed        uint64
	NopCompletions  uint64
	ExitCompletions uint64
	BankFlushes     uint64
}

// ErrMissingOperand is returned when an instruction reads a NONE operand.
var ErrMissingOperand = errors.New("instruction reads a missing operand")

// controlStepLimit bounds how many control instructions one transaction may
// settle through.
const controlStepLimit = 1 << 16

// ComputeUnit executes one micro-instruction per memory transaction.
type ComputeUnit struct {
	name   string
	id     int
	memory BankMemory

	crf     [isa.CRFSize]isa.Instruction
	pc      int
	lc      int
	regs    RegisterFile
	scratch [ScratchSize]uint32
	share   *ShareEvent

	stats Stats
}

// Name returns the name of the unit.
func (u *ComputeUnit) Name() string { return u.name }

// ID returns the global unit index.
func (u *ComputeUnit) ID() int { return u.id }

// PC returns the program counter.
func (u *ComputeUnit) PC() int { return u.pc }

// LoopCounter returns the loop counter shared by NOP and JUMP.
func (u *ComputeUnit) LoopCounter() int { return u.lc }

// Instruction returns the instruction in a CRF slot.
func (u *ComputeUnit) Instruction(slot int) isa.Instruction { return u.crf[slot] }

// Registers exposes the register file.
func (u *ComputeUnit) Registers() *RegisterFile { return &u.regs }

// Scratch returns the indices packed by the last SACC.
func (u *ComputeUnit) Scratch() [ScratchSize]uint32 { return u.scratch }

// Stats returns the counters of the unit.
func (u *ComputeUnit) Stats() Stats { return u.stats }

// Reset returns the unit to its power-on state. The CRF is kept.
func (u *ComputeUnit) Reset() {
	u.pc = 0
	u.lc = 0
	u.regs.Reset()
	u.scratch = [ScratchSize]uint32{}
	u.share = nil
}

// ProgramInstruction decodes a word into a CRF slot. A word that does not
// decode leaves the slot unchanged.
func (u *ComputeUnit) ProgramInstruction(slot int, word uint32) error {
	if slot < 0 || slot >= isa.CRFSize {
		return fmt.Errorf("%s: CRF slot %d out of range", u.name, slot)
	}

	inst, err := isa.DecodeAt(slot, word)
	if err != nil {
		return fmt.Errorf("%s: slot %d: %w", u.name, slot, err)
	}

	u.crf[slot] = inst

	Trace("Program", "unit", u.name, "slot", slot, "inst", inst.String())

	return nil
}

// ProgramCRF writes the eight words of a burst into slots column*8 to
// column*8+7.
func (u *ComputeUnit) ProgramCRF(column int, burst []byte) error {
	var w Word
	w.Load(burst)

	for i := 0; i < WordBytes/4; i++ {
		word := uint32(w[2*i]) | uint32(w[2*i+1])<<16
		if err := u.ProgramInstruction(column*8+i, word); err != nil {
			return err
		}
	}

	return nil
}

// SetGRF programs a GRF slot from a burst.
func (u *ComputeUnit) SetGRF(column int, burst []byte) error {
	return u.regs.SetGRF(column, burst)
}

// SetSRF programs both scalar register files from a burst.
func (u *ComputeUnit) SetSRF(burst []byte) {
	u.regs.SetSRF(burst)
}

// SetDRF programs a DRF slot from a burst.
func (u *ComputeUnit) SetDRF(column int, burst []byte) {
	u.regs.SetDRF(column, burst)
}

// TakeShare returns the event posted by the last SACC and clears it, so that
// each event is consumed once.
func (u *ComputeUnit) TakeShare() (ShareEvent, bool) {
	if u.share == nil {
		return ShareEvent{}, false
	}

	ev := *u.share
	u.share = nil

	return ev, true
}

// ResolveOperands binds the operands of the current instruction.
func (u *ComputeUnit) ResolveOperands(addr addrmap.Address) Resolved {
	o, _ := isa.OperandsOf(u.crf[u.pc])
	return ResolveOperands(o, addr)
}

// AddTransaction advances the unit by one step in response to a memory
// transaction at flat address addr.
func (u *ComputeUnit) AddTransaction(
	flat uint64,
	addr addrmap.Address,
	isWrite bool,
	payload []byte,
) (Completion, error) {
	if c, ok := u.crf[u.pc].(isa.Control); ok {
		return u.consume(c), nil
	}

	if err := u.stage(flat, isWrite, payload); err != nil {
		return Continue, err
	}

	inst := u.crf[u.pc]
	if err := u.Execute(addr); err != nil {
		return Continue, err
	}

	if isWrite && storesToBank(inst) {
		if err := u.memory.Write(flat, u.regs.Bank.Bytes()); err != nil {
			return Continue, fmt.Errorf("%s: flush: %w", u.name, err)
		}

		u.stats.BankFlushes++
	}

	u.pc = (u.pc + 1) % isa.CRFSize

	return u.settle(), nil
}

func (u *ComputeUnit) stage(flat uint64, isWrite bool, payload []byte) error {
	if isWrite {
		u.regs.Bank.Load(payload)
		return nil
	}

	burst, err := u.memory.Read(flat, WordBytes)
	if err != nil {
		return fmt.Errorf("%s: stage: %w", u.name, err)
	}

	u.regs.Bank.Load(burst)

	return nil
}

func storesToBank(inst isa.Instruction) bool {
	if inst.Kind() == isa.SharedAcc {
		return false
	}

	o, ok := isa.OperandsOf(inst)

	return ok && o.Dst.Kind == isa.Bank
}

// consume spends a transaction on the control instruction the PC rests on.
func (u *ComputeUnit) consume(c isa.Control) Completion {
	switch c.Op {
	case isa.NOP:
		return u.stepNop(c)
	case isa.EXIT:
		return u.exit()
	}

	return u.settle()
}

func (u *ComputeUnit) stepNop(c isa.Control) Completion {
	if u.lc == 0 {
		u.lc = c.Repeat
	}

	if u.lc > 1 {
		u.lc--
		return Continue
	}

	u.lc = 0
	u.pc = (u.pc + 1) % isa.CRFSize
	u.stats.NopCompletions++

	// An EXIT reached here waits for the next transaction.
	u.takeJumps()

	Trace("NopComplete", "unit", u.name, "pc", u.pc)

	return NopComplete
}

func (u *ComputeUnit) exit() Completion {
	u.pc = 0
	u.lc = 0
	u.stats.ExitCompletions++

	Trace("ExitComplete", "unit", u.name)

	return ExitComplete
}

// settle runs the control instructions reachable from the PC without
// consuming a transaction: JUMPs are taken, a NOP arms the loop counter and
// an EXIT ends the kernel.
func (u *ComputeUnit) settle() Completion {
	u.takeJumps()

	c, ok := u.crf[u.pc].(isa.Control)
	if !ok {
		return Continue
	}

	switch c.Op {
	case isa.NOP:
		if u.lc == 0 {
			u.lc = c.Repeat
		}
	case isa.EXIT:
		return u.exit()
	}

	return Continue
}

// takeJumps follows JUMPs until the PC rests on something else.
func (u *ComputeUnit) takeJumps() {
	for i := 0; i < controlStepLimit; i++ {
		c, ok := u.crf[u.pc].(isa.Control)
		if !ok || c.Op != isa.JUMP {
			return
		}

		u.stepJump(c)
	}

	panic(fmt.Sprintf("%s: control flow does not settle at pc %d",
		u.name, u.pc))
}

func (u *ComputeUnit) stepJump(c isa.Control) {
	switch {
	case u.lc == 0 && c.Repeat > 0:
		u.lc = c.Repeat
		u.pc = c.Target
	case u.lc > 1:
		u.lc--
		u.pc = c.Target
	default:
		u.lc = 0
		u.pc = (u.pc + 1) % isa.CRFSize
	}
}
