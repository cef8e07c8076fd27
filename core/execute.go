package core

import (
	"fmt"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/isa"
)

// Execute runs the instruction at the PC against the register file. The PC
// is not moved. Scalar operands are broadcast to every lane.
func (u *ComputeUnit) Execute(addr addrmap.Address) error {
	inst := u.crf[u.pc]
	o, ok := isa.OperandsOf(inst)
	if !ok {
		return nil
	}

	r := ResolveOperands(o, addr)
	u.stats.Executed++

	var err error
	switch inst.Kind() {
	case isa.Arithmetic:
		err = u.executeALU(inst.Opcode(), r)
	case isa.DataMove:
		err = u.executeMove(r)
	case isa.SharedAcc:
		err = u.executeSacc(r, addr)
	}

	if err != nil {
		return fmt.Errorf("%s: %s: %w", u.name, inst, err)
	}

	Trace("Execute", "unit", u.name, "pc", u.pc, "inst", inst.String(),
		"addr", addr.String())

	return nil
}

func (u *ComputeUnit) view(r Ref) []uint16 {
	switch r.Kind {
	case isa.Bank:
		return u.regs.Bank[:]
	case isa.GRFA:
		return u.regs.GRFA[r.Slot][:]
	case isa.GRFB:
		return u.regs.GRFB[r.Slot][:]
	case isa.SRFA:
		return u.regs.SRFA[r.Slot : r.Slot+1]
	case isa.SRFM:
		return u.regs.SRFM[r.Slot : r.Slot+1]
	}

	return nil
}

func lane(v []uint16, i int) uint16 {
	if len(v) == 1 {
		return v[0]
	}

	return v[i]
}

func (u *ComputeUnit) operands(r Ref, more ...Ref) ([][]uint16, error) {
	views := make([][]uint16, 0, 1+len(more))
	for _, ref := range append([]Ref{r}, more...) {
		v := u.view(ref)
		if v == nil {
			return nil, ErrMissingOperand
		}

		views = append(views, v)
	}

	return views, nil
}

func (u *ComputeUnit) executeALU(op isa.Opcode, r Resolved) error {
	if op == isa.MAD {
		Trace("MAD has no effect", "unit", u.name, "pc", u.pc)
		return nil
	}

	v, err := u.operands(r.Dst, r.Src0, r.Src1)
	if err != nil {
		return err
	}

	dst, a, b := v[0], v[1], v[2]
	for i := range dst {
		x, y := lane(a, i), lane(b, i)

		switch op {
		case isa.ADD:
			dst[i] = x + y
		case isa.MUL:
			dst[i] = x * y
		case isa.MAC:
			dst[i] += x * y
		}
	}

	return nil
}

func (u *ComputeUnit) executeMove(r Resolved) error {
	v, err := u.operands(r.Src0)
	if err != nil {
		return err
	}

	src := v[0]

	switch r.Dst.Kind {
	case isa.SRFM:
		for i := 0; i < SRFSlots; i++ {
			u.regs.SRFM[i] = lane(src, i)
			u.regs.SRFA[i] = lane(src, SRFSlots+i)
		}
	case isa.SRFA:
		for i := 0; i < SRFSlots; i++ {
			u.regs.SRFA[i] = lane(src, i)
		}
	case isa.None:
		return ErrMissingOperand
	default:
		dst := u.view(r.Dst)
		for i := range dst {
			dst[i] = lane(src, i)
		}
	}

	return nil
}

func (u *ComputeUnit) executeSacc(r Resolved, addr addrmap.Address) error {
	v, err := u.operands(r.Src0)
	if err != nil {
		return err
	}

	src := v[0]
	for i := range u.scratch {
		u.scratch[i] = uint32(lane(src, 2*i+1))<<16 | uint32(lane(src, 2*i))
	}

	u.share = &ShareEvent{
		Unit:    u.id,
		Column:  addr.Column,
		Indices: u.scratch,
	}

	return nil
}
