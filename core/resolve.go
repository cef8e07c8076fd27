package core

import (
	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/isa"
)

// Ref is a resolved operand. Slot is a vector slot for GRF operands and a
// scalar index for SRF operands.
type Ref struct {
	Kind isa.OperandKind
	Slot int
}

// Resolved holds the three resolved operands of an instruction.
type Resolved struct {
	Dst  Ref
	Src0 Ref
	Src1 Ref
}

// AlignedSlot is the slot an address-aligned operand selects for a
// transaction at row and column.
func AlignedSlot(row, column int, shift uint8) int {
	return ((row*ColumnsPerRow + column) >> shift) % GRFSlots
}

// ResolveOperands binds the operand fields to slots for the given address.
// It has no side effects.
func ResolveOperands(o isa.Operands, addr addrmap.Address) Resolved {
	return Resolved{
		Dst:  resolveOne(o.Mode, o.Dst, addr),
		Src0: resolveOne(o.Mode, o.Src0, addr),
		Src1: resolveOne(o.Mode, o.Src1, addr),
	}
}

func resolveOne(
	mode isa.AddressingMode,
	o isa.Operand,
	addr addrmap.Address,
) Ref {
	r := Ref{Kind: o.Kind}

	switch {
	case o.Kind == isa.Bank || o.Kind == isa.None:
	case mode == isa.AddressAligned && !o.Fixed:
		r.Slot = AlignedSlot(addr.Row, addr.Column, o.Index)
	default:
		r.Slot = int(o.Index) % GRFSlots
	}

	return r
}
