package isa

import "fmt"

// OperandKind names the storage an operand refers to.
type OperandKind uint8

// The operand kinds. The numeric values are part of the encoding.
const (
	Bank OperandKind = iota
	GRFA
	GRFB
	SRFA
	SRFM
	None
)

func (k OperandKind) String() string {
	switch k {
	case Bank:
		return "BANK"
	case GRFA:
		return "GRF_A"
	case GRFB:
		return "GRF_B"
	case SRFA:
		return "SRF_A"
	case SRFM:
		return "SRF_M"
	case None:
		return "NONE"
	}

	return fmt.Sprintf("OPND(%d)", uint8(k))
}

// IsScalar reports whether the operand names a single scalar register.
func (k OperandKind) IsScalar() bool {
	return k == SRFA || k == SRFM
}

// IsGRF reports whether the operand names a vector general register.
func (k OperandKind) IsGRF() bool {
	return k == GRFA || k == GRFB
}

// AddressingMode selects how operand slots are computed.
type AddressingMode uint8

const (
	// Fixed uses the literal index of every operand.
	Fixed AddressingMode = iota

	// AddressAligned derives the slot from the row and column of the
	// triggering transaction.
	AddressAligned
)

func (m AddressingMode) String() string {
	if m == AddressAligned {
		return "AAM"
	}

	return "FIX"
}

// Operand is one of the dst, src0 or src1 fields of an instruction.
type Operand struct {
	Kind OperandKind

	// Index is the literal slot under fixed resolution and the shift amount
	// under address-aligned resolution. Only 5 bits are encoded.
	Index uint8

	// Fixed forces literal resolution even in address-aligned mode.
	Fixed bool
}

// NoOperand is the operand of an unused field.
var NoOperand = Operand{Kind: None}

func (o Operand) String() string {
	if o.Kind == None {
		return "-"
	}

	if o.Kind == Bank {
		return "BANK"
	}

	mark := ""
	if o.Fixed {
		mark = "!"
	}

	return fmt.Sprintf("%s[%d]%s", o.Kind, o.Index, mark)
}
