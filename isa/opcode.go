// Package isa defines the micro-instruction set executed by the PIM compute
// units, together with its 32-bit binary encoding.
package isa

import "fmt"

// CRFSize is the number of instruction slots in a command register file.
const CRFSize = 32

// Opcode identifies an instruction.
type Opcode uint8

// The opcodes understood by a compute unit.
const (
	NOP  Opcode = 0
	JUMP Opcode = 1
	EXIT Opcode = 2
	MOV  Opcode = 4
	FILL Opcode = 5
	ADD  Opcode = 8
	MUL  Opcode = 9
	MAC  Opcode = 10
	MAD  Opcode = 11
	SACC Opcode = 12
)

var opcodeNames = map[Opcode]string{
	NOP:  "NOP",
	JUMP: "JUMP",
	EXIT: "EXIT",
	MOV:  "MOV",
	FILL: "FILL",
	ADD:  "ADD",
	MUL:  "MUL",
	MAC:  "MAC",
	MAD:  "MAD",
	SACC: "SACC",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}

	return fmt.Sprintf("OP(%d)", uint8(o))
}

// Valid reports whether the opcode is part of the instruction set.
func (o Opcode) Valid() bool {
	_, ok := opcodeNames[o]
	return ok
}

// OpKind groups opcodes by the way they are executed.
type OpKind uint8

// The instruction families.
const (
	ControlKind OpKind = iota
	DataMove
	Arithmetic
	SharedAcc
)

func (k OpKind) String() string {
	switch k {
	case ControlKind:
		return "CONTROL"
	case DataMove:
		return "DATA"
	case Arithmetic:
		return "ALU"
	case SharedAcc:
		return "SHARED"
	}

	return fmt.Sprintf("KIND(%d)", uint8(k))
}

// KindOf returns the family of an opcode. It panics on opcodes outside the
// instruction set.
func KindOf(o Opcode) OpKind {
	switch o {
	case NOP, JUMP, EXIT:
		return ControlKind
	case MOV, FILL:
		return DataMove
	case ADD, MUL, MAC, MAD:
		return Arithmetic
	case SACC:
		return SharedAcc
	}

	panic(fmt.Sprintf("no kind for opcode %d", uint8(o)))
}
