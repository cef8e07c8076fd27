package isa

import "fmt"

// Instruction is a decoded CRF entry. The concrete type is one of Control,
// Data, ALU or Shared.
type Instruction interface {
	Opcode() Opcode
	Kind() OpKind
	String() string
}

// Control is NOP, JUMP or EXIT.
type Control struct {
	Op Opcode

	// Offset is the signed jump distance relative to the JUMP slot.
	Offset int

	// Target is the absolute slot a JUMP goes to. It is resolved when the
	// instruction is loaded into a CRF slot.
	Target int

	// Repeat is the loop count of NOP and JUMP.
	Repeat int
}

// Opcode returns the opcode.
func (c Control) Opcode() Opcode { return c.Op }

// Kind returns ControlKind.
func (c Control) Kind() OpKind { return ControlKind }

func (c Control) String() string {
	switch c.Op {
	case NOP:
		return fmt.Sprintf("NOP %d", c.Repeat)
	case JUMP:
		return fmt.Sprintf("JUMP %+d(->%d) %d", c.Offset, c.Target, c.Repeat)
	}

	return c.Op.String()
}

// Operands carries the operand fields shared by every non-control
// instruction.
type Operands struct {
	Mode AddressingMode
	Dst  Operand
	Src0 Operand
	Src1 Operand
}

func (o Operands) render(op Opcode) string {
	return fmt.Sprintf("%s.%s %s, %s, %s", op, o.Mode, o.Dst, o.Src0, o.Src1)
}

// Data is MOV or FILL.
type Data struct {
	Op Opcode
	Operands
}

// Opcode returns the opcode.
func (d Data) Opcode() Opcode { return d.Op }

// Kind returns DataMove.
func (d Data) Kind() OpKind { return DataMove }

func (d Data) String() string { return d.render(d.Op) }

// ALU is ADD, MUL, MAC or MAD.
type ALU struct {
	Op Opcode
	Operands
}

// Opcode returns the opcode.
func (a ALU) Opcode() Opcode { return a.Op }

// Kind returns Arithmetic.
func (a ALU) Kind() OpKind { return Arithmetic }

func (a ALU) String() string { return a.render(a.Op) }

// Shared is SACC.
type Shared struct {
	Op Opcode
	Operands
}

// Opcode returns the opcode.
func (s Shared) Opcode() Opcode { return s.Op }

// Kind returns SharedAcc.
func (s Shared) Kind() OpKind { return SharedAcc }

func (s Shared) String() string { return s.render(s.Op) }

// OperandsOf returns the operand fields of an instruction. Control
// instructions have none.
func OperandsOf(inst Instruction) (Operands, bool) {
	switch i := inst.(type) {
	case Data:
		return i.Operands, true
	case ALU:
		return i.Operands, true
	case Shared:
		return i.Operands, true
	}

	return Operands{}, false
}
