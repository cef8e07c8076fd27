package isa

import (
	"errors"
	"fmt"
)

// Decoding errors.
var (
	ErrUnknownOpcode   = errors.New("unknown opcode")
	ErrInvalidOperand  = errors.New("invalid operand kind")
	ErrJumpOutOfRange  = errors.New("jump target out of range")
	ErrUnencodableInst = errors.New("instruction cannot be encoded")
)

const (
	opcodeShift = 28
	aamBit      = 27
	dstFixBit   = 26
	src0FixBit  = 25
	src1FixBit  = 24

	dstKindShift  = 21
	dstIdxShift   = 16
	src0KindShift = 13
	src0IdxShift  = 8
	src1KindShift = 5
	src1IdxShift  = 0

	kindMask  = 0x7
	indexMask = 0x1f

	offsetShift = 12
	fieldMask12 = 0xfff
	maxOffset   = 1<<11 - 1
	minOffset   = -(1 << 11)
)

func bit(w uint32, pos uint) bool {
	return (w>>pos)&1 == 1
}

func setBit(b bool, pos uint) uint32 {
	if b {
		return 1 << pos
	}

	return 0
}

// Decode turns a 32-bit word into an instruction. JUMP targets are left
// relative to slot 0; use DecodeAt when loading a CRF slot.
func Decode(word uint32) (Instruction, error) {
	op := Opcode(word >> opcodeShift)
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, uint8(op))
	}

	if KindOf(op) == ControlKind {
		return decodeControl(op, word), nil
	}

	operands, err := decodeOperands(word)
	if err != nil {
		return nil, err
	}

	switch KindOf(op) {
	case DataMove:
		return Data{Op: op, Operands: operands}, nil
	case Arithmetic:
		return ALU{Op: op, Operands: operands}, nil
	default:
		return Shared{Op: op, Operands: operands}, nil
	}
}

// DecodeAt decodes a word destined for the given CRF slot and resolves the
// absolute target of a JUMP.
func DecodeAt(slot int, word uint32) (Instruction, error) {
	inst, err := Decode(word)
	if err != nil {
		return nil, err
	}

	c, ok := inst.(Control)
	if !ok || c.Op != JUMP {
		return inst, nil
	}

	c.Target = slot + c.Offset
	if c.Target < 0 || c.Target >= CRFSize {
		return nil, fmt.Errorf("%w: slot %d offset %d",
			ErrJumpOutOfRange, slot, c.Offset)
	}

	return c, nil
}

func decodeControl(op Opcode, word uint32) Control {
	offset := int((word >> offsetShift) & fieldMask12)
	if offset > maxOffset {
		offset -= 1 << 12
	}

	c := Control{
		Op:     op,
		Offset: offset,
		Repeat: int(word & fieldMask12),
	}
	c.Target = c.Offset

	return c
}

func decodeOperands(word uint32) (Operands, error) {
	o := Operands{
		Dst:  decodeOperand(word, dstKindShift, dstIdxShift, dstFixBit),
		Src0: decodeOperand(word, src0KindShift, src0IdxShift, src0FixBit),
		Src1: decodeOperand(word, src1KindShift, src1IdxShift, src1FixBit),
	}

	if bit(word, aamBit) {
		o.Mode = AddressAligned
	}

	for _, opnd := range []Operand{o.Dst, o.Src0, o.Src1} {
		if opnd.Kind > None {
			return Operands{}, fmt.Errorf("%w: %d", ErrInvalidOperand, opnd.Kind)
		}
	}

	return o, nil
}

func decodeOperand(word uint32, kindShift, idxShift, fixBit uint) Operand {
	return Operand{
		Kind:  OperandKind((word >> kindShift) & kindMask),
		Index: uint8((word >> idxShift) & indexMask),
		Fixed: bit(word, fixBit),
	}
}

// Encode packs an instruction into its 32-bit word. It panics on
// instructions that cannot be represented, which only hand-built values can
// produce.
func Encode(inst Instruction) uint32 {
	w, err := TryEncode(inst)
	if err != nil {
		panic(err)
	}

	return w
}

// TryEncode is Encode with an error return.
func TryEncode(inst Instruction) (uint32, error) {
	op := inst.Opcode()
	if !op.Valid() {
		return 0, fmt.Errorf("%w: %w: %d",
			ErrUnencodableInst, ErrUnknownOpcode, uint8(op))
	}

	w := uint32(op) << opcodeShift

	if c, ok := inst.(Control); ok {
		if c.Offset < minOffset || c.Offset > maxOffset ||
			c.Repeat < 0 || c.Repeat > fieldMask12 {
			return 0, fmt.Errorf("%w: %s", ErrUnencodableInst, c)
		}

		w |= (uint32(c.Offset) & fieldMask12) << offsetShift
		w |= uint32(c.Repeat)

		return w, nil
	}

	o, ok := OperandsOf(inst)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrUnencodableInst, inst)
	}

	w |= setBit(o.Mode == AddressAligned, aamBit)
	w |= encodeOperand(o.Dst, dstKindShift, dstIdxShift, dstFixBit)
	w |= encodeOperand(o.Src0, src0KindShift, src0IdxShift, src0FixBit)
	w |= encodeOperand(o.Src1, src1KindShift, src1IdxShift, src1FixBit)

	return w, nil
}

func encodeOperand(o Operand, kindShift, idxShift, fixBit uint) uint32 {
	w := (uint32(o.Kind) & kindMask) << kindShift
	w |= (uint32(o.Index) & indexMask) << idxShift
	w |= setBit(o.Fixed, fixBit)

	return w
}
