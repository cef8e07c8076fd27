package isa

// Fix returns an operand resolved to a literal slot.
func Fix(kind OperandKind, index uint8) Operand {
	return Operand{Kind: kind, Index: index, Fixed: true}
}

// Aligned returns an operand whose slot follows the transaction address,
// shifted right by shift bits.
func Aligned(kind OperandKind, shift uint8) Operand {
	return Operand{Kind: kind, Index: shift}
}

// BankOp returns the bank staging buffer operand.
func BankOp() Operand {
	return Operand{Kind: Bank}
}

// Nop stalls for repeat transactions.
func Nop(repeat int) Control {
	return Control{Op: NOP, Repeat: repeat}
}

// Jump branches by offset slots; the loop body runs repeat+1 times.
func Jump(offset, repeat int) Control {
	return Control{Op: JUMP, Offset: offset, Target: offset, Repeat: repeat}
}

// Exit ends a kernel.
func Exit() Control {
	return Control{Op: EXIT}
}

func operands(mode AddressingMode, dst, src0, src1 Operand) Operands {
	return Operands{Mode: mode, Dst: dst, Src0: src0, Src1: src1}
}

// Mov copies src0 into dst.
func Mov(mode AddressingMode, dst, src0 Operand) Data {
	return Data{Op: MOV, Operands: operands(mode, dst, src0, NoOperand)}
}

// Fill copies src0 into dst. It behaves like MOV.
func Fill(mode AddressingMode, dst, src0 Operand) Data {
	return Data{Op: FILL, Operands: operands(mode, dst, src0, NoOperand)}
}

// Add computes dst = src0 + src1.
func Add(mode AddressingMode, dst, src0, src1 Operand) ALU {
	return ALU{Op: ADD, Operands: operands(mode, dst, src0, src1)}
}

// Mul computes dst = src0 * src1.
func Mul(mode AddressingMode, dst, src0, src1 Operand) ALU {
	return ALU{Op: MUL, Operands: operands(mode, dst, src0, src1)}
}

// Mac computes dst += src0 * src1.
func Mac(mode AddressingMode, dst, src0, src1 Operand) ALU {
	return ALU{Op: MAC, Operands: operands(mode, dst, src0, src1)}
}

// Mad encodes a MAD.
func Mad(mode AddressingMode, dst, src0, src1 Operand) ALU {
	return ALU{Op: MAD, Operands: operands(mode, dst, src0, src1)}
}

// Sacc packs src0 into shared-accumulate indices.
func Sacc(mode AddressingMode, src0 Operand) Shared {
	return Shared{Op: SACC, Operands: operands(mode, NoOperand, src0, NoOperand)}
}

// Assemble encodes a kernel into CRF words.
func Assemble(insts ...Instruction) []uint32 {
	words := make([]uint32, len(insts))
	for i, inst := range insts {
		words[i] = Encode(inst)
	}

	return words
}
