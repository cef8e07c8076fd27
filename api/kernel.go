package api

import "github.com/sarchlab/pimfuncsim/isa"

// ScaleKernel multiplies a bank burst by SRF_M[0] and writes it back. Each
// pass takes a read followed by a write to the same column; the body runs
// repeat+1 times before EXIT.
func ScaleKernel(repeat int) []uint32 {
	return isa.Assemble(
		isa.Mul(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.BankOp(), isa.Fix(isa.SRFM, 0)),
		isa.Mov(isa.Fixed, isa.BankOp(), isa.Fix(isa.GRFA, 0)),
		isa.Jump(-2, repeat),
		isa.Exit(),
	)
}

// SharedAccumulateKernel loads values into GRF_A[0] on the first read, hands
// the indices of the second read to the shared accumulator and writes the
// merged values back on the following write.
func SharedAccumulateKernel() []uint32 {
	return isa.Assemble(
		isa.Mov(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.BankOp()),
		isa.Sacc(isa.Fixed, isa.BankOp()),
		isa.Mov(isa.Fixed, isa.BankOp(), isa.Fix(isa.GRFA, 0)),
		isa.Exit(),
	)
}

// SpmvKernel is the sparse matrix-vector kernel. A pass takes three reads:
// the first loads matrix values into SRF_M, the second scales a vector burst
// into the GRF_A slot its address selects and the third hands the column
// indices to the shared accumulator. The body runs repeat+1 times, then a
// write stores GRF_A[0] before EXIT.
func SpmvKernel(repeat int) []uint32 {
	return isa.Assemble(
		isa.Mov(isa.AddressAligned, isa.Aligned(isa.SRFM, 0), isa.BankOp()),
		isa.Mul(isa.AddressAligned,
			isa.Aligned(isa.GRFA, 0), isa.BankOp(), isa.Aligned(isa.SRFM, 0)),
		isa.Sacc(isa.AddressAligned, isa.BankOp()),
		isa.Jump(-3, repeat),
		isa.Mov(isa.Fixed, isa.BankOp(), isa.Fix(isa.GRFA, 0)),
		isa.Exit(),
	)
}
