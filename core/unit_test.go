package core_test

import (
	"encoding/binary"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/core"
	"github.com/sarchlab/pimfuncsim/isa"
)

func load(u *core.ComputeUnit, insts ...isa.Instruction) {
	for i, w := range isa.Assemble(insts...) {
		Expect(u.ProgramInstruction(i, w)).To(Succeed())
	}
}

func burstOf(values ...uint16) []byte {
	b := make([]byte, core.WordBytes)
	for i, v := range values {
		binary.LittleEndian.PutUint16(b[2*i:], v)
	}

	return b
}

func splat(v uint16) core.Word {
	var w core.Word
	for i := range w {
		w[i] = v
	}

	return w
}

var _ = Describe("ComputeUnit", func() {
	var (
		mockCtrl *gomock.Controller
		memory   *MockBankMemory
		u        *core.ComputeUnit
		addr     addrmap.Address
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		memory = NewMockBankMemory(mockCtrl)
		u = core.NewBuilder().WithID(3).WithMemory(memory).Build("Unit[3]")
		addr = addrmap.Address{Row: 2, Column: 5}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should start with NOP 0 in every slot", func() {
		for i := 0; i < isa.CRFSize; i++ {
			Expect(u.Instruction(i)).To(Equal(isa.Nop(0)))
		}
		Expect(u.ID()).To(Equal(3))
		Expect(u.Name()).To(Equal("Unit[3]"))
	})

	It("should panic when built without memory", func() {
		Expect(func() { core.NewBuilder().Build("Unit") }).To(Panic())
	})

	Context("programming", func() {
		It("should keep a slot unchanged when the word does not decode", func() {
			load(u, isa.Exit())

			err := u.ProgramInstruction(0, 3<<28)

			Expect(err).To(MatchError(isa.ErrUnknownOpcode))
			Expect(u.Instruction(0)).To(Equal(isa.Exit()))
		})

		It("should reject slots past the CRF", func() {
			Expect(u.ProgramInstruction(32, 0)).NotTo(Succeed())
		})

		It("should program eight slots per CRF column", func() {
			words := isa.Assemble(isa.Nop(1), isa.Nop(2), isa.Nop(3), isa.Nop(4),
				isa.Nop(5), isa.Nop(6), isa.Nop(7), isa.Exit())
			burst := make([]byte, core.WordBytes)
			for i, w := range words {
				binary.LittleEndian.PutUint32(burst[4*i:], w)
			}

			Expect(u.ProgramCRF(1, burst)).To(Succeed())

			Expect(u.Instruction(8)).To(Equal(isa.Nop(1)))
			Expect(u.Instruction(14)).To(Equal(isa.Nop(7)))
			Expect(u.Instruction(15)).To(Equal(isa.Exit()))
			Expect(u.Instruction(0)).To(Equal(isa.Nop(0)))
		})

		It("should route GRF columns to GRF_A and GRF_B", func() {
			Expect(u.SetGRF(2, burstOf(7, 8))).To(Succeed())
			Expect(u.SetGRF(9, burstOf(1))).To(Succeed())
			Expect(u.SetGRF(16, burstOf(1))).NotTo(Succeed())

			Expect(u.Registers().GRFA[2][0]).To(Equal(uint16(7)))
			Expect(u.Registers().GRFA[2][1]).To(Equal(uint16(8)))
			Expect(u.Registers().GRFB[1][0]).To(Equal(uint16(1)))
		})

		It("should split an SRF burst", func() {
			u.SetSRF(burstOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16))

			Expect(u.Registers().SRFA).To(Equal([8]uint16{1, 2, 3, 4, 5, 6, 7, 8}))
			Expect(u.Registers().SRFM).To(Equal(
				[8]uint16{9, 10, 11, 12, 13, 14, 15, 16}))
		})

		It("should wrap DRF columns", func() {
			u.SetDRF(10, burstOf(4))
			Expect(u.Registers().DRF[2][0]).To(Equal(uint16(4)))
		})
	})

	Context("operand resolution", func() {
		It("should follow the address-aligned formula", func() {
			for row := 0; row < 4; row++ {
				for col := 0; col < 32; col++ {
					for shift := uint8(0); shift < 4; shift++ {
						want := ((row*32 + col) >> shift) % 8
						Expect(core.AlignedSlot(row, col, shift)).To(Equal(want))
					}
				}
			}
		})

		It("should resolve the same address the same way", func() {
			o := isa.Add(isa.AddressAligned,
				isa.Aligned(isa.GRFA, 0),
				isa.Aligned(isa.GRFB, 1),
				isa.Fix(isa.SRFM, 6)).Operands

			first := core.ResolveOperands(o, addr)
			second := core.ResolveOperands(o, addr)

			Expect(first).To(Equal(second))
			Expect(first.Dst).To(Equal(core.Ref{Kind: isa.GRFA, Slot: 5}))
			Expect(first.Src0).To(Equal(core.Ref{Kind: isa.GRFB, Slot: 2}))
			Expect(first.Src1).To(Equal(core.Ref{Kind: isa.SRFM, Slot: 6}))
		})

		It("should use literal indices in fixed mode", func() {
			o := isa.Mov(isa.Fixed, isa.Aligned(isa.GRFB, 3), isa.BankOp()).Operands

			r := core.ResolveOperands(o, addr)

			Expect(r.Dst).To(Equal(core.Ref{Kind: isa.GRFB, Slot: 3}))
			Expect(r.Src0).To(Equal(core.Ref{Kind: isa.Bank}))
			Expect(r.Src1).To(Equal(core.Ref{Kind: isa.None}))
		})

		It("should resolve the instruction at the PC", func() {
			load(u, isa.Mov(isa.AddressAligned,
				isa.Aligned(isa.GRFA, 0), isa.BankOp()))

			Expect(u.ResolveOperands(addr).Dst.Slot).To(Equal(5))
		})
	})

	Context("execution", func() {
		BeforeEach(func() {
			memory.EXPECT().Read(gomock.Any(), uint64(core.WordBytes)).
				Return(burstOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16), nil).
				AnyTimes()
		})

		It("should multiply by a broadcast scalar", func() {
			u.Registers().SRFM[2] = 3
			load(u,
				isa.Mul(isa.Fixed, isa.Fix(isa.GRFA, 1), isa.BankOp(), isa.Fix(isa.SRFM, 2)),
				isa.Exit())

			c, err := u.AddTransaction(0, addr, false, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(Equal(core.ExitComplete))
			Expect(u.Registers().GRFA[1][0]).To(Equal(uint16(3)))
			Expect(u.Registers().GRFA[1][15]).To(Equal(uint16(48)))
		})

		It("should accumulate with MAC and wrap at 16 bits", func() {
			u.Registers().GRFA[0] = splat(0xffff)
			u.Registers().GRFB[0] = splat(2)
			load(u,
				isa.Mac(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.Fix(isa.GRFB, 0), isa.BankOp()))

			_, err := u.AddTransaction(0, addr, false, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Registers().GRFA[0][0]).To(Equal(uint16(1)))
			Expect(u.Registers().GRFA[0][1]).To(Equal(uint16(3)))
		})

		It("should add two vectors", func() {
			u.Registers().GRFB[3] = splat(10)
			load(u,
				isa.Add(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.Fix(isa.GRFB, 3), isa.BankOp()))

			_, err := u.AddTransaction(0, addr, false, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Registers().GRFA[0][4]).To(Equal(uint16(15)))
		})

		It("should leave registers unchanged on MAD", func() {
			load(u,
				isa.Mad(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.BankOp(), isa.BankOp()))

			_, err := u.AddTransaction(0, addr, false, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Registers().GRFA[0]).To(Equal(core.Word{}))
			Expect(u.PC()).To(Equal(1))
		})

		It("should split a MOV into SRF_M and SRF_A", func() {
			load(u, isa.Mov(isa.Fixed, isa.Fix(isa.SRFM, 0), isa.BankOp()))

			_, err := u.AddTransaction(0, addr, false, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Registers().SRFM).To(Equal([8]uint16{1, 2, 3, 4, 5, 6, 7, 8}))
			Expect(u.Registers().SRFA).To(Equal(
				[8]uint16{9, 10, 11, 12, 13, 14, 15, 16}))
		})

		It("should broadcast a scalar with FILL", func() {
			u.Registers().SRFA[4] = 9
			load(u, isa.Fill(isa.Fixed, isa.Fix(isa.GRFB, 2), isa.Fix(isa.SRFA, 4)))

			_, err := u.AddTransaction(0, addr, false, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Registers().GRFB[2]).To(Equal(splat(9)))
		})

		It("should pack indices on SACC and post them once", func() {
			load(u, isa.Sacc(isa.Fixed, isa.BankOp()))

			_, err := u.AddTransaction(0, addr, false, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(u.Scratch()[0]).To(Equal(uint32(2<<16 | 1)))
			Expect(u.Scratch()[7]).To(Equal(uint32(16<<16 | 15)))

			ev, ok := u.TakeShare()
			Expect(ok).To(BeTrue())
			Expect(ev.Unit).To(Equal(3))
			Expect(ev.Column).To(Equal(5))
			Expect(ev.Indices).To(Equal(u.Scratch()))

			_, ok = u.TakeShare()
			Expect(ok).To(BeFalse())
		})

		It("should report a missing operand", func() {
			load(u, isa.Add(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.BankOp(), isa.NoOperand))

			_, err := u.AddTransaction(0, addr, false, nil)

			Expect(err).To(MatchError(core.ErrMissingOperand))
		})
	})

	Context("bank traffic", func() {
		It("should stage write payloads and flush stores to the bank", func() {
			u.Registers().SRFM[0] = 2
			load(u,
				isa.Mul(isa.Fixed, isa.BankOp(), isa.BankOp(), isa.Fix(isa.SRFM, 0)))
			memory.EXPECT().Write(uint64(0x40), burstOf(2, 4, 6))

			_, err := u.AddTransaction(0x40, addr, true, burstOf(1, 2, 3))

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Stats().BankFlushes).To(Equal(uint64(1)))
		})

		It("should not flush on reads", func() {
			memory.EXPECT().Read(uint64(0x40), uint64(core.WordBytes)).
				Return(burstOf(5), nil)
			load(u, isa.Mov(isa.Fixed, isa.BankOp(), isa.Fix(isa.GRFA, 0)))

			_, err := u.AddTransaction(0x40, addr, false, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(u.Registers().Bank).To(Equal(core.Word{}))
		})
	})

	Context("control flow", func() {
		BeforeEach(func() {
			memory.EXPECT().Read(gomock.Any(), gomock.Any()).
				Return(burstOf(1), nil).AnyTimes()
		})

		It("should complete NOP 5 on the fifth transaction", func() {
			load(u, isa.Nop(5), isa.Exit())

			completions := []core.Completion{}
			for i := 0; i < 5; i++ {
				c, err := u.AddTransaction(0, addr, false, nil)
				Expect(err).NotTo(HaveOccurred())
				completions = append(completions, c)
			}

			Expect(completions).To(Equal([]core.Completion{
				core.Continue, core.Continue, core.Continue, core.Continue,
				core.NopComplete,
			}))
			Expect(u.LoopCounter()).To(Equal(0))
			Expect(u.PC()).To(Equal(1))
		})

		It("should absorb a NOP armed by the previous instruction", func() {
			load(u,
				isa.Mov(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.BankOp()),
				isa.Nop(2),
				isa.Exit())

			c, _ := u.AddTransaction(0, addr, false, nil)
			Expect(c).To(Equal(core.Continue))
			Expect(u.LoopCounter()).To(Equal(2))

			c, _ = u.AddTransaction(0, addr, false, nil)
			Expect(c).To(Equal(core.Continue))

			c, _ = u.AddTransaction(0, addr, false, nil)
			Expect(c).To(Equal(core.NopComplete))

			c, _ = u.AddTransaction(0, addr, false, nil)
			Expect(c).To(Equal(core.ExitComplete))
			Expect(u.PC()).To(Equal(0))
		})

		It("should take a JUMP right after a NOP completes", func() {
			load(u,
				isa.Mov(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.BankOp()),
				isa.Nop(2),
				isa.Jump(-2, 1),
				isa.Exit())

			_, _ = u.AddTransaction(0, addr, false, nil)
			_, _ = u.AddTransaction(0, addr, false, nil)

			c, err := u.AddTransaction(0, addr, false, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(Equal(core.NopComplete))
			Expect(u.PC()).To(Equal(0))
			Expect(u.LoopCounter()).To(Equal(1))

			c, err = u.AddTransaction(0, addr, false, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(Equal(core.Continue))
			Expect(u.Stats().Executed).To(Equal(uint64(2)))
		})

		It("should restart identically after EXIT", func() {
			load(u,
				isa.Mov(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.BankOp()),
				isa.Exit())

			for run := 0; run < 2; run++ {
				c, err := u.AddTransaction(0, addr, false, nil)

				Expect(err).NotTo(HaveOccurred())
				Expect(c).To(Equal(core.ExitComplete))
				Expect(u.PC()).To(Equal(0))
				Expect(u.LoopCounter()).To(Equal(0))
			}

			Expect(u.Stats().ExitCompletions).To(Equal(uint64(2)))
		})

		It("should run a JUMP loop body repeat+1 times", func() {
			u.Registers().SRFA[0] = 1
			load(u,
				isa.Add(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.Fix(isa.GRFA, 0), isa.Fix(isa.SRFA, 0)),
				isa.Jump(-1, 3),
				isa.Exit())

			var c core.Completion
			for i := 0; i < 4; i++ {
				Expect(c).To(Equal(core.Continue))
				c, _ = u.AddTransaction(0, addr, false, nil)
			}

			Expect(c).To(Equal(core.ExitComplete))
			Expect(u.Registers().GRFA[0]).To(Equal(splat(4)))
		})

		It("should fall through a JUMP with no repeat count", func() {
			load(u,
				isa.Mov(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.BankOp()),
				isa.Jump(-1, 0),
				isa.Exit())

			c, _ := u.AddTransaction(0, addr, false, nil)

			Expect(c).To(Equal(core.ExitComplete))
		})

		It("should wrap the PC at the end of the CRF", func() {
			for i := 0; i < isa.CRFSize; i++ {
				Expect(u.ProgramInstruction(i, isa.Encode(
					isa.Mov(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.BankOp())))).
					To(Succeed())
			}

			for i := 0; i < isa.CRFSize; i++ {
				_, _ = u.AddTransaction(0, addr, false, nil)
			}

			Expect(u.PC()).To(Equal(0))
		})

		It("should return to power-on state on Reset", func() {
			load(u, isa.Mov(isa.Fixed, isa.Fix(isa.GRFA, 0), isa.BankOp()))
			_, _ = u.AddTransaction(0, addr, false, nil)

			u.Reset()

			Expect(u.PC()).To(Equal(0))
			Expect(u.Registers().GRFA[0]).To(Equal(core.Word{}))
			Expect(u.Instruction(0).Opcode()).To(Equal(isa.MOV))
		})
	})

	It("should render its state", func() {
		load(u, isa.Exit())

		out := core.RenderState(u)

		Expect(out).To(ContainSubstring("GRF_A[0]"))
		Expect(out).To(ContainSubstring("EXIT"))
	})
})
