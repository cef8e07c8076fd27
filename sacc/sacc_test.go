package sacc_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pimfuncsim/core"
	"github.com/sarchlab/pimfuncsim/monitor"
	"github.com/sarchlab/pimfuncsim/sacc"
)

type fakeUnit struct {
	id   int
	regs core.RegisterFile
}

func (u *fakeUnit) ID() int                       { return u.id }
func (u *fakeUnit) Registers() *core.RegisterFile { return &u.regs }

func indices(values ...uint32) [core.ScratchSize]uint32 {
	var out [core.ScratchSize]uint32
	copy(out[:], values)

	return out
}

var _ = Describe("Accumulator", func() {
	var (
		left, right *fakeUnit
		hook        *monitor.QueueHook
		acc         *sacc.Accumulator
	)

	build := func(id int) *sacc.Accumulator {
		return sacc.NewBuilder().
			WithID(id).
			WithUnits(left, right).
			WithHook(hook).
			Build("PIM.SharedAcc[0]")
	}

	BeforeEach(func() {
		left = &fakeUnit{id: 4}
		right = &fakeUnit{id: 5}
		hook = monitor.NewQueueHook()
		acc = build(0)
	})

	It("should accumulate matching indices into the left unit", func() {
		left.regs.SetGRFAScalar(0, 10)
		right.regs.SetGRFAScalar(0, 3)
		acc.LoadIndices(indices(5, 9), indices(5, 7))

		rep := acc.Run(0)

		Expect(rep.Matches).To(Equal(1))
		Expect(rep.Misses).To(Equal(1))
		Expect(left.regs.GRFAScalar(0)).To(Equal(uint16(13)))
		Expect(right.regs.GRFAScalar(0)).To(Equal(uint16(0)))
		Expect(acc.RightLen()).To(Equal(0))
		Expect(acc.LeftLen()).To(Equal(1))
		front, ok := acc.PeekLeft()
		Expect(ok).To(BeTrue())
		Expect(front).To(Equal(sacc.Element{Order: 1, Index: 9}))
		Expect(hook.Count("PIM.SharedAcc[0].LeftQueue")).To(BeNumerically(">", 0))
	})

	It("should skip zero indices", func() {
		acc.LoadIndices(indices(0, 3), indices())

		Expect(acc.LeftLen()).To(Equal(1))
		Expect(acc.RightLen()).To(Equal(0))
	})

	Context("column changes", func() {
		setup := func() {
			acc.LoadIndices(indices(1), indices(2, 3))
			acc.Run(0x11)
			Expect(acc.LeftLen()).To(Equal(0))
			Expect(acc.RightLen()).To(Equal(2))

			acc.LoadIndices(indices(4), indices())
		}

		It("should flush the right side of an even accumulator", func() {
			setup()

			rep := acc.Run(0x22)

			Expect(rep.ColumnFlush).To(BeTrue())
			Expect(acc.RightLen()).To(Equal(0))
			Expect(acc.LeftLen()).To(Equal(1))
		})

		It("should flush the left side of an odd accumulator", func() {
			acc = build(1)
			setup()

			acc.Run(0x22)

			Expect(acc.LeftLen()).To(Equal(0))
			Expect(acc.RightLen()).To(Equal(2))
		})

		It("should not flush when the column word is unchanged", func() {
			setup()

			rep := acc.Run(0x11)

			Expect(rep.ColumnFlush).To(BeFalse())
			Expect(acc.Stats().ColumnFlushes).To(BeZero())
		})

		It("should cycle the column epoch", func() {
			for i := 0; i < 9; i++ {
				Expect(acc.ColumnEpoch()).To(Equal(i % 8))
				acc.Run(0)
			}
		})
	})

	It("should flush both queues when a side holds more than eight", func() {
		acc.LoadIndices(indices(1, 2, 3, 4, 5, 6, 7, 8), indices())
		acc.LoadIndicesSecondHalf(indices(9, 10, 11, 12, 13, 14, 15), indices())

		rep := acc.Run(0)

		Expect(rep.Flushed).To(BeTrue())
		Expect(acc.LeftLen()).To(Equal(0))
		Expect(acc.RightLen()).To(Equal(0))
	})

	It("should forget the previous column word on Reset", func() {
		acc.LoadIndices(indices(1), indices(2, 3))
		acc.Run(0x11)
		_, _ = acc.Post(core.ShareEvent{Unit: 4})

		acc.Reset()

		Expect(acc.LeftLen() + acc.RightLen()).To(Equal(0))
		Expect(acc.Ready()).To(BeFalse())
		Expect(acc.ColumnEpoch()).To(Equal(0))

		acc.LoadIndices(indices(4), indices(4))
		rep := acc.Run(0x22)

		Expect(rep.ColumnFlush).To(BeFalse())
		Expect(rep.Matches).To(Equal(1))
		Expect(acc.Stats().Runs).To(Equal(uint64(2)))
	})

	It("should panic when a queue overflows", func() {
		all := indices(1, 2, 3, 4, 5, 6, 7, 8)
		acc.LoadIndices(all, indices())
		acc.LoadIndicesSecondHalf(all, indices())

		Expect(func() { acc.LoadIndices(all, indices()) }).
			To(PanicWith(BeAssignableToTypeOf(&sacc.OverflowError{})))
	})

	Context("handshake", func() {
		It("should commit only when both halves are posted", func() {
			left.regs.SetGRFAScalar(8, 1)
			right.regs.SetGRFAScalar(8, 2)

			ready, err := acc.Post(core.ShareEvent{
				Unit: 4, Column: 3, Indices: indices(7)})
			Expect(err).NotTo(HaveOccurred())
			Expect(ready).To(BeFalse())

			_, err = acc.Commit(0)
			Expect(err).To(MatchError(sacc.ErrNotReady))

			ready, err = acc.Post(core.ShareEvent{
				Unit: 5, Column: 3, Indices: indices(7)})
			Expect(err).NotTo(HaveOccurred())
			Expect(ready).To(BeTrue())

			rep, err := acc.Commit(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Matches).To(Equal(1))
			Expect(left.regs.GRFAScalar(8)).To(Equal(uint16(3)))
			Expect(acc.Ready()).To(BeFalse())
		})

		It("should reject a second post from the same half", func() {
			_, err := acc.Post(core.ShareEvent{Unit: 5})
			Expect(err).NotTo(HaveOccurred())

			_, err = acc.Post(core.ShareEvent{Unit: 5})
			Expect(err).To(MatchError(sacc.ErrHalfPending))
		})

		It("should reject events from other units", func() {
			_, err := acc.Post(core.ShareEvent{Unit: 6})
			Expect(err).To(MatchError(sacc.ErrForeignUnit))
		})

		It("should queue the first half on even columns", func() {
			_, _ = acc.Post(core.ShareEvent{Unit: 4, Column: 2, Indices: indices(7)})
			_, _ = acc.Post(core.ShareEvent{Unit: 5, Column: 2, Indices: indices(9)})

			_, err := acc.Commit(0)

			Expect(err).NotTo(HaveOccurred())
			front, ok := acc.PeekRight()
			Expect(ok).To(BeTrue())
			Expect(front).To(Equal(sacc.Element{Order: 0, Index: 9}))
		})
	})
})
