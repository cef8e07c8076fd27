package verify

import (
	"errors"
	"fmt"

	"github.com/sarchlab/pimfuncsim/addrmap"
	"github.com/sarchlab/pimfuncsim/core"
	"github.com/sarchlab/pimfuncsim/dram"
)

// ErrNoExit is returned when a kernel does not reach EXIT within the limit.
var ErrNoExit = errors.New("kernel did not exit")

// SimResult summarizes a functional run.
type SimResult struct {
	Transactions   int
	Executed       uint64
	NopCompletions uint64
}

// Simulate runs the kernel on a standalone compute unit, one read per step,
// until it completes with EXIT.
func Simulate(words []uint32, limit int) (SimResult, error) {
	var res SimResult

	u := core.NewBuilder().
		WithMemory(dram.NewPhysicalMemory(core.WordBytes)).
		Build("Verify.Unit")

	for slot, w := range words {
		if err := u.ProgramInstruction(slot, w); err != nil {
			return res, err
		}
	}

	for res.Transactions < limit {
		c, err := u.AddTransaction(0, addrmap.Address{}, false, nil)
		res.Transactions++

		if err != nil {
			return res, fmt.Errorf("transaction %d: %w", res.Transactions, err)
		}

		if c == core.ExitComplete {
			break
		}
	}

	stats := u.Stats()
	res.Executed = stats.Executed
	res.NopCompletions = stats.NopCompletions

	if stats.ExitCompletions == 0 {
		return res, fmt.Errorf("%d transactions: %w", limit, ErrNoExit)
	}

	return res, nil
}
