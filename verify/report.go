package verify

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/pimfuncsim/isa"
)

// Report collects the lint and simulation results of a kernel.
type Report struct {
	Words   []uint32
	Issues  []Issue
	Sim     SimResult
	SimErr  error
	Checked bool
}

// GenerateReport lints the kernel and, if it has no STRUCT issue, runs it
// for at most limit transactions.
func GenerateReport(words []uint32, limit int) *Report {
	r := &Report{
		Words:  words,
		Issues: RunLint(words),
	}

	if r.count(IssueStruct) == 0 {
		r.Sim, r.SimErr = Simulate(words, limit)
		r.Checked = true
	}

	return r
}

func (r *Report) count(t IssueType) int {
	n := 0
	for _, i := range r.Issues {
		if i.Type == t {
			n++
		}
	}

	return n
}

// OK reports whether the kernel decodes and exits.
func (r *Report) OK() bool {
	return r.Checked && r.SimErr == nil && r.count(IssueStruct) == 0
}

// WriteReport prints a listing with the issues of each slot, followed by a
// summary.
func (r *Report) WriteReport(w io.Writer) {
	bySlot := map[int][]string{}
	for _, i := range r.Issues {
		bySlot[i.Slot] = append(bySlot[i.Slot], fmt.Sprintf("%s: %s", i.Type, i.Message))
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Kernel")
	t.AppendHeader(table.Row{"Slot", "Word", "Instruction", "Issues"})

	for slot, word := range r.Words {
		text := "?"
		if inst, err := isa.DecodeAt(slot, word); err == nil {
			text = inst.String()
		}

		t.AppendRow(table.Row{slot, fmt.Sprintf("%08x", word), text,
			strings.Join(bySlot[slot], "; ")})
	}

	t.Render()

	for _, msg := range bySlot[-1] {
		fmt.Fprintln(w, msg)
	}

	switch {
	case !r.Checked:
		fmt.Fprintln(w, "not simulated")
	case r.SimErr != nil:
		fmt.Fprintf(w, "simulation failed: %v\n", r.SimErr)
	default:
		fmt.Fprintf(w, "exits after %d transactions (%d executed, %d NOP completions)\n",
			r.Sim.Transactions, r.Sim.Executed, r.Sim.NopCompletions)
	}
}
