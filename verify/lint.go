package verify

import (
	"github.com/sarchlab/pimfuncsim/isa"
)

// RunLint performs static checks on a kernel.
func RunLint(words []uint32) []Issue {
	var issues []Issue

	if len(words) > isa.CRFSize {
		issues = append(issues, structIssue(-1,
			"%d words do not fit %d CRF slots", len(words), isa.CRFSize))
		words = words[:isa.CRFSize]
	}

	insts := make([]isa.Instruction, len(words))

	for slot, w := range words {
		inst, err := isa.DecodeAt(slot, w)
		if err != nil {
			issues = append(issues, structIssue(slot, "%v", err))
			continue
		}

		insts[slot] = inst
		issues = append(issues, checkOperands(slot, inst)...)
	}

	return append(issues, checkFlow(insts)...)
}

func checkOperands(slot int, inst isa.Instruction) []Issue {
	ops, ok := isa.OperandsOf(inst)
	if !ok {
		return nil
	}

	switch inst.Kind() {
	case isa.DataMove, isa.Arithmetic:
		if ops.Dst.Kind == isa.None {
			return []Issue{structIssue(slot, "%s has no destination", inst)}
		}
	case isa.SharedAcc:
		if ops.Src0.Kind == isa.None {
			return []Issue{structIssue(slot, "%s has no index source", inst)}
		}
	}

	return nil
}

// checkFlow follows fall-through and JUMP edges from slot 0.
func checkFlow(insts []isa.Instruction) []Issue {
	var issues []Issue

	reachable := make([]bool, len(insts))
	work := []int{0}
	exits := false
	fallsOff := false

	for len(work) > 0 && len(insts) > 0 {
		slot := work[len(work)-1]
		work = work[:len(work)-1]

		if slot >= len(insts) {
			fallsOff = true
			continue
		}

		if reachable[slot] {
			continue
		}

		reachable[slot] = true

		c, ok := insts[slot].(isa.Control)
		if !ok {
			work = append(work, slot+1)
			continue
		}

		switch c.Op {
		case isa.EXIT:
			exits = true
		case isa.JUMP:
			if c.Repeat == 0 {
				issues = append(issues, flowIssue(slot, "JUMP with repeat 0 is never taken"))
			}

			if c.Target == slot {
				issues = append(issues, flowIssue(slot, "JUMP loops on itself"))
			}

			work = append(work, c.Target, slot+1)
		default:
			work = append(work, slot+1)
		}
	}

	if !exits {
		issues = append(issues, flowIssue(-1, "no reachable EXIT; the channel stays in PIM mode"))
	}

	if fallsOff {
		issues = append(issues, flowIssue(-1, "control runs past the last kernel word"))
	}

	for slot, inst := range insts {
		if inst != nil && !reachable[slot] {
			issues = append(issues, flowIssue(slot, "%s is unreachable", inst))
		}
	}

	return issues
}
