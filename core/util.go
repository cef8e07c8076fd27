package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
)

// LevelTrace sits just above Info so that per-instruction events can be
// enabled without debug noise.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Trace logs at LevelTrace.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// RenderState formats the CRF and register files of a unit as tables.
func RenderState(u *ComputeUnit) string {
	crfTable := table.NewWriter()
	crfTable.SetTitle(fmt.Sprintf("%s CRF (pc=%d, lc=%d)", u.name, u.pc, u.lc))
	crfTable.AppendHeader(table.Row{"Slot", "Instruction"})

	for i, inst := range u.crf {
		mark := ""
		if i == u.pc {
			mark = " <"
		}

		crfTable.AppendRow(table.Row{i, inst.String() + mark})
	}

	regTable := table.NewWriter()
	regTable.SetTitle(u.name + " Registers")
	regTable.AppendHeader(table.Row{"Register", "Lanes"})

	for i, w := range u.regs.GRFA {
		regTable.AppendRow(table.Row{fmt.Sprintf("GRF_A[%d]", i), fmt.Sprint(w)})
	}

	for i, w := range u.regs.GRFB {
		regTable.AppendRow(table.Row{fmt.Sprintf("GRF_B[%d]", i), fmt.Sprint(w)})
	}

	regTable.AppendRow(table.Row{"SRF_A", fmt.Sprint(u.regs.SRFA)})
	regTable.AppendRow(table.Row{"SRF_M", fmt.Sprint(u.regs.SRFM)})
	regTable.AppendRow(table.Row{"BANK", fmt.Sprint(u.regs.Bank)})
	regTable.AppendRow(table.Row{"SCRATCH", fmt.Sprint(u.scratch)})

	return crfTable.Render() + "\n" + regTable.Render()
}

// LogState dumps the unit state at debug level.
func LogState(u *ComputeUnit) {
	slog.Debug("UnitState",
		"unit", u.name,
		"pc", u.pc,
		"lc", u.lc,
		"grfA", u.regs.GRFA,
		"srfA", u.regs.SRFA,
		"srfM", u.regs.SRFM,
		"scratch", u.scratch,
	)
}
