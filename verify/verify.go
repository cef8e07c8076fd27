// Package verify checks CRF kernels before they are written to a device.
//
// It has two stages:
//
//  1. Static lint (lint.go) decodes every slot and walks the control flow.
//     STRUCT issues are words a unit would reject or fault on; FLOW issues
//     are kernels that decode but never leave PIM mode, fall off the end of
//     the program, or contain dead slots.
//  2. Functional run (funcsim.go) loads the kernel into a standalone compute
//     unit and counts the host transactions it consumes before EXIT.
package verify

import "fmt"

// IssueType classifies an issue.
type IssueType string

const (
	IssueStruct IssueType = "STRUCT"
	IssueFlow   IssueType = "FLOW"
)

// Issue is a single lint finding. Slot is -1 when the issue concerns the
// whole kernel.
type Issue struct {
	Type    IssueType
	Slot    int
	Message string
}

func (i Issue) String() string {
	if i.Slot < 0 {
		return fmt.Sprintf("[%s] %s", i.Type, i.Message)
	}

	return fmt.Sprintf("[%s] slot %d: %s", i.Type, i.Slot, i.Message)
}

func structIssue(slot int, format string, args ...any) Issue {
	return Issue{Type: IssueStruct, Slot: slot, Message: fmt.Sprintf(format, args...)}
}

func flowIssue(slot int, format string, args ...any) Issue {
	return Issue{Type: IssueFlow, Slot: slot, Message: fmt.Sprintf(format, args...)}
}
