// Package report renders the before/after result of a loop-carry pass
// run the way the REPL and CLI both want to show it: the two printed
// IR trees, plus a short colorized summary of the scratch buffers the
// pass introduced.
package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"loopc/internal/ir"
)

// ScratchSummary is one allocation the pass introduced, read back out
// of the rewritten tree for display.
type ScratchSummary struct {
	Name     string
	ElemType ir.Type
	Size     int64
}

// Result is everything worth showing about one LoopCarry run.
type Result struct {
	Name    string
	Before  ir.Stmt
	After   ir.Stmt
	Scratch []ScratchSummary
}

// CollectScratch walks a rewritten statement tree and reports every
// Allocate node it introduced, outermost first (the pass wraps each
// further scratch allocation around the previous ones, so the
// allocation for the last chain it processed appears first).
func CollectScratch(s ir.Stmt) []ScratchSummary {
	var out []ScratchSummary
	walkStmt(s, func(a *ir.Allocate) {
		size := int64(1)
		for _, e := range a.Extents {
			if imm, ok := ir.Simplify(e).(*ir.IntImm); ok {
				size *= imm.Value
			}
		}
		out = append(out, ScratchSummary{Name: a.Name, ElemType: a.ElemType, Size: size})
	})
	return out
}

func walkStmt(s ir.Stmt, visit func(*ir.Allocate)) {
	switch n := s.(type) {
	case nil:
		return
	case *ir.Block:
		walkStmt(n.First, visit)
		walkStmt(n.Rest, visit)
	case *ir.IfThenElse:
		walkStmt(n.Then, visit)
		walkStmt(n.Else, visit)
	case *ir.For:
		walkStmt(n.Body, visit)
	case *ir.LetStmt:
		walkStmt(n.Body, visit)
	case *ir.ProducerConsumer:
		walkStmt(n.Body, visit)
	case *ir.Allocate:
		visit(n)
		walkStmt(n.Body, visit)
	}
}

// Render formats a Result the way the REPL prints a "run" command's
// output: a bold header, the before/after IR dumps separated by a dim
// rule, and a summary line per scratch buffer introduced.
func Render(r Result) string {
	var out strings.Builder
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()

	out.WriteString(fmt.Sprintf("%s %s\n", bold("scenario:"), r.Name))
	out.WriteString(fmt.Sprintf("%s\n", dim("── before ──────────────────────────")))
	out.WriteString(ir.PrintStmt(r.Before))
	out.WriteString(fmt.Sprintf("%s\n", dim("── after ───────────────────────────")))
	out.WriteString(ir.PrintStmt(r.After))

	if len(r.Scratch) == 0 {
		out.WriteString(fmt.Sprintf("%s\n", dim("(no carried values lifted)")))
		return out.String()
	}

	out.WriteString(fmt.Sprintf("%s\n", bold("scratch buffers introduced:")))
	for _, sc := range r.Scratch {
		out.WriteString(fmt.Sprintf("  %s %s: %s elements of %s\n",
			green("+"), cyan(sc.Name), fmt.Sprintf("%d", sc.Size), sc.ElemType.String()))
	}
	return out.String()
}
