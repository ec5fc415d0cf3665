package ir

import (
	"fmt"
	"strings"
)

// Printer renders IR trees to a readable, C-like textual form, used
// by the report package to show before/after diffs and by tests to
// assert on shape without comparing Go struct literals directly.
type Printer struct {
	indent int
	output strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

// PrintExpr renders e as a single-line expression.
func PrintExpr(e Expr) string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

// PrintStmt renders s as a multi-line, indented statement tree.
func PrintStmt(s Stmt) string {
	p := NewPrinter()
	p.printStmt(s)
	return p.output.String()
}

func writeExpr(b *strings.Builder, e Expr) {
	if e == nil {
		b.WriteString("<nil>")
		return
	}
	switch n := e.(type) {
	case *Var:
		b.WriteString(n.Name)
	case *IntImm:
		fmt.Fprintf(b, "%d", n.Value)
	case *Add:
		b.WriteByte('(')
		writeExpr(b, n.A)
		b.WriteString(" + ")
		writeExpr(b, n.B)
		b.WriteByte(')')
	case *Sub:
		b.WriteByte('(')
		writeExpr(b, n.A)
		b.WriteString(" - ")
		writeExpr(b, n.B)
		b.WriteByte(')')
	case *Mul:
		b.WriteByte('(')
		writeExpr(b, n.A)
		b.WriteString(" * ")
		writeExpr(b, n.B)
		b.WriteByte(')')
	case *Cmp:
		b.WriteByte('(')
		writeExpr(b, n.A)
		b.WriteString(" " + cmpSymbol(n.Op) + " ")
		writeExpr(b, n.B)
		b.WriteByte(')')
	case *Ramp:
		b.WriteString("ramp(")
		writeExpr(b, n.Base)
		b.WriteString(", ")
		writeExpr(b, n.Stride)
		fmt.Fprintf(b, ", %d)", n.Lanes)
	case *Broadcast:
		b.WriteString("x")
		fmt.Fprintf(b, "%d(", n.Lanes)
		writeExpr(b, n.Value)
		b.WriteByte(')')
	case *Load:
		b.WriteString(n.Buffer)
		b.WriteByte('[')
		writeExpr(b, n.Index)
		b.WriteByte(']')
		if !IsConstTrueExpr(n.Predicate) {
			b.WriteString(" if ")
			writeExpr(b, n.Predicate)
		}
	case *Let:
		fmt.Fprintf(b, "(let %s = ", n.Name)
		writeExpr(b, n.Value)
		b.WriteString(" in ")
		writeExpr(b, n.Body)
		b.WriteByte(')')
	case *Select:
		b.WriteString("select(")
		writeExpr(b, n.Cond)
		b.WriteString(", ")
		writeExpr(b, n.TrueVal)
		b.WriteString(", ")
		writeExpr(b, n.FalseVal)
		b.WriteByte(')')
	case *Call:
		fmt.Fprintf(b, "%s(", n.Name)
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

// IsConstTrueExpr reports whether e is the literal nonzero predicate
// constant, used only to decide whether to print a Load's "if ..."
// suffix.
func IsConstTrueExpr(e Expr) bool {
	imm, ok := e.(*IntImm)
	return ok && imm.Value != 0
}

func cmpSymbol(op CmpOp) string {
	switch op {
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	case EQ:
		return "=="
	case NE:
		return "!="
	default:
		return "?"
	}
}

func (p *Printer) printStmt(s Stmt) {
	switch n := s.(type) {
	case nil:
		return
	case *Store:
		p.writeIndent()
		p.output.WriteString(n.Buffer)
		p.output.WriteByte('[')
		writeExpr(&p.output, n.Index)
		p.output.WriteString("] = ")
		writeExpr(&p.output, n.Value)
		if !IsConstTrueExpr(n.Predicate) {
			p.output.WriteString(" if ")
			writeExpr(&p.output, n.Predicate)
		}
		p.output.WriteByte('\n')
	case *LetStmt:
		p.writeIndent()
		fmt.Fprintf(&p.output, "let %s = %s\n", n.Name, PrintExpr(n.Value))
		p.printStmt(n.Body)
	case *Block:
		p.printStmt(n.First)
		p.printStmt(n.Rest)
	case *For:
		p.writeLine("for %s in [%s, %s + %s) %s {", n.Var, PrintExpr(n.Min), PrintExpr(n.Min), PrintExpr(n.Extent), forTypeTag(n.ForType))
		p.indent++
		p.printStmt(n.Body)
		p.indent--
		p.writeLine("}")
	case *IfThenElse:
		p.writeLine("if %s {", PrintExpr(n.Cond))
		p.indent++
		p.printStmt(n.Then)
		p.indent--
		if n.Else != nil {
			p.writeLine("} else {")
			p.indent++
			p.printStmt(n.Else)
			p.indent--
		}
		p.writeLine("}")
	case *ProducerConsumer:
		kind := "consume"
		if n.IsProducer {
			kind = "produce"
		}
		p.writeLine("%s %s {", kind, n.Name)
		p.indent++
		p.printStmt(n.Body)
		p.indent--
		p.writeLine("}")
	case *Allocate:
		extents := make([]string, len(n.Extents))
		for i, ex := range n.Extents {
			extents[i] = PrintExpr(ex)
		}
		p.writeLine("allocate %s[%s] {", n.Name, strings.Join(extents, ", "))
		p.indent++
		p.printStmt(n.Body)
		p.indent--
		p.writeLine("}")
	default:
		p.writeLine("<unknown stmt %T>", s)
	}
}

func forTypeTag(t ForType) string {
	switch t {
	case Serial:
		return "serial"
	case Parallel:
		return "parallel"
	case Vectorized:
		return "vectorized"
	case Unrolled:
		return "unrolled"
	default:
		return "?"
	}
}
