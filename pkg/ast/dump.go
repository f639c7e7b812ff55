package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format renders an expression back to SQL. Nested binary operands are
// parenthesised so the output re-parses to the same tree.
func (c *Context) Format(r ExprRef) string {
	var b strings.Builder
	c.format(&b, r, false)
	return b.String()
}

func (c *Context) format(b *strings.Builder, r ExprRef, nested bool) {
	switch e := c.Expr(r).(type) {
	case *BinaryExpr:
		if nested {
			b.WriteByte('(')
		}
		c.format(b, e.LHS, true)
		b.WriteByte(' ')
		b.WriteString(e.Op.String())
		b.WriteByte(' ')
		c.format(b, e.RHS, true)
		if nested {
			b.WriteByte(')')
		}
	case *UnaryExpr:
		b.WriteString(e.Op.String())
		c.format(b, e.Operand, true)
	case *IntLiteral:
		b.WriteString(strconv.FormatInt(e.Value, 10))
	case *FloatLiteral:
		s := strconv.FormatFloat(e.Value, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		b.WriteString(s)
	case *StringLiteral:
		writeString(b, e.Value)
	case *Identifier:
		b.WriteString(e.Name)
	case *CallExpr:
		b.WriteString(e.Callee.Name)
		b.WriteByte('(')
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			c.format(b, a, false)
		}
		b.WriteByte(')')
	default:
		panic(fmt.Sprintf("ast: unknown expression type %T", e))
	}
}

// writeString writes a string literal's raw text between quotes. The text
// keeps its backslash escapes, so only an unescaped '"' forces single quotes.
func writeString(b *strings.Builder, raw string) {
	quote := byte('"')
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' {
			i++
			continue
		}
		if raw[i] == '"' {
			quote = '\''
			break
		}
	}
	b.WriteByte(quote)
	b.WriteString(raw)
	b.WriteByte(quote)
}

// Dump writes an indented tree of the statement for debugging.
func (c *Context) Dump(w io.Writer, s Stmt) {
	d := dumper{c: c, w: w}
	d.stmt(s)
}

type dumper struct {
	c     *Context
	w     io.Writer
	depth int
}

func (d *dumper) line(format string, args ...any) {
	_, _ = fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", d.depth), fmt.Sprintf(format, args...))
}

func (d *dumper) nest(fn func()) {
	d.depth++
	fn()
	d.depth--
}

func (d *dumper) stmt(s Stmt) {
	span := s.Span()
	switch s := s.(type) {
	case *SelectStmt:
		d.line("Select [%d,%d) from=%s", span.Begin, span.End, s.From.Name)
		d.nest(func() {
			if len(s.Items) == 0 {
				d.line("Star")
			}
			for _, it := range s.Items {
				d.expr(it)
			}
			d.where(s.Where)
			for _, o := range s.OrderBy {
				dir := "ASC"
				if o.Desc {
					dir = "DESC"
				}
				d.line("OrderBy %s %s", o.Column.Name, dir)
			}
		})
	case *InsertStmt:
		d.line("Insert [%d,%d) table=%s", span.Begin, span.End, s.Table.Name)
		d.nest(func() {
			for _, v := range s.Values {
				d.expr(v)
			}
		})
	case *UpdateStmt:
		d.line("Update [%d,%d) table=%s", span.Begin, span.End, s.Table.Name)
		d.nest(func() {
			for _, a := range s.Assignments {
				d.line("Set %s", a.Column.Name)
				d.nest(func() { d.expr(a.Value) })
			}
			d.where(s.Where)
		})
	case *DeleteStmt:
		d.line("Delete [%d,%d) table=%s", span.Begin, span.End, s.Table.Name)
		d.nest(func() { d.where(s.Where) })
	default:
		panic(fmt.Sprintf("ast: unknown statement type %T", s))
	}
}

func (d *dumper) where(r ExprRef) {
	if !r.Valid() {
		return
	}
	d.line("Where")
	d.nest(func() { d.expr(r) })
}

func (d *dumper) expr(r ExprRef) {
	e := d.c.Expr(r)
	span := e.Span()
	switch e := e.(type) {
	case *BinaryExpr:
		d.line("Binary %s [%d,%d)", e.Op, span.Begin, span.End)
		d.nest(func() {
			d.expr(e.LHS)
			d.expr(e.RHS)
		})
	case *UnaryExpr:
		d.line("Unary %s [%d,%d)", e.Op, span.Begin, span.End)
		d.nest(func() { d.expr(e.Operand) })
	case *IntLiteral:
		d.line("Int %d [%d,%d)", e.Value, span.Begin, span.End)
	case *FloatLiteral:
		d.line("Float %g [%d,%d)", e.Value, span.Begin, span.End)
	case *StringLiteral:
		d.line("String %q [%d,%d)", e.Value, span.Begin, span.End)
	case *Identifier:
		d.line("Ident %s [%d,%d)", e.Name, span.Begin, span.End)
	case *CallExpr:
		d.line("Call %s [%d,%d)", e.Callee.Name, span.Begin, span.End)
		d.nest(func() {
			for _, a := range e.Args {
				d.expr(a)
			}
		})
	default:
		panic(fmt.Sprintf("ast: unknown expression type %T", e))
	}
}
