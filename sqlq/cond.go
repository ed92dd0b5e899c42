package sqlq

import (
	"fmt"
	"strings"
	"time"
)

// Expr references a column or raw SQL expression where a bound value is
// expected, so comparisons can target another column instead of a parameter:
//
//	sqlq.Eq("t.id", sqlq.Expr(`"st"."link"`))
type Expr string

// Cond is one WHERE condition. Conditions are built with the comparison
// helpers (Eq, Gt, In, ...) and composed with And, Or, and Not.
type Cond interface {
	render(b *binder) (string, error)
}

// binder collects bound arguments and hands out their placeholders.
type binder struct {
	args []any
}

// bind turns a value into its SQL fragment: expressions render verbatim,
// queries render as parenthesized subqueries sharing this binder, everything
// else becomes the next $N placeholder.
func (b *binder) bind(value any) (string, error) {
	switch v := value.(type) {
	case Expr:
		return string(v), nil
	case Query:
		sub, err := v.render(b)
		if err != nil {
			return "", err
		}
		return "(\n" + indentLines(sub, "  ") + "\n)", nil
	default:
		b.args = append(b.args, value)
		return fmt.Sprintf("$%d", len(b.args)), nil
	}
}

// quoteColumn renders a column reference, quoting the optional table
// qualifier separately: "u.name" becomes "u"."name".
func quoteColumn(column string) string {
	if table, col, ok := strings.Cut(column, "."); ok {
		return `"` + table + `"."` + col + `"`
	}
	return `"` + column + `"`
}

type cmp struct {
	column string
	op     string
	value  any
}

func (c cmp) render(b *binder) (string, error) {
	v, err := b.bind(c.value)
	if err != nil {
		return "", err
	}
	return quoteColumn(c.column) + " " + c.op + " " + v, nil
}

// Eq matches rows where the column equals the value.
func Eq(column string, value any) Cond { return cmp{column, "=", value} }

// Gt matches rows where the column is greater than the value.
func Gt(column string, value any) Cond { return cmp{column, ">", value} }

// Gte matches rows where the column is greater than or equal to the value.
func Gte(column string, value any) Cond { return cmp{column, ">=", value} }

// Lt matches rows where the column is less than the value.
func Lt(column string, value any) Cond { return cmp{column, "<", value} }

// Lte matches rows where the column is less than or equal to the value.
func Lte(column string, value any) Cond { return cmp{column, "<=", value} }

type like struct {
	column string
	value  any
	prefix bool // match from the start
	suffix bool // match to the end
}

func (l like) render(b *binder) (string, error) {
	v, err := b.bind(l.value)
	if err != nil {
		return "", err
	}

	pattern := v
	if !l.prefix {
		pattern = "'%' || " + pattern
	}
	if !l.suffix {
		pattern = pattern + " || '%'"
	}
	return quoteColumn(l.column) + " LIKE " + pattern, nil
}

// Contains matches rows where the column contains the value as a substring.
func Contains(column string, value any) Cond { return like{column: column, value: value} }

// HasPrefix matches rows where the column starts with the value.
func HasPrefix(column string, value any) Cond {
	return like{column: column, value: value, prefix: true}
}

// HasSuffix matches rows where the column ends with the value.
func HasSuffix(column string, value any) Cond {
	return like{column: column, value: value, suffix: true}
}

type between struct {
	column     string
	start, end any
}

func (c between) render(b *binder) (string, error) {
	start, err := b.bind(c.start)
	if err != nil {
		return "", err
	}
	end, err := b.bind(c.end)
	if err != nil {
		return "", err
	}
	return quoteColumn(c.column) + " BETWEEN " + start + " AND " + end, nil
}

// Between matches rows where the column lies in the inclusive range.
func Between(column string, start, end any) Cond {
	return between{column: column, start: start, end: end}
}

type inCond struct {
	column string
	values any
}

func (c inCond) render(b *binder) (string, error) {
	// Subquery membership.
	if q, ok := c.values.(Query); ok {
		sub, err := b.bind(q)
		if err != nil {
			return "", err
		}
		return quoteColumn(c.column) + " IN " + sub, nil
	}

	// List membership binds the whole slice as one array parameter; the cast
	// tells Postgres the element type.
	var cast string
	switch c.values.(type) {
	case []int:
		cast = "int"
	case []int64:
		cast = "bigint"
	case []float64:
		cast = "float"
	case []string:
		cast = "text"
	case []time.Time:
		cast = "timestamptz"
	default:
		return "", fmt.Errorf("unsupported values for in condition: %T", c.values)
	}

	v, err := b.bind(c.values)
	if err != nil {
		return "", err
	}
	return quoteColumn(c.column) + " = any(" + v + "::" + cast + "[])", nil
}

// In matches rows where the column equals one of the values. Values may be a
// slice of int, int64, float64, string, or time.Time, or a Query rendered as
// a subquery.
func In(column string, values any) Cond { return inCond{column: column, values: values} }

type nullCond struct {
	column string
	isNull bool
}

func (c nullCond) render(*binder) (string, error) {
	if c.isNull {
		return quoteColumn(c.column) + " IS NULL", nil
	}
	return quoteColumn(c.column) + " IS NOT NULL", nil
}

// IsNull matches rows where the column is NULL.
func IsNull(column string) Cond { return nullCond{column: column, isNull: true} }

// NotNull matches rows where the column is not NULL.
func NotNull(column string) Cond { return nullCond{column: column} }

type junction struct {
	op    string
	conds []Cond
}

func (j junction) render(b *binder) (string, error) {
	if len(j.conds) == 0 {
		return "", fmt.Errorf("%s requires at least one condition", strings.ToLower(j.op))
	}

	parts := make([]string, len(j.conds))
	for i, cond := range j.conds {
		part, err := cond.render(b)
		if err != nil {
			return "", err
		}
		parts[i] = part
	}

	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " "+j.op+" ") + ")", nil
}

// And combines conditions so every one must hold.
func And(conds ...Cond) Cond { return junction{op: "AND", conds: conds} }

// Or combines conditions so at least one must hold.
func Or(conds ...Cond) Cond { return junction{op: "OR", conds: conds} }

type notCond struct {
	cond Cond
}

func (n notCond) render(b *binder) (string, error) {
	inner, err := n.cond.render(b)
	if err != nil {
		return "", err
	}
	return "NOT (" + inner + ")", nil
}

// Not negates a condition.
func Not(cond Cond) Cond { return notCond{cond: cond} }

// indentLines prefixes every line of s.
func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
