package sqlq

import (
	"errors"
	"fmt"
	"strings"
)

// Source is one entry in the FROM clause: a table, a subquery, or a join.
type Source struct {
	alias string
	table string
	query *Query
	join  *join
	err   error
}

type join struct {
	kind  string
	table string
	query *Query
	on    Cond
	using string
}

// Table adds a named table under an alias.
func Table(alias, name string) Source {
	return Source{alias: alias, table: name}
}

// Subquery adds a derived table under an alias.
func Subquery(alias string, q Query) Source {
	return Source{alias: alias, query: &q}
}

// JoinBuilder is a join missing its condition; On or Using completes it.
type JoinBuilder struct {
	kind  string
	alias string
	to    any
}

// Join starts an INNER JOIN with the table name or Query to join.
func Join(alias string, to any) JoinBuilder { return JoinBuilder{kind: "INNER", alias: alias, to: to} }

// LeftJoin starts a LEFT JOIN.
func LeftJoin(alias string, to any) JoinBuilder {
	return JoinBuilder{kind: "LEFT", alias: alias, to: to}
}

// RightJoin starts a RIGHT JOIN.
func RightJoin(alias string, to any) JoinBuilder {
	return JoinBuilder{kind: "RIGHT", alias: alias, to: to}
}

// FullJoin starts a FULL JOIN.
func FullJoin(alias string, to any) JoinBuilder {
	return JoinBuilder{kind: "FULL", alias: alias, to: to}
}

// On completes the join with an explicit condition.
func (j JoinBuilder) On(cond Cond) Source {
	return j.source(&join{kind: j.kind, on: cond})
}

// Using completes the join on a shared column name.
func (j JoinBuilder) Using(column string) Source {
	return j.source(&join{kind: j.kind, using: column})
}

// CrossJoin adds a CROSS JOIN, which carries no condition.
func CrossJoin(alias string, to any) Source {
	return JoinBuilder{kind: "CROSS", alias: alias, to: to}.source(&join{kind: "CROSS"})
}

func (j JoinBuilder) source(jn *join) Source {
	s := Source{alias: j.alias, join: jn}
	switch to := j.to.(type) {
	case string:
		jn.table = to
	case Query:
		jn.query = &to
	default:
		s.err = fmt.Errorf("invalid join source: %T", j.to)
	}
	return s
}

type selection struct {
	alias  string
	column string
}

// Query is an immutable SELECT statement under construction. The zero value
// is not usable; start with New.
type Query struct {
	sources    []Source
	selections []selection
	conds      []Cond
	groupBys   []string
	orderBys   []string
	limit      *int
	offset     *int
	distinct   *string
	err        error
}

// New starts a query over one or more data sources.
func New(sources ...Source) Query {
	q := Query{sources: sources}
	if len(sources) == 0 {
		q.err = errors.New("at least one data source is required")
	}
	for _, s := range sources {
		if s.err != nil {
			return q.withErr(s.err)
		}
	}
	return q
}

// withErr records the first construction error; SQL reports it.
func (q Query) withErr(err error) Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// Select appends columns to the SELECT clause. Without any selection the
// query selects *.
func (q Query) Select(columns ...string) Query {
	sel := copySlice(q.selections, len(columns))
	for _, column := range columns {
		sel = append(sel, selection{column: column})
	}
	q.selections = sel
	return q
}

// SelectAs appends one aliased selection, rendered as `expr "alias"`.
func (q Query) SelectAs(alias, column string) Query {
	sel := copySlice(q.selections, 1)
	q.selections = append(sel, selection{alias: alias, column: column})
	return q
}

// Where appends conditions; all must hold.
func (q Query) Where(conds ...Cond) Query {
	c := copySlice(q.conds, len(conds))
	q.conds = append(c, conds...)
	return q
}

// GroupBy appends columns to the GROUP BY clause.
func (q Query) GroupBy(columns ...string) Query {
	g := copySlice(q.groupBys, len(columns))
	q.groupBys = append(g, columns...)
	return q
}

// OrderBy appends columns to the ORDER BY clause. A leading minus orders
// descending: "-created_at" renders as "created_at DESC".
func (q Query) OrderBy(columns ...string) Query {
	o := copySlice(q.orderBys, len(columns))
	q.orderBys = append(o, columns...)
	return q
}

// Limit caps the number of returned rows. The value binds as a parameter.
func (q Query) Limit(limit int) Query {
	if limit < 0 {
		return q.withErr(errors.New("limit must not be negative"))
	}
	q.limit = &limit
	return q
}

// Offset skips rows before returning. The value binds as a parameter.
func (q Query) Offset(offset int) Query {
	if offset < 0 {
		return q.withErr(errors.New("offset must not be negative"))
	}
	q.offset = &offset
	return q
}

// Distinct deduplicates returned rows.
func (q Query) Distinct() Query {
	on := ""
	q.distinct = &on
	return q
}

// DistinctOn keeps the first row per value of the given expression.
func (q Query) DistinctOn(on string) Query {
	q.distinct = &on
	return q
}

// SQL renders the statement with $N placeholders and returns the bound
// arguments in placeholder order.
func (q Query) SQL() (string, []any, error) {
	b := &binder{}
	s, err := q.render(b)
	if err != nil {
		return "", nil, err
	}
	return s, b.args, nil
}

func (q Query) render(b *binder) (string, error) {
	if q.err != nil {
		return "", q.err
	}

	var sb strings.Builder

	switch {
	case q.distinct == nil:
		sb.WriteString("SELECT ")
	case *q.distinct == "":
		sb.WriteString("SELECT DISTINCT ")
	default:
		sb.WriteString("SELECT DISTINCT ON(" + *q.distinct + ") ")
	}

	if len(q.selections) == 0 {
		sb.WriteString("*")
	} else {
		for i, sel := range q.selections {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(sel.column)
			if sel.alias != "" {
				sb.WriteString(` "` + sel.alias + `"`)
			}
		}
	}

	from, err := q.renderFrom(b)
	if err != nil {
		return "", err
	}
	sb.WriteString(from)

	if len(q.conds) > 0 {
		sb.WriteString("\nWHERE ")
		for i, cond := range q.conds {
			if i > 0 {
				sb.WriteString(" AND ")
			}
			part, err := cond.render(b)
			if err != nil {
				return "", err
			}
			sb.WriteString(part)
		}
	}

	if len(q.groupBys) > 0 {
		sb.WriteString("\nGROUP BY " + strings.Join(q.groupBys, ", "))
	}

	if len(q.orderBys) > 0 {
		orders := make([]string, len(q.orderBys))
		for i, column := range q.orderBys {
			if rest, ok := strings.CutPrefix(column, "-"); ok {
				orders[i] = rest + " DESC"
			} else {
				orders[i] = column
			}
		}
		sb.WriteString("\nORDER BY " + strings.Join(orders, ", "))
	}

	if q.limit != nil {
		v, err := b.bind(*q.limit)
		if err != nil {
			return "", err
		}
		sb.WriteString("\nLIMIT " + v)
	}
	if q.offset != nil {
		v, err := b.bind(*q.offset)
		if err != nil {
			return "", err
		}
		sb.WriteString("\nOFFSET " + v)
	}

	return sb.String(), nil
}

// renderFrom renders tables and subqueries comma-separated, then joins each
// on its own indented line.
func (q Query) renderFrom(b *binder) (string, error) {
	var tables, joins []string

	for _, src := range q.sources {
		if src.err != nil {
			return "", src.err
		}

		switch {
		case src.join != nil:
			rendered, err := renderJoin(src.alias, src.join, b)
			if err != nil {
				return "", err
			}
			joins = append(joins, indentLines(rendered, "  "))
		case src.query != nil:
			sub, err := src.query.render(b)
			if err != nil {
				return "", err
			}
			tables = append(tables, "(\n"+indentLines(sub, "  ")+"\n) AS \""+src.alias+`"`)
		default:
			tables = append(tables, src.table+` AS "`+src.alias+`"`)
		}
	}

	from := "\nFROM " + strings.Join(tables, ", ")
	for _, j := range joins {
		from += "\n" + j
	}
	return from, nil
}

func renderJoin(alias string, j *join, b *binder) (string, error) {
	var source string
	if j.query != nil {
		sub, err := j.query.render(b)
		if err != nil {
			return "", err
		}
		source = "(\n" + indentLines(sub, "  ") + "\n)"
	} else {
		source = j.table
	}

	head := j.kind + " JOIN " + source + ` AS "` + alias + `"`
	switch {
	case j.on != nil:
		cond, err := j.on.render(b)
		if err != nil {
			return "", err
		}
		return head + " ON (" + cond + ")", nil
	case j.using != "":
		return head + " USING (" + j.using + ")", nil
	default:
		if j.kind != "CROSS" {
			return "", fmt.Errorf("%s join is missing its condition", strings.ToLower(j.kind))
		}
		return head, nil
	}
}

// copySlice copies s with room for extra appended elements, so builder
// methods never alias a shared backing array.
func copySlice[T any](s []T, extra int) []T {
	out := make([]T, len(s), len(s)+extra)
	copy(out, s)
	return out
}
