package sqlq

import (
	"errors"
	"strings"
)

// Statement is any renderable SQL statement.
type Statement interface {
	SQL() (string, []any, error)
}

var (
	_ Statement = Query{}
	_ Statement = WithQuery{}
	_ Statement = UnionQuery{}
	_ Statement = RecursiveQuery{}
)

// NamedQuery pairs a common table expression with its alias.
type NamedQuery struct {
	alias string
	query Query
}

// CTE names a query for use in a WITH clause.
func CTE(alias string, q Query) NamedQuery {
	return NamedQuery{alias: alias, query: q}
}

// WithQuery is a main query prefixed by one or more common table expressions.
type WithQuery struct {
	main Query
	ctes []NamedQuery
	err  error
}

// With builds a WITH statement from the main query and its CTEs.
func With(main Query, ctes ...NamedQuery) WithQuery {
	w := WithQuery{main: main, ctes: ctes}
	if len(ctes) == 0 {
		w.err = errors.New("at least one common table expression is required")
	}
	return w
}

// SQL renders the WITH statement.
func (w WithQuery) SQL() (string, []any, error) {
	if w.err != nil {
		return "", nil, w.err
	}

	b := &binder{}
	parts := make([]string, len(w.ctes))
	for i, cte := range w.ctes {
		sub, err := cte.query.render(b)
		if err != nil {
			return "", nil, err
		}
		parts[i] = `"` + cte.alias + "\" AS (\n" + indentLines(sub, "  ") + "\n)"
	}

	main, err := w.main.render(b)
	if err != nil {
		return "", nil, err
	}

	return "WITH " + strings.Join(parts, ",\n") + "\n" + main, b.args, nil
}

// UnionQuery combines queries with UNION or UNION ALL.
type UnionQuery struct {
	queries []Query
	all     bool
	err     error
}

// Union combines queries, deduplicating rows.
func Union(queries ...Query) UnionQuery {
	return newUnion(queries, false)
}

// UnionAll combines queries, keeping duplicate rows.
func UnionAll(queries ...Query) UnionQuery {
	return newUnion(queries, true)
}

func newUnion(queries []Query, all bool) UnionQuery {
	u := UnionQuery{queries: queries, all: all}
	if len(queries) < 2 {
		u.err = errors.New("a union requires at least two queries")
	}
	return u
}

// SQL renders the union.
func (u UnionQuery) SQL() (string, []any, error) {
	b := &binder{}
	s, err := u.render(b)
	if err != nil {
		return "", nil, err
	}
	return s, b.args, nil
}

func (u UnionQuery) render(b *binder) (string, error) {
	if u.err != nil {
		return "", u.err
	}

	op := "\nUNION\n"
	if u.all {
		op = "\nUNION ALL\n"
	}

	parts := make([]string, len(u.queries))
	for i, q := range u.queries {
		sub, err := q.render(b)
		if err != nil {
			return "", err
		}
		parts[i] = indentLines(sub, "  ")
	}
	return strings.Join(parts, op), nil
}

// RecursiveQuery is a main query over a recursive common table expression
// whose body is a union of the base case and the recursive step.
type RecursiveQuery struct {
	alias string
	base  UnionQuery
	main  Query
}

// WithRecursive builds a WITH RECURSIVE statement. The union's first query is
// the base case; subsequent queries reference the alias.
func WithRecursive(alias string, base UnionQuery, main Query) RecursiveQuery {
	return RecursiveQuery{alias: alias, base: base, main: main}
}

// SQL renders the recursive statement.
func (r RecursiveQuery) SQL() (string, []any, error) {
	b := &binder{}

	base, err := r.base.render(b)
	if err != nil {
		return "", nil, err
	}

	main, err := r.main.render(b)
	if err != nil {
		return "", nil, err
	}

	s := `WITH RECURSIVE "` + r.alias + "\" AS (\n" + indentLines(base, "  ") + "\n)\n" + main
	return s, b.args, nil
}
