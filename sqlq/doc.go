// Package sqlq builds parameterized PostgreSQL queries from immutable value
// types. Every builder method returns a new value, so partial queries can be
// shared and extended without aliasing; SQL() renders the statement with $N
// placeholders and the bound arguments in order.
//
//	q := sqlq.New(sqlq.Table("u", "users")).
//		Select("u.id", "u.name").
//		Where(sqlq.Eq("u.org_id", orgID), sqlq.IsNull("u.deleted_at")).
//		OrderBy("-u.created_at").
//		Limit(20)
//
//	sql, args, err := q.SQL()
//	rows, err := pool.Query(ctx, sql, args...)
//
// Conditions compose with And, Or, and Not; a Query used as a condition value
// renders as a subquery sharing the same placeholder sequence. Common table
// expressions, unions, and recursive CTEs are built with With, Union, and
// WithRecursive.
package sqlq
