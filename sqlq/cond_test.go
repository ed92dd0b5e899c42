package sqlq_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionstack/fusion/sqlq"
)

func whereSQL(t *testing.T, conds ...sqlq.Cond) (string, []any) {
	t.Helper()

	sql, args, err := sqlq.New(sqlq.Table("u", "user")).Where(conds...).SQL()
	require.NoError(t, err)
	return sql, args
}

func TestCond_Comparisons(t *testing.T) {
	t.Run("equality and ordering", func(t *testing.T) {
		t.Parallel()

		sql, args := whereSQL(t,
			sqlq.Eq("u.name", "John"),
			sqlq.Gt("u.age", 18),
			sqlq.Lte("u.logins", 100),
		)
		assert.Equal(t, []any{"John", 18, 100}, args)
		assert.Contains(t, sql, `WHERE "u"."name" = $1 AND "u"."age" > $2 AND "u"."logins" <= $3`)
	})

	t.Run("column on both sides", func(t *testing.T) {
		t.Parallel()

		sql, args := whereSQL(t, sqlq.Gte("u.updated_at", sqlq.Expr(`"u"."created_at"`)))
		assert.Empty(t, args)
		assert.Contains(t, sql, `WHERE "u"."updated_at" >= "u"."created_at"`)
	})

	t.Run("pattern matching", func(t *testing.T) {
		t.Parallel()

		sql, args := whereSQL(t,
			sqlq.Contains("u.name", "oh"),
			sqlq.HasPrefix("u.email", "admin"),
			sqlq.HasSuffix("u.email", "@example.com"),
		)
		assert.Equal(t, []any{"oh", "admin", "@example.com"}, args)
		assert.Contains(t, sql, `"u"."name" LIKE '%' || $1 || '%'`)
		assert.Contains(t, sql, `"u"."email" LIKE $2 || '%'`)
		assert.Contains(t, sql, `"u"."email" LIKE '%' || $3`)
	})

	t.Run("between binds both bounds", func(t *testing.T) {
		t.Parallel()

		sql, args := whereSQL(t, sqlq.Between("u.age", 18, 65))
		assert.Equal(t, []any{18, 65}, args)
		assert.Contains(t, sql, `"u"."age" BETWEEN $1 AND $2`)
	})

	t.Run("null checks bind nothing", func(t *testing.T) {
		t.Parallel()

		sql, args := whereSQL(t, sqlq.IsNull("u.deleted_at"), sqlq.NotNull("u.email"))
		assert.Empty(t, args)
		assert.Contains(t, sql, `"u"."deleted_at" IS NULL AND "u"."email" IS NOT NULL`)
	})

	t.Run("unqualified column", func(t *testing.T) {
		t.Parallel()

		sql, _ := whereSQL(t, sqlq.Eq("name", "John"))
		assert.Contains(t, sql, `WHERE "name" = $1`)
	})
}

func TestCond_In(t *testing.T) {
	t.Run("typed lists cast the array", func(t *testing.T) {
		t.Parallel()

		sql, args := whereSQL(t, sqlq.In("u.id", []int{1, 2, 3}))
		assert.Equal(t, []any{[]int{1, 2, 3}}, args)
		assert.Contains(t, sql, `"u"."id" = any($1::int[])`)

		sql, _ = whereSQL(t, sqlq.In("u.name", []string{"a", "b"}))
		assert.Contains(t, sql, `"u"."name" = any($1::text[])`)

		sql, _ = whereSQL(t, sqlq.In("u.created_at", []time.Time{time.Now()}))
		assert.Contains(t, sql, `"u"."created_at" = any($1::timestamptz[])`)
	})

	t.Run("subquery membership", func(t *testing.T) {
		t.Parallel()

		orgs := sqlq.New(sqlq.Table("o", "org")).Select("o.id").Where(sqlq.Eq("o.active", true))

		sql, args := whereSQL(t, sqlq.In("u.org_id", orgs))
		assert.Equal(t, []any{true}, args)
		assert.Contains(t, sql, `WHERE "u"."org_id" IN (
  SELECT o.id
  FROM org AS "o"
  WHERE "o"."active" = $1
)`)
	})

	t.Run("unsupported element type fails", func(t *testing.T) {
		t.Parallel()

		_, _, err := sqlq.New(sqlq.Table("u", "user")).
			Where(sqlq.In("u.flags", []bool{true})).
			SQL()
		assert.ErrorContains(t, err, "unsupported values")
	})
}

func TestCond_Composition(t *testing.T) {
	t.Run("or wraps in parentheses", func(t *testing.T) {
		t.Parallel()

		sql, args := whereSQL(t, sqlq.Or(
			sqlq.Eq("u.name", "John"),
			sqlq.HasPrefix("u.name", "Jane"),
		))
		assert.Equal(t, []any{"John", "Jane"}, args)
		assert.Contains(t, sql, `WHERE ("u"."name" = $1 OR "u"."name" LIKE $2 || '%')`)
	})

	t.Run("nested and or not", func(t *testing.T) {
		t.Parallel()

		sql, args := whereSQL(t, sqlq.And(
			sqlq.Not(sqlq.IsNull("u.email")),
			sqlq.Or(sqlq.Eq("u.role", "admin"), sqlq.Eq("u.role", "owner")),
		))
		assert.Equal(t, []any{"admin", "owner"}, args)
		assert.Contains(t, sql, `WHERE (NOT ("u"."email" IS NULL) AND ("u"."role" = $1 OR "u"."role" = $2))`)
	})

	t.Run("single branch needs no parentheses", func(t *testing.T) {
		t.Parallel()

		sql, _ := whereSQL(t, sqlq.And(sqlq.Eq("u.name", "John")))
		assert.Contains(t, sql, `WHERE "u"."name" = $1`)
	})

	t.Run("empty junction fails", func(t *testing.T) {
		t.Parallel()

		_, _, err := sqlq.New(sqlq.Table("u", "user")).Where(sqlq.Or()).SQL()
		assert.ErrorContains(t, err, "at least one condition")
	})
}
