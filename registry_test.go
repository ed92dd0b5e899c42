package fusion_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionstack/fusion"
)

type database struct{ dsn string }
type repository struct{ db *database }
type session struct{ user string }

func newDatabase() *database                 { return &database{dsn: "postgres://test"} }
func newRepository(db *database) *repository { return &repository{db: db} }
func newSession() *session                   { return &session{user: "anonymous"} }

func TestRegistry_Provide(t *testing.T) {
	t.Run("registers provider shapes", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Application(newDatabase))
		require.NoError(t, reg.Application(func(ctx context.Context) (*repository, error) {
			return nil, nil
		}))
		require.NoError(t, reg.Request(func() (*session, fusion.Cleanup, error) {
			return &session{}, nil, nil
		}))
	})

	t.Run("same provider twice is a no-op", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Application(newDatabase))
		require.NoError(t, reg.Application(newDatabase))
	})

	t.Run("different provider for same type fails", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Application(newDatabase))

		err := reg.Application(func() *database { return nil })
		var declErr *fusion.DeclarationError
		require.True(t, errors.As(err, &declErr))
		assert.ErrorIs(t, err, fusion.ErrAlreadyDeclared)
	})

	t.Run("rejects nil provider", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		err := reg.Application(nil)
		assert.ErrorIs(t, err, fusion.ErrProviderNil)
	})

	t.Run("rejects non-function provider", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		err := reg.Application(42)
		assert.ErrorIs(t, err, fusion.ErrProviderNotFunc)
	})

	t.Run("rejects provider without value return", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		err := reg.Application(func() {})
		assert.ErrorIs(t, err, fusion.ErrProviderNoValue)
	})

	t.Run("rejects misplaced context parameter", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		err := reg.Request(func(db *database, ctx context.Context) *session { return nil })
		var declErr *fusion.DeclarationError
		assert.True(t, errors.As(err, &declErr))
	})

	t.Run("rejects malformed cleanup signature", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		err := reg.Request(func() (*session, error, fusion.Cleanup) { return nil, nil, nil })
		var declErr *fusion.DeclarationError
		assert.True(t, errors.As(err, &declErr))
	})

	t.Run("sealed after build", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Application(newDatabase))

		_, err := reg.Build()
		require.NoError(t, err)

		err = reg.Application(newSession)
		assert.ErrorIs(t, err, fusion.ErrRegistrySealed)
	})

	t.Run("build runs once", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Application(newDatabase))

		container, err := reg.Build()
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, container.Close(context.Background())) })

		_, err = reg.Build()
		assert.ErrorIs(t, err, fusion.ErrRegistrySealed)
	})
}

func TestRegistry_Build(t *testing.T) {
	t.Run("links dependencies", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Application(newDatabase))
		require.NoError(t, reg.Application(newRepository))

		container, err := reg.Build()
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, container.Close(context.Background())) })

		decl := container.Declaration(typeOf[*repository]())
		require.NotNil(t, decl)
		require.Len(t, decl.Dependencies(), 1)
		assert.Equal(t, typeOf[*database](), decl.Dependencies()[0].Type)
	})

	t.Run("unknown dependency fails", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Application(newRepository)) // *database never declared

		_, err := reg.Build()
		assert.ErrorIs(t, err, fusion.ErrUnknownDependency)
	})

	t.Run("application depending on request scope fails", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Request(newSession))
		require.NoError(t, reg.Application(func(s *session) *database { return nil }))

		_, err := reg.Build()
		var conflict *fusion.ScopeConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, fusion.Application, conflict.TypeScope)
		assert.Equal(t, fusion.Request, conflict.DependencyScope)
	})

	t.Run("request depending on transient fails", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Transient(newDatabase))
		require.NoError(t, reg.Request(newRepository))

		_, err := reg.Build()
		var conflict *fusion.ScopeConflictError
		assert.True(t, errors.As(err, &conflict))
	})

	t.Run("transient may depend on anything", func(t *testing.T) {
		t.Parallel()

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Application(newDatabase))
		require.NoError(t, reg.Transient(newRepository))

		container, err := reg.Build()
		require.NoError(t, err)
		require.NoError(t, container.Close(context.Background()))
	})

	t.Run("direct cycle fails with both members", func(t *testing.T) {
		t.Parallel()

		type chicken struct{}
		type egg struct{}

		reg := fusion.NewRegistry()
		require.NoError(t, reg.Request(func(e *egg) *chicken { return nil }))
		require.NoError(t, reg.Request(func(c *chicken) *egg { return nil }))

		_, err := reg.Build()
		var cycleErr *fusion.CycleError
		require.True(t, errors.As(err, &cycleErr))
		require.Len(t, cycleErr.Members, 2)
		assert.Contains(t, err.Error(), "chicken")
		assert.Contains(t, err.Error(), "egg")
	})
}

func TestRegistry_Modules(t *testing.T) {
	t.Run("module registers grouped declarations", func(t *testing.T) {
		t.Parallel()

		storage := fusion.NewModule("storage",
			fusion.ProvideApplication(newDatabase),
			fusion.ProvideApplication(newRepository),
		)

		reg := fusion.NewRegistry()
		require.NoError(t, reg.AddModules(storage))

		container, err := reg.Build()
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, container.Close(context.Background())) })

		assert.NotNil(t, container.Declaration(typeOf[*database]()))
		assert.NotNil(t, container.Declaration(typeOf[*repository]()))
	})

	t.Run("module failure names the module", func(t *testing.T) {
		t.Parallel()

		broken := fusion.NewModule("broken",
			fusion.ProvideApplication(nil),
		)

		reg := fusion.NewRegistry()
		err := reg.AddModules(broken)

		var moduleErr *fusion.ModuleError
		require.True(t, errors.As(err, &moduleErr))
		assert.Equal(t, "broken", moduleErr.Module)
	})

	t.Run("modules nest", func(t *testing.T) {
		t.Parallel()

		inner := fusion.NewModule("inner", fusion.ProvideApplication(newDatabase))
		outer := fusion.NewModule("outer", inner, fusion.ProvideRequest(newSession))

		reg := fusion.NewRegistry()
		require.NoError(t, reg.AddModules(outer))
	})
}
