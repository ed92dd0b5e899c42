package fusion_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionstack/fusion"
)

func TestScope(t *testing.T) {
	t.Run("string representation", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Application", fusion.Application.String())
		assert.Equal(t, "Request", fusion.Request.String())
		assert.Equal(t, "Transient", fusion.Transient.String())
		assert.Equal(t, "Unknown(99)", fusion.Scope(99).String())
	})

	t.Run("validity", func(t *testing.T) {
		t.Parallel()

		assert.True(t, fusion.Application.IsValid())
		assert.True(t, fusion.Transient.IsValid())
		assert.False(t, fusion.Scope(-1).IsValid())
		assert.False(t, fusion.Scope(3).IsValid())
	})

	t.Run("text round trip", func(t *testing.T) {
		t.Parallel()

		for _, scope := range []fusion.Scope{fusion.Application, fusion.Request, fusion.Transient} {
			text, err := scope.MarshalText()
			require.NoError(t, err)

			var back fusion.Scope
			require.NoError(t, back.UnmarshalText(text))
			assert.Equal(t, scope, back)
		}
	})

	t.Run("accepts lowercase text", func(t *testing.T) {
		t.Parallel()

		var s fusion.Scope
		require.NoError(t, s.UnmarshalText([]byte("request")))
		assert.Equal(t, fusion.Request, s)
	})

	t.Run("rejects unknown text", func(t *testing.T) {
		t.Parallel()

		var s fusion.Scope
		err := s.UnmarshalText([]byte("global"))

		var valueErr *fusion.ScopeValueError
		require.ErrorAs(t, err, &valueErr)
		assert.Equal(t, "global", valueErr.Value)
	})

	t.Run("json round trip", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(fusion.Request)
		require.NoError(t, err)
		assert.JSONEq(t, `"Request"`, string(data))

		var back fusion.Scope
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, fusion.Request, back)
	})
}
