package web_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusionstack/fusion/web"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := web.LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
		assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.IdleTimeout)
		assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("HTTP_ADDR", "127.0.0.1:9090")
		t.Setenv("HTTP_READ_TIMEOUT", "5s")

		cfg, err := web.LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:9090", cfg.Addr)
		assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	})

	t.Run("invalid duration fails", func(t *testing.T) {
		t.Setenv("HTTP_READ_TIMEOUT", "soon")

		_, err := web.LoadConfig()
		assert.Error(t, err)
	})
}
