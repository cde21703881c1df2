package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/monsterbattle/internal/config"
	"github.com/cory-johannsen/monsterbattle/internal/game/battle"
	"github.com/cory-johannsen/monsterbattle/internal/scripting"
)

func standaloneConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.LoadFromViper(config.Defaults())
	require.NoError(t, err)
	return cfg
}

func TestInitApp_Standalone(t *testing.T) {
	cfg := standaloneConfig(t)
	cfg.API.Port = 18080

	a, cleanup, err := initApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, "0.0.0.0:18080", a.HTTP.Addr)
	assert.Nil(t, a.Backends.Health)

	w := httptest.NewRecorder()
	a.HTTP.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/moves", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"catalog":"faction"`)
}

func TestInitApp_InvalidRuleset(t *testing.T) {
	cfg := standaloneConfig(t)
	cfg.Battle.Ruleset = "chess"
	_, _, err := initApp(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestProvideChooser(t *testing.T) {
	cfg := standaloneConfig(t)
	logger := zaptest.NewLogger(t)
	src := provideSource(cfg, logger)

	c, cleanup, err := provideChooser(cfg, src, logger)
	require.NoError(t, err)
	cleanup()
	assert.IsType(t, &battle.RandomChooser{}, c)

	cfg.Decision.Kind = config.ChooserScript
	cfg.Decision.ScriptPath = filepath.Join("..", "..", "content", "scripts")
	c, cleanup, err = provideChooser(cfg, src, logger)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &scripting.Chooser{}, c)

	cfg.Decision.ScriptPath = t.TempDir()
	_, _, err = provideChooser(cfg, src, logger)
	assert.Error(t, err)
}

func TestProvideInterpreter_RequiresKey(t *testing.T) {
	cfg := standaloneConfig(t)
	assert.Nil(t, provideInterpreter(cfg, zaptest.NewLogger(t)))
	cfg.Decision.APIKey = "test-key"
	assert.NotNil(t, provideInterpreter(cfg, zaptest.NewLogger(t)))
}
