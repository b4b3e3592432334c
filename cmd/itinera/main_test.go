package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/pkg/config"
)

func TestRun(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	dir := t.TempDir()

	tempConfig := `
server:
    address: localhost:0
log:
    server:
        path: "` + filepath.Join(dir, "server.log") + `"
        level: "debug"
    requests:
        path: "` + filepath.Join(dir, "requests.log") + `"
    llm:
        path: "` + filepath.Join(dir, "planner.log") + `"
db:
    path: "` + filepath.Join(dir, "itinera.db") + `"
catalog:
    cache: sqlite
`
	cfgPath := filepath.Join(dir, "itinera.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(tempConfig), 0o644))

	// Startup must complete; the planner probe fails without a key but is optional.
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, run(ctx, cfgPath))
}

func TestInitCache_None(t *testing.T) {
	cfg := config.DefaultConfig()
	c, closeFn, err := initCache(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, c)
	closeFn()
}

func TestInitResolver_BadOverlay(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Geometry.Gazetteer = filepath.Join(t.TempDir(), "missing.geojson")
	_, err := initResolver(cfg)
	assert.Error(t, err)

	cfg.Geometry.Gazetteer = ""
	res, err := initResolver(cfg)
	require.NoError(t, err)
	assert.NotNil(t, res)
}
