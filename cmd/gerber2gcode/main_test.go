package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newCLI().root()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInitThenConvert(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.toml")
	_, err := execute(t, "config", "init", cfg)
	require.NoError(t, err)

	_, err = execute(t, "config", "init", cfg)
	assert.Error(t, err, "existing file is kept without --force")
	_, err = execute(t, "config", "init", "--force", cfg)
	assert.NoError(t, err)

	script := filepath.Join(dir, "top.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`name: top
units: mm
pointsPerUnit: 10
width: 20
height: 20
steps:
  - op: circle
    x: 10
    y: 10
    radius: 4
`), 0o644))

	out, err := execute(t, "--config", cfg, "convert", "--out", dir, "--png", script)
	require.NoError(t, err)
	assert.Contains(t, out, "layer top")
	assert.FileExists(t, filepath.Join(dir, "top.nc"))
	assert.FileExists(t, filepath.Join(dir, "top.png"))
}

func TestConvert_MissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "config", "show")
	assert.Error(t, err)
}
