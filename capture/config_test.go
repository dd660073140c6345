// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Empty(t, cfg.Port)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, "readings.csv", cfg.Output)
	assert.Empty(t, cfg.Label)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectracap.yaml")
	content := `
port: /dev/ttyACM0
baud: 9600
output: /tmp/session.csv
label: lamp_off
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.Port)
	assert.Equal(t, 9600, cfg.Baud)
	assert.Equal(t, "/tmp/session.csv", cfg.Output)
	assert.Equal(t, "lamp_off", cfg.Label)
}

func TestLoad_PartialYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectracap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("label: outdoor\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "outdoor", cfg.Label)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, "readings.csv", cfg.Output)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spectracap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
