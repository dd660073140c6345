// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package capture

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{name: "valid", raw: "24,10,20,30,40,50,60,123.46", ok: true},
		{name: "valid with spaces", raw: " 24, 10,20,30,40,50,60,123.46 ", ok: true},
		{name: "blank", raw: "", ok: false},
		{name: "whitespace only", raw: "   ", ok: false},
		{name: "comment", raw: "# calibration run 3", ok: false},
		{name: "boot banner", raw: "Sensors initialized. Starting measurements...", ok: false},
		{name: "ready banner", raw: "BH1750 ready", ok: false},
		{name: "short line", raw: "24,10,20,30,40,50,60", ok: false},
		{name: "long line", raw: "24,10,20,30,40,50,60,123.46,7", ok: false},
		{name: "non numeric field", raw: "24,10,twenty,30,40,50,60,123.46", ok: false},
		{name: "truncated by reconnect", raw: "24,10,20,3", ok: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fields, ok := parseLine(test.raw)
			assert.Equal(t, test.ok, ok)
			if ok {
				assert.Len(t, fields, recordFields)
			}
		})
	}
}

func TestRun(t *testing.T) {
	input := strings.Join([]string{
		"BH1750 ready",
		"Sensors initialized. Starting measurements...",
		"",
		"# session start",
		"24,10,20,30,40,50,60,123.46",
		"24,11,21,31,41,51,61,124.01",
		"garbage,line",
		"25,12,22,32,42,52,62,125.00",
	}, "\n") + "\n"

	var out bytes.Buffer
	c, err := New(&out, "lamp_on", true)
	require.NoError(t, err)

	rows, err := c.Run(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, 3, c.Rows())

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "temp,violet,blue,green,yellow,orange,red,lux,label", lines[0])
	assert.Equal(t, "24,10,20,30,40,50,60,123.46,lamp_on", lines[1])
	assert.Equal(t, "25,12,22,32,42,52,62,125.00,lamp_on", lines[3])
}

func TestRunNoHeader(t *testing.T) {
	var out bytes.Buffer
	c, err := New(&out, "8", false)
	require.NoError(t, err)

	rows, err := c.Run(context.Background(), strings.NewReader("24,10,20,30,40,50,60,123.46\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
	assert.Equal(t, "24,10,20,30,40,50,60,123.46,8\n", out.String())
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	c, err := New(&out, "x", false)
	require.NoError(t, err)

	_, err = c.Run(ctx, strings.NewReader("24,10,20,30,40,50,60,1.00\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.csv")

	c, f, err := OpenFile(path, "run1")
	require.NoError(t, err)
	_, err = c.Run(context.Background(), strings.NewReader("24,10,20,30,40,50,60,1.00\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Reopening an existing file must append without a second header.
	c, f, err = OpenFile(path, "run2")
	require.NoError(t, err)
	_, err = c.Run(context.Background(), strings.NewReader("25,10,20,30,40,50,60,2.00\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "temp,violet,blue,green,yellow,orange,red,lux,label", lines[0])
	assert.Equal(t, "24,10,20,30,40,50,60,1.00,run1", lines[1])
	assert.Equal(t, "25,10,20,30,40,50,60,2.00,run2", lines[2])
}
