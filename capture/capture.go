// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package capture appends the firmware's serial CSV stream to a labeled
// CSV file. It is the host side of the logger: the device emits one
// 8 field line per measurement cycle, capture validates each line, tags it
// with a session label and persists it.
package capture

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// header is written once when a fresh output file is created.
var header = []string{"temp", "violet", "blue", "green", "yellow", "orange", "red", "lux", "label"}

// recordFields is the field count of one device line, before the label.
const recordFields = 8

// Capture validates device lines and appends them to a CSV sink.
type Capture struct {
	w     *csv.Writer
	label string
	rows  int
}

// New returns a Capture appending labeled rows to w. Set writeHeader when w
// is a fresh file.
func New(w io.Writer, label string, writeHeader bool) (*Capture, error) {
	c := &Capture{w: csv.NewWriter(w), label: label}
	if writeHeader {
		if err := c.w.Write(header); err != nil {
			return nil, fmt.Errorf("capture: write header: %w", err)
		}
		c.w.Flush()
		if err := c.w.Error(); err != nil {
			return nil, fmt.Errorf("capture: write header: %w", err)
		}
	}
	return c, nil
}

// OpenFile returns a Capture appending to the named file, creating it with
// a header row when it does not exist yet, and the file for the caller to
// close.
func OpenFile(path, label string) (*Capture, *os.File, error) {
	_, err := os.Stat(path)
	fresh := os.IsNotExist(err)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("capture: open output: %w", err)
	}
	c, err := New(f, label, fresh)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return c, f, nil
}

// Run reads device lines from r until EOF, an unrecoverable read error, or
// ctx cancellation, and returns the number of rows captured. Blank lines,
// comment lines and lines that do not parse as exactly 8 numeric fields
// are dropped silently; the device boot banner and diagnostics fall out
// this way.
func (c *Capture) Run(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return c.rows, err
		}
		fields, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if err := c.append(fields); err != nil {
			return c.rows, err
		}
	}
	if err := scanner.Err(); err != nil {
		return c.rows, fmt.Errorf("capture: read: %w", err)
	}
	return c.rows, nil
}

// Rows returns the number of rows captured so far.
func (c *Capture) Rows() int {
	return c.rows
}

func (c *Capture) append(fields []string) error {
	row := append(fields, c.label)
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("capture: write row: %w", err)
	}
	// Flush per row so a power pull loses at most the line in flight.
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("capture: write row: %w", err)
	}
	c.rows++
	if c.rows%20 == 0 {
		log.Info().Int("rows", c.rows).Msg("samples captured")
	}
	return nil
}

// parseLine validates one raw device line. It reports ok only for exactly
// recordFields comma separated numeric values.
func parseLine(raw string) ([]string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return nil, false
	}
	fields := strings.Split(raw, ",")
	if len(fields) != recordFields {
		return nil, false
	}
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return nil, false
		}
		fields[i] = f
	}
	return fields, true
}

// DetectPort picks a serial port that looks like the logger. Ports with
// ACM or USB in the name are preferred, mirroring how the device shows up
// on Linux; otherwise the first available port is used.
func DetectPort() (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("capture: list serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("capture: no serial ports found")
	}
	for _, p := range ports {
		if strings.Contains(p, "ACM") || strings.Contains(p, "USB") {
			return p, nil
		}
	}
	return ports[0], nil
}
