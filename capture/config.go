// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package capture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the capture session configuration.
type Config struct {
	// Port is the serial device to read from. Empty means autodetect.
	Port string `yaml:"port"`
	// Baud is the serial line rate. The firmware talks at 115200.
	Baud int `yaml:"baud"`
	// Output is the CSV file rows are appended to.
	Output string `yaml:"output"`
	// Label tags every captured row, e.g. "lamp_on" or "outdoor".
	Label string `yaml:"label"`
}

// Default returns a configuration with sensible values.
func Default() *Config {
	return &Config{
		Baud:   115200,
		Output: "readings.csv",
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()
	return cfg, nil
}

func (c *Config) ensureDefaults() {
	def := Default()
	if c.Baud == 0 {
		c.Baud = def.Baud
	}
	if c.Output == "" {
		c.Output = def.Output
	}
}
