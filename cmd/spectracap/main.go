// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// spectracap captures the logger's serial CSV stream into a labeled CSV
// file for later analysis.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"

	"github.com/lightwell/spectralog/capture"
)

func main() {
	configPath := flag.String("config", "spectracap.yaml", "path to configuration file")
	port := flag.String("port", "", "serial port (overrides config; default: autodetect)")
	label := flag.String("label", "", "session label appended to every row (overrides config)")
	output := flag.String("out", "", "output CSV file (overrides config)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := capture.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *label != "" {
		cfg.Label = *label
	}
	if *output != "" {
		cfg.Output = *output
	}

	if cfg.Port == "" {
		cfg.Port, err = capture.DetectPort()
		if err != nil {
			log.Fatal().Err(err).Msg("no serial port")
		}
		log.Info().Str("port", cfg.Port).Msg("autodetected serial port")
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("capture stopped")
	}
}

func run(cfg *capture.Config) error {
	p, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.Baud})
	if err != nil {
		return err
	}
	defer p.Close()

	c, f, err := capture.OpenFile(cfg.Output, cfg.Label)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// Unblock the scanner when interrupted.
		<-ctx.Done()
		p.Close()
	}()

	log.Info().
		Str("port", cfg.Port).
		Int("baud", cfg.Baud).
		Str("output", cfg.Output).
		Str("label", cfg.Label).
		Msg("capturing, Ctrl+C to stop")

	rows, err := c.Run(ctx, p)
	if err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return err
	}
	log.Info().Int("rows", rows).Msg("capture finished")
	return nil
}
