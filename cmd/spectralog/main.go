// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// spectralog runs the AS7262 + BH1750 acquisition loop and emits one CSV
// line per measurement cycle, on stdout or a serial port.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/lightwell/spectralog/acquire"
)

func main() {
	busName := flag.String("bus", "", "I²C bus to use (default: first available)")
	serialPort := flag.String("serial", "", "serial port to emit on (default: stdout)")
	baud := flag.Int("baud", 115200, "serial line rate")
	ledPin := flag.String("led", "", "status indicator pin to configure as output")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := run(*busName, *serialPort, *baud, *ledPin); err != nil {
		log.Fatal().Err(err).Msg("spectralog stopped")
	}
}

func run(busName, serialPort string, baud int, ledPin string) error {
	if _, err := host.Init(); err != nil {
		return err
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return err
	}
	defer bus.Close()
	log.Debug().Str("bus", bus.String()).Msg("opened I²C bus")

	// The indicator pin is configured for output and left low. Nothing in
	// the loop drives it; it is available to external status wiring.
	if ledPin != "" {
		pin := gpioreg.ByName(ledPin)
		if pin == nil {
			return errors.New("no such pin: " + ledPin)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return err
		}
		log.Debug().Str("pin", pin.Name()).Msg("configured indicator pin")
	}

	var out io.Writer = os.Stdout
	if serialPort != "" {
		port, err := serial.Open(serialPort, &serial.Mode{BaudRate: baud})
		if err != nil {
			return err
		}
		defer port.Close()
		log.Debug().Str("port", serialPort).Int("baud", baud).Msg("opened serial port")
		out = port
	}

	loop, err := acquire.Setup(bus, out, nil)
	if err != nil {
		// The failure diagnostic has already gone to the output stream.
		// This is the fail-fast terminal state; only a restart recovers.
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("interrupted, shutting down")
		return nil
	}
	return err
}
