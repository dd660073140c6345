// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package acquire sequences the AS7262 and BH1750 sensors into one CSV
// stream.
//
// The loop owns both sensor handles for its whole lifetime. Each cycle
// triggers a spectral measurement, polls for completion, reads the six
// channels and temperature as one batch plus the light sensor's latest lux
// value, emits a single CSV line and paces itself before the next cycle.
// There is exactly one control thread; suspension happens only in the
// data-ready poll and the end of cycle pacing.
package acquire

import (
	"context"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/lightwell/spectralog/as726x"
	"github.com/lightwell/spectralog/bh1750"
)

// SpectralSensor is the polled-completion contract the loop requires from
// the spectral sensor: an explicit trigger, a completion flag, and a batch
// read of the six channels plus the paired device temperature.
type SpectralSensor interface {
	StartMeasurement() error
	DataReady() (bool, error)
	ReadSpectrum(*as726x.Spectrum) error
	Temperature() (physic.Temperature, error)
}

// LightSensor is the continuous-sampling contract the loop requires from
// the illuminance sensor. Lux returns the latest internally computed value
// and never blocks on a conversion.
type LightSensor interface {
	Lux() (float64, error)
}

// Ensure the real drivers satisfy the loop contracts.
var _ SpectralSensor = (*as726x.Dev)(nil)
var _ LightSensor = (*bh1750.Dev)(nil)

// Opts holds the timing options for the loop.
type Opts struct {
	// PollInterval is the pause between data-ready polls while a spectral
	// measurement is integrating.
	PollInterval time.Duration
	// PaceInterval is the hold between the end of one cycle and the start
	// of the next. It bounds the sampling rate.
	PaceInterval time.Duration
}

// DefaultOpts holds the default timing options.
var DefaultOpts = Opts{
	PollInterval: 5 * time.Millisecond,
	PaceInterval: time.Second,
}

// Loop is the acquisition loop. Create one with Setup for real hardware or
// New when supplying the sensors directly.
type Loop struct {
	spectral SpectralSensor
	light    LightSensor
	out      io.Writer
	opts     Opts
	// Line buffer reused across cycles. A record is fully formatted before
	// the single Write that emits it, so values can never straddle cycles.
	buf []byte
}

// New returns a loop reading from the given sensors and emitting CSV lines
// on out. The Opts can be nil.
func New(spectral SpectralSensor, light LightSensor, out io.Writer, opts *Opts) *Loop {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultOpts.PollInterval
	}
	if o.PaceInterval <= 0 {
		o.PaceInterval = DefaultOpts.PaceInterval
	}
	return &Loop{
		spectral: spectral,
		light:    light,
		out:      out,
		opts:     o,
		buf:      make([]byte, 0, 64),
	}
}

// Setup initializes both sensors on the bus in power-on order and returns
// the ready loop. Diagnostics go to out, the same stream the CSV lines will
// use, and are only ever written here: once Setup returns, out carries
// nothing but records.
//
// A sensor that fails to respond is a terminal fault. Setup writes the
// failure diagnostic, stops immediately and returns the error; it is the
// caller's decision to halt for good. No retry is attempted.
func Setup(b i2c.Bus, out io.Writer, opts *Opts) (*Loop, error) {
	spectral, err := as726x.NewI2C(b, nil)
	if err != nil {
		fmt.Fprintln(out, "Error: could not connect to AS7262 (check wiring).")
		return nil, fmt.Errorf("acquire: AS7262: %w", err)
	}

	light, err := bh1750.NewI2C(b, bh1750.DefaultAddress, bh1750.ContinuousHighRes)
	if err != nil {
		fmt.Fprintln(out, "Error: could not initialize BH1750 (check wiring).")
		return nil, fmt.Errorf("acquire: BH1750: %w", err)
	}
	fmt.Fprintln(out, "BH1750 ready")

	fmt.Fprintln(out, "Sensors initialized. Starting measurements...")
	return New(spectral, light, out, opts), nil
}

// Run executes measurement cycles until ctx is canceled or a sensor or
// writer fails. Cancellation returns ctx.Err(); any other error is fatal to
// the loop and reported to the caller. Run never skips or retries a cycle.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.cycle(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.opts.PaceInterval):
		}
	}
}

// cycle performs one trigger, wait, read, emit sequence.
func (l *Loop) cycle(ctx context.Context) error {
	if err := l.spectral.StartMeasurement(); err != nil {
		return err
	}

	// Block until the sensor reports the batch is consistent. There is
	// deliberately no timeout: an unresponsive sensor stalls the cycle
	// rather than emitting a record from a measurement still in progress.
	for {
		ready, err := l.spectral.DataReady()
		if err != nil {
			return err
		}
		if ready {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.opts.PollInterval):
		}
	}

	var rec Record
	if err := l.spectral.ReadSpectrum(&rec.Spectrum); err != nil {
		return err
	}
	t, err := l.spectral.Temperature()
	if err != nil {
		return err
	}
	rec.Temperature = uint8((t - physic.ZeroCelsius) / physic.Celsius)
	lux, err := l.light.Lux()
	if err != nil {
		return err
	}
	rec.Lux = lux

	l.buf = rec.AppendCSV(l.buf[:0])
	l.buf = append(l.buf, '\n')
	_, err = l.out.Write(l.buf)
	return err
}
