// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bh1750

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// Mode is a BH1750 measurement mode.
type Mode byte

const (
	// ContinuousHighRes measures repeatedly at 1 lx resolution.
	ContinuousHighRes Mode = 0x10
	// ContinuousHighRes2 measures repeatedly at 0.5 lx resolution.
	ContinuousHighRes2 Mode = 0x11
	// ContinuousLowRes measures repeatedly at 4 lx resolution.
	ContinuousLowRes Mode = 0x13
	// OneTimeHighRes performs a single 1 lx measurement and powers down.
	OneTimeHighRes Mode = 0x20
	// OneTimeHighRes2 performs a single 0.5 lx measurement and powers down.
	OneTimeHighRes2 Mode = 0x21
	// OneTimeLowRes performs a single 4 lx measurement and powers down.
	OneTimeLowRes Mode = 0x23
)

const (
	// DefaultAddress is the device address with the ADDR pin low.
	DefaultAddress uint16 = 0x23
	// AltAddress is the device address with the ADDR pin high.
	AltAddress uint16 = 0x5C

	cmdPowerDown byte = 0x00
	cmdPowerOn   byte = 0x01
	cmdReset     byte = 0x07

	// Measurement time register bounds and default, per datasheet.
	MinMeasurementTime     byte = 31
	MaxMeasurementTime     byte = 254
	defaultMeasurementTime byte = 69

	// Counts per lux at the default measurement time.
	countsPerLux = 1.2
)

func (m Mode) String() string {
	switch m {
	case ContinuousHighRes:
		return "continuous high res"
	case ContinuousHighRes2:
		return "continuous high res mode 2"
	case ContinuousLowRes:
		return "continuous low res"
	case OneTimeHighRes:
		return "one time high res"
	case OneTimeHighRes2:
		return "one time high res mode 2"
	case OneTimeLowRes:
		return "one time low res"
	}
	return fmt.Sprintf("invalid mode 0x%02x", byte(m))
}

func (m Mode) valid() bool {
	switch m {
	case ContinuousHighRes, ContinuousHighRes2, ContinuousLowRes,
		OneTimeHighRes, OneTimeHighRes2, OneTimeLowRes:
		return true
	}
	return false
}

// Dev represents a BH1750 device.
type Dev struct {
	d    *i2c.Dev
	mu   sync.Mutex
	mode Mode
	mt   byte
}

// NewI2C returns an object that communicates over I²C to a BH1750 light
// sensor, powered on and set to measure in the given mode. Use
// DefaultAddress unless the ADDR pin is pulled high.
func NewI2C(b i2c.Bus, addr uint16, mode Mode) (*Dev, error) {
	if !mode.valid() {
		return nil, fmt.Errorf("bh1750: %s", mode)
	}
	d := &Dev{
		d:    &i2c.Dev{Bus: b, Addr: addr},
		mode: mode,
		mt:   defaultMeasurementTime,
	}
	if err := d.d.Tx([]byte{cmdPowerOn}, nil); err != nil {
		return nil, fmt.Errorf("bh1750: power on: %w", err)
	}
	if err := d.d.Tx([]byte{byte(mode)}, nil); err != nil {
		return nil, fmt.Errorf("bh1750: set mode: %w", err)
	}
	return d, nil
}

// Lux returns the current illuminance in lux. In the continuous modes this
// is the latest value from the sensor's internal sampling cycle and the
// call does not block. In the one time modes the device is woken and a new
// conversion started for the next read.
func (d *Dev) Lux() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := make([]byte, 2)
	if err := d.d.Tx(nil, r); err != nil {
		return 0, fmt.Errorf("bh1750: read level: %w", err)
	}
	raw := uint16(r[0])<<8 | uint16(r[1])

	lux := float64(raw) / countsPerLux
	if d.mt != defaultMeasurementTime {
		lux *= float64(defaultMeasurementTime) / float64(d.mt)
	}
	if d.mode == ContinuousHighRes2 || d.mode == OneTimeHighRes2 {
		lux /= 2
	}

	// One time modes power the device down after the conversion. Re-arm so
	// the next read returns fresh data.
	if d.mode&0x20 != 0 {
		if err := d.d.Tx([]byte{byte(d.mode)}, nil); err != nil {
			return 0, fmt.Errorf("bh1750: rearm: %w", err)
		}
	}
	return lux, nil
}

// SetMeasurementTime adjusts the MTreg sensitivity register. Larger values
// extend the integration window, trading range for resolution. mt must be
// within [MinMeasurementTime, MaxMeasurementTime]; the power on default
// is 69. Lux() compensates for the changed scale.
func (d *Dev) SetMeasurementTime(mt byte) error {
	if mt < MinMeasurementTime || mt > MaxMeasurementTime {
		return fmt.Errorf("bh1750: measurement time %d out of range [%d, %d]",
			mt, MinMeasurementTime, MaxMeasurementTime)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	// High 3 bits then low 5 bits, each in its own command.
	if err := d.d.Tx([]byte{0x40 | mt>>5}, nil); err != nil {
		return fmt.Errorf("bh1750: set measurement time: %w", err)
	}
	if err := d.d.Tx([]byte{0x60 | mt&0x1F}, nil); err != nil {
		return fmt.Errorf("bh1750: set measurement time: %w", err)
	}
	// The new window applies from the next conversion.
	if err := d.d.Tx([]byte{byte(d.mode)}, nil); err != nil {
		return fmt.Errorf("bh1750: set measurement time: %w", err)
	}
	d.mt = mt
	return nil
}

// Halt powers the device down. A subsequent measurement mode command wakes
// it again.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.d.Tx([]byte{cmdPowerDown}, nil); err != nil {
		return fmt.Errorf("bh1750: power down: %w", err)
	}
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("bh1750: %s", d.d.String())
}

// MeasurementTime returns the conversion window for the current mode and
// MTreg setting. Reads in continuous mode return data no fresher than this.
func (d *Dev) MeasurementTime() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	base := 120 * time.Millisecond
	if d.mode == ContinuousLowRes || d.mode == OneTimeLowRes {
		base = 16 * time.Millisecond
	}
	return base * time.Duration(d.mt) / time.Duration(defaultMeasurementTime)
}
