// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package as726x

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Gain is the sensor gain applied to all six channels.
type Gain byte

const (
	Gain1x  Gain = 0
	Gain4x  Gain = 1
	Gain16x Gain = 2
	Gain64x Gain = 3
)

// Current is the drive strength of the onboard illumination LED.
type Current byte

const (
	Current12mA5 Current = 0
	Current25mA  Current = 1
	Current50mA  Current = 2
	Current100mA Current = 3
)

const (
	// SensorAddress is the fixed I²C address of the AS726x family.
	SensorAddress uint16 = 0x49

	// Physical registers of the virtual register protocol.
	statusReg byte = 0x00
	writeReg  byte = 0x01
	readReg   byte = 0x02

	// Status register bits.
	txValid byte = 0x02
	rxValid byte = 0x01

	// Virtual registers.
	vregDeviceType   byte = 0x00
	vregHWVersion    byte = 0x01
	vregControlSetup byte = 0x04
	vregIntTime      byte = 0x05
	vregDeviceTemp   byte = 0x06
	vregLEDControl   byte = 0x07
	// Raw channel data. Big endian words, violet through red.
	vregRawBase byte = 0x08

	// CONTROL_SETUP bits.
	ctrlDataReady byte = 1 << 1
	ctrlBankShift       = 2
	ctrlGainShift       = 4
	ctrlReset     byte = 1 << 7

	// LED_CONTROL bits.
	ledDrvEnable   byte = 1 << 3
	ledDrvCurShift      = 4

	// BANK value selecting a single conversion of all six channels.
	bankOneShot byte = 3

	// The AS7262 reports 0x40 in the device type register.
	deviceType byte = 0x40

	// Integration time register unit.
	intTimeStep = 2800 * time.Microsecond

	// Pause between handshake polls of the status register.
	handshakeDelay = 5 * time.Millisecond
)

// Spectrum is one complete six channel measurement. The fields are raw
// 16-bit sensor counts in wavelength order. All six values always originate
// from the same conversion.
type Spectrum struct {
	Violet uint16
	Blue   uint16
	Green  uint16
	Yellow uint16
	Orange uint16
	Red    uint16
}

// Return the channel counts in string format.
func (s *Spectrum) String() string {
	return fmt.Sprintf("V: %d B: %d G: %d Y: %d O: %d R: %d",
		s.Violet, s.Blue, s.Green, s.Yellow, s.Orange, s.Red)
}

// Opts holds the configuration options for the device.
type Opts struct {
	// IntegrationTime is the conversion time programmed into the sensor,
	// rounded to the device's 2.8ms step. A one shot measurement takes
	// twice this long to complete.
	IntegrationTime time.Duration
	// Gain applied to all channels.
	Gain Gain
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	IntegrationTime: 140 * time.Millisecond,
	Gain:            Gain64x,
}

// Dev represents an AS726x device.
type Dev struct {
	d    *i2c.Dev
	opts Opts
	mu   sync.Mutex
	// Shadow of the CONTROL_SETUP virtual register. The device clears
	// DATA_RDY itself on a new conversion so only gain and bank bits are
	// authoritative here.
	control byte
	led     byte
}

// NewI2C returns an object that communicates over I²C to an AS7262 spectral
// sensor. The device is soft reset, its device type verified, and the
// integration time and gain from opts programmed. The Opts can be nil.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.IntegrationTime <= 0 {
		opts.IntegrationTime = DefaultOpts.IntegrationTime
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: SensorAddress}, opts: *opts}
	return d, d.start()
}

// start resets the device and programs the configuration from opts.
func (d *Dev) start() error {
	if err := d.virtualWrite(vregControlSetup, ctrlReset); err != nil {
		return fmt.Errorf("as726x: reset: %w", err)
	}
	// The device needs up to a second to come back after a soft reset.
	time.Sleep(time.Second)

	dt, err := d.virtualRead(vregDeviceType)
	if err != nil {
		return fmt.Errorf("as726x: device type: %w", err)
	}
	if dt != deviceType {
		return fmt.Errorf("as726x: unexpected device type 0x%x, want 0x%x", dt, deviceType)
	}

	if err := d.virtualWrite(vregIntTime, intTimeCount(d.opts.IntegrationTime)); err != nil {
		return fmt.Errorf("as726x: integration time: %w", err)
	}
	d.control = byte(d.opts.Gain) << ctrlGainShift
	if err := d.virtualWrite(vregControlSetup, d.control); err != nil {
		return fmt.Errorf("as726x: gain: %w", err)
	}
	return nil
}

// StartMeasurement triggers a single conversion of all six channels. It
// returns immediately; the sensor integrates internally. Poll DataReady()
// for completion.
func (d *Dev) StartMeasurement() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.control &^= ctrlDataReady
	if err := d.virtualWrite(vregControlSetup, d.control); err != nil {
		return fmt.Errorf("as726x: clear data ready: %w", err)
	}
	d.control = d.control&^(0x03<<ctrlBankShift) | bankOneShot<<ctrlBankShift
	if err := d.virtualWrite(vregControlSetup, d.control); err != nil {
		return fmt.Errorf("as726x: start measurement: %w", err)
	}
	return nil
}

// DataReady reports whether the conversion started by StartMeasurement has
// completed and the channel registers hold a consistent batch.
func (d *Dev) DataReady() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.virtualRead(vregControlSetup)
	if err != nil {
		return false, fmt.Errorf("as726x: data ready: %w", err)
	}
	return v&ctrlDataReady != 0, nil
}

// ReadSpectrum reads the six raw channel counts of the last completed
// conversion into s as one batch. Call it only after DataReady has reported
// true, otherwise the registers may hold values from a previous conversion.
func (d *Dev) ReadSpectrum(s *Spectrum) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var raw [6]uint16
	for ch := range raw {
		v, err := d.readChannel(byte(ch))
		if err != nil {
			return err
		}
		raw[ch] = v
	}
	s.Violet = raw[0]
	s.Blue = raw[1]
	s.Green = raw[2]
	s.Yellow = raw[3]
	s.Orange = raw[4]
	s.Red = raw[5]
	return nil
}

// Temperature returns the on-die temperature. The device reports whole
// degrees Celsius with 8 bit resolution.
func (d *Dev) Temperature() (physic.Temperature, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.virtualRead(vregDeviceTemp)
	if err != nil {
		return 0, fmt.Errorf("as726x: temperature: %w", err)
	}
	return physic.ZeroCelsius + physic.Temperature(v)*physic.Celsius, nil
}

// SetDrvLED switches the onboard illumination LED on or off.
func (d *Dev) SetDrvLED(on bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if on {
		d.led |= ledDrvEnable
	} else {
		d.led &^= ledDrvEnable
	}
	if err := d.virtualWrite(vregLEDControl, d.led); err != nil {
		return fmt.Errorf("as726x: led: %w", err)
	}
	return nil
}

// SetDrvLEDCurrent sets the drive strength of the illumination LED.
func (d *Dev) SetDrvLEDCurrent(c Current) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.led = d.led&^(0x03<<ledDrvCurShift) | byte(c)<<ledDrvCurShift
	if err := d.virtualWrite(vregLEDControl, d.led); err != nil {
		return fmt.Errorf("as726x: led current: %w", err)
	}
	return nil
}

// HWVersion returns the hardware version register of the device.
func (d *Dev) HWVersion() (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.virtualRead(vregHWVersion)
	if err != nil {
		return 0, fmt.Errorf("as726x: hw version: %w", err)
	}
	return v, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("as726x: %s", d.d.String())
}

// readChannel reads one big endian channel word. ch is the channel index in
// wavelength order, violet first.
func (d *Dev) readChannel(ch byte) (uint16, error) {
	hi, err := d.virtualRead(vregRawBase + ch*2)
	if err != nil {
		return 0, fmt.Errorf("as726x: channel %d: %w", ch, err)
	}
	lo, err := d.virtualRead(vregRawBase + ch*2 + 1)
	if err != nil {
		return 0, fmt.Errorf("as726x: channel %d: %w", ch, err)
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// readPhys reads one physical register.
func (d *Dev) readPhys(reg byte) (byte, error) {
	r := make([]byte, 1)
	if err := d.d.Tx([]byte{reg}, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

// writePhys writes one physical register.
func (d *Dev) writePhys(reg, val byte) error {
	return d.d.Tx([]byte{reg, val}, nil)
}

// virtualRead reads the virtual register reg using the status/write/read
// handshake: wait for the write buffer to drain, post the address, wait for
// the read buffer to fill, collect the value.
func (d *Dev) virtualRead(reg byte) (byte, error) {
	for {
		status, err := d.readPhys(statusReg)
		if err != nil {
			return 0, err
		}
		if status&rxValid != 0 {
			// Stale data from an earlier, interrupted exchange. Flush it.
			if _, err := d.readPhys(readReg); err != nil {
				return 0, err
			}
		}
		if status&txValid == 0 {
			break
		}
		time.Sleep(handshakeDelay)
	}
	if err := d.writePhys(writeReg, reg); err != nil {
		return 0, err
	}
	for {
		status, err := d.readPhys(statusReg)
		if err != nil {
			return 0, err
		}
		if status&rxValid != 0 {
			break
		}
		time.Sleep(handshakeDelay)
	}
	return d.readPhys(readReg)
}

// virtualWrite writes val to the virtual register reg. The address is
// posted with the high bit set to select a write cycle.
func (d *Dev) virtualWrite(reg, val byte) error {
	if err := d.waitTxClear(); err != nil {
		return err
	}
	if err := d.writePhys(writeReg, reg|0x80); err != nil {
		return err
	}
	if err := d.waitTxClear(); err != nil {
		return err
	}
	return d.writePhys(writeReg, val)
}

func (d *Dev) waitTxClear() error {
	for {
		status, err := d.readPhys(statusReg)
		if err != nil {
			return err
		}
		if status&txValid == 0 {
			return nil
		}
		time.Sleep(handshakeDelay)
	}
}

// intTimeCount converts an integration time to the device's register unit,
// clamped to the 8 bit range.
func intTimeCount(t time.Duration) byte {
	n := t / intTimeStep
	if n < 1 {
		n = 1
	}
	if n > 255 {
		n = 255
	}
	return byte(n)
}
