// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package acquire

import (
	"strconv"

	"github.com/lightwell/spectralog/as726x"
)

// Record is one complete acquisition cycle: the device temperature and six
// spectral channels from a single completed AS7262 conversion, paired with
// the BH1750's lux value at read time. It is formatted once and discarded;
// nothing retains records across cycles.
type Record struct {
	// Whole degrees Celsius, the sensor's native unit.
	Temperature uint8
	Spectrum    as726x.Spectrum
	Lux         float64
}

// AppendCSV appends the record to b as one CSV line without a terminator:
// temperature, the six channels in wavelength order, then lux with exactly
// two decimals.
func (r *Record) AppendCSV(b []byte) []byte {
	b = strconv.AppendUint(b, uint64(r.Temperature), 10)
	for _, ch := range [6]uint16{
		r.Spectrum.Violet, r.Spectrum.Blue, r.Spectrum.Green,
		r.Spectrum.Yellow, r.Spectrum.Orange, r.Spectrum.Red,
	} {
		b = append(b, ',')
		b = strconv.AppendUint(b, uint64(ch), 10)
	}
	b = append(b, ',')
	return strconv.AppendFloat(b, r.Lux, 'f', 2, 64)
}

func (r *Record) String() string {
	return string(r.AppendCSV(nil))
}
