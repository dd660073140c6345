// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package as726x controls an ams AS7262 six channel visible spectral sensor
// over I²C.
//
// The device measures light intensity in six wavelength bands centered at
// 450nm (violet), 500nm (blue), 550nm (green), 570nm (yellow), 600nm
// (orange) and 650nm (red). Measurements are started explicitly and polled
// for completion with DataReady(); the six raw channel counts are then read
// as a single batch along with the on-die temperature.
//
// The sensor does not expose its registers directly. All access goes through
// a three register virtual-register protocol (status, write, read) with
// TX/RX handshaking, which this package implements.
//
// Datasheet: https://ams.com/documents/20143/36005/AS7262_DS000486_2-00.pdf
package as726x
