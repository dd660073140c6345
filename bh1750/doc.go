// Copyright 2026 The Lightwell Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bh1750 controls a Rohm BH1750FVI ambient light sensor over I²C.
//
// The sensor measures illuminance from 1 to 65535 lx. In the continuous
// modes it samples on its own internal integration cycle and a read simply
// retrieves the latest value, so reads never block on a conversion. The one
// time modes perform a single conversion and power the device down again.
//
// Datasheet: https://www.mouser.com/datasheet/2/348/bh1750fvi-e-186247.pdf
package bh1750
