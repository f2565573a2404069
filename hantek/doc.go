// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package hantek drives the Hantek DSO-2090/2150/2250/5200/5200A/6022BE
// family of USB digital storage oscilloscopes. It encodes the per-model
// bulk and control commands, negotiates a realisable samplerate against
// each model's downsampler and record-length constraints, decodes raw
// ADC frames into calibrated voltages, and runs the periodic capture
// state machine that alternates between triggered block captures and
// continuous roll-mode streaming.
//
// The package talks to hardware through the Transport interface in the
// hantekusb subpackage; callers supply a concrete transport (libusb
// backed, or a fake for tests) when constructing a Controller.
package hantek
