// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

// Package hantekusb provides the USB transport the hantek package
// drives its command codecs and decode pipeline through. It mirrors
// the shape of usb1608fsplus.DAQer in the mccdaq package this project
// was built from: a narrow interface hides the libusb device/handle
// pair so the engine can be exercised against a fake in tests.
package hantekusb

// Error codes a Transport method may return in place of a non-negative
// byte count. These are the "fixed small set" the engine's acquisition
// controller distinguishes between: ErrIO is retried next tick, ErrNoDevice
// is fatal.
const (
	ErrIO       = -1
	ErrNoDevice = -2
)

// Transport abstracts the USB bulk and control endpoints a Hantek DSO
// exposes, plus the handful of device-identity queries the engine needs
// at initialization. Concrete implementations wrap gotmc/libusb (see
// libusb.go); tests use a fake that satisfies this interface directly.
type Transport interface {
	// BulkCommand writes buf to the bulk OUT endpoint, retrying up to
	// retries times on a transient error. Returns the byte count written
	// or a negative error code.
	BulkCommand(buf []byte, retries int) (int, error)

	// BulkRead reads into buf from the bulk IN endpoint, returning the
	// byte count read or a negative error code.
	BulkRead(buf []byte) (int, error)

	// BulkReadMulti issues however many bulk reads are required to fill
	// length bytes into buf, returning the total byte count read.
	BulkReadMulti(buf []byte, length int) (int, error)

	// ControlRead issues a control IN transfer for the given control
	// opcode, decoding into buf up to length bytes. value carries the
	// wValue field (used for the CONTROL_VALUE/VALUE_OFFSETLIMITS
	// calibration read).
	ControlRead(op int, buf []byte, length int, value uint16) (int, error)

	// ControlWrite issues a control OUT transfer for the given control
	// opcode with buf as its payload.
	ControlWrite(op int, buf []byte) (int, error)

	// GetUniqueModelID returns the device's USB product ID. The engine
	// does not resolve this to a Model itself; callers are expected to
	// know which Model they connected to and pass it to hantek.New.
	GetUniqueModelID() (uint16, error)

	// GetPacketSize returns the bulk endpoint's max packet size, used by
	// the roll-mode decode path to size its read.
	GetPacketSize() int

	// IsConnected reports whether the underlying device handle is still
	// valid.
	IsConnected() bool

	// Disconnect releases the underlying device handle.
	Disconnect() error
}
