// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import "encoding/binary"

// controlEncoder is the control-command analogue of bulkEncoder. Unlike
// bulk frames, a control transfer's opcode travels in the USB request
// itself (see hantekusb.Transport.ControlWrite), so these buffers carry
// only the payload.
type controlEncoder interface {
	Bytes() []byte
}

// controlSetOffset carries the two channels' analog offset words plus
// the trigger-level word (which shares the same DAC on this hardware
// family), matching CONTROL_SETOFFSET's payload layout.
type controlSetOffset struct{ buf [6]byte }

func newControlSetOffset() *controlSetOffset { return &controlSetOffset{} }
func (c *controlSetOffset) Bytes() []byte    { return c.buf[:] }

func (c *controlSetOffset) SetChannel(channel int, v uint16) {
	binary.LittleEndian.PutUint16(c.buf[channel*2:channel*2+2], v)
}

func (c *controlSetOffset) SetTrigger(v uint16) {
	binary.LittleEndian.PutUint16(c.buf[4:6], v)
}

// relay bit positions within controlSetRelays' single status byte.
const (
	relayCH1Coupling = iota
	relayCH2Coupling
	relayCH1Below1V
	relayCH2Below1V
	relayCH1Below100mV
	relayCH2Below100mV
	relayExternalTrigger
)

// controlSetRelays packs per-channel coupling and gain-range relays plus
// the external-trigger relay into a single status byte.
type controlSetRelays struct{ buf [1]byte }

func newControlSetRelays() *controlSetRelays { return &controlSetRelays{} }
func (c *controlSetRelays) Bytes() []byte    { return c.buf[:] }

func (c *controlSetRelays) SetCoupling(channel int, coupling Coupling) {
	setBit(&c.buf[0], uint(relayCH1Coupling+channel), coupling == CouplingAC)
}

func (c *controlSetRelays) SetBelow1V(channel int, v bool) {
	setBit(&c.buf[0], uint(relayCH1Below1V+channel), v)
}

func (c *controlSetRelays) SetBelow100mV(channel int, v bool) {
	setBit(&c.buf[0], uint(relayCH1Below100mV+channel), v)
}

func (c *controlSetRelays) SetExternalTrigger(v bool) {
	setBit(&c.buf[0], relayExternalTrigger, v)
}

// controlSetVoltDiv is the 6022BE's per-channel gain divider control
// command; one instance each is bound to ControlSetVoltDivCH1/CH2.
type controlSetVoltDiv struct{ buf [1]byte }

func newControlSetVoltDiv() *controlSetVoltDiv { return &controlSetVoltDiv{} }
func (c *controlSetVoltDiv) Bytes() []byte     { return c.buf[:] }
func (c *controlSetVoltDiv) SetDiv(v byte)     { c.buf[0] = v }

// controlSetTimeDiv is the 6022BE's samplerate-divider control command.
type controlSetTimeDiv struct{ buf [1]byte }

func newControlSetTimeDiv() *controlSetTimeDiv { return &controlSetTimeDiv{} }
func (c *controlSetTimeDiv) Bytes() []byte     { return c.buf[:] }
func (c *controlSetTimeDiv) SetDiv(v byte)     { c.buf[0] = v }

// controlAcquireHardData carries no payload; on the 6022BE it stands in
// for BULK_GETDATA, since that model implements no bulk commands at
// all -- writing this control request kicks off the conversion the
// following bulk read then drains.
type controlAcquireHardData struct{}

func newControlAcquireHardData() *controlAcquireHardData { return &controlAcquireHardData{} }
func (c *controlAcquireHardData) Bytes() []byte           { return nil }
