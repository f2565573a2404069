// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import "encoding/binary"

// bulkEncoder is the shared shape of every bulk command frame: a fixed
// byte buffer that Controller.flushBulk writes verbatim to the bulk OUT
// endpoint. Per the design notes, per-model differences are runtime
// switches on the BulkCode stored in a model's CommandBinding, not
// polymorphic subclasses of bulkEncoder -- this interface exists only
// to let flushBulk hold heterogeneous command slots in one array.
type bulkEncoder interface {
	Bytes() []byte
}

// wire frame opcodes, the first byte of every bulk command buffer.
const (
	codeForceTrigger             byte = 0x01
	codeStartSampling            byte = 0x02
	codeEnableTrigger            byte = 0x03
	codeGetData                  byte = 0x04
	codeGetCaptureState          byte = 0x05
	codeSetGain                  byte = 0x06
	codeSetTriggerAndSamplerate  byte = 0x07
	codeSetChannels2250          byte = 0x08
	codeSetTrigger2250           byte = 0x09
	codeSetRecordLength2250      byte = 0x0A
	codeSetSamplerate2250        byte = 0x0B
	codeSetBuffer2250            byte = 0x0C
	codeSetSamplerate5200        byte = 0x0D
	codeSetBuffer5200            byte = 0x0E
	codeSetTrigger5200           byte = 0x0F
)

func setBit(b *byte, pos uint, v bool) {
	if v {
		*b |= 1 << pos
	} else {
		*b &^= 1 << pos
	}
}

func bit(b byte, pos uint) bool {
	return b&(1<<pos) != 0
}

// -- single-opcode commands shared by every non-6022BE model --------

type bulkForceTrigger struct{ buf [1]byte }

func newBulkForceTrigger() *bulkForceTrigger {
	return &bulkForceTrigger{buf: [1]byte{codeForceTrigger}}
}
func (c *bulkForceTrigger) Bytes() []byte { return c.buf[:] }

type bulkCaptureStart struct{ buf [1]byte }

func newBulkCaptureStart() *bulkCaptureStart {
	return &bulkCaptureStart{buf: [1]byte{codeStartSampling}}
}
func (c *bulkCaptureStart) Bytes() []byte { return c.buf[:] }

type bulkTriggerEnabled struct{ buf [1]byte }

func newBulkTriggerEnabled() *bulkTriggerEnabled {
	return &bulkTriggerEnabled{buf: [1]byte{codeEnableTrigger}}
}
func (c *bulkTriggerEnabled) Bytes() []byte { return c.buf[:] }

type bulkGetData struct{ buf [1]byte }

func newBulkGetData() *bulkGetData { return &bulkGetData{buf: [1]byte{codeGetData}} }
func (c *bulkGetData) Bytes() []byte { return c.buf[:] }

type bulkGetCaptureState struct{ buf [1]byte }

func newBulkGetCaptureState() *bulkGetCaptureState {
	return &bulkGetCaptureState{buf: [1]byte{codeGetCaptureState}}
}
func (c *bulkGetCaptureState) Bytes() []byte { return c.buf[:] }

// bulkResponseCaptureState decodes the BULK_GETCAPTURESTATE reply: a
// 16-bit trigger-point word (still bit-folded, see unfoldTriggerPoint)
// followed by the capture state byte.
type bulkResponseCaptureState struct{ buf [4]byte }

func (r *bulkResponseCaptureState) Bytes() []byte { return r.buf[:] }
func (r *bulkResponseCaptureState) Size() int     { return len(r.buf) }
func (r *bulkResponseCaptureState) TriggerPoint() uint16 {
	return binary.LittleEndian.Uint16(r.buf[0:2])
}
func (r *bulkResponseCaptureState) State() CaptureState {
	return CaptureState(r.buf[2])
}

// -- SETGAIN, shared by every non-6022BE model -----------------------

type bulkSetGain struct{ buf [2]byte }

func newBulkSetGain() *bulkSetGain { return &bulkSetGain{buf: [2]byte{codeSetGain, 0}} }
func (c *bulkSetGain) Bytes() []byte { return c.buf[:] }

// SetGain packs the gain index for the given channel into its nibble of
// the data byte: channel 0 in the low nibble, channel 1 in the high
// nibble.
func (c *bulkSetGain) SetGain(channel int, gainIndex byte) {
	shift := uint(4 * channel)
	c.buf[1] = (c.buf[1] &^ (0x0F << shift)) | ((gainIndex & 0x0F) << shift)
}

// -- DSO-2090: the SETTRIGGERANDSAMPLERATE megacommand ----------------

// bulkSetTriggerAndSamplerate packs the DSO-2090's record-length index,
// used-channels bits, pretrigger position (0x7FFFF space), samplerate
// id, downsampler word, downsampling-mode flag, trigger source, slope,
// and fast-rate flag into a single bulk command frame, matching the
// original firmware's one-command-does-everything protocol quirk.
type bulkSetTriggerAndSamplerate struct{ buf [10]byte }

func newBulkSetTriggerAndSamplerate() *bulkSetTriggerAndSamplerate {
	c := &bulkSetTriggerAndSamplerate{}
	c.buf[0] = codeSetTriggerAndSamplerate
	return c
}
func (c *bulkSetTriggerAndSamplerate) Bytes() []byte { return c.buf[:] }

func (c *bulkSetTriggerAndSamplerate) SetRecordLength(index int) {
	c.buf[1] = byte(index)
}

// SetUsedChannels stores the 2-bit used-channels field (USED_CH1,
// USED_CH2, or USED_CH1CH2).
func (c *bulkSetTriggerAndSamplerate) SetUsedChannels(v byte) {
	c.buf[2] = (c.buf[2] &^ (0x03 << 5)) | ((v & 0x03) << 5)
}

// SetTriggerPosition stores the pretrigger position in 0x7FFFF space.
func (c *bulkSetTriggerAndSamplerate) SetTriggerPosition(pos uint32) {
	binary.LittleEndian.PutUint32(c.buf[3:7], pos&0x7FFFF)
}

func (c *bulkSetTriggerAndSamplerate) SetSamplerateId(id byte) {
	c.buf[7] = id
}

func (c *bulkSetTriggerAndSamplerate) SetDownsampler(v int16) {
	binary.LittleEndian.PutUint16(c.buf[8:10], uint16(v))
}

func (c *bulkSetTriggerAndSamplerate) SetDownsamplingMode(v bool) {
	setBit(&c.buf[2], 7, v)
}

func (c *bulkSetTriggerAndSamplerate) SetTriggerSource(v byte) {
	c.buf[2] = (c.buf[2] &^ 0x07) | (v & 0x07)
}

func (c *bulkSetTriggerAndSamplerate) SetTriggerSlope(s Slope) {
	setBit(&c.buf[2], 3, s == SlopeNegative)
}

func (c *bulkSetTriggerAndSamplerate) SetFastRate(v bool) {
	setBit(&c.buf[2], 4, v)
}

// -- DSO-2250 ----------------------------------------------------------

type bulkSetChannels2250 struct{ buf [2]byte }

func newBulkSetChannels2250() *bulkSetChannels2250 {
	return &bulkSetChannels2250{buf: [2]byte{codeSetChannels2250, 0}}
}
func (c *bulkSetChannels2250) Bytes() []byte { return c.buf[:] }
func (c *bulkSetChannels2250) SetUsedChannels(v byte) { c.buf[1] = v }

type bulkSetTrigger2250 struct{ buf [3]byte }

func newBulkSetTrigger2250() *bulkSetTrigger2250 {
	c := &bulkSetTrigger2250{}
	c.buf[0] = codeSetTrigger2250
	return c
}
func (c *bulkSetTrigger2250) Bytes() []byte { return c.buf[:] }
func (c *bulkSetTrigger2250) SetTriggerSource(v byte) { c.buf[1] = v }
func (c *bulkSetTrigger2250) SetTriggerSlope(s Slope) {
	setBit(&c.buf[2], 0, s == SlopeNegative)
}

type bulkSetRecordLength2250 struct{ buf [2]byte }

func newBulkSetRecordLength2250() *bulkSetRecordLength2250 {
	return &bulkSetRecordLength2250{buf: [2]byte{codeSetRecordLength2250, 0}}
}
func (c *bulkSetRecordLength2250) Bytes() []byte { return c.buf[:] }
func (c *bulkSetRecordLength2250) SetRecordLength(index int) { c.buf[1] = byte(index) }

// bulkSetSamplerate2250 stores 0x10001-downsampler when downsampler > 1,
// else 0; downsampling and fastRate are independent flag bits.
type bulkSetSamplerate2250 struct{ buf [6]byte }

func newBulkSetSamplerate2250() *bulkSetSamplerate2250 {
	c := &bulkSetSamplerate2250{}
	c.buf[0] = codeSetSamplerate2250
	return c
}
func (c *bulkSetSamplerate2250) Bytes() []byte { return c.buf[:] }
func (c *bulkSetSamplerate2250) SetSamplerate(v uint32) {
	binary.LittleEndian.PutUint32(c.buf[1:5], v)
}
func (c *bulkSetSamplerate2250) SetDownsampling(v bool) { setBit(&c.buf[5], 0, v) }
func (c *bulkSetSamplerate2250) SetFastRate(v bool)     { setBit(&c.buf[5], 1, v) }

// bulkSetBuffer2250 stores pre/post trigger positions inverted in
// 0x7FFFF space, the same scheme as bulkSetBuffer5200 but with a wider
// position field.
type bulkSetBuffer2250 struct{ buf [9]byte }

func newBulkSetBuffer2250() *bulkSetBuffer2250 {
	c := &bulkSetBuffer2250{}
	c.buf[0] = codeSetBuffer2250
	return c
}
func (c *bulkSetBuffer2250) Bytes() []byte { return c.buf[:] }
func (c *bulkSetBuffer2250) SetTriggerPositionPre(v uint32) {
	binary.LittleEndian.PutUint32(c.buf[1:5], v&0x7FFFF)
}
func (c *bulkSetBuffer2250) SetTriggerPositionPost(v uint32) {
	binary.LittleEndian.PutUint32(c.buf[5:9], v&0x7FFFF)
}

// -- DSO-5200 / 5200A ---------------------------------------------------

// bulkSetSamplerate5200 stores the caller-supplied fast (3-bit) and slow
// (16-bit) samplerate values verbatim; the 4-valueFast / 0xFFFF-valueSlow
// transform happens in Controller.updateSamplerate, matching the
// original split of concerns between the command object and its caller.
type bulkSetSamplerate5200 struct{ buf [4]byte }

func newBulkSetSamplerate5200() *bulkSetSamplerate5200 {
	c := &bulkSetSamplerate5200{}
	c.buf[0] = codeSetSamplerate5200
	return c
}
func (c *bulkSetSamplerate5200) Bytes() []byte { return c.buf[:] }
func (c *bulkSetSamplerate5200) SetSamplerateFast(v byte) { c.buf[1] = v & 0x07 }
func (c *bulkSetSamplerate5200) SetSamplerateSlow(v uint16) {
	binary.LittleEndian.PutUint16(c.buf[2:4], v)
}

// bulkSetBuffer5200 stores the record length index, the pre/post
// trigger-enable flags, and the (already inverted) pre/post trigger
// position words.
type bulkSetBuffer5200 struct{ buf [7]byte }

func newBulkSetBuffer5200() *bulkSetBuffer5200 {
	c := &bulkSetBuffer5200{}
	c.buf[0] = codeSetBuffer5200
	return c
}
func (c *bulkSetBuffer5200) Bytes() []byte { return c.buf[:] }
func (c *bulkSetBuffer5200) SetRecordLength(index int) { c.buf[1] = byte(index) }
func (c *bulkSetBuffer5200) SetUsedPre(v bool)  { setBit(&c.buf[2], 0, v) }
func (c *bulkSetBuffer5200) SetUsedPost(v bool) { setBit(&c.buf[2], 1, v) }
func (c *bulkSetBuffer5200) SetTriggerPositionPre(v uint16) {
	binary.LittleEndian.PutUint16(c.buf[3:5], v)
}
func (c *bulkSetBuffer5200) SetTriggerPositionPost(v uint16) {
	binary.LittleEndian.PutUint16(c.buf[5:7], v)
}

// bulkSetTrigger5200 carries the used-channels field, trigger source and
// slope, and the fast-rate flag -- the 5200 spreads samplerate-family
// fields across two command objects (this one and
// bulkSetSamplerate5200), matching the original firmware split.
type bulkSetTrigger5200 struct{ buf [4]byte }

func newBulkSetTrigger5200() *bulkSetTrigger5200 {
	c := &bulkSetTrigger5200{}
	c.buf[0] = codeSetTrigger5200
	return c
}
func (c *bulkSetTrigger5200) Bytes() []byte { return c.buf[:] }
func (c *bulkSetTrigger5200) SetUsedChannels(v byte)  { c.buf[1] = v }
func (c *bulkSetTrigger5200) SetTriggerSource(v byte) { c.buf[2] = v }
func (c *bulkSetTrigger5200) SetTriggerSlope(s Slope) {
	setBit(&c.buf[3], 0, s == SlopeNegative)
}
func (c *bulkSetTrigger5200) SetFastRate(v bool) { setBit(&c.buf[3], 1, v) }
