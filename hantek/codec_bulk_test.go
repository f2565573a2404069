// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import (
	"testing"

	c "github.com/smartystreets/goconvey/convey"
)

func TestBulkSetGain(t *testing.T) {
	c.Convey("Given a SETGAIN command", t, func() {
		cmd := newBulkSetGain()
		c.Convey("Setting channel 0's gain index leaves channel 1 alone", func() {
			cmd.SetGain(0, 0x3)
			c.So(cmd.Bytes(), c.ShouldResemble, []byte{codeSetGain, 0x03})
			cmd.SetGain(1, 0x5)
			c.So(cmd.Bytes(), c.ShouldResemble, []byte{codeSetGain, 0x53})
		})
	})
}

func TestBulkSetTriggerAndSamplerateFields(t *testing.T) {
	c.Convey("Given a SETTRIGGERANDSAMPLERATE megacommand", t, func() {
		cmd := newBulkSetTriggerAndSamplerate()
		c.Convey("Every field packs into its own bits without disturbing the others", func() {
			cmd.SetRecordLength(2)
			cmd.SetUsedChannels(0x03)
			cmd.SetTriggerSource(0x05)
			cmd.SetTriggerSlope(SlopeNegative)
			cmd.SetFastRate(true)
			cmd.SetDownsamplingMode(true)
			cmd.SetTriggerPosition(0x7FFFF)
			cmd.SetSamplerateId(0x09)
			cmd.SetDownsampler(4)

			buf := cmd.Bytes()
			c.So(buf[0], c.ShouldEqual, codeSetTriggerAndSamplerate)
			c.So(buf[1], c.ShouldEqual, 2)
			c.So(buf[2]&0x07, c.ShouldEqual, 0x05)
			c.So(bit(buf[2], 3), c.ShouldBeTrue)
			c.So(bit(buf[2], 4), c.ShouldBeTrue)
			c.So(bit(buf[2], 7), c.ShouldBeTrue)
			c.So((buf[2]>>5)&0x03, c.ShouldEqual, 0x03)
			c.So(buf[7], c.ShouldEqual, 0x09)
		})
	})
}

func TestBulkSetTrigger5200SharesSamplerateFieldsAcrossTwoCommands(t *testing.T) {
	c.Convey("Given the 5200's split samplerate commands", t, func() {
		rate := newBulkSetSamplerate5200()
		trigger := newBulkSetTrigger5200()
		c.Convey("Fast rate lives on the trigger command, fast/slow values on the rate command", func() {
			rate.SetSamplerateFast(3)
			rate.SetSamplerateSlow(0xBEEF)
			trigger.SetFastRate(true)
			c.So(rate.Bytes()[1], c.ShouldEqual, 3)
			c.So(rate.Bytes()[2:4], c.ShouldResemble, []byte{0xEF, 0xBE})
			c.So(bit(trigger.Bytes()[3], 1), c.ShouldBeTrue)
		})
	})
}

func TestBulkResponseCaptureState(t *testing.T) {
	c.Convey("Given a raw GETCAPTURESTATE reply", t, func() {
		resp := &bulkResponseCaptureState{buf: [4]byte{0x34, 0x12, byte(CaptureReady5200), 0x00}}
		c.Convey("TriggerPoint decodes little-endian and State reads byte 2", func() {
			c.So(resp.TriggerPoint(), c.ShouldEqual, 0x1234)
			c.So(resp.State(), c.ShouldEqual, CaptureReady5200)
		})
	})
}

func TestSetBitAndBit(t *testing.T) {
	c.Convey("Given a zeroed byte", t, func() {
		var b byte
		c.Convey("setBit sets and clears individual bits without disturbing others", func() {
			setBit(&b, 2, true)
			setBit(&b, 5, true)
			c.So(b, c.ShouldEqual, byte(0x24))
			c.So(bit(b, 2), c.ShouldBeTrue)
			c.So(bit(b, 3), c.ShouldBeFalse)
			setBit(&b, 2, false)
			c.So(b, c.ShouldEqual, byte(0x20))
		})
	})
}
