// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import (
	"testing"

	c "github.com/smartystreets/goconvey/convey"
)

type fakeTransport struct {
	connected bool
}

func (f *fakeTransport) BulkCommand(buf []byte, retries int) (int, error) { return len(buf), nil }
func (f *fakeTransport) BulkRead(buf []byte) (int, error)                 { return len(buf), nil }
func (f *fakeTransport) BulkReadMulti(buf []byte, length int) (int, error) {
	return length, nil
}
func (f *fakeTransport) ControlRead(op int, buf []byte, length int, value uint16) (int, error) {
	return length, nil
}
func (f *fakeTransport) ControlWrite(op int, buf []byte) (int, error) { return len(buf), nil }
func (f *fakeTransport) GetUniqueModelID() (uint16, error)            { return 0, nil }
func (f *fakeTransport) GetPacketSize() int                           { return 64 }
func (f *fakeTransport) IsConnected() bool                            { return f.connected }
func (f *fakeTransport) Disconnect() error                            { f.connected = false; return nil }

// newSettingsTestController builds a Controller by hand (bypassing New,
// which requires a real device round trip for the offset-limits read)
// with allocateCommands already run, so every settings.go setter has a
// concrete command object to type-assert into.
func newSettingsTestController(t *testing.T, model Model) *Controller {
	spec, ok := specificationForModel(model)
	if !ok {
		t.Fatalf("no specification for model %v", model)
	}
	ctrl := &Controller{
		spec:      spec,
		transport: &fakeTransport{connected: true},
		signals:   &Signals{},
	}
	ctrl.allocateCommands()
	for ch := 0; ch < ChannelCount; ch++ {
		for gain := 0; gain < gainLevels; gain++ {
			ctrl.offsetLimits[ch][gain] = [2]uint16{0, 1000}
		}
	}
	return ctrl
}

func TestSetRecordLengthWritesModelCommand(t *testing.T) {
	ctrl := newSettingsTestController(t, ModelDSO2090)
	c.Convey("Given a DSO-2090 controller", t, func() {
		c.Convey("Setting the record length index writes it into the megacommand", func() {
			err := ctrl.SetRecordLength(2)
			c.So(err, c.ShouldBeNil)
			cmd := ctrl.bulkCmd[BulkSetTriggerAndSamplerate].(*bulkSetTriggerAndSamplerate)
			c.So(cmd.Bytes()[1], c.ShouldEqual, 2)
			c.So(ctrl.bulkPending[BulkSetTriggerAndSamplerate], c.ShouldBeTrue)
		})
		c.Convey("An out-of-range index is rejected", func() {
			err := ctrl.SetRecordLength(99)
			c.So(err, c.ShouldEqual, ErrorParameter)
		})
	})
}

func TestSetRecordLengthRequiresConnection(t *testing.T) {
	ctrl := newSettingsTestController(t, ModelDSO2090)
	ctrl.transport.(*fakeTransport).connected = false
	c.Convey("Given a disconnected transport", t, func() {
		c.Convey("SetRecordLength reports ErrorConnection", func() {
			c.So(ctrl.SetRecordLength(1), c.ShouldEqual, ErrorConnection)
		})
	})
}

func TestSetGainPicksSmallestStepAtOrAboveTarget(t *testing.T) {
	ctrl := newSettingsTestController(t, ModelDSO2090)
	c.Convey("Given the DSO-2090's gain step table", t, func() {
		c.Convey("Requesting 0.5 V/div picks the 0.8 V/div step", func() {
			err := ctrl.SetGain(0, 0.5)
			c.So(err, c.ShouldBeNil)
			c.So(ctrl.settings.Voltage[0].Gain, c.ShouldEqual, 3)
			gainCmd := ctrl.bulkCmd[BulkSetGain].(*bulkSetGain)
			c.So(gainCmd.Bytes()[1]&0x0F, c.ShouldEqual, ctrl.spec.GainIndex[3])
		})
		c.Convey("Requesting a value above every step clamps to the largest", func() {
			err := ctrl.SetGain(1, 1000)
			c.So(err, c.ShouldBeNil)
			c.So(ctrl.settings.Voltage[1].Gain, c.ShouldEqual, len(ctrl.spec.GainSteps)-1)
		})
	})
}

func TestSetOffsetQuantizesAgainstCalibration(t *testing.T) {
	ctrl := newSettingsTestController(t, ModelDSO2090)
	ctrl.offsetLimits[0][0] = [2]uint16{100, 200}
	c.Convey("Given a channel's factory offset calibration window", t, func() {
		c.Convey("The midpoint fraction rounds via +0.5 truncation", func() {
			err := ctrl.SetOffset(0, 0.5)
			c.So(err, c.ShouldBeNil)
			c.So(ctrl.settings.Voltage[0].OffsetReal, c.ShouldAlmostEqual, 0.5, 1e-9)
		})
		c.Convey("A fraction outside [0,1] is rejected", func() {
			c.So(ctrl.SetOffset(0, 1.5), c.ShouldEqual, ErrorParameter)
		})
	})
}

func TestSetTriggerSourceEncodingAsymmetry(t *testing.T) {
	c.Convey("Given the 2090/5200 family's trigger source encoding", t, func() {
		ctrl := newSettingsTestController(t, ModelDSO2090)
		c.Convey("A non-special source encodes as 1-id", func() {
			c.So(ctrl.SetTriggerSource(false, 1), c.ShouldBeNil)
			cmd := ctrl.bulkCmd[BulkSetTriggerAndSamplerate].(*bulkSetTriggerAndSamplerate)
			c.So(cmd.Bytes()[2]&0x07, c.ShouldEqual, byte(0))
		})
		c.Convey("A special source encodes as 3+id", func() {
			c.So(ctrl.SetTriggerSource(true, 1), c.ShouldBeNil)
			cmd := ctrl.bulkCmd[BulkSetTriggerAndSamplerate].(*bulkSetTriggerAndSamplerate)
			c.So(cmd.Bytes()[2]&0x07, c.ShouldEqual, byte(4))
		})
	})
	c.Convey("Given the 2250's trigger source encoding", t, func() {
		ctrl := newSettingsTestController(t, ModelDSO2250)
		c.Convey("A non-special source encodes as 2+id", func() {
			c.So(ctrl.SetTriggerSource(false, 1), c.ShouldBeNil)
			cmd := ctrl.bulkCmd[BulkCSetTriggerOrSamplerate].(*bulkSetTrigger2250)
			c.So(cmd.Bytes()[1], c.ShouldEqual, byte(3))
		})
		c.Convey("A special source always encodes as 0", func() {
			c.So(ctrl.SetTriggerSource(true, 0), c.ShouldBeNil)
			cmd := ctrl.bulkCmd[BulkCSetTriggerOrSamplerate].(*bulkSetTrigger2250)
			c.So(cmd.Bytes()[1], c.ShouldEqual, byte(0))
		})
	})
}

func TestWriteTriggerLevelHardcodesSpecialSource(t *testing.T) {
	ctrl := newSettingsTestController(t, ModelDSO2090)
	c.Convey("Given a special trigger source", t, func() {
		ctrl.settings.Trigger.Special = true
		ctrl.writeTriggerLevel()
		c.Convey("The trigger level word is hardcoded to 0x7f regardless of calibration", func() {
			cmd := ctrl.controlCmd[ControlSetOffset].(*controlSetOffset)
			c.So(cmd.Bytes()[4:6], c.ShouldResemble, []byte{0x7f, 0x00})
		})
	})
}

func TestSplitDownsampler5200(t *testing.T) {
	testCases := []struct {
		d            uint32
		fast         byte
		slow         uint16
	}{
		{1, 1, 0},
		{4, 4, 0},
		{5, 0, 5},
		{70000, 0, 0xFFFF},
	}
	c.Convey("Given the 5200's fast/slow downsampler split", t, func() {
		for _, tc := range testCases {
			fast, slow := splitDownsampler5200(tc.d)
			c.So(fast, c.ShouldEqual, tc.fast)
			c.So(slow, c.ShouldEqual, tc.slow)
		}
	})
}

func TestStringCommandOverwritesRawBuffer(t *testing.T) {
	ctrl := newSettingsTestController(t, ModelDSO2090)
	c.Convey("Given the raw diagnostic escape hatch", t, func() {
		c.Convey("A well-formed bulk command overwrites the named buffer", func() {
			err := ctrl.StringCommand("send bulk 5 ff 00")
			c.So(err, c.ShouldBeNil)
			c.So(ctrl.bulkCmd[BulkSetGain].Bytes()[:2], c.ShouldResemble, []byte{0xff, 0x00})
			c.So(ctrl.bulkPending[BulkSetGain], c.ShouldBeTrue)
		})
		c.Convey("An unsupported opcode is rejected", func() {
			err := ctrl.StringCommand("send bulk 7f ff")
			c.So(err, c.ShouldEqual, ErrorUnsupported)
		})
		c.Convey("A malformed command is rejected", func() {
			err := ctrl.StringCommand("nonsense")
			c.So(err, c.ShouldEqual, ErrorParameter)
		})
	})
}

func TestSetChannelUsedTracksCount(t *testing.T) {
	ctrl := newSettingsTestController(t, ModelDSO2090)
	c.Convey("Given both channels initially unused", t, func() {
		c.Convey("Enabling both channels reports a count of two", func() {
			c.So(ctrl.SetChannelUsed(0, true), c.ShouldBeNil)
			c.So(ctrl.SetChannelUsed(1, true), c.ShouldBeNil)
			c.So(ctrl.settings.UsedChannels, c.ShouldEqual, 2)
			c.So(ctrl.usedChannelsCode(), c.ShouldEqual, byte(3))
		})
	})
}
