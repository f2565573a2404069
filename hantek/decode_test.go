// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import (
	"testing"

	c "github.com/smartystreets/goconvey/convey"
)

func newTestController(t *testing.T, model Model) *Controller {
	spec, ok := specificationForModel(model)
	if !ok {
		t.Fatalf("no specification for model %v", model)
	}
	ctrl := &Controller{spec: spec, signals: &Signals{}}
	ctrl.settings.Voltage[0] = Voltage{Gain: 0, Used: true}
	ctrl.settings.Voltage[1] = Voltage{Gain: 0, Used: true}
	return ctrl
}

func TestDecodeNormalInterleavesChannels(t *testing.T) {
	ctrl := newTestController(t, ModelDSO2090)
	buf := []byte{10, 20, 30, 40}

	c.Convey("Given a two-channel interleaved buffer", t, func() {
		ctrl.result.beginWrite(1e6, false)
		ctrl.decodeNormal(buf, 4)
		ctrl.result.endWrite()

		data, _, _ := ctrl.result.Snapshot()
		gainStep := ctrl.spec.GainSteps[0]
		voltageLimit := ctrl.spec.VoltageLimit[0][0]

		c.Convey("Channel 0 reads the odd-offset bytes", func() {
			c.So(len(data[0]), c.ShouldEqual, 2)
			c.So(data[0][0], c.ShouldAlmostEqual, (20/voltageLimit)*gainStep, 1e-9)
			c.So(data[0][1], c.ShouldAlmostEqual, (40/voltageLimit)*gainStep, 1e-9)
		})
		c.Convey("Channel 1 reads the even-offset bytes", func() {
			c.So(len(data[1]), c.ShouldEqual, 2)
			c.So(data[1][0], c.ShouldAlmostEqual, (10/voltageLimit)*gainStep, 1e-9)
			c.So(data[1][1], c.ShouldAlmostEqual, (30/voltageLimit)*gainStep, 1e-9)
		})
	})
}

func TestDecodeNormalSkipsUnusedChannels(t *testing.T) {
	ctrl := newTestController(t, ModelDSO2090)
	ctrl.settings.Voltage[1].Used = false
	buf := []byte{10, 20, 30, 40}

	c.Convey("Given channel 1 disabled", t, func() {
		ctrl.result.beginWrite(1e6, false)
		ctrl.decodeNormal(buf, 4)
		ctrl.result.endWrite()

		data, _, _ := ctrl.result.Snapshot()
		c.Convey("Its buffer comes back empty while channel 0 still decodes", func() {
			c.So(data[1], c.ShouldBeEmpty)
			c.So(data[0], c.ShouldNotBeEmpty)
		})
	})
}

func TestDecodeNormalReconstructs10BitSamples(t *testing.T) {
	ctrl := newTestController(t, ModelDSO5200)
	// Low-byte half (indices 0-3) interleaved ch1/ch0 per sample, followed
	// by the packed high-byte half (bytes 4 and 6 hold the MSBs for
	// samples 0 and 1): byte 4's low two bits are channel 0's MSBs, its
	// next two bits are channel 1's MSBs, and likewise for byte 6.
	buf := []byte{0x0A, 0x50, 0x28, 0x64, 0x06, 0x00, 0x09, 0x00}

	c.Convey("Given a packed 10-bit interleaved buffer from a 5200", t, func() {
		ctrl.result.beginWrite(1e6, false)
		ctrl.decodeNormal(buf, 4)
		ctrl.result.endWrite()

		data, _, _ := ctrl.result.Snapshot()
		gainStep := ctrl.spec.GainSteps[0]
		voltageLimit := ctrl.spec.VoltageLimit[0][0]

		c.Convey("Channel 0 combines each low byte with its packed MSBs", func() {
			c.So(len(data[0]), c.ShouldEqual, 2)
			c.So(data[0][0], c.ShouldAlmostEqual, (592.0/voltageLimit)*gainStep, 1e-9)
			c.So(data[0][1], c.ShouldAlmostEqual, (356.0/voltageLimit)*gainStep, 1e-9)
		})
		c.Convey("Channel 1 combines each low byte with its packed MSBs", func() {
			c.So(len(data[1]), c.ShouldEqual, 2)
			c.So(data[1][0], c.ShouldAlmostEqual, (266.0/voltageLimit)*gainStep, 1e-9)
			c.So(data[1][1], c.ShouldAlmostEqual, (552.0/voltageLimit)*gainStep, 1e-9)
		})
	})
}

func TestDecodeFastRateUsesFirstUsedChannelOnly(t *testing.T) {
	ctrl := newTestController(t, ModelDSO2090)
	ctrl.settings.Voltage[0].Used = false
	ctrl.settings.Voltage[1].Used = true
	buf := []byte{5, 15, 25, 35}

	c.Convey("Given fast rate mode with only channel 1 enabled", t, func() {
		ctrl.result.beginWrite(1e6, false)
		ctrl.decodeFastRate(buf, 4)
		ctrl.result.endWrite()

		data, _, _ := ctrl.result.Snapshot()
		gainStep := ctrl.spec.GainSteps[0]
		voltageLimit := ctrl.spec.VoltageLimit[1][0]

		c.Convey("Channel 0's buffer is cleared", func() {
			c.So(data[0], c.ShouldBeEmpty)
		})
		c.Convey("Channel 1 carries the whole buffer, byte for byte", func() {
			c.So(len(data[1]), c.ShouldEqual, 4)
			c.So(data[1][0], c.ShouldAlmostEqual, (5.0/voltageLimit)*gainStep, 1e-9)
			c.So(data[1][1], c.ShouldAlmostEqual, (15.0/voltageLimit)*gainStep, 1e-9)
			c.So(data[1][2], c.ShouldAlmostEqual, (25.0/voltageLimit)*gainStep, 1e-9)
			c.So(data[1][3], c.ShouldAlmostEqual, (35.0/voltageLimit)*gainStep, 1e-9)
		})
	})
}

func TestDecodeFastRateReconstructs10BitSamples(t *testing.T) {
	ctrl := newTestController(t, ModelDSO5200)
	// Low-byte half (indices 0-3) followed by the packed high-byte half
	// (indices 4-7): byte 4 packs the MSBs for samples 0 and 1, byte 6
	// packs the MSBs for samples 2 and 3.
	buf := []byte{0x0A, 0x50, 0x28, 0x64, 0x06, 0x00, 0x09, 0x00}

	c.Convey("Given a packed 10-bit whole-buffer capture from a 5200", t, func() {
		ctrl.result.beginWrite(1e6, false)
		ctrl.decodeFastRate(buf, 4)
		ctrl.result.endWrite()

		data, _, _ := ctrl.result.Snapshot()
		gainStep := ctrl.spec.GainSteps[0]
		voltageLimit := ctrl.spec.VoltageLimit[0][0]

		c.Convey("The single active channel combines each low byte with its packed MSBs", func() {
			c.So(len(data[0]), c.ShouldEqual, 4)
			c.So(data[0][0], c.ShouldAlmostEqual, (266.0/voltageLimit)*gainStep, 1e-9)
			c.So(data[0][1], c.ShouldAlmostEqual, (592.0/voltageLimit)*gainStep, 1e-9)
			c.So(data[0][2], c.ShouldAlmostEqual, (552.0/voltageLimit)*gainStep, 1e-9)
			c.So(data[0][3], c.ShouldAlmostEqual, (356.0/voltageLimit)*gainStep, 1e-9)
		})
	})
}
