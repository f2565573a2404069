// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import (
	"testing"

	c "github.com/smartystreets/goconvey/convey"
)

func TestControlSetOffset(t *testing.T) {
	c.Convey("Given a SETOFFSET command", t, func() {
		cmd := newControlSetOffset()
		c.Convey("Each channel and the trigger level occupy independent words", func() {
			cmd.SetChannel(0, 0x1234)
			cmd.SetChannel(1, 0xABCD)
			cmd.SetTrigger(0x00FF)
			c.So(cmd.Bytes(), c.ShouldResemble, []byte{0x34, 0x12, 0xCD, 0xAB, 0xFF, 0x00})
		})
	})
}

func TestControlSetRelays(t *testing.T) {
	c.Convey("Given a SETRELAYS command", t, func() {
		cmd := newControlSetRelays()
		c.Convey("Setting one channel's relay bits doesn't touch the other channel's", func() {
			cmd.SetCoupling(0, CouplingAC)
			cmd.SetBelow1V(1, true)
			cmd.SetExternalTrigger(true)
			b := cmd.Bytes()[0]
			c.So(bit(b, relayCH1Coupling), c.ShouldBeTrue)
			c.So(bit(b, relayCH2Coupling), c.ShouldBeFalse)
			c.So(bit(b, relayCH2Below1V), c.ShouldBeTrue)
			c.So(bit(b, relayCH1Below1V), c.ShouldBeFalse)
			c.So(bit(b, relayExternalTrigger), c.ShouldBeTrue)
		})
	})
}

func TestControlAcquireHardDataHasNoPayload(t *testing.T) {
	c.Convey("Given the 6022BE's acquire-data control command", t, func() {
		cmd := newControlAcquireHardData()
		c.Convey("It writes no bytes at all", func() {
			c.So(cmd.Bytes(), c.ShouldBeNil)
		})
	})
}
