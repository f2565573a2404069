// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import (
	"testing"

	c "github.com/smartystreets/goconvey/convey"
)

func TestSnap2090Downsampler(t *testing.T) {
	testCases := []struct {
		ideal    float64
		maximum  bool
		expected uint32
	}{
		{1.2, true, 2},
		{1.2, false, 1},
		{3.0, true, 5},
		{3.0, false, 2},
		{4.9, false, 2},
		{7.0, true, 8},
		{7.0, false, 6},
		{6.0, true, 6},
	}
	c.Convey("Given the DSO-2090 family's odd/unreachable downsampler rules", t, func() {
		for _, tc := range testCases {
			got := snap2090Downsampler(tc.ideal, tc.maximum)
			c.So(got, c.ShouldEqual, tc.expected)
		}
	})
}

func TestGetBestSamplerate2090(t *testing.T) {
	spec, ok := specificationForModel(ModelDSO2090)
	if !ok {
		t.Fatal("expected DSO-2090 to have a specification")
	}
	c.Convey("Given the DSO-2090's single-channel samplerate limits", t, func() {
		c.Convey("A target far below the maximum snaps to a legal downsampler", func() {
			rate, downsampler := getBestSamplerate(&spec, RateSingle, 1, 5e6, false)
			c.So(downsampler, c.ShouldBeGreaterThan, 0)
			c.So(rate, c.ShouldBeGreaterThan, 0)
		})
		c.Convey("A target above the maximum rate returns the maximum with no downsampling", func() {
			rate, downsampler := getBestSamplerate(&spec, RateSingle, 1, 1e9, false)
			c.So(downsampler, c.ShouldEqual, 0)
			c.So(rate, c.ShouldEqual, spec.Samplerate.Single.Max/spec.BufferDividers[1])
		})
	})
}

func TestGetBestSamplerateUnsupportedFamily(t *testing.T) {
	spec, ok := specificationForModel(ModelDSO6022BE)
	if !ok {
		t.Fatal("expected DSO-6022BE to have a specification")
	}
	c.Convey("Given the 6022BE, which has no downsampler-based samplerate command", t, func() {
		c.Convey("getBestSamplerate reports no realisable rate", func() {
			rate, downsampler := getBestSamplerate(&spec, RateSingle, 1, 1e6, false)
			c.So(rate, c.ShouldEqual, 0)
			c.So(downsampler, c.ShouldEqual, 0)
		})
	})
}
