// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import "math"

// samplerateFamily distinguishes the three samplerate-command shapes
// that constrain which downsampler values are legal.
type samplerateFamily int

const (
	familyNone samplerateFamily = iota
	family2090                  // SETTRIGGERANDSAMPLERATE
	family5200                  // CSETTRIGGERORSAMPLERATE
	family2250                  // ESETTRIGGERORSAMPLERATE
)

func (s *Specification) samplerateFamily() samplerateFamily {
	switch s.Command.SetSamplerate {
	case BulkSetTriggerAndSamplerate:
		return family2090
	case BulkCSetTriggerOrSamplerate:
		return family5200
	case BulkESetTriggerOrSamplerate:
		return family2250
	default:
		return familyNone
	}
}

// getBestSamplerate finds the realisable samplerate nearest target for
// the given rate mode and record-length divider. maximum true means the
// result must not exceed target (satisfying a record-time duration);
// false means it must not fall below target (satisfying a samplerate
// request). Returns rate 0 if the model has no downsampler-based
// samplerate command (the 6022BE, which uses a discrete step table
// instead -- see Controller.SetSamplerate).
func getBestSamplerate(spec *Specification, mode RateMode, recordLengthID int, target float64, maximum bool) (bestRate float64, downsampler uint32) {
	family := spec.samplerateFamily()
	if family == familyNone || target <= 0 {
		return 0, 0
	}

	limits := spec.limits(mode)
	divider := 1.0
	if recordLengthID < len(spec.BufferDividers) {
		divider = spec.BufferDividers[recordLengthID]
	}

	idealDownsampler := limits.Base / divider / target

	if idealDownsampler < 1 {
		maxRate := limits.Max / divider
		if target <= maxRate || !maximum {
			return maxRate, 0
		}
	}

	var d uint32
	switch family {
	case family2090:
		d = snap2090Downsampler(idealDownsampler, maximum)
	case family5200, family2250:
		if maximum {
			d = uint32(math.Ceil(idealDownsampler))
		} else {
			d = uint32(math.Floor(idealDownsampler))
		}
	}
	if d < 1 {
		d = 1
	}
	if d > limits.MaxDownsampler {
		d = limits.MaxDownsampler
	}

	bestRate = limits.Base / float64(d) / divider
	return bestRate, d
}

// snap2090Downsampler implements the DSO-2090/2150 family's peculiar
// legal-value set. Below 6 it returns only 1, 2 or 5: 3 is not
// expressible, and a value of 3 or 4 snaps up to 5 (maximum) or down to
// 2 (not maximum), so 4 is never returned. Every value at or above 6
// must be even.
func snap2090Downsampler(ideal float64, maximum bool) uint32 {
	if maximum {
		d := uint32(math.Ceil(ideal))
		if d > 2 && d < 5 {
			return 5
		}
		if d >= 6 && d%2 != 0 {
			return d + 1
		}
		return d
	}

	d := uint32(math.Floor(ideal))
	if d > 2 && d < 5 {
		return 2
	}
	if d >= 6 && d%2 != 0 {
		return d - 1
	}
	return d
}
