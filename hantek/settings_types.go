// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import "sync"

// RateTarget records the caller's intent behind the current samplerate:
// either "hold this rate" or "hold this record time". It is re-solved
// against the samplerate solver whenever the buffer divider changes
// (restoreTargets), so the user's original request survives a
// record-length change even though the concrete rate/downsampler pair
// may need to change with it.
type RateTarget struct {
	Samplerate    float64
	Duration      float64
	SamplerateSet bool
}

// Voltage is one channel's gain/offset/enable state.
type Voltage struct {
	Gain       int
	Offset     float64 // caller-facing fraction in [0, 1]
	OffsetReal float64 // quantised fraction actually achieved
	Used       bool
}

// Trigger is the acquisition trigger configuration.
type Trigger struct {
	Mode    TriggerMode
	Slope   Slope
	Special bool
	Source  int
	Level   [ChannelCount]float64
	// Position is the pretrigger position in seconds.
	Position float64
	// Point is the last trigger-point word decoded from
	// BULK_GETCAPTURESTATE, after bit-unfolding.
	Point uint16
}

// Settings is the acquisition engine's mutable desired state: the
// intent set by callers through the control contract in settings.go,
// plus the quantities the controller derives from it.
type Settings struct {
	SamplerateMode        RateMode
	SamplerateDownsampler uint32
	SamplerateCurrent     float64
	SamplerateTarget      RateTarget

	RecordLengthID int

	Voltage [ChannelCount]Voltage
	Trigger Trigger

	UsedChannels int
}

// AvailableRecordLengths returns the record lengths legal under the
// settings' current rate mode.
func (s *Settings) AvailableRecordLengths(spec *Specification) []uint32 {
	return spec.limits(s.SamplerateMode).RecordLengths
}

// Result is the decoded-sample output buffer. It is written exclusively
// by the decode pipeline (decode.go) and read by any number of
// consumers; both sides take a reader/writer lock for cross-goroutine
// access.
type Result struct {
	mu         sync.RWMutex
	data       [ChannelCount][]float64
	samplerate float64
	// Append is true iff the current record length is the unbounded
	// sentinel (roll mode): new samples are appended rather than
	// replacing the buffer wholesale.
	append bool
}

// Snapshot copies out the current samples and samplerate under the read
// lock.
func (r *Result) Snapshot() (data [ChannelCount][]float64, samplerate float64, appendMode bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.data {
		data[c] = append([]float64(nil), r.data[c]...)
	}
	return data, r.samplerate, r.append
}

func (r *Result) beginWrite(samplerate float64, appendMode bool) {
	r.mu.Lock()
	r.samplerate = samplerate
	r.append = appendMode
	if !appendMode {
		for c := range r.data {
			r.data[c] = r.data[c][:0]
		}
	}
}

func (r *Result) endWrite() {
	r.mu.Unlock()
}

func (r *Result) setChannel(channel int, samples []float64) {
	if r.append {
		r.data[channel] = append(r.data[channel], samples...)
	} else {
		r.data[channel] = samples
	}
}
