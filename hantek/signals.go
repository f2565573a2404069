// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

// Signals is a struct of optional callback fields a Controller invokes
// as its state changes. No pub/sub dependency appears anywhere in the
// retrieval pack this project was built from, so upward notification
// uses plain callbacks rather than an event bus -- a caller wanting
// fan-out can register a callback that dispatches to its own
// subscribers. Every field is optional; a nil field is simply not
// called.
type Signals struct {
	OnSamplingStarted func()
	OnSamplingStopped func()
	OnSamplesAvailable func()

	OnSamplerateChanged       func(hz float64)
	OnSamplerateLimitsChanged func(min, max float64)
	OnRecordLengthChanged     func(count uint32)
	OnRecordTimeChanged       func(seconds float64)

	OnAvailableRecordLengthsChanged func(lengths []uint32)

	// OnSamplerateSet fires once at construction on the 6022BE with its
	// fixed discrete rate table. mode is always 1 (discrete list),
	// matching the original firmware's single call site.
	OnSamplerateSet func(mode int, steps []float64)

	OnStatusMessage func(text string, timeoutMS int)

	// OnCommunicationError fires when the transport reports the device
	// is gone. The controller's tick loop stops without rescheduling
	// immediately afterward.
	OnCommunicationError func()
}

func (s *Signals) samplingStarted() {
	if s != nil && s.OnSamplingStarted != nil {
		s.OnSamplingStarted()
	}
}

func (s *Signals) samplingStopped() {
	if s != nil && s.OnSamplingStopped != nil {
		s.OnSamplingStopped()
	}
}

func (s *Signals) samplesAvailable() {
	if s != nil && s.OnSamplesAvailable != nil {
		s.OnSamplesAvailable()
	}
}

func (s *Signals) samplerateChanged(hz float64) {
	if s != nil && s.OnSamplerateChanged != nil {
		s.OnSamplerateChanged(hz)
	}
}

func (s *Signals) samplerateLimitsChanged(min, max float64) {
	if s != nil && s.OnSamplerateLimitsChanged != nil {
		s.OnSamplerateLimitsChanged(min, max)
	}
}

func (s *Signals) recordLengthChanged(count uint32) {
	if s != nil && s.OnRecordLengthChanged != nil {
		s.OnRecordLengthChanged(count)
	}
}

func (s *Signals) recordTimeChanged(seconds float64) {
	if s != nil && s.OnRecordTimeChanged != nil {
		s.OnRecordTimeChanged(seconds)
	}
}

func (s *Signals) availableRecordLengthsChanged(lengths []uint32) {
	if s != nil && s.OnAvailableRecordLengthsChanged != nil {
		s.OnAvailableRecordLengthsChanged(lengths)
	}
}

func (s *Signals) samplerateSet(mode int, steps []float64) {
	if s != nil && s.OnSamplerateSet != nil {
		s.OnSamplerateSet(mode, steps)
	}
}

func (s *Signals) statusMessage(text string, timeoutMS int) {
	if s != nil && s.OnStatusMessage != nil {
		s.OnStatusMessage(text, timeoutMS)
	}
}

func (s *Signals) communicationError() {
	if s != nil && s.OnCommunicationError != nil {
		s.OnCommunicationError()
	}
}
