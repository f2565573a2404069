// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/golang/glog"
)

// ChannelCount is the number of physical analog channels on every
// supported Hantek model.
const ChannelCount = 2

// specialTriggerSourceCount is the number of "special" trigger sources
// (EXT and EXT/10) available in addition to the analog channels.
const specialTriggerSourceCount = 2

// unbounded is the record-length sentinel meaning "roll mode": stream
// continuously instead of capturing a fixed number of samples.
const unbounded = math.MaxUint32

// Model identifies one of the supported Hantek DSO hardware variants.
// It drives every conditional in the command codecs, the specification
// table, and the acquisition controller.
type Model int

// Supported oscilloscope models.
const (
	ModelUnknown Model = iota
	ModelDSO2090
	ModelDSO2150
	ModelDSO2250
	ModelDSO5200
	ModelDSO5200A
	ModelDSO6022BE
)

var modelNames = map[Model]string{
	ModelUnknown:   "unknown",
	ModelDSO2090:   "DSO-2090",
	ModelDSO2150:   "DSO-2150",
	ModelDSO2250:   "DSO-2250",
	ModelDSO5200:   "DSO-5200",
	ModelDSO5200A:  "DSO-5200A",
	ModelDSO6022BE: "DSO-6022BE",
}

func (m Model) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Model(%d)", int(m))
}

// UnmarshalJSON lets a Model be persisted in a config file as its
// human-readable name, mirroring how usb1608fsplus.VoltageRange
// round-trips through JSON.
func (m *Model) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("model should be a string, got %s", data)
	}
	for id, name := range modelNames {
		if name == s {
			*m = id
			return nil
		}
	}
	return fmt.Errorf("unknown model %q", s)
}

// MarshalJSON implements json.Marshaler for Model.
func (m Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// RateMode selects which of a specification's two samplerate limit sets
// is active. The original C++ implementation keeps a raw pointer into
// the specification from Settings; we keep an enum instead so Settings
// never holds a self-referential pointer.
type RateMode int

// Samplerate limit modes.
const (
	RateSingle RateMode = iota
	RateMulti
)

// SamplerateLimits describes one rate mode's (single- or multi-channel)
// achievable samplerates for a given model.
type SamplerateLimits struct {
	Base           float64  // base clock rate in Hz
	Max            float64  // maximum achievable rate in Hz
	MaxDownsampler uint32   // largest legal downsampler value
	RecordLengths  []uint32 // index 0 is always the unbounded/roll sentinel
}

// CommandBinding records, for one model, which bulk opcode implements
// each logical operation and which control opcode implements the two
// control-only operations. A logical operation with no supporting
// command on this model is BulkUnsupported/ControlUnsupported.
type CommandBinding struct {
	SetRecordLength BulkCode
	SetChannels     BulkCode
	SetGain         BulkCode
	SetSamplerate   BulkCode
	SetTrigger      BulkCode
	SetPretrigger   BulkCode
	SetOffset       ControlCode
	SetRelays       ControlCode
}

// Offset calibration table indices, matching the wire layout of the
// factory OFFSETLIMITS control read: (start, end) per (channel, gain).
const (
	offsetStart = 0
	offsetEnd   = 1
	gainLevels  = 9
)

// OffsetLimits is the 2x9x2 factory calibration table read from the
// device at init: for each (channel, gain index), the achievable
// (minimum, maximum) raw offset word.
type OffsetLimits [ChannelCount][gainLevels][2]uint16

// Specification holds all per-model constants: gain steps, voltage
// limits, record-length presets, buffer dividers, sample-step tables,
// ADC bit width, and which command carries which logical field. Exactly
// one Specification is built per Model at controller construction time
// and never mutated afterwards.
type Specification struct {
	Model       Model
	Command     CommandBinding
	Samplerate  struct{ Single, Multi SamplerateLimits }
	BufferDividers []float64

	GainSteps    []float64            // V/div, ascending
	VoltageLimit [ChannelCount][]float64 // ADC counts per V/div window
	GainIndex    []byte               // for bulk SETGAIN (nil on 6022BE)
	GainDiv      []byte               // for control SETVOLTDIV_* (6022BE only)

	SampleSteps []float64 // 6022BE discrete samplerate table (Hz)
	SampleDiv   []byte    // matching SETTIMEDIV divider values

	SampleSize int // ADC bit width: 8 or 10

	Experimental bool
}

// limits returns the SamplerateLimits for the given rate mode.
func (s *Specification) limits(mode RateMode) *SamplerateLimits {
	if mode == RateMulti {
		return &s.Samplerate.Multi
	}
	return &s.Samplerate.Single
}

var experimentalWarnOnce sync.Map

// warnIfExperimental logs a one-time warning for models the original
// hardware vendor never officially supported (2150, 5200A).
func warnIfExperimental(m Model) {
	if _, loaded := experimentalWarnOnce.LoadOrStore(m, true); loaded {
		return
	}
	glog.Warningf("model %s is not officially supported and may not work as expected", m)
}

// specificationForModel builds the static per-model constant table.
// Unknown models return ok == false; New then surfaces "Unknown
// model", disconnects the transport and returns ErrorParameter.
func specificationForModel(m Model) (Specification, bool) {
	var spec Specification
	spec.Model = m

	switch m {
	case ModelDSO2090:
		spec.Command = CommandBinding{
			SetRecordLength: BulkSetTriggerAndSamplerate,
			SetChannels:     BulkSetTriggerAndSamplerate,
			SetGain:         BulkSetGain,
			SetSamplerate:   BulkSetTriggerAndSamplerate,
			SetTrigger:      BulkSetTriggerAndSamplerate,
			SetPretrigger:   BulkSetTriggerAndSamplerate,
			SetOffset:       ControlSetOffset,
			SetRelays:       ControlSetRelays,
		}
		spec.Samplerate.Single = SamplerateLimits{
			Base: 50e6, Max: 50e6, MaxDownsampler: 131072,
			RecordLengths: []uint32{unbounded, 10240, 32768},
		}
		spec.Samplerate.Multi = SamplerateLimits{
			Base: 100e6, Max: 100e6, MaxDownsampler: 131072,
			RecordLengths: []uint32{unbounded, 20480, 65536},
		}
		spec.BufferDividers = []float64{1000, 1, 1}
		spec.GainSteps = []float64{0.08, 0.16, 0.40, 0.80, 1.60, 4.00, 8.0, 16.0, 40.0}
		spec.GainIndex = []byte{0, 1, 2, 0, 1, 2, 0, 1, 2}
		for c := 0; c < ChannelCount; c++ {
			spec.VoltageLimit[c] = []float64{255, 255, 255, 255, 255, 255, 255, 255, 255}
		}
		spec.SampleSize = 8

	case ModelDSO2150:
		// The original constructor's model switch falls through from
		// MODEL_DSO2150 into MODEL_DSO2090 after setting the unsupported
		// flag, so the 2150 shares every command binding with the 2090.
		// Besides being unofficially supported, it differs only in its
		// higher samplerate maxima.
		spec.Experimental = true
		spec.Command = CommandBinding{
			SetRecordLength: BulkSetTriggerAndSamplerate,
			SetChannels:     BulkSetTriggerAndSamplerate,
			SetGain:         BulkSetGain,
			SetSamplerate:   BulkSetTriggerAndSamplerate,
			SetTrigger:      BulkSetTriggerAndSamplerate,
			SetPretrigger:   BulkSetTriggerAndSamplerate,
			SetOffset:       ControlSetOffset,
			SetRelays:       ControlSetRelays,
		}
		spec.Samplerate.Single = SamplerateLimits{
			Base: 50e6, Max: 75e6, MaxDownsampler: 131072,
			RecordLengths: []uint32{unbounded, 10240, 32768},
		}
		spec.Samplerate.Multi = SamplerateLimits{
			Base: 100e6, Max: 150e6, MaxDownsampler: 131072,
			RecordLengths: []uint32{unbounded, 20480, 65536},
		}
		spec.BufferDividers = []float64{1000, 1, 1}
		spec.GainSteps = []float64{0.08, 0.16, 0.40, 0.80, 1.60, 4.00, 8.0, 16.0, 40.0}
		spec.GainIndex = []byte{0, 1, 2, 0, 1, 2, 0, 1, 2}
		for c := 0; c < ChannelCount; c++ {
			spec.VoltageLimit[c] = []float64{255, 255, 255, 255, 255, 255, 255, 255, 255}
		}
		spec.SampleSize = 8

	case ModelDSO2250:
		spec.Command = CommandBinding{
			SetRecordLength: BulkDSetBuffer,
			SetChannels:     BulkBSetChannels,
			SetGain:         BulkSetGain,
			SetSamplerate:   BulkESetTriggerOrSamplerate,
			SetTrigger:      BulkCSetTriggerOrSamplerate,
			SetPretrigger:   BulkFSetBuffer,
			SetOffset:       ControlSetOffset,
			SetRelays:       ControlSetRelays,
		}
		spec.Samplerate.Single = SamplerateLimits{
			Base: 100e6, Max: 100e6, MaxDownsampler: 65536,
			RecordLengths: []uint32{unbounded, 10240, 524288},
		}
		spec.Samplerate.Multi = SamplerateLimits{
			Base: 200e6, Max: 250e6, MaxDownsampler: 65536,
			RecordLengths: []uint32{unbounded, 20480, 1048576},
		}
		spec.BufferDividers = []float64{1000, 1, 1}
		spec.GainSteps = []float64{0.08, 0.16, 0.40, 0.80, 1.60, 4.00, 8.0, 16.0, 40.0}
		spec.GainIndex = []byte{0, 2, 3, 0, 2, 3, 0, 2, 3}
		for c := 0; c < ChannelCount; c++ {
			spec.VoltageLimit[c] = []float64{255, 255, 255, 255, 255, 255, 255, 255, 255}
		}
		spec.SampleSize = 8

	case ModelDSO5200, ModelDSO5200A:
		spec.Experimental = m == ModelDSO5200A
		spec.Command = CommandBinding{
			SetRecordLength: BulkDSetBuffer,
			SetChannels:     BulkESetTriggerOrSamplerate,
			SetGain:         BulkSetGain,
			SetSamplerate:   BulkCSetTriggerOrSamplerate,
			SetTrigger:      BulkESetTriggerOrSamplerate,
			SetPretrigger:   BulkESetTriggerOrSamplerate,
			SetOffset:       ControlSetOffset,
			SetRelays:       ControlSetRelays,
		}
		spec.Samplerate.Single = SamplerateLimits{
			Base: 100e6, Max: 125e6, MaxDownsampler: 131072,
			RecordLengths: []uint32{unbounded, 10240, 14336},
		}
		spec.Samplerate.Multi = SamplerateLimits{
			Base: 200e6, Max: 250e6, MaxDownsampler: 131072,
			RecordLengths: []uint32{unbounded, 20480, 28672},
		}
		spec.BufferDividers = []float64{1000, 1, 1}
		spec.GainSteps = []float64{0.16, 0.40, 0.80, 1.60, 4.00, 8.0, 16.0, 40.0, 80.0}
		spec.GainIndex = []byte{1, 0, 0, 1, 0, 0, 1, 0, 0}
		for c := 0; c < ChannelCount; c++ {
			spec.VoltageLimit[c] = []float64{368, 454, 908, 368, 454, 908, 368, 454, 908}
		}
		spec.SampleSize = 10

	case ModelDSO6022BE:
		spec.Command = CommandBinding{
			SetRecordLength: BulkUnsupported,
			SetChannels:     BulkUnsupported,
			SetGain:         BulkUnsupported,
			SetSamplerate:   BulkUnsupported,
			SetTrigger:      BulkUnsupported,
			SetPretrigger:   BulkUnsupported,
			SetOffset:       ControlUnsupported,
			SetRelays:       ControlUnsupported,
		}
		spec.Samplerate.Single = SamplerateLimits{
			Base: 1e6, Max: 48e6, MaxDownsampler: 10,
			RecordLengths: []uint32{unbounded, 10240},
		}
		spec.Samplerate.Multi = SamplerateLimits{
			Base: 1e6, Max: 48e6, MaxDownsampler: 10,
			RecordLengths: []uint32{unbounded, 20480},
		}
		spec.BufferDividers = []float64{1000, 1, 1}
		spec.GainSteps = []float64{0.08, 0.16, 0.40, 0.80, 1.60, 4.00, 8.0, 16.0, 40.0}
		spec.GainDiv = []byte{10, 10, 10, 10, 10, 2, 2, 2, 1}
		for c := 0; c < ChannelCount; c++ {
			spec.VoltageLimit[c] = []float64{25, 51, 103, 206, 412, 196, 392, 784, 1000}
		}
		spec.SampleSteps = []float64{1e5, 2e5, 5e5, 1e6, 2e6, 4e6, 8e6, 16e6, 24e6, 48e6}
		spec.SampleDiv = []byte{10, 20, 50, 1, 2, 4, 8, 16, 24, 48}
		spec.SampleSize = 8

	default:
		return Specification{}, false
	}

	return spec, true
}
