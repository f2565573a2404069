// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

// BulkCode indexes the bulk command registry. Its value doubles as the
// slot index into a Controller's command/pending arrays, exactly as the
// original BulkCode enum both names and indexes the C++ command array.
type BulkCode int8

// BulkUnsupported is the sentinel used in a CommandBinding when a model
// has no command implementing that logical operation.
const BulkUnsupported BulkCode = -1

// Bulk opcode slots, also the slot index into a Controller's
// command/pending arrays.
const (
	BulkForceTrigger BulkCode = iota
	BulkStartSampling
	BulkEnableTrigger
	BulkGetData
	BulkGetCaptureState
	BulkSetGain
	BulkSetTriggerAndSamplerate
	BulkBSetChannels
	BulkCSetTriggerOrSamplerate
	BulkDSetBuffer
	BulkESetTriggerOrSamplerate
	BulkFSetBuffer

	bulkCount
)

var bulkNames = map[BulkCode]string{
	BulkForceTrigger:             "FORCETRIGGER",
	BulkStartSampling:            "STARTSAMPLING",
	BulkEnableTrigger:            "ENABLETRIGGER",
	BulkGetData:                  "GETDATA",
	BulkGetCaptureState:          "GETCAPTURESTATE",
	BulkSetGain:                  "SETGAIN",
	BulkSetTriggerAndSamplerate:  "SETTRIGGERANDSAMPLERATE",
	BulkBSetChannels:             "BSETCHANNELS",
	BulkCSetTriggerOrSamplerate:  "CSETTRIGGERORSAMPLERATE",
	BulkDSetBuffer:               "DSETBUFFER",
	BulkESetTriggerOrSamplerate:  "ESETTRIGGERORSAMPLERATE",
	BulkFSetBuffer:               "FSETBUFFER",
}

func (b BulkCode) String() string {
	if name, ok := bulkNames[b]; ok {
		return name
	}
	return "UNSUPPORTED"
}

// ControlCode indexes the control command registry and doubles as the
// wire bRequest value written to the USB control endpoint.
type ControlCode int8

// ControlUnsupported is the sentinel used in a CommandBinding when a
// model has no command implementing that logical operation.
const ControlUnsupported ControlCode = -1

// Control opcode slots.
const (
	ControlSetOffset ControlCode = iota
	ControlSetRelays
	ControlSetVoltDivCH1
	ControlSetVoltDivCH2
	ControlSetTimeDiv
	ControlAcquireHardData

	controlCount
)

// ControlValue identifies a CONTROL_VALUE read sub-request, used only
// for the factory offset-limit calibration table.
type ControlValue uint16

// The single ControlValue this package reads: the factory
// (channel, gain) -> (min, max) offset calibration table.
const ValueOffsetLimits ControlValue = 0x08

// wire bRequest value used for the CONTROL_VALUE style reads (offset
// limits calibration table).
const controlValueRequest = 0xA2

var controlNames = map[ControlCode]string{
	ControlSetOffset:       "SETOFFSET",
	ControlSetRelays:       "SETRELAYS",
	ControlSetVoltDivCH1:   "SETVOLTDIV_CH1",
	ControlSetVoltDivCH2:   "SETVOLTDIV_CH2",
	ControlSetTimeDiv:      "SETTIMEDIV",
	ControlAcquireHardData: "ACQUIIRE_HARD_DATA",
}

func (c ControlCode) String() string {
	if name, ok := controlNames[c]; ok {
		return name
	}
	return "UNSUPPORTED"
}

// TriggerMode selects how the acquisition state machine decides when a
// capture is "done": wait indefinitely, auto-force after a timeout, or
// stop after exactly one capture.
type TriggerMode int

// Trigger modes.
const (
	TriggerModeAuto TriggerMode = iota
	TriggerModeNormal
	TriggerModeSingle
	triggerModeCount
)

// Slope selects the trigger edge polarity.
type Slope int

// Trigger slopes.
const (
	SlopePositive Slope = iota
	SlopeNegative
)

// Coupling selects a channel's input coupling.
type Coupling int

// Channel couplings.
const (
	CouplingDC Coupling = iota
	CouplingAC
)

// CaptureState is the device-reported state of an in-progress block
// capture, as returned by BULK_GETCAPTURESTATE.
type CaptureState int

// Capture states.
const (
	CaptureWaiting CaptureState = iota
	CaptureSampling
	CaptureReady
	CaptureReady2250
	CaptureReady5200
)

// rollStep is the small state enum roll mode cycles through, one step
// per controller tick.
type rollStep int

const (
	rollStartSampling rollStep = iota
	rollEnableTrigger
	rollForceTrigger
	rollGetData
	rollCount
)
