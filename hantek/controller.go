// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import (
	"encoding/binary"
	"time"

	"github.com/golang/glog"

	"github.com/hwpl/openhantek/hantek/hantekusb"
)

// Controller drives one physical oscilloscope: it owns the command
// encoders, the desired-state Settings, the decoded-sample Result
// buffer, and the periodic tick that flushes pending commands and
// advances the block-mode/roll-mode capture state machine.
//
// The tick loop started by Start runs on a time.AfterFunc goroutine and
// shares Settings and the pending-command flags with the public setters
// without a lock; Result is the only field safe to read concurrently,
// via its own lock.
type Controller struct {
	transport hantekusb.Transport
	spec      Specification
	signals   *Signals

	settings     Settings
	result       Result
	offsetLimits OffsetLimits

	bulkCmd     [bulkCount]bulkEncoder
	bulkPending [bulkCount]bool

	controlCmd     [controlCount]controlEncoder
	controlPending [controlCount]bool

	sampling        bool
	samplingStarted bool

	rollState    rollStep
	captureState CaptureState

	cycleCounter    int
	startCycle      int
	lastTriggerMode TriggerMode

	previousSampleCount uint32

	stopped bool
	timer   *time.Timer
}

// New builds a Controller for the given model against transport,
// mirroring HantekDsoControl's constructor: it selects the model's
// Specification, allocates that model's command encoders, reads the
// factory offset-calibration table, and seeds Settings with the
// model's default samplerate and record length.
//
// model identifies which row of the specification table to use; this
// package does not resolve a raw USB product id to a Model itself
// (translating vendor IDs is a discovery concern the caller owns, see
// DESIGN.md).
func New(transport hantekusb.Transport, model Model, signals *Signals) (*Controller, error) {
	spec, ok := specificationForModel(model)
	if !ok {
		signals.statusMessage("Unknown model", 0)
		transport.Disconnect()
		return nil, ErrorParameter
	}
	if spec.Experimental {
		warnIfExperimental(model)
	}

	c := &Controller{
		transport: transport,
		spec:      spec,
		signals:   signals,
	}
	c.allocateCommands()

	if err := c.readOffsetLimits(); err != nil {
		glog.Warningf("%s: failed reading offset calibration table: %v", model, err)
	}

	for ch := 0; ch < ChannelCount; ch++ {
		c.settings.Voltage[ch].Used = ch == 0
	}
	c.settings.UsedChannels = 1
	c.settings.RecordLengthID = 1
	c.settings.SamplerateMode = RateSingle

	if len(c.spec.SampleSteps) > 0 {
		c.signals.samplerateSet(1, c.spec.SampleSteps)
	}

	c.updateSamplerateLimits()
	c.SetSamplerate(spec.limits(RateSingle).Max / spec.BufferDividers[c.settings.RecordLengthID])

	return c, nil
}

// allocateCommands instantiates the command encoders this model uses,
// exactly once, matching the original constructor's per-model command
// setup switch.
func (c *Controller) allocateCommands() {
	if c.spec.Model != ModelDSO6022BE {
		c.bulkCmd[BulkForceTrigger] = newBulkForceTrigger()
		c.bulkCmd[BulkStartSampling] = newBulkCaptureStart()
		c.bulkCmd[BulkEnableTrigger] = newBulkTriggerEnabled()
		c.bulkCmd[BulkGetData] = newBulkGetData()
		c.bulkCmd[BulkGetCaptureState] = newBulkGetCaptureState()
		c.bulkCmd[BulkSetGain] = newBulkSetGain()
		c.controlCmd[ControlSetOffset] = newControlSetOffset()
		c.controlCmd[ControlSetRelays] = newControlSetRelays()
	}

	switch c.spec.Model {
	case ModelDSO2090, ModelDSO2150:
		c.bulkCmd[BulkSetTriggerAndSamplerate] = newBulkSetTriggerAndSamplerate()
	case ModelDSO2250:
		c.bulkCmd[BulkBSetChannels] = newBulkSetChannels2250()
		c.bulkCmd[BulkCSetTriggerOrSamplerate] = newBulkSetTrigger2250()
		c.bulkCmd[BulkDSetBuffer] = newBulkSetRecordLength2250()
		c.bulkCmd[BulkESetTriggerOrSamplerate] = newBulkSetSamplerate2250()
		c.bulkCmd[BulkFSetBuffer] = newBulkSetBuffer2250()
	case ModelDSO5200, ModelDSO5200A:
		c.bulkCmd[BulkDSetBuffer] = newBulkSetBuffer5200()
		c.bulkCmd[BulkESetTriggerOrSamplerate] = newBulkSetTrigger5200()
		c.bulkCmd[BulkCSetTriggerOrSamplerate] = newBulkSetSamplerate5200()
	case ModelDSO6022BE:
		c.controlCmd[ControlSetVoltDivCH1] = newControlSetVoltDiv()
		c.controlCmd[ControlSetVoltDivCH2] = newControlSetVoltDiv()
		c.controlCmd[ControlSetTimeDiv] = newControlSetTimeDiv()
		c.controlCmd[ControlAcquireHardData] = newControlAcquireHardData()
	}
}

// readOffsetLimits fetches the factory (channel, gain) -> (min, max)
// offset calibration table via a CONTROL_VALUE/VALUE_OFFSETLIMITS
// read: 2x9 big-endian uint16 pairs, 72 bytes total.
func (c *Controller) readOffsetLimits() error {
	buf := make([]byte, ChannelCount*gainLevels*4)
	n, err := c.transport.ControlRead(controlValueRequest, buf, len(buf), uint16(ValueOffsetLimits))
	if err != nil {
		return err
	}
	if n < len(buf) {
		return ErrorConnection
	}
	for ch := 0; ch < ChannelCount; ch++ {
		for g := 0; g < gainLevels; g++ {
			off := (ch*gainLevels + g) * 4
			c.offsetLimits[ch][g][offsetStart] = binary.BigEndian.Uint16(buf[off : off+2])
			c.offsetLimits[ch][g][offsetEnd] = binary.BigEndian.Uint16(buf[off+2 : off+4])
		}
	}
	return nil
}

// markBulkPending flags a bulk opcode for transmission on the
// controller's next tick.
func (c *Controller) markBulkPending(code BulkCode) {
	if code == BulkUnsupported {
		return
	}
	c.bulkPending[code] = true
}

func (c *Controller) markControlPending(code ControlCode) {
	if code == ControlUnsupported {
		return
	}
	c.controlPending[code] = true
}

// Start begins the self-rescheduling tick loop; it returns immediately
// and runs until a NO_DEVICE error or Stop is observed.
func (c *Controller) Start() {
	c.stopped = false
	c.scheduleNextTick(0)
}

// Stop halts the self-rescheduling tick loop: a scheduled tick that has
// not started yet is cancelled, and a tick already running completes
// without scheduling another.
func (c *Controller) Stop() {
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *Controller) scheduleNextTick(after time.Duration) {
	if c.stopped {
		return
	}
	c.timer = time.AfterFunc(after, func() {
		if c.tick() {
			c.scheduleNextTick(time.Duration(c.cycleTime()) * time.Millisecond)
		}
	})
}

// tick runs one iteration of the acquisition controller: flush pending
// bulk commands, flush pending control commands, then advance the
// block-mode or roll-mode state machine. It returns false if a fatal
// transport error occurred and the loop must not be rescheduled.
func (c *Controller) tick() bool {
	if !c.flushBulk() {
		return false
	}
	if !c.flushControl() {
		return false
	}

	if c.rollModeActive() {
		c.runRollMode()
	} else {
		c.runBlockMode()
	}
	return true
}

func (c *Controller) flushBulk() bool {
	for code := BulkCode(0); code < bulkCount; code++ {
		if !c.bulkPending[code] {
			continue
		}
		enc := c.bulkCmd[code]
		if enc == nil {
			c.bulkPending[code] = false
			continue
		}
		n, err := c.transport.BulkCommand(enc.Bytes(), 1)
		if err == nil && n >= 0 {
			c.bulkPending[code] = false
			continue
		}
		if n == hantekusb.ErrNoDevice {
			c.signals.communicationError()
			return false
		}
		glog.V(1).Infof("bulk command %s failed, retrying next tick: %v", code, err)
	}
	return true
}

func (c *Controller) flushControl() bool {
	for code := ControlCode(0); code < controlCount; code++ {
		if !c.controlPending[code] {
			continue
		}
		enc := c.controlCmd[code]
		if enc == nil {
			c.controlPending[code] = false
			continue
		}
		n, err := c.transport.ControlWrite(int(code), enc.Bytes())
		if err == nil && n >= 0 {
			c.controlPending[code] = false
			continue
		}
		if n == hantekusb.ErrNoDevice {
			c.signals.communicationError()
			return false
		}
		glog.V(1).Infof("control command %s failed, retrying next tick: %v", code, err)
	}
	return true
}

func (c *Controller) rollModeActive() bool {
	lengths := c.spec.limits(c.settings.SamplerateMode).RecordLengths
	if c.settings.RecordLengthID >= len(lengths) {
		return false
	}
	return lengths[c.settings.RecordLengthID] == unbounded
}

// runRollMode advances the small roll-mode step enum by one per tick,
// matching the original's ROLL_STARTSAMPLING -> ROLL_ENABLETRIGGER ->
// ROLL_FORCETRIGGER -> ROLL_GETDATA cycle. captureState is pinned to
// CaptureWaiting throughout roll mode.
func (c *Controller) runRollMode() {
	c.captureState = CaptureWaiting

	switch c.rollState {
	case rollStartSampling:
		if c.sampling {
			c.previousSampleCount = 0
			c.markBulkPending(BulkStartSampling)
			c.samplingStarted = true
			c.signals.samplingStarted()
		}
	case rollEnableTrigger:
		c.markBulkPending(BulkEnableTrigger)
	case rollForceTrigger:
		c.markBulkPending(BulkForceTrigger)
	case rollGetData:
		c.GetSamples(c.samplingStarted)
		if c.settings.Trigger.Mode == TriggerModeSingle && c.sampling {
			c.stopSampling()
		}
		c.samplingStarted = false
	}

	c.rollState = (c.rollState + 1) % rollCount
}

// runBlockMode resets the roll-mode step and polls the device's
// capture state, applying the exact transition table the original
// firmware driver uses, deliberate READY-to-WAITING fall-through
// included.
func (c *Controller) runBlockMode() {
	c.rollState = rollStartSampling

	state, ok := c.getCaptureState()
	if !ok {
		return
	}
	c.captureState = state

	switch state {
	case CaptureReady, CaptureReady2250, CaptureReady5200:
		c.GetSamples(c.samplingStarted)
		if c.settings.Trigger.Mode == TriggerModeSingle && c.sampling {
			c.stopSampling()
		}
		c.samplingStarted = false
		if !c.sampling {
			break
		}
		fallthrough

	case CaptureWaiting:
		c.previousSampleCount = 0

		if c.samplingStarted && c.settings.Trigger.Mode == c.lastTriggerMode {
			c.cycleCounter++

			if c.cycleCounter == c.startCycle && !c.rollModeActive() {
				c.markBulkPending(BulkEnableTrigger)
			} else if c.cycleCounter >= c.startCycle+8 && c.settings.Trigger.Mode == TriggerModeAuto {
				c.markBulkPending(BulkForceTrigger)
			}

			if c.cycleCounter < 20 || c.cycleCounter < 4000/c.cycleTime() {
				break
			}
		}

		c.markBulkPending(BulkStartSampling)
		c.samplingStarted = true
		c.signals.samplingStarted()
		c.cycleCounter = 0
		c.startCycle = int(c.settings.Trigger.Position*1000/float64(c.cycleTime())) + 1
		c.lastTriggerMode = c.settings.Trigger.Mode

	case CaptureSampling:
		// nothing to do; wait for the next poll.
	}
}

func (c *Controller) stopSampling() {
	c.sampling = false
	c.signals.samplingStopped()
}

// StartCapture arms the acquisition loop: the next tick begins issuing
// STARTSAMPLING/ENABLETRIGGER (block mode) or the roll-mode step cycle.
func (c *Controller) StartCapture() {
	c.sampling = true
	c.cycleCounter = 0
	c.startCycle = 0
}

// StopSampling disarms the acquisition loop; an in-flight capture is
// allowed to finish but no further capture is started.
func (c *Controller) StopSampling() {
	c.stopSampling()
}

// getCaptureState issues BULK_GETCAPTURESTATE and decodes its response,
// storing the bit-unfolded trigger point into settings. The 6022BE has
// no bulk commands at all and is always considered ready.
func (c *Controller) getCaptureState() (CaptureState, bool) {
	if c.spec.Model == ModelDSO6022BE {
		return CaptureReady, true
	}

	req := c.bulkCmd[BulkGetCaptureState]
	if req == nil {
		return CaptureWaiting, false
	}
	if _, err := c.transport.BulkCommand(req.Bytes(), 1); err != nil {
		return CaptureWaiting, false
	}

	var resp bulkResponseCaptureState
	n, err := c.transport.BulkRead(resp.Bytes())
	if err != nil || n < resp.Size() {
		return CaptureWaiting, false
	}

	c.settings.Trigger.Point = unfoldTriggerPoint(resp.TriggerPoint())
	return resp.State(), true
}

// unfoldTriggerPoint reverses the oscilloscope's proprietary encoding
// of the intra-buffer trigger offset: each set bit of the accumulating
// result inverts all lower bits.
func unfoldTriggerPoint(v uint16) uint16 {
	result := v
	for bitPos := uint(0); bitPos < 16; bitPos++ {
		bitValue := uint16(1) << bitPos
		if result&bitValue != 0 {
			result ^= bitValue - 1
		}
	}
	return result
}

// cycleTime derives the controller's self-reschedule interval: roughly
// 25% of the expected time to fill one buffer, clamped to [10, 1000] ms.
// Roll mode sizes the estimate off the transport's packet size; block
// mode sizes it off the active record length.
func (c *Controller) cycleTime() int {
	var samples float64
	if c.rollModeActive() {
		samples = float64(c.transport.GetPacketSize())
		if c.settings.SamplerateMode != RateMulti {
			samples /= ChannelCount
		}
	} else {
		lengths := c.spec.limits(c.settings.SamplerateMode).RecordLengths
		if c.settings.RecordLengthID < len(lengths) {
			samples = float64(lengths[c.settings.RecordLengthID])
		}
	}

	if c.settings.SamplerateCurrent <= 0 {
		return 1000
	}

	ms := int(samples / c.settings.SamplerateCurrent * 1000 * 0.25)
	if ms < 10 {
		return 10
	}
	if ms > 1000 {
		return 1000
	}
	return ms
}

// MinSamplerate is always derived from the single-channel limits, since
// the multi-channel (fast-rate) limits only apply with one channel used
// and thus never define the achievable floor.
func (c *Controller) MinSamplerate() float64 {
	single := c.spec.limits(RateSingle)
	return single.Base / float64(single.MaxDownsampler)
}

// MaxSamplerate flips between the multi- and single-channel limits
// depending on whether fast rate is currently available.
func (c *Controller) MaxSamplerate() float64 {
	if c.settings.UsedChannels <= 1 {
		return c.spec.limits(RateMulti).Max
	}
	return c.spec.limits(RateSingle).Max
}

// Settings exposes the controller's current desired state for read-only
// inspection by callers (e.g. a UI binding).
func (c *Controller) Settings() Settings { return c.settings }

// Result returns the decoded-sample output buffer.
func (c *Controller) Result() *Result { return &c.result }
