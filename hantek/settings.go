// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

import (
	"strconv"
	"strings"
)

// This file is the settings store's public control contract (spec
// component E): every exported setter here mutates Settings and marks
// the owning command's pending flag, to be flushed by the controller's
// next tick. All operations require the transport to report connected;
// channel indices and the trigger mode are validated before any state
// changes. Slope and coupling values are not range-checked.

// SetRecordLength selects a record-length preset by index into the
// active rate mode's RecordLengths. If the new length's buffer divider
// differs from the old one, samplerate limits are recomputed and the
// current samplerate/record-time target is re-solved to preserve
// intent.
func (c *Controller) SetRecordLength(i int) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	lengths := c.spec.limits(c.settings.SamplerateMode).RecordLengths
	if i < 0 || i >= len(lengths) {
		return ErrorParameter
	}
	oldDivider := c.spec.BufferDividers[c.settings.RecordLengthID]
	c.settings.RecordLengthID = i
	c.writeRecordLength(i)

	if c.spec.BufferDividers[i] != oldDivider {
		c.updateSamplerateLimits()
		c.restoreTargets()
	}
	c.signals.recordLengthChanged(lengths[i])
	return nil
}

func (c *Controller) writeRecordLength(i int) {
	code := c.spec.Command.SetRecordLength
	switch code {
	case BulkSetTriggerAndSamplerate:
		c.bulkCmd[code].(*bulkSetTriggerAndSamplerate).SetRecordLength(i)
	case BulkDSetBuffer:
		switch c.spec.Model {
		case ModelDSO2250:
			c.bulkCmd[code].(*bulkSetRecordLength2250).SetRecordLength(i)
		case ModelDSO5200, ModelDSO5200A:
			c.bulkCmd[code].(*bulkSetBuffer5200).SetRecordLength(i)
		default:
			return
		}
	default:
		return
	}
	c.markBulkPending(code)
}

// SetSamplerate stores hz as the desired-rate target. Non-6022BE models
// solve for the nearest realisable rate at or above hz, enabling fast
// rate when only one channel is active and hz exceeds the single-channel
// ceiling. The 6022BE instead picks the nearest entry in its discrete
// sample-step table.
func (c *Controller) SetSamplerate(hz float64) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	if hz <= 0 {
		return ErrorParameter
	}
	c.settings.SamplerateTarget = RateTarget{Samplerate: hz, SamplerateSet: true}

	if c.spec.Model == ModelDSO6022BE {
		return c.setSamplerate6022BE(hz)
	}

	divider := c.spec.BufferDividers[c.settings.RecordLengthID]
	fastRate := c.settings.UsedChannels <= 1 && hz > c.spec.limits(RateSingle).Max/divider
	mode := RateSingle
	if fastRate {
		mode = RateMulti
	}
	rate, downsampler := getBestSamplerate(&c.spec, mode, c.settings.RecordLengthID, hz, false)
	if rate == 0 {
		return ErrorParameter
	}
	c.updateSamplerate(downsampler, fastRate)
	return nil
}

func (c *Controller) setSamplerate6022BE(hz float64) error {
	idx := nearestStepIndex(c.spec.SampleSteps, hz)
	if idx < 0 {
		return ErrorParameter
	}
	cmd := c.controlCmd[ControlSetTimeDiv].(*controlSetTimeDiv)
	cmd.SetDiv(c.spec.SampleDiv[idx])
	c.markControlPending(ControlSetTimeDiv)
	c.settings.SamplerateCurrent = c.spec.SampleSteps[idx]
	c.signals.samplerateChanged(c.settings.SamplerateCurrent)
	return nil
}

func nearestStepIndex(steps []float64, target float64) int {
	best := -1
	bestDiff := 0.0
	for i, s := range steps {
		diff := s - target
		if diff < 0 {
			diff = -diff
		}
		if best == -1 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

// SetRecordTime stores seconds as the desired-record-time target and
// solves for the fastest realisable rate that still fits the active
// record length within that duration. On the 6022BE, picks the largest
// sample step whose implied sample count leaves margin for the software
// trigger.
func (c *Controller) SetRecordTime(seconds float64) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	if seconds <= 0 {
		return ErrorParameter
	}
	c.settings.SamplerateTarget = RateTarget{Duration: seconds, SamplerateSet: false}

	if c.spec.Model == ModelDSO6022BE {
		return c.setRecordTime6022BE(seconds)
	}

	lengths := c.spec.limits(c.settings.SamplerateMode).RecordLengths
	recordLength := float64(lengths[c.settings.RecordLengthID])
	maxRate := recordLength / seconds
	divider := c.spec.BufferDividers[c.settings.RecordLengthID]
	fastRate := c.settings.UsedChannels <= 1 && maxRate >= c.spec.limits(RateMulti).Base/divider
	mode := RateSingle
	if fastRate {
		mode = RateMulti
	}
	rate, downsampler := getBestSamplerate(&c.spec, mode, c.settings.RecordLengthID, maxRate, true)
	if rate == 0 {
		return ErrorParameter
	}
	c.updateSamplerate(downsampler, fastRate)
	return nil
}

func (c *Controller) setRecordTime6022BE(seconds float64) error {
	best := -1
	for i, step := range c.spec.SampleSteps {
		if step*seconds >= 10240-2000 {
			continue
		}
		if best == -1 || step > c.spec.SampleSteps[best] {
			best = i
		}
	}
	if best == -1 {
		return ErrorParameter
	}
	cmd := c.controlCmd[ControlSetTimeDiv].(*controlSetTimeDiv)
	cmd.SetDiv(c.spec.SampleDiv[best])
	c.markControlPending(ControlSetTimeDiv)
	c.settings.SamplerateCurrent = c.spec.SampleSteps[best]
	c.signals.samplerateChanged(c.settings.SamplerateCurrent)
	return nil
}

// updateSamplerate writes the solved downsampler/fast-rate pair into
// the model-appropriate command, flips the active rate mode if fast
// rate toggled, recomputes the current rate, re-writes the pretrigger
// position (the divider may have changed its sample-count conversion),
// and emits the change signals.
func (c *Controller) updateSamplerate(downsampler uint32, fastRate bool) {
	mode := RateSingle
	if fastRate {
		mode = RateMulti
	}
	modeChanged := mode != c.settings.SamplerateMode
	c.settings.SamplerateMode = mode
	c.settings.SamplerateDownsampler = downsampler

	divider := c.spec.BufferDividers[c.settings.RecordLengthID]
	limits := c.spec.limits(mode)
	var rate float64
	if downsampler == 0 {
		rate = limits.Max / divider
	} else {
		rate = limits.Base / float64(downsampler) / divider
	}
	c.settings.SamplerateCurrent = rate

	c.writeSamplerate(downsampler, fastRate)
	c.writePretriggerPosition()

	if modeChanged {
		c.updateSamplerateLimits()
	}
	c.signals.availableRecordLengthsChanged(limits.RecordLengths)
	c.signals.recordLengthChanged(limits.RecordLengths[c.settings.RecordLengthID])
	c.signals.samplerateChanged(rate)
	if !c.rollModeActive() {
		c.signals.recordTimeChanged(float64(limits.RecordLengths[c.settings.RecordLengthID]) / rate)
	}
}

func (c *Controller) writeSamplerate(downsampler uint32, fastRate bool) {
	code := c.spec.Command.SetSamplerate
	switch code {
	case BulkSetTriggerAndSamplerate:
		cmd := c.bulkCmd[code].(*bulkSetTriggerAndSamplerate)
		var samplerateID byte
		var word int16
		switch {
		case downsampler == 0:
			samplerateID, word = 0, 0
		case downsampler <= 5:
			samplerateID, word = byte(downsampler), 0
		default:
			samplerateID, word = 0, int16(downsampler)
		}
		cmd.SetSamplerateId(samplerateID)
		cmd.SetDownsampler(word)
		cmd.SetDownsamplingMode(downsampler > 5)
		cmd.SetFastRate(fastRate)
		c.markBulkPending(code)

	case BulkESetTriggerOrSamplerate:
		if c.spec.Model != ModelDSO2250 {
			return
		}
		cmd := c.bulkCmd[code].(*bulkSetSamplerate2250)
		var word uint32
		if downsampler > 1 {
			word = 0x10001 - downsampler
		}
		cmd.SetSamplerate(word)
		cmd.SetDownsampling(downsampler > 1)
		cmd.SetFastRate(fastRate)
		c.markBulkPending(code)

	case BulkCSetTriggerOrSamplerate:
		if c.spec.Model != ModelDSO5200 && c.spec.Model != ModelDSO5200A {
			return
		}
		fast, slow := splitDownsampler5200(downsampler)
		cCmd := c.bulkCmd[code].(*bulkSetSamplerate5200)
		cCmd.SetSamplerateFast(4 - fast)
		if slow == 0 {
			cCmd.SetSamplerateSlow(0)
		} else {
			cCmd.SetSamplerateSlow(0xFFFF - slow)
		}
		c.markBulkPending(code)

		eCmd := c.bulkCmd[BulkESetTriggerOrSamplerate].(*bulkSetTrigger5200)
		eCmd.SetFastRate(fastRate)
		c.markBulkPending(BulkESetTriggerOrSamplerate)
	}
}

// splitDownsampler5200 divides a downsampler value between the 5200's
// 3-bit "fast" field (values 1-4) and 16-bit "slow" field (values above
// 4).
func splitDownsampler5200(d uint32) (fast byte, slow uint16) {
	if d >= 1 && d <= 4 {
		return byte(d), 0
	}
	if d > 0xFFFF {
		d = 0xFFFF
	}
	return 0, uint16(d)
}

// SetChannelUsed toggles whether a channel is captured. This
// recomputes samplerate limits for the new channel count but
// deliberately does not re-solve the current samplerate/record-time
// target, matching the original's behaviour.
func (c *Controller) SetChannelUsed(ch int, used bool) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	if ch < 0 || ch >= ChannelCount {
		return ErrorParameter
	}
	c.settings.Voltage[ch].Used = used

	count := 0
	for i := range c.settings.Voltage {
		if c.settings.Voltage[i].Used {
			count++
		}
	}
	c.settings.UsedChannels = count

	c.writeUsedChannels()
	c.updateSamplerateLimits()
	return nil
}

func (c *Controller) usedChannelsCode() byte {
	ch1 := c.settings.Voltage[0].Used
	ch2 := c.settings.Voltage[1].Used
	switch {
	case ch1 && ch2:
		return 3 // USED_CH1CH2
	case ch2:
		return 2 // USED_CH2 / BUSED_CH2
	default:
		return 1 // USED_CH1
	}
}

func (c *Controller) writeUsedChannels() {
	code := c.spec.Command.SetChannels
	v := c.usedChannelsCode()
	switch code {
	case BulkSetTriggerAndSamplerate:
		c.bulkCmd[code].(*bulkSetTriggerAndSamplerate).SetUsedChannels(v)
	case BulkBSetChannels:
		c.bulkCmd[code].(*bulkSetChannels2250).SetUsedChannels(v)
	case BulkESetTriggerOrSamplerate:
		c.bulkCmd[code].(*bulkSetTrigger5200).SetUsedChannels(v)
	default:
		return
	}
	c.markBulkPending(code)
}

// updateSamplerateLimits re-announces the achievable samplerate bounds
// and available record lengths for the current channel count / rate
// mode. It does not itself change SamplerateMode; that only happens as
// a side effect of updateSamplerate solving a new downsampler.
func (c *Controller) updateSamplerateLimits() {
	c.signals.samplerateLimitsChanged(c.MinSamplerate(), c.MaxSamplerate())
	c.signals.availableRecordLengthsChanged(c.spec.limits(c.settings.SamplerateMode).RecordLengths)
}

// restoreTargets re-solves whichever intent (rate or record time) is
// currently active, called after a buffer-divider change so the user's
// original request is honoured under the new divider.
func (c *Controller) restoreTargets() {
	if c.settings.SamplerateTarget.SamplerateSet {
		c.SetSamplerate(c.settings.SamplerateTarget.Samplerate)
	} else {
		c.SetRecordTime(c.settings.SamplerateTarget.Duration)
	}
}

// SetCoupling sets a channel's input coupling. No-op error on the
// 6022BE, which has no coupling relay.
func (c *Controller) SetCoupling(ch int, coupling Coupling) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	if ch < 0 || ch >= ChannelCount {
		return ErrorParameter
	}
	if c.spec.Model == ModelDSO6022BE {
		return ErrorUnsupported
	}
	cmd := c.controlCmd[ControlSetRelays].(*controlSetRelays)
	cmd.SetCoupling(ch, coupling)
	c.markControlPending(ControlSetRelays)
	return nil
}

// SetGain picks the smallest gainSteps entry at or above voltsPerDiv,
// writes it to the model-appropriate command (bulk SETGAIN plus the two
// gain-range relays, or 6022BE's SETVOLTDIV_CHn), and re-applies the
// channel's offset so it stays correct at the new scale.
func (c *Controller) SetGain(ch int, voltsPerDiv float64) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	if ch < 0 || ch >= ChannelCount {
		return ErrorParameter
	}

	idx := len(c.spec.GainSteps) - 1
	for i, step := range c.spec.GainSteps {
		if step >= voltsPerDiv {
			idx = i
			break
		}
	}
	c.settings.Voltage[ch].Gain = idx

	if c.spec.Model == ModelDSO6022BE {
		code := ControlSetVoltDivCH1
		if ch == 1 {
			code = ControlSetVoltDivCH2
		}
		cmd := c.controlCmd[code].(*controlSetVoltDiv)
		cmd.SetDiv(c.spec.GainDiv[idx])
		c.markControlPending(code)
	} else {
		gainCmd := c.bulkCmd[BulkSetGain].(*bulkSetGain)
		gainCmd.SetGain(ch, c.spec.GainIndex[idx])
		c.markBulkPending(BulkSetGain)

		relays := c.controlCmd[ControlSetRelays].(*controlSetRelays)
		relays.SetBelow1V(ch, idx < 3)
		relays.SetBelow100mV(ch, idx < 6)
		c.markControlPending(ControlSetRelays)
	}

	return c.SetOffset(ch, c.settings.Voltage[ch].Offset)
}

// SetOffset quantises f (a fraction in [0, 1]) against the channel's
// factory (min, max) offset calibration and writes the resulting raw
// word. The quantisation rounds via +0.5 truncation rather than
// round-half-to-even, matching the original firmware's arithmetic
// exactly (see SPEC_FULL.md).
func (c *Controller) SetOffset(ch int, f float64) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	if ch < 0 || ch >= ChannelCount || f < 0 || f > 1 {
		return ErrorParameter
	}

	gain := c.settings.Voltage[ch].Gain
	limit := c.offsetLimits[ch][gain]
	min, max := float64(limit[offsetStart]), float64(limit[offsetEnd])

	value := uint16(f*(max-min) + min + 0.5)
	c.settings.Voltage[ch].Offset = f
	c.settings.Voltage[ch].OffsetReal = (float64(value) - min) / (max - min)

	if c.spec.Model != ModelDSO6022BE {
		cmd := c.controlCmd[ControlSetOffset].(*controlSetOffset)
		cmd.SetChannel(ch, value)
		c.markControlPending(ControlSetOffset)
	}

	if !c.settings.Trigger.Special && c.settings.Trigger.Source == ch {
		c.writeTriggerLevel()
	}
	return nil
}

// SetTriggerMode selects auto/normal/single triggering.
func (c *Controller) SetTriggerMode(m TriggerMode) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	if m < 0 || m >= triggerModeCount {
		return ErrorParameter
	}
	c.settings.Trigger.Mode = m
	return nil
}

// SetTriggerSource selects the trigger channel, or one of the two
// special sources (EXT, EXT/10) when special is true. The encoding is
// asymmetric between device families: the 2090/5200 family encodes
// `special ? 3+id : 1-id`, the 2250 encodes `special ? 0 : 2+id`.
func (c *Controller) SetTriggerSource(special bool, id int) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	if special && (id < 0 || id >= specialTriggerSourceCount) {
		return ErrorParameter
	}
	if !special && (id < 0 || id >= ChannelCount) {
		return ErrorParameter
	}

	c.settings.Trigger.Special = special
	c.settings.Trigger.Source = id

	var value byte
	switch c.spec.samplerateFamily() {
	case family2090, family5200:
		if special {
			value = byte(3 + id)
		} else {
			value = byte(1 - id)
		}
	case family2250:
		if special {
			value = 0
		} else {
			value = byte(2 + id)
		}
	}
	c.writeTriggerSourceByte(value)
	c.writeTriggerLevel()
	return nil
}

func (c *Controller) writeTriggerSourceByte(v byte) {
	code := c.spec.Command.SetTrigger
	switch code {
	case BulkSetTriggerAndSamplerate:
		c.bulkCmd[code].(*bulkSetTriggerAndSamplerate).SetTriggerSource(v)
	case BulkCSetTriggerOrSamplerate:
		c.bulkCmd[code].(*bulkSetTrigger2250).SetTriggerSource(v)
	case BulkESetTriggerOrSamplerate:
		c.bulkCmd[code].(*bulkSetTrigger5200).SetTriggerSource(v)
	default:
		return
	}
	c.markBulkPending(code)
}

// SetTriggerSlope selects the trigger edge polarity.
func (c *Controller) SetTriggerSlope(s Slope) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	c.settings.Trigger.Slope = s

	code := c.spec.Command.SetTrigger
	switch code {
	case BulkSetTriggerAndSamplerate:
		c.bulkCmd[code].(*bulkSetTriggerAndSamplerate).SetTriggerSlope(s)
	case BulkCSetTriggerOrSamplerate:
		c.bulkCmd[code].(*bulkSetTrigger2250).SetTriggerSlope(s)
	case BulkESetTriggerOrSamplerate:
		c.bulkCmd[code].(*bulkSetTrigger5200).SetTriggerSlope(s)
	default:
		return nil
	}
	c.markBulkPending(code)
	return nil
}

// SetTriggerLevel stores the desired trigger voltage for ch. It only
// writes a command when ch is the current (non-special) trigger source;
// otherwise the value is remembered for when it becomes the source.
func (c *Controller) SetTriggerLevel(ch int, volts float64) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	if ch < 0 || ch >= ChannelCount {
		return ErrorParameter
	}
	c.settings.Trigger.Level[ch] = volts
	if !c.settings.Trigger.Special && c.settings.Trigger.Source == ch {
		c.writeTriggerLevel()
	}
	return nil
}

// writeTriggerLevel re-derives the trigger-level word from the current
// trigger source/gain/calibration and writes it. A special trigger
// source (EXT/EXT-10) hard-codes the level word to 0x7f rather than
// deriving it from a channel's calibration table, matching the
// original firmware.
func (c *Controller) writeTriggerLevel() {
	if c.spec.Model == ModelDSO6022BE {
		return
	}

	var value uint16
	if c.settings.Trigger.Special {
		value = 0x7f
	} else {
		ch := c.settings.Trigger.Source
		if ch < 0 || ch >= ChannelCount {
			return
		}
		gain := c.settings.Voltage[ch].Gain
		volts := c.settings.Trigger.Level[ch]
		fraction := volts/c.spec.GainSteps[gain]/2 + 0.5
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		if c.spec.SampleSize > 8 {
			limit := c.offsetLimits[ch][gain]
			min, max := float64(limit[offsetStart]), float64(limit[offsetEnd])
			value = uint16(fraction*(max-min) + min + 0.5)
		} else {
			value = uint16(fraction*0xFD + 0.5)
		}
	}

	cmd := c.controlCmd[ControlSetOffset].(*controlSetOffset)
	cmd.SetTrigger(value)
	c.markControlPending(ControlSetOffset)
}

// SetPretriggerPosition sets how many seconds of waveform to preserve
// before the trigger fires.
func (c *Controller) SetPretriggerPosition(seconds float64) error {
	if !c.transport.IsConnected() {
		return ErrorConnection
	}
	if seconds < 0 {
		return ErrorParameter
	}
	c.settings.Trigger.Position = seconds
	c.writePretriggerPosition()
	return nil
}

// writePretriggerPosition converts the pretrigger position from seconds
// to samples at the current rate and writes it into whichever command
// owns it. The 5200 family is a deliberate exception: its
// CommandBinding.SetPretrigger names BulkESetTriggerOrSamplerate (the
// same discriminant used to switch on the operation) but the value is
// actually written into the BulkDSetBuffer command object, mirroring a
// quirk in the original switch statement (see DESIGN.md, "Other design
// decisions").
func (c *Controller) writePretriggerPosition() {
	if c.settings.SamplerateCurrent <= 0 {
		return
	}
	positionSamples := uint32(c.settings.Trigger.Position * c.settings.SamplerateCurrent)
	recordLength := c.spec.limits(c.settings.SamplerateMode).RecordLengths[c.settings.RecordLengthID]

	switch c.spec.Command.SetPretrigger {
	case BulkSetTriggerAndSamplerate:
		cmd := c.bulkCmd[BulkSetTriggerAndSamplerate].(*bulkSetTriggerAndSamplerate)
		cmd.SetTriggerPosition(0x7FFFF - positionSamples)
		c.markBulkPending(BulkSetTriggerAndSamplerate)

	case BulkFSetBuffer:
		cmd := c.bulkCmd[BulkFSetBuffer].(*bulkSetBuffer2250)
		cmd.SetTriggerPositionPre(0x7FFFF - recordLength + positionSamples)
		cmd.SetTriggerPositionPost(0x7FFFF - positionSamples)
		c.markBulkPending(BulkFSetBuffer)

	case BulkESetTriggerOrSamplerate:
		if c.spec.Model != ModelDSO5200 && c.spec.Model != ModelDSO5200A {
			return
		}
		cmd := c.bulkCmd[BulkDSetBuffer].(*bulkSetBuffer5200)
		cmd.SetUsedPre(true)
		cmd.SetUsedPost(true)
		cmd.SetTriggerPositionPre(uint16(0xFFFF - recordLength + positionSamples))
		cmd.SetTriggerPositionPost(uint16(0xFFFF - positionSamples))
		c.markBulkPending(BulkDSetBuffer)
	}
}

// ForceTrigger marks a manual trigger-force pending for the next tick.
// It does nothing while the transport is not connected.
func (c *Controller) ForceTrigger() {
	if !c.transport.IsConnected() {
		return
	}
	c.markBulkPending(BulkForceTrigger)
}

// StringCommand is the raw diagnostic escape hatch: "send bulk
// <opcode-hex> <byte-hex...>" or "send control <opcode-hex>
// <byte-hex...>" overwrites the named command's buffer and marks it
// pending.
func (c *Controller) StringCommand(s string) error {
	fields := strings.Fields(s)
	if len(fields) < 3 || fields[0] != "send" {
		return ErrorParameter
	}
	opcode, err := strconv.ParseInt(fields[2], 16, 16)
	if err != nil {
		return ErrorParameter
	}
	data := make([]byte, 0, len(fields)-3)
	for _, f := range fields[3:] {
		b, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return ErrorParameter
		}
		data = append(data, byte(b))
	}

	switch fields[1] {
	case "bulk":
		code := BulkCode(opcode)
		if code < 0 || code >= bulkCount || c.bulkCmd[code] == nil {
			return ErrorUnsupported
		}
		copy(c.bulkCmd[code].Bytes(), data)
		c.markBulkPending(code)
	case "control":
		code := ControlCode(opcode)
		if code < 0 || code >= controlCount || c.controlCmd[code] == nil {
			return ErrorUnsupported
		}
		copy(c.controlCmd[code].Bytes(), data)
		c.markControlPending(code)
	default:
		return ErrorParameter
	}
	return nil
}
