// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantek

// 6022BE-specific decode constants: the fixed head/tail sample drop
// applied to every interleaved-channel-pair frame, and the raw-byte
// baseline bias the model's ADC carries with no analog offset control
// to compensate for it.
const (
	sixBEHeadDrop = 0x410
	sixBETailDrop = 0x3F0
	sixBEBias     = 0x83
)

// GetSamples reads one frame from the device and, if process is true,
// decodes it into calibrated voltage samples per channel. process is
// false when a frame must be drained but discarded (e.g. immediately
// after arming a capture, before any real sampling has started).
func (c *Controller) GetSamples(process bool) error {
	if c.spec.Model != ModelDSO6022BE {
		req := c.bulkCmd[BulkGetData]
		if req == nil {
			return ErrorUnsupported
		}
		if _, err := c.transport.BulkCommand(req.Bytes(), 1); err != nil {
			return err
		}
	} else {
		cmd := c.controlCmd[ControlAcquireHardData]
		if _, err := c.transport.ControlWrite(int(ControlAcquireHardData), cmd.Bytes()); err != nil {
			return err
		}
	}

	fastRate := c.settings.SamplerateMode == RateMulti
	lengths := c.spec.limits(c.settings.SamplerateMode).RecordLengths
	roll := c.rollModeActive()

	var totalSampleCount uint32
	if roll {
		totalSampleCount = uint32(c.transport.GetPacketSize())
	} else {
		totalSampleCount = lengths[c.settings.RecordLengthID]
	}
	if !fastRate {
		totalSampleCount *= ChannelCount
	}

	if totalSampleCount < c.previousSampleCount {
		totalSampleCount, c.previousSampleCount = c.previousSampleCount, totalSampleCount
	} else {
		c.previousSampleCount = totalSampleCount
	}

	dataLength := int(totalSampleCount)
	if c.spec.SampleSize > 8 {
		dataLength *= 2
	}

	buf := make([]byte, dataLength)
	n, err := c.transport.BulkReadMulti(buf, dataLength)
	if err != nil {
		return err
	}
	buf = buf[:n]

	// The returned byte count is authoritative: a short read truncates
	// the sample count rather than being zero-padded out to the
	// requested length.
	if c.spec.SampleSize > 8 {
		totalSampleCount = uint32(n / 2)
	} else {
		totalSampleCount = uint32(n)
	}

	if !process {
		return nil
	}

	c.result.beginWrite(c.settings.SamplerateCurrent, roll)
	defer c.result.endWrite()

	if fastRate {
		c.decodeFastRate(buf, totalSampleCount)
	} else {
		c.decodeNormal(buf, totalSampleCount)
	}

	c.signals.samplesAvailable()
	return nil
}

// decodeFastRate handles the single-channel, whole-buffer layout: only
// the first used channel carries data, the other channel's buffer is
// cleared.
func (c *Controller) decodeFastRate(buf []byte, totalSampleCount uint32) {
	channel := -1
	for ch := 0; ch < ChannelCount; ch++ {
		if c.settings.Voltage[ch].Used {
			channel = ch
			break
		}
	}
	for ch := 0; ch < ChannelCount; ch++ {
		if ch != channel {
			c.result.setChannel(ch, nil)
		}
	}
	if channel < 0 || len(buf) == 0 {
		return
	}

	// Fast rate reuses the whole buffer for the one active channel, so
	// unlike decodeNormal there is no per-channel divide: sampleCount
	// and totalSampleCount are the same value here.
	sampleCount := totalSampleCount
	if sampleCount == 0 {
		return
	}

	gain := c.settings.Voltage[channel].Gain
	voltageLimit := c.spec.VoltageLimit[channel][gain]
	gainStep := c.spec.GainSteps[gain]
	offsetReal := c.settings.Voltage[channel].OffsetReal
	tenBit := c.spec.SampleSize > 8
	extraBitsSize := c.spec.SampleSize - 8
	extraBitsMask := uint32(0x00FF<<uint(extraBitsSize)) & 0xFF00

	samples := make([]float64, totalSampleCount)
	start := uint32(c.settings.Trigger.Point) * 2

	for i := uint32(0); i < totalSampleCount; i++ {
		bufferPosition := (start + i) % sampleCount
		var raw float64
		if int(bufferPosition) < len(buf) {
			raw = float64(buf[bufferPosition])
		}
		if tenBit {
			extraBitsPosition := int(bufferPosition % ChannelCount)
			highIdx := int(sampleCount) + int(bufferPosition) - extraBitsPosition
			if highIdx >= 0 && highIdx < len(buf) {
				shift := uint(8 - (ChannelCount-1-extraBitsPosition)*extraBitsSize)
				high := (uint32(buf[highIdx]) << shift) & extraBitsMask
				raw += float64(high)
			}
		}
		samples[i] = (raw/voltageLimit - offsetReal) * gainStep
	}
	c.result.setChannel(channel, samples)
}

// decodeNormal handles the interleaved-per-channel layout used whenever
// the single-channel fast-rate mode is not active.
func (c *Controller) decodeNormal(buf []byte, totalSampleCount uint32) {
	sampleCount := totalSampleCount / ChannelCount
	tenBit := c.spec.SampleSize > 8
	is6022BE := c.spec.Model == ModelDSO6022BE

	if is6022BE {
		if sampleCount > sixBEHeadDrop+sixBETailDrop {
			sampleCount -= sixBEHeadDrop + sixBETailDrop
		} else {
			sampleCount = 0
		}
	}

	extraBitsSize := c.spec.SampleSize - 8
	extraBitsMask := uint32(0x00FF<<uint(extraBitsSize)) & 0xFF00

	for ch := 0; ch < ChannelCount; ch++ {
		if !c.settings.Voltage[ch].Used {
			c.result.setChannel(ch, nil)
			continue
		}

		gain := c.settings.Voltage[ch].Gain
		voltageLimit := c.spec.VoltageLimit[ch][gain]
		gainStep := c.spec.GainSteps[gain]
		offsetReal := c.settings.Voltage[ch].OffsetReal

		samples := make([]float64, sampleCount)

		if tenBit {
			// The trigger-offset base position is wrapped on its own,
			// unshifted by the per-channel offset; the low byte reads
			// from the wrapped base plus the offset, the high byte from
			// the wrapped base alone.
			extraBitsIndex := uint(8 - ch*2)
			bufferPosition := uint32(c.settings.Trigger.Point) * 2
			for i := uint32(0); i < sampleCount; i++ {
				if bufferPosition >= totalSampleCount {
					bufferPosition %= totalSampleCount
				}
				lowIdx := bufferPosition + uint32(ChannelCount-1-ch)
				highIdx := totalSampleCount + bufferPosition
				var raw float64
				if int(lowIdx) < len(buf) {
					raw = float64(buf[lowIdx])
				}
				if int(highIdx) < len(buf) {
					high := (uint32(buf[highIdx]) << extraBitsIndex) & extraBitsMask
					raw += float64(high)
				}
				samples[i] = (raw/voltageLimit - offsetReal) * gainStep
				bufferPosition += ChannelCount
			}
		} else {
			bufferPosition := uint32(c.settings.Trigger.Point) * 2
			if is6022BE {
				bufferPosition += uint32(ch) + sixBEHeadDrop*2
			} else {
				bufferPosition += uint32(ChannelCount - 1 - ch)
			}
			for i := uint32(0); i < sampleCount; i++ {
				if bufferPosition >= totalSampleCount {
					bufferPosition %= totalSampleCount
				}
				var raw float64
				if int(bufferPosition) < len(buf) {
					raw = float64(buf[bufferPosition])
				}
				if is6022BE {
					raw -= sixBEBias
					samples[i] = (raw / voltageLimit) * gainStep
				} else {
					samples[i] = (raw/voltageLimit - offsetReal) * gainStep
				}
				bufferPosition += ChannelCount
			}
		}
		c.result.setChannel(ch, samples)
	}
}
