// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/gotmc/libusb"
	"github.com/hwpl/openhantek/hantek"
	"github.com/hwpl/openhantek/hantek/hantekusb"
)

func main() {
	var (
		vendorID  = flag.Uint("vendor", 0x04b4, "USB vendor ID")
		productID = flag.Uint("product", 0x2090, "USB product ID")
		modelName = flag.String("model", "DSO-2090", "device model (DSO-2090, DSO-2150, DSO-2250, DSO-5200, DSO-5200A, DSO-6022BE)")
		gain      = flag.Float64("gain", 1.0, "volts/div for channel 0")
		samples   = flag.Int("frames", 5, "number of frames to print before exiting")
	)
	flag.Parse()

	model, err := parseModel(*modelName)
	if err != nil {
		log.Fatalf("Unknown model: %s", err)
	}

	ctx, err := libusb.Init()
	if err != nil {
		log.Fatal("Couldn't create USB context. Ending now.")
	}
	defer ctx.Exit()

	transport, err := hantekusb.OpenFirst(ctx, uint16(*vendorID), uint16(*productID))
	if err != nil {
		log.Fatalf("Couldn't open device 0x%04x:0x%04x: %s", *vendorID, *productID, err)
	}
	defer transport.Disconnect()

	signals := &hantek.Signals{
		OnStatusMessage: func(text string, timeoutMS int) {
			log.Printf("status: %s (%d ms)", text, timeoutMS)
		},
		OnCommunicationError: func() {
			log.Print("communication error, stopping")
		},
		OnSamplerateChanged: func(hz float64) {
			log.Printf("samplerate now %.0f Hz", hz)
		},
	}

	controller, err := hantek.New(transport, model, signals)
	if err != nil {
		log.Fatalf("Error creating controller: %s", err)
	}

	if err := controller.SetChannelUsed(0, true); err != nil {
		log.Fatalf("Error enabling channel 0: %s", err)
	}
	if err := controller.SetGain(0, *gain); err != nil {
		log.Fatalf("Error setting gain: %s", err)
	}
	if err := controller.SetTriggerMode(hantek.TriggerModeAuto); err != nil {
		log.Fatalf("Error setting trigger mode: %s", err)
	}

	controller.StartCapture()
	controller.Start()
	defer controller.Stop()

	seen := 0
	for seen < *samples {
		time.Sleep(50 * time.Millisecond)
		data, samplerate, _ := controller.Result().Snapshot()
		if len(data[0]) == 0 {
			continue
		}
		log.Printf("frame %d: %d samples on ch0 @ %.0f Hz, first=%.4f V last=%.4f V",
			seen, len(data[0]), samplerate, data[0][0], data[0][len(data[0])-1])
		seen++
	}
}

func parseModel(name string) (hantek.Model, error) {
	switch strings.ToUpper(name) {
	case "DSO-2090":
		return hantek.ModelDSO2090, nil
	case "DSO-2150":
		return hantek.ModelDSO2150, nil
	case "DSO-2250":
		return hantek.ModelDSO2250, nil
	case "DSO-5200":
		return hantek.ModelDSO5200, nil
	case "DSO-5200A":
		return hantek.ModelDSO5200A, nil
	case "DSO-6022BE":
		return hantek.ModelDSO6022BE, nil
	}
	return 0, &unknownModelError{name}
}

type unknownModelError struct{ name string }

func (e *unknownModelError) Error() string { return e.name }
