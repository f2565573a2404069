// Copyright (c) 2016 The mccdaq developers. All rights reserved.
// Project site: https://github.com/gotmc/mccdaq
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package hantekusb

import (
	"fmt"

	"github.com/gotmc/libusb"
)

const defaultTimeoutMS = 1000

// LibUSBTransport is the libusb-backed Transport implementation,
// modelled directly on usb1608fsplus.USB1608fsplus: it wraps a claimed
// libusb.Device/DeviceHandle pair and the endpoint descriptors needed
// for bulk and control transfers.
type LibUSBTransport struct {
	Timeout int

	device       *libusb.Device
	handle       *libusb.DeviceHandle
	descriptor   *libusb.DeviceDescriptor
	config       *libusb.ConfigDescriptor
	bulkOutEP    *libusb.EndpointDescriptor
	bulkInEP     *libusb.EndpointDescriptor
	connected    bool
}

// Open claims interface 0 of the given libusb device and classifies its
// bulk endpoints by direction, exactly as
// usb1608fsplus.create/GetFirstDevice do for a single bulk endpoint;
// this protocol needs both directions since commands are written and
// samples are read on separate pipes.
func Open(dev *libusb.Device, handle *libusb.DeviceHandle) (*LibUSBTransport, error) {
	if err := handle.ClaimInterface(0); err != nil {
		return nil, fmt.Errorf("claiming bulk interface: %w", err)
	}

	descriptor, err := dev.GetDeviceDescriptor()
	if err != nil {
		return nil, fmt.Errorf("getting device descriptor: %w", err)
	}
	config, err := dev.GetActiveConfigDescriptor()
	if err != nil {
		return nil, fmt.Errorf("getting active config descriptor: %w", err)
	}

	t := &LibUSBTransport{
		Timeout:    defaultTimeoutMS,
		device:     dev,
		handle:     handle,
		descriptor: descriptor,
		config:     config,
		connected:  true,
	}

	// Bit 7 of bEndpointAddress is the USB-standard direction flag; the
	// device exposes one bulk IN and one bulk OUT endpoint on interface 0.
	const endpointDirectionIn = 0x80
	for _, iface := range config.SupportedInterfaces {
		for _, id := range iface.InterfaceDescriptors {
			for _, ep := range id.EndpointDescriptors {
				if ep.EndpointAddress&endpointDirectionIn != 0 {
					if t.bulkInEP == nil {
						t.bulkInEP = ep
					}
				} else if t.bulkOutEP == nil {
					t.bulkOutEP = ep
				}
			}
		}
	}
	if t.bulkOutEP == nil || t.bulkInEP == nil {
		return nil, fmt.Errorf("device exposes no usable bulk IN/OUT endpoint pair")
	}
	return t, nil
}

// OpenFirst opens the first device on ctx matching vendorID/productID.
func OpenFirst(ctx *libusb.Context, vendorID, productID uint16) (*LibUSBTransport, error) {
	dev, handle, err := ctx.OpenDeviceWithVendorProduct(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("opening device: %w", err)
	}
	return Open(dev, handle)
}

func (t *LibUSBTransport) BulkCommand(buf []byte, retries int) (int, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		n, err := t.handle.BulkTransfer(t.bulkOutEP.EndpointAddress, buf, len(buf), t.Timeout)
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	return t.classifyError(lastErr), lastErr
}

func (t *LibUSBTransport) BulkRead(buf []byte) (int, error) {
	n, err := t.handle.BulkTransfer(t.bulkInEP.EndpointAddress, buf, len(buf), t.Timeout)
	if err != nil {
		return t.classifyError(err), err
	}
	return n, nil
}

func (t *LibUSBTransport) BulkReadMulti(buf []byte, length int) (int, error) {
	total := 0
	for total < length {
		n, err := t.BulkRead(buf[total:length])
		if err != nil {
			return n, err
		}
		if n <= 0 {
			break
		}
		total += n
	}
	return total, nil
}

func (t *LibUSBTransport) ControlRead(op int, buf []byte, length int, value uint16) (int, error) {
	requestType := libusb.BitmapRequestType(
		libusb.DeviceToHost, libusb.Vendor, libusb.DeviceRecipient)
	n, err := t.handle.ControlTransfer(requestType, byte(op), value, 0x0, buf, length, t.Timeout)
	if err != nil {
		return t.classifyError(err), err
	}
	return n, nil
}

func (t *LibUSBTransport) ControlWrite(op int, buf []byte) (int, error) {
	requestType := libusb.BitmapRequestType(
		libusb.HostToDevice, libusb.Vendor, libusb.DeviceRecipient)
	n, err := t.handle.ControlTransfer(requestType, byte(op), 0x0, 0x0, buf, len(buf), t.Timeout)
	if err != nil {
		return t.classifyError(err), err
	}
	return n, nil
}

func (t *LibUSBTransport) GetUniqueModelID() (uint16, error) {
	return t.descriptor.ProductID, nil
}

func (t *LibUSBTransport) GetPacketSize() int {
	return int(t.bulkInEP.MaxPacketSize)
}

func (t *LibUSBTransport) IsConnected() bool { return t.connected }

func (t *LibUSBTransport) Disconnect() error {
	t.connected = false
	if err := t.handle.ReleaseInterface(0); err != nil {
		return err
	}
	t.handle.Close()
	return nil
}

// classifyError maps a failed transfer to the fixed small error-code set
// the engine understands. libusb surfaces a device unplugged mid-transfer
// as a transfer error indistinguishable at this layer from a transient
// stall, so every failure is reported as the retryable ErrIO; only an
// explicit Disconnect marks the transport as gone for good.
func (t *LibUSBTransport) classifyError(err error) int {
	if err == nil {
		return 0
	}
	return ErrIO
}
