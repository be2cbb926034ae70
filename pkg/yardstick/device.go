// Package yardstick talks to a YardStick One (CC1111 running RfCat firmware)
// over its EP5 bulk endpoints.
package yardstick

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

var (
	ErrNoDevice     = errors.New("no YardStick One devices found")
	ErrRecvTimeout  = errors.New("timeout waiting for response")
	ErrShortWrite   = errors.New("short write")
	ErrPingMismatch = errors.New("ping response mismatch")
)

type inEndpoint interface {
	ReadContext(ctx context.Context, buf []byte) (int, error)
}

type outEndpoint interface {
	WriteContext(ctx context.Context, buf []byte) (int, error)
}

// Device represents a YardStick One USB device
type Device struct {
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface
	epIn         inEndpoint
	epOut        outEndpoint

	Serial       string
	Manufacturer string
	Product      string
	Bus          int
	Address      int

	recvMu  sync.Mutex
	recvBuf []byte
}

func isYardStick(desc *gousb.DeviceDesc) bool {
	return desc.Vendor == gousb.ID(VendorID) && desc.Product == gousb.ID(ProductID)
}

// FindAllDevices opens every connected YardStick One.
func FindAllDevices(usb *gousb.Context) ([]*Device, error) {
	usbDevices, err := usb.OpenDevices(isYardStick)
	if err != nil && len(usbDevices) == 0 {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	var devices []*Device
	for _, usbDev := range usbDevices {
		device, err := wrapDevice(usbDev)
		if err != nil {
			usbDev.Close()
			continue
		}
		devices = append(devices, device)
	}
	return devices, nil
}

func wrapDevice(usbDev *gousb.Device) (*Device, error) {
	manufacturer, _ := usbDev.Manufacturer()
	product, _ := usbDev.Product()
	serial, _ := usbDev.SerialNumber()

	usbDev.SetAutoDetach(true)

	config, err := usbDev.Config(1)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}
	iface, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}
	epIn, err := iface.InEndpoint(EP5Number)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get IN endpoint: %w", err)
	}
	epOut, err := iface.OutEndpoint(EP5Number)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get OUT endpoint: %w", err)
	}

	d := &Device{
		usbDevice:    usbDev,
		usbConfig:    config,
		usbInterface: iface,
		epIn:         epIn,
		epOut:        epOut,
		Serial:       serial,
		Manufacturer: manufacturer,
		Product:      product,
		Bus:          usbDev.Desc.Bus,
		Address:      usbDev.Desc.Address,
		recvBuf:      make([]byte, 0, EP5OutBufferSize),
	}
	d.drain()
	return d, nil
}

// Close idles the radio and releases the USB device.
func (d *Device) Close() error {
	if d.epOut != nil {
		// best effort, no response expected
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		d.epOut.WriteContext(ctx, encodeCommand(AppSystem, SysCmdRFMode, []byte{RFSTSidle}))
		cancel()
	}
	if d.usbInterface != nil {
		d.usbInterface.Close()
	}
	if d.usbConfig != nil {
		d.usbConfig.Close()
	}
	if d.usbDevice != nil {
		return d.usbDevice.Close()
	}
	return nil
}

// Reset issues a USB port reset.
func (d *Device) Reset() error {
	if d.usbDevice == nil {
		return ErrNoDevice
	}
	return d.usbDevice.Reset()
}

// drain discards stale responses left by a previous session.
func (d *Device) drain() {
	buf := make([]byte, 512)
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		n, err := d.epIn.ReadContext(ctx, buf)
		cancel()
		if err != nil || n == 0 {
			break
		}
	}
	d.recvBuf = d.recvBuf[:0]
}

func (d *Device) String() string {
	return fmt.Sprintf("%s %s (Serial: %s)", d.Manufacturer, d.Product, d.Serial)
}

// encodeCommand frames app(1) + cmd(1) + length(2 LE) + payload.
func encodeCommand(app, cmd uint8, payload []byte) []byte {
	packet := make([]byte, 4+len(payload))
	packet[0] = app
	packet[1] = cmd
	binary.LittleEndian.PutUint16(packet[2:4], uint16(len(payload)))
	copy(packet[4:], payload)
	return packet
}

// Send writes a command to EP5 and waits for its response.
func (d *Device) Send(app uint8, cmd uint8, payload []byte, timeout time.Duration) ([]byte, error) {
	if timeout == 0 {
		timeout = USBDefaultTimeout
	}
	packet := encodeCommand(app, cmd, payload)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	n, err := d.epOut.WriteContext(ctx, packet)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to write to EP5: %w", err)
	}
	if n != len(packet) {
		return nil, fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(packet))
	}

	return d.Recv(app, cmd, timeout)
}

func transient(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, gousb.ErrorTimeout) ||
		errors.Is(err, gousb.TransferTimedOut) ||
		errors.Is(err, gousb.TransferCancelled)
}

// Recv reads EP5 until a response for app/cmd arrives.
// Response format: '@'(1) + app(1) + cmd(1) + length(2 LE) + payload
func (d *Device) Recv(app uint8, cmd uint8, timeout time.Duration) ([]byte, error) {
	d.recvMu.Lock()
	defer d.recvMu.Unlock()

	if timeout == 0 {
		timeout = USBDefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 512)

	for {
		if payload, ok := d.takeResponse(app, cmd); ok {
			return payload, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: app 0x%02X cmd 0x%02X", ErrRecvTimeout, app, cmd)
		}

		ctx, cancel := context.WithTimeout(context.Background(), min(remaining, usbReadSlice))
		n, err := d.epIn.ReadContext(ctx, buf)
		cancel()
		if err != nil {
			if transient(ctx, err) {
				continue
			}
			return nil, fmt.Errorf("failed to read from EP5: %w", err)
		}
		d.recvBuf = append(d.recvBuf, buf[:n]...)
	}
}

// takeResponse pops the first complete frame for app/cmd from the receive
// buffer. Garbage and frames for other commands ahead of it are dropped.
func (d *Device) takeResponse(app, cmd uint8) ([]byte, bool) {
	for {
		start := -1
		for i, b := range d.recvBuf {
			if b == ResponseMarker {
				start = i
				break
			}
		}
		if start < 0 {
			d.recvBuf = d.recvBuf[:0]
			return nil, false
		}
		data := d.recvBuf[start:]
		if len(data) < 5 {
			d.recvBuf = data
			return nil, false
		}
		total := 5 + int(binary.LittleEndian.Uint16(data[3:5]))
		if len(data) < total {
			d.recvBuf = data
			return nil, false
		}
		if data[1] != app || data[2] != cmd {
			d.recvBuf = data[1:]
			continue
		}
		payload := make([]byte, total-5)
		copy(payload, data[5:total])
		d.recvBuf = append(d.recvBuf[:0], data[total:]...)
		return payload, true
	}
}

// Ping sends data and verifies it is echoed.
func (d *Device) Ping(data []byte) error {
	response, err := d.Send(AppSystem, SysCmdPing, data, USBDefaultTimeout)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if string(response) != string(data) {
		return fmt.Errorf("%w: sent % X, got % X", ErrPingMismatch, data, response)
	}
	return nil
}

// Peek reads bytes from device memory
func (d *Device) Peek(address uint16, length uint16) ([]byte, error) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], length)
	binary.LittleEndian.PutUint16(payload[2:4], address)

	response, err := d.Send(AppSystem, SysCmdPeek, payload, USBDefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("peek failed at 0x%04X: %w", address, err)
	}
	return response, nil
}

// PeekByte reads a single byte from device memory
func (d *Device) PeekByte(address uint16) (uint8, error) {
	data, err := d.Peek(address, 1)
	if err != nil {
		return 0, err
	}
	if len(data) < 1 {
		return 0, fmt.Errorf("peek at 0x%04X returned no data", address)
	}
	return data[0], nil
}

// Poke writes bytes to device memory
func (d *Device) Poke(address uint16, data []byte) error {
	payload := make([]byte, 2+len(data))
	binary.LittleEndian.PutUint16(payload[0:2], address)
	copy(payload[2:], data)

	response, err := d.Send(AppSystem, SysCmdPoke, payload, USBDefaultTimeout)
	if err != nil {
		return fmt.Errorf("poke failed at 0x%04X: %w", address, err)
	}
	if len(response) >= 2 {
		if left := binary.LittleEndian.Uint16(response[0:2]); left != 0 {
			return fmt.Errorf("poke incomplete at 0x%04X: %d bytes left", address, left)
		}
	}
	return nil
}

// PokeByte writes a single byte to device memory
func (d *Device) PokeByte(address uint16, value uint8) error {
	return d.Poke(address, []byte{value})
}

// BuildType returns the firmware build string.
func (d *Device) BuildType() (string, error) {
	response, err := d.Send(AppSystem, SysCmdBuildType, nil, USBDefaultTimeout)
	if err != nil {
		return "", fmt.Errorf("failed to get build type: %w", err)
	}
	for i, b := range response {
		if b == 0 {
			return string(response[:i]), nil
		}
	}
	return string(response), nil
}

// PartNum returns the chip part number.
func (d *Device) PartNum() (uint8, error) {
	response, err := d.Send(AppSystem, SysCmdPartNum, nil, USBDefaultTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to get part number: %w", err)
	}
	if len(response) < 1 {
		return 0, fmt.Errorf("empty part number response")
	}
	return response[0], nil
}
