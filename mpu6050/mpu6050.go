// Package mpu6050 reads acceleration from an InvenSense MPU-6050 over I2C.
//
// Only the registers needed for configuration and accelerometer reads are
// implemented. The device answers at ADDRESS when its AD0 pin is low and at
// ADDRESS_ALT when it is high, which is what the select lines exploit.
package mpu6050

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"tinygo.org/x/drivers"

	"imucast/multiplexer"
)

const (
	ADDRESS     = 0x68
	ADDRESS_ALT = 0x69

	WHO_AM_I_VALUE = 0x68

	// m/s² per g
	STANDARD_GRAVITY = 9.80665
)

const (
	regSampleRateDiv = 0x19
	regConfig        = 0x1A
	regGyroConfig    = 0x1B
	regAccelConfig   = 0x1C
	regAccelXOutH    = 0x3B
	regPwrMgmt1      = 0x6B
	regWhoAmI        = 0x75

	pwrDeviceReset = 0x80
	pwrClockPLLX   = 0x01
)

var (
	ErrNotFound     = errors.New("mpu6050: device not found")
	ErrNotReady     = errors.New("mpu6050: not configured")
	ErrInvalidRange = errors.New("mpu6050: invalid setting")
)

type AccelRange uint8

const (
	ACCEL_RANGE_2G AccelRange = iota
	ACCEL_RANGE_4G
	ACCEL_RANGE_8G
	ACCEL_RANGE_16G
)

type GyroRange uint8

const (
	GYRO_RANGE_250 GyroRange = iota
	GYRO_RANGE_500
	GYRO_RANGE_1000
	GYRO_RANGE_2000
)

// Bandwidth is the digital low pass filter setting (DLPF_CFG).
type Bandwidth uint8

const (
	BAND_260_HZ Bandwidth = iota
	BAND_184_HZ
	BAND_94_HZ
	BAND_44_HZ
	BAND_21_HZ
	BAND_10_HZ
	BAND_5_HZ
)

// Settings applied by Configure.
type Settings struct {
	AccelRange      AccelRange
	GyroRange       GyroRange
	FilterBandwidth Bandwidth
}

// DefaultSettings: ±8g, ±500°/s, 5Hz.
func DefaultSettings() Settings {
	return Settings{
		AccelRange:      ACCEL_RANGE_8G,
		GyroRange:       GYRO_RANGE_500,
		FilterBandwidth: BAND_5_HZ,
	}
}

func (s Settings) Validate() error {
	if s.AccelRange > ACCEL_RANGE_16G {
		return fmt.Errorf("%w: accel range %d", ErrInvalidRange, s.AccelRange)
	}
	if s.GyroRange > GYRO_RANGE_2000 {
		return fmt.Errorf("%w: gyro range %d", ErrInvalidRange, s.GyroRange)
	}
	if s.FilterBandwidth > BAND_5_HZ {
		return fmt.Errorf("%w: filter bandwidth %d", ErrInvalidRange, s.FilterBandwidth)
	}
	return nil
}

// LSB per g for each accel range.
var accelSensitivity = [...]float32{16384, 8192, 4096, 2048}

type Device struct {
	bus        multiplexer.Bus
	addr       uint16
	settings   Settings
	configured bool

	// sleep is swapped out in tests
	sleep func(time.Duration)

	raw [3]int16
}

var _ drivers.Sensor = (*Device)(nil)

func New(bus multiplexer.Bus, addr uint16) *Device {
	if addr == 0 {
		addr = ADDRESS
	}
	return &Device{
		bus:   bus,
		addr:  addr,
		sleep: time.Sleep,
	}
}

func (d *Device) Address() uint16 {
	return d.addr
}

// Connected reports whether WHO_AM_I answers with the expected identity.
func (d *Device) Connected() bool {
	id, err := d.readRegister(regWhoAmI)
	return err == nil && id == WHO_AM_I_VALUE
}

// Configure resets the device and applies s. The device must be the one
// currently answering at the configured address.
func (d *Device) Configure(s Settings) error {
	d.configured = false
	if err := s.Validate(); err != nil {
		return err
	}
	if !d.Connected() {
		return ErrNotFound
	}

	if err := d.writeRegister(regPwrMgmt1, pwrDeviceReset); err != nil {
		return fmt.Errorf("mpu6050: reset: %w", err)
	}
	d.sleep(100 * time.Millisecond)

	writes := []struct {
		reg, val uint8
	}{
		{regSampleRateDiv, 0x00},
		{regConfig, uint8(s.FilterBandwidth)},
		{regGyroConfig, uint8(s.GyroRange) << 3},
		{regAccelConfig, uint8(s.AccelRange) << 3},
		{regPwrMgmt1, pwrClockPLLX},
	}
	for _, w := range writes {
		if err := d.writeRegister(w.reg, w.val); err != nil {
			return fmt.Errorf("mpu6050: write 0x%02x: %w", w.reg, err)
		}
	}
	d.sleep(100 * time.Millisecond)

	d.settings = s
	d.configured = true
	return nil
}

// Update refreshes the cached measurements. Only drivers.Acceleration is
// supported; other kinds are ignored.
func (d *Device) Update(which drivers.Measurement) error {
	if which&drivers.Acceleration == 0 {
		return nil
	}
	if !d.configured {
		return ErrNotReady
	}

	var buf [6]byte
	if err := d.bus.Tx(d.addr, []byte{regAccelXOutH}, buf[:]); err != nil {
		return err
	}
	for i := range d.raw {
		d.raw[i] = int16(binary.BigEndian.Uint16(buf[2*i:]))
	}
	return nil
}

// Acceleration returns the cached reading in m/s².
func (d *Device) Acceleration() (x, y, z float32) {
	scale := STANDARD_GRAVITY / accelSensitivity[d.settings.AccelRange]
	return float32(d.raw[0]) * scale, float32(d.raw[1]) * scale, float32(d.raw[2]) * scale
}

// ReadAcceleration updates and returns the acceleration in m/s².
func (d *Device) ReadAcceleration() (x, y, z float32, err error) {
	if err := d.Update(drivers.Acceleration); err != nil {
		return 0, 0, 0, err
	}
	x, y, z = d.Acceleration()
	return x, y, z, nil
}

func (d *Device) readRegister(reg uint8) (uint8, error) {
	var b [1]byte
	if err := d.bus.Tx(d.addr, []byte{reg}, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Device) writeRegister(reg, val uint8) error {
	return d.bus.Tx(d.addr, []byte{reg, val}, nil)
}
