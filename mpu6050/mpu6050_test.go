package mpu6050

import (
	"errors"
	"math"
	"testing"
	"time"

	"tinygo.org/x/drivers"

	"imucast/multiplexer"
)

// fakeBus emulates one MPU-6050 register file at a single address.
type fakeBus struct {
	addr    uint16
	regs    [128]byte
	fail    bool
	written map[uint8]uint8
}

func newFakeBus(addr uint16) *fakeBus {
	b := &fakeBus{addr: addr, written: map[uint8]uint8{}}
	b.regs[regWhoAmI] = WHO_AM_I_VALUE
	return b
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if b.fail || addr != b.addr {
		return errors.New("nack")
	}
	if len(w) == 0 {
		return nil
	}
	reg := w[0]
	if len(w) > 1 {
		b.regs[reg] = w[1]
		b.written[reg] = w[1]
	}
	for i := range r {
		r[i] = b.regs[int(reg)+i]
	}
	return nil
}

func (b *fakeBus) setAccel(x, y, z int16) {
	for i, v := range []int16{x, y, z} {
		b.regs[regAccelXOutH+2*i] = byte(uint16(v) >> 8)
		b.regs[regAccelXOutH+2*i+1] = byte(uint16(v))
	}
}

func newDevice(bus multiplexer.Bus) *Device {
	d := New(bus, 0)
	d.sleep = func(time.Duration) {}
	return d
}

func TestConfigure_WritesSettings(t *testing.T) {
	bus := newFakeBus(ADDRESS)
	d := newDevice(bus)

	if err := d.Configure(DefaultSettings()); err != nil {
		t.Fatalf("Configure err=%v", err)
	}

	want := map[uint8]uint8{
		regConfig:      uint8(BAND_5_HZ),
		regGyroConfig:  uint8(GYRO_RANGE_500) << 3,
		regAccelConfig: uint8(ACCEL_RANGE_8G) << 3,
		regPwrMgmt1:    pwrClockPLLX,
	}
	for reg, val := range want {
		if bus.written[reg] != val {
			t.Fatalf("reg 0x%02x=0x%02x want 0x%02x", reg, bus.written[reg], val)
		}
	}
}

func TestConfigure_NotFound(t *testing.T) {
	// device strapped to the alternate address: deselected
	bus := newFakeBus(ADDRESS_ALT)
	d := newDevice(bus)

	if err := d.Configure(DefaultSettings()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, _, err := d.ReadAcceleration(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestConfigure_InvalidSettings(t *testing.T) {
	d := newDevice(newFakeBus(ADDRESS))
	s := DefaultSettings()
	s.FilterBandwidth = 9

	if err := d.Configure(s); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestReadAcceleration_Scales(t *testing.T) {
	cases := []struct {
		rng  AccelRange
		raw  int16
		want float64
	}{
		{ACCEL_RANGE_2G, 16384, STANDARD_GRAVITY},
		{ACCEL_RANGE_8G, 4096, STANDARD_GRAVITY},
		{ACCEL_RANGE_8G, -2048, -STANDARD_GRAVITY / 2},
		{ACCEL_RANGE_16G, 2048, STANDARD_GRAVITY},
	}

	for _, c := range cases {
		bus := newFakeBus(ADDRESS)
		d := newDevice(bus)
		s := DefaultSettings()
		s.AccelRange = c.rng
		if err := d.Configure(s); err != nil {
			t.Fatalf("Configure err=%v", err)
		}

		bus.setAccel(c.raw, 0, -c.raw)
		x, y, z, err := d.ReadAcceleration()
		if err != nil {
			t.Fatalf("ReadAcceleration err=%v", err)
		}
		if math.Abs(float64(x)-c.want) > 1e-3 || y != 0 || math.Abs(float64(z)+c.want) > 1e-3 {
			t.Fatalf("range=%d raw=%d: got (%v,%v,%v) want x=%v", c.rng, c.raw, x, y, z, c.want)
		}
	}
}

func TestReadAcceleration_BusError(t *testing.T) {
	bus := newFakeBus(ADDRESS)
	d := newDevice(bus)
	if err := d.Configure(DefaultSettings()); err != nil {
		t.Fatalf("Configure err=%v", err)
	}

	bus.fail = true
	if _, _, _, err := d.ReadAcceleration(); err == nil {
		t.Fatalf("expected bus error")
	}
}

func TestUpdate_IgnoresOtherMeasurements(t *testing.T) {
	d := newDevice(newFakeBus(ADDRESS))
	if err := d.Update(drivers.Temperature); err != nil {
		t.Fatalf("Update(Temperature) err=%v", err)
	}
}
