package multiplexer

import (
	"errors"
	"fmt"
)

const (
	TCA9548A_ADDR     = 0x70
	TCA9548A_CHANNELS = 8
)

// Bus is the I2C transaction primitive. A periph.io i2c.Bus satisfies it.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

// TCA9548A is an I2C bus switch; one downstream segment is enabled at a time.
type TCA9548A struct {
	bus      Bus
	addr     uint16
	channels int
	selected int
}

func NewTCA9548A(bus Bus, addr uint16, channels int) (*TCA9548A, error) {
	if bus == nil {
		return nil, errors.New("multiplexer: bus required")
	}
	if channels < 1 || channels > TCA9548A_CHANNELS {
		return nil, fmt.Errorf("multiplexer: tca9548a supports 1..%d channels, got %d", TCA9548A_CHANNELS, channels)
	}
	if addr == 0 {
		addr = TCA9548A_ADDR
	}

	m := &TCA9548A{
		bus:      bus,
		addr:     addr,
		channels: channels,
		selected: -1,
	}
	// all segments off
	if err := m.bus.Tx(m.addr, []byte{0x00}, nil); err != nil {
		return nil, fmt.Errorf("multiplexer: tca9548a reset: %w", err)
	}
	return m, nil
}

func (m *TCA9548A) Channels() int {
	return m.channels
}

func (m *TCA9548A) Selected() int {
	return m.selected
}

func (m *TCA9548A) Select(channel int) error {
	if channel < 0 || channel >= m.channels {
		panic(fmt.Sprintf("multiplexer: channel %d out of range [0,%d)", channel, m.channels))
	}
	m.selected = -1
	if err := m.bus.Tx(m.addr, []byte{1 << uint(channel)}, nil); err != nil {
		return fmt.Errorf("multiplexer: tca9548a select %d: %w", channel, err)
	}
	m.selected = channel
	return nil
}
