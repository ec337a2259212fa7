package multiplexer

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Selector routes the shared bus to one channel at a time.
type Selector interface {
	Select(channel int) error
	Channels() int
}

// Select lines are active low.
const (
	ASSERTED   = gpio.Low
	DEASSERTED = gpio.High
)

// Line is a digital output. periph.io gpio.PinIO satisfies it.
type Line interface {
	Out(l gpio.Level) error
}

// SelectLines drives one discrete select line per channel.
type SelectLines struct {
	lines    []Line
	selected int
}

// NewSelectLines deasserts every line, so no channel is selected until
// Select is called.
func NewSelectLines(lines []Line) (*SelectLines, error) {
	if len(lines) == 0 {
		return nil, errors.New("multiplexer: at least one select line required")
	}

	m := &SelectLines{
		lines:    append([]Line(nil), lines...),
		selected: -1,
	}
	for i, l := range m.lines {
		if l == nil {
			return nil, fmt.Errorf("multiplexer: select line %d is nil", i)
		}
		if err := l.Out(DEASSERTED); err != nil {
			return nil, fmt.Errorf("multiplexer: deassert line %d: %w", i, err)
		}
	}
	return m, nil
}

func (m *SelectLines) Channels() int {
	return len(m.lines)
}

// Selected returns the active channel, or -1 before the first Select.
func (m *SelectLines) Selected() int {
	return m.selected
}

// Select asserts the line of channel and deasserts all others. Other lines
// are released first so two sensors never share the primary address.
func (m *SelectLines) Select(channel int) error {
	if channel < 0 || channel >= len(m.lines) {
		panic(fmt.Sprintf("multiplexer: channel %d out of range [0,%d)", channel, len(m.lines)))
	}

	m.selected = -1
	for i, l := range m.lines {
		if i == channel {
			continue
		}
		if err := l.Out(DEASSERTED); err != nil {
			return fmt.Errorf("multiplexer: deassert line %d: %w", i, err)
		}
	}
	if err := m.lines[channel].Out(ASSERTED); err != nil {
		return fmt.Errorf("multiplexer: assert line %d: %w", channel, err)
	}
	m.selected = channel
	return nil
}
