package hardware

import (
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"imucast/multiplexer"
)

var ErrNoPin = errors.New("hardware: no such pin")

// pinByName is replaced in tests.
var pinByName = func(name string) gpio.PinIO {
	return gpioreg.ByName(name)
}

// Init loads the host drivers. It must run before any bus or pin is opened.
func Init(log *slog.Logger) error {
	state, err := host.Init()
	if err != nil {
		return fmt.Errorf("hardware: host init: %w", err)
	}
	for _, d := range state.Loaded {
		log.Debug("driver loaded", "driver", d.String())
	}
	for _, f := range state.Failed {
		log.Debug("driver failed", "driver", f.D.String(), "err", f.Err)
	}
	return nil
}

// OpenBus opens the named I2C bus (empty picks the first one registered) and
// sets its clock.
func OpenBus(name string, speedKHz int) (i2c.BusCloser, error) {
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("hardware: open i2c %q: %w", name, err)
	}
	if speedKHz > 0 {
		if err := bus.SetSpeed(physic.Frequency(speedKHz) * physic.KiloHertz); err != nil {
			_ = bus.Close()
			return nil, fmt.Errorf("hardware: i2c speed %d kHz: %w", speedKHz, err)
		}
	}
	return bus, nil
}

// Lines resolves select line names to output pins, in order.
func Lines(names []string) ([]multiplexer.Line, error) {
	lines := make([]multiplexer.Line, len(names))
	for i, name := range names {
		p := pinByName(name)
		if p == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoPin, name)
		}
		lines[i] = p
	}
	return lines, nil
}
