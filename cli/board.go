package cli

import (
	"fmt"

	"imucast/config"
	"imucast/mpu6050"
	"imucast/multiplexer"
	"imucast/sampler"
)

type lineResolver func(names []string) ([]multiplexer.Line, error)

// buildSelector returns the channel selector named by the bus section.
func buildSelector(cfg *config.Config, bus multiplexer.Bus, resolve lineResolver) (multiplexer.Selector, error) {
	switch cfg.Bus.Mux {
	case config.MuxTCA9548A:
		mux, err := multiplexer.NewTCA9548A(bus, cfg.Bus.TCA9548AAddr, len(cfg.Channels))
		if err != nil {
			return nil, err
		}
		return mux, nil
	case config.MuxSelectLines:
		lines, err := resolve(cfg.Lines())
		if err != nil {
			return nil, err
		}
		mux, err := multiplexer.NewSelectLines(lines)
		if err != nil {
			return nil, err
		}
		return mux, nil
	}
	return nil, fmt.Errorf("unknown multiplexer %q", cfg.Bus.Mux)
}

// buildChannels puts one sensor driver on every channel. The selected sensor
// always answers at the primary address.
func buildChannels(cfg *config.Config, bus multiplexer.Bus) []*sampler.Channel {
	sensors := make([]sampler.Sensor, len(cfg.Channels))
	for i := range sensors {
		sensors[i] = mpu6050.New(bus, mpu6050.ADDRESS)
	}
	return sampler.NewChannels(cfg.Lines(), sensors)
}
