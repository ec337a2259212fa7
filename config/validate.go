package config

import (
	"errors"
	"fmt"

	"imucast/mpu6050"
)

var (
	accelRanges = map[int]mpu6050.AccelRange{
		2:  mpu6050.ACCEL_RANGE_2G,
		4:  mpu6050.ACCEL_RANGE_4G,
		8:  mpu6050.ACCEL_RANGE_8G,
		16: mpu6050.ACCEL_RANGE_16G,
	}
	gyroRanges = map[int]mpu6050.GyroRange{
		250:  mpu6050.GYRO_RANGE_250,
		500:  mpu6050.GYRO_RANGE_500,
		1000: mpu6050.GYRO_RANGE_1000,
		2000: mpu6050.GYRO_RANGE_2000,
	}
	bandwidths = map[int]mpu6050.Bandwidth{
		260: mpu6050.BAND_260_HZ,
		184: mpu6050.BAND_184_HZ,
		94:  mpu6050.BAND_94_HZ,
		44:  mpu6050.BAND_44_HZ,
		21:  mpu6050.BAND_21_HZ,
		10:  mpu6050.BAND_10_HZ,
		5:   mpu6050.BAND_5_HZ,
	}
)

// SensorSettings maps the human readable sensor section onto register
// settings.
func (s SensorConfig) SensorSettings() (mpu6050.Settings, error) {
	a, ok := accelRanges[s.AccelRangeG]
	if !ok {
		return mpu6050.Settings{}, fmt.Errorf("sensor.accel_range_g %d not one of 2, 4, 8, 16", s.AccelRangeG)
	}
	g, ok := gyroRanges[s.GyroRangeDPS]
	if !ok {
		return mpu6050.Settings{}, fmt.Errorf("sensor.gyro_range_dps %d not one of 250, 500, 1000, 2000", s.GyroRangeDPS)
	}
	b, ok := bandwidths[s.FilterHz]
	if !ok {
		return mpu6050.Settings{}, fmt.Errorf("sensor.filter_hz %d not one of 260, 184, 94, 44, 21, 10, 5", s.FilterHz)
	}
	return mpu6050.Settings{AccelRange: a, GyroRange: g, FilterBandwidth: b}, nil
}

// Validate checks the device side of the configuration. It does not mutate
// the config.
func (c *Config) Validate() error {
	if len(c.Channels) == 0 {
		return errors.New("channels: at least one channel required")
	}

	switch c.Bus.Mux {
	case MuxSelectLines:
		seen := make(map[string]int, len(c.Channels))
		for i, ch := range c.Channels {
			if ch.Line == "" {
				return fmt.Errorf("channels[%d]: line required", i)
			}
			if j, dup := seen[ch.Line]; dup {
				return fmt.Errorf("channels[%d]: line %s already used by channels[%d]", i, ch.Line, j)
			}
			seen[ch.Line] = i
		}
	case MuxTCA9548A:
		if len(c.Channels) > 8 {
			return fmt.Errorf("channels: tca9548a has 8 channels, got %d", len(c.Channels))
		}
		if c.Bus.TCA9548AAddr < 0x70 || c.Bus.TCA9548AAddr > 0x77 {
			return fmt.Errorf("bus.tca9548a_addr 0x%02x out of range 0x70..0x77", c.Bus.TCA9548AAddr)
		}
	default:
		return fmt.Errorf("bus.mux %q must be %s or %s", c.Bus.Mux, MuxSelectLines, MuxTCA9548A)
	}

	if c.Bus.SpeedKHz <= 0 {
		return errors.New("bus.speed_khz must be > 0")
	}

	if _, err := c.Sensor.SensorSettings(); err != nil {
		return err
	}

	if c.Sampling.Period <= 0 {
		return errors.New("sampling.period must be > 0")
	}
	if c.Sampling.IdleBackoff < 0 || c.Sampling.IdleBackoff >= c.Sampling.Period {
		return errors.New("sampling.idle_backoff must be >= 0 and below sampling.period")
	}
	if c.Sampling.StatsInterval < 0 {
		return errors.New("sampling.stats_interval must be >= 0")
	}

	if c.Link.DestHost == "" {
		return errors.New("link.dest_host required")
	}
	if err := checkPort("link.local_port", c.Link.LocalPort, true); err != nil {
		return err
	}
	if err := checkPort("link.dest_port", c.Link.DestPort, false); err != nil {
		return err
	}

	return nil
}

// ValidateReceiver checks the host side sections used by listen.
func (c *Config) ValidateReceiver() error {
	r := c.Receiver
	if r.Listen == "" {
		return errors.New("receiver.listen required")
	}
	if r.Channels < 0 {
		return errors.New("receiver.channels must be >= 0")
	}
	for _, i := range r.Opposite {
		if i < 0 || (r.Channels > 0 && i >= r.Channels) {
			return fmt.Errorf("receiver.opposite: sensor %d out of range", i)
		}
	}
	if len(r.ReferenceRoll) == 1 {
		return errors.New("receiver.reference_roll needs at least 2 points or none")
	}
	if r.MSEThreshold < 0 {
		return errors.New("receiver.mse_threshold must be >= 0")
	}
	if r.PrintInterval < 0 {
		return errors.New("receiver.print_interval must be >= 0")
	}
	if r.Modbus.Endpoint != "" && r.Modbus.Timeout <= 0 {
		return errors.New("receiver.modbus.timeout must be > 0")
	}
	return nil
}

func checkPort(name string, port int, allowZero bool) error {
	if port == 0 && allowZero {
		return nil
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s %d out of range", name, port)
	}
	return nil
}
