package config

import (
	"time"
)

const (
	DefaultAppName    = "imucast"
	DefaultConfigName = "config"

	DefaultPeriod   = 100 * time.Millisecond
	DefaultPort     = 12345
	DefaultDestHost = "192.168.4.2"
	DefaultSSID     = "ESP32_AP"
	DefaultPass     = "12345678"

	MuxSelectLines = "select-lines"
	MuxTCA9548A    = "tca9548a"
)

type Config struct {
	Bus      BusConfig       `yaml:"bus" mapstructure:"bus"`
	Channels []ChannelConfig `yaml:"channels" mapstructure:"channels"`
	Sensor   SensorConfig    `yaml:"sensor" mapstructure:"sensor"`
	Link     LinkConfig      `yaml:"link" mapstructure:"link"`
	Sampling SamplingConfig  `yaml:"sampling" mapstructure:"sampling"`
	Receiver ReceiverConfig  `yaml:"receiver" mapstructure:"receiver"`
	Console  ConsoleConfig   `yaml:"console" mapstructure:"console"`
	Log      LogConfig       `yaml:"log" mapstructure:"log"`
}

type BusConfig struct {
	Name         string `yaml:"name" mapstructure:"name"` // periph i2creg name, empty = first bus
	SpeedKHz     int    `yaml:"speed_khz" mapstructure:"speed_khz"`
	Mux          string `yaml:"mux" mapstructure:"mux"`
	TCA9548AAddr uint16 `yaml:"tca9548a_addr" mapstructure:"tca9548a_addr"`
}

// ChannelConfig assigns a select line to one sensor position. Channel order
// is list order.
type ChannelConfig struct {
	Line string `yaml:"line" mapstructure:"line"`
}

type SensorConfig struct {
	AccelRangeG  int `yaml:"accel_range_g" mapstructure:"accel_range_g"`
	GyroRangeDPS int `yaml:"gyro_range_dps" mapstructure:"gyro_range_dps"`
	FilterHz     int `yaml:"filter_hz" mapstructure:"filter_hz"`
}

type LinkConfig struct {
	Interface  string `yaml:"interface" mapstructure:"interface"`
	SSID       string `yaml:"ssid" mapstructure:"ssid"`
	Passphrase string `yaml:"passphrase" mapstructure:"passphrase"`
	LocalPort  int    `yaml:"local_port" mapstructure:"local_port"`
	DestHost   string `yaml:"dest_host" mapstructure:"dest_host"`
	DestPort   int    `yaml:"dest_port" mapstructure:"dest_port"`
}

type SamplingConfig struct {
	Period        time.Duration `yaml:"period" mapstructure:"period"`
	IdleBackoff   time.Duration `yaml:"idle_backoff" mapstructure:"idle_backoff"`
	StatsInterval time.Duration `yaml:"stats_interval" mapstructure:"stats_interval"`
}

type ReceiverConfig struct {
	Listen        string        `yaml:"listen" mapstructure:"listen"`
	Channels      int           `yaml:"channels" mapstructure:"channels"` // 0 accepts any count
	Opposite      []int         `yaml:"opposite" mapstructure:"opposite"`
	ReferenceRoll []float64     `yaml:"reference_roll" mapstructure:"reference_roll"`
	MSEThreshold  float64       `yaml:"mse_threshold" mapstructure:"mse_threshold"`
	PrintInterval time.Duration `yaml:"print_interval" mapstructure:"print_interval"`
	Modbus        ModbusConfig  `yaml:"modbus" mapstructure:"modbus"`
}

// ModbusConfig enables the register mirror when Endpoint is set.
type ModbusConfig struct {
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	UnitID   uint8         `yaml:"unit_id" mapstructure:"unit_id"`
	Address  uint16        `yaml:"address" mapstructure:"address"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type ConsoleConfig struct {
	Port string `yaml:"port" mapstructure:"port"`
	Baud int    `yaml:"baud" mapstructure:"baud"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Default mirrors the board this project started on: three sensors, a
// 10 Hz stream to the first DHCP client of the access point.
func Default() Config {
	return Config{
		Bus: BusConfig{
			SpeedKHz:     400,
			Mux:          MuxSelectLines,
			TCA9548AAddr: 0x70,
		},
		Channels: []ChannelConfig{
			{Line: "GPIO17"},
			{Line: "GPIO27"},
			{Line: "GPIO22"},
		},
		Sensor: SensorConfig{
			AccelRangeG:  8,
			GyroRangeDPS: 500,
			FilterHz:     5,
		},
		Link: LinkConfig{
			Interface:  "wlan0",
			SSID:       DefaultSSID,
			Passphrase: DefaultPass,
			LocalPort:  DefaultPort,
			DestHost:   DefaultDestHost,
			DestPort:   DefaultPort,
		},
		Sampling: SamplingConfig{
			Period:        DefaultPeriod,
			StatsInterval: 10 * time.Second,
		},
		Receiver: ReceiverConfig{
			Listen:        ":12345",
			Channels:      3,
			Opposite:      []int{0, 1},
			ReferenceRoll: []float64{14, -10, -7.5, -2.5},
			MSEThreshold:  12,
			PrintInterval: 20 * time.Millisecond,
			Modbus: ModbusConfig{
				UnitID:  1,
				Timeout: time.Second,
			},
		},
		Console: ConsoleConfig{
			Baud: 115200,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Lines returns the select line names in channel order.
func (c *Config) Lines() []string {
	out := make([]string, len(c.Channels))
	for i, ch := range c.Channels {
		out[i] = ch.Line
	}
	return out
}
