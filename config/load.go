package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const EnvConfig = "IMUCAST_CONFIG"

var userHomeDir, _ = os.UserHomeDir()

var DefaultConfigSearchPath0 = path.Join(userHomeDir, ".config", DefaultAppName)

const (
	DefaultConfigSearchPath1 = "/etc/" + DefaultAppName
	DefaultConfigSearchPath2 = "./"
)

// flagKeys binds command flags onto config keys when the command defines them.
var flagKeys = map[string]string{
	"debug":     "log.level",
	"interface": "link.interface",
	"dest":      "link.dest_host",
	"bus":       "bus.name",
	"listen":    "receiver.listen",
	"modbus":    "receiver.modbus.endpoint",
	"port":      "console.port",
	"baud":      "console.baud",
}

// Load resolves the configuration for cmd: --config flag, then the
// IMUCAST_CONFIG environment variable, then the search paths. A missing file
// is not an error; defaults apply. IMUCAST_* variables override file values.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if file, err := cmd.Flags().GetString("config"); err == nil && file != "" {
		v.SetConfigFile(file)
	} else if file := os.Getenv(EnvConfig); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigSearchPath0)
		v.AddConfigPath(DefaultConfigSearchPath1)
		v.AddConfigPath(DefaultConfigSearchPath2)
	}

	v.SetEnvPrefix(DefaultAppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if name == "debug" {
			// a boolean flag maps onto the level string
			if on, _ := cmd.Flags().GetBool("debug"); on {
				v.Set(key, "debug")
			}
			continue
		}
		_ = v.BindPFlag(key, f)
	}

	if err := v.ReadInConfig(); err == nil {
		slog.Debug("using config file", "file", v.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
		slog.Debug("no config file found, using defaults")
	}

	cfg := Default()
	// lists present in the file replace the defaults instead of merging
	if v.InConfig("channels") {
		cfg.Channels = nil
	}
	if v.InConfig("receiver.opposite") {
		cfg.Receiver.Opposite = nil
	}
	if v.InConfig("receiver.reference_roll") {
		cfg.Receiver.ReferenceRoll = nil
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every scalar key so environment overrides resolve.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("bus.name", d.Bus.Name)
	v.SetDefault("bus.speed_khz", d.Bus.SpeedKHz)
	v.SetDefault("bus.mux", d.Bus.Mux)
	v.SetDefault("bus.tca9548a_addr", d.Bus.TCA9548AAddr)

	v.SetDefault("sensor.accel_range_g", d.Sensor.AccelRangeG)
	v.SetDefault("sensor.gyro_range_dps", d.Sensor.GyroRangeDPS)
	v.SetDefault("sensor.filter_hz", d.Sensor.FilterHz)

	v.SetDefault("link.interface", d.Link.Interface)
	v.SetDefault("link.ssid", d.Link.SSID)
	v.SetDefault("link.passphrase", d.Link.Passphrase)
	v.SetDefault("link.local_port", d.Link.LocalPort)
	v.SetDefault("link.dest_host", d.Link.DestHost)
	v.SetDefault("link.dest_port", d.Link.DestPort)

	v.SetDefault("sampling.period", d.Sampling.Period)
	v.SetDefault("sampling.idle_backoff", d.Sampling.IdleBackoff)
	v.SetDefault("sampling.stats_interval", d.Sampling.StatsInterval)

	v.SetDefault("receiver.listen", d.Receiver.Listen)
	v.SetDefault("receiver.channels", d.Receiver.Channels)
	v.SetDefault("receiver.mse_threshold", d.Receiver.MSEThreshold)
	v.SetDefault("receiver.print_interval", d.Receiver.PrintInterval)
	v.SetDefault("receiver.modbus.endpoint", d.Receiver.Modbus.Endpoint)
	v.SetDefault("receiver.modbus.unit_id", d.Receiver.Modbus.UnitID)
	v.SetDefault("receiver.modbus.address", d.Receiver.Modbus.Address)
	v.SetDefault("receiver.modbus.timeout", d.Receiver.Modbus.Timeout)

	v.SetDefault("console.port", d.Console.Port)
	v.SetDefault("console.baud", d.Console.Baud)

	v.SetDefault("log.level", d.Log.Level)
}

// Parse decodes a YAML document over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &cfg, nil
}

// Template renders cfg as a YAML document suitable for a config file.
func Template(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// yaml.v2 writes time.Duration as integer nanoseconds but reads "100ms"
// back, so the sections holding durations render them as strings.

func (c SamplingConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Period        string `yaml:"period"`
		IdleBackoff   string `yaml:"idle_backoff"`
		StatsInterval string `yaml:"stats_interval"`
	}{
		Period:        c.Period.String(),
		IdleBackoff:   c.IdleBackoff.String(),
		StatsInterval: c.StatsInterval.String(),
	}, nil
}

func (c ReceiverConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Listen        string       `yaml:"listen"`
		Channels      int          `yaml:"channels"`
		Opposite      []int        `yaml:"opposite"`
		ReferenceRoll []float64    `yaml:"reference_roll"`
		MSEThreshold  float64      `yaml:"mse_threshold"`
		PrintInterval string       `yaml:"print_interval"`
		Modbus        ModbusConfig `yaml:"modbus"`
	}{
		Listen:        c.Listen,
		Channels:      c.Channels,
		Opposite:      c.Opposite,
		ReferenceRoll: c.ReferenceRoll,
		MSEThreshold:  c.MSEThreshold,
		PrintInterval: c.PrintInterval.String(),
		Modbus:        c.Modbus,
	}, nil
}

func (c ModbusConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Endpoint string `yaml:"endpoint"`
		UnitID   uint8  `yaml:"unit_id"`
		Address  uint16 `yaml:"address"`
		Timeout  string `yaml:"timeout"`
	}{
		Endpoint: c.Endpoint,
		UnitID:   c.UnitID,
		Address:  c.Address,
		Timeout:  c.Timeout.String(),
	}, nil
}

// WriteTemplate writes the default configuration to file. An existing file is
// only replaced when overwrite is set.
func WriteTemplate(file string, overwrite bool) error {
	if _, err := os.Stat(file); err == nil && !overwrite {
		return fmt.Errorf("config: %s exists", file)
	}
	data, err := Template(Default())
	if err != nil {
		return err
	}
	if dir := path.Dir(file); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return os.WriteFile(file, data, 0o644)
}
