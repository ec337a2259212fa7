package cli

import (
	"github.com/spf13/cobra"

	"imucast/hardware"
	"imucast/link"
	"imucast/sampler"
)

func RunCmdFlags(cmd *cobra.Command) {
	configFlags(cmd)
	cmd.Flags().StringP("interface", "i", "", "network interface serving the access point")
	cmd.Flags().String("dest", "", "receiver host")
	cmd.Flags().String("bus", "", "I2C bus name, empty for the first bus")
}

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "run samples the sensor chain and streams frames",
	Long: `run brings up the link, configures every sensor once and then streams one
frame per sampling period until interrupted. A sensor that fails to configure
keeps its place in the frame and reports 0.00,0.00,0.00.
The configuration is looked up in this order:
1. path specified in --config flag
2. path defined in the IMUCAST_CONFIG environment variable
3. $HOME/.config/imucast/config.yaml, /etc/imucast/config.yaml, current directory
`,
	Example: `  imucast run --config=/etc/imucast/config.yaml
  imucast run --dest 192.168.4.3 --debug`,
	RunE: runE,
}

func runE(cmd *cobra.Command, _ []string) error {
	cfg, log, err := prepare(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	settings, err := cfg.Sensor.SensorSettings()
	if err != nil {
		return err
	}

	ap := link.AccessPoint{
		Interface:  cfg.Link.Interface,
		SSID:       cfg.Link.SSID,
		Passphrase: cfg.Link.Passphrase,
	}
	if err := ap.Up(log); err != nil {
		return err
	}

	tx, err := link.Bind(cfg.Link.LocalPort, cfg.Link.DestHost, cfg.Link.DestPort)
	if err != nil {
		return err
	}
	defer tx.Close()

	if err := hardware.Init(log); err != nil {
		return err
	}
	bus, err := hardware.OpenBus(cfg.Bus.Name, cfg.Bus.SpeedKHz)
	if err != nil {
		return err
	}
	defer bus.Close()

	mux, err := buildSelector(cfg, bus, hardware.Lines)
	if err != nil {
		return err
	}

	loop, err := sampler.New(sampler.Config{
		Period:        cfg.Sampling.Period,
		Settings:      settings,
		IdleBackoff:   cfg.Sampling.IdleBackoff,
		StatsInterval: cfg.Sampling.StatsInterval,
	}, mux, buildChannels(cfg, bus), tx, log)
	if err != nil {
		return err
	}
	loop.Init()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	log.Info("streaming",
		"bus", bus.String(),
		"channels", len(cfg.Channels),
		"local", tx.LocalAddr().String(),
		"dest", tx.Destination().String(),
		"period", cfg.Sampling.Period,
	)
	loop.Run(ctx)

	st := loop.Stats()
	log.Info("stopped", "sweeps", st.Sweeps, "read_failures", st.ReadFailures)
	return nil
}
