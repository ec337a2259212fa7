package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"imucast/hardware"
	"imucast/mpu6050"
	"imucast/sampler"
)

func ScanCmdFlags(cmd *cobra.Command) {
	configFlags(cmd)
	cmd.Flags().String("bus", "", "I2C bus name, empty for the first bus")
}

var ScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "scan lists the I2C addresses answering on every channel",
	Long: `scan selects each channel in turn and probes addresses 0x08..0x77.
On a select line board the selected sensor answers at 0x68 and the others at
0x69; on a TCA9548A board only the selected segment is visible.
`,
	Example: `  imucast scan --bus /dev/i2c-1`,
	RunE:    scanE,
}

func scanE(cmd *cobra.Command, _ []string) error {
	cfg, log, err := prepare(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

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

	log.Info("scanning", "bus", bus.String(), "channels", mux.Channels())
	printScan(cmd.OutOrStdout(), cfg.Lines(), sampler.Scan(mux, bus))
	return nil
}

func printScan(w io.Writer, lines []string, results []sampler.ScanResult) {
	for _, res := range results {
		name := ""
		if res.Channel < len(lines) && lines[res.Channel] != "" {
			name = " (" + lines[res.Channel] + ")"
		}
		if res.Err != nil {
			fmt.Fprintf(w, "channel %d%s: select failed: %v\n", res.Channel, name, res.Err)
			continue
		}
		addrs := make([]string, 0, len(res.Addresses))
		sensor := false
		for _, a := range res.Addresses {
			addrs = append(addrs, fmt.Sprintf("0x%02x", a))
			if a == mpu6050.ADDRESS {
				sensor = true
			}
		}
		status := "no sensor"
		if sensor {
			status = "sensor selected"
		}
		fmt.Fprintf(w, "channel %d%s: %s [%s]\n", res.Channel, name, status, strings.Join(addrs, " "))
	}
}
