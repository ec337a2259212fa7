package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"imucast/probe"
)

func ProbeCmdFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("usb", false, "also list raw USB devices")
}

var ProbeCmd = &cobra.Command{
	Use: "probe",
	SuggestFor: []string{
		"pro", "prob",
	},
	Short: "probe lists serial ports and known USB to UART bridges",
	Long: `probe lists the serial ports of the host and marks those behind a USB to UART
bridge commonly found on sensor boards (CP210x, CH340, FT232R, Espressif USB).
`,
	Example: `  imucast probe
  imucast probe --usb`,
	RunE: probeE,
}

func probeE(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	ports, err := probe.SerialPorts()
	if err != nil {
		return err
	}
	printPorts(out, ports)

	if withUSB, _ := cmd.Flags().GetBool("usb"); withUSB {
		devs, err := probe.USBDevices()
		if err != nil {
			return err
		}
		printUSB(out, devs)
	}
	return nil
}

func printPorts(w io.Writer, ports []probe.Port) {
	fmt.Fprintf(w, "Found %d serial ports:\n", len(ports))
	for _, p := range ports {
		fmt.Fprintf(w, "- %s\n", p)
	}
	if board, ok := probe.Board(ports); ok {
		fmt.Fprintf(w, "Board console: %s\n", board.Name)
	}
}

func printUSB(w io.Writer, devs []probe.USBDevice) {
	fmt.Fprintf(w, "Found %d USB devices:\n", len(devs))
	for _, d := range devs {
		line := fmt.Sprintf("- %04x:%04x %s %s", d.VID, d.PID, d.Manufacturer, d.Product)
		if d.Bridge != "" {
			line += " [" + d.Bridge + "]"
		}
		fmt.Fprintln(w, line)
	}
}
