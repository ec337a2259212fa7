package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"imucast/console"
	"imucast/probe"
)

func ConsoleCmdFlags(cmd *cobra.Command) {
	configFlags(cmd)
	cmd.Flags().StringP("port", "p", "", "serial port, empty picks the first known bridge")
	cmd.Flags().IntP("baud", "b", console.DEFAULT_BAUD, "baud rate")
}

var ConsoleCmd = &cobra.Command{
	Use:   "console",
	Short: "console follows the serial console of a board",
	Long: `console opens the serial port of a board and logs every line it prints, such
as the sensor found / not found report at start up.
`,
	Example: `  imucast console
  imucast console -p /dev/ttyUSB0 -b 115200`,
	RunE: consoleE,
}

func consoleE(cmd *cobra.Command, _ []string) error {
	cfg, log, err := prepare(cmd)
	if err != nil {
		return err
	}

	port := cfg.Console.Port
	if port == "" {
		ports, err := probe.SerialPorts()
		if err != nil {
			return err
		}
		board, ok := probe.Board(ports)
		if !ok {
			return errors.New("no board found, use --port")
		}
		port = board.Name
		log.Info("using board", "port", board.String())
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	return console.Tail(ctx, port, cfg.Console.Baud, log, nil)
}
