package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"imucast/config"
	"imucast/logging"
)

var RootCmd = &cobra.Command{
	Use:   "imucast",
	Short: "stream accelerometer frames from an MPU-6050 chain over UDP",
	Long: `imucast samples a chain of MPU-6050 accelerometers sharing one I2C bus and
sends every frame as one UDP datagram. The same binary runs the host side
receiver that scores the posture of the chain.`,
	SilenceUsage: true,
}

func configFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "configuration file path")
	cmd.Flags().Bool("debug", false, "toggle debug logging")
}

// prepare loads the configuration for cmd and installs the logger it names.
func prepare(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.Setup(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func getRootCmd() *cobra.Command {
	RunCmdFlags(RunCmd)
	RootCmd.AddCommand(RunCmd)

	ListenCmdFlags(ListenCmd)
	RootCmd.AddCommand(ListenCmd)

	ScanCmdFlags(ScanCmd)
	RootCmd.AddCommand(ScanCmd)

	ProbeCmdFlags(ProbeCmd)
	RootCmd.AddCommand(ProbeCmd)

	ConsoleCmdFlags(ConsoleCmd)
	RootCmd.AddCommand(ConsoleCmd)

	InitCmdFlags(InitCmd)
	RootCmd.AddCommand(InitCmd)

	return RootCmd
}

func Execute() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
