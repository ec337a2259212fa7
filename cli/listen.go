package cli

import (
	"github.com/spf13/cobra"

	"imucast/modbusmirror"
	"imucast/posture"
	"imucast/receiver"
)

func ListenCmdFlags(cmd *cobra.Command) {
	configFlags(cmd)
	cmd.Flags().StringP("listen", "l", "", "UDP address to receive frames on")
	cmd.Flags().String("modbus", "", "Modbus TCP endpoint to mirror frames to")
}

var ListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "listen receives frames and scores the posture of the chain",
	Long: `listen binds the receiver port, decodes every frame, computes pitch and roll
per sensor and compares the roll profile of the chain with the reference.
With --modbus or receiver.modbus.endpoint set, every frame is also written
to a block of holding registers.
`,
	Example: `  imucast listen
  imucast listen --listen :12345 --modbus 127.0.0.1:502`,
	RunE: listenE,
}

func listenE(cmd *cobra.Command, _ []string) error {
	cfg, log, err := prepare(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateReceiver(); err != nil {
		return err
	}
	rc := cfg.Receiver

	ev := posture.NewEvaluator(rc.Opposite, rc.ReferenceRoll, rc.MSEThreshold)
	rx, err := receiver.Listen(rc.Listen, rc.Channels, ev, log)
	if err != nil {
		return err
	}
	rx.Handle(receiver.NewLogSink(log, rc.PrintInterval))

	if rc.Modbus.Endpoint != "" {
		client, err := modbusmirror.Dial(modbusmirror.Config{
			Endpoint: rc.Modbus.Endpoint,
			Timeout:  rc.Modbus.Timeout,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		rx.Handle(modbusmirror.New(client, rc.Modbus.UnitID, rc.Modbus.Address))
		log.Info("mirroring to modbus", "endpoint", rc.Modbus.Endpoint, "unit", rc.Modbus.UnitID, "address", rc.Modbus.Address)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	log.Info("listening", "addr", rx.LocalAddr().String(), "channels", rc.Channels)
	err = rx.Run(ctx)

	st := rx.Stats()
	log.Info("stopped", "frames", st.Frames, "malformed", st.Malformed, "sink_errors", st.SinkErrors)
	return err
}
