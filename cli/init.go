package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"imucast/config"
)

func InitCmdFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("print", false, "print config to stdout")
	cmd.Flags().BoolP("yes", "y", false, "overwrite")
	cmd.Flags().StringP("output", "o", filepath.Join(config.DefaultConfigSearchPath0, config.DefaultConfigName+".yaml"), "output path")
}

var InitCmd = &cobra.Command{
	Use: "init",
	SuggestFor: []string{
		"ini", "in",
	},
	Short: "init creates a configuration template",
	Long: `init creates a configuration template holding the defaults.
If --print flag is present, the configuration will be printed to stdout.
Otherwise it is written to --output, $HOME/.config/imucast/config.yaml by default.
An existing file is only replaced with --yes.
`,
	Example: `  imucast init --print
  imucast init -o /etc/imucast/config.yaml -y`,
	RunE: initE,
}

func initE(cmd *cobra.Command, _ []string) error {
	printFlag, _ := cmd.Flags().GetBool("print")
	output, _ := cmd.Flags().GetString("output")
	overwrite, _ := cmd.Flags().GetBool("yes")

	if printFlag {
		data, err := config.Template(config.Default())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := config.WriteTemplate(output, overwrite); err != nil {
		return err
	}
	cmd.Printf("configuration written to %s\n", output)
	return nil
}
