package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoppxi/ddclight/internal/logging"
	"github.com/hoppxi/ddclight/internal/manager"
)

var Version = "0.1.0"

var (
	deviceFlag string
	configFlag string
	debugFlag  bool
	directFlag bool

	settings = manager.Defaults()
	logger   = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:          "ddclight",
	Version:      Version,
	Short:        "Control monitor brightness over DDC/CI",
	Long:         "ddclight reads and sets the backlight of external monitors through DDC/CI",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" || cmd.Name() == "help" {
			return nil
		}

		s, err := manager.Config.Load(configFlag)
		if err != nil {
			return err
		}
		settings = withFlags(cmd, s)
		logger = logging.New(settings.Log, Version, debugFlag)
		logger.Debug("config loaded", "path", manager.Config.Path(), "device", settings.Device)
		return nil
	},
}

// withFlags lets command line flags win over the config file.
func withFlags(cmd *cobra.Command, s manager.Settings) manager.Settings {
	if cmd.Flags().Changed("device") {
		s.Device = deviceFlag
	}
	return s
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&deviceFlag, "device", "d", "", "monitor model name (default: first monitor with brightness control)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default: $XDG_CONFIG_HOME/ddclight/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&directFlag, "direct", false, "talk to the monitor directly, never through the daemon")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(raiseCmd)
	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(rescanCmd)
	rootCmd.AddCommand(configCmd)
}
