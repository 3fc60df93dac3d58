package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hoppxi/ddclight/internal/brightness"
	"github.com/hoppxi/ddclight/internal/manager"
	"github.com/hoppxi/ddclight/pkg/ddc"
	"github.com/hoppxi/ddclight/pkg/displayinfo"
	"github.com/hoppxi/ddclight/pkg/operation"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current brightness",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var info *displayinfo.DisplayInfo
		if socket, ok := daemonSocket(cmd); ok {
			reply, err := manager.SendIPCCommand(socket, "GET")
			if err != nil {
				return err
			}
			if info, err = manager.ParseInfoReply(reply); err != nil {
				return err
			}
		} else {
			b, err := openDirect()
			if err != nil {
				return err
			}
			defer b.Close()
			info = displayinfo.GetDisplayInfo(b)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd, info)
		}
		fmt.Fprintln(cmd.OutOrStdout(), info.String())
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <percent>",
	Short: "Set the brightness to a percentage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := operation.Parse(args[0])
		if err != nil {
			return err
		}
		if c.Op != operation.OpSet {
			return fmt.Errorf("%w: %q (use raise or lower for relative changes)", operation.ErrInvalidCommand, args[0])
		}
		return runCommand(cmd, c)
	},
}

var raiseCmd = &cobra.Command{
	Use:   "raise [percent]",
	Short: "Raise the brightness by a percentage (default: config step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, err := stepArg(args)
		if err != nil {
			return err
		}
		return runCommand(cmd, operation.Raise(by))
	},
}

var lowerCmd = &cobra.Command{
	Use:   "lower [percent]",
	Short: "Lower the brightness by a percentage (default: config step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, err := stepArg(args)
		if err != nil {
			return err
		}
		return runCommand(cmd, operation.Lower(by))
	},
}

func stepArg(args []string) (uint32, error) {
	if len(args) == 0 {
		return settings.Step, nil
	}
	v, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(args[0]), "%"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", operation.ErrInvalidCommand, args[0])
	}
	return uint32(v), nil
}

func floorFlag(cmd *cobra.Command) (uint32, error) {
	floor := settings.Min
	if cmd.Flags().Changed("min") {
		floor, _ = cmd.Flags().GetUint32("min")
	}
	if floor > 100 {
		return 0, fmt.Errorf("--min must be within 0-100, got %d", floor)
	}
	return floor, nil
}

func runCommand(cmd *cobra.Command, c operation.Command) error {
	floor, err := floorFlag(cmd)
	if err != nil {
		return err
	}

	if socket, ok := daemonSocket(cmd); ok {
		reply, err := manager.SendIPCCommand(socket, fmt.Sprintf("APPLY %s %d", c.String(), floor))
		if err != nil {
			return err
		}
		info, err := manager.ParseInfoReply(reply)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), info.String())
		return nil
	}

	b, err := openDirect()
	if err != nil {
		return err
	}
	defer b.Close()

	if err := c.Apply(b, floor); err != nil {
		return err
	}

	info := displayinfo.GetDisplayInfo(b)
	fmt.Fprintln(cmd.OutOrStdout(), info.String())

	if settings.Notify {
		if err := operation.OSD.Show(info.Level, info.Model); err != nil {
			logger.Debug("osd notification failed", "error", err)
		}
	}
	return nil
}

// daemonSocket reports the daemon's socket when the command should be
// forwarded to it.
func daemonSocket(cmd *cobra.Command) (string, bool) {
	if directFlag || cmd.Flags().Changed("device") {
		return "", false
	}

	socket := manager.SocketPath(settings.Socket)
	reply, err := manager.SendIPCCommand(socket, "STATUS")
	if err != nil || !strings.HasPrefix(reply, "OK") {
		return "", false
	}
	logger.Debug("forwarding to daemon", "socket", socket)
	return socket, true
}

func ddcOptions(s manager.Settings) ddc.Options {
	return ddc.Options{
		Buses:      s.DDC.Buses,
		ReplyDelay: s.DDC.ReplyDelay,
		WriteDelay: s.DDC.WriteDelay,
		Retries:    s.DDC.Retries,
		Logger:     logger,
	}
}

func openDirect() (*brightness.DDC, error) {
	return brightness.NewDDC(ddc.Enumerator{Options: ddcOptions(settings)}, settings.Device, brightness.WithLogger(logger))
}

func printJSON(cmd *cobra.Command, info *displayinfo.DisplayInfo) error {
	data, err := info.JSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	getCmd.Flags().Bool("json", false, "print a JSON document")
	for _, c := range []*cobra.Command{setCmd, raiseCmd, lowerCmd} {
		c.Flags().Uint32("min", 0, "lowest brightness percent to settle at (default: config min)")
	}
}
