package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hoppxi/ddclight/internal/brightness"
	"github.com/hoppxi/ddclight/pkg/ddc"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitors found on the I2C buses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		displays, err := ddc.Enumerate(ddcOptions(settings))
		if err != nil {
			return err
		}
		if len(displays) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No monitors found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BUS\tMODEL\tSERIAL\tMFR\tBRIGHTNESS")
		for _, d := range displays {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				d.Bus, orDash(d.EDID.Model), orDash(d.EDID.Serial), orDash(d.EDID.Manufacturer), probeColumn(d))
			if err := d.Close(); err != nil {
				logger.Debug("closing monitor", "bus", d.Bus, "error", err)
			}
		}
		return w.Flush()
	},
}

func probeColumn(d *ddc.Display) string {
	cur, max, err := d.ProbeFeature(brightness.FeatureBrightness)
	if err != nil {
		logger.Debug("brightness probe failed", "bus", d.Bus, "error", err)
		return "unsupported"
	}
	return fmt.Sprintf("%d/%d (%d%%)", cur, max, brightness.PercentFromRaw(uint32(cur), uint32(max)))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
