package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hoppxi/ddclight/internal/brightness"
	"github.com/hoppxi/ddclight/internal/manager"
	"github.com/hoppxi/ddclight/internal/metrics"
	"github.com/hoppxi/ddclight/internal/mqtt"
	"github.com/hoppxi/ddclight/internal/watchers"
	"github.com/hoppxi/ddclight/pkg/ddc"
	"github.com/hoppxi/ddclight/pkg/displayinfo"
	"github.com/hoppxi/ddclight/pkg/operation"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Own the monitor and serve brightness commands until stopped",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		socket := manager.SocketPath(settings.Socket)
		if reply, err := manager.SendIPCCommand(socket, "STATUS"); err == nil && strings.HasPrefix(reply, "OK") {
			return fmt.Errorf("daemon already running on %s", socket)
		}

		opts := ddcOptions(settings)
		open := func(device string) (brightness.Backend, error) {
			return brightness.NewDDC(ddc.Enumerator{Options: opts}, device, brightness.WithLogger(logger))
		}
		app := manager.NewAppManager(settings, open, logger)

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		collector := metrics.NewCollector()
		app.AddObserver(collector)
		if listen := settings.Metrics.Listen; listen != "" {
			go func() {
				if err := collector.Serve(ctx, listen, logger); err != nil {
					logger.Error("metrics server failed", "error", err)
				}
			}()
		}

		app.OnChange(func(info *displayinfo.DisplayInfo) {
			if !app.Settings().Notify {
				return
			}
			if err := operation.OSD.Show(info.Level, info.Model); err != nil {
				logger.Debug("osd notification failed", "error", err)
			}
		})

		var bridge *mqtt.Bridge
		if settings.MQTT.Broker != "" {
			b, err := mqtt.Connect(mqttConfig(settings.MQTT), app, logger)
			if err != nil {
				logger.Error("mqtt bridge disabled", "broker", settings.MQTT.Broker, "error", err)
			} else {
				bridge = b
				defer bridge.Close()
				app.OnChange(bridge.PublishState)
			}
		}

		rescan := func() {
			info, err := app.Rescan()
			if err == nil && bridge != nil {
				bridge.PublishState(info)
			}
		}
		rescan()

		if err := app.StartIPCServer(socket); err != nil {
			return err
		}

		app.StartWatcher(func(stop <-chan struct{}) {
			watchers.StartDisplayWatcher(stop, logger, rescan)
		})

		manager.Config.Watch(func(s manager.Settings, err error) {
			if err != nil {
				logger.Warn("ignoring invalid config", "error", err)
				return
			}
			app.UpdateSettings(withFlags(cmd, s))
		})

		logger.Info("daemon started", "socket", socket)
		select {
		case <-ctx.Done():
			logger.Info("received shutdown signal")
		case <-app.Done():
		}

		app.StopAll()
		return nil
	},
}

func mqttConfig(c manager.MQTTConfig) mqtt.Config {
	return mqtt.Config{
		Broker:   c.Broker,
		ClientID: c.ClientID,
		Topic:    c.Topic,
		Username: c.Username,
		Password: c.Password,
		QoS:      c.QoS,
	}
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		response, err := manager.SendIPCCommand(manager.SocketPath(settings.Socket), "STOP")
		if err != nil {
			return fmt.Errorf("%w (is the daemon running?)", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimPrefix(response, "OK: "))
		return nil
	},
}

var rescanCmd = &cobra.Command{
	Use:   "rescan",
	Short: "Make the daemon run monitor discovery again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		response, err := manager.SendIPCCommand(manager.SocketPath(settings.Socket), "RESCAN")
		if err != nil {
			return fmt.Errorf("%w (is the daemon running?)", err)
		}
		info, err := manager.ParseInfoReply(response)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", orDash(info.Model), info.String())
		return nil
	},
}
