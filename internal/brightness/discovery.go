package brightness

import (
	"errors"
	"log/slog"
)

// noDeviceName is reported when no device name was requested and no
// monitor supports brightness control.
const noDeviceName = "N/A"

// Discover enumerates monitors and selects one, see Select.
func Discover(e Enumerator, name string, logger *slog.Logger) (*Device, error) {
	monitors, err := e.Enumerate()
	if err != nil {
		return nil, &DeviceNotFoundError{Name: requestedName(name), Err: err}
	}
	return Select(monitors, name, logger)
}

// Select picks the monitor to control from candidates.
//
// With a name, only the monitor whose model name matches exactly is
// considered; if it does not answer the brightness probe the selection fails
// rather than falling back to another display. Without a name, the first
// monitor answering the probe wins.
//
// Candidates that are not selected are closed.
func Select(candidates []Monitor, name string, logger *slog.Logger) (*Device, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var dev *Device
	for i, m := range candidates {
		if name != "" && m.ModelName() != name {
			continue
		}

		cur, max, err := probe(m)
		if err != nil {
			logger.Debug("brightness probe failed", "index", i, "model", m.ModelName(), "error", err)
			if name != "" {
				break
			}
			continue
		}

		logger.Debug("monitor selected", "index", i, "model", m.ModelName(), "current", cur, "max", max)
		dev = newDevice(m, cur, max)
		candidates = append(candidates[:i:i], candidates[i+1:]...)
		break
	}

	release(candidates, logger)

	if dev == nil {
		return nil, &DeviceNotFoundError{Name: requestedName(name)}
	}
	return dev, nil
}

var errZeroRange = errors.New("brightness range is zero")

func probe(m Monitor) (current, max uint16, err error) {
	current, max, err = m.ProbeFeature(FeatureBrightness)
	if err != nil {
		return 0, 0, err
	}
	if max == 0 {
		return 0, 0, errZeroRange
	}
	return current, max, nil
}

func release(monitors []Monitor, logger *slog.Logger) {
	for _, m := range monitors {
		if err := m.Close(); err != nil {
			logger.Debug("closing unused monitor", "model", m.ModelName(), "error", err)
		}
	}
}

func requestedName(name string) string {
	if name == "" {
		return noDeviceName
	}
	return name
}
