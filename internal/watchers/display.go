package watchers

import (
	"log/slog"
	"time"

	"github.com/hoppxi/ddclight/internal/subscribe"
)

// HotplugDebounce is how long connector events must settle before a rescan;
// a single plug usually produces a burst of them.
var HotplugDebounce = time.Second

// StartDisplayWatcher calls rescan after DRM connector changes until stop
// is closed.
func StartDisplayWatcher(stop <-chan struct{}, logger *slog.Logger, rescan func()) {
	watchDisplayEvents(stop, subscribe.DisplayEvents(stop, logger), rescan)
}

func watchDisplayEvents(stop <-chan struct{}, events <-chan struct{}, rescan func()) {
	var pending <-chan time.Time

	for {
		select {
		case <-stop:
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			pending = time.After(HotplugDebounce)
		case <-pending:
			pending = nil
			rescan()
		}
	}
}
