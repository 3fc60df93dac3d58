package subscribe

import (
	"log/slog"
	"strings"

	"golang.org/x/sys/unix"
)

// DisplayEvents reports DRM connector changes (monitor plugged, unplugged or
// switched on) from kernel uevents. The channel is closed after stop is
// closed.
func DisplayEvents(stop <-chan struct{}, logger *slog.Logger) <-chan struct{} {
	events := make(chan struct{}, 1)

	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		logger.Warn("subscribe: failed to open netlink socket", "error", err)
		close(events)
		return events
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: 1, // kernel broadcast uevents
	}
	if err := unix.Bind(fd, addr); err != nil {
		logger.Warn("subscribe: failed to bind netlink socket", "error", err)
		unix.Close(fd)
		close(events)
		return events
	}

	// wake up once a second to notice stop
	tv := unix.Timeval{Sec: 1}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		logger.Warn("subscribe: failed to set netlink timeout", "error", err)
	}

	go func() {
		defer close(events)
		defer unix.Close(fd)

		buf := make([]byte, 8192)
		for {
			n, _, err := unix.Recvfrom(fd, buf, 0)
			select {
			case <-stop:
				return
			default:
			}
			if err != nil {
				if err == unix.EAGAIN || err == unix.EINTR || err == unix.ENOBUFS {
					continue
				}
				logger.Warn("subscribe: netlink recv error", "error", err)
				return
			}

			if isDRMChange(string(buf[:n])) {
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()

	return events
}

func isDRMChange(msg string) bool {
	var subsystem, action string
	for part := range strings.SplitSeq(msg, "\x00") {
		if v, ok := strings.CutPrefix(part, "SUBSYSTEM="); ok {
			subsystem = v
		}
		if v, ok := strings.CutPrefix(part, "ACTION="); ok {
			action = v
		}
	}
	return subsystem == "drm" && action == "change"
}
