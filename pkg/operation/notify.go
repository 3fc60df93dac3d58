package operation

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"
	osdTimeoutMs = 1500
)

// OSDController shows brightness changes as a desktop notification.
type OSDController struct {
	mu sync.Mutex
	id uint32
}

var OSD = &OSDController{}

// Show replaces the previous brightness bubble with one for percent.
func (o *OSDController) Show(percent uint32, model string) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect session bus: %w", err)
	}
	defer conn.Close()

	o.mu.Lock()
	defer o.mu.Unlock()

	summary, body, hints := osdMessage(percent, model)
	obj := conn.Object(notifyDest, notifyPath)
	call := obj.Call(notifyMethod, 0,
		"ddclight", o.id, osdIcon(percent), summary, body,
		[]string{}, hints, int32(osdTimeoutMs))

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	o.id = id
	return nil
}

func osdMessage(percent uint32, model string) (string, string, map[string]dbus.Variant) {
	summary := "Brightness"
	if model != "" {
		summary += " · " + model
	}

	hints := map[string]dbus.Variant{
		"value":                           dbus.MakeVariant(int32(percent)),
		"x-canonical-private-synchronous": dbus.MakeVariant("ddclight"),
		"transient":                       dbus.MakeVariant(true),
	}
	return summary, fmt.Sprintf("%d%%", percent), hints
}

func osdIcon(percent uint32) string {
	switch {
	case percent < 34:
		return "display-brightness-low-symbolic"
	case percent < 67:
		return "display-brightness-medium-symbolic"
	default:
		return "display-brightness-high-symbolic"
	}
}
