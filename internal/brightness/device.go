package brightness

import "io"

// FeatureBrightness is the VCP code of the monitor luminance control.
const FeatureBrightness byte = 0x10

// Handle is the protocol connection to one physical monitor.
type Handle interface {
	ProbeFeature(code byte) (value, maximum uint16, err error)
	WriteFeature(code byte, value uint16) error
}

// Monitor is a display candidate produced by an Enumerator.
type Monitor interface {
	Handle
	io.Closer
	// ModelName returns "" when the monitor does not report one.
	ModelName() string
}

// Enumerator lists the monitors reachable by a transport, in discovery order.
type Enumerator interface {
	Enumerate() ([]Monitor, error)
}

// Device is a monitor selected for brightness control. current always stays
// within [0, max] and max is fixed at selection time.
//
// A Device has no internal locking; callers sharing it between goroutines
// must serialize access.
type Device struct {
	monitor Monitor
	model   string
	current uint32
	max     uint32
}

func newDevice(m Monitor, current, max uint16) *Device {
	cur := uint32(current)
	if cur > uint32(max) {
		cur = uint32(max)
	}
	return &Device{
		monitor: m,
		model:   m.ModelName(),
		current: cur,
		max:     uint32(max),
	}
}

func (d *Device) Model() string   { return d.model }
func (d *Device) Current() uint32 { return d.current }
func (d *Device) Max() uint32     { return d.max }

func (d *Device) Percent() uint32 {
	return PercentFromRaw(d.current, d.max)
}

// SetRaw clamps value to [0, max] and writes it to the monitor. current is
// only updated when the write succeeds.
func (d *Device) SetRaw(value uint32) error {
	clamped := min(value, d.max)

	if err := d.monitor.WriteFeature(FeatureBrightness, uint16(clamped)); err != nil {
		return &WriteError{Value: clamped, Err: err}
	}

	d.current = clamped
	return nil
}

// SetPercent clamps value to [0, 100] and writes the matching raw value.
func (d *Device) SetPercent(value uint32) error {
	return d.SetRaw(RawFromPercent(min(value, 100), d.max))
}

func (d *Device) Close() error {
	return d.monitor.Close()
}
