package brightness

import (
	"log/slog"

	"periph.io/x/conn/v3/display"
)

// Backend is a brightness control mechanism. Percent arguments are in
// [0, 100]; floor is the lowest percent a command may settle at.
type Backend interface {
	Current() uint32
	Max() uint32
	Raise(by, floor uint32) error
	Lower(by, floor uint32) error
	Set(value, floor uint32) error
	Close() error
}

// DDC controls a monitor through its DDC/CI brightness feature.
type DDC struct {
	device *Device
	logger *slog.Logger
}

type Option func(*DDC)

func WithLogger(l *slog.Logger) Option {
	return func(d *DDC) { d.logger = l }
}

var (
	_ Backend                  = (*DDC)(nil)
	_ display.DisplayBacklight = (*DDC)(nil)
)

// NewDDC selects a monitor from e, by model name when name is not empty.
// The returned error is a *DeviceNotFoundError.
func NewDDC(e Enumerator, name string, opts ...Option) (*DDC, error) {
	d := &DDC{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(d)
	}

	dev, err := Discover(e, name, d.logger)
	if err != nil {
		return nil, err
	}
	d.device = dev
	return d, nil
}

// NewDDCFromDevice wraps an already selected device.
func NewDDCFromDevice(dev *Device, opts ...Option) *DDC {
	d := &DDC{device: dev, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DDC) Current() uint32 { return d.device.Current() }
func (d *DDC) Max() uint32     { return d.device.Max() }
func (d *DDC) Percent() uint32 { return d.device.Percent() }
func (d *DDC) Model() string   { return d.device.Model() }

func (d *DDC) Raise(by, floor uint32) error {
	max := d.device.Max()
	step := RawFromPercent(by, max)
	candidate := uint32(min(uint64(d.device.Current())+uint64(step), uint64(max)))
	return d.write("raise", candidate, floor)
}

func (d *DDC) Lower(by, floor uint32) error {
	step := RawFromPercent(by, d.device.Max())
	var candidate uint32
	if cur := d.device.Current(); cur > step {
		candidate = cur - step
	}
	return d.write("lower", candidate, floor)
}

func (d *DDC) Set(value, floor uint32) error {
	raw := RawFromPercent(max(value, floor), d.device.Max())
	return d.write("set", raw, 0)
}

// Backlight sets the brightness to intensity percent.
func (d *DDC) Backlight(intensity display.Intensity) error {
	p := int64(intensity)
	if p < 0 {
		p = 0
	}
	return d.Set(uint32(min(p, 100)), 0)
}

func (d *DDC) Close() error {
	return d.device.Close()
}

func (d *DDC) write(op string, candidate, floor uint32) error {
	final := max(candidate, RawFromPercent(floor, d.device.Max()))
	if err := d.device.SetRaw(final); err != nil {
		d.logger.Warn("brightness write failed", "op", op, "value", final, "error", err)
		return err
	}
	d.logger.Debug("brightness updated", "op", op, "current", d.device.Current(), "max", d.device.Max())
	return nil
}
