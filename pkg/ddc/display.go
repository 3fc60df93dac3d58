package ddc

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/hoppxi/ddclight/internal/brightness"
)

// Options tunes bus selection and DDC/CI timing.
type Options struct {
	// Buses restricts enumeration to these bus names ("/dev/i2c-4") or
	// aliases ("I2C4"). Empty means every registered bus.
	Buses []string
	// ReplyDelay is the wait between a request and reading its reply.
	ReplyDelay time.Duration
	// WriteDelay is the wait after a Set VCP Feature request.
	WriteDelay time.Duration
	// Retries is how many extra attempts a Get VCP Feature request gets.
	Retries int

	Logger *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		ReplyDelay: 40 * time.Millisecond,
		WriteDelay: 50 * time.Millisecond,
		Retries:    3,
	}
}

// Display is one monitor reachable over an I2C bus.
type Display struct {
	Bus  string
	EDID EDID

	bus  i2c.BusCloser
	dev  *i2c.Dev
	opts Options
}

// Open wraps bus as a Display after reading its EDID. The bus is left open
// on failure.
func Open(name string, bus i2c.BusCloser, opts Options) (*Display, error) {
	raw := make([]byte, edidBlockLen)
	if err := bus.Tx(AddrEDID, []byte{0x00}, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoEDID, err)
	}

	e, err := ParseEDID(raw)
	if err != nil {
		return nil, err
	}

	return &Display{
		Bus:  name,
		EDID: e,
		bus:  bus,
		dev:  &i2c.Dev{Bus: bus, Addr: AddrDDC},
		opts: opts,
	}, nil
}

func (d *Display) ModelName() string { return d.EDID.Model }

// GetVCPFeature reads a VCP feature, retrying transport and checksum errors.
func (d *Display) GetVCPFeature(code byte) (VCPReply, error) {
	var err error
	for attempt := 0; attempt <= d.opts.Retries; attempt++ {
		var rep VCPReply
		rep, err = d.getVCPFeature(code)
		if err == nil || errors.Is(err, ErrUnsupported) {
			return rep, err
		}
		d.logger().Debug("get vcp feature failed", "bus", d.Bus, "code", code, "attempt", attempt, "error", err)
	}
	return VCPReply{}, err
}

func (d *Display) getVCPFeature(code byte) (VCPReply, error) {
	if err := d.dev.Tx(getVCPRequest(code), nil); err != nil {
		return VCPReply{}, fmt.Errorf("ddc: write get request: %w", err)
	}
	time.Sleep(d.opts.ReplyDelay)

	reply := make([]byte, getReplyLen)
	if err := d.dev.Tx(nil, reply); err != nil {
		return VCPReply{}, fmt.Errorf("ddc: read reply: %w", err)
	}
	return decodeGetVCPReply(code, reply)
}

// SetVCPFeature writes a VCP feature. It is never retried.
func (d *Display) SetVCPFeature(code byte, value uint16) error {
	if err := d.dev.Tx(setVCPRequest(code, value), nil); err != nil {
		return fmt.Errorf("ddc: write set request: %w", err)
	}
	time.Sleep(d.opts.WriteDelay)
	return nil
}

func (d *Display) ProbeFeature(code byte) (uint16, uint16, error) {
	rep, err := d.GetVCPFeature(code)
	if err != nil {
		return 0, 0, err
	}
	return rep.Value, rep.Maximum, nil
}

func (d *Display) WriteFeature(code byte, value uint16) error {
	return d.SetVCPFeature(code, value)
}

func (d *Display) Close() error {
	return d.bus.Close()
}

func (d *Display) logger() *slog.Logger {
	if d.opts.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.opts.Logger
}

// Enumerate opens every registered I2C bus and returns the ones that carry
// a monitor, in bus order.
func Enumerate(opts Options) ([]*Display, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("ddc: init host drivers: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	refs := i2creg.All()
	slices.SortFunc(refs, func(a, b *i2creg.Ref) int { return a.Number - b.Number })

	var displays []*Display
	for _, ref := range refs {
		if !wanted(ref, opts.Buses) {
			continue
		}

		bus, err := ref.Open()
		if err != nil {
			logger.Debug("skipping i2c bus", "bus", ref.Name, "error", err)
			continue
		}

		d, err := Open(ref.Name, bus, opts)
		if err != nil {
			logger.Debug("no monitor on i2c bus", "bus", ref.Name, "error", err)
			_ = bus.Close()
			continue
		}
		displays = append(displays, d)
	}

	return displays, nil
}

func wanted(ref *i2creg.Ref, buses []string) bool {
	if len(buses) == 0 {
		return true
	}
	if slices.Contains(buses, ref.Name) {
		return true
	}
	for _, a := range ref.Aliases {
		if slices.Contains(buses, a) {
			return true
		}
	}
	return false
}

// Enumerator adapts Enumerate to brightness.Enumerator.
type Enumerator struct {
	Options Options
}

func (e Enumerator) Enumerate() ([]brightness.Monitor, error) {
	displays, err := Enumerate(e.Options)
	if err != nil {
		return nil, err
	}

	monitors := make([]brightness.Monitor, len(displays))
	for i, d := range displays {
		monitors[i] = d
	}
	return monitors, nil
}
