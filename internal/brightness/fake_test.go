package brightness

import "errors"

var errBus = errors.New("i2c bus error")

type fakeMonitor struct {
	model    string
	value    uint16
	maximum  uint16
	probeErr error
	writeErr error

	writes []uint16
	closed bool
}

func (m *fakeMonitor) ModelName() string { return m.model }

func (m *fakeMonitor) ProbeFeature(code byte) (uint16, uint16, error) {
	if code != FeatureBrightness {
		return 0, 0, errors.New("unexpected feature")
	}
	if m.probeErr != nil {
		return 0, 0, m.probeErr
	}
	return m.value, m.maximum, nil
}

func (m *fakeMonitor) WriteFeature(code byte, value uint16) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes = append(m.writes, value)
	m.value = value
	return nil
}

func (m *fakeMonitor) Close() error {
	m.closed = true
	return nil
}

type fakeEnumerator struct {
	monitors []Monitor
	err      error
}

func (e fakeEnumerator) Enumerate() ([]Monitor, error) {
	return e.monitors, e.err
}

func newTestDDC(current, max uint16) (*DDC, *fakeMonitor) {
	m := &fakeMonitor{model: "TEST", value: current, maximum: max}
	d, err := NewDDC(fakeEnumerator{monitors: []Monitor{m}}, "")
	if err != nil {
		panic(err)
	}
	return d, m
}
