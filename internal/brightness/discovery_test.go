package brightness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectFirstSupportedMonitor(t *testing.T) {
	a := &fakeMonitor{model: "A", probeErr: errors.New("unsupported VCP code")}
	b := &fakeMonitor{model: "B", value: 40, maximum: 80}
	c := &fakeMonitor{model: "C", value: 10, maximum: 100}

	dev, err := Select([]Monitor{a, b, c}, "", nil)
	require.NoError(t, err)

	assert.Equal(t, "B", dev.Model())
	assert.Equal(t, uint32(80), dev.Max())
	assert.Equal(t, uint32(40), dev.Current())
	assert.True(t, a.closed)
	assert.False(t, b.closed)
	assert.True(t, c.closed)
}

func TestSelectByName(t *testing.T) {
	a := &fakeMonitor{model: "DELL U2720Q", value: 70, maximum: 100}
	b := &fakeMonitor{model: "LG HDR 4K", value: 20, maximum: 100}

	dev, err := Select([]Monitor{a, b}, "LG HDR 4K", nil)
	require.NoError(t, err)
	assert.Equal(t, "LG HDR 4K", dev.Model())
	assert.Equal(t, uint32(20), dev.Current())
	assert.True(t, a.closed)
}

func TestSelectNamedMissing(t *testing.T) {
	a := &fakeMonitor{model: "A", value: 1, maximum: 100}

	_, err := Select([]Monitor{a}, "NoSuchModel", nil)
	require.Error(t, err)

	var nf *DeviceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "NoSuchModel", nf.Name)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	assert.True(t, a.closed)
}

func TestSelectNamedUnsupportedDoesNotFallBack(t *testing.T) {
	named := &fakeMonitor{model: "Projector", probeErr: errors.New("unsupported VCP code")}
	other := &fakeMonitor{model: "Other", value: 50, maximum: 100}

	_, err := Select([]Monitor{named, other}, "Projector", nil)

	var nf *DeviceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Projector", nf.Name)
	assert.Empty(t, other.writes)
}

func TestSelectNoneSupported(t *testing.T) {
	a := &fakeMonitor{model: "A", probeErr: errBus}
	b := &fakeMonitor{model: "B", value: 0, maximum: 0}

	_, err := Select([]Monitor{a, b}, "", nil)

	var nf *DeviceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "N/A", nf.Name)
	assert.EqualError(t, err, "requested device 'N/A' does not exist")
}

func TestSelectEmpty(t *testing.T) {
	_, err := Select(nil, "", nil)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestSelectClampsReportedCurrent(t *testing.T) {
	m := &fakeMonitor{model: "odd", value: 120, maximum: 100}

	dev, err := Select([]Monitor{m}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), dev.Current())
}

func TestDiscoverEnumerationError(t *testing.T) {
	cause := errors.New("no i2c host driver")

	_, err := Discover(fakeEnumerator{err: cause}, "", nil)

	assert.ErrorIs(t, err, ErrDeviceNotFound)
	assert.ErrorIs(t, err, cause)
}
