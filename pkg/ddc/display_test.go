package ddc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/hoppxi/ddclight/internal/brightness"
)

func testOptions() Options {
	return Options{Retries: 1}
}

func edidOp(model string) i2ctest.IO {
	return i2ctest.IO{Addr: AddrEDID, W: []byte{0x00}, R: testEDID(model, "")}
}

func TestOpenReadsModel(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{edidOp("DELL U2720Q")}, DontPanic: true}

	d, err := Open("/dev/i2c-4", bus, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "DELL U2720Q", d.ModelName())
	assert.Equal(t, "/dev/i2c-4", d.Bus)
	require.NoError(t, d.Close())
}

func TestOpenWithoutEDID(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: AddrEDID, W: []byte{0x00}, R: make([]byte, edidBlockLen)},
	}, DontPanic: true}

	_, err := Open("/dev/i2c-1", bus, testOptions())
	assert.ErrorIs(t, err, ErrNoEDID)
}

func TestProbeFeature(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		edidOp("B"),
		{Addr: AddrDDC, W: getVCPRequest(0x10)},
		{Addr: AddrDDC, R: vcpReply(0x00, 0x10, 80, 40)},
	}, DontPanic: true}

	d, err := Open("/dev/i2c-3", bus, testOptions())
	require.NoError(t, err)

	cur, max, err := d.ProbeFeature(brightness.FeatureBrightness)
	require.NoError(t, err)
	assert.Equal(t, uint16(40), cur)
	assert.Equal(t, uint16(80), max)
	require.NoError(t, d.Close())
}

func TestProbeFeatureRetriesChecksum(t *testing.T) {
	corrupt := vcpReply(0x00, 0x10, 100, 70)
	corrupt[10] ^= 0x01

	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		edidOp("M"),
		{Addr: AddrDDC, W: getVCPRequest(0x10)},
		{Addr: AddrDDC, R: corrupt},
		{Addr: AddrDDC, W: getVCPRequest(0x10)},
		{Addr: AddrDDC, R: vcpReply(0x00, 0x10, 100, 70)},
	}, DontPanic: true}

	d, err := Open("/dev/i2c-3", bus, testOptions())
	require.NoError(t, err)

	cur, _, err := d.ProbeFeature(0x10)
	require.NoError(t, err)
	assert.Equal(t, uint16(70), cur)
	require.NoError(t, d.Close())
}

func TestProbeFeatureUnsupportedIsNotRetried(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		edidOp("TV"),
		{Addr: AddrDDC, W: getVCPRequest(0x10)},
		{Addr: AddrDDC, R: vcpReply(0x01, 0x10, 0, 0)},
	}, DontPanic: true}

	d, err := Open("/dev/i2c-5", bus, testOptions())
	require.NoError(t, err)

	_, _, err = d.ProbeFeature(0x10)
	assert.ErrorIs(t, err, ErrUnsupported)
	require.NoError(t, d.Close())
}

func TestWriteFeature(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		edidOp("B"),
		{Addr: AddrDDC, W: setVCPRequest(0x10, 55)},
	}, DontPanic: true}

	d, err := Open("/dev/i2c-3", bus, testOptions())
	require.NoError(t, err)

	require.NoError(t, d.WriteFeature(0x10, 55))
	require.NoError(t, d.Close())
}

func TestWriteFeatureBusError(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{edidOp("B")}, DontPanic: true}

	d, err := Open("/dev/i2c-3", bus, testOptions())
	require.NoError(t, err)

	assert.Error(t, d.WriteFeature(0x10, 55))
}

func TestDisplayDrivesBrightnessBackend(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		edidOp("B"),
		{Addr: AddrDDC, W: getVCPRequest(0x10)},
		{Addr: AddrDDC, R: vcpReply(0x00, 0x10, 100, 50)},
		{Addr: AddrDDC, W: setVCPRequest(0x10, 60)},
	}, DontPanic: true}

	d, err := Open("/dev/i2c-3", bus, testOptions())
	require.NoError(t, err)

	dev, err := brightness.Select([]brightness.Monitor{d}, "B", nil)
	require.NoError(t, err)

	b := brightness.NewDDCFromDevice(dev)
	require.NoError(t, b.Raise(10, 0))
	assert.Equal(t, uint32(60), b.Current())
	require.NoError(t, b.Close())
}
