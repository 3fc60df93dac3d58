package manager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c := &ConfigManager{}

	s, err := c.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	d := Defaults()
	assert.Empty(t, s.Device)
	assert.Equal(t, d.Step, s.Step)
	assert.Equal(t, d.Min, s.Min)
	assert.True(t, s.Notify)
	assert.Empty(t, s.DDC.Buses)
	assert.Equal(t, d.DDC.ReplyDelay, s.DDC.ReplyDelay)
	assert.Equal(t, d.DDC.Retries, s.DDC.Retries)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "ddclight", s.MQTT.Topic)
	assert.Equal(t, byte(1), s.MQTT.QoS)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
device: DELL U2720Q
step: 10
min: 15
notify: false
ddc:
  buses: ["/dev/i2c-4"]
  reply_delay: 60ms
mqtt:
  broker: tcp://localhost:1883
`), 0o644))

	c := &ConfigManager{}
	s, err := c.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DELL U2720Q", s.Device)
	assert.Equal(t, uint32(10), s.Step)
	assert.Equal(t, uint32(15), s.Min)
	assert.False(t, s.Notify)
	assert.Equal(t, []string{"/dev/i2c-4"}, s.DDC.Buses)
	assert.Equal(t, 60*time.Millisecond, s.DDC.ReplyDelay)
	assert.Equal(t, 50*time.Millisecond, s.DDC.WriteDelay)
	assert.Equal(t, "tcp://localhost:1883", s.MQTT.Broker)
	assert.Equal(t, "ddclight", s.MQTT.Topic)
	assert.Equal(t, path, c.Path())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DDCLIGHT_DEVICE", "LG HDR 4K")
	t.Setenv("DDCLIGHT_MIN", "20")
	t.Setenv("DDCLIGHT_LOG_LEVEL", "debug")

	c := &ConfigManager{}
	s, err := c.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "LG HDR 4K", s.Device)
	assert.Equal(t, uint32(20), s.Min)
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoadRejectsBadMin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min: 150\n"), 0o644))

	_, err := (&ConfigManager{}).Load(path)
	assert.ErrorContains(t, err, "min must be within 0-100")
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("step: [unclosed\n"), 0o644))

	_, err := (&ConfigManager{}).Load(path)
	assert.ErrorContains(t, err, "failed to read config")
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(Defaults())
	require.NoError(t, err)
	assert.Contains(t, string(data), "reply_delay: 40ms")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	s, err := (&ConfigManager{}).Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, s.DDC.ReplyDelay)
	assert.Equal(t, 50*time.Millisecond, s.DDC.WriteDelay)
	assert.Equal(t, uint32(5), s.Step)
	assert.True(t, s.Notify)
}
