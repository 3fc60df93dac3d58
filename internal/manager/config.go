package manager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hoppxi/ddclight/pkg/ddc"
)

type DDCConfig struct {
	Buses      []string      `mapstructure:"buses" yaml:"buses"`
	ReplyDelay time.Duration `mapstructure:"reply_delay" yaml:"reply_delay"`
	WriteDelay time.Duration `mapstructure:"write_delay" yaml:"write_delay"`
	Retries    int           `mapstructure:"retries" yaml:"retries"`
}

// MarshalYAML writes the delays as duration strings ("40ms").
func (c DDCConfig) MarshalYAML() (any, error) {
	return struct {
		Buses      []string `yaml:"buses"`
		ReplyDelay string   `yaml:"reply_delay"`
		WriteDelay string   `yaml:"write_delay"`
		Retries    int      `yaml:"retries"`
	}{c.Buses, c.ReplyDelay.String(), c.WriteDelay.String(), c.Retries}, nil
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker" yaml:"broker"`
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
	Topic    string `mapstructure:"topic" yaml:"topic"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	QoS      byte   `mapstructure:"qos" yaml:"qos"`
}

type Settings struct {
	Device  string        `mapstructure:"device" yaml:"device"`
	Step    uint32        `mapstructure:"step" yaml:"step"`
	Min     uint32        `mapstructure:"min" yaml:"min"`
	Notify  bool          `mapstructure:"notify" yaml:"notify"`
	Socket  string        `mapstructure:"socket" yaml:"socket"`
	DDC     DDCConfig     `mapstructure:"ddc" yaml:"ddc"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	MQTT    MQTTConfig    `mapstructure:"mqtt" yaml:"mqtt"`
}

// Defaults returns the settings used when no config file sets a key.
func Defaults() Settings {
	bus := ddc.DefaultOptions()
	return Settings{
		Step:   5,
		Min:    0,
		Notify: true,
		DDC: DDCConfig{
			Buses:      []string{},
			ReplyDelay: bus.ReplyDelay,
			WriteDelay: bus.WriteDelay,
			Retries:    bus.Retries,
		},
		Log:  LogConfig{Level: "info", Format: "text"},
		MQTT: MQTTConfig{Topic: "ddclight", QoS: 1},
	}
}

// Marshal renders s as a config file.
func Marshal(s Settings) ([]byte, error) {
	return yaml.Marshal(s)
}

type ConfigManager struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

var Config = &ConfigManager{}

func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.TempDir(), "ddclight")
	}
	return filepath.Join(configDir, "ddclight", "config.yaml")
}

// Load reads path (or the default config path when empty) on top of the
// defaults and DDCLIGHT_* environment variables. A missing file is fine.
func (c *ConfigManager) Load(path string) (Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if path == "" {
		path = DefaultConfigPath()
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ddclight")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !isMissing(err) {
		return Settings{}, fmt.Errorf("failed to read config: %w", err)
	}

	c.v = v
	c.path = path
	return decode(v)
}

func (c *ConfigManager) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Watch calls onChange with the re-read settings whenever the config file
// changes. Load must have been called first.
func (c *ConfigManager) Watch(onChange func(Settings, error)) {
	c.mu.Lock()
	v := c.v
	c.mu.Unlock()
	if v == nil {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(decode(v))
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("device", d.Device)
	v.SetDefault("step", d.Step)
	v.SetDefault("min", d.Min)
	v.SetDefault("notify", d.Notify)
	v.SetDefault("socket", d.Socket)
	v.SetDefault("ddc.buses", d.DDC.Buses)
	v.SetDefault("ddc.reply_delay", d.DDC.ReplyDelay)
	v.SetDefault("ddc.write_delay", d.DDC.WriteDelay)
	v.SetDefault("ddc.retries", d.DDC.Retries)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.listen", d.Metrics.Listen)
	v.SetDefault("mqtt.broker", d.MQTT.Broker)
	v.SetDefault("mqtt.client_id", d.MQTT.ClientID)
	v.SetDefault("mqtt.topic", d.MQTT.Topic)
	v.SetDefault("mqtt.username", d.MQTT.Username)
	v.SetDefault("mqtt.password", d.MQTT.Password)
	v.SetDefault("mqtt.qos", d.MQTT.QoS)
}

func decode(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if s.Min > 100 {
		return Settings{}, fmt.Errorf("min must be within 0-100, got %d", s.Min)
	}
	return s, nil
}

func isMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
