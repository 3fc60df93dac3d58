package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/hoppxi/ddclight/pkg/displayinfo"
	"github.com/hoppxi/ddclight/pkg/operation"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	statusOnline  = "online"
	statusOffline = "offline"
)

var ErrConnectionFailed = errors.New("mqtt: connection failed")

type Config struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
	QoS      byte
}

// Controller is the brightness owner the bridge forwards commands to.
type Controller interface {
	Apply(cmd operation.Command) (*displayinfo.DisplayInfo, error)
}

// Bridge mirrors the monitor state to MQTT and accepts commands on
// <topic>/set.
type Bridge struct {
	cfg     Config
	ctrl    Controller
	logger  *slog.Logger
	client  pahomqtt.Client
	publish func(topic string, retained bool, payload []byte) error
}

func (c Config) StateTopic() string  { return c.base() + "/state" }
func (c Config) StatusTopic() string { return c.base() + "/status" }
func (c Config) SetTopic() string    { return c.base() + "/set" }

func (c Config) base() string {
	t := strings.TrimRight(c.Topic, "/")
	if t == "" {
		return "ddclight"
	}
	return t
}

func (c Config) clientID() string {
	if c.ClientID != "" {
		return c.ClientID
	}
	return "ddclight-" + uuid.NewString()[:8]
}

// Connect dials the broker, announces the bridge online and subscribes to
// the command topic. Subscriptions are restored on reconnect.
func Connect(cfg Config, ctrl Controller, logger *slog.Logger) (*Bridge, error) {
	b := &Bridge{cfg: cfg, ctrl: ctrl, logger: logger}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.clientID()).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetMaxReconnectInterval(time.Minute).
		SetWill(cfg.StatusTopic(), statusOffline, cfg.QoS, true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		c.Publish(cfg.StatusTopic(), cfg.QoS, true, statusOnline)
		c.Subscribe(cfg.SetTopic(), cfg.QoS, func(_ pahomqtt.Client, msg pahomqtt.Message) {
			b.handleSet(msg.Payload())
		})
		logger.Info("mqtt connected", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	b.client = pahomqtt.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	b.publish = func(topic string, retained bool, payload []byte) error {
		t := b.client.Publish(topic, cfg.QoS, retained, payload)
		if !t.WaitTimeout(publishTimeout) {
			return fmt.Errorf("mqtt: publish to %s timed out", topic)
		}
		return t.Error()
	}
	return b, nil
}

// PublishState sends the retained state document.
func (b *Bridge) PublishState(info *displayinfo.DisplayInfo) {
	payload, err := json.Marshal(info)
	if err != nil {
		b.logger.Error("mqtt: encode state", "error", err)
		return
	}
	if err := b.publish(b.cfg.StateTopic(), true, payload); err != nil {
		b.logger.Warn("mqtt: publish state", "error", err)
	}
}

func (b *Bridge) handleSet(payload []byte) {
	cmd, err := operation.Parse(string(payload))
	if err != nil {
		b.logger.Warn("mqtt: ignoring command", "payload", string(payload), "error", err)
		return
	}

	info, err := b.ctrl.Apply(cmd)
	if err != nil {
		b.logger.Warn("mqtt: command failed", "command", cmd.String(), "error", err)
		return
	}
	b.PublishState(info)
}

// Close marks the bridge offline and disconnects.
func (b *Bridge) Close() {
	if b.client == nil {
		return
	}
	if err := b.publish(b.cfg.StatusTopic(), true, []byte(statusOffline)); err != nil {
		b.logger.Debug("mqtt: publish offline", "error", err)
	}
	b.client.Disconnect(250)
}
