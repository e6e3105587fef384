package mqtt

import (
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rf-tools/rtlamr2mqtt/pkg/config"
	"github.com/rf-tools/rtlamr2mqtt/pkg/errors"
	"github.com/rf-tools/rtlamr2mqtt/pkg/logging"
)

// AvailabilityStatus is the retained online/offline state of the relay
type AvailabilityStatus string

const (
	AvailabilityOnline  AvailabilityStatus = "online"
	AvailabilityOffline AvailabilityStatus = "offline"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 10 * time.Second

	// milliseconds paho waits for in-flight work on disconnect
	disconnectQuiesce = 250
)

// Sender performs single-shot publishes against the configured broker.
// Each call opens a fresh connection, publishes once and disconnects, so no
// connection object is shared across calls.
type Sender struct {
	config config.MQTTConfig
	logger logging.Logger

	connectTimeout time.Duration
	publishTimeout time.Duration

	// client construction seam for tests
	newClient func(*pahomqtt.ClientOptions) pahomqtt.Client
}

func NewSender(cfg config.MQTTConfig, logger logging.Logger) *Sender {
	return &Sender{
		config:         cfg,
		logger:         logger,
		connectTimeout: defaultConnectTimeout,
		publishTimeout: defaultPublishTimeout,
		newClient:      pahomqtt.NewClient,
	}
}

// StatusTopic is the retained availability topic derived from the base topic
func (s *Sender) StatusTopic() string {
	return s.config.BaseTopic + "/status"
}

// DebugTopic receives one message per parsed meter reading
func (s *Sender) DebugTopic() string {
	return s.config.BaseTopic + "/debug"
}

func (s *Sender) brokerURL() string {
	scheme := "tcp"
	if s.config.TLSEnabled {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.config.Host, s.config.Port)
}

func (s *Sender) clientOptions() (*pahomqtt.ClientOptions, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(s.brokerURL()).
		SetClientID(fmt.Sprintf("rtlamr2mqtt-%d", os.Getpid())).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectTimeout(s.connectTimeout)

	if s.config.User != "" {
		opts.SetUsername(s.config.User)
		opts.SetPassword(s.config.Password)
	}

	if s.config.TLSEnabled {
		tlsConfig, err := newTLSConfig(&s.config)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts, nil
}

// Publish opens a fresh connection, performs one publish and closes the
// connection. Any network, protocol or broker-level failure is returned to
// the caller; no retry is performed here.
func (s *Sender) Publish(topic string, payload []byte, retain bool, qos byte) error {
	opts, err := s.clientOptions()
	if err != nil {
		return err
	}

	client := s.newClient(opts)

	// Disconnect releases the client's network goroutines even when the
	// connect itself failed
	defer client.Disconnect(disconnectQuiesce)

	token := client.Connect()
	if !token.WaitTimeout(s.connectTimeout) {
		return errors.NewTimeoutError("broker connect timed out", nil).
			WithContext("host", s.config.Host).WithContext("topic", topic)
	}
	if err := token.Error(); err != nil {
		return errors.NewNetworkError("failed to connect to broker", err).
			WithContext("host", s.config.Host).WithContext("topic", topic)
	}

	pubToken := client.Publish(topic, qos, retain, payload)
	if !pubToken.WaitTimeout(s.publishTimeout) {
		return errors.NewTimeoutError("broker publish timed out", nil).
			WithContext("host", s.config.Host).WithContext("topic", topic)
	}
	if err := pubToken.Error(); err != nil {
		return errors.NewNetworkError("failed to publish", err).
			WithContext("host", s.config.Host).WithContext("topic", topic)
	}

	s.logger.Debugf("MQTT published, topic: %s, payload: %s", topic, payload)
	return nil
}

// PublishAvailability publishes the retained online/offline status
func (s *Sender) PublishAvailability(status AvailabilityStatus) error {
	return s.Publish(s.StatusTopic(), []byte(status), true, 0)
}
