package homeassistant

import (
	"encoding/json"

	"github.com/rf-tools/rtlamr2mqtt/pkg/errors"
)

// Publisher performs a single-shot broker publish
type Publisher interface {
	Publish(topic string, payload []byte, retain bool, qos byte) error
}

// Device identifies the bridge in the Home Assistant device registry
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
}

// BinarySensorConfig is the autodiscovery payload for a connectivity sensor
type BinarySensorConfig struct {
	Name        string `json:"name"`
	UniqueID    string `json:"unique_id"`
	DeviceClass string `json:"device_class"`
	StateTopic  string `json:"state_topic"`
	PayloadOn   string `json:"payload_on"`
	PayloadOff  string `json:"payload_off"`
	Device      Device `json:"device"`
}

// BridgeOptions describes the bridge entity announced on startup
type BridgeOptions struct {
	DiscoveryTopic string // autodiscovery topic prefix, e.g. "homeassistant"
	DeviceID       string // stable device identifier from configuration
	StatusTopic    string // retained availability topic the sensor tracks
}

// AnnounceBridge publishes a retained autodiscovery config for the bridge
// availability sensor, so Home Assistant shows whether the relay is running.
func AnnounceBridge(publisher Publisher, options BridgeOptions) error {
	deviceID := "rtlamr2mqtt_" + options.DeviceID

	config := BinarySensorConfig{
		Name:        "RTLAMR Bridge",
		UniqueID:    deviceID + "_status",
		DeviceClass: "connectivity",
		StateTopic:  options.StatusTopic,
		PayloadOn:   "online",
		PayloadOff:  "offline",
		Device: Device{
			Identifiers:  []string{deviceID},
			Name:         "RTLAMR Bridge",
			Manufacturer: "rtlamr2mqtt",
		},
	}

	payload, err := json.Marshal(config)
	if err != nil {
		return errors.NewInternalError("failed to marshal discovery config", err)
	}

	configTopic := options.DiscoveryTopic + "/binary_sensor/" + deviceID + "/config"

	if err := publisher.Publish(configTopic, payload, true, 0); err != nil {
		return errors.NewNetworkError("failed to publish discovery config", err).WithContext("topic", configTopic)
	}
	return nil
}
