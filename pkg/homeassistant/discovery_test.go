package homeassistant

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPublish struct {
	topic   string
	payload []byte
	retain  bool
}

type fakePublisher struct {
	err   error
	calls []recordedPublish
}

func (p *fakePublisher) Publish(topic string, payload []byte, retain bool, qos byte) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, recordedPublish{topic: topic, payload: payload, retain: retain})
	return nil
}

func TestAnnounceBridge(t *testing.T) {
	publisher := &fakePublisher{}

	err := AnnounceBridge(publisher, BridgeOptions{
		DiscoveryTopic: "homeassistant",
		DeviceID:       "single",
		StatusTopic:    "rtlamr/status",
	})
	require.NoError(t, err)

	require.Len(t, publisher.calls, 1)
	call := publisher.calls[0]
	assert.Equal(t, "homeassistant/binary_sensor/rtlamr2mqtt_single/config", call.topic)
	assert.True(t, call.retain)

	var config BinarySensorConfig
	require.NoError(t, json.Unmarshal(call.payload, &config))
	assert.Equal(t, "rtlamr2mqtt_single_status", config.UniqueID)
	assert.Equal(t, "connectivity", config.DeviceClass)
	assert.Equal(t, "rtlamr/status", config.StateTopic)
	assert.Equal(t, "online", config.PayloadOn)
	assert.Equal(t, "offline", config.PayloadOff)
	assert.Equal(t, []string{"rtlamr2mqtt_single"}, config.Device.Identifiers)
}

func TestAnnounceBridge_PublishFailure(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker unreachable")}

	err := AnnounceBridge(publisher, BridgeOptions{
		DiscoveryTopic: "homeassistant",
		DeviceID:       "single",
		StatusTopic:    "rtlamr/status",
	})
	assert.Error(t, err)
}
