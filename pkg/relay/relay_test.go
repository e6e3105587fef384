package relay

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

type recordedPublish struct {
	topic   string
	payload []byte
	retain  bool
	qos     byte
}

type fakePublisher struct {
	failures int // fail the first N publishes
	calls    []recordedPublish
}

func (p *fakePublisher) Publish(topic string, payload []byte, retain bool, qos byte) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unreachable")
	}
	p.calls = append(p.calls, recordedPublish{topic: topic, payload: payload, retain: retain, qos: qos})
	return nil
}

func TestRelay_PublishesValidReading(t *testing.T) {
	publisher := &fakePublisher{}
	relay := NewRelay("rtlamr/debug", publisher, nopLogger{})

	input := `{"Time":"2024-01-01","Message":{"ID":12345,"Consumption":9876}}` + "\n"
	err := relay.Run(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, publisher.calls, 1)
	assert.Equal(t, "rtlamr/debug", publisher.calls[0].topic)
	assert.False(t, publisher.calls[0].retain)
	assert.Equal(t, byte(0), publisher.calls[0].qos)

	// Payload must be equivalent JSON, key order aside
	var got, want map[string]interface{}
	require.NoError(t, json.Unmarshal(publisher.calls[0].payload, &got))
	require.NoError(t, json.Unmarshal([]byte(input), &want))
	assert.Equal(t, want, got)
}

func TestRelay_SkipsMalformedLines(t *testing.T) {
	publisher := &fakePublisher{}
	relay := NewRelay("rtlamr/debug", publisher, nopLogger{})

	input := strings.Join([]string{
		"not json",
		"",
		"   ",
		`{"Message":{"ID":1}}`,
		"rtlamr banner text",
		`{"Message":{"ID":2}}`,
	}, "\n")

	err := relay.Run(strings.NewReader(input))
	require.NoError(t, err)

	// Only the two well-formed object lines are published
	require.Len(t, publisher.calls, 2)
}

func TestRelay_SurvivesOversizedLine(t *testing.T) {
	publisher := &fakePublisher{}
	relay := NewRelay("rtlamr/debug", publisher, nopLogger{})

	// A multi-megabyte garbage line must not abort the read loop
	input := strings.Repeat("x", 2*1024*1024) + "\n" + `{"Message":{"ID":2}}` + "\n"
	err := relay.Run(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, publisher.calls, 1)
	var reading map[string]interface{}
	require.NoError(t, json.Unmarshal(publisher.calls[0].payload, &reading))
	assert.Equal(t, map[string]interface{}{"ID": float64(2)}, reading["Message"])
}

func TestRelay_PreservesOrder(t *testing.T) {
	publisher := &fakePublisher{}
	relay := NewRelay("rtlamr/debug", publisher, nopLogger{})

	input := `{"seq":1}` + "\n" + `{"seq":2}` + "\n" + `{"seq":3}` + "\n"
	require.NoError(t, relay.Run(strings.NewReader(input)))

	require.Len(t, publisher.calls, 3)
	for i, call := range publisher.calls {
		var reading map[string]interface{}
		require.NoError(t, json.Unmarshal(call.payload, &reading))
		assert.Equal(t, float64(i+1), reading["seq"])
	}
}

func TestRelay_ContinuesAfterPublishFailure(t *testing.T) {
	publisher := &fakePublisher{failures: 1}
	relay := NewRelay("rtlamr/debug", publisher, nopLogger{})

	input := `{"seq":1}` + "\n" + `{"seq":2}` + "\n"
	require.NoError(t, relay.Run(strings.NewReader(input)))

	// The first reading is dropped, the second still goes out
	require.Len(t, publisher.calls, 1)
	var reading map[string]interface{}
	require.NoError(t, json.Unmarshal(publisher.calls[0].payload, &reading))
	assert.Equal(t, float64(2), reading["seq"])
}

func TestRelay_NoPublisherConfigured(t *testing.T) {
	relay := NewRelay("rtlamr/debug", nil, nopLogger{})

	err := relay.Run(strings.NewReader(`{"Message":{"ID":1}}` + "\n"))
	assert.NoError(t, err)
}

func TestRelay_ReturnsOnEOF(t *testing.T) {
	publisher := &fakePublisher{}
	relay := NewRelay("rtlamr/debug", publisher, nopLogger{})

	err := relay.Run(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, publisher.calls)
}
