package relay

import (
	"bufio"
	"encoding/json"
	stderrors "errors"
	"io"
	"io/fs"
	"strings"

	"github.com/rf-tools/rtlamr2mqtt/pkg/errors"
	"github.com/rf-tools/rtlamr2mqtt/pkg/logging"
	"github.com/rf-tools/rtlamr2mqtt/pkg/metrics"
)

// MeterReading is one decoder output line parsed as an arbitrary JSON object.
// No further schema is enforced here.
type MeterReading map[string]interface{}

// Publisher performs a single-shot broker publish
type Publisher interface {
	Publish(topic string, payload []byte, retain bool, qos byte) error
}

// Relay consumes the decoder output stream line by line and forwards every
// well-formed JSON object to the broker. Publishes are serialized through
// the single read loop, so message order matches line order.
type Relay struct {
	debugTopic string
	sender     Publisher // nil disables publishing, lines are only logged
	logger     logging.Logger
}

func NewRelay(debugTopic string, sender Publisher, logger logging.Logger) *Relay {
	return &Relay{
		debugTopic: debugTopic,
		sender:     sender,
		logger:     logger,
	}
}

// Run reads the stream until EOF and returns nil once the underlying process
// closes its output. Malformed lines and failed publishes are logged and
// skipped; neither terminates the loop. Lines are read without a length
// bound, so an arbitrarily long garbage line costs memory but never aborts
// the relay.
func (r *Relay) Run(stream io.Reader) error {
	reader := bufio.NewReader(stream)

	for {
		line, err := reader.ReadString('\n')

		// The final line may arrive without a trailing newline
		r.handleLine(line)

		if err != nil {
			// A stdout handle closed during shutdown reads the same as EOF
			if stderrors.Is(err, io.EOF) || stderrors.Is(err, fs.ErrClosed) {
				return nil
			}
			return errors.NewIOError("failed to read decoder output", err)
		}
	}
}

func (r *Relay) handleLine(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}

	// Raw line is logged regardless of parse outcome
	r.logger.Infof("%s", line)
	metrics.IncDecoderLines()

	var reading MeterReading
	if err := json.Unmarshal([]byte(line), &reading); err != nil {
		// Expected noise: partial reads, decoder banner lines
		metrics.IncParseFailures()
		return
	}

	if r.sender == nil {
		return
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		r.logger.Warnf("Failed to re-serialize reading: %v", err)
		return
	}

	if err := r.sender.Publish(r.debugTopic, payload, false, 0); err != nil {
		r.logger.Errorf("Failed to publish reading, topic: %s, error: %v", r.debugTopic, err)
		metrics.IncPublishFailures()
		return
	}
	metrics.IncReadingsPublished()
}
