package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rf-tools/rtlamr2mqtt/pkg/logging"
	"github.com/rf-tools/rtlamr2mqtt/pkg/mqtt"
	"github.com/rf-tools/rtlamr2mqtt/pkg/supervisor"
)

// DefaultGracePeriod bounds the wait for cooperative process termination
const DefaultGracePeriod = 5 * time.Second

// AvailabilityPublisher publishes the retained online/offline status
type AvailabilityPublisher interface {
	PublishAvailability(status mqtt.AvailabilityStatus) error
}

// Options carries the shared handles the coordinator tears down on signal
// delivery. Both are optional: a nil supervisor skips the process-stop step,
// a nil sender skips the offline publish.
type Options struct {
	Supervisor  *supervisor.Supervisor
	Sender      AvailabilityPublisher
	GracePeriod time.Duration

	// Exit defaults to os.Exit, overridable for tests
	Exit func(code int)
}

// Coordinator installs termination signal handlers and drives the graceful
// teardown sequence exactly once, no matter how many signals arrive.
type Coordinator struct {
	supervisor *supervisor.Supervisor
	sender     AvailabilityPublisher
	grace      time.Duration
	exit       func(code int)
	logger     logging.Logger

	signals chan os.Signal
	once    sync.Once
}

func NewCoordinator(options Options, logger logging.Logger) *Coordinator {
	grace := options.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	exit := options.Exit
	if exit == nil {
		exit = os.Exit
	}
	return &Coordinator{
		supervisor: options.Supervisor,
		sender:     options.Sender,
		grace:      grace,
		exit:       exit,
		logger:     logger,
		signals:    make(chan os.Signal, 1),
	}
}

// Install registers the SIGINT and SIGTERM handlers and starts the watcher.
// The watcher acts on the shared handles directly, so the relay read loop
// needs no cooperation for shutdown to proceed.
func (c *Coordinator) Install() {
	signal.Notify(c.signals, os.Interrupt, syscall.SIGTERM)
	go c.watch()
}

func (c *Coordinator) watch() {
	for received := range c.signals {
		c.logger.Infof("Received signal: %v", received)
		c.Trigger()
	}
}

// Trigger runs the shutdown sequence. Safe to call concurrently and more
// than once: only the first caller performs any teardown.
func (c *Coordinator) Trigger() {
	c.once.Do(c.teardown)
}

func (c *Coordinator) teardown() {
	c.logger.Infof("Shutting down...")

	if c.supervisor != nil {
		if err := c.supervisor.StopAll(context.Background(), c.grace); err != nil {
			// Shutdown continues regardless, the exit must not be blocked
			c.logger.Errorf("Failed to stop all processes: %v", err)
		}
	}

	if c.sender != nil {
		if err := c.sender.PublishAvailability(mqtt.AvailabilityOffline); err != nil {
			c.logger.Errorf("Failed to publish offline status: %v", err)
		}
	}

	c.logger.Infof("Shutdown complete")
	c.exit(0)
}
