package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/rf-tools/rtlamr2mqtt/pkg/config"
	"github.com/rf-tools/rtlamr2mqtt/pkg/homeassistant"
	"github.com/rf-tools/rtlamr2mqtt/pkg/logging"
	"github.com/rf-tools/rtlamr2mqtt/pkg/metrics"
	"github.com/rf-tools/rtlamr2mqtt/pkg/mqtt"
	"github.com/rf-tools/rtlamr2mqtt/pkg/relay"
	"github.com/rf-tools/rtlamr2mqtt/pkg/shutdown"
	"github.com/rf-tools/rtlamr2mqtt/pkg/supervisor"
)

type flagOptions struct {
	Config   string        `short:"c" long:"config" description:"path to YAML or JSON configuration file"`
	Duration time.Duration `short:"d" long:"duration" description:"run for this duration, then shut down gracefully"`
}

const (
	exitOK          = 0
	exitConfigError = 1
	exitLaunchError = 2
)

func main() {
	os.Exit(run())
}

func parseFlags(args []string) (*flagOptions, error) {
	var opts flagOptions
	parser := flags.NewParser(&opts, flags.HelpFlag)
	_, err := parser.ParseArgs(args)
	return &opts, err
}

func run() int {
	// Local .env files supply broker credentials during development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Warning: failed to load .env file: %v\n", err)
	}

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(flagsErr.Message)
			return exitOK
		}
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		return exitConfigError
	}

	cfg, err := config.LoadConfigFromFile(opts.Config)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		return exitConfigError
	}
	if err := config.ValidateConfig(cfg); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return exitConfigError
	}

	logger, err := logging.NewZapLogger(cfg.General.Verbosity)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		return exitConfigError
	}

	logger.Infof("Starting rtlamr2mqtt...")

	if cfg.General.MetricsListen != "" {
		metrics.NewServer(cfg.General.MetricsListen, logger).Start()
	}

	if cfg.General.SleepFor > 0 {
		logger.Infof("Sleeping for %d seconds before startup", cfg.General.SleepFor)
		time.Sleep(time.Duration(cfg.General.SleepFor) * time.Second)
	}

	var sender *mqtt.Sender
	if cfg.MQTT.Host != "" {
		sender = mqtt.NewSender(cfg.MQTT, logger)
	} else {
		logger.Warnf("No MQTT host configured, readings will only be logged")
	}

	sup := supervisor.NewSupervisor(logger)

	coordinatorOptions := shutdown.Options{
		Supervisor:  sup,
		GracePeriod: shutdown.DefaultGracePeriod,
	}
	if sender != nil {
		coordinatorOptions.Sender = sender
	}
	coordinator := shutdown.NewCoordinator(coordinatorOptions, logger)
	coordinator.Install()

	if opts.Duration > 0 {
		logger.Infof("Running for %v before shutting down", opts.Duration)
		time.AfterFunc(opts.Duration, coordinator.Trigger)
	}

	if cfg.General.ListenOnly {
		return runListenMode(cfg, sup, sender, logger)
	}

	// The full tuner pipeline with meter filtering is not implemented yet
	logger.Infof("Normal mode is not implemented, use listen_only mode")
	return exitOK
}

func runListenMode(cfg *config.Config, sup *supervisor.Supervisor, sender *mqtt.Sender, logger logging.Logger) int {
	logger.Infof("Starting in LISTEN ONLY mode...")

	var publisher relay.Publisher
	debugTopic := cfg.MQTT.BaseTopic + "/debug"
	if sender != nil {
		publisher = sender
		debugTopic = sender.DebugTopic()

		if err := sender.PublishAvailability(mqtt.AvailabilityOnline); err != nil {
			logger.Errorf("Failed to publish online status: %v", err)
		}

		if cfg.MQTT.AutodiscoveryEnabled() {
			err := homeassistant.AnnounceBridge(sender, homeassistant.BridgeOptions{
				DiscoveryTopic: cfg.MQTT.HAAutodiscoveryTopic,
				DeviceID:       cfg.General.DeviceID,
				StatusTopic:    sender.StatusTopic(),
			})
			if err != nil {
				logger.Errorf("Failed to announce bridge to Home Assistant: %v", err)
			}
		}
	}

	proc, err := sup.Start(context.Background(), "rtlamr", cfg.DecoderExecution())
	if err != nil {
		logger.Errorf("Failed to launch decoder: %v", err)
		return exitLaunchError
	}

	streamRelay := relay.NewRelay(debugTopic, publisher, logger)
	if err := streamRelay.Run(proc.Stdout()); err != nil {
		logger.Errorf("Decoder stream relay failed: %v", err)
	}

	logger.Infof("Decoder output closed, exiting")
	return exitOK
}
