package config

import (
	"encoding/json"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rf-tools/rtlamr2mqtt/pkg/errors"
	"github.com/rf-tools/rtlamr2mqtt/pkg/process"
)

// DefaultSearchPaths are probed in order when no config file is given
var DefaultSearchPaths = []string{
	"/data/options.json",
	"/etc/rtlamr2mqtt.yaml",
}

// Environment variables consumed at config resolution time
const (
	EnvListenOnly  = "LISTEN_ONLY"
	EnvMessageType = "msgtype"
	EnvExtraArgs   = "RTLAMR_ARGS"
)

const defaultDecoderPath = "/usr/bin/rtlamr"

// Config is the fully resolved configuration consumed by the relay core.
// Defaults are applied at load time; the core never mutates it.
type Config struct {
	General          GeneralConfig          `yaml:"general" json:"general"`
	MQTT             MQTTConfig             `yaml:"mqtt" json:"mqtt"`
	CustomParameters CustomParametersConfig `yaml:"custom_parameters" json:"custom_parameters"`
}

type GeneralConfig struct {
	SleepFor      int    `yaml:"sleep_for" json:"sleep_for"`
	Verbosity     string `yaml:"verbosity" json:"verbosity"`
	ListenOnly    bool   `yaml:"listen_only" json:"listen_only"`
	TickleRTLTCP  bool   `yaml:"tickle_rtl_tcp" json:"tickle_rtl_tcp"`
	DeviceID      string `yaml:"device_id" json:"device_id"`
	RTLTCPServer  string `yaml:"rtltcp_server" json:"rtltcp_server"`
	RTLAMRPath    string `yaml:"rtlamr_path" json:"rtlamr_path"`
	MetricsListen string `yaml:"metrics_listen" json:"metrics_listen"`
}

type MQTTConfig struct {
	Host                 string `yaml:"host" json:"host"`
	Port                 int    `yaml:"port" json:"port"`
	User                 string `yaml:"user" json:"user"`
	Password             string `yaml:"password" json:"password"`
	TLSEnabled           bool   `yaml:"tls_enabled" json:"tls_enabled"`
	TLSInsecure          *bool  `yaml:"tls_insecure" json:"tls_insecure"` // pointer to distinguish unset from false
	TLSCA                string `yaml:"tls_ca" json:"tls_ca"`
	TLSCert              string `yaml:"tls_cert" json:"tls_cert"`
	TLSKeyfile           string `yaml:"tls_keyfile" json:"tls_keyfile"`
	BaseTopic            string `yaml:"base_topic" json:"base_topic"`
	HAAutodiscovery      *bool  `yaml:"ha_autodiscovery" json:"ha_autodiscovery"`
	HAAutodiscoveryTopic string `yaml:"ha_autodiscovery_topic" json:"ha_autodiscovery_topic"`
}

type CustomParametersConfig struct {
	RTLTCP string `yaml:"rtltcp" json:"rtltcp"`
	RTLAMR string `yaml:"rtlamr" json:"rtlamr"`
}

// IsTLSInsecure reports whether broker certificate verification is disabled
func (m *MQTTConfig) IsTLSInsecure() bool {
	return m.TLSInsecure == nil || *m.TLSInsecure
}

// AutodiscoveryEnabled reports whether Home Assistant autodiscovery is on
func (m *MQTTConfig) AutodiscoveryEnabled() bool {
	return m.HAAutodiscovery == nil || *m.HAAutodiscovery
}

// LoadConfigFromFile loads configuration from a YAML or JSON file. With an
// empty filename the default search paths are probed in order.
func LoadConfigFromFile(filename string) (*Config, error) {
	if filename == "" {
		for _, candidate := range DefaultSearchPaths {
			if _, err := os.Stat(candidate); err == nil {
				filename = candidate
				break
			}
		}
		if filename == "" {
			return nil, errors.NewIOError("no configuration file found", nil).WithContext("search_paths", DefaultSearchPaths)
		}
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	var config Config
	switch {
	case hasSuffix(filename, ".yaml", ".yml"):
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, errors.NewValidationError("failed to parse YAML configuration", err).WithContext("filename", filename)
		}
	case hasSuffix(filename, ".json", ".js"):
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, errors.NewValidationError("failed to parse JSON configuration", err).WithContext("filename", filename)
		}
	default:
		return nil, errors.NewValidationError("unsupported configuration format", nil).WithContext("filename", filename)
	}

	setConfigDefaults(&config)
	applyEnvOverrides(&config)

	return &config, nil
}

func hasSuffix(name string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// setConfigDefaults applies default values to configuration
func setConfigDefaults(config *Config) {
	if config.General.Verbosity == "" {
		config.General.Verbosity = "info"
	}
	if config.General.DeviceID == "" {
		config.General.DeviceID = "single"
	}
	if config.General.RTLTCPServer == "" {
		config.General.RTLTCPServer = "127.0.0.1:1234"
	}
	if config.General.RTLAMRPath == "" {
		config.General.RTLAMRPath = defaultDecoderPath
	}

	if config.MQTT.Port == 0 {
		config.MQTT.Port = 1883
	}
	if config.MQTT.TLSInsecure == nil {
		insecure := true
		config.MQTT.TLSInsecure = &insecure
	}
	if config.MQTT.TLSCA == "" {
		config.MQTT.TLSCA = "/etc/ssl/certs/ca-certificates.crt"
	}
	if config.MQTT.BaseTopic == "" {
		config.MQTT.BaseTopic = "rtlamr"
	}
	if config.MQTT.HAAutodiscovery == nil {
		enabled := true
		config.MQTT.HAAutodiscovery = &enabled
	}
	if config.MQTT.HAAutodiscoveryTopic == "" {
		config.MQTT.HAAutodiscoveryTopic = "homeassistant"
	}

	if config.CustomParameters.RTLTCP == "" {
		config.CustomParameters.RTLTCP = "-s 2048000"
	}
	if config.CustomParameters.RTLAMR == "" {
		config.CustomParameters.RTLAMR = "-unique=true"
	}
}

// applyEnvOverrides applies environment-variable-driven configuration overrides
func applyEnvOverrides(config *Config) {
	switch strings.ToLower(os.Getenv(EnvListenOnly)) {
	case "yes", "true":
		config.General.ListenOnly = true
	}
}

// DecoderExecution builds the decoder launch configuration: the fixed base
// argument set, an optional message-type filter and arbitrary extra arguments,
// both sourced from the environment.
func (c *Config) DecoderExecution() process.ExecutionConfig {
	args := []string{"-format=json"}
	if msgtype := os.Getenv(EnvMessageType); msgtype != "" {
		args = append(args, "-msgtype="+msgtype)
	}
	args = append(args, strings.Fields(os.Getenv(EnvExtraArgs))...)

	return process.ExecutionConfig{
		ExecutablePath: c.General.RTLAMRPath,
		Args:           args,
	}
}
