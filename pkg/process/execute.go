package process

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/rf-tools/rtlamr2mqtt/pkg/errors"
	"github.com/rf-tools/rtlamr2mqtt/pkg/logging"
)

// ExecutionConfig describes how to launch an external decoder or tuner binary.
type ExecutionConfig struct {
	ExecutablePath string   `yaml:"executable_path"`
	Args           []string `yaml:"args,omitempty"`
	Environment    []string `yaml:"environment,omitempty"`
}

// CommandLine returns the full command line for logging and identity.
func (c ExecutionConfig) CommandLine() string {
	line := c.ExecutablePath
	for _, arg := range c.Args {
		line += " " + arg
	}
	return line
}

// Execute launches the configured binary with stderr redirected into the
// stdout pipe, so all diagnostic output is observable through one stream.
func Execute(ctx context.Context, execution ExecutionConfig, id string, logger logging.Logger) (*os.Process, io.ReadCloser, error) {
	if ctx == nil {
		logger.Errorf("Context cannot be nil, id: %s", id)
		return nil, nil, errors.NewValidationError("context cannot be nil", nil).WithContext("id", id)
	}

	if err := ValidateExecutionConfig(execution); err != nil {
		logger.Errorf("Execution configuration validation failed, id: %s, error: %v", id, err)
		return nil, nil, errors.NewValidationError("invalid execution configuration", err).WithContext("id", id)
	}

	logger.Debugf("Executing process, id: %s, command: %s", id, execution.CommandLine())

	env := os.Environ()
	env = append(env, execution.Environment...)

	cmd := exec.CommandContext(ctx, execution.ExecutablePath, execution.Args...)
	cmd.Env = env

	// Platform-specific setup is handled in execute_unix.go or execute_windows.go
	setupProcessAttributes(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, errors.NewProcessError("failed to create stdout pipe", err).WithContext("id", id).WithContext("executable_path", execution.ExecutablePath)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, nil, errors.NewProcessError("failed to start the process", err).WithContext("id", id).WithContext("executable_path", execution.ExecutablePath)
	}

	logger.Infof("Successfully executed process, id: %s, PID: %d", id, cmd.Process.Pid)

	return cmd.Process, stdout, nil
}
