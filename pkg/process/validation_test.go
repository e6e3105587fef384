package process

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateExecutionConfig(t *testing.T) {
	// A binary that exists on the test host
	var existing string
	if runtime.GOOS == "windows" {
		existing = "C:\\Windows\\System32\\cmd.exe"
	} else {
		existing = "/bin/sh"
	}

	tests := []struct {
		name      string
		config    ExecutionConfig
		shouldErr bool
	}{
		{
			name: "valid_config",
			config: ExecutionConfig{
				ExecutablePath: existing,
				Args:           []string{"-format=json"},
			},
			shouldErr: false,
		},
		{
			name:      "empty_executable_path",
			config:    ExecutionConfig{},
			shouldErr: true,
		},
		{
			name: "missing_executable",
			config: ExecutionConfig{
				ExecutablePath: filepath.Join(os.TempDir(), "no-such-decoder-binary"),
			},
			shouldErr: true,
		},
		{
			name: "valid_environment",
			config: ExecutionConfig{
				ExecutablePath: existing,
				Environment:    []string{"MSGTYPE=scm"},
			},
			shouldErr: false,
		},
		{
			name: "invalid_environment_format",
			config: ExecutionConfig{
				ExecutablePath: existing,
				Environment:    []string{"MSGTYPE"},
			},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExecutionConfig(tt.config)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExecutionConfig_CommandLine(t *testing.T) {
	config := ExecutionConfig{
		ExecutablePath: "/usr/bin/rtlamr",
		Args:           []string{"-format=json", "-msgtype=scm"},
	}
	assert.Equal(t, "/usr/bin/rtlamr -format=json -msgtype=scm", config.CommandLine())

	bare := ExecutionConfig{ExecutablePath: "/usr/bin/rtlamr"}
	assert.Equal(t, "/usr/bin/rtlamr", bare.CommandLine())
}
