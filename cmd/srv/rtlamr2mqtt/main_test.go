package main

import (
	"errors"
	"testing"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-c", "/etc/rtlamr2mqtt.yaml", "-d", "45s"})
	require.NoError(t, err)
	assert.Equal(t, "/etc/rtlamr2mqtt.yaml", opts.Config)
	assert.Equal(t, 45*time.Second, opts.Duration)
}

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Empty(t, opts.Config)
	assert.Equal(t, time.Duration(0), opts.Duration)
}

func TestParseFlags_HelpIsNotAFailure(t *testing.T) {
	_, err := parseFlags([]string{"--help"})
	require.Error(t, err)

	// Help requests must be told apart from real parse errors so the
	// binary can exit zero on them
	var flagsErr *flags.Error
	require.True(t, errors.As(err, &flagsErr))
	assert.Equal(t, flags.ErrHelp, flagsErr.Type)
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	_, err := parseFlags([]string{"--no-such-flag"})
	require.Error(t, err)

	var flagsErr *flags.Error
	require.True(t, errors.As(err, &flagsErr))
	assert.NotEqual(t, flags.ErrHelp, flagsErr.Type)
}
