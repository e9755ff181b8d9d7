package commands

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTargetSplitsHostAndPath(t *testing.T) {
	host, path, err := parseTarget("nfs.example.com:/export/data")
	assert.NoError(t, err)
	assert.Equal(t, "nfs.example.com", host)
	assert.Equal(t, "/export/data", path)
}

func TestParseTargetRejectsMissingColon(t *testing.T) {
	_, _, err := parseTarget("nfs.example.com")
	assert.True(t, errors.Is(err, ErrUsage))
}

func TestParseTargetRejectsEmptyHost(t *testing.T) {
	_, _, err := parseTarget(":/export/data")
	assert.True(t, errors.Is(err, ErrUsage))
}

func TestParseTargetRejectsEmptyPath(t *testing.T) {
	_, _, err := parseTarget("nfs.example.com:")
	assert.True(t, errors.Is(err, ErrUsage))
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, "info", verbosityToLevel(0))
	assert.Equal(t, "info", verbosityToLevel(1))
	assert.Equal(t, "debug", verbosityToLevel(2))
	assert.Equal(t, "debug", verbosityToLevel(3))
}

func TestReportReservedEnvVarDoesNotPanicWhenUnset(t *testing.T) {
	t.Setenv(reservedEnvVar, "")
	assert.NoError(t, os.Unsetenv(reservedEnvVar))
	assert.NotPanics(t, reportReservedEnvVar)
}
