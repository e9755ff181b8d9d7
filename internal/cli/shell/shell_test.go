package shell

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/nfsbench/internal/bench"
)

func TestDispatchUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := dispatch(&out, &bench.Mount{}, "frobnicate")
	assert.ErrorContains(t, err, "unknown command")
}

func TestDispatchQuitReturnsErrQuit(t *testing.T) {
	var out bytes.Buffer
	err := dispatch(&out, &bench.Mount{}, "quit")
	assert.True(t, errors.Is(err, ErrQuit))

	err = dispatch(&out, &bench.Mount{}, "exit")
	assert.True(t, errors.Is(err, ErrQuit))
}

func TestDispatchHelpPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	err := dispatch(&out, &bench.Mount{}, "help")
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "null")
	assert.Contains(t, out.String(), "getattr")
}

func TestDispatchEmptyLineIsNoop(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, dispatch(&out, &bench.Mount{}, "   "))
	assert.Empty(t, out.String())
}

func TestCmdReadRejectsWrongArgCount(t *testing.T) {
	var out bytes.Buffer
	err := cmdRead(&out, &bench.Mount{}, []string{"1"})
	assert.ErrorContains(t, err, "usage")
}

func TestCmdReadRejectsInvalidOffset(t *testing.T) {
	var out bytes.Buffer
	err := cmdRead(&out, &bench.Mount{}, []string{"not-a-number", "4096"})
	assert.ErrorContains(t, err, "invalid offset")
}

func TestCmdReadRejectsInvalidLength(t *testing.T) {
	var out bytes.Buffer
	err := cmdRead(&out, &bench.Mount{}, []string{"0", "not-a-number"})
	assert.ErrorContains(t, err, "invalid length")
}
