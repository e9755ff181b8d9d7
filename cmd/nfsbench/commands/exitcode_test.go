package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/nfsbench/internal/bench"
	"github.com/marmos91/nfsbench/internal/sysexits"
)

func TestExitCodeForNil(t *testing.T) {
	assert.Equal(t, sysexits.OK, ExitCodeFor(nil))
}

func TestExitCodeForUsageError(t *testing.T) {
	err := usagef("bad flag %q", "-x")
	assert.Equal(t, sysexits.Usage, ExitCodeFor(err))
}

func TestExitCodeForUnresolvedHost(t *testing.T) {
	err := fmt.Errorf("dial: %w", ErrHostUnresolved)
	assert.Equal(t, sysexits.NoHost, ExitCodeFor(err))
}

func TestExitCodeForProtocolError(t *testing.T) {
	err := fmt.Errorf("receiver: %w", bench.ErrProtocol)
	assert.Equal(t, sysexits.Protocol, ExitCodeFor(err))

	err = fmt.Errorf("reconnect: %w", bench.ErrReconnectExhausted)
	assert.Equal(t, sysexits.Protocol, ExitCodeFor(err))
}

func TestExitCodeForUnclassifiedErrorIsOSErr(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, sysexits.OSErr, ExitCodeFor(err))
}
