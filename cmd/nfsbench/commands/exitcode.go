package commands

import (
	"errors"

	"github.com/marmos91/nfsbench/internal/bench"
	"github.com/marmos91/nfsbench/internal/sysexits"
)

// ExitCodeFor maps an error returned from Execute to the sysexits code this
// program should terminate with, mirroring the original tool's exit-status
// taxonomy: bad CLI input, an unresolvable host, a fatal wire-protocol
// error, and everything else (treated as a local OS-level failure).
func ExitCodeFor(err error) sysexits.Code {
	switch {
	case err == nil:
		return sysexits.OK
	case errors.Is(err, ErrUsage):
		return sysexits.Usage
	case errors.Is(err, ErrHostUnresolved):
		return sysexits.NoHost
	case errors.Is(err, bench.ErrProtocol), errors.Is(err, bench.ErrReconnectExhausted):
		return sysexits.Protocol
	default:
		return sysexits.OSErr
	}
}
