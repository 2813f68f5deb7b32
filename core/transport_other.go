//go:build !linux && !darwin && !freebsd && !windows
// +build !linux,!darwin,!freebsd,!windows

package core

import (
	"runtime"

	"github.com/cockroachdb/errors"
)

func openTransport(*Settings) (Transport, error) {
	return nil, errors.Mark(errors.Newf("%v: ICMP sockets are not supported on %s", ErrSocketInit, runtime.GOOS),
		ErrSocketInit)
}
