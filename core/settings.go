package core

import (
	"math"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
)

// Settings contains all configurable properties of a ping session.
type Settings struct {
	// Count is the amount of echo requests sent before exiting.
	// Sequence numbers are 16 bits wide, so it can not exceed 65535.
	Count int

	// Timeout is the time to wait for the reply of each echo request.
	Timeout time.Duration

	// TTL is the IP Time to Live set on outgoing echo requests.
	TTL int

	// IsPrivileged defines if privileged (raw ICMP sockets) or unprivileged (datagram-oriented) mode is used.
	// Windows only supports raw sockets.
	IsPrivileged bool

	// LoggingLevel is the logrus level of the session logger.
	LoggingLevel uint32
}

// DefaultSettings returns the default settings for a ping session, change as you wish.
func DefaultSettings() *Settings {
	return &Settings{
		Count:        4,
		Timeout:      5 * time.Second,
		TTL:          64,
		IsPrivileged: runtime.GOOS == "windows",
		LoggingLevel: uint32(log.WarnLevel),
	}
}

func (s *Settings) validate() error {
	if s.Count <= 0 || s.Count > math.MaxUint16 {
		return errors.Mark(errors.Newf("%v: count must be between 1 and %d, got %d",
			ErrInvalidSettings, math.MaxUint16, s.Count), ErrInvalidSettings)
	}

	if s.Timeout <= 0 {
		return errors.Mark(errors.Newf("%v: timeout must be positive, got %s",
			ErrInvalidSettings, s.Timeout), ErrInvalidSettings)
	}

	if s.TTL <= 0 || s.TTL > math.MaxUint8 {
		return errors.Mark(errors.Newf("%v: ttl must be between 1 and %d, got %d",
			ErrInvalidSettings, math.MaxUint8, s.TTL), ErrInvalidSettings)
	}

	if s.LoggingLevel > uint32(log.TraceLevel) {
		return errors.Mark(errors.Newf("%v: unknown logging level %d",
			ErrInvalidSettings, s.LoggingLevel), ErrInvalidSettings)
	}

	return nil
}
