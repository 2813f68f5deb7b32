package core

import (
	"syscall"

	"github.com/cockroachdb/errors"
)

var (
	// ErrAddressParse is returned when the destination is not a valid IPv4 literal.
	ErrAddressParse = errors.New("invalid IPv4 address")
	// ErrInvalidSettings is returned when the session settings are out of range.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrSocketInit is returned when the ICMP socket could not be created.
	ErrSocketInit = errors.New("socket initialization failed")
	// ErrSocketConfig is returned when the OS rejects a socket option.
	ErrSocketConfig = errors.New("socket configuration failed")
	// ErrSend is returned when an echo request could not be written to the socket.
	ErrSend = errors.New("send failed")
	// ErrReceive is returned when reading from the socket failed for a reason other than a timeout.
	ErrReceive = errors.New("receive failed")
	// ErrTimedOut is returned when no datagram arrived within the receive timeout.
	ErrTimedOut = errors.New("request timed out")
	// ErrMalformedPacket is returned when a received buffer is too short to hold the expected headers.
	ErrMalformedPacket = errors.New("malformed packet")
)

// platformError wraps an error coming from the OS socket API, keeping the numeric error code
// in the message and marking it with kind so that both errors.Is(err, kind) and
// errors.Is(err, errno) hold.
func platformError(kind error, op string, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errors.Mark(errors.Wrapf(err, "%v: %s (code %d)", kind, op, uintptr(errno)), kind)
	}

	return errors.Mark(errors.Wrapf(err, "%v: %s", kind, op), kind)
}
