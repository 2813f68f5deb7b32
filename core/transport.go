package core

import (
	"net/netip"
	"time"
)

// Transport is the set of socket operations the session needs to exchange ICMP messages.
// There is one implementation per platform family, the session only sees this interface.
type Transport interface {
	// SetReceiveTimeout bounds the wait of subsequent receives.
	SetReceiveTimeout(d time.Duration) error

	// SendTo writes b to dst and returns the amount of bytes written.
	SendTo(b []byte, dst netip.Addr) (int, error)

	// ReceiveWithTTL reads one datagram into b. It returns the amount of bytes read, the source
	// and the TTL carried by ancillary data, zero when not available. ErrTimedOut is returned
	// when nothing arrived before the receive timeout.
	ReceiveWithTTL(b []byte) (n int, src netip.Addr, ttl int, err error)

	// HeaderIncluded returns whether received datagrams start with the IPv4 header.
	HeaderIncluded() bool

	// Close releases the socket. It can be called more than once.
	Close()
}

// TransportOpener opens a transport configured by the settings.
type TransportOpener func(settings *Settings) (Transport, error)

// OpenTransport opens the ICMP transport of the running platform.
func OpenTransport(settings *Settings) (Transport, error) {
	return openTransport(settings)
}

// receiveTimeoutMillis converts a receive timeout to whole milliseconds, rounded up so that a
// positive timeout never becomes zero, which Winsock reads as no timeout.
func receiveTimeoutMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Millisecond - 1) / time.Millisecond)
}
