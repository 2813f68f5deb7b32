package core

import (
	"net/netip"
	"time"
)

// RoundTripResult is the outcome of one probe
type RoundTripResult int

const (
	// Replied is the result of when an echo request is answered by a valid echo reply
	Replied RoundTripResult = iota
	// TimedOut is the result of when nothing arrives within the receive timeout
	TimedOut
	// Invalid is the result of when the datagram received is malformed, not an echo reply,
	// or comes from another host
	Invalid
)

// String returns a lower case name of the result.
func (r RoundTripResult) String() string {
	switch r {
	case Replied:
		return "replied"
	case TimedOut:
		return "timed out"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// RoundTrip is the outcome of a single echo request.
type RoundTrip struct {
	Seq  int             // seq of the request
	Len  int             // bytes read from the socket, zero on timeout
	Src  netip.Addr      // src of the reply, invalid on timeout
	TTL  int             // time-to-live of the reply, zero when unknown
	Time time.Duration   // rtt, successful-only
	Res  RoundTripResult // result
}

// buildTimedOutRT builds a round trip object containing data relevant to a timed out request.
func buildTimedOutRT(seq int) *RoundTrip {
	return &RoundTrip{
		Seq: seq,
		Res: TimedOut,
	}
}
