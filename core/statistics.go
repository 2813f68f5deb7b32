package core

import "time"

// Statistics aggregates the outcome of the probes of a session.
// It is a value: Record returns the updated copy and leaves the receiver untouched.
type Statistics struct {
	// Sent is the total amount of echo requests sent.
	Sent int

	// Received is the total amount of valid echo replies received in time.
	Received int

	// Lost is the total amount of echo requests without a valid reply, Sent == Received + Lost.
	Lost int

	// TimedOut is the part of Lost for which nothing arrived before the timeout.
	TimedOut int

	// Invalid is the part of Lost for which a malformed or unexpected datagram arrived.
	Invalid int

	// RTTMin contains the smallest encountered rtt
	RTTMin time.Duration

	// RTTMax contains the largest encountered rtt
	RTTMax time.Duration

	// RTTSum contains the sum of all rtts, used for the average
	RTTSum time.Duration

	// StartTime contains the start time of the session
	StartTime time.Time

	// EndTime contains the end time of the session
	EndTime time.Time
}

// Record returns the statistics updated with the outcome of one more probe.
func (s Statistics) Record(rt *RoundTrip) Statistics {
	s.Sent++

	switch rt.Res {
	case Replied:
		s.Received++
		if s.Received == 1 || rt.Time < s.RTTMin {
			s.RTTMin = rt.Time
		}
		if rt.Time > s.RTTMax {
			s.RTTMax = rt.Time
		}
		s.RTTSum += rt.Time
	case TimedOut:
		s.Lost++
		s.TimedOut++
	default:
		s.Lost++
		s.Invalid++
	}

	return s
}

// LossPercent returns the percentage of lost probes, rounded down.
func (s Statistics) LossPercent() int {
	if s.Sent == 0 {
		return 0
	}

	return s.Lost * 100 / s.Sent
}

// RTTAvg returns the average rtt of the valid replies.
func (s Statistics) RTTAvg() time.Duration {
	if s.Received == 0 {
		return 0
	}

	return s.RTTSum / time.Duration(s.Received)
}

// Duration returns how long the session ran, zero until it has ended.
func (s Statistics) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return 0
	}

	return s.EndTime.Sub(s.StartTime)
}
