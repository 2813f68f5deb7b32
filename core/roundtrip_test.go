package core

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestRTBuildTimedOut tests whether the TimedOut RT is properly built
func TestRTBuildTimedOut(t *testing.T) {
	rt := buildTimedOutRT(7)

	assert.Equal(t, TimedOut, rt.Res)
	assert.Equal(t, 7, rt.Seq)
	assert.Zero(t, rt.Time)
	assert.Zero(t, rt.Len)
	assert.Zero(t, rt.TTL)
	assert.False(t, rt.Src.IsValid())
}

func TestRoundTripResultString(t *testing.T) {
	assert.Equal(t, "replied", Replied.String())
	assert.Equal(t, "timed out", TimedOut.String())
	assert.Equal(t, "invalid", Invalid.String())
	assert.Equal(t, "unknown", RoundTripResult(42).String())
}

// buildRoundTrip returns a stub round trip with the desired result
func buildRoundTrip(res RoundTripResult) *RoundTrip {
	return &RoundTrip{
		TTL:  5,
		Seq:  0,
		Len:  12,
		Src:  netip.AddrFrom4([4]byte{127, 0, 0, 1}),
		Time: time.Millisecond,
		Res:  res,
	}
}
