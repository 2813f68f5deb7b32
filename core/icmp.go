package core

import (
	"net/netip"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/ipv4"
)

// probe sends the echo request seq and waits for what comes back. The returned error is only set
// when the transport failed, a timeout or a bad reply are reported through the round trip.
func (s *Session) probe(tr Transport, seq uint16) (*RoundTrip, error) {
	req := NewEchoRequest(s.id, seq)
	b := req.Marshal()

	s.logger.Infof("Writing echo request %x with id %d and seq %d to address %s", b, req.ID, req.Seq, s.addr)
	sentAt := s.now()
	if _, err := tr.SendTo(b, s.addr); err != nil {
		return nil, errors.Wrapf(err, "echo request %d", seq)
	}

	rt, shortened, err := s.await(tr, int(seq), sentAt)
	if err != nil {
		return nil, err
	}

	if shortened {
		if err := tr.SetReceiveTimeout(s.settings.Timeout); err != nil {
			return nil, errors.Wrapf(err, "echo request %d", seq)
		}
	}

	return rt, nil
}

// await receives until a datagram meant for this session arrives or the timeout window of the
// request sent at sentAt ends. Datagrams of other sessions are skipped, each skip shortens the
// receive timeout of the transport to what is left of the window, shortened reports it.
func (s *Session) await(tr Transport, seq int, sentAt time.Time) (*RoundTrip, bool, error) {
	deadline := sentAt.Add(s.settings.Timeout)
	buffer := make([]byte, maxPacketSize)
	shortened := false

	for {
		n, src, ttl, err := tr.ReceiveWithTTL(buffer)
		if err != nil {
			if errors.Is(err, ErrTimedOut) {
				s.logger.Infof("No reply for echo request %d within %s", seq, s.settings.Timeout)
				return buildTimedOutRT(seq), shortened, nil
			}
			return nil, shortened, errors.Wrapf(err, "echo request %d", seq)
		}
		receivedAt := s.now()

		s.logger.Tracef("Raw packet received from %s with ttl %d: %x", src, ttl, buffer[:n])

		if !s.isForeign(buffer[:n], tr.HeaderIncluded()) {
			return s.classify(buffer[:n], tr.HeaderIncluded(), src, ttl, seq, receivedAt.Sub(sentAt)), shortened, nil
		}

		remaining := deadline.Sub(receivedAt)
		if remaining <= 0 {
			s.logger.Infof("No reply for echo request %d within %s", seq, s.settings.Timeout)
			return buildTimedOutRT(seq), shortened, nil
		}
		if err := tr.SetReceiveTimeout(remaining); err != nil {
			return nil, shortened, errors.Wrapf(err, "echo request %d", seq)
		}
		shortened = true
	}
}

// isForeign returns whether a datagram belongs to someone else: an echo request, ours looped back
// or another host's, or an echo reply to another identifier. Identifiers are only compared when the
// IP header is included, datagram sockets rewrite them and only deliver replies to their own requests.
// Datagrams that do not parse are not foreign, they are reported as invalid.
func (s *Session) isForeign(b []byte, headerIncluded bool) bool {
	reply, err := ParseEchoReply(b, headerIncluded)
	if err != nil {
		return false
	}

	if reply.ICMPType() == ipv4.ICMPTypeEcho {
		s.logger.Debugf("Skipping echo request with id %d and seq %d from %s", reply.ID, reply.Seq, reply.Src)
		return true
	}

	if headerIncluded && reply.IsEchoReply() && reply.ID != s.id {
		s.logger.Debugf("Skipping echo reply with id %d from %s, session id is %d", reply.ID, reply.Src, s.id)
		return true
	}

	return false
}

// classify turns a received buffer into a round trip. It is a success only for an echo reply
// coming from the target; anything else, including a buffer too short to parse, is Invalid.
func (s *Session) classify(b []byte, headerIncluded bool, src netip.Addr, ttl int, seq int,
	rtt time.Duration) *RoundTrip {
	rt := &RoundTrip{
		Seq: seq,
		Len: len(b),
		Src: src,
		TTL: ttl,
		Res: Invalid,
	}

	reply, err := ParseEchoReply(b, headerIncluded)
	if err != nil {
		s.logger.Warnf("Could not parse reply to echo request %d: %s", seq, err)
		return rt
	}

	if !rt.Src.IsValid() {
		rt.Src = reply.Src
	}
	if reply.TTL >= 0 {
		rt.TTL = reply.TTL
	}

	if !reply.IsEchoReply() {
		s.logger.Debugf("Received %s (type %d, code %d) instead of an echo reply", reply.ICMPType(),
			reply.Type, reply.Code)
		return rt
	}

	if rt.Src.IsValid() && rt.Src != s.addr {
		s.logger.Debugf("Received echo reply from %s while pinging %s", rt.Src, s.addr)
		return rt
	}

	if int(reply.Seq) != seq {
		s.logger.Debugf("Echo reply carries seq %d while waiting for %d", reply.Seq, seq)
	}

	rt.Res = Replied
	rt.Time = rtt

	return rt
}
