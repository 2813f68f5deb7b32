package cmd

import (
	"fmt"
	"io"
	"net/netip"

	"github.com/mikaelmello/echoping/core"
)

// printer writes the console report of a session
type printer struct {
	out io.Writer
}

// register registers its callbacks to be called by the session
func (p *printer) register(s *core.Session) {
	s.AddOnStart(p.printOnStart)
	s.AddOnRecv(p.printOnRoundTrip)
	s.AddOnFinish(p.printOnEnd)
}

func (p *printer) printOnStart(s *core.Session, req *core.EchoRequest) {
	fmt.Fprintf(p.out, "Pinging %s with %d bytes of data:\n", s.Address(), len(req.Payload))
}

func (p *printer) printOnRoundTrip(s *core.Session, rt *core.RoundTrip) {
	switch rt.Res {
	case core.Replied:
		src := rt.Src
		if !src.IsValid() {
			src = s.Address()
		}
		fmt.Fprintf(p.out, "Received %d bytes from %s, time=%dms, TTL=%d\n",
			rt.Len, netip.AddrPortFrom(src, 0), rt.Time.Milliseconds(), rt.TTL)
	case core.TimedOut:
		fmt.Fprintln(p.out, "Request timed out")
	default:
		fmt.Fprintln(p.out, "Returned packet is not a valid response")
	}
}

func (p *printer) printOnEnd(s *core.Session) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Statistics:")
	fmt.Fprintf(p.out, "     Packets: Sent=%d, Received=%d, Lost=%d (%d%% loss)\n",
		s.Stats.Sent, s.Stats.Received, s.Stats.Lost, s.Stats.LossPercent())
}
