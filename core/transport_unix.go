//go:build linux || darwin || freebsd
// +build linux darwin freebsd

package core

import (
	"net/netip"
	"runtime"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// unixTransport talks ICMP through a blocking socket. Unprivileged mode uses the datagram-oriented
// ICMP socket (Linux needs net.ipv4.ping_group_range to include the user), privileged mode a raw one.
type unixTransport struct {
	fd             int
	headerIncluded bool
	oob            []byte
	closeOnce      sync.Once
}

func openTransport(settings *Settings) (Transport, error) {
	typ := unix.SOCK_DGRAM
	if settings.IsPrivileged {
		typ = unix.SOCK_RAW
	}

	fd, err := unix.Socket(unix.AF_INET, typ, unix.IPPROTO_ICMP)
	if err != nil {
		return nil, platformError(ErrSocketInit, "socket", err)
	}
	unix.CloseOnExec(fd)

	t := &unixTransport{
		fd: fd,
		// raw sockets always deliver the IP header, Darwin also does it on datagram sockets
		headerIncluded: typ == unix.SOCK_RAW || runtime.GOOS == "darwin",
		oob:            ipv4.NewControlMessage(ipv4.FlagTTL),
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TTL, settings.TTL); err != nil {
		t.Close()
		return nil, platformError(ErrSocketConfig, "setsockopt IP_TTL", err)
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_RECVTTL, 1); err != nil {
		t.Close()
		return nil, platformError(ErrSocketConfig, "setsockopt IP_RECVTTL", err)
	}

	return t, nil
}

func (t *unixTransport) SetReceiveTimeout(d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	if err := unix.SetsockoptTimeval(t.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return platformError(ErrSocketConfig, "setsockopt SO_RCVTIMEO", err)
	}
	return nil
}

func (t *unixTransport) SendTo(b []byte, dst netip.Addr) (int, error) {
	sa := &unix.SockaddrInet4{Addr: dst.As4()}
	if err := unix.Sendto(t.fd, b, 0, sa); err != nil {
		return 0, platformError(ErrSend, "sendto", err)
	}
	return len(b), nil
}

func (t *unixTransport) ReceiveWithTTL(b []byte) (int, netip.Addr, int, error) {
	for {
		n, oobn, _, from, err := unix.Recvmsg(t.fd, b, t.oob, 0)
		switch {
		case err == nil:
			return n, sourceOf(from), t.parseTTL(t.oob[:oobn]), nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK), errors.Is(err, unix.ETIMEDOUT):
			return 0, netip.Addr{}, 0, ErrTimedOut
		default:
			return 0, netip.Addr{}, 0, platformError(ErrReceive, "recvmsg", err)
		}
	}
}

// parseTTL returns the TTL found in the ancillary data, zero if there is none.
func (t *unixTransport) parseTTL(oob []byte) int {
	if len(oob) == 0 {
		return 0
	}

	var cm ipv4.ControlMessage
	if err := cm.Parse(oob); err != nil {
		return 0
	}
	return cm.TTL
}

func (t *unixTransport) HeaderIncluded() bool {
	return t.headerIncluded
}

func (t *unixTransport) Close() {
	t.closeOnce.Do(func() {
		_ = unix.Close(t.fd)
	})
}

func sourceOf(sa unix.Sockaddr) netip.Addr {
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		return netip.AddrFrom4(in4.Addr)
	}
	return netip.Addr{}
}
