//go:build windows
// +build windows

package core

import (
	"net/netip"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/windows"
)

const (
	ipprotoICMP  = 1
	ipTTL        = 4
	soRcvTimeo   = 0x1006
	wsaETimedOut = windows.Errno(10060)
)

// winTransport talks ICMP through a Winsock raw socket. Received datagrams always carry the IPv4
// header, which is where the TTL comes from.
type winTransport struct {
	fd        windows.Handle
	closeOnce sync.Once
}

func openTransport(settings *Settings) (Transport, error) {
	var data windows.WSAData
	if err := windows.WSAStartup(uint32(0x202), &data); err != nil {
		return nil, platformError(ErrSocketInit, "WSAStartup", err)
	}

	fd, err := windows.Socket(windows.AF_INET, windows.SOCK_RAW, ipprotoICMP)
	if err != nil {
		_ = windows.WSACleanup()
		return nil, platformError(ErrSocketInit, "socket", err)
	}

	t := &winTransport{fd: fd}

	if err := windows.SetsockoptInt(fd, windows.IPPROTO_IP, ipTTL, settings.TTL); err != nil {
		t.Close()
		return nil, platformError(ErrSocketConfig, "setsockopt IP_TTL", err)
	}

	return t, nil
}

func (t *winTransport) SetReceiveTimeout(d time.Duration) error {
	// SO_RCVTIMEO is a DWORD of milliseconds on Winsock
	if err := windows.SetsockoptInt(t.fd, windows.SOL_SOCKET, soRcvTimeo, receiveTimeoutMillis(d)); err != nil {
		return platformError(ErrSocketConfig, "setsockopt SO_RCVTIMEO", err)
	}
	return nil
}

func (t *winTransport) SendTo(b []byte, dst netip.Addr) (int, error) {
	sa := &windows.SockaddrInet4{Addr: dst.As4()}
	if err := windows.Sendto(t.fd, b, 0, sa); err != nil {
		return 0, platformError(ErrSend, "sendto", err)
	}
	return len(b), nil
}

func (t *winTransport) ReceiveWithTTL(b []byte) (int, netip.Addr, int, error) {
	n, from, err := windows.Recvfrom(t.fd, b, 0)
	if err != nil {
		if errors.Is(err, wsaETimedOut) {
			return 0, netip.Addr{}, 0, ErrTimedOut
		}
		return 0, netip.Addr{}, 0, platformError(ErrReceive, "recvfrom", err)
	}

	var src netip.Addr
	if in4, ok := from.(*windows.SockaddrInet4); ok {
		src = netip.AddrFrom4(in4.Addr)
	}

	// the TTL is read from the IP header by the decoder
	return n, src, 0, nil
}

func (t *winTransport) HeaderIncluded() bool {
	return true
}

func (t *winTransport) Close() {
	t.closeOnce.Do(func() {
		_ = windows.Closesocket(t.fd)
		_ = windows.WSACleanup()
	})
}
