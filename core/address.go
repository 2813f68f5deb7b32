package core

import (
	"net/netip"

	"github.com/cockroachdb/errors"
)

// parseIPv4 parses an IPv4 literal. IPv4-mapped IPv6 literals are accepted and unmapped,
// anything else (hostnames included) is rejected.
func parseIPv4(address string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return netip.Addr{}, errors.Mark(errors.Wrapf(err, "%v %q", ErrAddressParse, address), ErrAddressParse)
	}

	addr = addr.Unmap()
	if !addr.Is4() {
		return netip.Addr{}, errors.Mark(errors.Newf("%v %q: not an IPv4 address", ErrAddressParse, address), ErrAddressParse)
	}

	return addr, nil
}
