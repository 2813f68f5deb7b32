package core

import (
	"encoding/binary"
	"net/netip"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/ipv4"
)

const (
	echoCode       = 0
	icmpHeaderLen  = 8
	payloadLength  = 4
	echoRequestLen = icmpHeaderLen + payloadLength

	// maxPacketSize is the size of the receive buffer, large enough for an IP header with options
	// followed by any ICMP message we care about.
	maxPacketSize = 1024
)

// echoPayload is the fixed data carried by every echo request.
var echoPayload = [payloadLength]byte{'e', 'c', 'h', 'o'}

// EchoRequest is an outbound ICMP Echo Request.
type EchoRequest struct {
	// ID identifies the probe stream of a session.
	ID uint16
	// Seq is the 0-based probe number.
	Seq uint16
	// Payload is the data carried after the header.
	Payload [payloadLength]byte
}

// NewEchoRequest builds the echo request for probe seq of the stream id.
func NewEchoRequest(id, seq uint16) *EchoRequest {
	return &EchoRequest{
		ID:      id,
		Seq:     seq,
		Payload: echoPayload,
	}
}

// Type returns the ICMP type of the request, always Echo.
func (r *EchoRequest) Type() ipv4.ICMPType {
	return ipv4.ICMPTypeEcho
}

// Checksum returns the checksum of the request as it is currently filled.
func (r *EchoRequest) Checksum() uint16 {
	return echoChecksum(uint8(ipv4.ICMPTypeEcho), echoCode, r.ID, r.Seq, r.Payload)
}

// Len returns the length of the serialized request.
func (r *EchoRequest) Len() int {
	return echoRequestLen
}

// Marshal returns the wire format of the request, with the checksum recomputed.
func (r *EchoRequest) Marshal() []byte {
	b := make([]byte, echoRequestLen)
	b[0] = byte(ipv4.ICMPTypeEcho)
	b[1] = echoCode
	binary.BigEndian.PutUint16(b[2:4], r.Checksum())
	binary.BigEndian.PutUint16(b[4:6], r.ID)
	binary.BigEndian.PutUint16(b[6:8], r.Seq)
	copy(b[icmpHeaderLen:], r.Payload[:])
	return b
}

// EchoReply is the parsed view of an inbound datagram.
type EchoReply struct {
	// Raw is the received buffer, truncated to the bytes actually read.
	Raw []byte
	// HeaderLen is the length of the IP header in Raw, zero when the socket strips it.
	HeaderLen int
	// Type and Code are the first two bytes of the ICMP message.
	Type uint8
	Code uint8
	// Checksum, ID and Seq are the remaining ICMP header fields.
	Checksum uint16
	ID       uint16
	Seq      uint16
	// Payload is everything after the ICMP header.
	Payload []byte
	// TTL is the time-to-live of the carrying IP packet, -1 when the IP header is not present.
	TTL int
	// Src is the source of the carrying IP packet, invalid when the IP header is not present.
	Src netip.Addr
}

// ParseEchoReply parses a received buffer. When headerIncluded is set the buffer starts with the
// IPv4 header, otherwise it starts with the ICMP message.
func ParseEchoReply(b []byte, headerIncluded bool) (*EchoReply, error) {
	reply := &EchoReply{Raw: b, TTL: -1}

	if headerIncluded {
		if len(b) < ipv4.HeaderLen {
			return nil, errors.Mark(errors.Newf("%v: %d bytes received of min %d for the IP header",
				ErrMalformedPacket, len(b), ipv4.HeaderLen), ErrMalformedPacket)
		}

		if ihl := int(b[0]&0x0f) << 2; ihl < ipv4.HeaderLen || ihl > len(b) {
			return nil, errors.Mark(errors.Newf("%v: IP header length %d out of range for %d bytes",
				ErrMalformedPacket, ihl, len(b)), ErrMalformedPacket)
		}

		hdr, err := ipv4.ParseHeader(b)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "%v: bad IP header", ErrMalformedPacket), ErrMalformedPacket)
		}

		reply.HeaderLen = hdr.Len
		reply.TTL = hdr.TTL
		if src, ok := netip.AddrFromSlice(hdr.Src.To4()); ok {
			reply.Src = src
		}
	}

	icmpMsg := b[reply.HeaderLen:]
	if len(icmpMsg) < icmpHeaderLen {
		return nil, errors.Mark(errors.Newf("%v: %d ICMP bytes received of min %d",
			ErrMalformedPacket, len(icmpMsg), icmpHeaderLen), ErrMalformedPacket)
	}

	reply.Type = icmpMsg[0]
	reply.Code = icmpMsg[1]
	reply.Checksum = binary.BigEndian.Uint16(icmpMsg[2:4])
	reply.ID = binary.BigEndian.Uint16(icmpMsg[4:6])
	reply.Seq = binary.BigEndian.Uint16(icmpMsg[6:8])
	reply.Payload = icmpMsg[icmpHeaderLen:]

	return reply, nil
}

// IsEchoReply returns whether the message is an Echo Reply. Any code is accepted.
func (r *EchoReply) IsEchoReply() bool {
	return ipv4.ICMPType(r.Type) == ipv4.ICMPTypeEchoReply
}

// ICMPType returns the message type as understood by x/net, mainly for logging.
func (r *EchoReply) ICMPType() ipv4.ICMPType {
	return ipv4.ICMPType(r.Type)
}
