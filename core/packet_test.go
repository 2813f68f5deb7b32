package core

import (
	"net"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// TestEchoRequestMarshalLayout verifies the wire layout field by field
func TestEchoRequestMarshalLayout(t *testing.T) {
	req := NewEchoRequest(0x1234, 0x0102)
	b := req.Marshal()

	require.Len(t, b, 12)
	assert.Equal(t, req.Len(), len(b))
	assert.Equal(t, byte(8), b[0])
	assert.Equal(t, byte(0), b[1])
	assert.Equal(t, []byte{0x12, 0x34}, b[4:6])
	assert.Equal(t, []byte{0x01, 0x02}, b[6:8])
	assert.Equal(t, []byte("echo"), b[8:])
	assert.Equal(t, req.Checksum(), uint16(b[2])<<8|uint16(b[3]))
	assert.Equal(t, ipv4.ICMPTypeEcho, req.Type())
}

// TestEchoRequestChecksumFollowsFields verifies that changing a field changes the
// checksum written by the next Marshal
func TestEchoRequestChecksumFollowsFields(t *testing.T) {
	req := NewEchoRequest(1, 1)
	before := req.Marshal()

	req.Seq = 2
	after := req.Marshal()

	assert.NotEqual(t, before[2:4], after[2:4])
	assert.Equal(t, uint16(0xffff), sumWords(after))
}

// TestEchoRequestMatchesXNet verifies that the encoding is byte for byte what
// golang.org/x/net/icmp produces for the same message
func TestEchoRequestMatchesXNet(t *testing.T) {
	for _, seq := range []int{0, 1, 7, 1000, 0xffff} {
		req := NewEchoRequest(0xabcd, uint16(seq))

		msg := &icmp.Message{
			Type: ipv4.ICMPTypeEcho,
			Code: 0,
			Body: &icmp.Echo{ID: 0xabcd, Seq: seq, Data: echoPayload[:]},
		}
		expected, err := msg.Marshal(nil)
		require.NoError(t, err)

		assert.Equal(t, expected, req.Marshal(), "seq %d", seq)
	}
}

// TestEchoRequestDecodedByGopacket verifies a third party decoder reads our fields back
func TestEchoRequestDecodedByGopacket(t *testing.T) {
	req := NewEchoRequest(4242, 17)
	b := req.Marshal()

	pkt := gopacket.NewPacket(b, layers.LayerTypeICMPv4, gopacket.Default)
	layer := pkt.Layer(layers.LayerTypeICMPv4)
	require.NotNil(t, layer)

	msg := layer.(*layers.ICMPv4)
	assert.Equal(t, uint8(layers.ICMPv4TypeEchoRequest), msg.TypeCode.Type())
	assert.Equal(t, uint8(0), msg.TypeCode.Code())
	assert.Equal(t, uint16(4242), msg.Id)
	assert.Equal(t, uint16(17), msg.Seq)
	assert.Equal(t, req.Checksum(), msg.Checksum)
	assert.Equal(t, []byte("echo"), msg.Payload)
}

// TestEchoRoundTripAllSequences verifies decode(encode(req)) keeps id and seq for every seq
func TestEchoRoundTripAllSequences(t *testing.T) {
	for seq := 0; seq <= 0xffff; seq++ {
		req := NewEchoRequest(0x0f0f, uint16(seq))

		reply, err := ParseEchoReply(req.Marshal(), false)
		if !assert.NoError(t, err) {
			return
		}
		if !assert.Equal(t, req.Seq, reply.Seq) || !assert.Equal(t, req.ID, reply.ID) {
			return
		}
	}
}

func TestParseEchoReplyWithoutHeader(t *testing.T) {
	b := buildICMP(t, layers.ICMPv4TypeEchoReply, 0, 9, 3, target, 0, false)

	reply, err := ParseEchoReply(b, false)
	require.NoError(t, err)

	assert.Equal(t, 0, reply.HeaderLen)
	assert.Equal(t, uint8(0), reply.Type)
	assert.Equal(t, uint8(0), reply.Code)
	assert.Equal(t, uint16(9), reply.ID)
	assert.Equal(t, uint16(3), reply.Seq)
	assert.Equal(t, []byte("echo"), reply.Payload)
	assert.Equal(t, -1, reply.TTL)
	assert.False(t, reply.Src.IsValid())
	assert.True(t, reply.IsEchoReply())
	assert.Equal(t, b, reply.Raw)
}

func TestParseEchoReplyWithHeader(t *testing.T) {
	b := buildICMP(t, layers.ICMPv4TypeEchoReply, 0, 9, 3, target, 56, true)

	reply, err := ParseEchoReply(b, true)
	require.NoError(t, err)

	assert.Equal(t, 20, reply.HeaderLen)
	assert.Equal(t, 56, reply.TTL)
	assert.Equal(t, target, reply.Src)
	assert.Equal(t, uint16(3), reply.Seq)
	assert.True(t, reply.IsEchoReply())
	assert.Len(t, reply.Raw, 20+12)
}

// TestParseEchoReplyWithHeaderOptions verifies the ICMP message is found after IP options
func TestParseEchoReplyWithHeaderOptions(t *testing.T) {
	icmpMsg := buildICMP(t, layers.ICMPv4TypeEchoReply, 0, 1, 2, target, 0, false)
	hdr := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen + 4,
		TotalLen: ipv4.HeaderLen + 4 + len(icmpMsg),
		TTL:      30,
		Protocol: 1,
		Src:      net.IP(target.AsSlice()),
		Dst:      net.IP(local.AsSlice()),
		Options:  []byte{1, 1, 1, 0},
	}
	hb, err := hdr.Marshal()
	require.NoError(t, err)

	reply, err := ParseEchoReply(append(hb, icmpMsg...), true)
	require.NoError(t, err)

	assert.Equal(t, 24, reply.HeaderLen)
	assert.Equal(t, 30, reply.TTL)
	assert.Equal(t, uint16(2), reply.Seq)
	assert.True(t, reply.IsEchoReply())
}

// TestParseEchoReplyLenientCode verifies that any code is accepted on an echo reply
func TestParseEchoReplyLenientCode(t *testing.T) {
	b := buildICMP(t, layers.ICMPv4TypeEchoReply, 3, 1, 1, target, 0, false)

	reply, err := ParseEchoReply(b, false)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), reply.Code)
	assert.True(t, reply.IsEchoReply())
}

func TestParseEchoReplyOtherType(t *testing.T) {
	b := buildICMP(t, layers.ICMPv4TypeDestinationUnreachable, 1, 1, 1, target, 0, false)

	reply, err := ParseEchoReply(b, false)
	require.NoError(t, err)
	assert.False(t, reply.IsEchoReply())
	assert.Equal(t, ipv4.ICMPTypeDestinationUnreachable, reply.ICMPType())
	assert.Equal(t, "destination unreachable", reply.ICMPType().String())
}

// TestParseEchoReplyMalformed verifies that every short or inconsistent buffer is
// rejected with ErrMalformedPacket instead of being read out of bounds
func TestParseEchoReplyMalformed(t *testing.T) {
	full := buildICMP(t, layers.ICMPv4TypeEchoReply, 0, 1, 1, target, 64, true)

	badIHL := append([]byte(nil), full...)
	badIHL[0] = 0x4f // 60 bytes of header in a 32 bytes buffer

	tinyIHL := append([]byte(nil), full...)
	tinyIHL[0] = 0x41

	cases := []struct {
		name           string
		b              []byte
		headerIncluded bool
	}{
		{"empty", []byte{}, false},
		{"empty with header", []byte{}, true},
		{"short icmp", full[20:27], false},
		{"short ip header", full[:19], true},
		{"ip header only", full[:20], true},
		{"ip header and short icmp", full[:27], true},
		{"ihl past buffer", badIHL, true},
		{"ihl below minimum", tinyIHL, true},
	}

	for _, c := range cases {
		reply, err := ParseEchoReply(c.b, c.headerIncluded)
		assert.Nil(t, reply, c.name)
		assert.True(t, errors.Is(err, ErrMalformedPacket), c.name)
	}
}
