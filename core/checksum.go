package core

// echoChecksum computes the Internet checksum (RFC 1071) of an echo message with the given
// fields. The checksum field itself counts as zero.
func echoChecksum(typ, code uint8, id, seq uint16, payload [payloadLength]byte) uint16 {
	words := [...]uint16{
		uint16(typ)<<8 | uint16(code),
		0,
		uint16(payload[0])<<8 | uint16(payload[1]),
		uint16(payload[2])<<8 | uint16(payload[3]),
		id,
		seq,
	}

	var sum uint32
	for _, w := range words {
		sum += uint32(w)
	}

	return ^fold(sum)
}

// fold adds the carries above bit 15 back into the low 16 bits until none remain.
func fold(sum uint32) uint16 {
	for sum>>16 != 0 {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	return uint16(sum)
}
