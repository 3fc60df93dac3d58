package ddc

import (
	"errors"
	"fmt"
)

const (
	// AddrDDC is the I2C slave address of the DDC/CI command interface.
	AddrDDC uint16 = 0x37
	// AddrEDID is the I2C slave address of the EDID EEPROM.
	AddrEDID uint16 = 0x50

	hostAddr    = 0x51 // source address the host writes with
	destAddr    = 0x6E // monitor write address, seeds the request checksum
	replySeed   = 0x50 // seeds the reply checksum
	lengthFlag  = 0x80
	opGetVCP    = 0x01
	opGetVCPRep = 0x02
	opSetVCP    = 0x03

	getReplyLen = 11
)

var (
	ErrChecksum    = errors.New("ddc: bad checksum")
	ErrNullReply   = errors.New("ddc: null reply")
	ErrUnsupported = errors.New("ddc: unsupported VCP feature")
	ErrMalformed   = errors.New("ddc: malformed reply")
)

// VCPReply is the decoded answer to a Get VCP Feature request.
type VCPReply struct {
	Code    byte
	Type    byte
	Value   uint16
	Maximum uint16
}

func checksum(seed byte, b []byte) byte {
	for _, c := range b {
		seed ^= c
	}
	return seed
}

// encodeRequest frames payload as a host-to-display DDC/CI message.
func encodeRequest(payload []byte) []byte {
	msg := make([]byte, 0, len(payload)+3)
	msg = append(msg, hostAddr, lengthFlag|byte(len(payload)))
	msg = append(msg, payload...)
	return append(msg, checksum(destAddr, msg))
}

func getVCPRequest(code byte) []byte {
	return encodeRequest([]byte{opGetVCP, code})
}

func setVCPRequest(code byte, value uint16) []byte {
	return encodeRequest([]byte{opSetVCP, code, byte(value >> 8), byte(value)})
}

func decodeGetVCPReply(code byte, b []byte) (VCPReply, error) {
	if len(b) < 3 {
		return VCPReply{}, ErrMalformed
	}

	n := int(b[1] &^ lengthFlag)
	if b[1]&lengthFlag == 0 || len(b) < n+3 {
		return VCPReply{}, fmt.Errorf("%w: length byte 0x%02x", ErrMalformed, b[1])
	}
	if checksum(replySeed, b[:n+2]) != b[n+2] {
		return VCPReply{}, ErrChecksum
	}
	if n == 0 {
		return VCPReply{}, ErrNullReply
	}
	if n != getReplyLen-3 || b[2] != opGetVCPRep {
		return VCPReply{}, fmt.Errorf("%w: opcode 0x%02x length %d", ErrMalformed, b[2], n)
	}

	switch b[3] {
	case 0x00:
	case 0x01:
		return VCPReply{}, fmt.Errorf("%w: 0x%02x", ErrUnsupported, code)
	default:
		return VCPReply{}, fmt.Errorf("%w: result code 0x%02x", ErrMalformed, b[3])
	}
	if b[4] != code {
		return VCPReply{}, fmt.Errorf("%w: asked for 0x%02x, got 0x%02x", ErrMalformed, code, b[4])
	}

	return VCPReply{
		Code:    b[4],
		Type:    b[5],
		Maximum: uint16(b[6])<<8 | uint16(b[7]),
		Value:   uint16(b[8])<<8 | uint16(b[9]),
	}, nil
}
