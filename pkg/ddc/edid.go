package ddc

import (
	"bytes"
	"errors"
	"strings"
)

const edidBlockLen = 128

var (
	ErrNoEDID = errors.New("ddc: no EDID")

	edidHeader = []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}
)

// EDID holds the identification fields read from a monitor's base block.
type EDID struct {
	Manufacturer string
	ProductCode  uint16
	Model        string
	Serial       string
}

// ParseEDID decodes the 128-byte EDID base block.
func ParseEDID(b []byte) (EDID, error) {
	if len(b) < edidBlockLen || !bytes.Equal(b[:8], edidHeader) {
		return EDID{}, ErrNoEDID
	}
	// the block sums to zero mod 256
	var sum byte
	for _, c := range b[:edidBlockLen] {
		sum += c
	}
	if sum != 0 {
		return EDID{}, ErrChecksum
	}

	e := EDID{
		Manufacturer: pnpID(uint16(b[8])<<8 | uint16(b[9])),
		ProductCode:  uint16(b[10]) | uint16(b[11])<<8,
	}

	for off := 54; off+18 <= 126; off += 18 {
		d := b[off : off+18]
		if d[0] != 0 || d[1] != 0 || d[2] != 0 {
			continue
		}
		switch d[3] {
		case 0xFC:
			e.Model = descriptorText(d[5:])
		case 0xFF:
			e.Serial = descriptorText(d[5:])
		}
	}

	return e, nil
}

func descriptorText(b []byte) string {
	if i := bytes.IndexByte(b, 0x0A); i >= 0 {
		b = b[:i]
	}
	return strings.TrimRight(string(b), " \x00")
}

// pnpID decodes the three 5-bit letters of the manufacturer id.
func pnpID(v uint16) string {
	letters := []byte{
		byte(v>>10&0x1F) + '@',
		byte(v>>5&0x1F) + '@',
		byte(v&0x1F) + '@',
	}
	return string(letters)
}
