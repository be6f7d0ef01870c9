package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Colour is a packed 32-bit ARGB value, the form tags travel in.
type Colour uint32

// FromRGBA packs 8-bit channels.
func FromRGBA(r, g, b, a uint8) Colour {
	return Colour(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// RGBA unpacks the channels.
func (c Colour) RGBA() (r, g, b, a uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c), uint8(c >> 24)
}

// ARGB returns the packed value.
func (c Colour) ARGB() uint32 {
	return uint32(c)
}

// Hex renders "#RRGGBB" for opaque colours and "#AARRGGBB" otherwise.
func (c Colour) Hex() string {
	r, g, b, a := c.RGBA()
	if a == 0xff {
		return fmt.Sprintf("#%02X%02X%02X", r, g, b)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", a, r, g, b)
}

// ParseHex accepts "#RRGGBB" (opaque) or "#AARRGGBB", with or without '#'.
func ParseHex(s string) (Colour, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 6:
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid colour %q: %w", s, err)
		}
		return Colour(0xff000000 | uint32(v)), nil
	case 8:
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid colour %q: %w", s, err)
		}
		return Colour(uint32(v)), nil
	default:
		return 0, fmt.Errorf("invalid colour %q: want 6 or 8 hex digits", s)
	}
}
