package rpz

import (
	"fmt"
	"net"
)

// IpKey is a 128-bit address key, word 0 holding the most significant
// bits. IPv4 addresses are stored IPv4-mapped: w[0]=w[1]=0, w[2]=0xffff,
// w[3] holds the 32-bit address, and every IPv4 prefix is recorded with
// +96 added so it measures from the start of the mapped address rather
// than from the start of the 128-bit key.
type IpKey [4]uint32

// v4MappedPrefixOffset is how far into the 128-bit key an IPv4 address
// begins.
const v4MappedPrefixOffset = 96

// NewIPKey builds the key for ip, along with the natural prefix length
// for an exact-host match (32 for IPv4, 128 for IPv6 -- already offset
// for IPv4 so it is a ready-to-use Prefix).
func NewIPKey(ip net.IP) (IpKey, Prefix, error) {
	if v4 := ip.To4(); v4 != nil {
		var k IpKey

		k[2] = 0x0000ffff
		k[3] = uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])

		return k, Prefix(v4MappedPrefixOffset + 32), nil
	}

	v6 := ip.To16()
	if v6 == nil {
		return IpKey{}, 0, fmt.Errorf("%w: not an IP address", ErrBadOwnerFormat)
	}

	var k IpKey

	for i := 0; i < 4; i++ {
		k[i] = uint32(v6[i*4])<<24 | uint32(v6[i*4+1])<<16 | uint32(v6[i*4+2])<<8 | uint32(v6[i*4+3])
	}

	return k, 128, nil
}

// Prefix is a bit length into an IpKey, counted from word 0 bit 31 down
// to word 3 bit 0 (i.e. from the most significant bit).
type Prefix uint8

// IsIPv4 reports whether p is at least v4MappedPrefixOffset long, i.e.
// long enough to be an IPv4-mapped prefix. It looks only at the length;
// whether the key itself is IPv4-mapped is for the caller to check.
func (p Prefix) IsIPv4() bool {
	return p >= v4MappedPrefixOffset
}

// Bit returns the value of bit index i of k (0 = most significant bit
// of word 0, 127 = least significant bit of word 3).
func (k IpKey) Bit(i uint) bool {
	word := i / 32
	shift := 31 - (i % 32)

	return (k[word]>>shift)&1 == 1
}

// CommonPrefixLen returns the number of leading bits a and b share, the
// first point at which they diverge, capped at max.
func CommonPrefixLen(a, b IpKey, max Prefix) Prefix {
	for i := uint(0); i < uint(max); i++ {
		if a.Bit(i) != b.Bit(i) {
			return Prefix(i)
		}
	}

	return max
}

// HasPrefix reports whether k's leading plen bits equal prefix's
// leading plen bits.
func (k IpKey) HasPrefix(prefix IpKey, plen Prefix) bool {
	return CommonPrefixLen(k, prefix, 128) >= plen
}

// String renders k as a colon-separated hex dump of its four words, for
// debugging and log output -- not the canonical RPZ owner-name form,
// which lives in canon.go.
func (k IpKey) String() string {
	return fmt.Sprintf("%08x:%08x:%08x:%08x", k[0], k[1], k[2], k[3])
}
