package binary

import "math/bits"

// Lookup3Checksum computes the Jenkins lookup3 (hashlittle, initval 0) hash
// that seals superblocks, object records and the object table.
func Lookup3Checksum(data []byte) uint32 {
	a := 0xdeadbeef + uint32(len(data))
	b, c := a, a

	// The last 1-12 bytes always go through the final mix, never the loop.
	for len(data) > 12 {
		a += word32(data[0:])
		b += word32(data[4:])
		c += word32(data[8:])
		a, b, c = lookup3Mix(a, b, c)
		data = data[12:]
	}
	if len(data) == 0 {
		return c
	}

	var tail [12]byte
	copy(tail[:], data)
	a += word32(tail[0:])
	b += word32(tail[4:])
	c += word32(tail[8:])
	_, _, c = lookup3Final(a, b, c)
	return c
}

func word32(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}

func lookup3Mix(a, b, c uint32) (uint32, uint32, uint32) {
	for _, r := range [...][3]int{{4, 6, 8}, {16, 19, 4}} {
		a -= c
		a ^= bits.RotateLeft32(c, r[0])
		c += b
		b -= a
		b ^= bits.RotateLeft32(a, r[1])
		a += c
		c -= b
		c ^= bits.RotateLeft32(b, r[2])
		b += a
	}
	return a, b, c
}

func lookup3Final(a, b, c uint32) (uint32, uint32, uint32) {
	c = (c ^ b) - bits.RotateLeft32(b, 14)
	a = (a ^ c) - bits.RotateLeft32(c, 11)
	b = (b ^ a) - bits.RotateLeft32(a, 25)
	c = (c ^ b) - bits.RotateLeft32(b, 16)
	a = (a ^ c) - bits.RotateLeft32(c, 4)
	b = (b ^ a) - bits.RotateLeft32(a, 14)
	c = (c ^ b) - bits.RotateLeft32(b, 24)
	return a, b, c
}

// VerifyLookup3 reports whether data hashes to expected.
func VerifyLookup3(data []byte, expected uint32) bool {
	return Lookup3Checksum(data) == expected
}

// Fletcher32 sums data as little-endian 16-bit words; an odd trailing
// byte counts as a word with a zero high byte.
func Fletcher32(data []byte) uint32 {
	const mod = 65535
	var lo, hi uint32
	for i := 0; i < len(data); i += 2 {
		w := uint32(data[i])
		if i+1 < len(data) {
			w |= uint32(data[i+1]) << 8
		}
		lo = (lo + w) % mod
		hi = (hi + lo) % mod
	}
	return hi<<16 | lo
}
