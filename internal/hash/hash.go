// Package hash provides a small, fixed-size content hash used to detect
// structurally identical AST nodes and constant values without comparing
// them field by field. It is not cryptographic.
package hash

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// Hash is a 16-byte digest. The zero Hash is a valid, distinguished "empty"
// value; Add treats it as an identity element, Merge does not.
type Hash [16]byte

// Bytes hashes an arbitrary byte slice.
func Bytes(b []byte) Hash {
	var h Hash
	h1, h2 := murmur3.Sum128(b)
	binary.LittleEndian.PutUint64(h[0:8], h1)
	binary.LittleEndian.PutUint64(h[8:16], h2)
	return h
}

// String hashes a string.
func String(s string) Hash { return Bytes([]byte(s)) }

// Int hashes an int64.
func Int(v int64) Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return Bytes(buf[:])
}

// Add combines two hashes order-independently (h0.Add(h1) == h1.Add(h0)).
// Used when the order of children does not matter, e.g. struct-field sets.
func (h Hash) Add(other Hash) Hash {
	var out Hash
	for i := range out {
		out[i] = h[i] ^ other[i]
	}
	return out
}

// Merge combines two hashes order-dependently: merging is not commutative,
// so it is used to fold a sequence of child hashes (e.g. AST children, in
// source order) into one.
func (h Hash) Merge(other Hash) Hash {
	buf := make([]byte, 0, 32)
	buf = append(buf, h[:]...)
	buf = append(buf, other[:]...)
	return Bytes(buf)
}
