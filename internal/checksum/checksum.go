// Package checksum fingerprints render inputs so unchanged notes can be
// skipped.
package checksum

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Digest accumulates length-prefixed fields into a SHA-256 hash, so
// ("ab", "c") and ("a", "bc") give different sums.
type Digest struct {
	h hash.Hash
}

// New returns an empty Digest.
func New() *Digest {
	return &Digest{h: sha256.New()}
}

// Bytes adds one field.
func (d *Digest) Bytes(b []byte) *Digest {
	var n [binary.MaxVarintLen64]byte
	d.h.Write(n[:binary.PutUvarint(n[:], uint64(len(b)))])
	d.h.Write(b)
	return d
}

// Add adds each string as its own field.
func (d *Digest) Add(fields ...string) *Digest {
	for _, f := range fields {
		d.Bytes([]byte(f))
	}
	return d
}

// String returns the hex-encoded sum of everything added so far.
func (d *Digest) String() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
