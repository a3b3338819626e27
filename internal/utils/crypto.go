package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Digest is an io.Writer that accumulates a SHA-256 checksum and a byte count.
type Digest struct {
	h hash.Hash
	n int64
}

func NewDigest() *Digest {
	return &Digest{h: sha256.New()}
}

func (d *Digest) Write(p []byte) (int, error) {
	n, _ := d.h.Write(p)
	d.n += int64(n)
	return n, nil
}

func (d *Digest) Hex() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

func (d *Digest) Size() int64 {
	return d.n
}
