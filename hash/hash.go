// Package hash computes blake3 digests for fragments and gossip message ids.
package hash

import (
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"
)

// Size of a digest in bytes.
const Size = 32

// Digest is a blake3 digest.
type Digest [Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ShortString returns the first 10 characters of the hex encoded digest, for logging purposes.
func (d Digest) ShortString() string {
	return hex.EncodeToString(d[:5])
}

var pool = &sync.Pool{
	New: func() any {
		return blake3.New()
	},
}

// Sum returns the digest of the concatenation of chunks.
func Sum(chunks ...[]byte) (d Digest) {
	hasher := pool.Get().(*blake3.Hasher)
	defer func() {
		hasher.Reset()
		pool.Put(hasher)
	}()
	for _, chunk := range chunks {
		hasher.Write(chunk)
	}
	hasher.Sum(d[:0])
	return d
}
