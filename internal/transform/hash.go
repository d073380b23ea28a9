package transform

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// hashSize is the digest length in bytes; names are 32 hex characters.
const hashSize = 16

// ContentHash returns the hex BLAKE2b-128 digest of data. It depends on the
// bytes only, so identical content always maps to the same file name.
func ContentHash(data []byte) string {
	h, err := blake2b.New(hashSize, nil)
	if err != nil {
		// Only reachable with an invalid size or key.
		panic(err)
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
