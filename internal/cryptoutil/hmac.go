package cryptoutil

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
)

// HMAC computes the keyed hash of msg under key, selecting the underlying
// hash function at call time from the tagged algorithm variant.
func HMAC(algo Algorithm, key, msg []byte) []byte {
	var newHash func() hash.Hash
	switch algo {
	case SHA256:
		newHash = sha256.New
	case SHA512:
		newHash = sha512.New
	default:
		newHash = sha1.New
	}
	mac := hmac.New(newHash, key)
	mac.Write(msg)
	return mac.Sum(nil)
}
