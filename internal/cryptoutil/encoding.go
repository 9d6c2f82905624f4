package cryptoutil

import (
	"encoding/base32"
	"encoding/hex"
	"strings"
)

// HexEncode lowercases and hex-encodes b, two nibbles per byte.
func HexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

// HexDecode decodes a lowercase (or uppercase) hex string, failing on odd
// length or a non-hex digit — exactly what encoding/hex already does, so
// this exists to keep the cookie codec's call sites reading in terms of the
// gateway's own vocabulary rather than the stdlib package name.
func HexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// Base32Decode decodes s as RFC 4648 base32, tolerating missing padding and
// mixed case. Inputs are uppercased and padded to the next multiple of 8
// with '=' before decoding, matching the acceptance rules TOTP secrets are
// usually copy-pasted under (authenticator apps emit unpadded, lowercase
// secrets as often as not).
func Base32Decode(s string) ([]byte, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if rem := len(s) % 8; rem != 0 {
		s += strings.Repeat("=", 8-rem)
	}
	return base32.StdEncoding.DecodeString(s)
}
