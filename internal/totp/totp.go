// Package totp implements RFC 6238 time-based one-time passwords over the
// RFC 4226 HOTP counter algorithm, with a configurable per-credential
// acceptance window.
package totp

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/relayauth/totpgate/internal/cryptoutil"
)

// pow10 covers every digit count the config schema allows (6..9).
var pow10 = [10]int{1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000, 1000000000}

// Params carries the per-credential HOTP parameters. It intentionally does
// not import the config package — TOTP has no business knowing about
// hostnames or passwords, only the handful of numbers RFC 6238 needs.
type Params struct {
	Secret    []byte
	Algorithm cryptoutil.Algorithm
	Digits    int
	Period    int
}

// HOTP computes the RFC 4226 counter-based one-time password.
//
// The counter is encoded as an 8-byte big-endian value; in this design the
// upper 4 bytes are always zero because counters derived from
// time.Unix()/period never exceed 32 bits within any deployment's lifetime.
// The dynamic-truncation offset comes from the low nibble of the last MAC
// byte, and the assembled 32-bit value is masked with 0x7FFFFFFF rather than
// masking the top byte before shifting — the two are equivalent, but the
// mask-after-assembly form is what this implementation preserves.
func HOTP(p Params, counter uint64) (int, error) {
	if p.Digits < 6 || p.Digits > 9 {
		return 0, fmt.Errorf("totp: digits %d out of range [6,9]", p.Digits)
	}

	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)

	sum := cryptoutil.HMAC(p.Algorithm, p.Secret, counterBytes[:])
	offset := sum[len(sum)-1] & 0x0f

	value := int(sum[offset])<<24 | int(sum[offset+1])<<16 | int(sum[offset+2])<<8 | int(sum[offset+3])
	value &= 0x7fffffff

	return value % pow10[p.Digits], nil
}

// Verify reports whether code matches the HOTP value for any counter in
// [T-window, T+window], where T = floor(now.Unix() / p.Period).
func Verify(p Params, code, window int, now time.Time) bool {
	if p.Period <= 0 {
		return false
	}
	counter := now.Unix() / int64(p.Period)
	for i := -window; i <= window; i++ {
		c := counter + int64(i)
		if c < 0 {
			continue
		}
		got, err := HOTP(p, uint64(c))
		if err != nil {
			return false
		}
		if got == code {
			return true
		}
	}
	return false
}
