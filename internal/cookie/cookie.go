// Package cookie implements the gateway's session cookie: an
// integrity-protected, time-bounded bearer token composed of three
// colon-separated fields — issue time, hex-encoded username, and a
// hex-encoded HMAC-SHA1 tag binding the two together under the process
// secret.
package cookie

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"time"

	"github.com/relayauth/totpgate/internal/config"
	"github.com/relayauth/totpgate/internal/cryptoutil"
)

// Name is the cookie the gateway issues and inspects.
const Name = "authentication-token"

// Issue composes a signed cookie value for username under secret, stamped
// with now.
func Issue(secret []byte, username string, now time.Time) string {
	payload := strconv.FormatInt(now.Unix(), 10) + ":" + cryptoutil.HexEncode([]byte(username))
	mac := cryptoutil.HMAC(cryptoutil.SHA1, secret, []byte(payload))
	return payload + ":" + cryptoutil.HexEncode(mac)
}

// Verify checks a cookie value against secret and host's user table,
// returning true only if the MAC is intact, the username is known to host,
// and the cookie has not outlived that user's session duration. Every
// failure mode (malformed field, unknown user, expired, bad MAC) collapses
// to false — the caller cannot distinguish why a cookie was rejected, by
// design, so as not to hand an attacker a verification oracle.
func Verify(cookieValue string, secret []byte, host config.HostConfig, now time.Time) bool {
	firstColon := strings.IndexByte(cookieValue, ':')
	if firstColon < 0 {
		return false
	}
	secondColon := strings.IndexByte(cookieValue[firstColon+1:], ':')
	if secondColon < 0 {
		return false
	}
	secondColon += firstColon + 1

	timeField := cookieValue[:firstColon]
	userField := cookieValue[firstColon+1 : secondColon]
	macField := cookieValue[secondColon+1:]

	issueTime, err := strconv.ParseInt(timeField, 10, 64)
	if err != nil {
		issueTime = 0
	}

	usernameBytes, err := cryptoutil.HexDecode(userField)
	if err != nil {
		return false
	}
	expectedMAC, err := cryptoutil.HexDecode(macField)
	if err != nil {
		return false
	}

	cred, ok := host.Users[config.NormalizeUsername(string(usernameBytes))]
	if !ok {
		return false
	}

	if now.Unix() > issueTime+int64(cred.SessionDuration.Seconds()) {
		return false
	}

	payloadPrefix := cookieValue[:secondColon]
	gotMAC := cryptoutil.HMAC(cryptoutil.SHA1, secret, []byte(payloadPrefix))

	return subtle.ConstantTimeCompare(gotMAC, expectedMAC) == 1
}
