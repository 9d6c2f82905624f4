package cookie

import (
	"testing"
	"time"

	"github.com/relayauth/totpgate/internal/config"
)

func hostWithUser(username string, duration time.Duration) config.HostConfig {
	return config.HostConfig{
		Users: map[string]config.Credential{
			username: {SessionDuration: duration},
		},
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	secret := []byte("s3cr3t-value")
	host := hostWithUser("alice", time.Hour)
	now := time.Unix(1_700_000_000, 0)

	c := Issue(secret, "alice", now)
	if !Verify(c, secret, host, now) {
		t.Fatal("freshly issued cookie should verify")
	}
	if !Verify(c, secret, host, now.Add(59*time.Minute)) {
		t.Fatal("cookie should still verify within session duration")
	}
	if Verify(c, secret, host, now.Add(61*time.Minute)) {
		t.Fatal("cookie should not verify after session duration elapses")
	}
}

func TestVerifyRejectsMalformedCookie(t *testing.T) {
	secret := []byte("s3cr3t")
	host := hostWithUser("alice", time.Hour)
	now := time.Unix(1_700_000_000, 0)

	cases := []string{
		"",
		"no-colons-here",
		"1700000000:onlyonecolon",
	}
	for _, c := range cases {
		if Verify(c, secret, host, now) {
			t.Errorf("expected %q to fail verification", c)
		}
	}
}

func TestVerifyRejectsUnknownUser(t *testing.T) {
	secret := []byte("s3cr3t")
	host := hostWithUser("alice", time.Hour)
	now := time.Unix(1_700_000_000, 0)

	c := Issue(secret, "mallory", now)
	if Verify(c, secret, host, now) {
		t.Fatal("cookie for unknown user should not verify")
	}
}

func TestVerifyRejectsBitFlips(t *testing.T) {
	secret := []byte("s3cr3t")
	host := hostWithUser("alice", time.Hour)
	now := time.Unix(1_700_000_000, 0)

	c := Issue(secret, "alice", now)

	// Flip a hex digit in the MAC field.
	flippedMAC := []byte(c)
	lastDigitIdx := len(flippedMAC) - 1
	if flippedMAC[lastDigitIdx] == 'a' {
		flippedMAC[lastDigitIdx] = 'b'
	} else {
		flippedMAC[lastDigitIdx] = 'a'
	}
	if Verify(string(flippedMAC), secret, host, now) {
		t.Fatal("cookie with flipped MAC byte should not verify")
	}

	// Flip a digit in the timestamp field.
	flippedTime := []byte(c)
	if flippedTime[0] == '1' {
		flippedTime[0] = '2'
	} else {
		flippedTime[0] = '1'
	}
	if Verify(string(flippedTime), secret, host, now) {
		t.Fatal("cookie with flipped timestamp digit should not verify")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	host := hostWithUser("alice", time.Hour)
	now := time.Unix(1_700_000_000, 0)

	c := Issue([]byte("secret-one"), "alice", now)
	if Verify(c, []byte("secret-two"), host, now) {
		t.Fatal("cookie signed under one secret should not verify under another")
	}
}
