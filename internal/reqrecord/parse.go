// Package reqrecord decodes an incoming request into the worker-local
// record the handler dispatches on: method, URI, host, decoded query/POST
// parameters, decoded cookies, and a normalized client IP key.
package reqrecord

import (
	"strings"
)

// ParseVars decodes an application/x-www-form-urlencoded string into a
// mapping, matching the semantics of both a query string and a POST body:
// split on '&', split each piece on the first '=', percent/space-decode
// both sides, last writer wins on duplicate keys, and a piece with no '='
// yields a key with an empty value.
func ParseVars(s string) map[string]string {
	out := make(map[string]string)
	if s == "" {
		return out
	}
	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}
		key, value := pair, ""
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			key, value = pair[:idx], pair[idx+1:]
		}
		out[urlDecode(key)] = urlDecode(value)
	}
	return out
}

// ParseCookies decodes a Cookie header into a mapping. Unlike ParseVars,
// values are taken verbatim — no percent-decoding — since RFC 6265 cookie
// values are opaque bytes from the header's point of view; a caller storing
// non-token bytes in a cookie value (as the session cookie's hex-encoded
// username does) must have already encoded it itself.
func ParseCookies(s string) map[string]string {
	out := make(map[string]string)
	if s == "" {
		return out
	}
	for _, piece := range strings.Split(s, ";") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		key, value := piece, ""
		if idx := strings.IndexByte(piece, '='); idx >= 0 {
			key, value = piece[:idx], piece[idx+1:]
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}

// urlDecode percent-decodes s and translates '+' to a literal space, the
// application/x-www-form-urlencoded convention. Malformed percent-escapes
// are passed through unchanged rather than rejected outright — a login form
// field with a stray '%' should degrade, not take down the whole request.
func urlDecode(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			sb.WriteByte(' ')
		case '%':
			if i+2 < len(s) {
				if hi, ok := hexVal(s[i+1]); ok {
					if lo, ok := hexVal(s[i+2]); ok {
						sb.WriteByte(hi<<4 | lo)
						i += 2
						continue
					}
				}
			}
			sb.WriteByte('%')
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
