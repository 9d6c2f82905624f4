package config

import "golang.org/x/text/unicode/norm"

// NormalizeUsername canonicalizes a username with NFKD normalization before
// it is used as a map key, so visually identical usernames submitted with
// different Unicode compositions (a login form is free-text, not an input
// mask) resolve to the same Credential instead of silently failing lookup.
func NormalizeUsername(s string) string {
	return norm.NFKD.String(s)
}
