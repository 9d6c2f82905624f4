package config

import "testing"

func TestNormalizeUsernameIsStableForASCII(t *testing.T) {
	if NormalizeUsername("alice") != "alice" {
		t.Fatal("ASCII username should be unchanged by NFKD normalization")
	}
}

func TestNormalizeUsernameCollapsesEquivalentForms(t *testing.T) {
	// precomposed "e with acute" (U+00E9) vs. "e" + combining acute
	// (U+0065 U+0301) must normalize to the same key.
	precomposed := "café"
	decomposed := "café"
	if precomposed == decomposed {
		t.Fatal("test fixture strings must differ before normalization")
	}
	if NormalizeUsername(precomposed) != NormalizeUsername(decomposed) {
		t.Fatal("expected equivalent Unicode forms to normalize identically")
	}
}
