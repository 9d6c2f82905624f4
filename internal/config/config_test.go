package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
nthreads: 8
auth_per_second: 5
secret: "test-secret-value-0123456789"
log-path: /tmp/totp_auth_test
webs:
  - hostname: example.test
    template: default
    totp_generations: 1
    users:
      - username: alice
        password: pw
        totp: JBSWY3DPEHPK3PXP
        duration: 3600
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTempConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NThreads != 8 {
		t.Errorf("NThreads = %d, want 8", cfg.NThreads)
	}
	if cfg.AuthPerSecond != 5 {
		t.Errorf("AuthPerSecond = %v, want 5", cfg.AuthPerSecond)
	}
	host, ok := cfg.Hosts["example.test"]
	if !ok {
		t.Fatal("expected host example.test to be present")
	}
	if host.TOTPGenerations != 1 {
		t.Errorf("TOTPGenerations = %d, want 1", host.TOTPGenerations)
	}
	alice, ok := host.Users["alice"]
	if !ok {
		t.Fatal("expected user alice to be present")
	}
	if alice.Digits != 6 {
		t.Errorf("Digits default = %d, want 6", alice.Digits)
	}
	if alice.Period != 30 {
		t.Errorf("Period default = %d, want 30", alice.Period)
	}

	buf, err := alice.OpenTOTPSecret()
	if err != nil {
		t.Fatalf("OpenTOTPSecret: %v", err)
	}
	defer buf.Destroy()
	if len(buf.Bytes()) == 0 {
		t.Fatal("expected non-empty decoded TOTP secret")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/to/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	yaml := `
webs:
  - hostname: example.test
    template: default
    users:
      - username: bob
        password: pw
        totp: JBSWY3DPEHPK3PXP
        duration: 60
`
	path := writeTempConfig(t, yaml)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestLoadAcceptsEmptySecret(t *testing.T) {
	yaml := `
secret: ""
webs:
  - hostname: example.test
    template: default
    users:
      - username: bob
        password: pw
        totp: JBSWY3DPEHPK3PXP
        duration: 60
`
	path := writeTempConfig(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	buf, err := cfg.OpenSecret()
	if err != nil {
		t.Fatalf("OpenSecret: %v", err)
	}
	defer buf.Destroy()
	if len(buf.Bytes()) != 0 {
		t.Fatalf("secret length = %d, want 0", len(buf.Bytes()))
	}
}

func TestLoadRejectsEmptyWebs(t *testing.T) {
	yaml := `
secret: "x"
webs: []
`
	path := writeTempConfig(t, yaml)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty webs")
	}
}

func TestLoadRejectsBadDigits(t *testing.T) {
	yaml := `
secret: "x"
webs:
  - hostname: example.test
    template: default
    users:
      - username: alice
        password: pw
        totp: JBSWY3DPEHPK3PXP
        duration: 60
        digits: 12
`
	path := writeTempConfig(t, yaml)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for digits out of range")
	}
}

func TestLoadRejectsUnknownAlgorithm(t *testing.T) {
	yaml := `
secret: "x"
webs:
  - hostname: example.test
    template: default
    users:
      - username: alice
        password: pw
        totp: JBSWY3DPEHPK3PXP
        duration: 60
        algorithm: md5
`
	path := writeTempConfig(t, yaml)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestLoadRejectsDuplicateHostname(t *testing.T) {
	yaml := `
secret: "x"
webs:
  - hostname: example.test
    template: default
    users:
      - {username: alice, password: pw, totp: JBSWY3DPEHPK3PXP, duration: 60}
  - hostname: example.test
    template: default
    users:
      - {username: bob, password: pw, totp: JBSWY3DPEHPK3PXP, duration: 60}
`
	path := writeTempConfig(t, yaml)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for duplicate hostname")
	}
}
