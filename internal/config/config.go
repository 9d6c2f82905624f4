// Package config loads and validates the gateway's YAML configuration file
// into the in-memory structures the rest of the gateway reads at request
// time. Loading happens once at startup; every structure here is read-only
// afterward.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/awnumar/memguard"
	"gopkg.in/yaml.v3"

	"github.com/relayauth/totpgate/internal/cryptoutil"
)

const (
	defaultNThreads        = 4
	defaultAuthPerSecond   = 2
	defaultLogPath         = "/tmp/totp_auth"
	defaultDigits          = 6
	defaultPeriod          = 30
	defaultTOTPGenerations = 1
	defaultAlgorithm       = "sha1"
)

// Credential holds one user's login material for one host. The password is
// compared by plain equality — this gateway's threat model treats the
// reverse-proxy channel as trusted and delegates password hygiene to
// whoever writes the config file; hashing it here would just move the
// secret without protecting it, since the plaintext still has to exist to
// build the config in the first place.
type Credential struct {
	Password        string
	TOTPSecret      *memguard.Enclave
	SessionDuration time.Duration
	Digits          int
	Period          int
	Algorithm       cryptoutil.Algorithm
}

// OpenTOTPSecret decrypts the credential's TOTP secret into a locked buffer.
// Callers must Destroy() the buffer as soon as the HOTP computation using it
// is done.
func (c Credential) OpenTOTPSecret() (*memguard.LockedBuffer, error) {
	return c.TOTPSecret.Open()
}

// HostConfig describes one virtual host the gateway serves: which login
// template to render, how many TOTP generations either side of "now" to
// accept, and the users permitted to authenticate against it.
type HostConfig struct {
	Template        string
	TOTPGenerations int
	Users           map[string]Credential
}

// ServerConfig is the fully validated, process-wide configuration.
type ServerConfig struct {
	Hosts         map[string]HostConfig
	secret        *memguard.Enclave
	LogPath       string
	AuthPerSecond float64
	NThreads      int
}

// OpenSecret decrypts the process-wide cookie secret into a locked buffer.
// Callers must Destroy() the buffer immediately after use; the cookie codec
// never holds a decrypted copy longer than a single Issue or Verify call.
// An empty configured secret has no enclave; it opens to an empty buffer.
func (s *ServerConfig) OpenSecret() (*memguard.LockedBuffer, error) {
	if s.secret == nil {
		return memguard.NewBuffer(0), nil
	}
	return s.secret.Open()
}

// --- YAML schema -----------------------------------------------------------

type rawConfig struct {
	NThreads      int       `yaml:"nthreads"`
	AuthPerSecond int       `yaml:"auth_per_second"`
	Secret        *string   `yaml:"secret"`
	LogPath       string    `yaml:"log-path"`
	Webs          []rawHost `yaml:"webs"`
}

type rawHost struct {
	Hostname        string    `yaml:"hostname"`
	Template        string    `yaml:"template"`
	TOTPGenerations *int      `yaml:"totp_generations"`
	Users           []rawUser `yaml:"users"`
}

type rawUser struct {
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	TOTP      string `yaml:"totp"`
	Duration  int    `yaml:"duration"`
	Algorithm string `yaml:"algorithm"`
	Digits    int    `yaml:"digits"`
	Period    int    `yaml:"period"`
}

// Load reads path, parses it as YAML against the gateway's config schema,
// and validates every field, returning a ready-to-use ServerConfig. Startup
// errors (missing file, missing required field, invalid numeric range,
// unknown algorithm) are returned as a single descriptive error; the caller
// is expected to print it and exit nonzero.
func Load(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return build(raw)
}

func build(raw rawConfig) (*ServerConfig, error) {
	nthreads := raw.NThreads
	if nthreads == 0 {
		nthreads = defaultNThreads
	}
	if nthreads < 1 {
		return nil, fmt.Errorf("config: nthreads must be >= 1, got %d", nthreads)
	}

	authPerSecond := raw.AuthPerSecond
	if authPerSecond == 0 {
		authPerSecond = defaultAuthPerSecond
	}
	if authPerSecond < 1 {
		return nil, fmt.Errorf("config: auth_per_second must be >= 1, got %d", authPerSecond)
	}

	logPath := raw.LogPath
	if logPath == "" {
		logPath = defaultLogPath
	}

	secretBytes, err := loadSecret(raw.Secret)
	if err != nil {
		return nil, err
	}

	if len(raw.Webs) == 0 {
		return nil, fmt.Errorf("config: webs must contain at least one host")
	}

	hosts := make(map[string]HostConfig, len(raw.Webs))
	for i, w := range raw.Webs {
		host, err := buildHost(w)
		if err != nil {
			return nil, fmt.Errorf("config: webs[%d] (%s): %w", i, w.Hostname, err)
		}
		if _, exists := hosts[w.Hostname]; exists {
			return nil, fmt.Errorf("config: duplicate hostname %q", w.Hostname)
		}
		hosts[w.Hostname] = host
	}

	return &ServerConfig{
		Hosts:         hosts,
		secret:        memguard.NewEnclave(secretBytes),
		LogPath:       logPath,
		AuthPerSecond: float64(authPerSecond),
		NThreads:      nthreads,
	}, nil
}

// loadSecret returns the configured cookie secret. secret is required: a
// nil pointer means the YAML key was absent entirely, which is a startup
// error, not a signal to fall back to some default.
func loadSecret(configured *string) ([]byte, error) {
	if configured == nil {
		return nil, fmt.Errorf("config: 'secret' is missing, this field is required")
	}
	return []byte(*configured), nil
}

func buildHost(w rawHost) (HostConfig, error) {
	if w.Hostname == "" {
		return HostConfig{}, fmt.Errorf("hostname is required")
	}
	if w.Template == "" {
		return HostConfig{}, fmt.Errorf("template is required")
	}

	generations := defaultTOTPGenerations
	if w.TOTPGenerations != nil {
		generations = *w.TOTPGenerations
	}
	if generations < 0 {
		return HostConfig{}, fmt.Errorf("totp_generations must be >= 0, got %d", generations)
	}

	users := make(map[string]Credential, len(w.Users))
	for _, u := range w.Users {
		cred, err := buildCredential(u)
		if err != nil {
			return HostConfig{}, fmt.Errorf("user %q: %w", u.Username, err)
		}
		name := NormalizeUsername(u.Username)
		if _, exists := users[name]; exists {
			return HostConfig{}, fmt.Errorf("duplicate username %q", u.Username)
		}
		users[name] = cred
	}

	return HostConfig{
		Template:        w.Template,
		TOTPGenerations: generations,
		Users:           users,
	}, nil
}

func buildCredential(u rawUser) (Credential, error) {
	if u.Username == "" {
		return Credential{}, fmt.Errorf("username is required")
	}
	if u.Password == "" {
		return Credential{}, fmt.Errorf("password is required")
	}
	if u.TOTP == "" {
		return Credential{}, fmt.Errorf("totp secret is required")
	}
	if u.Duration <= 0 {
		return Credential{}, fmt.Errorf("duration is required and must be > 0")
	}

	algoName := u.Algorithm
	if algoName == "" {
		algoName = defaultAlgorithm
	}
	algo, err := cryptoutil.ParseAlgorithm(algoName)
	if err != nil {
		return Credential{}, err
	}

	digits := u.Digits
	if digits == 0 {
		digits = defaultDigits
	}
	if digits < 6 || digits > 9 {
		return Credential{}, fmt.Errorf("digits must be in [6,9], got %d", digits)
	}

	period := u.Period
	if period == 0 {
		period = defaultPeriod
	}
	if period <= 0 {
		return Credential{}, fmt.Errorf("period must be > 0, got %d", period)
	}

	secret, err := cryptoutil.Base32Decode(u.TOTP)
	if err != nil {
		return Credential{}, fmt.Errorf("decoding totp secret: %w", err)
	}

	return Credential{
		Password:        u.Password,
		TOTPSecret:      memguard.NewEnclave(secret),
		SessionDuration: time.Duration(u.Duration) * time.Second,
		Digits:          digits,
		Period:          period,
		Algorithm:       algo,
	}, nil
}
