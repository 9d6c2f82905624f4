package reqrecord

import (
	"io"
	"net/http"

	"github.com/relayauth/totpgate/internal/ratelimit"
)

// maxBodyBytes caps how much of a request body is read before decoding —
// bodies longer than this are truncated, not rejected.
const maxBodyBytes = 4096

// Record is the decoded, worker-local view of one request: everything the
// handler needs and nothing it has to re-parse.
type Record struct {
	Method    string
	URI       string
	Host      string
	Query     map[string]string
	Post      map[string]string
	Cookies   map[string]string
	ClientKey uint64
}

// Decode reads r (truncating its body at maxBodyBytes) and builds a Record.
func Decode(r *http.Request) (*Record, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	post := map[string]string{}
	if r.Method == http.MethodPost {
		post = ParseVars(string(body))
	}

	return &Record{
		Method:    r.Method,
		URI:       r.URL.Path,
		Host:      r.Host,
		Query:     ParseVars(r.URL.RawQuery),
		Post:      post,
		Cookies:   ParseCookies(r.Header.Get("Cookie")),
		ClientKey: ratelimit.ClientKey(r.RemoteAddr),
	}, nil
}

// Get returns v from m, or "" if absent — the environment-map convention of
// default-empty lookup rather than a null/ok pair.
func Get(m map[string]string, key string) string {
	return m[key]
}
