package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/relayauth/totpgate/internal/audit"
	"github.com/relayauth/totpgate/internal/config"
	"github.com/relayauth/totpgate/internal/cookie"
	"github.com/relayauth/totpgate/internal/reqrecord"
	"github.com/relayauth/totpgate/internal/totp"
	"github.com/relayauth/totpgate/internal/webui"
)

// lookupHost resolves the HostConfig matching a request's Host header,
// writing the byte-exact "500 Unknown hostname" response and returning
// (zero value, false) when no host matches.
func (h *Handler) lookupHost(w http.ResponseWriter, r *http.Request, rec *reqrecord.Record) (config.HostConfig, bool) {
	host, ok := h.cfg.Hosts[rec.Host]
	if !ok {
		h.audit.Log(r.Context(), r, audit.EventUnknownHost, "", rec.Host)
		body := "Unknown hostname: " + rec.Host
		writeResponse(w, http.StatusInternalServerError, "text/plain", []byte(body))
		return config.HostConfig{}, false
	}
	return host, true
}

func (h *Handler) handleAuth(w http.ResponseWriter, r *http.Request) {
	rec, err := reqrecord.Decode(r)
	if err != nil {
		writeResponse(w, http.StatusInternalServerError, "text/plain", []byte("Internal error"))
		return
	}
	host, ok := h.lookupHost(w, r, rec)
	if !ok {
		return
	}

	secret, err := h.cfg.OpenSecret()
	if err != nil {
		writeResponse(w, http.StatusInternalServerError, "text/plain", []byte("Internal error"))
		return
	}
	defer secret.Destroy()

	cookieValue := reqrecord.Get(rec.Cookies, cookie.Name)
	if cookie.Verify(cookieValue, secret.Bytes(), host, time.Now()) {
		h.audit.Log(r.Context(), r, audit.EventAuthAllowed, "", "")
		writeResponse(w, http.StatusOK, "text/plain", []byte("Authentication Succeeded"))
		return
	}

	h.audit.Log(r.Context(), r, audit.EventAuthDenied, "", "")
	writeResponse(w, http.StatusUnauthorized, "text/plain", []byte("Authentication Denied"))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	rec, err := reqrecord.Decode(r)
	if err != nil {
		writeResponse(w, http.StatusInternalServerError, "text/plain", []byte("Internal error"))
		return
	}
	host, ok := h.lookupHost(w, r, rec)
	if !ok {
		return
	}

	followPage := reqrecord.Get(rec.Query, "follow_page")
	if followPage == "" {
		followPage = reqrecord.Get(rec.Post, "follow_page")
	}
	if followPage == "" {
		followPage = "/"
	}
	followPage = stripCRLF(followPage)

	if !h.limiter.Allow(rec.ClientKey) {
		h.audit.Log(r.Context(), r, audit.EventRateLimited, "", fmt.Sprintf("client_key=%d", rec.ClientKey))
		writeResponse(w, http.StatusTooManyRequests, "text/plain", []byte("Too many requests, request blocked"))
		return
	}

	loginError := false
	if rec.Method == http.MethodPost {
		username := reqrecord.Get(rec.Post, "username")
		password := reqrecord.Get(rec.Post, "password")
		code, _ := strconv.Atoi(reqrecord.Get(rec.Post, "totp"))

		if h.checkCredentials(host, username, password, code) {
			secret, err := h.cfg.OpenSecret()
			if err != nil {
				writeResponse(w, http.StatusInternalServerError, "text/plain", []byte("Internal error"))
				return
			}
			token := cookie.Issue(secret.Bytes(), username, time.Now())
			secret.Destroy()

			h.audit.Log(r.Context(), r, audit.EventLoginSuccess, username, "")
			w.Header().Set("Set-Cookie", cookie.Name+"="+token)
			w.Header().Set("Location", followPage)
			writeResponse(w, http.StatusFound, "text/plain", nil)
			return
		}

		loginError = true
		h.audit.Log(r.Context(), r, audit.EventLoginFailure, username, "invalid credentials")
		if h.anomalies != nil {
			h.anomalies.RecordFailure()
		}
	}

	page, err := h.templates.Render(host.Template, webui.Page{FollowPage: followPage, Error: loginError})
	if err != nil {
		h.audit.Log(r.Context(), r, audit.EventTemplateMissing, "", host.Template)
		writeResponse(w, http.StatusInternalServerError, "text/plain", []byte("Could not find template"))
		return
	}
	writeResponse(w, http.StatusOK, "text/html", []byte(page))
}

func (h *Handler) checkCredentials(host config.HostConfig, username, password string, code int) bool {
	cred, ok := host.Users[config.NormalizeUsername(username)]
	if !ok {
		return false
	}
	if password != cred.Password {
		return false
	}

	secret, err := cred.OpenTOTPSecret()
	if err != nil {
		return false
	}
	defer secret.Destroy()

	params := totp.Params{
		Secret:    secret.Bytes(),
		Algorithm: cred.Algorithm,
		Digits:    cred.Digits,
		Period:    cred.Period,
	}
	return totp.Verify(params, code, host.TOTPGenerations, time.Now())
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.audit.Log(r.Context(), r, audit.EventLogout, "", "")
	w.Header().Set("Set-Cookie", cookie.Name+"=null")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0")
	w.Header().Set("Location", "/login")
	writeResponse(w, http.StatusFound, "text/plain", nil)
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, http.StatusNotFound, "text/plain", []byte("Not found, valid endpoints: /auth /login /logout"))
}

// writeResponse sets Content-Type and an accurate Content-Length before
// writing body, so every response is byte-exact even when body is empty
// (the 302 responses carry no body at all).
func writeResponse(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	if len(body) > 0 {
		w.Write(body)
	}
}

// stripCRLF removes CR and LF from s before it is placed in a Location
// header, defending against header injection via a crafted follow_page.
func stripCRLF(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
