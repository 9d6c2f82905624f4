// Package webui implements the login-page template registry the core
// handler treats as an opaque render(host, follow_page, error) function.
// Host configuration names a template by key; the registry resolves that
// key to a compiled html/template and renders it.
package webui

import (
	"bytes"
	"fmt"
	"html/template"
)

// Page is the data made available to a login-page template.
type Page struct {
	FollowPage string
	Error      bool
}

// Registry holds the set of named login-page templates a gateway
// configuration may reference by key.
type Registry struct {
	templates map[string]*template.Template
}

const (
	defaultLoginForm = `<!DOCTYPE html>
<html>
<head><title>Sign in</title></head>
<body>
{{if .Error}}<p class="error">Invalid username, password, or code.</p>{{end}}
<form method="POST" action="/login">
<input type="hidden" name="follow_page" value="{{.FollowPage}}">
<label>Username <input type="text" name="username" autocomplete="username"></label>
<label>Password <input type="password" name="password" autocomplete="current-password"></label>
<label>Code <input type="text" name="totp" autocomplete="one-time-code" inputmode="numeric"></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`

	plainLoginForm = `<!DOCTYPE html>
<html><body>
{{if .Error}}<p>login failed</p>{{end}}
<form method="POST" action="/login">
<input type="hidden" name="follow_page" value="{{.FollowPage}}">
<input name="username"><input type="password" name="password"><input name="totp">
<input type="submit">
</form>
</body></html>
`
)

// NewRegistry builds the registry with the built-in "default" and "plain"
// templates and any additional named templates supplied by extra, so a
// deployment can register house-styled forms without touching this package.
func NewRegistry(extra map[string]string) (*Registry, error) {
	r := &Registry{templates: make(map[string]*template.Template)}

	builtins := map[string]string{
		"default": defaultLoginForm,
		"plain":   plainLoginForm,
	}
	for name, src := range builtins {
		if err := r.add(name, src); err != nil {
			return nil, err
		}
	}
	for name, src := range extra {
		if err := r.add(name, src); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(name, src string) error {
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return fmt.Errorf("webui: parsing template %q: %w", name, err)
	}
	r.templates[name] = tmpl
	return nil
}

// ErrTemplateNotFound is returned when a host names a template key the
// registry doesn't have, which the caller maps to "500 Could not find
// template".
type ErrTemplateNotFound struct {
	Key string
}

func (e ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("webui: no template registered for key %q", e.Key)
}

// Render looks up key and executes it against page, returning the rendered
// HTML.
func (r *Registry) Render(key string, page Page) (string, error) {
	tmpl, ok := r.templates[key]
	if !ok {
		return "", ErrTemplateNotFound{Key: key}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		return "", fmt.Errorf("webui: rendering template %q: %w", key, err)
	}
	return buf.String(), nil
}
