package storage

import (
	"net/http"
	"path"
	"strings"
)

// URLResolver turns stored refs into absolute URLs for API responses.
type URLResolver struct {
	// PublicBaseURL is used in production instead of request headers.
	PublicBaseURL string
	Production    bool
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// BaseURL returns scheme://host for r, honouring proxy headers.
func (u URLResolver) BaseURL(r *http.Request) string {
	if u.Production && u.PublicBaseURL != "" {
		return strings.TrimRight(u.PublicBaseURL, "/")
	}
	if r == nil {
		return strings.TrimRight(u.PublicBaseURL, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}

// Absolute returns ref unchanged when it is already a URL, otherwise the
// /uploads URL of the bare filename.
func (u URLResolver) Absolute(ref string, r *http.Request) string {
	if ref == "" || isAbsoluteURL(ref) {
		return ref
	}
	return u.BaseURL(r) + "/uploads/" + path.Base(ref)
}

// AbsoluteAll maps Absolute over refs.
func (u URLResolver) AbsoluteAll(refs []string, r *http.Request) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = u.Absolute(ref, r)
	}
	return out
}
