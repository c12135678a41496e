// Package cookie implements the canonical cookie set format shared between
// the backend vault and the browser extension: conversion from native
// browser cookie objects, the base64(JSON) transport encoding, and the
// domain/URL normalization rules used during injection.
package cookie

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
)

// SameSite mirrors the cookie SameSite attribute in its canonical spelling.
type SameSite string

const (
	SameSiteStrict SameSite = "Strict"
	SameSiteLax    SameSite = "Lax"
	SameSiteNone   SameSite = "None"
)

// Record is one HTTP cookie in canonical form. ExpirationDate is epoch
// seconds; nil means a session cookie and stays omitted in JSON so that
// re-injection also produces a session cookie.
type Record struct {
	Name           string   `json:"name"`
	Value          string   `json:"value"`
	Domain         string   `json:"domain"`
	Path           string   `json:"path"`
	Secure         bool     `json:"secure"`
	HTTPOnly       bool     `json:"httpOnly"`
	SameSite       SameSite `json:"sameSite"`
	ExpirationDate *float64 `json:"expirationDate,omitempty"`
}

// Session reports whether the record is a session cookie (no expiry).
func (r Record) Session() bool {
	return r.ExpirationDate == nil || *r.ExpirationDate == 0
}

// Set is an ordered cookie set scoped to one target domain. Within a set
// no two records share (name, domain, path); duplicates collapse last-wins.
type Set []Record

// Native mirrors a browser cookie-store object as the extension sees it.
// Secure is a tri-state so "explicitly false" can be told apart from
// "not specified".
type Native struct {
	Name           string
	Value          string
	Domain         string
	Path           string
	Secure         *bool
	HTTPOnly       bool
	SameSite       string // browser spellings: "strict", "lax", "no_restriction", ""
	Session        bool
	ExpirationDate float64
}

// ToCanonical converts native browser cookies into a canonical Set,
// applying defaults: path "/", secure true unless explicitly false,
// sameSite Lax, expiry omitted for session cookies. A native cookie
// without a name is skipped, never fatal.
func ToCanonical(natives []Native) Set {
	set := make(Set, 0, len(natives))
	for _, n := range natives {
		if n.Name == "" {
			log.Printf("[cookie] skipping native cookie with empty name (domain=%q)", n.Domain)
			continue
		}
		rec := Record{
			Name:     n.Name,
			Value:    n.Value,
			Domain:   n.Domain,
			Path:     n.Path,
			Secure:   true,
			HTTPOnly: n.HTTPOnly,
			SameSite: canonicalSameSite(n.SameSite),
		}
		if rec.Path == "" {
			rec.Path = "/"
		}
		if n.Secure != nil && !*n.Secure {
			rec.Secure = false
		}
		if !n.Session && n.ExpirationDate > 0 {
			exp := n.ExpirationDate
			rec.ExpirationDate = &exp
		}
		set = append(set, rec)
	}
	return collapseDuplicates(set)
}

func canonicalSameSite(raw string) SameSite {
	switch strings.ToLower(raw) {
	case "strict":
		return SameSiteStrict
	case "none", "no_restriction":
		return SameSiteNone
	default:
		return SameSiteLax
	}
}

// Normalize applies canonical defaults (path "/", sameSite Lax, zero
// expiry treated as session) to every record, drops nameless records, and
// collapses duplicates. Both the transport parser and the vault's write
// path run submitted records through it.
func Normalize(set Set) Set {
	out := make(Set, 0, len(set))
	for _, rec := range set {
		if rec.Name == "" {
			log.Printf("[cookie] dropping cookie record with empty name (domain=%q)", rec.Domain)
			continue
		}
		if rec.Path == "" {
			rec.Path = "/"
		}
		if rec.SameSite == "" {
			rec.SameSite = SameSiteLax
		}
		if rec.ExpirationDate != nil && *rec.ExpirationDate == 0 {
			rec.ExpirationDate = nil
		}
		out = append(out, rec)
	}
	return collapseDuplicates(out)
}

// collapseDuplicates enforces the (name, domain, path) uniqueness rule.
// The last occurrence wins; the record keeps its first position in the set.
func collapseDuplicates(set Set) Set {
	type key struct{ name, domain, path string }
	seen := make(map[key]int, len(set))
	out := set[:0]
	for _, rec := range set {
		k := key{rec.Name, rec.Domain, rec.Path}
		if i, ok := seen[k]; ok {
			out[i] = rec
			continue
		}
		seen[k] = len(out)
		out = append(out, rec)
	}
	return out
}

// EncodeTransport serializes a Set to the base64(JSON) transport form used
// across the page/extension boundary. DecodeTransport inverts it exactly.
func EncodeTransport(set Set) (string, error) {
	if set == nil {
		set = Set{}
	}
	raw, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cookie set: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

// DecodeTransport parses the transport encoding back into a Set. Legacy
// callers pass raw JSON instead of base64; that is detected by the base64
// pattern match and handled by falling back to a direct JSON parse. A
// malformed entry or one missing its name is skipped with a warning — a
// partial set is always preferable to none.
func DecodeTransport(input string) (Set, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, fmt.Errorf("empty cookie payload")
	}

	raw := []byte(trimmed)
	if base64Pattern.MatchString(trimmed) {
		if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
			raw = decoded
		}
	}

	set, err := parseCanonical(raw)
	if err != nil {
		// The payload may have matched the base64 pattern by accident;
		// retry the original input as plain JSON before giving up.
		if set, retryErr := parseCanonical([]byte(trimmed)); retryErr == nil {
			return set, nil
		}
		return nil, err
	}
	return set, nil
}

func parseCanonical(raw []byte) (Set, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("cookie payload is not a JSON array: %w", err)
	}

	set := make(Set, 0, len(entries))
	for i, entry := range entries {
		var rec Record
		if err := json.Unmarshal(entry, &rec); err != nil {
			log.Printf("[cookie] skipping malformed cookie entry %d: %v", i, err)
			continue
		}
		set = append(set, rec)
	}
	return Normalize(set), nil
}

// DomainForURL resolves the hostname to inject a record against: the
// record's own domain with any leading dot stripped (URL construction needs
// a literal hostname), falling back to the target tool's host. Empty means
// the record has no resolvable domain and must be skipped.
func DomainForURL(rec Record, fallbackHost string) string {
	d := strings.TrimPrefix(rec.Domain, ".")
	if d == "" {
		d = fallbackHost
	}
	return d
}

// InjectionURL builds the URL a record is submitted against. The scheme is
// https unless the record explicitly carries secure:false.
func InjectionURL(rec Record, host string) (string, error) {
	if host == "" {
		return "", fmt.Errorf("no host to build injection URL for cookie %q", rec.Name)
	}
	scheme := "https"
	if !rec.Secure {
		scheme = "http"
	}
	path := rec.Path
	if path == "" {
		path = "/"
	}
	raw := scheme + "://" + host + path
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid injection URL %q: %w", raw, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("injection URL %q has no hostname", raw)
	}
	return u.String(), nil
}
