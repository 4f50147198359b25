// Package tenant maps a request's Host header to a candidate portfolio
// subdomain and owns the canonical reserved-name list shared by registration
// checks and request routing.
package tenant

import "strings"

// reservedNames cannot be claimed at registration and never route to a
// portfolio. One list serves both purposes.
var reservedNames = map[string]struct{}{
	"www": {}, "api": {}, "admin": {}, "app": {}, "dashboard": {},
	"mail": {}, "email": {}, "ftp": {}, "cdn": {}, "static": {},
	"assets": {}, "img": {}, "images": {}, "css": {}, "js": {},
	"login": {}, "register": {}, "signup": {}, "signin": {},
	"auth": {}, "oauth": {}, "help": {}, "support": {}, "docs": {},
	"blog": {}, "news": {}, "about": {}, "contact": {}, "terms": {},
	"privacy": {}, "legal": {}, "status": {}, "health": {},
}

// IsReserved reports whether name may not be used as a tenant subdomain.
func IsReserved(name string) bool {
	_, ok := reservedNames[strings.ToLower(name)]
	return ok
}

// Resolve extracts the candidate tenant name from host. It strips any
// trailing port, then matches either a "<name>.<baseDomain>" suffix or the
// "<name>.localhost" development form. The apex host, empty candidates and
// reserved names all resolve to no tenant.
func Resolve(host, baseDomain string) (string, bool) {
	hostname := host
	if idx := strings.IndexByte(hostname, ':'); idx >= 0 {
		hostname = hostname[:idx]
	}

	var candidate string
	switch {
	case baseDomain != "" && strings.HasSuffix(hostname, "."+baseDomain):
		candidate = strings.TrimSuffix(hostname, "."+baseDomain)
	case strings.Contains(hostname, ".localhost"):
		candidate = strings.SplitN(hostname, ".", 2)[0]
	default:
		return "", false
	}

	candidate = strings.ToLower(candidate)
	if candidate == "" || IsReserved(candidate) {
		return "", false
	}

	return candidate, true
}
