package linkedin

import (
	"errors"
	"strings"
)

// ParseCookies parses a raw "k=v; k2=v2" cookie header into a map and
// extracts the csrf token from JSESSIONID. Values may be double-quoted.
func ParseCookies(raw string) (map[string]string, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", ErrMissingCookie
	}

	cookies := make(map[string]string)
	for _, item := range strings.Split(raw, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok || k == "" {
			continue
		}
		cookies[k] = v
	}

	session, ok := cookies["JSESSIONID"]
	if !ok {
		return nil, "", errors.New("cookie is missing JSESSIONID")
	}
	return cookies, strings.Trim(session, `"`), nil
}
