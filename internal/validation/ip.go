package validation

import "strings"

// IsValidIP reports whether s is a syntactically valid IPv4 or IPv6 literal.
// Identities that fail this check are rejected before any allowlist lookup.
func IsValidIP(s string) bool {
	if s == "127.0.0.1" || s == "::1" {
		return true
	}
	if strings.Contains(s, ":") {
		return isValidIPv6(s)
	}
	return isValidIPv4(s)
}

// isValidIPv4 requires a strict dotted quad: four decimal octets 0-255.
func isValidIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if len(part) == 0 || len(part) > 3 {
			return false
		}
		n := 0
		for _, c := range part {
			if c < '0' || c > '9' {
				return false
			}
			n = n*10 + int(c-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}

// isValidIPv6 accepts 2-8 colon-separated groups of 1-4 hex digits with at
// most one empty-group run representing "::" compression. This is the
// admission grammar, not a full address parser: forms like embedded IPv4
// ("::ffff:1.2.3.4") or zone suffixes are rejected.
func isValidIPv6(s string) bool {
	groups := strings.Split(s, ":")
	if len(groups) < 2 || len(groups) > 8 {
		return false
	}
	emptyRuns := 0
	inRun := false
	for _, group := range groups {
		if group == "" {
			if !inRun {
				emptyRuns++
				inRun = true
			}
			continue
		}
		inRun = false
		if len(group) > 4 {
			return false
		}
		for _, c := range group {
			if !isHexDigit(c) {
				return false
			}
		}
	}
	return emptyRuns <= 1
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// ParseAllowlist parses a comma-separated list of IP literals into a set.
// Entries are trimmed; entries that fail the IP grammar are dropped.
func ParseAllowlist(s string) map[string]struct{} {
	allowed := make(map[string]struct{})
	for _, entry := range strings.Split(s, ",") {
		ip := strings.TrimSpace(entry)
		if ip == "" || !IsValidIP(ip) {
			continue
		}
		allowed[ip] = struct{}{}
	}
	return allowed
}
