package exports

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"nowas_backend/platform/phone"
)

// hashEmail lowercases and trims before hashing. Gmail addresses also drop
// dots and any +tag, the way the ads platform normalizes them.
func hashEmail(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}

	user, domain, ok := strings.Cut(value, "@")
	if ok && (domain == "gmail.com" || domain == "googlemail.com") {
		user = strings.ReplaceAll(user, ".", "")
		if before, _, found := strings.Cut(user, "+"); found {
			user = before
		}
		value = user + "@" + domain
	}

	return sha256Hex(value)
}

// hashPhone hashes the E.164 form. Numbers that do not parse are skipped
// rather than uploaded in a form that can never match.
func hashPhone(value string) string {
	e164 := phone.NormalizeE164(value)
	if !strings.HasPrefix(e164, "+") {
		return ""
	}
	return sha256Hex(e164)
}

func sha256Hex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
