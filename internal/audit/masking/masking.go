package masking

import "strings"

const maskToken = "****"

// MaskSecret redacts a secret such as an invitation token, keeping a short suffix
// so entries can still be correlated.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	local, domain, ok := strings.Cut(trimmed, "@")
	if !ok || local == "" {
		return MaskSecret(trimmed)
	}
	return local[:1] + maskToken + "@" + domain
}
