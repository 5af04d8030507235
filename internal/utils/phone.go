package utils

import "strings"

// NormalizePhone canonicalizes a customer phone number to the 12-digit
// "91XXXXXXXXXX" form the courier and messaging APIs expect. It never fails:
// inputs that match no rule are returned digit-cleaned as-is and the caller
// can validate length. Empty input yields an empty string.
func NormalizePhone(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	// Leading trunk zero: "0" + 10 digits -> drop the zero.
	if len(cleaned) == 11 && cleaned[0] == '0' {
		cleaned = cleaned[1:]
	}

	// Bare local mobile number -> prefix country code.
	if len(cleaned) == 10 {
		cleaned = "91" + cleaned
	}

	if len(cleaned) == 12 && strings.HasPrefix(cleaned, "91") {
		return cleaned
	}

	// Over-long input that still looks Indian: best-effort trim.
	if len(cleaned) > 12 && strings.HasPrefix(cleaned, "91") {
		return cleaned[:12]
	}

	return cleaned
}
