package phone

import "strings"

const countryCode = "55"

// Normalize converts a raw phone string into the dialable form the messaging
// transports accept. Best-effort: it strips formatting, prepends the Brazilian
// country code to 10/11-digit numbers and drops the extra mobile 9 from
// 13-digit numbers (55 + area code + 9 + 8 digits), since some transports
// reject the modern 9-digit mobile format. It never fails; numbers it cannot
// interpret are returned as bare digits.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 10 || len(digits) == 11 {
		digits = countryCode + digits
	}

	// 55 AA 9 NNNNNNNN -> 55 AA NNNNNNNN
	if len(digits) == 13 && strings.HasPrefix(digits, countryCode) && digits[4] == '9' {
		digits = digits[:4] + digits[5:]
	}

	return digits
}
