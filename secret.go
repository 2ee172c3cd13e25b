package goLogin

import (
	"fmt"
	"strings"
)

const secretMinLength = 16

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// ExtractSecret pulls the TOTP shared secret out of an enrollment payload
// (the text decoded from a provisioning QR code, typically an otpauth://
// URI). It is pure: persistence of the result belongs to the caller.
//
// The payload must contain a secret=<value> token terminated by '&' or
// end-of-string; anything else fails with ErrMalformedPayload. The value
// is normalized to uppercase and must be at least 16 characters of the
// base32 alphabet A-Z2-7, else ErrInvalidSecretFormat. A partial secret is
// never returned.
func ExtractSecret(payload string) (Secret, error) {
	idx := strings.Index(payload, "secret=")
	if idx < 0 {
		return "", fmt.Errorf("%w: no secret parameter", ErrMalformedPayload)
	}
	value := payload[idx+len("secret="):]
	if amp := strings.IndexByte(value, '&'); amp >= 0 {
		value = value[:amp]
	}
	if value == "" {
		return "", fmt.Errorf("%w: empty secret parameter", ErrMalformedPayload)
	}
	return ParseSecret(value)
}

// ParseSecret validates an already-extracted secret value, normalizing it
// to the uppercase base32 alphabet. An invalid secret is a provisioning
// error, never silently accepted.
func ParseSecret(value string) (Secret, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if len(normalized) < secretMinLength {
		return "", fmt.Errorf("%w: length %d below minimum %d",
			ErrInvalidSecretFormat, len(normalized), secretMinLength)
	}
	for i := 0; i < len(normalized); i++ {
		if !strings.ContainsRune(base32Alphabet, rune(normalized[i])) {
			return "", fmt.Errorf("%w: character %q outside base32 alphabet",
				ErrInvalidSecretFormat, normalized[i])
		}
	}
	return Secret(normalized), nil
}
