package goLogin

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"strings"
	"time"
)

type totpManager struct {
	config TOTPConfig
}

func newTOTPManager(cfg TOTPConfig) *totpManager {
	if cfg.Algorithm == "" {
		cfg.Algorithm = "SHA1"
	}
	if cfg.Digits == 0 {
		cfg.Digits = 6
	}
	if cfg.Period == 0 {
		cfg.Period = 30
	}
	return &totpManager{config: cfg}
}

// CurrentCode computes the code for the time step containing at. Same
// secret and step always yield the same zero-padded code; skew tolerance
// is the caller's concern (see CandidateCodes).
func (m *totpManager) CurrentCode(secret Secret, at time.Time) (string, error) {
	if m == nil {
		return "", ErrEngineNotReady
	}
	raw, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	counter := at.Unix() / int64(m.config.Period)
	return hotpCode(raw, counter, m.config.Digits, m.config.Algorithm)
}

// CandidateCodes returns the current step's code first, followed by the
// adjacent steps' codes when SkewSteps is 1. Order matters: callers submit
// candidates front to back.
func (m *totpManager) CandidateCodes(secret Secret, at time.Time) ([]string, error) {
	if m == nil {
		return nil, ErrEngineNotReady
	}
	raw, err := decodeSecret(secret)
	if err != nil {
		return nil, err
	}

	base := at.Unix() / int64(m.config.Period)
	steps := []int64{base}
	for s := 1; s <= m.config.SkewSteps; s++ {
		if prev := base - int64(s); prev >= 0 {
			steps = append(steps, prev)
		}
		steps = append(steps, base+int64(s))
	}

	codes := make([]string, 0, len(steps))
	for _, counter := range steps {
		code, err := hotpCode(raw, counter, m.config.Digits, m.config.Algorithm)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// Step reports the time-step counter for at. The orchestrator compares
// steps to decide whether a rejected code can be regenerated fresh.
func (m *totpManager) Step(at time.Time) int64 {
	if m == nil {
		return 0
	}
	return at.Unix() / int64(m.config.Period)
}

func decodeSecret(secret Secret) ([]byte, error) {
	normalized := strings.TrimRight(strings.ToUpper(string(secret)), "=")
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	raw, err := enc.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecretFormat, err)
	}
	if len(raw) == 0 {
		return nil, ErrInvalidSecretFormat
	}
	return raw, nil
}

func hotpCode(secret []byte, counter int64, digits int, algorithm string) (string, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	hf, err := hmacFunc(algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(hf, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	code := bin % mod
	return fmt.Sprintf("%0*d", digits, code), nil
}

func hmacFunc(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "", "SHA1":
		return sha1.New, nil
	case "SHA256":
		return sha256.New, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, errors.New("unsupported totp algorithm")
	}
}
