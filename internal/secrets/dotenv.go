package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const envVarName = "TOTP_SECRET"

// DotenvStore keeps the secret as a TOTP_SECRET= assignment in a .env
// file. On write, an existing assignment line is replaced in place and all
// other lines are preserved verbatim; if absent, the assignment is
// appended. On read, the process environment supplements the file, so an
// exported TOTP_SECRET works without any file at all.
type DotenvStore struct {
	path string
}

// NewDotenvStore creates a DotenvStore over the .env file at path.
func NewDotenvStore(path string) *DotenvStore {
	return &DotenvStore{path: path}
}

func (s *DotenvStore) GetSecret(ctx context.Context) (string, error) {
	_ = ctx
	values, err := godotenv.Read(s.path)
	if err == nil {
		if secret := values[envVarName]; secret != "" {
			return secret, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if secret := os.Getenv(envVarName); secret != "" {
		return secret, nil
	}
	return "", ErrNotConfigured
}

func (s *DotenvStore) SetSecret(ctx context.Context, secret string) error {
	_ = ctx
	assignment := envVarName + "=" + secret

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
		data = nil
	}

	lines := strings.Split(string(data), "\n")
	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(line, envVarName+"=") {
			lines[i] = assignment
			replaced = true
		}
	}
	if !replaced {
		// Append after the last non-empty line, keeping any trailing
		// newline the file already had.
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines[len(lines)-1] = assignment
			lines = append(lines, "")
		} else {
			lines = append(lines, assignment)
		}
	}

	if err := atomicWriteFile(s.path, []byte(strings.Join(lines, "\n")), 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}
