package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	mfaKey        = "mfa"
	totpSecretKey = "totp_secret"
	tokenKey      = "session_token"
)

// FileStore keeps the secret under mfa.totp_secret in a JSON config file.
// Writes touch only the keys this store owns; every other key in the file
// survives an update untouched.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore over the JSON file at path. The file
// does not need to exist yet; the first write creates it.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) GetSecret(ctx context.Context) (string, error) {
	_ = ctx
	mfa, err := s.readSection(mfaKey)
	if err != nil {
		return "", err
	}

	raw, ok := mfa[totpSecretKey]
	if !ok {
		return "", ErrNotConfigured
	}
	var secret string
	if err := json.Unmarshal(raw, &secret); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	if secret == "" {
		return "", ErrNotConfigured
	}
	return secret, nil
}

func (s *FileStore) SetSecret(ctx context.Context, secret string) error {
	_ = ctx
	encoded, err := json.Marshal(secret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return s.writeSectionKey(mfaKey, totpSecretKey, encoded)
}

func (s *FileStore) GetToken(ctx context.Context) (*TokenRecord, error) {
	_ = ctx
	mfa, err := s.readSection(mfaKey)
	if err != nil {
		return nil, err
	}

	raw, ok := mfa[tokenKey]
	if !ok {
		return nil, ErrNotConfigured
	}
	var record TokenRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return &record, nil
}

func (s *FileStore) SetToken(ctx context.Context, record *TokenRecord) error {
	_ = ctx
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return s.writeSectionKey(mfaKey, tokenKey, encoded)
}

func (s *FileStore) ClearToken(ctx context.Context) error {
	_ = ctx
	root, err := s.readRoot()
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return nil
		}
		return err
	}

	mfa, err := decodeSection(root, mfaKey)
	if err != nil {
		return err
	}
	if _, ok := mfa[tokenKey]; !ok {
		return nil
	}
	delete(mfa, tokenKey)

	return s.writeRoot(root, mfa)
}

func (s *FileStore) readRoot() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	root := map[string]json.RawMessage{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	return root, nil
}

func decodeSection(root map[string]json.RawMessage, key string) (map[string]json.RawMessage, error) {
	section := map[string]json.RawMessage{}
	if raw, ok := root[key]; ok {
		if err := json.Unmarshal(raw, &section); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	return section, nil
}

func (s *FileStore) readSection(key string) (map[string]json.RawMessage, error) {
	root, err := s.readRoot()
	if err != nil {
		return nil, err
	}
	return decodeSection(root, key)
}

func (s *FileStore) writeSectionKey(section, key string, value json.RawMessage) error {
	root, err := s.readRoot()
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			return err
		}
		root = map[string]json.RawMessage{}
	}

	sec, err := decodeSection(root, section)
	if err != nil {
		return err
	}
	sec[key] = value

	return s.writeRoot(root, sec)
}

func (s *FileStore) writeRoot(root map[string]json.RawMessage, mfa map[string]json.RawMessage) error {
	encodedSection, err := json.Marshal(mfa)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	root[mfaKey] = encodedSection

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	data = append(data, '\n')

	if err := atomicWriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// atomicWriteFile writes data to path through a temp file and rename, with
// a remove+rename fallback for platforms where rename onto an existing
// file fails.
func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmpPath, perm)

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename: %v (after remove: %v)", err, err2)
		}
	}
	return nil
}
