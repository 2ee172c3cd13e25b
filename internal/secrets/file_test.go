package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if _, err := store.GetSecret(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("missing file: got %v, want ErrNotConfigured", err)
	}

	if err := store.SetSecret(ctx, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetSecret failed: %v", err)
	}
	secret, err := store.GetSecret(ctx)
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if secret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("GetSecret = %q", secret)
	}
}

func TestFileStorePreservesUnrelatedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	seed := map[string]any{
		"browser": map[string]any{"headless": true, "timeout_seconds": 45},
		"mfa":     map[string]any{"totp_secret": "OLDSECRETOLDSECRET", "issuer": "Example"},
		"accounts": []any{
			map[string]any{"email": "alice@example.com"},
		},
	}
	data, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	store := NewFileStore(path)
	if err := store.SetSecret(context.Background(), "NEWSECRETNEWSECRET"); err != nil {
		t.Fatalf("SetSecret failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal back: %v", err)
	}

	browser, ok := got["browser"].(map[string]any)
	if !ok || browser["headless"] != true || browser["timeout_seconds"] != float64(45) {
		t.Fatalf("unrelated top-level section damaged: %v", got["browser"])
	}
	if _, ok := got["accounts"].([]any); !ok {
		t.Fatalf("unrelated array section damaged: %v", got["accounts"])
	}

	mfa, ok := got["mfa"].(map[string]any)
	if !ok {
		t.Fatalf("mfa section missing: %v", got)
	}
	if mfa["totp_secret"] != "NEWSECRETNEWSECRET" {
		t.Fatalf("totp_secret = %v, want updated value", mfa["totp_secret"])
	}
	if mfa["issuer"] != "Example" {
		t.Fatalf("sibling key in mfa section damaged: %v", mfa["issuer"])
	}
}

func TestFileStoreTokenLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if _, err := store.GetToken(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("missing token: got %v, want ErrNotConfigured", err)
	}

	record := &TokenRecord{
		AccessToken: "token-abc",
		ExpiresAt:   time.Date(2033, 5, 18, 3, 33, 20, 0, time.UTC),
		CapturedAt:  time.Date(2033, 5, 18, 2, 33, 20, 0, time.UTC),
	}
	if err := store.SetToken(ctx, record); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	got, err := store.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if got.AccessToken != record.AccessToken || !got.ExpiresAt.Equal(record.ExpiresAt) {
		t.Fatalf("GetToken = %+v, want %+v", got, record)
	}

	if err := store.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken failed: %v", err)
	}
	if _, err := store.GetToken(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("after clear: got %v, want ErrNotConfigured", err)
	}

	// Clearing must not disturb the secret stored alongside.
	if err := store.SetSecret(ctx, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetSecret failed: %v", err)
	}
	if err := store.SetToken(ctx, record); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	if err := store.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken failed: %v", err)
	}
	secret, err := store.GetSecret(ctx)
	if err != nil || secret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("secret lost across token clear: %q, %v", secret, err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	store := NewFileStore(path)
	if _, err := store.GetSecret(context.Background()); !errors.Is(err, ErrBackend) {
		t.Fatalf("corrupt file: got %v, want ErrBackend", err)
	}
}
