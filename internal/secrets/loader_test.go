package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	got, err := Load(Source{Name: "gemini api key", Value: "inline", File: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-file" {
		t.Fatalf("expected file value, got %q", got)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	_, err := Load(Source{Name: "openai api key", File: path})
	if err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
}

func TestLoadFallsBackToEnv(t *testing.T) {
	t.Setenv("TALENTLENS_TEST_KEY", "")
	t.Setenv("TALENTLENS_TEST_KEY_FALLBACK", " env-secret ")

	got, err := Load(Source{Env: []string{"TALENTLENS_TEST_KEY", "TALENTLENS_TEST_KEY_FALLBACK"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "env-secret" {
		t.Fatalf("expected env value, got %q", got)
	}
}

func TestLoadNotConfigured(t *testing.T) {
	_, err := Load(Source{Name: "llama cloud api key"})
	if err == nil || err.Error() != "llama cloud api key is not configured" {
		t.Fatalf("unexpected error: %v", err)
	}

	if Configured(Source{}) {
		t.Fatal("expected empty source to be unconfigured")
	}
	if !Configured(Source{Value: "x"}) {
		t.Fatal("expected inline value to be configured")
	}
}
