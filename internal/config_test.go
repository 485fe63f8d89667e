package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGitHubConfig_DisabledSkipsValidation(t *testing.T) {
	cfg := GitHubConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled github should pass: %v", err)
	}
}

func TestGitHubConfig_EnabledRequiresFields(t *testing.T) {
	cfg := GitHubConfig{Enabled: true, Owner: "me", Repo: "", Token: "t"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing repo should fail")
	}
	cfg = GitHubConfig{Enabled: true, Owner: "me", Repo: "vault", Token: "t"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("complete config should pass: %v", err)
	}
	if cfg.Branch != "main" {
		t.Errorf("branch = %q, want default main", cfg.Branch)
	}
}

func TestScannerConfig_Defaults(t *testing.T) {
	cfg := ScannerConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.RequestTimeout != 30*time.Second || cfg.DiscoveryTimeout != 10*time.Second {
		t.Errorf("timeouts = %v, %v", cfg.RequestTimeout, cfg.DiscoveryTimeout)
	}
}

func TestOCRProviderConfig_Validation(t *testing.T) {
	cases := []struct {
		name    string
		cfg     OCRProviderConfig
		wantErr bool
	}{
		{"valid ollama", OCRProviderConfig{Provider: "ollama", Model: "llava", BaseURL: "http://localhost:11434"}, false},
		{"ollama missing base url", OCRProviderConfig{Provider: "ollama", Model: "llava"}, true},
		{"valid gemini", OCRProviderConfig{Provider: "gemini", Model: "gemini-2.0-flash", APIKey: "k"}, false},
		{"gemini missing key", OCRProviderConfig{Provider: "gemini", Model: "gemini-2.0-flash"}, true},
		{"unknown provider", OCRProviderConfig{Provider: "tesseract", Model: "x"}, true},
		{"missing model", OCRProviderConfig{Provider: "ollama", BaseURL: "http://localhost:11434"}, true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: err = %v, wantErr = %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestFullConfig_DefaultIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestFullConfig_OCRValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.OCR.Providers = []OCRProviderConfig{{Provider: "gemini", Model: "m"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch ocr error")
	}
}
