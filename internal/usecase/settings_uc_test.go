package usecase

import (
	"context"
	"strings"
	"testing"
)

func TestSettingsDefaultsWhenUnset(t *testing.T) {
	uc := newTestSettingsUC(newMemOptionsRepo())
	got, err := uc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := DefaultSettings()
	if got != want {
		t.Errorf("empty store must yield defaults:\ngot  %+v\nwant %+v", got, want)
	}
	if got.DefaultProvider != "openai" || got.BatchSize != 10 || got.RetryAttempts != 3 {
		t.Errorf("unexpected defaults: %+v", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	uc := newTestSettingsUC(newMemOptionsRepo())
	ctx := context.Background()

	s := DefaultSettings()
	s.DefaultProvider = "gemini"
	s.BatchSize = 25
	s.EnableCaption = false
	if err := uc.Update(ctx, s); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := uc.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Errorf("round-trip mismatch:\ngot  %+v\nwant %+v", got, s)
	}
}

func TestSettingsCorruptBlobFallsBack(t *testing.T) {
	options := newMemOptionsRepo()
	options.store[settingsOptionKey] = "{not json"
	uc := newTestSettingsUC(options)

	got, err := uc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != DefaultSettings() {
		t.Errorf("corrupt blob must fall back to defaults, got %+v", got)
	}
}

func TestAPIKeyStoredEncrypted(t *testing.T) {
	options := newMemOptionsRepo()
	uc := newTestSettingsUC(options)
	ctx := context.Background()

	if err := uc.UpdateAPIKey(ctx, "openai", "sk-secret-123"); err != nil {
		t.Fatalf("UpdateAPIKey: %v", err)
	}

	stored := options.store[apiKeyOption("openai")]
	if stored == "" || strings.Contains(stored, "sk-secret-123") {
		t.Errorf("key stored in the clear: %q", stored)
	}
	if got := uc.GetAPIKey(ctx, "openai"); got != "sk-secret-123" {
		t.Errorf("GetAPIKey = %q", got)
	}
}

func TestUpdateAPIKeySkipsBlankAndCiphertextEcho(t *testing.T) {
	options := newMemOptionsRepo()
	uc := newTestSettingsUC(options)
	ctx := context.Background()

	if err := uc.UpdateAPIKey(ctx, "claude", "sk-original"); err != nil {
		t.Fatal(err)
	}
	stored := options.store[apiKeyOption("claude")]

	// Blank value keeps the stored key.
	if err := uc.UpdateAPIKey(ctx, "claude", ""); err != nil {
		t.Fatal(err)
	}
	if options.store[apiKeyOption("claude")] != stored {
		t.Error("blank value must not overwrite the stored key")
	}

	// A round-tripped ciphertext placeholder keeps the stored key too.
	echo := strings.Repeat("QWJjZDEy", 40)
	if err := uc.UpdateAPIKey(ctx, "claude", echo); err != nil {
		t.Fatal(err)
	}
	if options.store[apiKeyOption("claude")] != stored {
		t.Error("ciphertext echo must not be re-encrypted over the stored key")
	}

	if got := uc.GetAPIKey(ctx, "claude"); got != "sk-original" {
		t.Errorf("GetAPIKey = %q, want original", got)
	}
}

func TestGetAPIKeyMissingOrUndecryptable(t *testing.T) {
	options := newMemOptionsRepo()
	uc := newTestSettingsUC(options)
	ctx := context.Background()

	if got := uc.GetAPIKey(ctx, "gemini"); got != "" {
		t.Errorf("missing key must yield empty, got %q", got)
	}

	// Garbage ciphertext decrypts to empty, never errors out of the flow.
	options.store[apiKeyOption("gemini")] = "###not-base64###"
	if got := uc.GetAPIKey(ctx, "gemini"); got != "" {
		t.Errorf("undecryptable key must yield empty, got %q", got)
	}
}

func TestDeleteAPIKey(t *testing.T) {
	options := newMemOptionsRepo()
	uc := newTestSettingsUC(options)
	ctx := context.Background()

	if err := uc.UpdateAPIKey(ctx, "openai", "sk-x"); err != nil {
		t.Fatal(err)
	}
	if err := uc.DeleteAPIKey(ctx, "openai"); err != nil {
		t.Fatalf("DeleteAPIKey: %v", err)
	}
	if got := uc.GetAPIKey(ctx, "openai"); got != "" {
		t.Errorf("deleted key still readable: %q", got)
	}
}

func TestProviderSettingsSnapshot(t *testing.T) {
	options := newMemOptionsRepo()
	uc := newTestSettingsUC(options)
	ctx := context.Background()

	s := DefaultSettings()
	s.DefaultProvider = "claude"
	s.EnableDescription = false
	s.Prompt = "Custom base."
	if err := uc.Update(ctx, s); err != nil {
		t.Fatal(err)
	}
	if err := uc.UpdateAPIKey(ctx, "claude", "sk-c"); err != nil {
		t.Fatal(err)
	}

	snap, err := uc.ProviderSettings(ctx)
	if err != nil {
		t.Fatalf("ProviderSettings: %v", err)
	}
	if snap.DefaultProvider != "claude" {
		t.Errorf("default = %q", snap.DefaultProvider)
	}
	if snap.APIKeys["claude"] != "sk-c" || snap.APIKeys["openai"] != "" {
		t.Errorf("keys = %v", snap.APIKeys)
	}
	if snap.Prompt.EnableDescription || !snap.Prompt.EnableTitle {
		t.Errorf("prompt flags = %+v", snap.Prompt)
	}
	if snap.Prompt.BasePrompt != "Custom base." || snap.Prompt.Locale != "en_US" {
		t.Errorf("prompt spec = %+v", snap.Prompt)
	}
	if snap.Image.MaxDimension != 2048 || snap.Image.JPEGQuality != 85 {
		t.Errorf("image opts = %+v", snap.Image)
	}
}
