package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/status-digest/internal/config"
)

func TestWithDefault(t *testing.T) {
	cfg := config.WithDefault()

	if cfg == nil {
		t.Fatal("WithDefault() returned nil")
	}

	builtCfg, err := cfg.Build()

	if err != nil {
		t.Errorf("should not have any error, got %v", err)
	}

	// Verify output locations
	if builtCfg.OutputDir() != ".github/out/vendors" {
		t.Errorf("expected OutputDir '.github/out/vendors', got '%s'", builtCfg.OutputDir())
	}
	if builtCfg.DataPath() != ".github/out/digest_data.json" {
		t.Errorf("expected DataPath '.github/out/digest_data.json', got '%s'", builtCfg.DataPath())
	}
	if builtCfg.CaptureMode() != false {
		t.Errorf("expected CaptureMode false, got %v", builtCfg.CaptureMode())
	}

	// Verify channels default to both delivery targets
	channels := builtCfg.Channels()
	if len(channels) != 2 || channels[0] != config.ChannelTelegram || channels[1] != config.ChannelTeams {
		t.Errorf("expected channels [telegram teams], got %v", channels)
	}

	// Verify templates
	if builtCfg.TextTemplatePath() != "templates/digest_email.txt" {
		t.Errorf("expected TextTemplatePath 'templates/digest_email.txt', got '%s'", builtCfg.TextTemplatePath())
	}
	if builtCfg.HTMLTemplatePath() != "templates/digest_email.html" {
		t.Errorf("expected HTMLTemplatePath 'templates/digest_email.html', got '%s'", builtCfg.HTMLTemplatePath())
	}

	// Verify fetch settings
	if builtCfg.Timeout() != 25*time.Second {
		t.Errorf("expected Timeout 25s, got %v", builtCfg.Timeout())
	}
	if builtCfg.UserAgent() != "status-digest/1.0" {
		t.Errorf("expected UserAgent 'status-digest/1.0', got '%s'", builtCfg.UserAgent())
	}

	// Verify retry settings
	if builtCfg.BaseDelay() != 2*time.Second {
		t.Errorf("expected BaseDelay 2s, got %v", builtCfg.BaseDelay())
	}
	if builtCfg.Jitter() != 500*time.Millisecond {
		t.Errorf("expected Jitter 500ms, got %v", builtCfg.Jitter())
	}
	if builtCfg.MaxAttempt() != 3 {
		t.Errorf("expected MaxAttempt 3, got %d", builtCfg.MaxAttempt())
	}
	if builtCfg.BackoffInitialDuration() != 2*time.Second {
		t.Errorf("expected BackoffInitialDuration 2s, got %v", builtCfg.BackoffInitialDuration())
	}
	if builtCfg.BackoffMultiplier() != 2.0 {
		t.Errorf("expected BackoffMultiplier 2.0, got %f", builtCfg.BackoffMultiplier())
	}
	if builtCfg.BackoffMaxDuration() != 10*time.Second {
		t.Errorf("expected BackoffMaxDuration 10s, got %v", builtCfg.BackoffMaxDuration())
	}

	// Credentials are empty unless provided
	if builtCfg.TelegramToken() != "" || builtCfg.TelegramChatID() != "" || builtCfg.TeamsWebhookURL() != "" {
		t.Errorf("expected empty credentials by default")
	}
}

func TestBuilderChain(t *testing.T) {
	builtCfg, err := config.WithDefault().
		WithOutputDir("out/vendors").
		WithDataPath("out/data.json").
		WithCaptureMode(true).
		WithChannels([]string{config.ChannelTelegram}).
		WithTelegramToken("123:abc").
		WithTelegramChatID("42").
		WithTeamsWebhookURL("https://example.webhook.office.com/x").
		WithTextTemplatePath("tpl/mail.txt").
		WithHTMLTemplatePath("tpl/mail.html").
		WithTimeout(5 * time.Second).
		WithUserAgent("custom-agent/2.0").
		WithBaseDelay(time.Second).
		WithJitter(time.Millisecond * 100).
		WithRandomSeed(7).
		WithMaxAttempt(5).
		WithBackoffInitialDuration(time.Second).
		WithBackoffMultiplier(1.5).
		WithBackoffMaxDuration(30 * time.Second).
		Build()

	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if builtCfg.OutputDir() != "out/vendors" {
		t.Errorf("expected OutputDir 'out/vendors', got '%s'", builtCfg.OutputDir())
	}
	if builtCfg.DataPath() != "out/data.json" {
		t.Errorf("expected DataPath 'out/data.json', got '%s'", builtCfg.DataPath())
	}
	if !builtCfg.CaptureMode() {
		t.Errorf("expected CaptureMode true")
	}
	if len(builtCfg.Channels()) != 1 || builtCfg.Channels()[0] != config.ChannelTelegram {
		t.Errorf("expected channels [telegram], got %v", builtCfg.Channels())
	}
	if builtCfg.TelegramToken() != "123:abc" {
		t.Errorf("expected TelegramToken '123:abc', got '%s'", builtCfg.TelegramToken())
	}
	if builtCfg.TelegramChatID() != "42" {
		t.Errorf("expected TelegramChatID '42', got '%s'", builtCfg.TelegramChatID())
	}
	if builtCfg.TeamsWebhookURL() != "https://example.webhook.office.com/x" {
		t.Errorf("expected TeamsWebhookURL to round-trip, got '%s'", builtCfg.TeamsWebhookURL())
	}
	if builtCfg.Timeout() != 5*time.Second {
		t.Errorf("expected Timeout 5s, got %v", builtCfg.Timeout())
	}
	if builtCfg.UserAgent() != "custom-agent/2.0" {
		t.Errorf("expected UserAgent 'custom-agent/2.0', got '%s'", builtCfg.UserAgent())
	}
	if builtCfg.RandomSeed() != 7 {
		t.Errorf("expected RandomSeed 7, got %d", builtCfg.RandomSeed())
	}
	if builtCfg.MaxAttempt() != 5 {
		t.Errorf("expected MaxAttempt 5, got %d", builtCfg.MaxAttempt())
	}
}

func TestBuildRejectsUnknownChannel(t *testing.T) {
	_, err := config.WithDefault().
		WithChannels([]string{"pager"}).
		Build()

	if err == nil {
		t.Fatal("expected error for unknown channel, got nil")
	}
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuildRejectsEmptyOutputDir(t *testing.T) {
	_, err := config.WithDefault().
		WithOutputDir("").
		Build()

	if err == nil {
		t.Fatal("expected error for empty outputDir, got nil")
	}
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestBuildRejectsZeroMaxAttempt(t *testing.T) {
	_, err := config.WithDefault().
		WithMaxAttempt(0).
		Build()

	if err == nil {
		t.Fatal("expected error for zero maxAttempt, got nil")
	}
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWithConfigFileNotExist(t *testing.T) {
	_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "missing.json"))

	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("expected ErrFileDoesNotExist, got %v", err)
	}
}

func TestWithConfigFileInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := config.WithConfigFile(path)

	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
	if !errors.Is(err, config.ErrConfigParsingFail) {
		t.Errorf("expected ErrConfigParsingFail, got %v", err)
	}
}

func TestWithConfigFileOverrides(t *testing.T) {
	content := `{
		"outputDir": "run/out",
		"captureMode": true,
		"channels": ["teams"],
		"telegramToken": "file-token",
		"userAgent": "file-agent/1.0",
		"maxAttempt": 7
	}`
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.WithConfigFile(path)

	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.OutputDir() != "run/out" {
		t.Errorf("expected OutputDir 'run/out', got '%s'", cfg.OutputDir())
	}
	if !cfg.CaptureMode() {
		t.Errorf("expected CaptureMode true")
	}
	if len(cfg.Channels()) != 1 || cfg.Channels()[0] != config.ChannelTeams {
		t.Errorf("expected channels [teams], got %v", cfg.Channels())
	}
	if cfg.TelegramToken() != "file-token" {
		t.Errorf("expected TelegramToken 'file-token', got '%s'", cfg.TelegramToken())
	}
	if cfg.UserAgent() != "file-agent/1.0" {
		t.Errorf("expected UserAgent 'file-agent/1.0', got '%s'", cfg.UserAgent())
	}
	if cfg.MaxAttempt() != 7 {
		t.Errorf("expected MaxAttempt 7, got %d", cfg.MaxAttempt())
	}
	// Untouched fields keep their defaults
	if cfg.DataPath() != ".github/out/digest_data.json" {
		t.Errorf("expected default DataPath, got '%s'", cfg.DataPath())
	}
	if cfg.Timeout() != 25*time.Second {
		t.Errorf("expected default Timeout 25s, got %v", cfg.Timeout())
	}
}

func TestWithEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_USER_ID", "env-chat")
	t.Setenv("TEAMS_WEBHOOK_URL", "https://env.webhook.office.com/y")
	t.Setenv("DIGEST_OUT_DIR", "env/out")
	t.Setenv("DIGEST_CAPTURE", "1")

	cfg, err := config.WithDefault().WithEnvOverrides().Build()

	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.TelegramToken() != "env-token" {
		t.Errorf("expected TelegramToken 'env-token', got '%s'", cfg.TelegramToken())
	}
	if cfg.TelegramChatID() != "env-chat" {
		t.Errorf("expected TelegramChatID 'env-chat', got '%s'", cfg.TelegramChatID())
	}
	if cfg.TeamsWebhookURL() != "https://env.webhook.office.com/y" {
		t.Errorf("expected TeamsWebhookURL from env, got '%s'", cfg.TeamsWebhookURL())
	}
	if cfg.OutputDir() != "env/out" {
		t.Errorf("expected OutputDir 'env/out', got '%s'", cfg.OutputDir())
	}
	if !cfg.CaptureMode() {
		t.Errorf("expected CaptureMode true")
	}
}

func TestWithEnvOverridesUnsetKeepsExisting(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("DIGEST_CAPTURE", "off")

	cfg, err := config.WithDefault().
		WithTelegramToken("builder-token").
		WithEnvOverrides().
		Build()

	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.TelegramToken() != "builder-token" {
		t.Errorf("expected builder token to survive empty env var, got '%s'", cfg.TelegramToken())
	}
	if cfg.CaptureMode() {
		t.Errorf("expected CaptureMode false for non-truthy env value")
	}
}
