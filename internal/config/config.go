package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	ChannelTelegram = "telegram"
	ChannelTeams    = "teams"
)

type Config struct {
	//===============
	// Output
	//===============
	// Root directory in which to store per-vendor snapshots and capture files
	outputDir string
	// Path of the aggregated placeholder data file produced by the aggregate step
	dataPath string
	// Whether notifier sends are also appended to per-vendor capture files
	captureMode bool

	//===============
	// Delivery
	//===============
	// Channels enabled for delivery. Valid entries are "telegram" and "teams"
	channels []string
	// Telegram bot token. Empty means telegram delivery is skipped
	telegramToken string
	// Telegram chat id the digest is addressed to
	telegramChatID string
	// Teams incoming-webhook URL. Empty means teams delivery is skipped
	teamsWebhookURL string

	//===============
	// Templates
	//===============
	// Plain-text template containing the "Asunto:" subject line
	textTemplatePath string
	// HTML template whose <title> doubles as the subject fallback
	htmlTemplatePath string

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch request
	timeout time.Duration
	// User agent that will be used in the request header. In raw string
	userAgent string

	//===============
	// Retry
	//===============
	// Minimum, fixed waiting time enforced between two retry attempts.
	baseDelay time.Duration
	// Randomized variation added on top of the base delay.
	// Intentional randomness applied to timing.
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// maximum attempt during retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration
}

type configDTO struct {
	OutputDir              string        `json:"outputDir,omitempty"`
	DataPath               string        `json:"dataPath,omitempty"`
	CaptureMode            bool          `json:"captureMode,omitempty"`
	Channels               []string      `json:"channels,omitempty"`
	TelegramToken          string        `json:"telegramToken,omitempty"`
	TelegramChatID         string        `json:"telegramChatId,omitempty"`
	TeamsWebhookURL        string        `json:"teamsWebhookUrl,omitempty"`
	TextTemplatePath       string        `json:"textTemplatePath,omitempty"`
	HTMLTemplatePath       string        `json:"htmlTemplatePath,omitempty"`
	Timeout                time.Duration `json:"timeout,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {

	// Start with default config
	cfg, err := WithDefault().Build()
	if err != nil {
		return Config{}, err
	}

	// For other fields, only override if non-zero value is provided
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}
	if dto.DataPath != "" {
		cfg.dataPath = dto.DataPath
	}
	// CaptureMode is a boolean, we use the DTO value as-is since bool zero value is false
	cfg.captureMode = dto.CaptureMode
	if len(dto.Channels) > 0 {
		cfg.channels = dto.Channels
	}
	if dto.TelegramToken != "" {
		cfg.telegramToken = dto.TelegramToken
	}
	if dto.TelegramChatID != "" {
		cfg.telegramChatID = dto.TelegramChatID
	}
	if dto.TeamsWebhookURL != "" {
		cfg.teamsWebhookURL = dto.TeamsWebhookURL
	}
	if dto.TextTemplatePath != "" {
		cfg.textTemplatePath = dto.TextTemplatePath
	}
	if dto.HTMLTemplatePath != "" {
		cfg.htmlTemplatePath = dto.HTMLTemplatePath
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.UserAgent != "" {
		cfg.userAgent = dto.UserAgent
	}
	if dto.BaseDelay != 0 {
		cfg.baseDelay = dto.BaseDelay
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}

	return cfg, nil
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	cfg, err := newConfigFromDTO(cfgDTO)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefault creates a new Config with default values for all fields.
// Credentials default to empty and are expected to come from the
// environment via WithEnvOverrides or from a config file.
func WithDefault() *Config {
	defaultConfig := Config{
		outputDir:   ".github/out/vendors",
		dataPath:    ".github/out/digest_data.json",
		captureMode: false,
		channels: []string{
			ChannelTelegram,
			ChannelTeams,
		},
		textTemplatePath:       "templates/digest_email.txt",
		htmlTemplatePath:       "templates/digest_email.html",
		timeout:                time.Second * 25,
		userAgent:              "status-digest/1.0",
		baseDelay:              time.Second * 2,
		jitter:                 time.Millisecond * 500,
		randomSeed:             time.Now().UnixNano(),
		maxAttempt:             3,
		backoffInitialDuration: 2 * time.Second,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
	}
	return &defaultConfig
}

// WithEnvOverrides applies the environment variables the scheduled
// workflow sets: TELEGRAM_BOT_TOKEN, TELEGRAM_USER_ID,
// TEAMS_WEBHOOK_URL, DIGEST_OUT_DIR and DIGEST_CAPTURE. Values already
// present in the builder are only replaced when the variable is set.
func (c *Config) WithEnvOverrides() *Config {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.telegramToken = v
	}
	if v := os.Getenv("TELEGRAM_USER_ID"); v != "" {
		c.telegramChatID = v
	}
	if v := os.Getenv("TEAMS_WEBHOOK_URL"); v != "" {
		c.teamsWebhookURL = v
	}
	if v := os.Getenv("DIGEST_OUT_DIR"); v != "" {
		c.outputDir = v
	}
	if isTruthy(os.Getenv("DIGEST_CAPTURE")) {
		c.captureMode = true
	}
	return c
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func (c *Config) WithOutputDir(dir string) *Config {
	c.outputDir = dir
	return c
}

func (c *Config) WithDataPath(path string) *Config {
	c.dataPath = path
	return c
}

func (c *Config) WithCaptureMode(enabled bool) *Config {
	c.captureMode = enabled
	return c
}

func (c *Config) WithChannels(channels []string) *Config {
	c.channels = channels
	return c
}

func (c *Config) WithTelegramToken(token string) *Config {
	c.telegramToken = token
	return c
}

func (c *Config) WithTelegramChatID(chatID string) *Config {
	c.telegramChatID = chatID
	return c
}

func (c *Config) WithTeamsWebhookURL(webhookURL string) *Config {
	c.teamsWebhookURL = webhookURL
	return c
}

func (c *Config) WithTextTemplatePath(path string) *Config {
	c.textTemplatePath = path
	return c
}

func (c *Config) WithHTMLTemplatePath(path string) *Config {
	c.htmlTemplatePath = path
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithUserAgent(userAgent string) *Config {
	c.userAgent = userAgent
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) Build() (Config, error) {
	for _, ch := range c.channels {
		if ch != ChannelTelegram && ch != ChannelTeams {
			return Config{}, fmt.Errorf("%w: unknown channel %q", ErrInvalidConfig, ch)
		}
	}
	if c.outputDir == "" {
		return Config{}, fmt.Errorf("%w: outputDir cannot be empty", ErrInvalidConfig)
	}
	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) OutputDir() string {
	return c.outputDir
}

func (c Config) DataPath() string {
	return c.dataPath
}

func (c Config) CaptureMode() bool {
	return c.captureMode
}

func (c Config) Channels() []string {
	channels := make([]string, len(c.channels))
	copy(channels, c.channels)
	return channels
}

func (c Config) TelegramToken() string {
	return c.telegramToken
}

func (c Config) TelegramChatID() string {
	return c.telegramChatID
}

func (c Config) TeamsWebhookURL() string {
	return c.teamsWebhookURL
}

func (c Config) TextTemplatePath() string {
	return c.textTemplatePath
}

func (c Config) HTMLTemplatePath() string {
	return c.htmlTemplatePath
}

func (c Config) Timeout() time.Duration {
	return c.timeout
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}
