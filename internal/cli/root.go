package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/status-digest/internal/build"
	"github.com/rohmanhakim/status-digest/internal/config"
	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/pkg/timeutil"
)

var (
	cfgFile     string
	outputDir   string
	captureMode bool
	userAgent   string
	timeout     time.Duration
	maxAttempt  int
	randomSeed  int64
	logLevel    string
	logJSON     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "status-digest",
	Short: "Security-vendor status aggregator and digest sender.",
	Long: `status-digest collects the public status pages of the configured
security vendors, normalizes what each page reports into one canonical
per-vendor record, and renders a consolidated daily digest delivered
over Telegram and Teams.

Each step is a subcommand so a scheduled workflow can run them
independently: "vendor" collects one vendor, "aggregate" folds the
collected snapshots into digest data, "send" renders the templates and
delivers the result.`,
	Version: build.FullVersion(),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory for snapshots and capture files")
	rootCmd.PersistentFlags().BoolVar(&captureMode, "capture", false, "append channel sends to per-vendor capture files")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().IntVar(&maxAttempt, "max-attempt", 0, "maximum fetch/delivery attempts")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for retry jitter (0 for current time)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() config.Config {
	cfg, err := InitConfigWithError()
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}

// InitConfigWithError reads in config file and ENV variables if set, returning any errors.
// This makes it easier to test error cases.
func InitConfigWithError() (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	// Start with default config, apply workflow environment variables,
	// then override with CLI flag values where provided
	configBuilder := config.WithDefault().WithEnvOverrides()

	if outputDir != "" {
		configBuilder = configBuilder.WithOutputDir(outputDir)
	}

	if captureMode {
		configBuilder = configBuilder.WithCaptureMode(captureMode)
	}

	if userAgent != "" {
		configBuilder = configBuilder.WithUserAgent(userAgent)
	}

	if timeout > 0 {
		configBuilder = configBuilder.WithTimeout(timeout)
	}

	if maxAttempt > 0 {
		configBuilder = configBuilder.WithMaxAttempt(maxAttempt)
	}

	if randomSeed != 0 {
		configBuilder = configBuilder.WithRandomSeed(randomSeed)
	}

	cfg, err := configBuilder.Build()
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newRecorder builds the run-scoped metadata recorder after logging has
// been initialized from the persistent flags.
func newRecorder() metadata.Recorder {
	metadata.InitLogging(logJSON, metadata.ParseLevel(logLevel))
	runID := timeutil.NowUTC().Format("20060102T150405Z")
	return metadata.NewRecorder(runID, slog.Default())
}

// parseChannels resolves the --channels value: a comma list of channel
// names where "both" selects every channel and "none" selects nothing.
func parseChannels(raw string) []string {
	selected := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		selected[part] = true
	}
	if selected["none"] {
		return nil
	}
	if selected["both"] {
		return []string{config.ChannelTelegram, config.ChannelTeams}
	}
	var out []string
	if selected[config.ChannelTelegram] {
		out = append(out, config.ChannelTelegram)
	}
	if selected[config.ChannelTeams] {
		out = append(out, config.ChannelTeams)
	}
	return out
}

func ResetFlags() {
	cfgFile = ""
	outputDir = ""
	captureMode = false
	userAgent = ""
	timeout = 0
	maxAttempt = 0
	randomSeed = 0
	logLevel = "info"
	logJSON = false
	vendorSlug = ""
	exportJSON = ""
	vendorChannels = "none"
	headless = true
	vendorsDir = ""
	aggregateOut = ""
	sendChannels = "telegram,teams"
	dataPath = ""
	textTemplate = ""
	htmlTemplate = ""
	alsoText = false
	previewOut = ""
	strict = false
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetOutputDirForTest(dir string) {
	outputDir = dir
}

func SetCaptureModeForTest(capture bool) {
	captureMode = capture
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetTimeoutForTest(t time.Duration) {
	timeout = t
}

func SetMaxAttemptForTest(attempts int) {
	maxAttempt = attempts
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}
