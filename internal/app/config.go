package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config carries every knob the monitor reads from the environment. It is
// populated once at startup and passed explicitly; nothing downstream
// touches the environment.
type Config struct {
	TargetURL     string
	EntrySelector string

	SpreadsheetID   string
	SheetRange      string
	CredentialsFile string

	StorageBucket string
	StoragePrefix string

	ProxyURL      string
	Headless      bool
	WaitTimeout   time.Duration
	ExpandTimeout time.Duration

	// RunInterval > 0 switches from one-shot to an internal ticker loop.
	RunInterval time.Duration

	NtfyEnabled  bool
	NtfyURL      string
	NtfyTopic    string
	NtfyPriority string
}

// LoadConfig reads the environment into a Config.
func LoadConfig() (Config, error) {
	cfg := Config{
		TargetURL:       GetEnvWithDefault("TARGET_URL", "http://std.nest.net.np/"),
		EntrySelector:   GetEnvWithDefault("ENTRY_SELECTOR", "div.p-4.transition"),
		SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
		SheetRange:      GetEnvWithDefault("SPREADSHEET_RANGE", "Sales!A1"),
		CredentialsFile: GetEnvWithDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		StorageBucket:   os.Getenv("STORAGE_BUCKET"),
		StoragePrefix:   GetEnvWithDefault("STORAGE_PREFIX", "screenshots"),
		ProxyURL:        os.Getenv("PROXY_URL"),
		NtfyEnabled:     GetEnvWithDefault("NTFY_ENABLED", "false") == "true",
		NtfyURL:         GetEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
		NtfyTopic:       GetEnvWithDefault("NTFY_TOPIC", "nest-sales"),
		NtfyPriority:    os.Getenv("NTFY_PRIORITY"),
	}

	if cfg.SpreadsheetID == "" {
		return Config{}, fmt.Errorf("SPREADSHEET_ID environment variable is required")
	}

	var err error
	if cfg.Headless, err = getBoolEnv("HEADLESS", true); err != nil {
		return Config{}, err
	}
	if cfg.WaitTimeout, err = getDurationEnv("PAGE_WAIT_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ExpandTimeout, err = getDurationEnv("ENTRY_EXPAND_TIMEOUT", 20*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RunInterval, err = getDurationEnv("RUN_INTERVAL", 0); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	// Configure logging
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		// Default based on environment
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return b, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return d, nil
}
