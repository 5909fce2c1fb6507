package notify

import (
	"errors"
	"os"
	"strings"
)

// ProviderType identifies which notification backend to use.
type ProviderType string

const (
	ProviderSMSLog  ProviderType = "smslog"
	ProviderConsole ProviderType = "console"
	ProviderNATS    ProviderType = "nats"
)

var ErrMissingNATSURL = errors.New("NATS_URL environment variable is required for nats provider")

// DefaultSubjectPrefix is the subject prefix for queue-published alerts.
const DefaultSubjectPrefix = "alerts"

// Config holds configuration for the notification dispatcher.
type Config struct {
	// Provider type: "smslog", "console" or "nats"
	Provider ProviderType

	// NATS-specific config
	NATSURL       string
	SubjectPrefix string
}

// LoadFromEnv loads dispatcher configuration from environment variables.
//
// Environment variables:
//   - NOTIFY_PROVIDER: "smslog", "console" or "nats" (default: "smslog")
//   - NATS_URL: server URL (required if using nats)
//   - NATS_SUBJECT_PREFIX: subject prefix for published alerts (default: "alerts")
func LoadFromEnv() Config {
	providerStr := strings.ToLower(strings.TrimSpace(os.Getenv("NOTIFY_PROVIDER")))

	var provider ProviderType
	switch providerStr {
	case "console":
		provider = ProviderConsole
	case "nats":
		provider = ProviderNATS
	default:
		provider = ProviderSMSLog
	}

	prefix := strings.TrimSpace(os.Getenv("NATS_SUBJECT_PREFIX"))
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return Config{
		Provider:      provider,
		NATSURL:       os.Getenv("NATS_URL"),
		SubjectPrefix: prefix,
	}
}

// Validate checks that the configuration is valid for the selected provider.
func (c Config) Validate() error {
	if c.Provider == ProviderNATS && strings.TrimSpace(c.NATSURL) == "" {
		return ErrMissingNATSURL
	}
	return nil
}
