package notify

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnknownProvider = errors.New("unknown notify provider")

// Recipient is a guardian or teacher linked to a child, resolved at alert time.
type Recipient struct {
	UserID int64  `json:"user_id"`
	Phone  string `json:"phone"`
}

// Notification is one alert fanned out to a child's recipients. Dispatch is
// best-effort and happens after the alert row is committed; a dispatch failure
// is logged, never surfaced to the reporting device.
type Notification struct {
	ChildID   uint        `json:"child_id"`
	AlertType string      `json:"alert_type"`
	Message   string      `json:"message"`
	Recipients []Recipient `json:"recipients"`
}

// Dispatcher delivers notifications to recipients. Implementations register
// themselves via RegisterProvider from their package init().
type Dispatcher interface {
	// Name returns the provider name for logging purposes.
	Name() string

	// Send delivers one notification to its recipients.
	Send(ctx context.Context, n Notification) error
}

// providerRegistry holds registered dispatcher constructors so new backends
// can be added without modifying this file.
var providerRegistry = make(map[ProviderType]func(Config) (Dispatcher, error))

// RegisterProvider registers a dispatcher constructor for a provider type.
// This should be called from init() in each provider package.
func RegisterProvider(providerType ProviderType, constructor func(Config) (Dispatcher, error)) {
	providerRegistry[providerType] = constructor
}

// NewDispatcher creates a Dispatcher based on the configuration.
func NewDispatcher(cfg Config) (Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	constructor, ok := providerRegistry[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	return constructor(cfg)
}
