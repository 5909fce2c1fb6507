package consolelog

import (
	"context"
	"log"

	"github.com/SafeTrack/ST-Backend/internal/notify"
)

// dispatcher logs notifications instead of delivering them. Used in local
// development where no SMS table or queue is wanted.
type dispatcher struct{}

func init() {
	notify.RegisterProvider(notify.ProviderConsole, New)
}

func New(cfg notify.Config) (notify.Dispatcher, error) {
	return dispatcher{}, nil
}

func (dispatcher) Name() string { return "console" }

func (dispatcher) Send(ctx context.Context, n notify.Notification) error {
	log.Printf("[notify] %s child=%d recipients=%d: %s",
		n.AlertType, n.ChildID, len(n.Recipients), n.Message)
	return nil
}
