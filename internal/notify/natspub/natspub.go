package natspub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SafeTrack/ST-Backend/internal/notify"
	"github.com/nats-io/nats.go"
)

// dispatcher publishes alert notifications to NATS so downstream delivery
// workers (SMS, push, email) can consume them at their own pace.
type dispatcher struct {
	nc     *nats.Conn
	prefix string
}

func init() {
	notify.RegisterProvider(notify.ProviderNATS, New)
}

func New(cfg notify.Config) (notify.Dispatcher, error) {
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("st-backend-notify"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &dispatcher{nc: nc, prefix: cfg.SubjectPrefix}, nil
}

func (d *dispatcher) Name() string { return "nats" }

func (d *dispatcher) Send(ctx context.Context, n notify.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", d.prefix, n.AlertType)
	if err := d.nc.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	// Push it out before the request-scoped context goes away.
	return d.nc.FlushWithContext(ctx)
}
