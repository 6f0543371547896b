// Package events announces newly published index generations over NATS so
// that running search services can reload without a restart.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"placesearch/internal/domain"
)

// DefaultSubject carries a JSON domain.Generation per rebuild.
const DefaultSubject = "placesearch.index.rebuilt"

// OriginHeader names the Bus that published a notification.
const OriginHeader = "Placesearch-Origin"

// Publisher is notified after a generation has been published.
type Publisher interface {
	PublishRebuilt(ctx context.Context, gen domain.Generation) error
}

// Nop discards notifications.
type Nop struct{}

func (Nop) PublishRebuilt(context.Context, domain.Generation) error { return nil }

// conn is the subset of *nats.Conn used here.
type conn interface {
	PublishMsg(m *nats.Msg) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

// Bus publishes and subscribes to rebuild notifications. A Bus does not
// deliver its own notifications back to its subscribers: the process that
// built a generation has already acted on it.
type Bus struct {
	nc      conn
	subject string
	origin  string
	logger  *slog.Logger
}

var _ Publisher = (*Bus)(nil)

// Connect dials the NATS server at url.
func Connect(url, subject string, logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("placesearch"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect %s: %w", url, err)
	}
	return newBus(nc, subject, logger), nil
}

func newBus(nc conn, subject string, logger *slog.Logger) *Bus {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{nc: nc, subject: subject, origin: uuid.NewString(), logger: logger}
}

// PublishRebuilt sends gen with the caller's trace context in the headers.
func (b *Bus) PublishRebuilt(ctx context.Context, gen domain.Generation) error {
	data, err := json.Marshal(gen)
	if err != nil {
		return fmt.Errorf("events: encode: %w", err)
	}
	msg := &nats.Msg{Subject: b.subject, Data: data, Header: nats.Header{}}
	msg.Header.Set(OriginHeader, b.origin)
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	if err := b.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("events: publish: %w", err)
	}
	return nil
}

// SubscribeRebuilt invokes handler for every notification published by
// another Bus. Malformed messages are logged and dropped.
func (b *Bus) SubscribeRebuilt(handler func(context.Context, domain.Generation)) (*nats.Subscription, error) {
	return b.nc.Subscribe(b.subject, func(msg *nats.Msg) {
		if msg.Header != nil && msg.Header.Get(OriginHeader) == b.origin {
			return
		}
		var gen domain.Generation
		if err := json.Unmarshal(msg.Data, &gen); err != nil {
			b.logger.Warn("dropping malformed rebuild event", "error", err)
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
		handler(ctx, gen)
	})
}

// Close drains pending messages and closes the connection.
func (b *Bus) Close() error { return b.nc.Drain() }

// headerCarrier adapts nats.Msg headers for the OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}
