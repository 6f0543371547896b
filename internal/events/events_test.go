package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"placesearch/internal/domain"
)

// fakeConn delivers published messages straight to subscribers.
type fakeConn struct {
	published  []*nats.Msg
	handlers   map[string]nats.MsgHandler
	publishErr error
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, m)
	if h, ok := f.handlers[m.Subject]; ok {
		h(m)
	}
	return nil
}

func (f *fakeConn) Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error) {
	if f.handlers == nil {
		f.handlers = map[string]nats.MsgHandler{}
	}
	f.handlers[subj] = cb
	return &nats.Subscription{Subject: subj}, nil
}

func (f *fakeConn) Drain() error { return nil }

func TestPublishSubscribeRoundTrip(t *testing.T) {
	fc := &fakeConn{}
	builder := newBus(fc, "", nil)
	server := newBus(fc, "", nil)

	var got []domain.Generation
	if _, err := server.SubscribeRebuilt(func(_ context.Context, g domain.Generation) {
		got = append(got, g)
	}); err != nil {
		t.Fatal(err)
	}

	gen := domain.Generation{ID: "g1", Source: "store", Count: 3, Dimension: 384, BuiltAt: time.Unix(100, 0).UTC()}
	if err := builder.PublishRebuilt(context.Background(), gen); err != nil {
		t.Fatal(err)
	}
	if fc.published[0].Subject != DefaultSubject {
		t.Fatalf("subject = %q", fc.published[0].Subject)
	}
	if len(got) != 1 || got[0].ID != "g1" || got[0].Count != 3 {
		t.Fatalf("received = %+v", got)
	}
}

func TestOwnNotificationsSkipped(t *testing.T) {
	fc := &fakeConn{}
	bus := newBus(fc, "", nil)

	calls := 0
	if _, err := bus.SubscribeRebuilt(func(context.Context, domain.Generation) { calls++ }); err != nil {
		t.Fatal(err)
	}
	if err := bus.PublishRebuilt(context.Background(), domain.Generation{ID: "self"}); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Fatalf("handler called %d times for own notification", calls)
	}
	if fc.published[0].Header.Get(OriginHeader) == "" {
		t.Fatal("origin header missing")
	}

	// the same message from another process is delivered
	fc.handlers[DefaultSubject](&nats.Msg{Subject: DefaultSubject, Data: fc.published[0].Data})
	if calls != 1 {
		t.Fatalf("handler called %d times for foreign notification", calls)
	}
}

func TestMalformedMessageDropped(t *testing.T) {
	fc := &fakeConn{}
	bus := newBus(fc, "custom.subject", nil)
	called := false
	_, _ = bus.SubscribeRebuilt(func(context.Context, domain.Generation) { called = true })

	fc.handlers["custom.subject"](&nats.Msg{Subject: "custom.subject", Data: []byte("{nope")})
	if called {
		t.Fatal("handler called for malformed message")
	}
}

func TestPublishError(t *testing.T) {
	bus := newBus(&fakeConn{publishErr: nats.ErrConnectionClosed}, "", nil)
	err := bus.PublishRebuilt(context.Background(), domain.Generation{ID: "x"})
	if !errors.Is(err, nats.ErrConnectionClosed) {
		t.Fatalf("err = %v", err)
	}
}

func TestHeaderCarrier(t *testing.T) {
	msg := &nats.Msg{}
	c := (*headerCarrier)(msg)
	if c.Get("missing") != "" || c.Keys() != nil {
		t.Fatal("empty carrier not empty")
	}
	c.Set("traceparent", "00-abc-def-01")
	if c.Get("traceparent") != "00-abc-def-01" || len(c.Keys()) != 1 {
		t.Fatalf("carrier = %v", msg.Header)
	}
}
