package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cyberdyne10/huntress/internal/adapters/security"
	"github.com/cyberdyne10/huntress/internal/domain"
)

func TestReceiveWebhookAcceptedThenDuplicate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	payload, sig := signedDelivery(`{"eventId":"evt-100","recordId":"contact-9","status":"Delivered"}`)
	first, err := f.service.ReceiveWebhook(ctx, payload, sig)
	if err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if first.Status != domain.IngestAccepted || first.EventID != "evt-100" {
		t.Fatalf("unexpected first acceptance: %+v", first)
	}

	replay, replaySig := signedDelivery(`{"eventId":"evt-100","recordId":"contact-9","status":"bounced"}`)
	second, err := f.service.ReceiveWebhook(ctx, replay, replaySig)
	if err != nil {
		t.Fatalf("replayed delivery failed: %v", err)
	}
	if second.Status != domain.IngestDuplicate {
		t.Fatalf("expected duplicate, got %s", second.Status)
	}

	state, err := f.service.CRMRecordState(ctx, "contact-9")
	if err != nil {
		t.Fatalf("record state lookup failed: %v", err)
	}
	if state.Status != "delivered" || state.LastEventID != "evt-100" {
		t.Fatalf("duplicate mutated crm state: %+v", state)
	}
	event, err := f.service.WebhookEvent(ctx, "evt-100")
	if err != nil {
		t.Fatalf("event lookup failed: %v", err)
	}
	if event.Status != domain.IngestAccepted || event.PayloadHash == "" {
		t.Fatalf("unexpected stored event: %+v", event)
	}
	if pending, _ := f.repos.Outbox.CountPending(ctx); pending != 1 {
		t.Fatalf("expected exactly one outbox record, got %d", pending)
	}
}

func TestReceiveWebhookConcurrentDeliveriesAcceptOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	payload, sig := signedDelivery(`{"eventId":"evt-race","recordId":"contact-1","status":"opened"}`)

	const deliveries = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[domain.IngestStatus]int{}
	)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.service.ReceiveWebhook(ctx, payload, sig)
			if err != nil {
				t.Errorf("delivery failed: %v", err)
				return
			}
			mu.Lock()
			results[res.Status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if results[domain.IngestAccepted] != 1 {
		t.Fatalf("expected exactly one accepted, got %d", results[domain.IngestAccepted])
	}
	if results[domain.IngestDuplicate] != deliveries-1 {
		t.Fatalf("expected %d duplicates, got %d", deliveries-1, results[domain.IngestDuplicate])
	}
	if n, _ := f.repos.Webhooks.CountAccepted(ctx); n != 1 {
		t.Fatalf("expected one stored event, got %d", n)
	}
}

func TestReceiveWebhookRejectsTamperedSignature(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	payload, sig := signedDelivery(`{"eventId":"evt-tamper","recordId":"contact-3","status":"delivered"}`)
	tampered := []byte(`{"eventId":"evt-tamper","recordId":"contact-3","status":"clicked"}`)

	cases := []struct {
		name    string
		payload []byte
		sig     string
	}{
		{name: "body changed", payload: tampered, sig: sig},
		{name: "missing header", payload: payload, sig: ""},
		{name: "not hex", payload: payload, sig: "sha256=zzzz"},
		{name: "wrong secret", payload: payload, sig: security.SignatureHeader([]byte("other-secret"), payload)},
	}
	for _, tc := range cases {
		if _, err := f.service.ReceiveWebhook(ctx, tc.payload, tc.sig); !errors.Is(err, domain.ErrInvalidSignature) {
			t.Fatalf("%s: expected invalid signature, got %v", tc.name, err)
		}
	}
	if _, err := f.service.WebhookEvent(ctx, "evt-tamper"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("tampered delivery must not be recorded, got %v", err)
	}
	if _, err := f.service.CRMRecordState(ctx, "contact-3"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("tampered delivery must not touch crm state, got %v", err)
	}
}

func TestReceiveWebhookRejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	for _, body := range []string{
		`not json`,
		`{"recordId":"contact-1","status":"delivered"}`,
		`{"eventId":"evt-1","status":"delivered"}`,
		`{"eventId":"evt-1","recordId":"contact-1"}`,
		`{"eventId":"evt-1","recordId":"contact-1","status":"delivered","occurredAt":"yesterday"}`,
	} {
		payload, sig := signedDelivery(body)
		if _, err := f.service.ReceiveWebhook(ctx, payload, sig); !errors.Is(err, domain.ErrMalformedPayload) {
			t.Fatalf("body %s: expected malformed payload, got %v", body, err)
		}
	}
	if n, _ := f.repos.Webhooks.CountAccepted(ctx); n != 0 {
		t.Fatalf("malformed deliveries must not be recorded, got %d", n)
	}
}
