package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/cyberdyne10/huntress/internal/domain"
)

func TestParseCRMStatusUpdate(t *testing.T) {
	t.Parallel()

	update, err := domain.ParseCRMStatusUpdate([]byte(`{
		"eventId": " evt-1 ",
		"recordId": "contact-9",
		"status": "Delivered",
		"occurredAt": "2026-03-01T10:00:00+02:00",
		"vendorExtra": {"campaign": "spring"}
	}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if update.EventID != "evt-1" || update.Status != "delivered" {
		t.Fatalf("expected trimmed id and lower-cased status, got %+v", update)
	}
	if update.OccurredAt == nil || update.OccurredAt.Location().String() != "UTC" || update.OccurredAt.Hour() != 8 {
		t.Fatalf("expected occurredAt normalised to UTC, got %v", update.OccurredAt)
	}
}

func TestParseCRMStatusUpdateRejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"not json":        `{"eventId":`,
		"array":           `[1,2]`,
		"missing event":   `{"recordId":"r","status":"s"}`,
		"blank event":     `{"eventId":"  ","recordId":"r","status":"s"}`,
		"missing record":  `{"eventId":"e","status":"s"}`,
		"missing status":  `{"eventId":"e","recordId":"r"}`,
		"wrong type":      `{"eventId":42,"recordId":"r","status":"s"}`,
		"bad timestamp":   `{"eventId":"e","recordId":"r","status":"s","occurredAt":"yesterday"}`,
		"event too long":  `{"eventId":"` + strings.Repeat("e", 129) + `","recordId":"r","status":"s"}`,
		"status too long": `{"eventId":"e","recordId":"r","status":"` + strings.Repeat("s", 65) + `"}`,
	}
	for name, body := range cases {
		if _, err := domain.ParseCRMStatusUpdate([]byte(body)); !errors.Is(err, domain.ErrMalformedPayload) {
			t.Fatalf("%s: expected malformed payload, got %v", name, err)
		}
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]domain.Role{"admin": domain.RoleAdmin, " Viewer ": domain.RoleViewer} {
		got, err := domain.ParseRole(raw)
		if err != nil || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v", raw, got, err)
		}
	}
	for _, raw := range []string{"", "owner", "administrator"} {
		if _, err := domain.ParseRole(raw); !errors.Is(err, domain.ErrUnknownRole) {
			t.Fatalf("ParseRole(%q): expected unknown role, got %v", raw, err)
		}
	}
}
