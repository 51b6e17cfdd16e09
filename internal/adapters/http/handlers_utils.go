package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cyberdyne10/huntress/internal/domain"
)

const serviceName = "huntress-api"

var errBodyTooLarge = errors.New("request body too large")

// errorEnvelope is the body of every non-2xx response.
type errorEnvelope struct {
	Status  string              `json:"status"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details []domain.FieldIssue `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		httpLogger().Warn("response encode failed",
			"operation", "respond_json",
			"outcome", "failure",
			"status_code", statusCode,
			"error", err,
		)
	}
}

func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	respondJSON(w, statusCode, errorEnvelope{Status: "error", Code: code, Message: message})
}

func httpLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "http",
		"layer", "adapter",
	)
}

// levelForStatus maps a response code onto the log level used for it.
func levelForStatus(statusCode int) slog.Level {
	switch {
	case statusCode >= 500:
		return slog.LevelError
	case statusCode >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func logFailure(ctx context.Context, operation string, statusCode int, code, message string, err error) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("outcome", "failure"),
		slog.Int("status_code", statusCode),
		slog.String("error_code", code),
		slog.String("message", message),
		slog.String("request_id", requestIDFromContext(ctx)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	httpLogger().LogAttrs(ctx, levelForStatus(statusCode), "http operation failed", attrs...)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// readRawBody returns the exact request bytes, bounded by limit.
func readRawBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, err
	}
	return body, nil
}

func writeMappedError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	status, code, msg := mapDomainError(err)
	logFailure(ctx, operation, status, code, msg, err)
	respondError(w, status, code, msg)
}

// writeFieldErrors answers 400 with one entry per rejected field.
func writeFieldErrors(ctx context.Context, w http.ResponseWriter, operation string, verr *domain.ValidationError) {
	code := "VALIDATION_ERROR"
	logFailure(ctx, operation, http.StatusBadRequest, code, verr.Error(), verr)
	respondJSON(w, http.StatusBadRequest, errorEnvelope{
		Status:  "error",
		Code:    code,
		Message: verr.Error(),
		Details: verr.Issues,
	})
}

func writeValidationError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	code := "VALIDATION_ERROR"
	msg := err.Error()
	logFailure(ctx, operation, http.StatusBadRequest, code, msg, err)
	respondError(w, http.StatusBadRequest, code, msg)
}

func writeBodyTooLarge(ctx context.Context, w http.ResponseWriter, operation string) {
	code := "PAYLOAD_TOO_LARGE"
	msg := errBodyTooLarge.Error()
	logFailure(ctx, operation, http.StatusRequestEntityTooLarge, code, msg, nil)
	respondError(w, http.StatusRequestEntityTooLarge, code, msg)
}
