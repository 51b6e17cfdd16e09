package domain

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Incident is a security incident shown on the public status feed.
type Incident struct {
	ID            string    `json:"id"`
	Severity      string    `json:"severity"`
	Status        string    `json:"status"`
	Title         string    `json:"title"`
	AffectedAsset string    `json:"affectedAsset"`
	DetectedAt    time.Time `json:"detectedAt"`
}

// Open reports whether the incident still needs attention.
func (i Incident) Open() bool {
	switch i.Status {
	case "resolved", "closed":
		return false
	default:
		return true
	}
}

// Alert is a detection alert shown on the public alert feed.
type Alert struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Source    string    `json:"source"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

const AlertLevelCritical = "critical"

// DemoIntakeRequest is the raw demo request submitted from the marketing site.
type DemoIntakeRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Size     string `json:"size"`
	Message  string `json:"message"`
}

// DemoIntake is a validated, sanitised demo request.
type DemoIntake struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Size      string    `json:"size"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// SiteCounts are the marketing-site figures read by the admin overview.
type SiteCounts struct {
	Incidents      int64
	OpenIncidents  int64
	Alerts         int64
	CriticalAlerts int64
	DemoIntakes    int64
}

var companySizes = map[string]struct{}{
	"1-25":    {},
	"26-100":  {},
	"101-500": {},
	"500+":    {},
}

// FieldIssue names one rejected request field.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field issue found in a request. It matches
// ErrInvalidInput under errors.Is.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string { return "validation failed" }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func (e *ValidationError) add(field, message string) {
	e.Issues = append(e.Issues, FieldIssue{Field: field, Message: message})
}

func checkLength(verr *ValidationError, field, value string, lo, hi int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n < lo:
		verr.add(field, "must be at least "+strconv.Itoa(lo)+" characters")
	case n > hi:
		verr.add(field, "must be at most "+strconv.Itoa(hi)+" characters")
	}
}

// NewDemoIntake validates req and returns the sanitised intake. Lengths are
// checked on the submitted values; free text is sanitised afterwards.
func NewDemoIntake(req DemoIntakeRequest, now time.Time) (DemoIntake, error) {
	verr := &ValidationError{}
	checkLength(verr, "fullName", req.FullName, 2, 120)
	checkLength(verr, "company", req.Company, 2, 160)
	checkLength(verr, "message", req.Message, 10, 2000)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if utf8.RuneCountInString(req.Email) > 160 {
		verr.add("email", "must be at most 160 characters")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.add("email", "invalid email")
	}
	if _, ok := companySizes[req.Size]; !ok {
		verr.add("size", "must be one of 1-25, 26-100, 101-500, 500+")
	}
	if len(verr.Issues) > 0 {
		return DemoIntake{}, verr
	}

	return DemoIntake{
		ID:        uuid.New(),
		FullName:  SanitizeText(req.FullName),
		Email:     email,
		Company:   SanitizeText(req.Company),
		Size:      req.Size,
		Message:   SanitizeText(req.Message),
		CreatedAt: now,
	}, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeText strips angle brackets and collapses whitespace.
func SanitizeText(value string) string {
	value = strings.NewReplacer("<", "", ">", "").Replace(value)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
}
