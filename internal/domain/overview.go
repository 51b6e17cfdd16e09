package domain

import "time"

// Counter names reported in the admin overview.
const (
	MetricAccounts          = "accounts"
	MetricAdminAccounts     = "adminAccounts"
	MetricActiveSessions    = "activeSessions"
	MetricWebhookEvents     = "webhookEventsAccepted"
	MetricCRMRecordsTracked = "crmRecordsTracked"
	MetricOutboxPending     = "outboxPending"
	MetricIncidents         = "incidents"
	MetricOpenIncidents     = "openIncidents"
	MetricAlerts            = "alerts"
	MetricCriticalAlerts    = "criticalAlerts"
	MetricDemoIntakes       = "demoIntakes"
)

// CRM sync states surfaced on the dashboard.
const (
	CRMSyncIdle   = "idle"
	CRMSyncActive = "synced"
)

type CRMSyncStatus struct {
	State          string           `json:"state"`
	LastEventAt    *time.Time       `json:"lastEventAt"`
	LastEventID    string           `json:"lastEventId,omitempty"`
	TrackedRecords int64            `json:"trackedRecords"`
	ByStatus       map[string]int64 `json:"byStatus"`
}

// OverviewSnapshot is recomputed on every admin overview request and never persisted.
type OverviewSnapshot struct {
	GeneratedAt   time.Time        `json:"generatedAt"`
	Counts        map[string]int64 `json:"counts"`
	CRMSyncStatus CRMSyncStatus    `json:"crmSyncStatus"`
}
