package domain

import "time"

// AuditEvent is one entry of a category's audit trail.
type AuditEvent struct {
	Time     time.Time `json:"time"`
	Category string    `json:"category"`
	Kind     string    `json:"kind"`   // "category", "link", "security"
	Action   string    `json:"action"` // "saved", "loaded", "invalid password", ...
	Details  string    `json:"details,omitempty"`
}

// Audit kinds and actions recorded by the engine.
const (
	AuditKindCategory = "category"
	AuditKindLink     = "link"
	AuditKindSecurity = "security"

	AuditSaved           = "saved"
	AuditLoaded          = "loaded"
	AuditInvalidPassword = "invalid password"
	AuditCatalogCreated  = "catalog created"
	AuditCatalogRefresh  = "catalog refreshed"
	AuditManualBackup    = "manual backup"
	AuditUnlocked        = "unlocked"
	AuditLocked          = "locked"
)
