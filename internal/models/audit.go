package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction is the closed set of actions recorded in the audit log.
type AuditAction string

const (
	ActionCreate   AuditAction = "create"
	ActionUpdate   AuditAction = "update"
	ActionDelete   AuditAction = "delete"
	ActionLogin    AuditAction = "login"
	ActionLogout   AuditAction = "logout"
	ActionView     AuditAction = "view"
	ActionDownload AuditAction = "download"
	ActionUpload   AuditAction = "upload"
	ActionArchive  AuditAction = "archive"
)

var auditActions = map[AuditAction]bool{
	ActionCreate:   true,
	ActionUpdate:   true,
	ActionDelete:   true,
	ActionLogin:    true,
	ActionLogout:   true,
	ActionView:     true,
	ActionDownload: true,
	ActionUpload:   true,
	ActionArchive:  true,
}

// Valid reports whether a is a recognized audit action.
func (a AuditAction) Valid() bool {
	return auditActions[a]
}

// AuditResourceType is the closed set of resource kinds an audit record can reference.
type AuditResourceType string

const (
	ResourceProgram        AuditResourceType = "program"
	ResourceEvent          AuditResourceType = "event"
	ResourceResource       AuditResourceType = "resource"
	ResourceBlogPost       AuditResourceType = "blog_post"
	ResourceGalleryItem    AuditResourceType = "gallery_item"
	ResourcePartner        AuditResourceType = "partner"
	ResourceImpactStat     AuditResourceType = "impact_stat"
	ResourceUser           AuditResourceType = "user"
	ResourceRole           AuditResourceType = "role"
	ResourcePermission     AuditResourceType = "permission"
	ResourceSetting        AuditResourceType = "setting"
	ResourceAuditLog       AuditResourceType = "audit_log"
	ResourceContactMessage AuditResourceType = "contact_message"
)

var auditResourceTypes = map[AuditResourceType]bool{
	ResourceProgram:        true,
	ResourceEvent:          true,
	ResourceResource:       true,
	ResourceBlogPost:       true,
	ResourceGalleryItem:    true,
	ResourcePartner:        true,
	ResourceImpactStat:     true,
	ResourceUser:           true,
	ResourceRole:           true,
	ResourcePermission:     true,
	ResourceSetting:        true,
	ResourceAuditLog:       true,
	ResourceContactMessage: true,
}

// Valid reports whether t is a recognized resource type.
func (t AuditResourceType) Valid() bool {
	return auditResourceTypes[t]
}

// AuditRecord is one immutable audit log row. Records are never updated or
// deleted by application code; only the archival job relocates them.
// CreatedAt is assigned by the database at insert time, never by callers.
type AuditRecord struct {
	ID           uuid.UUID         `json:"id"`
	AdminID      *uuid.UUID        `json:"admin_id,omitempty"` // nil for system actions
	Action       AuditAction       `json:"action"`
	ResourceType AuditResourceType `json:"resource_type"`
	ResourceID   string            `json:"resource_id,omitempty"`
	PreviousData json.RawMessage   `json:"previous_data,omitempty"`
	NewData      json.RawMessage   `json:"new_data,omitempty"`
	IPAddress    string            `json:"ip_address"`
	UserAgent    string            `json:"user_agent"`
	CreatedAt    time.Time         `json:"created_at"`

	// Joined actor identity (admins table); empty for system records.
	AdminName  string `json:"admin_name,omitempty"`
	AdminEmail string `json:"admin_email,omitempty"`

	// Client is a humanized rendering of UserAgent, filled by the handler layer.
	Client string `json:"client,omitempty"`
}
