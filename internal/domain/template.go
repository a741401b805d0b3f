package domain

import (
	"time"

	"github.com/google/uuid"
)

// Template is a named, versioned markup template bound to a
// (document type, format) pair. Read-only from the pipeline's perspective.
type Template struct {
	ID              int64
	TenantID        uuid.UUID
	Name            string
	Description     *string
	TemplateType    string
	Format          string
	TemplateContent string
	SchemaVersion   string
	IsSystem        bool
	IsActive        bool
	CreatedBy       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
