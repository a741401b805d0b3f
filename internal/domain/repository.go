package domain

import (
	"context"

	"github.com/google/uuid"
)

// CreateDocumentInput carries the fields required to create a document
// record. Status starts as queued.
type CreateDocumentInput struct {
	TenantID         uuid.UUID
	ProjectID        int64
	TemplateID       *int64
	CorrelationID    *uuid.UUID
	Title            string
	DocumentType     DocumentType
	RequestedFormats []string
	InputParams      []byte
	RequestedBy      int64
}

// CreateArtifactInput carries the fields for one artifact metadata row.
type CreateArtifactInput struct {
	TenantID            uuid.UUID
	DocumentID          int64
	Format              string
	FileName            string
	StoragePath         string
	FileSize            int64
	ContentType         string
	SHA256Checksum      string
	PageCount           *int32
	RenderingDurationMs *int32
}

// DocumentRepository defines persistence for document records. Every call is
// scoped to the tenant on the underlying connection before the query runs.
type DocumentRepository interface {
	Create(ctx context.Context, input CreateDocumentInput) (*Document, error)
	GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (*Document, error)
	// UpdateStatus performs the single conditional status write: started_at
	// and completed_at are set only when the new status implies them, and
	// errMsg/metadata only overwrite when non-nil.
	UpdateStatus(ctx context.Context, tenantID uuid.UUID, id int64, status DocumentStatus, errMsg *string, metadata []byte) (*Document, error)
	Delete(ctx context.Context, tenantID uuid.UUID, id int64) (bool, error)
	List(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) ([]Document, int64, error)
}

// ArtifactRepository defines persistence for artifact metadata rows.
type ArtifactRepository interface {
	Create(ctx context.Context, input CreateArtifactInput) (*Artifact, error)
	GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (*Artifact, error)
	ListByDocument(ctx context.Context, tenantID uuid.UUID, documentID int64) ([]Artifact, error)
	// DeleteByDocument removes all artifact rows for the document and returns
	// the object-store paths of the deleted rows.
	DeleteByDocument(ctx context.Context, tenantID uuid.UUID, documentID int64) ([]string, error)
}

// TemplateRepository resolves markup templates.
type TemplateRepository interface {
	GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (*Template, error)
	// GetDefault returns the most recently updated active template for the
	// (type, format) pair, preferring user templates over system ones.
	GetDefault(ctx context.Context, tenantID uuid.UUID, templateType, format string) (*Template, error)
}
