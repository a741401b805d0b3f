package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docgen/internal/domain"
)

const documentColumns = `
id, tenant_id, project_id, template_id, correlation_id, title, document_type,
status, requested_formats, input_params, generation_metadata, error_message,
requested_by, started_at, completed_at, created_at, updated_at`

// DocumentRepositoryPG implements domain.DocumentRepository.
type DocumentRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository backed by PostgreSQL.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepositoryPG {
	return &DocumentRepositoryPG{pool: pool}
}

// Create inserts a new document record with status queued.
func (r *DocumentRepositoryPG) Create(ctx context.Context, input domain.CreateDocumentInput) (*domain.Document, error) {
	query := `
INSERT INTO generated_documents (
    tenant_id, project_id, template_id, correlation_id,
    title, document_type, status, requested_formats,
    input_params, requested_by
)
VALUES ($1, $2, $3, $4, $5, $6, 'queued', $7, $8, $9)
RETURNING ` + documentColumns + `;
`
	var doc *domain.Document
	err := withTenant(ctx, r.pool, input.TenantID, func(conn *pgxpool.Conn) error {
		row := conn.QueryRow(ctx, query,
			input.TenantID,
			input.ProjectID,
			input.TemplateID,
			input.CorrelationID,
			input.Title,
			string(input.DocumentType),
			input.RequestedFormats,
			input.InputParams,
			input.RequestedBy,
		)
		var err error
		doc, err = scanDocument(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByID fetches a document by its identifier.
func (r *DocumentRepositoryPG) GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM generated_documents WHERE id = $1;`

	var doc *domain.Document
	err := withTenant(ctx, r.pool, tenantID, func(conn *pgxpool.Conn) error {
		row := conn.QueryRow(ctx, query, id)
		var err error
		doc, err = scanDocument(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateStatus performs the single conditional status write. started_at and
// completed_at are only stamped when the new status implies them; error and
// metadata only overwrite when a new value is supplied.
func (r *DocumentRepositoryPG) UpdateStatus(ctx context.Context, tenantID uuid.UUID, id int64, status domain.DocumentStatus, errMsg *string, metadata []byte) (*domain.Document, error) {
	now := time.Now().UTC()
	var startedAt, completedAt *time.Time
	if status == domain.StatusProcessing {
		startedAt = &now
	}
	if status.IsTerminal() {
		completedAt = &now
	}

	query := `
UPDATE generated_documents
SET status = $1,
    error_message = COALESCE($2, error_message),
    generation_metadata = COALESCE($3, generation_metadata),
    started_at = COALESCE($4, started_at),
    completed_at = COALESCE($5, completed_at),
    updated_at = NOW()
WHERE id = $6
RETURNING ` + documentColumns + `;
`
	var doc *domain.Document
	err := withTenant(ctx, r.pool, tenantID, func(conn *pgxpool.Conn) error {
		row := conn.QueryRow(ctx, query, string(status), errMsg, nullableBytes(metadata), startedAt, completedAt, id)
		var err error
		doc, err = scanDocument(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a document record. Artifact rows cascade at the schema
// level; object-store cleanup is the caller's concern.
func (r *DocumentRepositoryPG) Delete(ctx context.Context, tenantID uuid.UUID, id int64) (bool, error) {
	var deleted bool
	err := withTenant(ctx, r.pool, tenantID, func(conn *pgxpool.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM generated_documents WHERE id = $1;`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	return deleted, err
}

// List returns one page of documents matching the filter plus the total
// count under the same filter.
func (r *DocumentRepositoryPG) List(ctx context.Context, tenantID uuid.UUID, filter domain.DocumentFilter) ([]domain.Document, int64, error) {
	countQuery := `
SELECT COUNT(*) FROM generated_documents
WHERE ($1::bigint IS NULL OR project_id = $1)
  AND ($2::text IS NULL OR document_type = $2)
  AND ($3::text IS NULL OR status = $3);
`
	pageQuery := `
SELECT ` + documentColumns + ` FROM generated_documents
WHERE ($1::bigint IS NULL OR project_id = $1)
  AND ($2::text IS NULL OR document_type = $2)
  AND ($3::text IS NULL OR status = $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5;
`
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	var docs []domain.Document
	var total int64
	err := withTenant(ctx, r.pool, tenantID, func(conn *pgxpool.Conn) error {
		if err := conn.QueryRow(ctx, countQuery, filter.ProjectID, filter.DocumentType, statusFilter).Scan(&total); err != nil {
			return err
		}

		rows, err := conn.Query(ctx, pageQuery, filter.ProjectID, filter.DocumentType, statusFilter, limit, filter.Offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			doc, err := scanDocument(rows)
			if err != nil {
				return err
			}
			docs = append(docs, *doc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	var docType, status string
	if err := row.Scan(
		&doc.ID,
		&doc.TenantID,
		&doc.ProjectID,
		&doc.TemplateID,
		&doc.CorrelationID,
		&doc.Title,
		&docType,
		&status,
		&doc.RequestedFormats,
		&doc.InputParams,
		&doc.GenerationMetadata,
		&doc.ErrorMessage,
		&doc.RequestedBy,
		&doc.StartedAt,
		&doc.CompletedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	doc.DocumentType = domain.DocumentType(docType)
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
