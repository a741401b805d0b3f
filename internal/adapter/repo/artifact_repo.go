package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docgen/internal/domain"
)

const artifactColumns = `
id, tenant_id, document_id, format, file_name, storage_path, file_size,
content_type, sha256_checksum, page_count, rendering_duration_ms, created_at`

// ArtifactRepositoryPG implements domain.ArtifactRepository.
type ArtifactRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewArtifactRepository constructs a new artifact repository instance.
func NewArtifactRepository(pool *pgxpool.Pool) *ArtifactRepositoryPG {
	return &ArtifactRepositoryPG{pool: pool}
}

// Create inserts one artifact metadata row. Artifacts are immutable once
// written.
func (r *ArtifactRepositoryPG) Create(ctx context.Context, input domain.CreateArtifactInput) (*domain.Artifact, error) {
	query := `
INSERT INTO generated_document_artifacts (
    tenant_id, document_id, format, file_name, storage_path,
    file_size, content_type, sha256_checksum, page_count,
    rendering_duration_ms
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + artifactColumns + `;
`
	var artifact *domain.Artifact
	err := withTenant(ctx, r.pool, input.TenantID, func(conn *pgxpool.Conn) error {
		row := conn.QueryRow(ctx, query,
			input.TenantID,
			input.DocumentID,
			input.Format,
			input.FileName,
			input.StoragePath,
			input.FileSize,
			input.ContentType,
			input.SHA256Checksum,
			input.PageCount,
			input.RenderingDurationMs,
		)
		var err error
		artifact, err = scanArtifact(row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// GetByID fetches a single artifact.
func (r *ArtifactRepositoryPG) GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (*domain.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM generated_document_artifacts WHERE id = $1;`

	var artifact *domain.Artifact
	err := withTenant(ctx, r.pool, tenantID, func(conn *pgxpool.Conn) error {
		var err error
		artifact, err = scanArtifact(conn.QueryRow(ctx, query, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// ListByDocument returns all artifacts belonging to the document.
func (r *ArtifactRepositoryPG) ListByDocument(ctx context.Context, tenantID uuid.UUID, documentID int64) ([]domain.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM generated_document_artifacts WHERE document_id = $1 ORDER BY format;`

	var artifacts []domain.Artifact
	err := withTenant(ctx, r.pool, tenantID, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, documentID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			artifact, err := scanArtifact(rows)
			if err != nil {
				return err
			}
			artifacts = append(artifacts, *artifact)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

// DeleteByDocument removes all artifact rows for the document, returning the
// object-store paths so the caller can clean up storage afterwards.
func (r *ArtifactRepositoryPG) DeleteByDocument(ctx context.Context, tenantID uuid.UUID, documentID int64) ([]string, error) {
	query := `DELETE FROM generated_document_artifacts WHERE document_id = $1 RETURNING storage_path;`

	var paths []string
	err := withTenant(ctx, r.pool, tenantID, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, query, documentID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var path string
			if err := rows.Scan(&path); err != nil {
				return err
			}
			paths = append(paths, path)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func scanArtifact(row pgx.Row) (*domain.Artifact, error) {
	var a domain.Artifact
	if err := row.Scan(
		&a.ID,
		&a.TenantID,
		&a.DocumentID,
		&a.Format,
		&a.FileName,
		&a.StoragePath,
		&a.FileSize,
		&a.ContentType,
		&a.SHA256Checksum,
		&a.PageCount,
		&a.RenderingDurationMs,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
