package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docgen/internal/domain"
)

const templateColumns = `
id, tenant_id, name, description, template_type, format, template_content,
schema_version, is_system, is_active, created_by, created_at, updated_at`

// TemplateRepositoryPG implements domain.TemplateRepository. Templates are
// read-only from the pipeline's perspective.
type TemplateRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository constructs a new template repository instance.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepositoryPG {
	return &TemplateRepositoryPG{pool: pool}
}

// GetByID fetches an active template by its identifier.
func (r *TemplateRepositoryPG) GetByID(ctx context.Context, tenantID uuid.UUID, id int64) (*domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM document_templates WHERE id = $1 AND is_active = true;`

	var tpl *domain.Template
	err := withTenant(ctx, r.pool, tenantID, func(conn *pgxpool.Conn) error {
		var err error
		tpl, err = scanTemplate(conn.QueryRow(ctx, query, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTemplateNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// GetDefault returns the most recently updated active template for the
// (type, format) pair, preferring user templates over system ones.
func (r *TemplateRepositoryPG) GetDefault(ctx context.Context, tenantID uuid.UUID, templateType, format string) (*domain.Template, error) {
	query := `
SELECT ` + templateColumns + ` FROM document_templates
WHERE template_type = $1 AND format = $2 AND is_active = true
ORDER BY is_system ASC, updated_at DESC
LIMIT 1;
`
	var tpl *domain.Template
	err := withTenant(ctx, r.pool, tenantID, func(conn *pgxpool.Conn) error {
		var err error
		tpl, err = scanTemplate(conn.QueryRow(ctx, query, templateType, format))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTemplateNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var t domain.Template
	if err := row.Scan(
		&t.ID,
		&t.TenantID,
		&t.Name,
		&t.Description,
		&t.TemplateType,
		&t.Format,
		&t.TemplateContent,
		&t.SchemaVersion,
		&t.IsSystem,
		&t.IsActive,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
