package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docgen/internal/domain"
	"docgen/internal/render"
	"docgen/internal/storage"
)

// defaultTemplateFormat is the primary target used when resolving a default
// template by (type, format).
const defaultTemplateFormat = "pdf"

// Request is a validated document generation request. Document type and
// formats were already checked against the closed sets at decode time.
type Request struct {
	TenantID         uuid.UUID
	ProjectID        int64
	TemplateID       *int64
	CorrelationID    *uuid.UUID
	Title            string
	DocumentType     domain.DocumentType
	RequestedFormats []string
	InputParams      json.RawMessage
	RequestedBy      int64
	Metadata         domain.DocumentMetadata
}

// Result is the terminal outcome of one processed request: the document in
// its final state plus the artifact rows created for it (empty when the job
// failed).
type Result struct {
	Document  *domain.Document
	Artifacts []domain.Artifact
}

// ArtifactStore is the slice of the object store the pipeline needs.
type ArtifactStore interface {
	UploadAll(ctx context.Context, tenantID uuid.UUID, projectID, documentID int64, files []render.File) ([]storage.UploadResult, error)
	DeleteAll(ctx context.Context, paths []string)
}

// DocumentRenderer is the slice of the renderer the pipeline needs.
type DocumentRenderer interface {
	Render(ctx context.Context, tpl *domain.Template, inputParams []byte, meta domain.DocumentMetadata, formats []string) ([]render.File, error)
}

// Pipeline orchestrates the document generation lifecycle:
// create record → resolve template → render → upload → persist artifacts →
// mark complete. Stage transitions within one job are strictly sequential;
// independent jobs run concurrently against the same Pipeline value.
type Pipeline struct {
	documents domain.DocumentRepository
	artifacts domain.ArtifactRepository
	templates domain.TemplateRepository
	store     ArtifactStore
	renderer  DocumentRenderer
	logger    zerolog.Logger
}

// New wires a pipeline from its collaborators.
func New(
	documents domain.DocumentRepository,
	artifacts domain.ArtifactRepository,
	templates domain.TemplateRepository,
	store ArtifactStore,
	renderer DocumentRenderer,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		documents: documents,
		artifacts: artifacts,
		templates: templates,
		store:     store,
		renderer:  renderer,
		logger:    logger,
	}
}

// Process runs one request to a terminal state. A returned error means the
// job's own state could not be durably recorded and the inbound message must
// not be acknowledged. A job that fails for business reasons (missing
// template, render or upload error) comes back as a failed record with a nil
// error: that is a terminal, acknowledged outcome, not a retry condition.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	logger := p.logger.With().
		Str("tenant_id", req.TenantID.String()).
		Int64("project_id", req.ProjectID).
		Str("document_type", string(req.DocumentType)).
		Logger()

	// 1. Insert the document record as queued. Without a record there is
	// nothing to fail against, so this error propagates.
	doc, err := p.documents.Create(ctx, domain.CreateDocumentInput{
		TenantID:         req.TenantID,
		ProjectID:        req.ProjectID,
		TemplateID:       req.TemplateID,
		CorrelationID:    req.CorrelationID,
		Title:            req.Title,
		DocumentType:     req.DocumentType,
		RequestedFormats: req.RequestedFormats,
		InputParams:      req.InputParams,
		RequestedBy:      req.RequestedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}
	logger = logger.With().Int64("document_id", doc.ID).Logger()
	logger.Info().Msg("pipeline: created document record")

	// 2. Transition to processing.
	if _, err := p.documents.UpdateStatus(ctx, req.TenantID, doc.ID, domain.StatusProcessing, nil, nil); err != nil {
		return nil, fmt.Errorf("transition to processing: %w", err)
	}

	// 3. Resolve the template: explicit id, else the default for the
	// document type. Not found fails the job, not the call.
	tpl, err := p.resolveTemplate(ctx, req)
	if err != nil {
		return p.fail(ctx, req.TenantID, doc.ID, logger, fmt.Sprintf("Template resolution failed: %v", err))
	}

	// 4. Render every requested format. Any error fails the whole job.
	if _, err := p.documents.UpdateStatus(ctx, req.TenantID, doc.ID, domain.StatusRendering, nil, nil); err != nil {
		return nil, fmt.Errorf("transition to rendering: %w", err)
	}
	files, err := p.renderer.Render(ctx, tpl, req.InputParams, req.Metadata, req.RequestedFormats)
	if err != nil {
		return p.fail(ctx, req.TenantID, doc.ID, logger, fmt.Sprintf("Rendering failed: %v", err))
	}

	// 5. Upload all rendered artifacts, all-or-nothing.
	if _, err := p.documents.UpdateStatus(ctx, req.TenantID, doc.ID, domain.StatusUploading, nil, nil); err != nil {
		return nil, fmt.Errorf("transition to uploading: %w", err)
	}
	uploads, err := p.store.UploadAll(ctx, req.TenantID, req.ProjectID, doc.ID, files)
	if err != nil {
		return p.fail(ctx, req.TenantID, doc.ID, logger, fmt.Sprintf("Artifact upload failed: %v", err))
	}

	// 6. Persist one artifact metadata row per uploaded file.
	created := make([]domain.Artifact, 0, len(uploads))
	for _, upload := range uploads {
		duration := upload.RenderingDurationMs
		artifact, err := p.artifacts.Create(ctx, domain.CreateArtifactInput{
			TenantID:            req.TenantID,
			DocumentID:          doc.ID,
			Format:              upload.Format,
			FileName:            upload.FileName,
			StoragePath:         upload.StoragePath,
			FileSize:            upload.FileSize,
			ContentType:         upload.ContentType,
			SHA256Checksum:      upload.SHA256Checksum,
			PageCount:           upload.PageCount,
			RenderingDurationMs: &duration,
		})
		if err != nil {
			return nil, fmt.Errorf("persist artifact metadata for %s: %w", upload.Format, err)
		}
		created = append(created, *artifact)
	}

	// 7+8. Attach generation metadata and mark completed.
	metadata, err := json.Marshal(p.generationMetadata(uploads))
	if err != nil {
		return nil, fmt.Errorf("encode generation metadata: %w", err)
	}
	completed, err := p.documents.UpdateStatus(ctx, req.TenantID, doc.ID, domain.StatusCompleted, nil, metadata)
	if err != nil {
		return nil, fmt.Errorf("transition to completed: %w", err)
	}

	logger.Info().Int("artifacts", len(created)).Msg("pipeline: document generation completed")
	return &Result{Document: completed, Artifacts: created}, nil
}

// Delete removes a document, its artifact rows, and best-effort its stored
// objects. Object deletion never blocks the database deletion.
func (p *Pipeline) Delete(ctx context.Context, tenantID uuid.UUID, documentID int64) error {
	paths, err := p.artifacts.DeleteByDocument(ctx, tenantID, documentID)
	if err != nil {
		return fmt.Errorf("delete artifact rows: %w", err)
	}
	deleted, err := p.documents.Delete(ctx, tenantID, documentID)
	if err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	if !deleted {
		return domain.ErrNotFound
	}
	p.store.DeleteAll(ctx, paths)
	return nil
}

func (p *Pipeline) resolveTemplate(ctx context.Context, req Request) (*domain.Template, error) {
	if req.TemplateID != nil {
		return p.templates.GetByID(ctx, req.TenantID, *req.TemplateID)
	}
	return p.templates.GetDefault(ctx, req.TenantID, string(req.DocumentType), defaultTemplateFormat)
}

// fail marks the job failed with the given message. The returned error only
// reports that the failure itself could not be recorded.
func (p *Pipeline) fail(ctx context.Context, tenantID uuid.UUID, documentID int64, logger zerolog.Logger, message string) (*Result, error) {
	logger.Error().Str("error_message", message).Msg("pipeline: job failed")
	failed, err := p.documents.UpdateStatus(ctx, tenantID, documentID, domain.StatusFailed, &message, nil)
	if err != nil {
		return nil, fmt.Errorf("record job failure: %w", err)
	}
	return &Result{Document: failed}, nil
}

func (p *Pipeline) generationMetadata(uploads []storage.UploadResult) domain.GenerationMetadata {
	formats := make([]string, 0, len(uploads))
	var total int64
	for _, upload := range uploads {
		formats = append(formats, upload.Format)
		total += upload.FileSize
	}
	return domain.GenerationMetadata{
		RenderingEngine:  render.RenderingEngine,
		TemplateEngine:   render.TemplateEngine,
		FormatsGenerated: formats,
		TotalSizeBytes:   total,
		CompletedAt:      time.Now().UTC(),
	}
}
