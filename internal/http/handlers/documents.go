package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"docgen/internal/domain"
)

const defaultPageSize = 50

type documentDTO struct {
	ID                 int64           `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	ProjectID          int64           `json:"project_id"`
	TemplateID         *int64          `json:"template_id,omitempty"`
	CorrelationID      *uuid.UUID      `json:"correlation_id,omitempty"`
	Title              string          `json:"title"`
	DocumentType       string          `json:"document_type"`
	Status             string          `json:"status"`
	RequestedFormats   []string        `json:"requested_formats"`
	GenerationMetadata json.RawMessage `json:"generation_metadata,omitempty"`
	ErrorMessage       *string         `json:"error_message,omitempty"`
	RequestedBy        int64           `json:"requested_by"`
	StartedAt          *time.Time      `json:"started_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type artifactDTO struct {
	ID                  int64      `json:"id"`
	DocumentID          int64      `json:"document_id"`
	Format              string     `json:"format"`
	FileName            string     `json:"file_name"`
	StoragePath         string     `json:"storage_path"`
	FileSize            int64      `json:"file_size"`
	ContentType         string     `json:"content_type"`
	SHA256Checksum      string     `json:"sha256_checksum"`
	PageCount           *int32     `json:"page_count,omitempty"`
	RenderingDurationMs *int32     `json:"rendering_duration_ms,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ListDocuments returns one page of documents plus the total count under the
// same filter.
func (a *App) ListDocuments(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenantID(w, r)
	if !ok {
		return
	}

	filter := domain.DocumentFilter{}
	q := r.URL.Query()
	if v := q.Get("project_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			a.error(w, http.StatusBadRequest, "invalid project_id")
			return
		}
		filter.ProjectID = &id
	}
	if v := q.Get("document_type"); v != "" {
		filter.DocumentType = &v
	}
	if v := q.Get("status"); v != "" {
		status := domain.DocumentStatus(v)
		filter.Status = &status
	}

	page := parseIntDefault(q.Get("page"), 1)
	pageSize := parseIntDefault(q.Get("page_size"), defaultPageSize)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = defaultPageSize
	}
	filter.Limit = int64(pageSize)
	filter.Offset = int64(page-1) * int64(pageSize)

	docs, total, err := a.Documents.List(r.Context(), tenantID, filter)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: list documents failed")
		a.error(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	items := make([]documentDTO, 0, len(docs))
	for i := range docs {
		items = append(items, toDocumentDTO(&docs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetDocument returns a single document record.
func (a *App) GetDocument(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenantID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "documentID")
	if !ok {
		return
	}

	doc, err := a.Documents.GetByID(r.Context(), tenantID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "document not found")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: get document failed")
		a.error(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}
	a.json(w, http.StatusOK, toDocumentDTO(doc))
}

// ListArtifacts returns the artifact metadata rows of a document.
func (a *App) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenantID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "documentID")
	if !ok {
		return
	}

	artifacts, err := a.Artifacts.ListByDocument(r.Context(), tenantID, id)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: list artifacts failed")
		a.error(w, http.StatusInternalServerError, "failed to list artifacts")
		return
	}

	items := make([]artifactDTO, 0, len(artifacts))
	for i := range artifacts {
		items = append(items, toArtifactDTO(&artifacts[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// DownloadArtifact returns a time-limited signed link that forces an
// attachment download under the artifact's original file name.
func (a *App) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenantID(w, r)
	if !ok {
		return
	}
	artifactID, ok := a.pathID(w, r, "artifactID")
	if !ok {
		return
	}

	artifact, err := a.Artifacts.GetByID(r.Context(), tenantID, artifactID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "artifact not found")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: get artifact failed")
		a.error(w, http.StatusInternalServerError, "failed to fetch artifact")
		return
	}

	url, err := a.Links.SignedDownloadURL(artifact.StoragePath, artifact.FileName)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: sign download url failed")
		a.error(w, http.StatusInternalServerError, "failed to sign download url")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"url": url})
}

// DeleteDocument removes the document, its artifact rows, and best-effort
// the stored objects.
func (a *App) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenantID(w, r)
	if !ok {
		return
	}
	id, ok := a.pathID(w, r, "documentID")
	if !ok {
		return
	}

	if err := a.Remover.Delete(r.Context(), tenantID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "document not found")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: delete document failed")
		a.error(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) tenantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid tenant id")
		return uuid.Nil, false
	}
	return tenantID, true
}

func (a *App) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func parseIntDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func toDocumentDTO(doc *domain.Document) documentDTO {
	return documentDTO{
		ID:                 doc.ID,
		TenantID:           doc.TenantID,
		ProjectID:          doc.ProjectID,
		TemplateID:         doc.TemplateID,
		CorrelationID:      doc.CorrelationID,
		Title:              doc.Title,
		DocumentType:       string(doc.DocumentType),
		Status:             string(doc.Status),
		RequestedFormats:   doc.RequestedFormats,
		GenerationMetadata: doc.GenerationMetadata,
		ErrorMessage:       doc.ErrorMessage,
		RequestedBy:        doc.RequestedBy,
		StartedAt:          doc.StartedAt,
		CompletedAt:        doc.CompletedAt,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
}

func toArtifactDTO(artifact *domain.Artifact) artifactDTO {
	return artifactDTO{
		ID:                  artifact.ID,
		DocumentID:          artifact.DocumentID,
		Format:              artifact.Format,
		FileName:            artifact.FileName,
		StoragePath:         artifact.StoragePath,
		FileSize:            artifact.FileSize,
		ContentType:         artifact.ContentType,
		SHA256Checksum:      artifact.SHA256Checksum,
		PageCount:           artifact.PageCount,
		RenderingDurationMs: artifact.RenderingDurationMs,
		CreatedAt:           artifact.CreatedAt,
	}
}
