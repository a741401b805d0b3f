package broker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docgen/internal/domain"
	"docgen/internal/pipeline"
)

// GenerationRequest is the inbound broker payload.
type GenerationRequest struct {
	TenantID         uuid.UUID       `json:"tenant_id"`
	ProjectID        int64           `json:"project_id"`
	TemplateID       *int64          `json:"template_id,omitempty"`
	CorrelationID    *uuid.UUID      `json:"correlation_id,omitempty"`
	Title            string          `json:"title"`
	DocumentType     string          `json:"document_type"`
	RequestedFormats []string        `json:"requested_formats"`
	InputParams      json.RawMessage `json:"input_params"`
	RequestedBy      int64           `json:"requested_by"`
}

// metadataEnvelope pulls the optional descriptive metadata block out of the
// otherwise opaque input params.
type metadataEnvelope struct {
	Metadata struct {
		ProjectName           string     `json:"project_name"`
		Version               string     `json:"version"`
		Author                string     `json:"author"`
		Organization          string     `json:"organization"`
		Classification        string     `json:"classification"`
		DistributionStatement string     `json:"distribution_statement"`
		GeneratedDate         *time.Time `json:"generated_date"`
	} `json:"metadata"`
}

// DecodeRequest parses and validates an inbound payload. The document type
// is checked against the closed enumeration here, at decode time; formats
// are validated later inside the render step, where an unknown tag is a hard
// job failure rather than a decode failure.
func DecodeRequest(payload []byte) (pipeline.Request, error) {
	var req GenerationRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return pipeline.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	if req.TenantID == uuid.Nil {
		return pipeline.Request{}, fmt.Errorf("%w: tenant_id is required", domain.ErrInvalidRequest)
	}
	if req.Title == "" {
		return pipeline.Request{}, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}
	if len(req.RequestedFormats) == 0 {
		return pipeline.Request{}, fmt.Errorf("%w: requested_formats must not be empty", domain.ErrInvalidRequest)
	}

	docType, err := domain.ParseDocumentType(req.DocumentType)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	return pipeline.Request{
		TenantID:         req.TenantID,
		ProjectID:        req.ProjectID,
		TemplateID:       req.TemplateID,
		CorrelationID:    req.CorrelationID,
		Title:            req.Title,
		DocumentType:     docType,
		RequestedFormats: req.RequestedFormats,
		InputParams:      req.InputParams,
		RequestedBy:      req.RequestedBy,
		Metadata:         extractMetadata(req),
	}, nil
}

func extractMetadata(req GenerationRequest) domain.DocumentMetadata {
	var envelope metadataEnvelope
	if len(req.InputParams) > 0 {
		// Best effort: the params are opaque, the metadata block optional.
		_ = json.Unmarshal(req.InputParams, &envelope)
	}

	meta := domain.DocumentMetadata{
		Title:                 req.Title,
		ProjectName:           envelope.Metadata.ProjectName,
		Version:               envelope.Metadata.Version,
		Author:                envelope.Metadata.Author,
		Organization:          envelope.Metadata.Organization,
		Classification:        envelope.Metadata.Classification,
		DistributionStatement: envelope.Metadata.DistributionStatement,
		GeneratedDate:         time.Now().UTC(),
	}
	if envelope.Metadata.GeneratedDate != nil {
		meta.GeneratedDate = *envelope.Metadata.GeneratedDate
	}
	if meta.Version == "" {
		meta.Version = "1.0"
	}
	return meta
}

// GeneratedDocument is one entry of the outbound event. This service always
// emits storage references; content_base64 exists for consumers of embedded
// payloads and stays unset here.
type GeneratedDocument struct {
	Format        string `json:"format"`
	FileName      string `json:"file_name,omitempty"`
	Reference     string `json:"reference,omitempty"`
	ContentBase64 string `json:"content_base64,omitempty"`
}

// GenerationResponse is the outbound broker payload.
type GenerationResponse struct {
	RequestID   string              `json:"request_id"`
	Status      string              `json:"status"`
	Documents   []GeneratedDocument `json:"documents"`
	Error       string              `json:"error,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// SuccessResponse builds a success outcome.
func SuccessResponse(requestID string, documents []GeneratedDocument) GenerationResponse {
	return GenerationResponse{
		RequestID:   requestID,
		Status:      "success",
		Documents:   documents,
		GeneratedAt: time.Now().UTC(),
	}
}

// ErrorResponse builds an error outcome with a human-readable message.
func ErrorResponse(requestID, message string) GenerationResponse {
	return GenerationResponse{
		RequestID:   requestID,
		Status:      "error",
		Documents:   []GeneratedDocument{},
		Error:       message,
		GeneratedAt: time.Now().UTC(),
	}
}
