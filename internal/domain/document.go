package domain

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus enumerates the document generation lifecycle states.
type DocumentStatus string

const (
	StatusQueued     DocumentStatus = "queued"
	StatusProcessing DocumentStatus = "processing"
	StatusRendering  DocumentStatus = "rendering"
	StatusUploading  DocumentStatus = "uploading"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// statusRank orders the forward-only progression. Terminal states have no
// successor.
var statusRank = map[DocumentStatus]int{
	StatusQueued:     0,
	StatusProcessing: 1,
	StatusRendering:  2,
	StatusUploading:  3,
	StatusCompleted:  4,
	StatusFailed:     4,
}

// IsTerminal reports whether no further status writes may occur.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a legal step of the
// state machine: one forward step at a time, with failed reachable from any
// non-terminal state past queued.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusFailed {
		return s == StatusProcessing || s == StatusRendering || s == StatusUploading
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to == from+1
}

// DocumentFormat enumerates supported output formats.
type DocumentFormat string

const (
	FormatMarkdown DocumentFormat = "markdown"
	FormatHTML     DocumentFormat = "html"
	FormatPDF      DocumentFormat = "pdf"
)

// ParseFormat validates a format tag from the wire.
func ParseFormat(s string) (DocumentFormat, error) {
	switch DocumentFormat(s) {
	case FormatMarkdown, FormatHTML, FormatPDF:
		return DocumentFormat(s), nil
	}
	return "", &UnsupportedFormatError{Format: s}
}

// DocumentType enumerates the closed set of specification and report types
// this service generates. New types are a new constant plus a case in the
// consumers, resolved at request decode time.
type DocumentType string

const (
	TypeIEEE830DRD            DocumentType = "ieee830_drd"
	TypeIEEE830SRS            DocumentType = "ieee830_srs"
	TypeMilStd498SRS          DocumentType = "milstd498_srs"
	TypeISO29148StakeholderRS DocumentType = "iso29148_stakeholder_requirements"
	TypeISO29148SystemRS      DocumentType = "iso29148_system_requirements"
	TypeISO29148SoftwareRS    DocumentType = "iso29148_software_requirements"
	TypeISO29148ConOps        DocumentType = "iso29148_concept_of_operations"
	TypeSecurityScanReport    DocumentType = "security_scan_report"
	TypeComplianceAuditReport DocumentType = "compliance_audit_report"
	TypeTestExecutionReport   DocumentType = "test_execution_report"
)

var documentTypes = map[DocumentType]struct{}{
	TypeIEEE830DRD:            {},
	TypeIEEE830SRS:            {},
	TypeMilStd498SRS:          {},
	TypeISO29148StakeholderRS: {},
	TypeISO29148SystemRS:      {},
	TypeISO29148SoftwareRS:    {},
	TypeISO29148ConOps:        {},
	TypeSecurityScanReport:    {},
	TypeComplianceAuditReport: {},
	TypeTestExecutionReport:   {},
}

// ParseDocumentType validates a document type tag from the wire.
func ParseDocumentType(s string) (DocumentType, error) {
	if _, ok := documentTypes[DocumentType(s)]; ok {
		return DocumentType(s), nil
	}
	return "", &UnsupportedTypeError{Type: s}
}

// Document is one requested document generation job.
type Document struct {
	ID                 int64
	TenantID           uuid.UUID
	ProjectID          int64
	TemplateID         *int64
	CorrelationID      *uuid.UUID
	Title              string
	DocumentType       DocumentType
	Status             DocumentStatus
	RequestedFormats   []string
	InputParams        []byte
	GenerationMetadata []byte
	ErrorMessage       *string
	RequestedBy        int64
	StartedAt          *time.Time
	CompletedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Artifact is one rendered, uploaded file belonging to a document.
type Artifact struct {
	ID                  int64
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
	CreatedAt           time.Time
}

// GenerationMetadata summarizes a completed generation run. Stored as JSON on
// the document record.
type GenerationMetadata struct {
	RenderingEngine  string    `json:"rendering_engine"`
	TemplateEngine   string    `json:"template_engine"`
	FormatsGenerated []string  `json:"formats_generated"`
	TotalSizeBytes   int64     `json:"total_size_bytes"`
	CompletedAt      time.Time `json:"completed_at"`
}

// DocumentMetadata carries the descriptive fields embedded into rendered
// output (front matter, compiler variables). Extracted from the request at
// decode time.
type DocumentMetadata struct {
	Title                 string    `json:"title"`
	ProjectName           string    `json:"project_name"`
	Version               string    `json:"version"`
	Author                string    `json:"author"`
	Organization          string    `json:"organization"`
	Classification        string    `json:"classification,omitempty"`
	DistributionStatement string    `json:"distribution_statement,omitempty"`
	GeneratedDate         time.Time `json:"generated_date"`
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	ProjectID    *int64
	DocumentType *string
	Status       *DocumentStatus
	Limit        int64
	Offset       int64
}
