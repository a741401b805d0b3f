package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from DocumentStatus
		to   DocumentStatus
		want bool
	}{
		{"queued to processing", StatusQueued, StatusProcessing, true},
		{"processing to rendering", StatusProcessing, StatusRendering, true},
		{"rendering to uploading", StatusRendering, StatusUploading, true},
		{"uploading to completed", StatusUploading, StatusCompleted, true},
		{"processing to failed", StatusProcessing, StatusFailed, true},
		{"rendering to failed", StatusRendering, StatusFailed, true},
		{"uploading to failed", StatusUploading, StatusFailed, true},
		{"queued to failed", StatusQueued, StatusFailed, false},
		{"queued skips to rendering", StatusQueued, StatusRendering, false},
		{"processing skips to uploading", StatusProcessing, StatusUploading, false},
		{"completed is terminal", StatusCompleted, StatusFailed, false},
		{"failed is terminal", StatusFailed, StatusProcessing, false},
		{"no repeat", StatusRendering, StatusRendering, false},
		{"no backward", StatusUploading, StatusRendering, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []DocumentStatus{StatusQueued, StatusProcessing, StatusRendering, StatusUploading} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	for _, s := range []DocumentStatus{StatusCompleted, StatusFailed} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"markdown", "html", "pdf"} {
		if _, err := ParseFormat(valid); err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", valid, err)
		}
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Error("ParseFormat(docx) should fail")
	}
}

func TestParseDocumentType(t *testing.T) {
	if _, err := ParseDocumentType("iso29148_software_requirements"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseDocumentType("shopping_list"); err == nil {
		t.Fatal("unknown document type should fail")
	}
}
