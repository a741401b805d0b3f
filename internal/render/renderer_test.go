package render

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"docgen/internal/domain"
)

type fakeCompiler struct {
	html    []byte
	pdf     []byte
	htmlErr error
	pdfErr  error
	gotOpts CompileOptions
	gotSrc  string
}

func (c *fakeCompiler) CompileHTML(_ context.Context, markdown string, opts CompileOptions) ([]byte, error) {
	c.gotSrc = markdown
	c.gotOpts = opts
	return c.html, c.htmlErr
}

func (c *fakeCompiler) CompilePDF(_ context.Context, markdown string, opts CompileOptions) ([]byte, error) {
	c.gotSrc = markdown
	c.gotOpts = opts
	return c.pdf, c.pdfErr
}

func testTemplate() *domain.Template {
	return &domain.Template{
		ID:              1,
		Name:            "srs",
		TemplateType:    "ieee830_srs",
		Format:          "pdf",
		TemplateContent: "# {{title}}\n\n{{summary}}",
		SchemaVersion:   "1.0",
	}
}

func testMetadata() domain.DocumentMetadata {
	return domain.DocumentMetadata{
		Title:         "Flight SRS",
		ProjectName:   "Avionics",
		Version:       "2.1",
		Author:        "QA Team",
		Organization:  "Acme",
		GeneratedDate: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func newTestRenderer(compiler Compiler) *Renderer {
	r := NewRenderer(NewTemplateCache(), compiler, zerolog.Nop())
	r.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return r
}

func TestRenderMarkdownFrontMatter(t *testing.T) {
	r := newTestRenderer(&fakeCompiler{})

	files, err := r.Render(context.Background(), testTemplate(), []byte(`{"title":"Flight SRS","summary":"ok"}`), testMetadata(), []string{"markdown"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}

	f := files[0]
	if f.Format != "markdown" {
		t.Fatalf("format = %q", f.Format)
	}
	if f.ContentType != "text/markdown; charset=utf-8" {
		t.Fatalf("content type = %q", f.ContentType)
	}
	if f.FileName != "Flight_SRS_20260314_093000.md" {
		t.Fatalf("file name = %q", f.FileName)
	}

	body := string(f.Data)
	if !strings.HasPrefix(body, "---\n") {
		t.Fatalf("missing front matter: %q", body[:20])
	}
	for _, want := range []string{
		"title: Flight SRS",
		"author: QA Team",
		"version: 2.1",
		"project: Avionics",
		"organization: Acme",
		"date: 2026-03-14",
		"# Flight SRS",
		"ok",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderCompiledFormats(t *testing.T) {
	compiler := &fakeCompiler{
		html: []byte("<html>doc</html>"),
		pdf:  []byte("%PDF-1.7"),
	}
	r := newTestRenderer(compiler)

	files, err := r.Render(context.Background(), testTemplate(), []byte(`{"title":"Flight SRS"}`), testMetadata(), []string{"html", "pdf"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}

	if files[0].ContentType != "text/html; charset=utf-8" || string(files[0].Data) != "<html>doc</html>" {
		t.Fatalf("html file = %+v", files[0])
	}
	if files[1].ContentType != "application/pdf" || string(files[1].Data) != "%PDF-1.7" {
		t.Fatalf("pdf file = %+v", files[1])
	}

	// The compiler receives the expanded markup, not the raw template.
	if !strings.Contains(compiler.gotSrc, "# Flight SRS") {
		t.Fatalf("compiler source = %q", compiler.gotSrc)
	}
	if compiler.gotOpts.Title != "Flight SRS" {
		t.Fatalf("compile title = %q", compiler.gotOpts.Title)
	}
	if compiler.gotOpts.Date != "March 14, 2026" {
		t.Fatalf("compile date = %q", compiler.gotOpts.Date)
	}
}

func TestRenderUnknownFormatFailsWholeCall(t *testing.T) {
	r := newTestRenderer(&fakeCompiler{})

	_, err := r.Render(context.Background(), testTemplate(), nil, testMetadata(), []string{"markdown", "docx"})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	var unsupported *domain.UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want UnsupportedFormatError", err)
	}
}

func TestRenderCompilerErrorPropagates(t *testing.T) {
	r := newTestRenderer(&fakeCompiler{pdfErr: errors.New("xelatex not found")})

	_, err := r.Render(context.Background(), testTemplate(), nil, testMetadata(), []string{"pdf"})
	if err == nil || !strings.Contains(err.Error(), "xelatex not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderBadInputParams(t *testing.T) {
	r := newTestRenderer(&fakeCompiler{})

	_, err := r.Render(context.Background(), testTemplate(), []byte("{not json"), testMetadata(), []string{"markdown"})
	if err == nil {
		t.Fatal("expected decode error")
	}
}
