package render

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"docgen/internal/domain"
)

// Engine identifiers recorded in generation metadata.
const (
	RenderingEngine = "pandoc-xelatex"
	TemplateEngine  = "handlebars"
)

// Renderer turns one resolved template plus input data into bytes for each
// requested output format. Markup expansion happens once per job; each
// format then emits or compiles that intermediate representation.
type Renderer struct {
	templates *TemplateCache
	compiler  Compiler
	logger    zerolog.Logger
	now       func() time.Time
}

// NewRenderer wires a renderer from its collaborators.
func NewRenderer(templates *TemplateCache, compiler Compiler, logger zerolog.Logger) *Renderer {
	return &Renderer{
		templates: templates,
		compiler:  compiler,
		logger:    logger,
		now:       time.Now,
	}
}

// Render produces one File per requested format. Any failure, including an
// unsupported format tag, fails the whole call.
func (r *Renderer) Render(ctx context.Context, tpl *domain.Template, inputParams []byte, meta domain.DocumentMetadata, formats []string) ([]File, error) {
	data := map[string]any{}
	if len(inputParams) > 0 {
		if err := json.Unmarshal(inputParams, &data); err != nil {
			return nil, fmt.Errorf("decode input params: %w", err)
		}
	}

	markdown, err := r.templates.Expand(tpl, data)
	if err != nil {
		return nil, err
	}

	opts := CompileOptions{
		Title:          meta.Title,
		Author:         meta.Author,
		Date:           meta.GeneratedDate.Format("January 2, 2006"),
		Classification: meta.Classification,
	}

	files := make([]File, 0, len(formats))
	for _, tag := range formats {
		format, err := domain.ParseFormat(tag)
		if err != nil {
			return nil, err
		}

		start := r.now()
		var (
			data        []byte
			contentType string
			extension   string
		)
		switch format {
		case domain.FormatMarkdown:
			data = []byte(frontMatter(meta) + markdown)
			contentType = "text/markdown; charset=utf-8"
			extension = "md"
		case domain.FormatHTML:
			data, err = r.compiler.CompileHTML(ctx, markdown, opts)
			contentType = "text/html; charset=utf-8"
			extension = "html"
		case domain.FormatPDF:
			data, err = r.compiler.CompilePDF(ctx, markdown, opts)
			contentType = "application/pdf"
			extension = "pdf"
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}

		now := r.now()
		files = append(files, File{
			Format:              string(format),
			ContentType:         contentType,
			FileName:            fileName(meta.Title, now, extension),
			Data:                data,
			RenderingDurationMs: int32(now.Sub(start).Milliseconds()),
		})

		r.logger.Debug().
			Str("format", string(format)).
			Int("size_bytes", len(data)).
			Msg("render: format produced")
	}

	return files, nil
}

// frontMatter emits the machine-readable YAML header embedded into markdown
// output.
func frontMatter(meta domain.DocumentMetadata) string {
	return fmt.Sprintf(
		"---\ntitle: %s\nauthor: %s\nversion: %s\nproject: %s\norganization: %s\ndate: %s\n---\n\n",
		meta.Title,
		meta.Author,
		meta.Version,
		meta.ProjectName,
		meta.Organization,
		meta.GeneratedDate.Format("2006-01-02"),
	)
}
