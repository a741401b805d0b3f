package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// CompileOptions carries the named variables handed to the external format
// compiler.
type CompileOptions struct {
	Title          string
	Author         string
	Date           string
	Classification string
}

// Compiler turns marked-up text into bytes of a target format. Each call
// runs an isolated external process.
type Compiler interface {
	CompileHTML(ctx context.Context, markdown string, opts CompileOptions) ([]byte, error)
	CompilePDF(ctx context.Context, markdown string, opts CompileOptions) ([]byte, error)
}

// Pandoc invokes the pandoc binary.
type Pandoc struct {
	path   string
	logger zerolog.Logger
}

// NewPandoc returns a Compiler that shells out to the pandoc binary at path.
func NewPandoc(path string, logger zerolog.Logger) *Pandoc {
	if path == "" {
		path = "pandoc"
	}
	return &Pandoc{path: path, logger: logger}
}

// CompileHTML produces a standalone, self-contained HTML5 document with a
// table of contents.
func (p *Pandoc) CompileHTML(ctx context.Context, markdown string, opts CompileOptions) ([]byte, error) {
	args := []string{
		"--from=markdown+yaml_metadata_block",
		"--to=html5",
		"--standalone",
		"--toc",
		"--toc-depth=3",
		"--css=https://cdnjs.cloudflare.com/ajax/libs/github-markdown-css/5.1.0/github-markdown.min.css",
		"--embed-resources",
		"-V", "title=" + opts.Title,
		"-V", "author=" + opts.Author,
		"-V", "date=" + opts.Date,
	}
	return p.run(ctx, markdown, "*.html", args)
}

// CompilePDF produces a paginated, typeset document with a table of contents
// and numbered sections. When a classification marking is present it becomes
// a running header on every page.
func (p *Pandoc) CompilePDF(ctx context.Context, markdown string, opts CompileOptions) ([]byte, error) {
	args := []string{
		"--from=markdown+yaml_metadata_block+hard_line_breaks",
		"--to=pdf",
		"--pdf-engine=xelatex",
		"--toc",
		"--toc-depth=3",
		"--number-sections",
		"-V", "geometry:margin=1in",
		"-V", "fontsize=11pt",
		"-V", "documentclass=article",
		"-V", "title=" + opts.Title,
		"-V", "author=" + opts.Author,
		"-V", "date=" + opts.Date,
	}
	if opts.Classification != "" {
		args = append(args, "-V", fmt.Sprintf("header-includes=\\markboth{%s}{%s}", opts.Classification, opts.Classification))
	}
	return p.run(ctx, markdown, "*.pdf", args)
}

func (p *Pandoc) run(ctx context.Context, markdown, outPattern string, args []string) ([]byte, error) {
	in, err := os.CreateTemp("", "docgen-*.md")
	if err != nil {
		return nil, fmt.Errorf("create input file: %w", err)
	}
	defer os.Remove(in.Name())

	if _, err := in.WriteString(markdown); err != nil {
		in.Close()
		return nil, fmt.Errorf("write input file: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("close input file: %w", err)
	}

	out, err := os.CreateTemp("", "docgen-"+outPattern)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	cmdArgs := append([]string{in.Name(), "-o", outPath}, args...)
	cmd := exec.CommandContext(ctx, p.path, cmdArgs...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	p.logger.Debug().Str("binary", p.path).Strs("args", cmdArgs).Msg("render: invoking format compiler")

	if err := cmd.Run(); err != nil {
		// A non-zero exit is a hard failure carrying the compiler's
		// diagnostic output verbatim.
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("pandoc: %s", stderr.String())
		}
		return nil, fmt.Errorf("pandoc: %w", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read compiler output: %w", err)
	}
	return data, nil
}
