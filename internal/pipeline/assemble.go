package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/template"

	"github.com/alnah/go-textbook/internal/reference"
)

// Sentinel errors for document assembly.
var (
	ErrTemplateParse  = errors.New("textbook template parsing failed")
	ErrTemplateRender = errors.New("textbook template rendering failed")
)

// Section is one module as the assembler sees it.
type Section struct {
	ID       string
	Title    string
	Type     string
	Markdown string
}

// Document is the input to Assemble. Sections are already in final order.
type Document struct {
	CourseName      string
	CompilationName string
	Date            string
	Sections        []Section
}

// tocEntry and sectionView are the template's view of the document.
type tocEntry struct {
	Anchor string
	Label  string
}

type sectionView struct {
	Anchor  string
	Heading string
	Type    string
	Content string
}

type templateData struct {
	Brand           string
	CourseName      string
	CompilationName string
	Date            string
	Style           string
	TOC             []tocEntry
	Sections        []sectionView
}

// Assembler builds the single-file HTML textbook.
//
// The template is executed with text/template: titles, names and bodies are
// written as-is, without HTML escaping.
type Assembler struct {
	tmpl         *template.Template
	style        string
	brand        string
	preprocessor MarkdownPreprocessor
	renderer     Renderer
	sanitizer    Sanitizer
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithRenderer replaces the markdown renderer.
func WithRenderer(r Renderer) AssemblerOption {
	return func(a *Assembler) { a.renderer = r }
}

// WithPreprocessor replaces the body preprocessor.
func WithPreprocessor(p MarkdownPreprocessor) AssemblerOption {
	return func(a *Assembler) { a.preprocessor = p }
}

// WithSanitizer runs every rendered module through s. Nil disables it.
func WithSanitizer(s Sanitizer) AssemblerOption {
	return func(a *Assembler) { a.sanitizer = s }
}

// WithStyle sets the stylesheet inlined in the document head.
func WithStyle(css string) AssemblerOption {
	return func(a *Assembler) { a.style = css }
}

// WithBrand sets the label printed above the course name on the title block.
func WithBrand(brand string) AssemblerOption {
	return func(a *Assembler) { a.brand = brand }
}

// NewAssembler parses the document template and applies options.
func NewAssembler(tmplContent string, opts ...AssemblerOption) (*Assembler, error) {
	tmpl, err := template.New("textbook").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	a := &Assembler{
		tmpl:         tmpl,
		preprocessor: &BodyPreprocessor{},
		renderer:     NewGoldmarkRenderer(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Assemble resolves references in every section against all sections,
// renders them, and wraps the result with the title block and TOC.
func (a *Assembler) Assemble(ctx context.Context, doc Document) (string, error) {
	metas := make([]reference.ModuleMeta, len(doc.Sections))
	for i, s := range doc.Sections {
		metas[i] = reference.ModuleMeta{ID: s.ID, Title: s.Title}
	}

	data := templateData{
		Brand:           a.brand,
		CourseName:      doc.CourseName,
		CompilationName: doc.CompilationName,
		Date:            doc.Date,
		Style:           a.style,
		TOC:             make([]tocEntry, len(doc.Sections)),
		Sections:        make([]sectionView, len(doc.Sections)),
	}

	for i, s := range doc.Sections {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		anchor := reference.Anchor(s.ID)
		label := strconv.Itoa(i+1) + ". " + s.Title
		data.TOC[i] = tocEntry{Anchor: anchor, Label: label}

		content, err := a.renderSection(ctx, s.Markdown, metas)
		if err != nil {
			return "", fmt.Errorf("rendering module %q: %w", s.ID, err)
		}

		data.Sections[i] = sectionView{
			Anchor:  anchor,
			Heading: label,
			Type:    s.Type,
			Content: content,
		}
	}

	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return buf.String(), nil
}

func (a *Assembler) renderSection(ctx context.Context, markdown string, metas []reference.ModuleMeta) (string, error) {
	body := a.preprocessor.PreprocessMarkdown(ctx, markdown)
	body = reference.Resolve(body, metas)

	fragment, err := a.renderer.Render(ctx, body)
	if err != nil {
		return "", err
	}

	if a.sanitizer != nil {
		fragment = a.sanitizer.Sanitize(fragment)
	}
	return fragment, nil
}
