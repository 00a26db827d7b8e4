package textbook

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alnah/go-textbook/internal/assets"
	"github.com/alnah/go-textbook/internal/dateutil"
	"github.com/alnah/go-textbook/internal/fileutil"
	"github.com/alnah/go-textbook/internal/pipeline"
	"github.com/alnah/go-textbook/internal/reference"
)

var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.BodyPreprocessor)(nil)
	_ pipeline.Renderer             = (*pipeline.GoldmarkRenderer)(nil)
	_ pipeline.CSSInjector          = (*pipeline.CSSInjection)(nil)
	_ pipeline.Sanitizer            = (*pipeline.UGCSanitizer)(nil)
)

// Compiler turns an ordered set of modules into a textbook.
// Create with NewCompiler, call Compile as often as needed, and Close when
// done. A Compiler is not safe for concurrent use; use a CompilerPool.
type Compiler struct {
	cfg          compilerConfig
	assetLoader  assets.AssetLoader
	renderer     pipeline.Renderer
	assembler    *pipeline.Assembler
	cssInjector  pipeline.CSSInjector
	pdfConverter pdfConverter
	now          func() time.Time
}

// NewCompiler creates a Compiler. The browser is not started until the first
// compile that needs a PDF.
func NewCompiler(opts ...Option) (*Compiler, error) {
	c := &Compiler{
		cfg: compilerConfig{
			timeout:    DefaultTimeout,
			dateFormat: DefaultDateFormat,
			brand:      DefaultBrand,
			engine:     EngineRod,
		},
		assetLoader: assets.NewEmbeddedLoader(),
		cssInjector: &pipeline.CSSInjection{},
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.timeout <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimeout, c.cfg.timeout)
	}

	if c.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(c.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		c.assetLoader = resolver
	}

	style, err := c.resolveStyle()
	if err != nil {
		return nil, err
	}
	highlight, err := pipeline.HighlightCSS(pipeline.DefaultHighlightStyle)
	if err != nil {
		return nil, err
	}
	style += "\n" + highlight

	tmpl, err := c.assetLoader.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateNotFound, err)
	}

	asmOpts := []pipeline.AssemblerOption{
		pipeline.WithStyle(style),
		pipeline.WithBrand(c.cfg.brand),
	}
	if c.renderer != nil {
		asmOpts = append(asmOpts, pipeline.WithRenderer(c.renderer))
	}
	if c.cfg.sanitize {
		asmOpts = append(asmOpts, pipeline.WithSanitizer(pipeline.NewUGCSanitizer()))
	}
	c.assembler, err = pipeline.NewAssembler(tmpl, asmOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssemble, err)
	}

	if _, err := dateutil.ResolveTitleDate(c.cfg.dateFormat, c.now()); err != nil {
		return nil, err
	}

	if c.pdfConverter == nil {
		c.pdfConverter, err = newPDFConverter(c.cfg)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Compile orders the modules, assembles the HTML textbook and, unless
// input.HTMLOnly is set, prints it to PDF.
// Internal panics are recovered and returned as errors.
func (c *Compiler) Compile(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := ComputeOrder(input.Order, input.Modules)

	sections := make([]pipeline.Section, 0, len(ordered))
	metas := make([]reference.ModuleMeta, 0, len(ordered))
	ids := make([]string, 0, len(ordered))
	for _, m := range ordered {
		sections = append(sections, pipeline.Section{
			ID:       m.ID,
			Title:    m.Title,
			Type:     string(m.Type),
			Markdown: *m.Body,
		})
		metas = append(metas, reference.ModuleMeta{ID: m.ID, Title: m.Title})
		ids = append(ids, m.ID)
	}

	date, err := dateutil.ResolveTitleDate(c.cfg.dateFormat, c.now())
	if err != nil {
		return nil, err
	}

	htmlContent, err := c.assembler.Assemble(ctx, pipeline.Document{
		CourseName:      input.CourseName,
		CompilationName: input.CompilationName,
		Date:            date,
		Sections:        sections,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssemble, err)
	}

	htmlContent = c.cssInjector.InjectCSS(ctx, htmlContent, input.CSS)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res := &Result{
		HTML:    htmlContent,
		Modules: ids,
	}
	for _, title := range reference.Duplicates(metas) {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("several modules share the title %q; title references resolve to the last one", title))
	}

	if input.HTMLOnly {
		return res, nil
	}

	pdfBytes, err := c.pdfConverter.ToPDF(ctx, htmlContent, &pdfOptions{PageNumbers: c.cfg.pageNumbers})
	if err != nil {
		return nil, fmt.Errorf("converting to PDF: %w", err)
	}
	res.PDF = pdfBytes
	return res, nil
}

// Close releases the headless browser, if one was started.
func (c *Compiler) Close() error {
	if c.pdfConverter != nil {
		return c.pdfConverter.Close()
	}
	return nil
}

// resolveStyle turns the style input (name, path or CSS content) into CSS.
func (c *Compiler) resolveStyle() (string, error) {
	input := c.cfg.styleInput
	if input == "" {
		input = assets.DefaultStyleName
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return "", fmt.Errorf("loading style file %q: %w", input, err)
		}
		return string(content), nil
	}

	if fileutil.IsCSS(input) {
		return input, nil
	}

	css, err := c.assetLoader.LoadStyle(input)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrStyleNotFound, input, err)
	}
	return css, nil
}
