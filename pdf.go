package textbook

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-textbook/internal/fileutil"
	"github.com/alnah/go-textbook/internal/process"
)

// pdfConverter prints an assembled HTML textbook to PDF.
type pdfConverter interface {
	ToPDF(ctx context.Context, htmlContent string, opts *pdfOptions) ([]byte, error)
	Close() error
}

// pdfRenderer prints a local HTML file. Split from pdfConverter so tests can
// run without a browser.
type pdfRenderer interface {
	RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error)
	Close() error
}

var (
	_ pdfConverter = (*fileConverter)(nil)
	_ pdfRenderer  = (*rodRenderer)(nil)
	_ pdfRenderer  = (*chromedpRenderer)(nil)
)

type pdfOptions struct {
	PageNumbers bool
}

// A4 in inches; margins in millimetres.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69

	marginTopMM    = 12
	marginBottomMM = 18
	marginSideMM   = 12

	mmPerInch = 25.4
)

// pageGeometry is the page setup shared by every engine, in inches.
type pageGeometry struct {
	Width        float64
	Height       float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
}

func a4Geometry() pageGeometry {
	return pageGeometry{
		Width:        paperWidthInches,
		Height:       paperHeightInches,
		MarginTop:    marginTopMM / mmPerInch,
		MarginBottom: marginBottomMM / mmPerInch,
		MarginLeft:   marginSideMM / mmPerInch,
		MarginRight:  marginSideMM / mmPerInch,
	}
}

const emptyTemplate = "<span></span>"

// footerTemplate is Chrome's native footer: "page/total", centred.
func footerTemplate(opts *pdfOptions) string {
	if opts == nil || !opts.PageNumbers {
		return emptyTemplate
	}
	return `<div style="font-size: 9px; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #999; width: 100%; text-align: center;">` +
		`<span class="pageNumber"></span>/<span class="totalPages"></span></div>`
}

// newPDFConverter builds the converter for the configured engine.
func newPDFConverter(cfg compilerConfig) (pdfConverter, error) {
	var r pdfRenderer
	switch cfg.engine {
	case "", EngineRod:
		r = newRodRenderer(cfg.timeout, cfg.browserBin, cfg.noSandbox)
	case EngineChromedp:
		r = newChromedpRenderer(cfg.timeout, cfg.browserBin, cfg.noSandbox)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.engine)
	}
	return &fileConverter{renderer: r}, nil
}

// fileConverter writes the HTML to a temp file and has the renderer print it,
// so relative resources and large documents load like a normal page.
type fileConverter struct {
	renderer pdfRenderer
}

func (c *fileConverter) ToPDF(ctx context.Context, htmlContent string, opts *pdfOptions) ([]byte, error) {
	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return c.renderer.RenderFromFile(ctx, tmpPath, opts)
}

func (c *fileConverter) Close() error {
	if c.renderer != nil {
		return c.renderer.Close()
	}
	return nil
}

// pageTimeout is the smaller of the configured timeout and the context deadline.
func pageTimeout(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if remaining < timeout {
			return remaining, nil
		}
	}
	return timeout, nil
}

// rodRenderer prints pages with go-rod. Rod downloads Chromium on first run
// when no browser binary is configured or found.
type rodRenderer struct {
	browser    *rod.Browser
	launcher   *launcher.Launcher
	timeout    time.Duration
	browserBin string
	noSandbox  bool
}

func newRodRenderer(timeout time.Duration, browserBin string, noSandbox bool) *rodRenderer {
	return &rodRenderer{timeout: timeout, browserBin: browserBin, noSandbox: noSandbox}
}

// ensureBrowser launches and connects on first use.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	if r.browserBin != "" {
		l = l.Bin(r.browserBin)
	}
	if r.noSandbox {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = browser
	r.launcher = l
	return nil
}

// Close shuts the browser down and kills any leftover Chrome children.
func (r *rodRenderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		if pid := r.launcher.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}

func (r *rodRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout, err := pageTimeout(ctx, r.timeout)
	if err != nil {
		return nil, err
	}
	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPDFOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return pdfBuf, nil
}

// buildPDFOptions maps the A4 page setup onto rod's print parameters.
func buildPDFOptions(opts *pdfOptions) *proto.PagePrintToPDF {
	g := a4Geometry()
	pdfOpts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(g.Width),
		PaperHeight:     floatPtr(g.Height),
		MarginTop:       floatPtr(g.MarginTop),
		MarginBottom:    floatPtr(g.MarginBottom),
		MarginLeft:      floatPtr(g.MarginLeft),
		MarginRight:     floatPtr(g.MarginRight),
		PrintBackground: true,
	}

	if opts != nil && opts.PageNumbers {
		pdfOpts.DisplayHeaderFooter = true
		pdfOpts.HeaderTemplate = emptyTemplate
		pdfOpts.FooterTemplate = footerTemplate(opts)
	}
	return pdfOpts
}

func floatPtr(v float64) *float64 {
	return &v
}
