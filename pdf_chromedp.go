package textbook

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// chromedpRenderer prints pages through chromedp. Unlike rod it never
// downloads a browser: Chrome must be installed or set with WithBrowserBin.
type chromedpRenderer struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
	timeout     time.Duration
	browserBin  string
	noSandbox   bool
}

func newChromedpRenderer(timeout time.Duration, browserBin string, noSandbox bool) *chromedpRenderer {
	return &chromedpRenderer{timeout: timeout, browserBin: browserBin, noSandbox: noSandbox}
}

// allocatorOptions extends chromedp's headless defaults.
func (r *chromedpRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.noSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if r.browserBin != "" {
		opts = append(opts, chromedp.ExecPath(r.browserBin))
	}
	return opts
}

// ensureBrowser starts Chrome on first use. The browser outlives single
// compiles and is stopped by Close.
func (r *chromedpRenderer) ensureBrowser() error {
	if r.browserCtx != nil {
		return nil
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), r.allocatorOptions()...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserStop()
		allocCancel()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.allocCtx, r.allocCancel = allocCtx, allocCancel
	r.browserCtx, r.browserStop = browserCtx, browserStop
	return nil
}

func (r *chromedpRenderer) Close() error {
	if r.browserStop != nil {
		r.browserStop()
		r.browserStop = nil
		r.browserCtx = nil
	}
	if r.allocCancel != nil {
		r.allocCancel()
		r.allocCancel = nil
		r.allocCtx = nil
	}
	return nil
}

func (r *chromedpRenderer) RenderFromFile(ctx context.Context, filePath string, opts *pdfOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	timeout, err := pageTimeout(ctx, r.timeout)
	if err != nil {
		return nil, err
	}

	// One tab per compile, closed when tabCancel runs.
	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()
	tabCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(tabCtx,
		chromedp.Navigate("file://"+filePath),
		chromedp.WaitReady("body"),
	); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	var buf []byte
	if err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = buildPrintParams(opts).Do(ctx)
		return err
	})); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return buf, nil
}

// buildPrintParams maps the A4 page setup onto the CDP print call.
func buildPrintParams(opts *pdfOptions) *page.PrintToPDFParams {
	g := a4Geometry()
	params := page.PrintToPDF().
		WithPaperWidth(g.Width).
		WithPaperHeight(g.Height).
		WithMarginTop(g.MarginTop).
		WithMarginBottom(g.MarginBottom).
		WithMarginLeft(g.MarginLeft).
		WithMarginRight(g.MarginRight).
		WithPrintBackground(true)

	if opts != nil && opts.PageNumbers {
		params = params.
			WithDisplayHeaderFooter(true).
			WithHeaderTemplate(emptyTemplate).
			WithFooterTemplate(footerTemplate(opts))
	}
	return params
}
