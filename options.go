package textbook

import "time"

// Engine selects the headless browser driver used for PDF rendering.
type Engine string

// Supported PDF engines.
const (
	EngineRod      Engine = "rod"
	EngineChromedp Engine = "chromedp"
)

// Defaults applied by NewCompiler.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultBrand      = "NoteSync"
	DefaultDateFormat = "auto:long"
)

// Option configures a Compiler.
type Option func(*Compiler)

type compilerConfig struct {
	timeout     time.Duration
	styleInput  string // name, file path or CSS content
	assetPath   string
	dateFormat  string
	brand       string
	sanitize    bool
	pageNumbers bool
	engine      Engine
	browserBin  string
	noSandbox   bool
}

// WithTimeout bounds each page load in the browser.
func WithTimeout(d time.Duration) Option {
	return func(c *Compiler) {
		c.cfg.timeout = d
	}
}

// WithStyle sets the stylesheet: a style name, a path to a .css file, or CSS
// content. Empty keeps the built-in style.
func WithStyle(style string) Option {
	return func(c *Compiler) {
		c.cfg.styleInput = style
	}
}

// WithAssetPath reads styles and templates from dir before the embedded ones.
func WithAssetPath(dir string) Option {
	return func(c *Compiler) {
		c.cfg.assetPath = dir
	}
}

// WithDateFormat sets the title-block date: "auto", "auto:FORMAT", a preset
// name (iso, european, us, long), or a literal string. "none" omits it.
func WithDateFormat(format string) Option {
	return func(c *Compiler) {
		c.cfg.dateFormat = format
	}
}

// WithBrand sets the label shown before the course name in the title block.
func WithBrand(brand string) Option {
	return func(c *Compiler) {
		c.cfg.brand = brand
	}
}

// WithSanitize runs every rendered module through bluemonday's UGC policy.
func WithSanitize(enabled bool) Option {
	return func(c *Compiler) {
		c.cfg.sanitize = enabled
	}
}

// WithPageNumbers prints "page/total" in the PDF footer.
func WithPageNumbers(enabled bool) Option {
	return func(c *Compiler) {
		c.cfg.pageNumbers = enabled
	}
}

// WithEngine selects the PDF engine. Defaults to EngineRod.
func WithEngine(e Engine) Option {
	return func(c *Compiler) {
		c.cfg.engine = e
	}
}

// WithBrowserBin uses a pre-installed Chrome instead of auto-detection.
func WithBrowserBin(path string) Option {
	return func(c *Compiler) {
		c.cfg.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox, as containers and CI usually require.
func WithNoSandbox(enabled bool) Option {
	return func(c *Compiler) {
		c.cfg.noSandbox = enabled
	}
}
