package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-textbook"
	"github.com/alnah/go-textbook/internal/assets"
	"github.com/alnah/go-textbook/internal/config"
	"github.com/alnah/go-textbook/internal/hints"
)

// loadConfig reads the named config (defaults when empty), then applies
// TEXTBOOK_* overrides and validates the result.
func loadConfig(name string, env *Environment) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			hint := ""
			if errors.Is(err, config.ErrConfigNotFound) {
				hint = hints.ForConfigNotFound(config.SearchPaths(name))
			}
			return nil, fmt.Errorf("loading config: %w%s", err, hint)
		}
	}
	if err := cfg.ApplyEnv(env.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// compilerOptions maps the pdf and textbook config sections to compiler options.
func compilerOptions(cfg *config.Config) []textbook.Option {
	return []textbook.Option{
		textbook.WithEngine(textbook.Engine(cfg.PDF.Engine)),
		textbook.WithTimeout(cfg.PDF.Timeout.Std()),
		textbook.WithPageNumbers(cfg.PDF.PageNumbers),
		textbook.WithBrowserBin(cfg.PDF.BrowserBin),
		textbook.WithNoSandbox(cfg.PDF.NoSandbox),
		textbook.WithStyle(cfg.Textbook.Style),
		textbook.WithAssetPath(cfg.Textbook.AssetPath),
		textbook.WithDateFormat(cfg.Textbook.DateFormat),
		textbook.WithSanitize(cfg.Textbook.Sanitize),
		textbook.WithBrand(cfg.Textbook.Brand),
	}
}

// checkCompilerOptions builds and closes one compiler so bad styles, assets
// or date formats fail at startup rather than on the first compile. No
// browser is launched.
func checkCompilerOptions(opts []textbook.Option) error {
	c, err := textbook.NewCompiler(opts...)
	if err != nil {
		return err
	}
	return c.Close()
}

// withHint appends advice for errors a user can fix.
func withHint(err error, cfg *config.Config) error {
	var hint string
	switch {
	case errors.Is(err, textbook.ErrBrowserConnect):
		hint = hints.ForBrowserConnect(cfg.PDF.NoSandbox, cfg.PDF.BrowserBin)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, textbook.ErrPageLoad):
		hint = hints.ForTimeout()
	case errors.Is(err, textbook.ErrStyleNotFound):
		hint = hints.ForStyleNotFound([]string{assets.DefaultStyleName})
	case errors.Is(err, ErrWriteOutput):
		hint = hints.ForOutputFile()
	}
	if hint == "" {
		return err
	}
	return fmt.Errorf("%w%s", err, hint)
}
