package main

import (
	"errors"
	"os"

	"github.com/alnah/go-textbook"
	"github.com/alnah/go-textbook/internal/config"
	"github.com/alnah/go-textbook/internal/dateutil"
	"github.com/alnah/go-textbook/internal/store"
)

// Exit codes. 0=success, 1=general, 2=usage, then custom codes < 126.
const (
	ExitSuccess = 0
	ExitGeneral = 1
	ExitUsage   = 2 // invalid flags, config, or manifest
	ExitIO      = 3 // file not found, permission denied
	ExitBrowser = 4
	ExitStorage = 5
)

// exitCodeFor returns the exit code for an error. Callers must wrap with %w.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, textbook.ErrBrowserConnect) ||
		errors.Is(err, textbook.ErrPageCreate) ||
		errors.Is(err, textbook.ErrPageLoad) ||
		errors.Is(err, textbook.ErrPDFGeneration) {
		return ExitBrowser
	}

	if errors.Is(err, store.ErrOpen) ||
		errors.Is(err, store.ErrUnknownDriver) ||
		errors.Is(err, ErrMigrate) {
		return ExitStorage
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrReadModule) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrInvalidManifest) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrWeakSecret) ||
		errors.Is(err, textbook.ErrUnknownEngine) ||
		errors.Is(err, textbook.ErrInvalidTimeout) ||
		errors.Is(err, textbook.ErrInvalidModuleType) ||
		errors.Is(err, textbook.ErrStyleNotFound) ||
		errors.Is(err, textbook.ErrTemplateNotFound) ||
		errors.Is(err, textbook.ErrInvalidAssetPath) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) {
		return ExitUsage
	}

	return ExitGeneral
}
