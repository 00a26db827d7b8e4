package textbook

import "errors"

// Sentinel errors for compile operations.
var (
	ErrAssemble       = errors.New("textbook assembly failed")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPoolClosed     = errors.New("compiler pool is closed")

	// Configuration errors.
	ErrUnknownEngine     = errors.New("unknown PDF engine")
	ErrInvalidModuleType = errors.New("invalid module type")
	ErrInvalidTimeout    = errors.New("invalid timeout")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
