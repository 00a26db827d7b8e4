// Package process cleans up browser processes left behind after a PDF
// engine shuts down. Errors are ignored; the launcher's own Kill is the
// fallback.
package process
