package main

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/alnah/go-textbook"
	"github.com/alnah/go-textbook/internal/config"
	"github.com/alnah/go-textbook/internal/dateutil"
	"github.com/alnah/go-textbook/internal/store"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"unknown", errors.New("boom"), ExitGeneral},
		{"browser connect", fmt.Errorf("converting to PDF: %w", textbook.ErrBrowserConnect), ExitBrowser},
		{"page load", textbook.ErrPageLoad, ExitBrowser},
		{"store open", fmt.Errorf("%w: dial", store.ErrOpen), ExitStorage},
		{"unknown driver", store.ErrUnknownDriver, ExitStorage},
		{"migrate", ErrMigrate, ExitStorage},
		{"missing file", fmt.Errorf("reading: %w", os.ErrNotExist), ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"module file", ErrReadModule, ExitIO},
		{"write output", ErrWriteOutput, ExitIO},
		{"flags", ErrUsage, ExitUsage},
		{"manifest", ErrInvalidManifest, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"weak secret", config.ErrWeakSecret, ExitUsage},
		{"style", textbook.ErrStyleNotFound, ExitUsage},
		{"engine", textbook.ErrUnknownEngine, ExitUsage},
		{"date", dateutil.ErrInvalidDateFormat, ExitUsage},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.err); got != tt.want {
			t.Errorf("%s: exitCodeFor() = %d, want %d", tt.name, got, tt.want)
		}
	}
}
