package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-textbook/internal/fileutil"
)

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		extension string
		wantErr   error
	}{
		{"html", nil},
		{"css", nil},
		{"", fileutil.ErrExtensionEmpty},
		{"../x", fileutil.ErrExtensionPathTraversal},
		{`..\x`, fileutil.ErrExtensionPathTraversal},
		{"html\x00pdf", fileutil.ErrExtensionPathTraversal},
	}
	for _, tt := range tests {
		if err := fileutil.ValidateExtension(tt.extension); !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
		}
	}
}

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	content := "<html><body>" + strings.Repeat("module ", 10000) + "</body></html>"
	path, cleanup, err := fileutil.WriteTempFile(content, "html")
	if err != nil {
		t.Fatalf("WriteTempFile() unexpected error: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(path), "textbook-") || filepath.Ext(path) != ".html" {
		t.Errorf("path = %q, want textbook-*.html", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != content {
		t.Fatalf("temp file content mismatch (err %v)", err)
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cleanup() left %q behind", path)
	}
	cleanup()
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	path, cleanup, err := fileutil.WriteTempFile("x", "a/b")
	if !errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		t.Errorf("error = %v, want ErrExtensionPathTraversal", err)
	}
	if path != "" || cleanup != nil {
		t.Errorf("got path %q and cleanup %v on error", path, cleanup != nil)
	}
}

// Not parallel: changes TMPDIR.
func TestWriteTempFile_UnwritableTempDir(t *testing.T) {
	t.Setenv("TMPDIR", filepath.Join(t.TempDir(), "missing"))

	if _, _, err := fileutil.WriteTempFile("x", "html"); err == nil {
		t.Error("WriteTempFile() succeeded with a missing TMPDIR")
	}
}

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "loops.md")
	if err := os.WriteFile(file, []byte("# Loops"), 0o600); err != nil {
		t.Fatal(err)
	}

	for path, want := range map[string]bool{
		file:                          true,
		dir:                           false,
		filepath.Join(dir, "nope.md"): false,
		"":                            false,
	} {
		if got := fileutil.FileExists(path); got != want {
			t.Errorf("FileExists(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestStyleInputClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		wantPath bool
		wantCSS  bool
	}{
		{"textbook", false, false},
		{"./house.css", true, false},
		{"/etc/styles/print.css", true, false},
		{`C:\styles\a.css`, true, false},
		{"h1 { color: navy; }", false, true},
		{"body{margin:0}", false, true},
		{"", false, false},
	}
	for _, tt := range tests {
		if got := fileutil.IsFilePath(tt.input); got != tt.wantPath {
			t.Errorf("IsFilePath(%q) = %v, want %v", tt.input, got, tt.wantPath)
		}
		if got := fileutil.IsCSS(tt.input); got != tt.wantCSS {
			t.Errorf("IsCSS(%q) = %v, want %v", tt.input, got, tt.wantCSS)
		}
	}
}
