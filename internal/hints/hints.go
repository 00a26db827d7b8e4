// Package hints appends actionable advice to CLI error messages.
// Every hint renders as "\n  hint: <text>".
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-textbook/internal/fileutil"
)

// IsInContainer reports whether we run inside Docker (or something that
// creates /.dockerenv). A variable so tests can stub it.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ciVariables are set by the CI systems we know about.
var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

// InCI reports whether a known CI environment variable is set.
func InCI() bool {
	for _, name := range ciVariables {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect advises on a browser that failed to start, given the
// current pdf.noSandbox and pdf.browserBin settings.
func ForBrowserConnect(noSandbox bool, browserBin string) string {
	var hints []string
	if !noSandbox && (InCI() || IsInContainer()) {
		hints = append(hints, "set pdf.noSandbox: true (or TEXTBOOK_PDF_NO_SANDBOX=1) in Docker/CI")
	}
	if browserBin == "" {
		hints = append(hints, "set pdf.browserBin (or TEXTBOOK_PDF_BROWSER_BIN) to use an installed Chrome")
	}
	return formatHints(hints)
}

// ForTimeout suggests a longer page-load timeout.
func ForTimeout() string {
	return format("large textbooks may need a longer --timeout or pdf.timeout")
}

// ForConfigNotFound suggests --config, or creating the file under the user
// config directory when that location was searched.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(filepathSlash(p), "go-textbook/") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForDatabase advises on a database that cannot be opened.
func ForDatabase(driver string) string {
	switch driver {
	case "postgres":
		return format("check database.dsn (host=... user=... dbname=... sslmode=...) and that the server is reachable")
	case "sqlite", "":
		return format("check that the directory holding database.dsn exists and is writable")
	default:
		return format("database.driver must be sqlite or postgres")
	}
}

// ForStyleNotFound lists the styles that do exist.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForOutputFile advises on an output file that could not be written.
func ForOutputFile() string {
	return format("check the parent directory exists and is writable")
}

func filepathSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
