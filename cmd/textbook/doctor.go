package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-textbook/internal/config"
	"github.com/alnah/go-textbook/internal/hints"
	"github.com/alnah/go-textbook/internal/store"
)

const doctorDBTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string       `json:"status"` // "ready", "warnings", "errors"
	Browser  browserInfo  `json:"browser"`
	Database databaseInfo `json:"database"`
	Env      envInfo      `json:"environment"`
	System   systemInfo   `json:"system"`
	Warnings []string     `json:"warnings,omitempty"`
	Errors   []string     `json:"errors,omitempty"`
}

type browserInfo struct {
	Engine  string `json:"engine"`
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type databaseInfo struct {
	Driver    string `json:"driver"`
	Reachable bool   `json:"reachable"`
}

type envInfo struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Container bool   `json:"container"`
	CI        bool   `json:"ci"`
}

type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorChecks are swappable for tests.
type doctorChecks struct {
	lookPath  func() (string, bool)
	version   func(path string) (string, error)
	container func() bool
	ci        func() bool
}

func defaultDoctorChecks() doctorChecks {
	return doctorChecks{
		lookPath:  launcher.LookPath,
		version:   browserVersion,
		container: hints.IsInContainer,
		ci:        hints.InCI,
	}
}

// runDoctorCmd returns 0 when ready (warnings included), 1 on errors.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}
	cfg, err := loadConfig(flags.config, env)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}

	result := runDoctor(ctx, cfg, defaultDoctorChecks())

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

func runDoctor(ctx context.Context, cfg *config.Config, checks doctorChecks) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env:    envInfo{OS: runtime.GOOS, Arch: runtime.GOARCH},
	}

	checkBrowser(result, cfg, checks)
	checkDatabase(ctx, result, cfg)
	checkEnvironment(result, cfg, checks)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}
	return result
}

func checkBrowser(result *doctorResult, cfg *config.Config, checks doctorChecks) {
	result.Browser.Engine = cfg.PDF.Engine
	result.Browser.Sandbox = !cfg.PDF.NoSandbox

	path := cfg.PDF.BrowserBin
	if path == "" {
		var found bool
		path, found = checks.lookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set pdf.browserBin (TEXTBOOK_PDF_BROWSER_BIN)")
			return
		}
	}
	if _, err := os.Stat(path); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Chrome not found at %s", path))
		return
	}

	result.Browser.Found = true
	result.Browser.Path = path
	v, err := checks.version(path)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Could not get Chrome version: %v", err))
		return
	}
	result.Browser.Version = v
}

func browserVersion(path string) (string, error) {
	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- configured browser binary
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// checkDatabase opens the configured database and pings it. It never migrates.
func checkDatabase(ctx context.Context, result *doctorResult, cfg *config.Config) {
	result.Database.Driver = cfg.Database.Driver

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, nil)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Database: %v", err))
		return
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(ctx, doctorDBTimeout)
	defer cancel()
	if err := st.Ping(ctx); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Database unreachable: %v", err))
		return
	}
	result.Database.Reachable = true
}

func checkEnvironment(result *doctorResult, cfg *config.Config, checks doctorChecks) {
	result.Env.Container = checks.container()
	result.Env.CI = checks.ci()

	if (result.Env.Container || result.Env.CI) && !cfg.PDF.NoSandbox {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but the browser sandbox is on. Set pdf.noSandbox: true (TEXTBOOK_PDF_NO_SANDBOX=1)")
	}
	if len(cfg.Auth.JWTSecret) < config.MinSecretLength {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("auth.jwtSecret is shorter than %d bytes; serve will refuse to start", config.MinSecretLength))
	}
}

func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "textbook-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "textbook doctor")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Browser (%s)\n", r.Browser.Engine)
	if r.Browser.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Browser.Path)
		if r.Browser.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Browser.Version)
		}
		if r.Browser.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (pdf.noSandbox)")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Database (%s)\n", r.Database.Driver)
	if r.Database.Reachable {
		fmt.Fprintln(w, "  [OK] Reachable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Unreachable")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintln(w, "  [OK] Container: detected")
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
