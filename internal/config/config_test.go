package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.PDF.Engine != "rod" || cfg.PDF.Timeout.Std() != 30*time.Second {
		t.Errorf("PDF = %+v, want rod with 30s timeout", cfg.PDF)
	}
	if cfg.Textbook.DateFormat != "auto:long" || cfg.Textbook.Brand != "NoteSync" {
		t.Errorf("Textbook = %+v", cfg.Textbook)
	}
	if cfg.Auth.JWTSecret != "" {
		t.Error("DefaultConfig must not ship a JWT secret")
	}
	if err := cfg.ValidateServe(); !errors.Is(err, ErrWeakSecret) {
		t.Errorf("ValidateServe() = %v, want ErrWeakSecret", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		max     int
		wantErr bool
	}{
		{name: "empty", value: "", max: 10},
		{name: "at limit", value: "1234567890", max: 10},
		{name: "over limit", value: "12345678901", max: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("test.field", tt.value, tt.max)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Fatalf("error = %v, want ErrFieldTooLong", err)
				}
				if !strings.Contains(err.Error(), "test.field") {
					t.Errorf("error %q should name the field", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "postgres", mutate: func(c *Config) { c.Database.Driver = "postgres" }},
		{name: "chromedp", mutate: func(c *Config) { c.PDF.Engine = "chromedp" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: ErrInvalidValue},
		{name: "unknown engine", mutate: func(c *Config) { c.PDF.Engine = "wkhtml" }, wantErr: ErrInvalidValue},
		{name: "unknown log mode", mutate: func(c *Config) { c.Log.Mode = "verbose" }, wantErr: ErrInvalidValue},
		{name: "zero timeout", mutate: func(c *Config) { c.PDF.Timeout = 0 }, wantErr: ErrInvalidValue},
		{name: "zero token ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, wantErr: ErrInvalidValue},
		{name: "negative workers", mutate: func(c *Config) { c.PDF.Workers = -1 }, wantErr: ErrInvalidValue},
		{
			name:    "brand too long",
			mutate:  func(c *Config) { c.Textbook.Brand = strings.Repeat("b", MaxBrandLength+1) },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "cors origin too long",
			mutate:  func(c *Config) { c.Server.CORSOrigins = []string{"https://" + strings.Repeat("a", MaxOriginLength)} },
			wantErr: ErrFieldTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateServe(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Auth.JWTSecret = strings.Repeat("s", MinSecretLength)
	if err := cfg.ValidateServe(); err != nil {
		t.Errorf("ValidateServe() unexpected error: %v", err)
	}

	cfg.Database.DSN = ""
	if err := cfg.ValidateServe(); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("ValidateServe() with empty DSN = %v, want ErrInvalidValue", err)
	}
}

func TestLoadConfig_FromPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, "textbook.yaml", `
server:
  addr: ":9090"
  corsOrigins: ["http://localhost:3000"]
database:
  driver: postgres
  dsn: "host=db user=app dbname=textbook sslmode=disable"
pdf:
  engine: chromedp
  timeout: 45s
  pageNumbers: true
  workers: 3
textbook:
  style: ./house.css
  sanitize: true
log:
  mode: dev
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":9090" || len(cfg.Server.CORSOrigins) != 1 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.PDF.Engine != "chromedp" || cfg.PDF.Timeout.Std() != 45*time.Second || !cfg.PDF.PageNumbers || cfg.PDF.Workers != 3 {
		t.Errorf("PDF = %+v", cfg.PDF)
	}
	if !cfg.Textbook.Sanitize || cfg.Textbook.Style != "./house.css" {
		t.Errorf("Textbook = %+v", cfg.Textbook)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Textbook.Brand != "NoteSync" || cfg.Auth.TokenTTL.Std() != 24*time.Hour {
		t.Errorf("defaults lost: brand=%q ttl=%v", cfg.Textbook.Brand, cfg.Auth.TokenTTL.Std())
	}
	if cfg.Log.Mode != "dev" {
		t.Errorf("Log.Mode = %q", cfg.Log.Mode)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	unknownKey := writeConfig(t, dir, "unknown.yaml", "server:\n  adr: \":1\"\n")
	badDuration := writeConfig(t, dir, "duration.yaml", "pdf:\n  timeout: soon\n")
	badEngine := writeConfig(t, dir, "engine.yaml", "pdf:\n  engine: prince\n")

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty name", input: "", wantErr: ErrEmptyConfigName},
		{name: "missing path", input: filepath.Join(dir, "nope.yaml"), wantErr: ErrConfigNotFound},
		{name: "unknown key", input: unknownKey, wantErr: ErrConfigParse},
		{name: "bad duration", input: badDuration, wantErr: ErrConfigParse},
		{name: "invalid engine", input: badEngine, wantErr: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadConfig(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_ByName(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	writeConfig(t, dir, "local.yml", "textbook:\n  brand: Local\n")

	cfg, err := LoadConfig("local")
	if err != nil {
		t.Fatalf("LoadConfig(local) unexpected error: %v", err)
	}
	if cfg.Textbook.Brand != "Local" {
		t.Errorf("Brand = %q, want Local", cfg.Textbook.Brand)
	}

	_, err = LoadConfig("absent")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("LoadConfig(absent) = %v, want ErrConfigNotFound", err)
	}
	if !strings.Contains(err.Error(), "absent.yaml") {
		t.Errorf("error should list searched paths: %v", err)
	}
}

func TestSearchPaths(t *testing.T) {
	t.Parallel()

	paths := SearchPaths("textbook")
	if len(paths) < 2 || paths[0] != "textbook.yaml" || paths[1] != "textbook.yml" {
		t.Fatalf("SearchPaths() = %v, want local paths first", paths)
	}
	for _, p := range paths[2:] {
		if !strings.Contains(filepath.ToSlash(p), "go-textbook/") {
			t.Errorf("user path %q should live under go-textbook/", p)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"TEXTBOOK_SERVER_ADDR":         ":7000",
		"TEXTBOOK_SERVER_CORS_ORIGINS": "http://a.test, http://b.test,,",
		"TEXTBOOK_DATABASE_DRIVER":     "postgres",
		"TEXTBOOK_DATABASE_DSN":        "host=db",
		"TEXTBOOK_AUTH_JWT_SECRET":     "from-env",
		"TEXTBOOK_AUTH_TOKEN_TTL":      "2h",
		"TEXTBOOK_PDF_ENGINE":          "chromedp",
		"TEXTBOOK_PDF_TIMEOUT":         "1m",
		"TEXTBOOK_PDF_NO_SANDBOX":      "1",
		"TEXTBOOK_PDF_PAGE_NUMBERS":    "true",
		"TEXTBOOK_PDF_WORKERS":         "2",
		"TEXTBOOK_TEXTBOOK_SANITIZE":   "yes-ish",
	}))
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("ApplyEnv() = %v, want ErrInvalidValue for bad boolean", err)
	}

	cfg = DefaultConfig()
	err = cfg.ApplyEnv(envMap(map[string]string{
		"TEXTBOOK_SERVER_ADDR":         ":7000",
		"TEXTBOOK_SERVER_CORS_ORIGINS": "http://a.test, http://b.test,,",
		"TEXTBOOK_DATABASE_DRIVER":     "postgres",
		"TEXTBOOK_AUTH_TOKEN_TTL":      "2h",
		"TEXTBOOK_PDF_ENGINE":          "chromedp",
		"TEXTBOOK_PDF_TIMEOUT":         "1m",
		"TEXTBOOK_PDF_NO_SANDBOX":      "1",
		"TEXTBOOK_PDF_WORKERS":         "2",
		"TEXTBOOK_TEXTBOOK_BRAND":      "",
		"TEXTBOOK_TEXTBOOK_DATE":       "iso",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if got := cfg.Server.CORSOrigins; len(got) != 2 || got[1] != "http://b.test" {
		t.Errorf("CORSOrigins = %v", got)
	}
	if cfg.Database.Driver != "postgres" || cfg.PDF.Engine != "chromedp" {
		t.Errorf("driver=%q engine=%q", cfg.Database.Driver, cfg.PDF.Engine)
	}
	if cfg.PDF.Timeout.Std() != time.Minute || cfg.Auth.TokenTTL.Std() != 2*time.Hour {
		t.Errorf("timeout=%v ttl=%v", cfg.PDF.Timeout.Std(), cfg.Auth.TokenTTL.Std())
	}
	if !cfg.PDF.NoSandbox || cfg.PDF.Workers != 2 {
		t.Errorf("PDF = %+v", cfg.PDF)
	}
	if cfg.Textbook.Brand != "" {
		t.Errorf("set-but-empty brand should clear it, got %q", cfg.Textbook.Brand)
	}
	if cfg.Textbook.DateFormat != "iso" {
		t.Errorf("DateFormat = %q", cfg.Textbook.DateFormat)
	}
	// Untouched fields keep their values.
	if cfg.Database.DSN != "textbook.db" || cfg.Log.Mode != "prod" {
		t.Errorf("dsn=%q log=%q", cfg.Database.DSN, cfg.Log.Mode)
	}
}

func TestApplyEnv_InvalidNumbers(t *testing.T) {
	t.Parallel()

	for key, value := range map[string]string{
		"TEXTBOOK_PDF_TIMEOUT": "fast",
		"TEXTBOOK_PDF_WORKERS": "many",
	} {
		cfg := DefaultConfig()
		if err := cfg.ApplyEnv(envMap(map[string]string{key: value})); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("ApplyEnv(%s=%s) = %v, want ErrInvalidValue", key, value, err)
		}
	}
}
