package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-textbook/internal/fileutil"
	"github.com/alnah/go-textbook/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
	ErrWeakSecret      = errors.New("auth.jwtSecret is missing or too short")
)

// Field length limits.
const (
	MaxAddrLength       = 256
	MaxDSNLength        = 2048
	MaxPathLength       = 4096
	MaxOriginLength     = 2048
	MaxBrandLength      = 100
	MaxDateFormatLength = 50
	MaxStyleLength      = 4096 // a name, a path, or inline CSS
	MaxSecretLength     = 512

	// MinSecretLength is the shortest HS256 key accepted by serve.
	MinSecretLength = 32
)

// Duration is a time.Duration written as "30s" or "24h" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidValue, s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration back as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full server and CLI configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	PDF      PDFConfig      `yaml:"pdf"`
	Textbook TextbookConfig `yaml:"textbook"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // file path for sqlite
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	JWTSecret string   `yaml:"jwtSecret"`
	TokenTTL  Duration `yaml:"tokenTTL"`
}

// PDFConfig configures the headless browser.
type PDFConfig struct {
	Engine      string   `yaml:"engine"` // "rod" or "chromedp"
	Timeout     Duration `yaml:"timeout"`
	PageNumbers bool     `yaml:"pageNumbers"`
	BrowserBin  string   `yaml:"browserBin"`
	NoSandbox   bool     `yaml:"noSandbox"`
	Workers     int      `yaml:"workers"` // 0 = derive from GOMAXPROCS
}

// TextbookConfig configures the document itself.
type TextbookConfig struct {
	Style      string `yaml:"style"`     // name, .css path, or CSS
	AssetPath  string `yaml:"assetPath"` // empty = embedded assets only
	DateFormat string `yaml:"dateFormat"`
	Sanitize   bool   `yaml:"sanitize"`
	Brand      string `yaml:"brand"`
}

// LogConfig selects the zap preset.
type LogConfig struct {
	Mode string `yaml:"mode"` // "prod" or "dev"
}

// DefaultConfig returns a configuration that runs locally with SQLite.
// It has no JWT secret; serve refuses to start until one is set.
func DefaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "textbook.db"},
		Auth:     AuthConfig{TokenTTL: Duration(24 * time.Hour)},
		PDF:      PDFConfig{Engine: "rod", Timeout: Duration(30 * time.Second)},
		Textbook: TextbookConfig{DateFormat: "auto:long", Brand: "NoteSync"},
		Log:      LogConfig{Mode: "prod"},
	}
}

// Validate checks enumerations, ranges and field lengths. It is called by
// LoadConfig and ApplyEnv callers; serve additionally calls ValidateServe.
func (c *Config) Validate() error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"server.addr", c.Server.Addr, MaxAddrLength},
		{"database.dsn", c.Database.DSN, MaxDSNLength},
		{"auth.jwtSecret", c.Auth.JWTSecret, MaxSecretLength},
		{"pdf.browserBin", c.PDF.BrowserBin, MaxPathLength},
		{"textbook.style", c.Textbook.Style, MaxStyleLength},
		{"textbook.assetPath", c.Textbook.AssetPath, MaxPathLength},
		{"textbook.dateFormat", c.Textbook.DateFormat, MaxDateFormatLength},
		{"textbook.brand", c.Textbook.Brand, MaxBrandLength},
	}
	for _, f := range fields {
		if err := validateFieldLength(f.name, f.value, f.max); err != nil {
			return err
		}
	}
	for i, origin := range c.Server.CORSOrigins {
		if err := validateFieldLength(fmt.Sprintf("server.corsOrigins[%d]", i), origin, MaxOriginLength); err != nil {
			return err
		}
	}

	if err := oneOf("database.driver", c.Database.Driver, "sqlite", "postgres"); err != nil {
		return err
	}
	if err := oneOf("pdf.engine", c.PDF.Engine, "rod", "chromedp"); err != nil {
		return err
	}
	if err := oneOf("log.mode", c.Log.Mode, "prod", "dev"); err != nil {
		return err
	}

	if c.PDF.Timeout.Std() <= 0 {
		return fmt.Errorf("%w: pdf.timeout must be positive, got %s", ErrInvalidValue, c.PDF.Timeout.Std())
	}
	if c.Auth.TokenTTL.Std() <= 0 {
		return fmt.Errorf("%w: auth.tokenTTL must be positive, got %s", ErrInvalidValue, c.Auth.TokenTTL.Std())
	}
	if c.PDF.Workers < 0 {
		return fmt.Errorf("%w: pdf.workers must be >= 0, got %d", ErrInvalidValue, c.PDF.Workers)
	}
	return nil
}

// ValidateServe adds the checks only the HTTP server needs.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Auth.JWTSecret) < MinSecretLength {
		return fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, MinSecretLength)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("%w: database.dsn is empty", ErrInvalidValue)
	}
	return nil
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func oneOf(fieldName, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalidValue, fieldName, strings.Join(allowed, ", "), value)
}

// LoadConfig loads a config by path (anything containing a separator) or by
// name, searched with SearchPaths. Keys absent from the file keep their
// DefaultConfig values. A missing file is an error, never a silent default.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := yamlutil.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists where a config name is looked up, in order: the
// working directory, then the user config directory under go-textbook/.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, "go-textbook", name+ext))
		}
	}
	return paths
}

func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TEXTBOOK_"

// ApplyEnv overrides fields from TEXTBOOK_* variables read through lookup
// (os.LookupEnv in production). Set but empty variables clear string fields.
// The result is not validated; call Validate afterwards.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SERVER_ADDR":         &c.Server.Addr,
		"DATABASE_DRIVER":     &c.Database.Driver,
		"DATABASE_DSN":        &c.Database.DSN,
		"AUTH_JWT_SECRET":     &c.Auth.JWTSecret,
		"PDF_ENGINE":          &c.PDF.Engine,
		"PDF_BROWSER_BIN":     &c.PDF.BrowserBin,
		"TEXTBOOK_STYLE":      &c.Textbook.Style,
		"TEXTBOOK_ASSET_PATH": &c.Textbook.AssetPath,
		"TEXTBOOK_DATE":       &c.Textbook.DateFormat,
		"TEXTBOOK_BRAND":      &c.Textbook.Brand,
		"LOG_MODE":            &c.Log.Mode,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"PDF_PAGE_NUMBERS":  &c.PDF.PageNumbers,
		"PDF_NO_SANDBOX":    &c.PDF.NoSandbox,
		"TEXTBOOK_SANITIZE": &c.Textbook.Sanitize,
	}
	for key, dst := range bools {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalidValue, EnvPrefix, key, v)
		}
		*dst = b
	}

	durations := map[string]*Duration{
		"PDF_TIMEOUT":    &c.PDF.Timeout,
		"AUTH_TOKEN_TTL": &c.Auth.TokenTTL,
	}
	for key, dst := range durations {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not a duration", ErrInvalidValue, EnvPrefix, key, v)
		}
		*dst = Duration(d)
	}

	if v, ok := lookup(EnvPrefix + "PDF_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sPDF_WORKERS=%q is not an integer", ErrInvalidValue, EnvPrefix, v)
		}
		c.PDF.Workers = n
	}

	if v, ok := lookup(EnvPrefix + "SERVER_CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
