package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-textbook"
	"github.com/alnah/go-textbook/internal/yamlutil"
)

// Sentinel errors for manifests.
var (
	ErrInvalidManifest = errors.New("invalid manifest")
	ErrReadModule      = errors.New("failed to read module file")
)

// Manifest describes one offline compile.
//
//	course: Intro to Go
//	compilation: Midterm pack
//	css: "h1 { color: navy; }"
//	order:
//	  - module: loops
//	  - module: scratch
//	    include: false
//	modules:
//	  - id: loops
//	    title: Loops
//	    type: explanation
//	    file: loops.md
//	  - id: scratch
//	    title: Scratch
//	    body: "see @module[Loops]"
type Manifest struct {
	Course      string           `yaml:"course"`
	Compilation string           `yaml:"compilation"`
	CSS         string           `yaml:"css"`
	Order       []ManifestEntry  `yaml:"order"`
	Modules     []ManifestModule `yaml:"modules"`
}

// ManifestEntry is one order line. Include defaults to true.
type ManifestEntry struct {
	Module  string `yaml:"module"`
	Include *bool  `yaml:"include"`
}

// ManifestModule holds inline content in Body or a path in File, relative
// to the manifest. A module with neither has no current version and is
// skipped at compile time.
type ManifestModule struct {
	ID    string  `yaml:"id"`
	Title string  `yaml:"title"`
	Type  string  `yaml:"type"`
	File  string  `yaml:"file"`
	Body  *string `yaml:"body"`
}

// loadManifest reads, validates and resolves a manifest into an Input.
func loadManifest(path string) (textbook.Input, error) {
	data, err := yamlutil.ReadFile(path)
	if err != nil {
		return textbook.Input{}, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yamlutil.UnmarshalStrict(data, &m); err != nil {
		return textbook.Input{}, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}
	return m.toInput(filepath.Dir(path))
}

func (m *Manifest) toInput(baseDir string) (textbook.Input, error) {
	if strings.TrimSpace(m.Course) == "" {
		return textbook.Input{}, fmt.Errorf("%w: course is required", ErrInvalidManifest)
	}

	in := textbook.Input{
		CourseName:      m.Course,
		CompilationName: m.Compilation,
		CSS:             m.CSS,
		Modules:         make([]textbook.Module, 0, len(m.Modules)),
	}

	seen := make(map[string]bool, len(m.Modules))
	for i, mm := range m.Modules {
		if mm.ID == "" {
			return textbook.Input{}, fmt.Errorf("%w: modules[%d] has no id", ErrInvalidManifest, i)
		}
		if seen[mm.ID] {
			return textbook.Input{}, fmt.Errorf("%w: duplicate module id %q", ErrInvalidManifest, mm.ID)
		}
		seen[mm.ID] = true

		mod, err := mm.resolve(baseDir)
		if err != nil {
			return textbook.Input{}, err
		}
		in.Modules = append(in.Modules, mod)
	}

	for i, e := range m.Order {
		if !seen[e.Module] {
			return textbook.Input{}, fmt.Errorf("%w: order[%d] names unknown module %q", ErrInvalidManifest, i, e.Module)
		}
		in.Order = append(in.Order, textbook.OrderEntry{ModuleID: e.Module, Include: e.Include == nil || *e.Include})
	}
	return in, nil
}

func (mm ManifestModule) resolve(baseDir string) (textbook.Module, error) {
	if mm.File != "" && mm.Body != nil {
		return textbook.Module{}, fmt.Errorf("%w: module %q sets both file and body", ErrInvalidManifest, mm.ID)
	}
	typ, err := textbook.ParseModuleType(mm.Type)
	if err != nil {
		return textbook.Module{}, fmt.Errorf("%w: module %q: %w", ErrInvalidManifest, mm.ID, err)
	}
	title := mm.Title
	if title == "" {
		title = mm.ID
	}

	mod := textbook.Module{ID: mm.ID, Title: title, Type: typ, Body: mm.Body}
	if mm.File != "" {
		p := mm.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		content, err := os.ReadFile(p) // #nosec G304 -- path comes from the user's manifest
		if err != nil {
			return textbook.Module{}, fmt.Errorf("%w: %s: %w", ErrReadModule, p, err)
		}
		body := string(content)
		mod.Body = &body
	}
	return mod, nil
}
