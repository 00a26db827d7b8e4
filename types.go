package textbook

import (
	"fmt"
	"strings"
)

// ModuleType labels a module. It is informational only and never affects
// reference resolution or ordering.
type ModuleType string

// Module types.
const (
	TypeDefinition  ModuleType = "definition"
	TypeExplanation ModuleType = "explanation"
	TypeExample     ModuleType = "example"
	TypeProblem     ModuleType = "problem"
	TypeNotes       ModuleType = "notes"
	TypeOther       ModuleType = "other"
)

// ModuleTypes lists every valid type in display order.
var ModuleTypes = []ModuleType{
	TypeDefinition, TypeExplanation, TypeExample, TypeProblem, TypeNotes, TypeOther,
}

// Valid reports whether t is one of the known module types.
func (t ModuleType) Valid() bool {
	for _, known := range ModuleTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseModuleType parses a case-insensitive type name. Empty means TypeOther.
func ParseModuleType(s string) (ModuleType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TypeOther, nil
	}
	t := ModuleType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidModuleType, s)
	}
	return t, nil
}

// Module is one unit of course content as the compiler sees it.
// Body is the current version's markdown; nil means the module has no
// current version and contributes nothing to a compile.
type Module struct {
	ID    string
	Title string
	Type  ModuleType
	Body  *string
}

// HasBody reports whether the module has a current version.
func (m Module) HasBody() bool {
	return m.Body != nil
}

// OrderEntry is one line of a saved compilation order. Slice order is
// display order.
type OrderEntry struct {
	ModuleID string `json:"moduleId" yaml:"module"`
	Include  bool   `json:"include" yaml:"include"`
}

// Input holds everything one compile needs.
type Input struct {
	CourseName      string
	CompilationName string
	Order           []OrderEntry
	Modules         []Module // natural order, e.g. most recently updated first
	CSS             string   // extra CSS appended after the built-in style
	HTMLOnly        bool     // skip PDF rendering
}

// Result is the output of a compile. It is never cached.
type Result struct {
	HTML    string
	PDF     []byte   // nil when Input.HTMLOnly is set
	Modules []string // ids in the order they were compiled

	// Warnings lists non-fatal findings, such as two modules whose titles
	// collide after normalization.
	Warnings []string
}
