package pipeline

import "github.com/microcosm-cc/bluemonday"

// Sanitizer cleans a rendered HTML fragment.
type Sanitizer interface {
	Sanitize(fragment string) string
}

// UGCSanitizer applies bluemonday's user-generated-content policy, widened to
// keep the class attributes used by syntax highlighting and task lists.
type UGCSanitizer struct {
	policy *bluemonday.Policy
}

// NewUGCSanitizer creates a UGCSanitizer.
func NewUGCSanitizer() *UGCSanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("type", "checked", "disabled").OnElements("input")
	return &UGCSanitizer{policy: p}
}

// Sanitize strips disallowed elements and attributes.
func (s *UGCSanitizer) Sanitize(fragment string) string {
	return s.policy.Sanitize(fragment)
}
