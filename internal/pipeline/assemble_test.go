package pipeline

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/alnah/go-textbook/internal/reference"
)

const testTemplate = `<!DOCTYPE html>
<html><head><title>{{.CourseName}} - {{.CompilationName}}</title><style>{{.Style}}</style></head>
<body>
<header class="title-page"><p class="brand">{{.Brand}}</p><h1>{{.CourseName}}</h1><p class="subtitle">{{.CompilationName}}</p><p class="date">{{.Date}}</p></header>
<div class="table-of-contents"><ul>
{{- range .TOC}}
<li><a href="#{{.Anchor}}">{{.Label}}</a></li>
{{- end}}
</ul></div>
{{- range .Sections}}
<section id="{{.Anchor}}" class="module-section"><h2>{{.Heading}}</h2><p class="module-type">{{.Type}}</p><div class="module-content">{{.Content}}</div></section>
{{- end}}
</body></html>`

// mockRenderer lets tests force a render failure.
type mockRenderer struct {
	err error
}

func (m *mockRenderer) Render(_ context.Context, content string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "<p>" + content + "</p>", nil
}

// mockSanitizer records calls and tags its output.
type mockSanitizer struct {
	calls int
}

func (m *mockSanitizer) Sanitize(fragment string) string {
	m.calls++
	return "[clean]" + fragment
}

func newTestAssembler(t *testing.T, opts ...AssemblerOption) *Assembler {
	t.Helper()
	a, err := NewAssembler(testTemplate, opts...)
	if err != nil {
		t.Fatalf("NewAssembler() unexpected error: %v", err)
	}
	return a
}

var (
	tocBlock     = regexp.MustCompile(`(?s)<div class="table-of-contents">(.*?)</div>`)
	tocHref      = regexp.MustCompile(`<li><a href="#([^"]+)">`)
	sectionIDAtt = regexp.MustCompile(`<section id="([^"]+)"`)
)

func TestNewAssembler_ParseError(t *testing.T) {
	t.Parallel()

	_, err := NewAssembler("{{.Broken")
	if !errors.Is(err, ErrTemplateParse) {
		t.Errorf("NewAssembler() error = %v, want ErrTemplateParse", err)
	}
}

func TestAssembler_TOCMatchesSections(t *testing.T) {
	t.Parallel()

	a := newTestAssembler(t)
	doc := Document{
		CourseName:      "Algebra",
		CompilationName: "Unit 1",
		Date:            "January 2, 2026",
		Sections: []Section{
			{ID: "m2", Title: "Second", Type: "lesson", Markdown: "two"},
			{ID: "m1", Title: "First", Type: "exercise", Markdown: "one"},
		},
	}

	got, err := a.Assemble(context.Background(), doc)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}

	block := tocBlock.FindStringSubmatch(got)
	if block == nil {
		t.Fatalf("Assemble() output has no table of contents\ngot: %s", got)
	}
	if n := strings.Count(block[1], "<li>"); n != 2 {
		t.Fatalf("TOC has %d entries, want 2", n)
	}

	hrefs := tocHref.FindAllStringSubmatch(block[1], -1)
	ids := sectionIDAtt.FindAllStringSubmatch(got, -1)
	want := []string{"module-m2", "module-m1"}
	if len(hrefs) != len(want) || len(ids) != len(want) {
		t.Fatalf("got %d hrefs and %d section ids, want %d", len(hrefs), len(ids), len(want))
	}
	for i := range want {
		if hrefs[i][1] != want[i] {
			t.Errorf("TOC href[%d] = %q, want %q", i, hrefs[i][1], want[i])
		}
		if ids[i][1] != want[i] {
			t.Errorf("section id[%d] = %q, want %q", i, ids[i][1], want[i])
		}
	}

	for _, s := range []string{
		"<h2>1. Second</h2>",
		"<h2>2. First</h2>",
		`<p class="module-type">exercise</p>`,
		"<h1>Algebra</h1>",
		`<p class="subtitle">Unit 1</p>`,
		"January 2, 2026",
	} {
		if !strings.Contains(got, s) {
			t.Errorf("Assemble() missing %q", s)
		}
	}
}

func TestAssembler_ResolvesReferencesAcrossSections(t *testing.T) {
	t.Parallel()

	a := newTestAssembler(t)
	doc := Document{
		CourseName:      "C",
		CompilationName: "X",
		Sections: []Section{
			{ID: "m1", Title: "Intro", Type: "lesson", Markdown: "See @module[Loops] later."},
			{ID: "m2", Title: "Loops", Type: "lesson", Markdown: "Back to @module:m1 and @module:nope."},
		},
	}

	got, err := a.Assemble(context.Background(), doc)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}

	for _, s := range []string{
		`<a href="#module-m2">Loops</a>`,
		`<a href="#module-m1">Intro</a>`,
		"@module:nope",
	} {
		if !strings.Contains(got, s) {
			t.Errorf("Assemble() missing %q\ngot: %s", s, got)
		}
	}
}

func TestAssembler_TitlesNotEscaped(t *testing.T) {
	t.Parallel()

	a := newTestAssembler(t)
	doc := Document{
		CourseName:      "R&D <i>lab</i>",
		CompilationName: "X",
		Sections:        []Section{{ID: "m1", Title: "A & B", Type: "lesson", Markdown: "x"}},
	}

	got, err := a.Assemble(context.Background(), doc)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}
	if !strings.Contains(got, "<h1>R&D <i>lab</i></h1>") {
		t.Errorf("course name should be written verbatim\ngot: %s", got)
	}
	if !strings.Contains(got, "1. A & B") {
		t.Errorf("title should be written verbatim\ngot: %s", got)
	}
}

func TestAssembler_StyleAndBrand(t *testing.T) {
	t.Parallel()

	a := newTestAssembler(t, WithStyle("body{margin:0}"), WithBrand("NoSync"))
	doc := Document{
		CourseName: "C",
		Sections:   []Section{{ID: "m1", Title: "T", Type: "lesson", Markdown: "a term"}},
	}

	got, err := a.Assemble(context.Background(), doc)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}
	for _, s := range []string{"<style>body{margin:0}</style>", `<p class="brand">NoSync</p>`} {
		if !strings.Contains(got, s) {
			t.Errorf("Assemble() missing %q\ngot: %s", s, got)
		}
	}
}

// sectionContent returns the rendered content of the first section.
func sectionContent(t *testing.T, html string) string {
	t.Helper()
	const open = `<div class="module-content">`
	start := strings.Index(html, open)
	end := strings.Index(html, "</div></section>")
	if start < 0 || end < start {
		t.Fatalf("no section content in %s", html)
	}
	return html[start+len(open) : end]
}

func TestAssembler_BodyReachesRendererUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantIn  string
		wantOut string
	}{
		{
			name:   "inline code with equals",
			body:   "Compare `a == b` with `c == d`.",
			wantIn: "<code>a == b</code>",
		},
		{
			name:    "fenced code with blank lines",
			body:    "```go\nif x == 1 && y == 2 {\n}\n\n\n\nreturn\n```",
			wantOut: "<mark>",
		},
		{
			name:   "title token containing equals",
			body:   "see @module[a ==x== b]",
			wantIn: `href="#module-m2"`,
		},
		{
			name:   "double equals in prose",
			body:   "a ==key== term",
			wantIn: "a ==key== term",
		},
	}

	a := newTestAssembler(t)
	renderer := NewGoldmarkRenderer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sections := []Section{
				{ID: "m1", Title: "First", Markdown: tt.body},
				{ID: "m2", Title: "a ==x== b", Markdown: "second"},
			}
			metas := []reference.ModuleMeta{{ID: "m1", Title: "First"}, {ID: "m2", Title: "a ==x== b"}}

			got, err := a.Assemble(context.Background(), Document{CourseName: "C", Sections: sections})
			if err != nil {
				t.Fatalf("Assemble() unexpected error: %v", err)
			}
			want, err := renderer.Render(context.Background(), reference.Resolve(tt.body, metas))
			if err != nil {
				t.Fatalf("Render() unexpected error: %v", err)
			}

			content := sectionContent(t, got)
			if content != want {
				t.Errorf("section content differs from a plain render\ngot:  %s\nwant: %s", content, want)
			}
			if tt.wantIn != "" && !strings.Contains(content, tt.wantIn) {
				t.Errorf("content missing %q: %s", tt.wantIn, content)
			}
			if tt.wantOut != "" && strings.Contains(content, tt.wantOut) {
				t.Errorf("content should not contain %q: %s", tt.wantOut, content)
			}
		})
	}
}

func TestAssembler_EmptySections(t *testing.T) {
	t.Parallel()

	a := newTestAssembler(t)
	got, err := a.Assemble(context.Background(), Document{CourseName: "C", CompilationName: "Empty"})
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}
	if strings.Contains(got, "<li>") || strings.Contains(got, "<section") {
		t.Errorf("empty document should have no TOC entries or sections\ngot: %s", got)
	}
	if !strings.Contains(got, "<h1>C</h1>") {
		t.Errorf("title block missing\ngot: %s", got)
	}
}

func TestAssembler_RenderErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	a := newTestAssembler(t, WithRenderer(&mockRenderer{err: boom}))
	doc := Document{Sections: []Section{{ID: "m9", Title: "T", Markdown: "x"}}}

	_, err := a.Assemble(context.Background(), doc)
	if !errors.Is(err, boom) {
		t.Fatalf("Assemble() error = %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), `"m9"`) {
		t.Errorf("error should name the module: %v", err)
	}
}

func TestAssembler_Sanitizer(t *testing.T) {
	t.Parallel()

	san := &mockSanitizer{}
	a := newTestAssembler(t, WithRenderer(&mockRenderer{}), WithSanitizer(san))
	doc := Document{Sections: []Section{
		{ID: "a", Title: "A", Markdown: "x"},
		{ID: "b", Title: "B", Markdown: "y"},
	}}

	got, err := a.Assemble(context.Background(), doc)
	if err != nil {
		t.Fatalf("Assemble() unexpected error: %v", err)
	}
	if san.calls != 2 {
		t.Errorf("sanitizer called %d times, want 2", san.calls)
	}
	if !strings.Contains(got, "[clean]<p>x</p>") {
		t.Errorf("sanitized content missing\ngot: %s", got)
	}
}

func TestAssembler_ContextCancellation(t *testing.T) {
	t.Parallel()

	a := newTestAssembler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Assemble(ctx, Document{Sections: []Section{{ID: "m1", Title: "T", Markdown: "x"}}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Assemble() error = %v, want context.Canceled", err)
	}
}
