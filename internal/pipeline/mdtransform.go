package pipeline

import (
	"context"
	"regexp"
)

var crlfOrCR = regexp.MustCompile(`\r\n?`)

// MarkdownPreprocessor prepares a module body before reference resolution.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// BodyPreprocessor normalises line endings to LF. Everything else in the body,
// code blocks included, reaches the renderer as written.
type BodyPreprocessor struct{}

// PreprocessMarkdown rewrites CRLF and lone CR line endings.
func (p *BodyPreprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}
	return crlfOrCR.ReplaceAllString(content, "\n")
}
