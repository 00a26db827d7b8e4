// Package reference rewrites inline module reference tokens into markdown links.
//
// Two token forms are recognised:
//
//	@module:<id>      id matches [A-Za-z0-9_-]+
//	@module[<title>]  title is any run of characters up to the first ]
//
// The id form is rewritten first. Neither rewritten form can match either
// token grammar, so running the title pass over id-pass output never touches
// a link produced by the first pass.
package reference

import (
	"regexp"
	"strings"
)

// AnchorPrefix is prepended to a module id to form its in-document anchor.
const AnchorPrefix = "module-"

var (
	idToken    = regexp.MustCompile(`@module:([A-Za-z0-9_-]+)`)
	titleToken = regexp.MustCompile(`@module\[(.+?)\]`)
)

// ModuleMeta is the projection of a module needed to resolve references.
type ModuleMeta struct {
	ID    string
	Title string
}

// Anchor returns the HTML id of a module's section.
func Anchor(id string) string {
	return AnchorPrefix + id
}

// NormalizeTitle returns the lookup key for title references.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Link returns the markdown link that replaces a resolved token.
func Link(m ModuleMeta) string {
	return "[" + m.Title + "](#" + Anchor(m.ID) + ")"
}

// Resolve rewrites id tokens, then title tokens. Unknown references are left
// verbatim.
func Resolve(markdown string, modules []ModuleMeta) string {
	if !strings.Contains(markdown, "@module") {
		return markdown
	}
	return ResolveTitles(ResolveIDs(markdown, modules), modules)
}

// ResolveIDs rewrites @module:<id> tokens whose id is known.
func ResolveIDs(markdown string, modules []ModuleMeta) string {
	byID := make(map[string]ModuleMeta, len(modules))
	for _, m := range modules {
		byID[m.ID] = m
	}

	return idToken.ReplaceAllStringFunc(markdown, func(token string) string {
		id := idToken.FindStringSubmatch(token)[1]
		target, ok := byID[id]
		if !ok {
			return token
		}
		return Link(target)
	})
}

// ResolveTitles rewrites @module[<title>] tokens whose normalised title is
// known. When two modules share a normalised title the later one wins.
func ResolveTitles(markdown string, modules []ModuleMeta) string {
	byTitle := make(map[string]ModuleMeta, len(modules))
	for _, m := range modules {
		byTitle[NormalizeTitle(m.Title)] = m
	}

	return titleToken.ReplaceAllStringFunc(markdown, func(token string) string {
		title := titleToken.FindStringSubmatch(token)[1]
		target, ok := byTitle[NormalizeTitle(title)]
		if !ok {
			return token
		}
		return Link(target)
	})
}

// Duplicates reports normalised titles shared by more than one module, in
// first-seen order. Callers use it to warn about ambiguous title references.
func Duplicates(modules []ModuleMeta) []string {
	seen := make(map[string]int, len(modules))
	var dups []string
	for _, m := range modules {
		key := NormalizeTitle(m.Title)
		seen[key]++
		if seen[key] == 2 {
			dups = append(dups, key)
		}
	}
	return dups
}
