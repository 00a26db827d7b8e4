// Package pipeline turns an ordered list of module bodies into one HTML
// textbook.
//
// Each module body goes through these stages:
//   - line-ending normalisation
//   - reference resolution against every module in the document
//   - markdown to HTML via goldmark (GFM, hard line breaks, highlighting)
//   - optional sanitisation (bluemonday)
//
// The Assembler then writes the title block, a table of contents and one
// <section id="module-<id>"> per module into the document template.
//
// PDF rendering is handled by the root textbook package using headless Chrome.
// This package only knows about HTML.
package pipeline
