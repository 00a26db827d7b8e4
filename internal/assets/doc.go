// Package assets provides the stylesheet and HTML scaffold of a compiled
// textbook.
//
// Both are embedded at build time:
//
//	styles/textbook.css        inline stylesheet (screen and print rules)
//	templates/textbook.html    text/template scaffold: title block, TOC, sections
//
// An operator may point textbook.assetPath at a directory with the same
// layout. AssetResolver reads from that directory first and falls back to the
// embedded copy when a name is missing there. Names are validated, and the
// FilesystemLoader refuses to follow symlinks out of its base directory.
package assets
