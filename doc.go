// Package textbook compiles an ordered selection of course modules into a
// single HTML document and, optionally, a PDF.
//
// # Quick Start
//
//	comp, err := textbook.NewCompiler()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer comp.Close()
//
//	body := "See @module:m1 for the basics."
//	result, err := comp.Compile(ctx, textbook.Input{
//	    CourseName:      "Algebra",
//	    CompilationName: "Unit 1",
//	    Modules: []textbook.Module{
//	        {ID: "m2", Title: "Equations", Type: textbook.TypeExplanation, Body: &body},
//	    },
//	})
//
// Result.HTML always holds the assembled document. Result.PDF is empty when
// Input.HTMLOnly is set.
//
// # Pipeline
//
//  1. ComputeOrder turns the saved order and the course modules into the
//     final sequence (included entries first, unreferenced modules appended,
//     modules without a body dropped).
//  2. Each body is normalized, its @module:<id> and @module[<title>] tokens
//     are rewritten into links to module-<id> anchors, and it is rendered
//     with goldmark (GFM, hard wraps, chroma classes).
//  3. The embedded text/template wraps the title block, the table of
//     contents and one section per module.
//  4. A headless Chrome prints the document to an A4 PDF.
//
// # Trust Model
//
// Titles, names and module bodies are written into the document without
// escaping. Enable WithSanitize to run rendered module HTML through
// bluemonday's UGC policy; the title block and headings are still verbatim.
//
// # Parallel Compiles
//
// A Compiler owns one browser. CompilerPool hands out Compilers to
// concurrent callers and creates them lazily up to its size.
package textbook
