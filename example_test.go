package textbook_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-textbook"
)

func strPtr(s string) *string { return &s }

// Example compiles two modules to HTML. Leave HTMLOnly unset for a PDF
// (requires Chrome).
func Example() {
	comp, err := textbook.NewCompiler(textbook.WithDateFormat("none"))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer comp.Close()

	result, err := comp.Compile(context.Background(), textbook.Input{
		CourseName:      "Programming 101",
		CompilationName: "Week 1",
		Modules: []textbook.Module{
			{ID: "vars", Title: "Variables", Type: textbook.TypeDefinition, Body: strPtr("A name bound to a value.")},
			{ID: "loops", Title: "Loops", Type: textbook.TypeExplanation, Body: strPtr("Loops reuse @module[Variables].")},
		},
		HTMLOnly: true,
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(result.Modules)
	fmt.Println(strings.Contains(result.HTML, `<a href="#module-vars">Variables</a>`))
	// Output:
	// [vars loops]
	// true
}

// ExampleComputeOrder shows how a saved order combines with the course.
func ExampleComputeOrder() {
	modules := []textbook.Module{
		{ID: "a", Body: strPtr("a")},
		{ID: "b", Body: strPtr("b")},
		{ID: "c", Body: strPtr("c")},
		{ID: "draft"},
	}
	order := []textbook.OrderEntry{
		{ModuleID: "c", Include: true},
		{ModuleID: "a", Include: false},
	}

	for _, m := range textbook.ComputeOrder(order, modules) {
		fmt.Println(m.ID)
	}
	// Output:
	// c
	// b
}

// ExampleCompilerPool shares browsers between concurrent compiles.
func ExampleCompilerPool() {
	pool := textbook.NewCompilerPool(textbook.ResolvePoolSize(2))
	defer pool.Close()

	result, err := pool.Compile(context.Background(), textbook.Input{
		CourseName: "Algebra",
		Modules:    []textbook.Module{{ID: "m1", Title: "Sets", Body: strPtr("# Sets")}},
		HTMLOnly:   true,
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(pool.Size(), len(result.Modules))
	// Output: 2 1
}
