package main

import (
	"fmt"
	"io"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: textbook <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Run the course API server")
	fmt.Fprintln(w, "  compile    Compile textbooks from YAML manifests")
	fmt.Fprintln(w, "  doctor     Check browser and database setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'textbook help <command>' for details on a specific command.")
}

func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: textbook serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the HTTP API. Requires auth.jwtSecret (32+ bytes).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --addr <host:port>    Listen address (default :8080)")
	fmt.Fprintln(w, "  -v, --verbose             Development logging")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment overrides use the TEXTBOOK_ prefix, e.g.")
	fmt.Fprintln(w, "TEXTBOOK_AUTH_JWT_SECRET, TEXTBOOK_DATABASE_DSN, TEXTBOOK_PDF_NO_SANDBOX.")
}

func printCompileUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: textbook compile <manifest.yaml>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compile one textbook per manifest. A manifest names the course,")
	fmt.Fprintln(w, "the compilation, the modules (inline body or file) and their order.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (one manifest) or directory")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel compilers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Page load timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w, "      --html                Also write HTML next to the PDF")
	fmt.Fprintln(w, "      --html-only           Write HTML only, skip PDF")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
}

func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: textbook doctor [--config <name>] [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the browser, the database and the runtime environment.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "serve":
		printServeUsage(env.Stdout)
	case "compile":
		printCompileUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: textbook version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: textbook help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
