// Command saynaa is the command-line front end for the runtime: it wires
// a host.Configuration to the OS, compiles and runs a script (or a `-c`
// inline string), and reports a Result-matching exit code. Grounded on
// the teacher's cmd/smog/main.go, restructured onto urfave/cli.v1 (as
// ProbeChain-go-probe's cmd/gprobe does) for the flag surface the
// specification's external-interfaces section requires.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/kristofer/saynaa/internal/frontend"
	"github.com/kristofer/saynaa/internal/host"
	"github.com/kristofer/saynaa/internal/vm"
)

// Result mirrors the specification's exit-code enumeration. UnexpectedEOF
// is reserved for the REPL's "need more input" sub-variant and is never
// returned by this batch-mode front end.
type Result int

const (
	Success Result = iota
	UnexpectedEOF
	CompileError
	RuntimeError
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "saynaa"
	app.Usage = "run saynaa scripts"
	app.Version = version
	app.HideVersion = true // -v is repurposed below to match the spec's flag surface
	app.ArgsUsage = "[script]"

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "c", Usage: "run the given source string instead of a file"},
		cli.BoolFlag{Name: "d", Usage: "enable the interactive debugger (pauses at breakpoints and in step mode)"},
		cli.BoolFlag{Name: "q", Usage: "suppress the startup banner"},
		cli.BoolFlag{Name: "v", Usage: "print the version and exit"},
		cli.BoolFlag{Name: "m", Usage: "print elapsed runtime in milliseconds"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(RuntimeError))
	}
}

func run(ctx *cli.Context) error {
	stdout := colorable.NewColorableStdout()

	if ctx.Bool("v") {
		fmt.Fprintf(stdout, "saynaa %s\n", version)
		return nil
	}

	source, name, err := loadSource(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(CompileError))
		return nil
	}

	if !ctx.Bool("q") {
		fmt.Fprintf(stdout, "saynaa %s\n", version)
	}

	start := time.Now()
	result := execute(ctx, name, source)
	if ctx.Bool("m") {
		fmt.Fprintf(stdout, "%dms\n", time.Since(start).Milliseconds())
	}
	if result != Success {
		os.Exit(int(result))
	}
	return nil
}

// loadSource resolves the script to run from either -c or the first
// positional argument, matching the specification's "positional argument
// is the script path" rule.
func loadSource(ctx *cli.Context) (source, name string, err error) {
	if src := ctx.String("c"); src != "" {
		return src, "<command-line>", nil
	}
	path := ctx.Args().First()
	if path == "" {
		return "", "", fmt.Errorf("saynaa: no script given (use -c <src> or a file path)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("saynaa: cannot read %s: %w", path, err)
	}
	return string(data), path, nil
}

// execute compiles and runs source on a fresh VM, reporting compile and
// runtime errors to stderr. With -d the VM's debugger is enabled first;
// it does not stop on runtime errors.
func execute(ctx *cli.Context, name, source string) Result {
	v := vm.New()
	v.Configure(host.Default(), host.NewModuleCache(64), frontend.NewCompiler(name))
	if ctx.Bool("d") {
		v.EnableDebugger()
	}

	mod, err := v.CompileSource(name, source)
	if err != nil {
		reportError(os.Stderr, "compile error: %v\n", err)
		return CompileError
	}

	if mod.Main == nil {
		reportError(os.Stderr, "compile error: module has no entry point\n")
		return CompileError
	}

	fiber := v.PrepareFiber(mod.Main, nil)
	if _, err := v.RunFiber(fiber); err != nil {
		reportError(os.Stderr, "runtime error: %v\n", err)
		return RuntimeError
	}
	mod.MarkInitialized()
	return Success
}

// reportError writes a formatted message to w in red when stdout is a
// terminal, and plainly otherwise, matching the specification's carve-out
// that tty-aware colorization is a CLI-only concern the core never sees.
func reportError(w io.Writer, format string, a ...interface{}) {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		color.New(color.FgRed).Fprintf(w, format, a...)
		return
	}
	fmt.Fprintf(w, format, a...)
}
