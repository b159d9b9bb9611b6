package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/platdesc/internal/catalog"
	"github.com/vk/platdesc/internal/ctxlog"
	"github.com/vk/platdesc/internal/driver"
	"github.com/vk/platdesc/internal/machine"
	"github.com/vk/platdesc/internal/periphs"
	"github.com/vk/platdesc/internal/report"
)

// main checks a platform description against a fresh machine with the stock
// peripheral catalog and prints the diagnostics it produces.
func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func run(outW, errW io.Writer, args []string) error {
	flags := flag.NewFlagSet("platdesc-check", flag.ContinueOnError)
	flags.SetOutput(errW)
	verbose := flags.Bool("v", false, "enable debug logging")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(errW, "usage: platdesc-check [-v] <description file>")
		return errors.New("missing description file")
	}
	file := flags.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errW, &slog.HandlerOptions{Level: level}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	cat := catalog.New()
	if err := periphs.Describe(cat); err != nil {
		return err
	}
	m := machine.New()
	d := driver.New(m, cat, nil, nil)

	if err := d.ProcessFile(ctx, file); err != nil {
		printDiagnostics(errW, err)
		return err
	}

	fmt.Fprintf(outW, "%s: OK, %d peripheral(s) registered\n", file, len(m.Registered()))
	return nil
}

// printDiagnostics renders a driver error through the hcl diagnostic writer,
// quoting the source when the offending file is readable. It falls back to the
// error's own rendering when the writer fails; other errors print as they are.
func printDiagnostics(w io.Writer, err error) {
	var rerr *report.Error
	if !errors.As(err, &rerr) {
		fmt.Fprintln(w, err)
		return
	}

	files := map[string]*hcl.File{}
	if src, readErr := os.ReadFile(rerr.Subject.Filename); readErr == nil {
		files[rerr.Subject.Filename] = &hcl.File{Bytes: src}
	}
	writer := hcl.NewDiagnosticTextWriter(w, files, 100, false)
	if werr := writer.WriteDiagnostic(rerr.Diagnostic()); werr != nil {
		fmt.Fprintln(w, rerr)
	}
}
