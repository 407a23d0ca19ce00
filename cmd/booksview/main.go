// Package main is the entry point for booksview, the read-only Books Viewer.
//
// booksview lists, filters and exports a tab-separated catalog, and can
// follow the file as another program rewrites it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/books/tsvstore"
	"github.com/maruel/bookshelf/internal/cli"
	"github.com/maruel/bookshelf/internal/config"
	"github.com/maruel/bookshelf/internal/session"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, books.ErrEmptyExport) {
			fmt.Fprintf(os.Stderr, "booksview: warning: %v\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "booksview: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	configFile := flag.String("config", "", "YAML configuration file (default: bookshelf.yaml in the data directory)")
	dataDir := flag.String("data-dir", "", "Directory holding the catalog (default: next to the executable)")
	file := flag.String("file", "", "Tab-separated catalog")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	if *version {
		cli.PrintVersion(os.Stdout, "booksview")
		return nil
	}
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("missing command")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := cli.NewLogger()
	dir := *dataDir
	if dir == "" {
		dir = config.AppDir()
	}
	cfg, err := config.Load(*configFile, dir)
	if err != nil {
		return err
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if set["file"] {
		cfg.ViewerFile = *file
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cli.SetLevel(ll, cfg.LogLevel); err != nil {
		return err
	}

	store, err := tsvstore.New(cfg.ViewerFile)
	if err != nil {
		return err
	}
	s, err := session.NewViewer(store)
	if err != nil {
		return err
	}
	v := &viewer{s: s, path: store.Path(), stdout: os.Stdout}
	return v.run(ctx, flag.Arg(0), flag.Args()[1:])
}

func usage() {
	out := flag.CommandLine.Output()
	_, _ = fmt.Fprintf(out, "usage: booksview [flags] <command> [args]\n\n")
	_, _ = fmt.Fprintf(out, "commands:\n")
	for _, c := range commands {
		_, _ = fmt.Fprintf(out, "  %-8s %s\n", c.name, c.help)
	}
	_, _ = fmt.Fprintf(out, "\nflags:\n")
	flag.PrintDefaults()
}
