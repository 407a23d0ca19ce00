// Package main is the entry point for libmgr, the Library Manager.
//
// libmgr maintains a book catalog stored either in a semicolon-separated
// file or in a SQLite database. Configuration is read from CLI flags, an
// optional bookshelf.yaml and BOOKSHELF_* environment variables.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/books/csvstore"
	"github.com/maruel/bookshelf/internal/books/sqlstore"
	"github.com/maruel/bookshelf/internal/cli"
	"github.com/maruel/bookshelf/internal/config"
	"github.com/maruel/bookshelf/internal/session"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, books.ErrEmptyExport) {
			fmt.Fprintf(os.Stderr, "libmgr: warning: %v\n", err)
			return
		}
		fmt.Fprintf(os.Stderr, "libmgr: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func mainImpl() error {
	version := flag.Bool("version", false, "Print version and exit")
	configFile := flag.String("config", "", "YAML configuration file (default: bookshelf.yaml in the data directory)")
	dataDir := flag.String("data-dir", "", "Directory holding the catalog (default: next to the executable)")
	backend := flag.String("backend", "csv", "Storage backend (csv, sqlite)")
	dataFile := flag.String("data-file", "", "Semicolon-separated catalog of the csv backend")
	database := flag.String("database", "", "SQLite database of the sqlite backend")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	if *version {
		cli.PrintVersion(os.Stdout, "libmgr")
		return nil
	}
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("missing command")
	}

	ll := cli.NewLogger()
	dir := *dataDir
	if dir == "" {
		dir = config.AppDir()
	}
	cfg, err := config.Load(*configFile, dir)
	if err != nil {
		return err
	}

	// Flags explicitly set on the command line win over the file and env.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if set["backend"] {
		cfg.Backend = *backend
	}
	if set["data-file"] {
		cfg.DataFile = *dataFile
	}
	if set["database"] {
		cfg.Database = *database
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

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	m, err := session.NewManager(store)
	if err != nil {
		return err
	}
	a := &app{m: m, stdout: os.Stdout, confirm: confirmFrom(os.Stdin, os.Stdout)}
	return a.run(flag.Arg(0), flag.Args()[1:])
}

func openStore(cfg *config.Config) (books.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		slog.Debug("Using SQLite backend", "path", cfg.Database)
		return sqlstore.New(cfg.Database)
	default:
		slog.Debug("Using CSV backend", "path", cfg.DataFile)
		return csvstore.New(cfg.DataFile)
	}
}

// errNoTerminal is returned when a confirmation is needed but stdin is not a
// terminal.
var errNoTerminal = errors.New("stdin is not a terminal; pass -yes to skip confirmation")

// confirmFrom returns a confirmation prompt reading answers from in. Only a
// terminal can answer; piped input is refused so that a script never
// deletes without -yes.
func confirmFrom(in *os.File, out io.Writer) func(string) (bool, error) {
	return func(question string) (bool, error) {
		if !isatty.IsTerminal(in.Fd()) && !isatty.IsCygwinTerminal(in.Fd()) {
			return false, errNoTerminal
		}
		if _, err := fmt.Fprintf(out, "%s [y/N]: ", question); err != nil {
			return false, err
		}
		val, err := bufio.NewReader(in).ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("failed to read answer: %w", err)
		}
		val = strings.ToLower(strings.TrimSpace(val))
		return val == "y" || val == "yes", nil
	}
}

func usage() {
	out := flag.CommandLine.Output()
	_, _ = fmt.Fprintf(out, "usage: libmgr [flags] <command> [args]\n\n")
	_, _ = fmt.Fprintf(out, "commands:\n")
	for _, c := range commands {
		_, _ = fmt.Fprintf(out, "  %-10s %s\n", c.name, c.help)
	}
	_, _ = fmt.Fprintf(out, "\nflags:\n")
	flag.PrintDefaults()
}
