package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"

	"github.com/maruel/bookshelf/internal/cli"
	"github.com/maruel/bookshelf/internal/session"
)

type viewer struct {
	s      *session.Session
	path   string
	stdout io.Writer
}

type command struct {
	name string
	help string
	run  func(v *viewer, ctx context.Context, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"list", "[-sort COL]... list records", (*viewer).list},
		{"filter", "[criteria] [-sort COL]... list matching records", (*viewer).list},
		{"show", "[criteria] <pos> show one displayed record", (*viewer).show},
		{"export", "[criteria] <file> export the displayed records", (*viewer).export},
		{"copy", "[criteria] <pos>... print displayed records tab-separated", (*viewer).copyRows},
		{"watch", "[criteria] [-sort COL]... list records, again on every change", (*viewer).watch},
	}
}

func (v *viewer) run(ctx context.Context, name string, args []string) error {
	for _, c := range commands {
		if c.name == name {
			return c.run(v, ctx, args)
		}
	}
	return fmt.Errorf("unknown command %q", name)
}

func (v *viewer) parseView(name string, args []string) (*cli.ViewFlags, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	var vf cli.ViewFlags
	vf.Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if err := vf.Apply(v.s); err != nil {
		return nil, nil, err
	}
	return &vf, fs.Args(), nil
}

func (v *viewer) list(_ context.Context, args []string) error {
	_, rest, err := v.parseView("list", args)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("unknown arguments: %v", rest)
	}
	return cli.WriteTable(v.stdout, v.s)
}

func (v *viewer) show(_ context.Context, args []string) error {
	_, rest, err := v.parseView("show", args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("expected exactly one position")
	}
	pos, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("invalid position %q", rest[0])
	}
	b, err := v.s.Row(pos)
	if err != nil {
		return err
	}
	return cli.WriteBook(v.stdout, b)
}

func (v *viewer) export(_ context.Context, args []string) error {
	_, rest, err := v.parseView("export", args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("expected exactly one file")
	}
	if err := v.s.Export(rest[0]); err != nil {
		return err
	}
	_, err = fmt.Fprintf(v.stdout, "Exported %d record(s) to %s.\n", v.s.Len(), rest[0])
	return err
}

func (v *viewer) copyRows(_ context.Context, args []string) error {
	_, rest, err := v.parseView("copy", args)
	if err != nil {
		return err
	}
	positions, err := cli.Positions(rest)
	if err != nil {
		return err
	}
	out, err := v.s.CopyRows(positions)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(v.stdout, out)
	return err
}

// watch prints the table, then prints it again each time the catalog file
// changes, until ctx is done. While a filter is active the displayed rows are
// kept as is.
func (v *viewer) watch(ctx context.Context, args []string) error {
	vf, rest, err := v.parseView("watch", args)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("unknown arguments: %v", rest)
	}
	if err := cli.WriteTable(v.stdout, v.s); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	// Watch the directory: writers replace the file by renaming a temporary
	// one over it.
	if err := w.Add(filepath.Dir(v.path)); err != nil {
		return err
	}
	name := filepath.Clean(v.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name || (!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create)) {
				continue
			}
			if v.s.Filtered() {
				slog.DebugContext(ctx, "Filter active, not reloading", "path", v.path)
				continue
			}
			if err := v.s.Refresh(); err != nil {
				slog.WarnContext(ctx, "Failed to reload catalog", "err", err)
				continue
			}
			v.s.Sorter().Reset()
			for _, col := range vf.Sort {
				if err := v.s.SortBy(col); err != nil {
					return err
				}
			}
			if err := cli.WriteTable(v.stdout, v.s); err != nil {
				return err
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Error watching catalog", "err", err)
		}
	}
}
