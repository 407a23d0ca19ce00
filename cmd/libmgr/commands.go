package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/maruel/bookshelf/internal/books"
	"github.com/maruel/bookshelf/internal/cli"
	"github.com/maruel/bookshelf/internal/session"
)

type app struct {
	m       *session.Manager
	stdout  io.Writer
	confirm func(question string) (bool, error)
}

type command struct {
	name string
	help string
	run  func(a *app, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"list", "[-sort COL]... list records", (*app).list},
		{"filter", "[criteria] [-sort COL]... list matching records", (*app).list},
		{"show", "[criteria] <pos> show one displayed record", (*app).show},
		{"add", "[-isbn ...] [-title ...] ... add a record", (*app).add},
		{"edit", "[-title ...] ... <isbn> update the record with this ISBN", (*app).edit},
		{"delete", "[-yes] [criteria] <pos>... delete displayed records", (*app).delete},
		{"conflicts", "<file> list Signatures shared with an import source", (*app).conflicts},
		{"merge", "<file> import records with new Signatures", (*app).merge},
		{"import", "<file> replace the catalog with a source (csv backend)", (*app).replace},
		{"export", "[criteria] <file> export the displayed records", (*app).export},
		{"copy", "[criteria] <pos>... print displayed records tab-separated", (*app).copyRows},
	}
}

func (a *app) run(name string, args []string) error {
	for _, c := range commands {
		if c.name == name {
			return c.run(a, args)
		}
	}
	return fmt.Errorf("unknown command %q", name)
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// parseView parses criteria and sort flags and applies them to the session.
func (a *app) parseView(name string, args []string, extra func(fs *flag.FlagSet)) ([]string, error) {
	fs := newFlagSet(name)
	var v cli.ViewFlags
	v.Register(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.Apply(a.m.Session); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one %s", what)
	}
	return args[0], nil
}

func (a *app) list(args []string) error {
	rest, err := a.parseView("list", args, nil)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return fmt.Errorf("unknown arguments: %v", rest)
	}
	return cli.WriteTable(a.stdout, a.m.Session)
}

func (a *app) show(args []string) error {
	rest, err := a.parseView("show", args, nil)
	if err != nil {
		return err
	}
	arg, err := oneArg(rest, "position")
	if err != nil {
		return err
	}
	pos, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid position %q", arg)
	}
	b, err := a.m.Row(pos)
	if err != nil {
		return err
	}
	return cli.WriteBook(a.stdout, b)
}

func (a *app) add(args []string) error {
	fs := newFlagSet("add")
	var f cli.BookFlags
	f.Register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("unknown arguments: %v", fs.Args())
	}
	if err := a.m.Add(f.Book()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(a.stdout, "Record added.")
	return err
}

func (a *app) edit(args []string) error {
	fs := newFlagSet("edit")
	var f cli.BookFlags
	f.Register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	isbn, err := oneArg(fs.Args(), "ISBN")
	if err != nil {
		return err
	}
	pos := books.IndexOfISBN(a.m.Current(), isbn)
	if pos < 0 {
		return books.RecordNotFound(isbn)
	}
	row, err := a.m.Row(pos)
	if err != nil {
		return err
	}
	if err := a.m.EditDisplayed(pos, f.Overlay(row)); err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, "Record updated.")
	return err
}

func (a *app) delete(args []string) error {
	var yes bool
	rest, err := a.parseView("delete", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&yes, "yes", false, "Do not ask for confirmation")
	})
	if err != nil {
		return err
	}
	positions, err := cli.Positions(rest)
	if err != nil {
		return err
	}
	rows, err := a.m.Selected(positions)
	if err != nil {
		return err
	}
	if !yes {
		for _, b := range rows {
			if _, err := fmt.Fprintf(a.stdout, "  %s  %s\n", b.ISBN, b.Title); err != nil {
				return err
			}
		}
		ok, err := a.confirm(fmt.Sprintf("Delete %d record(s)?", len(rows)))
		if err != nil {
			return err
		}
		if !ok {
			_, err := fmt.Fprintln(a.stdout, "Cancelled.")
			return err
		}
	}
	n, err := a.m.DeleteDisplayed(positions)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "Deleted %d record(s).\n", n)
	return err
}

func (a *app) conflicts(args []string) error {
	path, err := oneArg(args, "file")
	if err != nil {
		return err
	}
	sigs, err := a.m.Conflicts(path)
	if err != nil {
		return err
	}
	if len(sigs) == 0 {
		_, err := fmt.Fprintln(a.stdout, "No conflicting signatures.")
		return err
	}
	for _, s := range sigs {
		if _, err := fmt.Fprintln(a.stdout, s); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) merge(args []string) error {
	path, err := oneArg(args, "file")
	if err != nil {
		return err
	}
	imported, skipped, err := a.m.Merge(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "Imported %d record(s), skipped %d duplicate(s).\n", imported, skipped)
	return err
}

func (a *app) replace(args []string) error {
	path, err := oneArg(args, "file")
	if err != nil {
		return err
	}
	if err := a.m.Replace(path); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "Catalog replaced, %d record(s).\n", a.m.Total())
	return err
}

func (a *app) export(args []string) error {
	rest, err := a.parseView("export", args, nil)
	if err != nil {
		return err
	}
	path, err := oneArg(rest, "file")
	if err != nil {
		return err
	}
	if err := a.m.Export(path); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.stdout, "Exported %d record(s) to %s.\n", a.m.Len(), path)
	return err
}

func (a *app) copyRows(args []string) error {
	rest, err := a.parseView("copy", args, nil)
	if err != nil {
		return err
	}
	positions, err := cli.Positions(rest)
	if err != nil {
		return err
	}
	out, err := a.m.CopyRows(positions)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, out)
	return err
}
