package main

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sort"

	"nikand.dev/go/cli"
	"nikand.dev/go/cli/flag"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/ext/tlflag"
	"tlog.app/go/tlog/tlwire"

	wasm "nikand.dev/go/wasmiface"
)

type (
	bytearr []byte
)

var lenient bool

func main() {
	dump := &cli.Command{
		Name:        "dump",
		Description: "log decoded module structure",
		Args:        cli.Args{},
		Action:      dumpRun,
	}

	app := &cli.Command{
		Name:        "wasmiface",
		Description: "print imports and exports of a wasm module",
		Args:        cli.Args{},
		Before:      before,
		Action:      interfaceRun,
		Flags: []*cli.Flag{
			cli.NewFlag("log", "stderr?dm", "log output file (or stderr)"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.NewFlag("debug", "", "debug address", flag.Hidden),
			cli.NewFlag("lenient", false, "accept non-minimal LEB128 integers"),
			cli.FlagfileFlag,
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			dump,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	w, err := tlflag.OpenWriter(c.String("log"))
	if err != nil {
		return errors.Wrap(err, "open log file")
	}

	tlog.DefaultLogger = tlog.New(w)

	tlog.SetVerbosity(c.String("verbosity"))

	lenient = c.Bool("lenient")

	if q := c.String("debug"); q != "" {
		l, err := net.Listen("tcp", q)
		if err != nil {
			return errors.Wrap(err, "listen debug")
		}

		tlog.Printw("start debug interface", "addr", l.Addr())

		go func() {
			err := http.Serve(l, nil)
			if err != nil {
				tlog.Printw("debug", "addr", q, "err", err, "", tlog.Fatal)
				panic(err)
			}
		}()
	}

	return nil
}

func interfaceRun(c *cli.Command) error {
	if len(c.Args) != 1 {
		return errors.New("expected exactly one module path, got %d", len(c.Args))
	}

	m, err := decodeFile(c.Args[0], lenient)
	if err != nil {
		return err
	}

	return printInterface(os.Stdout, m)
}

func dumpRun(c *cli.Command) error {
	if len(c.Args) == 0 {
		return errors.New("no modules to dump")
	}

	for _, a := range c.Args {
		m, err := decodeFile(a, lenient)
		if err != nil {
			return err
		}

		dumpModule(a, m)
	}

	return nil
}

func decodeFile(name string, lenient bool) (*wasm.Module, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	var d wasm.Decoder
	d.AllowPadded = lenient

	m := &wasm.Module{}

	err = d.Module(data, m)
	if err != nil {
		return nil, errors.Wrap(err, "decode %v", name)
	}

	tlog.V("decode").Printw("decoded", "file", name, "size", len(data), "state", d.State())

	return m, nil
}

// printInterface writes sorted import and export lines.
func printInterface(w io.Writer, m *wasm.Module) error {
	imports := wasm.Imports(m)
	exports := wasm.Exports(m)

	sort.Strings(imports)
	sort.Strings(exports)

	_, err := fmt.Fprintf(w, "imports:\n")
	if err != nil {
		return errors.Wrap(err, "write")
	}

	for _, l := range imports {
		_, err = fmt.Fprintf(w, "  %s\n", l)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	_, err = fmt.Fprintf(w, "\nexports:\n")
	if err != nil {
		return errors.Wrap(err, "write")
	}

	for _, l := range exports {
		_, err = fmt.Fprintf(w, "  %s\n", l)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func dumpModule(name string, m *wasm.Module) {
	tlog.Printw("module", "file", name, "version", m.Version, "sections", bytearr(m.Sections))

	for i, v := range m.Type {
		tlog.Printw("type", "i", i, "params", v.Params, "results", v.Results)
	}

	for i, v := range m.Import {
		tlog.Printw("import", "i", i, "mod", v.Module, "name", v.Name, "kind", v.Desc.Kind, "desc", wasm.Describe(m, v.Desc))
	}

	for i, v := range m.Function {
		tlog.Printw("function", "i", i, "tp", v)
	}

	for i, v := range m.Table {
		tlog.Printw("table", "i", i, "elem", v.Elem, "min", v.Limits.Min, "max", v.Limits.Max, "has_max", v.Limits.HasMax)
	}

	for i, v := range m.Memory {
		tlog.Printw("memory", "i", i, "min", v.Limits.Min, "max", v.Limits.Max, "has_max", v.Limits.HasMax, "shared", v.Limits.Shared)
	}

	for i, v := range m.Global {
		tlog.Printw("global", "i", i, "tp", v.Type, "mut", v.Mutable, "init", v.Init)
	}

	for i, v := range m.Export {
		tlog.Printw("export", "i", i, "name", v.Name, "kind", v.Desc.Kind, "index", v.Index, "desc", wasm.Describe(m, v.Desc))
	}

	for i, v := range m.Custom {
		tlog.Printw("custom", "i", i, "name", v.Name, "size", len(v.Data))
	}

	tlog.Printw("index spaces", "funcs", len(m.Funcs), "tables", len(m.Tables), "memories", len(m.Memories), "globals", len(m.Globals))
}

func (a bytearr) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendArray(b, len(a))

	for _, v := range a {
		b = e.AppendInt(b, int(v))
	}

	return b
}
