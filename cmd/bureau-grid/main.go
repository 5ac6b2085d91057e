// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// bureau-grid is a terminal data grid over a JSONL file, a SQLite
// table or a gridkit source server. Rows are fetched page by page as
// the view scrolls toward the bottom; sorting and filtering happen at
// the source, and live changes refetch the loaded rows in place.
//
// Three sources are supported:
//
// File (--file): a JSONL file, one object per line, watched with
// inotify so edits show up while the grid is open.
//
// SQLite (--sqlite, --table): one table of a database opened
// read-only. Sorting and filtering run as SQL.
//
// Socket (--socket): a source served by another process, typically
// "bureau-grid --serve".
//
// With --serve the command opens its file or SQLite source and serves
// it on a unix socket instead of starting the TUI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/gridkit/cmd/bureau-grid/cli"
	"github.com/bureau-foundation/gridkit/lib/config"
	"github.com/bureau-foundation/gridkit/lib/datagrid"
	"github.com/bureau-foundation/gridkit/lib/gridsource"
	"github.com/bureau-foundation/gridkit/lib/sorturl"
	"github.com/bureau-foundation/gridkit/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flags holds the parsed command line. Zero values mean "not given";
// parseFlags records which flags were set explicitly so they override
// the config file only then.
type flags struct {
	configPath  string
	file        string
	sqlite      string
	table       string
	socket      string
	serve       string
	sort        string
	logOutput   string
	logLevel    string
	keyField    string
	detailField string
	columns     []string
	pageSize    int
	flow        bool
	multiSort   bool
	printSort   bool
	showVersion bool

	flagSet *pflag.FlagSet
}

func newFlagSet(parsed *flags) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("bureau-grid", pflag.ContinueOnError)
	flagSet.StringVar(&parsed.configPath, "config", "", "config file (default: $"+config.EnvVar+" when set)")
	flagSet.StringVarP(&parsed.file, "file", "f", "", "JSONL file to show, watched for changes")
	flagSet.StringVar(&parsed.sqlite, "sqlite", "", "SQLite database to show (requires --table)")
	flagSet.StringVar(&parsed.table, "table", "", "table to show from the --sqlite database")
	flagSet.StringVar(&parsed.socket, "socket", "", "unix socket of a gridkit source server")
	flagSet.StringVar(&parsed.serve, "serve", "", "serve the file or SQLite source on this unix socket instead of opening the grid")
	flagSet.StringVar(&parsed.sort, "sort", "", `initial sort as a query string, e.g. "sort=NAME_ASC&sort=AGE_DESC"`)
	flagSet.StringVar(&parsed.logOutput, "log-output", "", "write JSON log records to this file (in addition to the status bar)")
	flagSet.StringVar(&parsed.logLevel, "log-level", "", "lowest level written to --log-output: debug, info, warn or error")
	flagSet.StringVar(&parsed.keyField, "key-field", "", "field holding each row's key (default: id, or rowid for SQLite)")
	flagSet.StringVar(&parsed.detailField, "detail-field", "", "field shown as markdown when a row is expanded")
	flagSet.StringSliceVar(&parsed.columns, "columns", nil, "fields to show, in order (default: every field)")
	flagSet.IntVar(&parsed.pageSize, "page-size", 0, "rows fetched per page")
	flagSet.BoolVar(&parsed.flow, "flow", false, "render every loaded row instead of only the visible window")
	flagSet.BoolVar(&parsed.multiSort, "multi-sort", false, "keep other sorted columns when toggling one")
	flagSet.BoolVar(&parsed.printSort, "print-sort", false, "print the final sort query string on exit")
	flagSet.BoolVar(&parsed.showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.SetOutput(io.Discard)
	parsed.flagSet = flagSet
	return flagSet
}

func run(args []string) error {
	var parsed flags
	flagSet := newFlagSet(&parsed)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return cli.Validation("%w", err).WithHint("Run bureau-grid --help for usage.")
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if parsed.showVersion {
		version.Fprint(os.Stdout, "bureau-grid")
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return cli.Validation("unexpected argument: %s", rest[0])
	}

	cfg, err := loadConfig(parsed.configPath, os.Getenv)
	if err != nil {
		return cli.Validation("%w", err)
	}
	parsed.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return cli.Validation("invalid configuration:\n%w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if parsed.serve != "" {
		return serve(ctx, cfg, parsed.serve)
	}
	return runGrid(ctx, cfg, parsed.printSort)
}

// loadConfig picks the configuration: an explicit path, then the
// environment variable, then the defaults.
func loadConfig(path string, getenv func(string) string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if getenv(config.EnvVar) != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// apply overrides cfg with every flag given on the command line. A
// source flag replaces the configured source entirely.
func (parsed *flags) apply(cfg *config.Config) {
	changed := parsed.flagSet.Changed
	if changed("file") || changed("sqlite") || changed("socket") {
		cfg.Source.File, cfg.Source.SQLite, cfg.Source.Socket = parsed.file, parsed.sqlite, parsed.socket
	}
	if changed("table") {
		cfg.Source.Table = parsed.table
	}
	if changed("key-field") {
		cfg.Source.KeyField = parsed.keyField
	}
	if changed("detail-field") {
		cfg.Source.DetailField = parsed.detailField
	}
	if changed("columns") {
		cfg.Columns = cfg.Columns[:0]
		for _, field := range parsed.columns {
			cfg.Columns = append(cfg.Columns, config.ColumnConfig{Field: field})
		}
	}
	if changed("page-size") {
		cfg.Grid.PageSize = parsed.pageSize
	}
	if changed("flow") {
		cfg.Grid.Mode = config.ModeVirtual
		if parsed.flow {
			cfg.Grid.Mode = config.ModeFlow
		}
	}
	if changed("multi-sort") {
		cfg.Grid.MultiSort = parsed.multiSort
	}
	if changed("sort") {
		cfg.Grid.Sort = parsed.sort
	}
	if changed("log-output") {
		cfg.Log.Output = parsed.logOutput
	}
	if changed("log-level") {
		cfg.Log.Level = parsed.logLevel
	}
}

// runGrid opens the configured source and runs the TUI until the user
// quits or ctx is cancelled.
//
// Background logging (fetch failures, watcher reloads, socket
// reconnects) goes through a TUILogHandler that shows warnings and
// errors in the status bar instead of writing to stderr, which would
// corrupt the alt-screen display. --log-output additionally captures
// records to a JSON file.
func runGrid(ctx context.Context, cfg *config.Config, printSort bool) error {
	tuiHandler := datagrid.NewTUILogHandler(slog.LevelWarn)
	var handler slog.Handler = tuiHandler
	if cfg.Log.Output != "" {
		fileHandler, closeFile, err := cli.OpenFileLogHandler(cfg.Log.Output, cfg.Log.SlogLevel())
		if err != nil {
			return cli.Validation("cannot open log file %s: %w", cfg.Log.Output, err)
		}
		defer closeFile()
		handler = cli.FanoutHandler{tuiHandler, fileHandler}
	}
	logger := slog.New(handler)

	opened, err := openSource(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer opened.close()

	fields, err := opened.fields(ctx)
	if err != nil {
		return cli.Transient("cannot read the source's fields: %w", err)
	}
	columns, err := buildColumns(cfg, fields)
	if err != nil {
		return err
	}
	params, err := sorturl.ParseQuery(cfg.Grid.Sort)
	if err != nil {
		return cli.Validation("%w", err).WithHint(`Pass the sort as a query string, e.g. --sort "sort=NAME_ASC".`)
	}

	options := gridOptions(ctx, cfg, opened.source, columns, params, logger)
	grid, err := datagrid.New(options)
	if err != nil {
		return cli.Internal("%w", err)
	}

	program := tea.NewProgram(grid, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	tuiHandler.SetProgram(program)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return cli.Internal("%w", err)
	}
	if printSort {
		fmt.Println(params.Encode())
	}
	return nil
}

// serve opens the configured source and serves it on socketPath until
// ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, socketPath string) error {
	logger := cli.NewCommandLogger(cfg.Log.SlogLevel())
	if cfg.Source.Socket != "" {
		return cli.Validation("--serve needs a file or SQLite source, not another socket")
	}

	opened, err := openSource(ctx, cfg.Source, logger)
	if err != nil {
		return err
	}
	defer opened.close()

	listener, err := gridsource.Listen(socketPath)
	if err != nil {
		return cli.Validation("cannot listen on %s: %w", socketPath, err)
	}
	logger.Info("serving source", "socket", socketPath, "source", opened.name)
	if err := gridsource.Serve(ctx, listener, opened.source, logger); err != nil {
		return cli.Internal("%w", err)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `bureau-grid: a scrolling, sortable terminal grid over server-side data.

Rows are fetched a page at a time as the view nears the bottom.
Sorting (click a header or press s) and filtering (/) run at the
source, and the sort is kept as a query string such as
"sort=NAME_ASC&sort=AGE_DESC".

Usage:
  bureau-grid [flags]

Examples:
  # Browse a JSONL file, live-reloading on change
  bureau-grid --file events.jsonl --detail-field body

  # Browse a SQLite table sorted by age, newest first
  bureau-grid --sqlite app.db --table people --sort "sort=AGE_DESC"

  # Serve a table to other processes, then connect to it
  bureau-grid --sqlite app.db --table people --serve /tmp/people.sock
  bureau-grid --socket /tmp/people.sock

Configuration is read from --config, or from $%s when set. Flags
override the file.

Flags:
`, config.EnvVar)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
