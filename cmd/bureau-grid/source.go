// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/gridkit/cmd/bureau-grid/cli"
	"github.com/bureau-foundation/gridkit/lib/config"
	"github.com/bureau-foundation/gridkit/lib/gridsource"
	"github.com/bureau-foundation/gridkit/lib/sqlitepool"
)

// fieldSampleSize is how many records are read from a socket source to
// discover its fields.
const fieldSampleSize = 100

// openedSource is a source plus what the command needs around it.
type openedSource struct {
	source gridsource.Source
	name   string

	// fields lists the source's fields in display order.
	fields func(ctx context.Context) ([]string, error)

	close func()
}

// openSource opens the one source cfg selects.
func openSource(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (*openedSource, error) {
	switch {
	case cfg.File != "":
		source, stop, err := gridsource.WatchJSONL(cfg.File, gridsource.WatchOptions{
			JSONLOptions: gridsource.JSONLOptions{
				KeyField:     cfg.KeyField,
				DetailField:  cfg.DetailField,
				SearchFields: cfg.SearchFields,
			},
			Logger: logger,
		})
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, cli.NotFound("cannot load %s: %w", cfg.File, err)
			}
			return nil, cli.Validation("cannot load %s: %w", cfg.File, err).
				WithHint("Each non-blank line must be one JSON object.")
		}
		return &openedSource{
			source: source,
			name:   cfg.File,
			fields: func(context.Context) ([]string, error) { return source.Fields(), nil },
			close:  stop,
		}, nil

	case cfg.SQLite != "":
		pool, err := sqlitepool.Open(sqlitepool.Config{Path: cfg.SQLite, ReadOnly: true, Logger: logger})
		if err != nil {
			return nil, cli.NotFound("cannot open %s: %w", cfg.SQLite, err)
		}
		source, err := gridsource.OpenSQLiteSource(ctx, pool, gridsource.SQLiteOptions{
			Table:         cfg.Table,
			KeyColumn:     cfg.KeyField,
			DetailColumn:  cfg.DetailField,
			SearchColumns: cfg.SearchFields,
			Logger:        logger,
		})
		if err != nil {
			pool.Close()
			return nil, cli.Validation("cannot open table %q in %s: %w", cfg.Table, cfg.SQLite, err)
		}
		return &openedSource{
			source: source,
			name:   cfg.SQLite + ":" + cfg.Table,
			fields: func(context.Context) ([]string, error) {
				var names []string
				for _, column := range source.Columns() {
					names = append(names, column.Name)
				}
				return names, nil
			},
			close: func() { pool.Close() },
		}, nil

	case cfg.Socket != "":
		source := gridsource.NewSocketSource(cfg.Socket, logger)
		return &openedSource{
			source: source,
			name:   cfg.Socket,
			fields: func(ctx context.Context) ([]string, error) { return sampleFields(ctx, source) },
			close:  source.Close,
		}, nil
	}
	return nil, cli.Validation("no source given").
		WithHint("Pass --file, --sqlite with --table, or --socket, or set source in the config file.")
}

// sampleFields discovers fields from the first page of source, for
// sources that cannot list them up front.
func sampleFields(ctx context.Context, source gridsource.Source) ([]string, error) {
	page, err := source.Fetch(ctx, gridsource.Request{PageSize: fieldSampleSize})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var fields []string
	for _, record := range page.Records {
		for field := range record.Fields {
			if !seen[field] {
				seen[field] = true
				fields = append(fields, field)
			}
		}
	}
	slices.Sort(fields)
	return fields, nil
}
