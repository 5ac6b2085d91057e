// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/gridkit/cmd/bureau-grid/cli"
	"github.com/bureau-foundation/gridkit/lib/config"
	"github.com/bureau-foundation/gridkit/lib/datagrid"
	"github.com/bureau-foundation/gridkit/lib/gridsource"
	"github.com/bureau-foundation/gridkit/lib/infinite"
	"github.com/bureau-foundation/gridkit/lib/sorturl"
	"github.com/bureau-foundation/gridkit/lib/virtualizer"
)

// buildColumns turns the configured columns into grid columns. With
// no columns configured, every field but the detail field gets one.
func buildColumns(cfg *config.Config, fields []string) ([]datagrid.Column[gridsource.Record], error) {
	configured := cfg.Columns
	if len(configured) == 0 {
		for _, field := range fields {
			if field == cfg.Source.DetailField {
				continue
			}
			configured = append(configured, config.ColumnConfig{Field: field})
		}
	}
	if len(configured) == 0 {
		return nil, cli.Validation("the source has no fields to show").
			WithHint("Add rows to the source, or list the columns with --columns.")
	}

	columns := make([]datagrid.Column[gridsource.Record], 0, len(configured))
	for _, columnConfig := range configured {
		if len(fields) > 0 && !slices.Contains(fields, columnConfig.Field) {
			return nil, cli.Validation("column %q is not a field of the source", columnConfig.Field).
				WithHint("Known fields: " + strings.Join(fields, ", "))
		}
		column := datagrid.RecordColumn(columnConfig.Field, columnConfig.Title)
		column.Width = columnConfig.Width
		column.Wrap = columnConfig.Wrap
		column.Align = alignment(columnConfig.Align)
		switch {
		case !columnConfig.Sortable():
			column.SortKey = ""
		case columnConfig.SortKey != "":
			column.SortKey = columnConfig.SortKey
		}
		columns = append(columns, column)
	}
	return columns, nil
}

func alignment(name string) lipgloss.Position {
	switch name {
	case "right":
		return lipgloss.Right
	case "center":
		return lipgloss.Center
	default:
		return lipgloss.Left
	}
}

// gridOptions assembles the grid options for source from cfg.
func gridOptions(ctx context.Context, cfg *config.Config, source gridsource.Source, columns []datagrid.Column[gridsource.Record], params sorturl.SearchParams, logger *slog.Logger) datagrid.Options[gridsource.Record] {
	options := datagrid.RecordOptions(ctx, source, columns)
	options.Params = params
	options.Policy = sorturl.Policy{
		MultiSort:     cfg.Grid.MultiSort,
		EnableRemoval: cfg.Grid.EnableRemoval,
	}
	options.PageSize = cfg.Grid.PageSize
	options.EstimateRowHeight = cfg.Grid.EstimateRowHeight
	options.Overscan = cfg.Grid.Overscan
	options.Threshold = infinite.Threshold{
		Lines:    cfg.Grid.ThresholdLines,
		Fraction: cfg.Grid.ThresholdFraction,
	}
	options.Flow = cfg.Grid.Flow()
	options.DisableMeasurement = !cfg.Grid.MeasureRows(virtualizer.MeasurementSupported(os.Getenv))
	options.EmptyText = cfg.Grid.EmptyText
	options.Logger = logger
	return options
}
