// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datagrid

import (
	"context"
	"slices"
	"strings"

	"github.com/bureau-foundation/gridkit/lib/gridsource"
	"github.com/bureau-foundation/gridkit/lib/infinite"
	"github.com/bureau-foundation/gridkit/lib/sorturl"
)

// SourceFetch adapts a gridsource.Source to a grid fetch function.
func SourceFetch(source gridsource.Source) FetchFunc[gridsource.Record] {
	return func(ctx context.Context, request Request) (infinite.Page[gridsource.Record], error) {
		page, err := source.Fetch(ctx, gridsource.Request{
			Offset:   request.Offset,
			PageSize: request.PageSize,
			Sort:     request.Sort,
			Filter:   request.Filter,
		})
		if err != nil {
			return infinite.Page[gridsource.Record]{}, err
		}
		return infinite.Page[gridsource.Record]{Rows: page.Records, TotalCount: page.TotalCount}, nil
	}
}

// RecordColumn is a column showing one record field, sortable under
// the field's upper snake case token (createdAt sorts as CREATED_AT).
func RecordColumn(field, title string) Column[gridsource.Record] {
	return Column[gridsource.Record]{
		ID:      field,
		Title:   title,
		SortKey: sorturl.CamelToSnake(field) + "_ASC",
		Value: func(record gridsource.Record) string {
			return record.Text(field)
		},
	}
}

// RecordDetail returns a record's markdown detail, or a list of its
// fields when it has none.
func RecordDetail(record gridsource.Record) string {
	if strings.TrimSpace(record.Detail) != "" {
		return record.Detail
	}
	fields := make([]string, 0, len(record.Fields))
	for field := range record.Fields {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	var builder strings.Builder
	for _, field := range fields {
		builder.WriteString("- **" + field + "**: " + record.Text(field) + "\n")
	}
	return builder.String()
}

// RecordOptions fills the options for a grid of source's records:
// fetch, key, detail, and live events when source is a
// [gridsource.Subscriber]. ctx bounds fetches and the subscription.
// Callers set the remaining fields.
func RecordOptions(ctx context.Context, source gridsource.Source, columns []Column[gridsource.Record]) Options[gridsource.Record] {
	options := Options[gridsource.Record]{
		Context: ctx,
		Columns: columns,
		Key:     func(record gridsource.Record) string { return record.Key },
		Fetch:   SourceFetch(source),
		Detail:  RecordDetail,
	}
	if subscriber, ok := source.(gridsource.Subscriber); ok {
		options.Events = subscriber.Subscribe(ctx)
	}
	return options
}
