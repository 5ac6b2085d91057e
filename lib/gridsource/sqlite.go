// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gridsource

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/gridkit/lib/sorturl"
	"github.com/bureau-foundation/gridkit/lib/sqlitepool"
)

// SQLiteOptions selects the table a SQLiteSource serves.
type SQLiteOptions struct {
	// Table is required.
	Table string

	// KeyColumn identifies rows. Default "rowid", which does not
	// exist on WITHOUT ROWID tables.
	KeyColumn string

	// DetailColumn is moved out of Fields into Record.Detail.
	DetailColumn string

	// SearchColumns are matched with LIKE by the filter. Default is
	// every TEXT column.
	SearchColumns []string

	// Logger receives query timings at debug level. Nil discards.
	Logger *slog.Logger
}

// ColumnInfo describes one table column.
type ColumnInfo struct {
	Name string
	Type string
}

// SQLiteSource serves one table. Sort fields and search columns are
// checked against the table's columns so no caller string reaches the
// SQL text unquoted. Each page is read together with its count inside
// one read transaction, so the two agree.
type SQLiteSource struct {
	pool    *sqlitepool.Pool
	table   string
	key     string
	detail  string
	columns []ColumnInfo
	known   map[string]bool
	search  []string
	logger  *slog.Logger
}

// OpenSQLiteSource reads the table's schema and validates opts.
func OpenSQLiteSource(ctx context.Context, pool *sqlitepool.Pool, opts SQLiteOptions) (*SQLiteSource, error) {
	if opts.Table == "" {
		return nil, fmt.Errorf("gridsource: SQLite table is required")
	}
	source := &SQLiteSource{
		pool:   pool,
		table:  opts.Table,
		key:    opts.KeyColumn,
		detail: opts.DetailColumn,
		known:  make(map[string]bool),
		logger: opts.Logger,
	}
	if source.key == "" {
		source.key = "rowid"
	}
	if source.logger == nil {
		source.logger = slog.New(slog.DiscardHandler)
	}

	conn, err := pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer pool.Put(conn)

	err = sqlitex.Execute(conn, "SELECT name, type FROM pragma_table_info(?)", &sqlitex.ExecOptions{
		Args: []any{opts.Table},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			column := ColumnInfo{Name: stmt.ColumnText(0), Type: strings.ToUpper(stmt.ColumnText(1))}
			source.columns = append(source.columns, column)
			source.known[column.Name] = true
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gridsource: reading schema of %s: %w", opts.Table, err)
	}
	if len(source.columns) == 0 {
		return nil, fmt.Errorf("gridsource: table %q not found in %s", opts.Table, pool.Path())
	}

	if source.key != "rowid" && !source.known[source.key] {
		return nil, fmt.Errorf("gridsource: key column %w", fmtUnknownField(source.key))
	}
	if source.detail != "" && !source.known[source.detail] {
		return nil, fmt.Errorf("gridsource: detail column %w", fmtUnknownField(source.detail))
	}

	if len(opts.SearchColumns) > 0 {
		for _, column := range opts.SearchColumns {
			if !source.known[column] {
				return nil, fmt.Errorf("gridsource: search column %w", fmtUnknownField(column))
			}
		}
		source.search = slices.Clone(opts.SearchColumns)
	} else {
		for _, column := range source.columns {
			if strings.Contains(column.Type, "CHAR") || strings.Contains(column.Type, "TEXT") || strings.Contains(column.Type, "CLOB") {
				source.search = append(source.search, column.Name)
			}
		}
	}
	return source, nil
}

// Columns returns the table's columns in declaration order.
func (source *SQLiteSource) Columns() []ColumnInfo {
	return slices.Clone(source.columns)
}

// Fetch runs the count and page queries for request.
func (source *SQLiteSource) Fetch(ctx context.Context, request Request) (page Page, err error) {
	orderBy, err := source.orderBy(request.Sort)
	if err != nil {
		return Page{}, err
	}
	where, args := source.where(request.Filter)

	conn, err := source.pool.Take(ctx)
	if err != nil {
		return Page{}, err
	}
	defer source.pool.Put(conn)

	// Interrupt long queries when the grid abandons the fetch.
	conn.SetInterrupt(ctx.Done())
	defer conn.SetInterrupt(nil)

	defer sqlitex.Transaction(conn)(&err)

	countQuery := "SELECT COUNT(*) FROM " + quoteIdentifier(source.table) + where
	err = sqlitex.Execute(conn, countQuery, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			page.TotalCount = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return Page{}, fmt.Errorf("gridsource: counting %s: %w", source.table, err)
	}

	limit := request.PageSize
	if limit <= 0 {
		limit = -1
	}
	pageQuery := "SELECT " + quoteIdentifier(source.key) + ", * FROM " + quoteIdentifier(source.table) +
		where + orderBy + " LIMIT ? OFFSET ?"
	pageArgs := append(slices.Clone(args), limit, max(request.Offset, 0))

	err = sqlitex.Execute(conn, pageQuery, &sqlitex.ExecOptions{
		Args: pageArgs,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			page.Records = append(page.Records, source.scanRecord(stmt))
			return nil
		},
	})
	if err != nil {
		return Page{}, fmt.Errorf("gridsource: querying %s: %w", source.table, err)
	}

	source.logger.Debug("sqlite page fetched",
		"table", source.table,
		"offset", request.Offset,
		"rows", len(page.Records),
		"total", page.TotalCount,
	)
	return page, nil
}

func (source *SQLiteSource) scanRecord(stmt *sqlite.Stmt) Record {
	record := Record{
		Key:    FormatValue(columnValue(stmt, 0)),
		Fields: make(map[string]any, stmt.ColumnCount()-1),
	}
	for index := 1; index < stmt.ColumnCount(); index++ {
		name := stmt.ColumnName(index)
		value := columnValue(stmt, index)
		if name == source.detail {
			record.Detail = FormatValue(value)
			continue
		}
		record.Fields[name] = value
	}
	return record
}

func columnValue(stmt *sqlite.Stmt, index int) any {
	switch stmt.ColumnType(index) {
	case sqlite.TypeInteger:
		return stmt.ColumnInt64(index)
	case sqlite.TypeFloat:
		return stmt.ColumnFloat(index)
	case sqlite.TypeText:
		return stmt.ColumnText(index)
	case sqlite.TypeBlob:
		data := make([]byte, stmt.ColumnLen(index))
		stmt.ColumnBytes(index, data)
		return data
	}
	return nil
}

// orderBy renders the ORDER BY clause. The key column is appended
// last so that rows with equal sort values keep a stable order across
// pages.
func (source *SQLiteSource) orderBy(descriptors []sorturl.Descriptor) (string, error) {
	terms := make([]string, 0, len(descriptors)+1)
	for _, descriptor := range descriptors {
		if !source.known[descriptor.FieldID] {
			return "", fmtUnknownField(descriptor.FieldID)
		}
		direction := "ASC"
		if descriptor.Direction == sorturl.Descending {
			direction = "DESC"
		}
		terms = append(terms, quoteIdentifier(descriptor.FieldID)+" "+direction)
	}
	terms = append(terms, quoteIdentifier(source.key)+" ASC")
	return " ORDER BY " + strings.Join(terms, ", "), nil
}

// where renders the filter: every whitespace-separated term must
// appear, case-insensitively, in at least one search column.
func (source *SQLiteSource) where(filter string) (string, []any) {
	terms := strings.Fields(filter)
	if len(terms) == 0 || len(source.search) == 0 {
		return "", nil
	}
	var clauses []string
	var args []any
	for _, term := range terms {
		pattern := "%" + escapeLike(term) + "%"
		alternatives := make([]string, 0, len(source.search))
		for _, column := range source.search {
			alternatives = append(alternatives, quoteIdentifier(column)+` LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		clauses = append(clauses, "("+strings.Join(alternatives, " OR ")+")")
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
