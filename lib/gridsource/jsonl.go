// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gridsource

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// JSONLOptions controls how JSONL lines become records.
type JSONLOptions struct {
	// KeyField names the field holding the record key. Default "id".
	// Lines without it are keyed by a hash of their bytes.
	KeyField string

	// DetailField names a field moved out of Fields into
	// Record.Detail for the expansion panel. Empty disables.
	DetailField string

	// SearchFields is passed through to [MemoryOptions].
	SearchFields []string
}

func (opts JSONLOptions) keyField() string {
	if opts.KeyField == "" {
		return "id"
	}
	return opts.KeyField
}

// jsonlEntry is one parsed line plus the digest used to detect
// changes when the file is re-read.
type jsonlEntry struct {
	record Record
	digest [32]byte
}

// LoadJSONL reads a JSONL file into a MemorySource. Each non-blank
// line is one JSON object.
func LoadJSONL(path string, opts JSONLOptions) (*MemorySource, error) {
	entries, order, err := readJSONLFile(path, opts)
	if err != nil {
		return nil, err
	}
	return NewMemorySource(orderedRecords(entries, order), MemoryOptions{SearchFields: opts.SearchFields}), nil
}

func readJSONLFile(path string, opts JSONLOptions) (map[string]jsonlEntry, []string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("gridsource: open %s: %w", path, err)
	}
	defer file.Close()
	entries, order, err := parseJSONL(file, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("gridsource: %s: %w", path, err)
	}
	return entries, order, nil
}

// parseJSONL returns entries by key and the keys in first-seen order.
func parseJSONL(reader io.Reader, opts JSONLOptions) (map[string]jsonlEntry, []string, error) {
	scanner := bufio.NewScanner(reader)
	// Rows with long detail text exceed the default 64KB token size.
	const maxLineSize = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	entries := make(map[string]jsonlEntry)
	var order []string
	keyField := opts.keyField()

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		decoder := json.NewDecoder(bytes.NewReader(line))
		decoder.UseNumber()
		var fields map[string]any
		if err := decoder.Decode(&fields); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}

		record := Record{Fields: make(map[string]any, len(fields))}
		for field, value := range fields {
			record.Fields[field] = normalizeValue(value)
		}
		if key, ok := record.Fields[keyField]; ok && key != nil {
			record.Key = FormatValue(key)
		} else {
			record.Key = RowKey(line)
		}
		if opts.DetailField != "" {
			if detail, ok := record.Fields[opts.DetailField]; ok {
				record.Detail = FormatValue(detail)
				delete(record.Fields, opts.DetailField)
			}
		}

		if _, seen := entries[record.Key]; !seen {
			order = append(order, record.Key)
		}
		entries[record.Key] = jsonlEntry{record: record, digest: blake3.Sum256(line)}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading: %w", err)
	}
	return entries, order, nil
}

func orderedRecords(entries map[string]jsonlEntry, order []string) []Record {
	records := make([]Record, 0, len(order))
	for _, key := range order {
		records = append(records, entries[key].record)
	}
	return records
}
