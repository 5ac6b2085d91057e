// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gridsource

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/gridkit/lib/sorturl"
)

// Record is one grid row as a source delivers it.
type Record struct {
	// Key identifies the record across fetches and live updates.
	Key string `json:"key"`

	// Fields maps column field ids to values. Values are strings,
	// int64, float64, bool, time.Time or nil.
	Fields map[string]any `json:"fields"`

	// Detail is optional markdown shown in the row's expansion panel.
	Detail string `json:"detail,omitempty"`
}

// Text formats a field value for display.
func (record Record) Text(field string) string {
	return FormatValue(record.Fields[field])
}

// Request asks a source for one page.
type Request struct {
	Offset   int
	PageSize int
	Sort     []sorturl.Descriptor
	Filter   string
}

// Page is one slice of a source's records. TotalCount counts every
// record matching the request's filter, not just this page.
type Page struct {
	Records    []Record
	TotalCount int
}

// Source fetches pages of records.
type Source interface {
	Fetch(ctx context.Context, request Request) (Page, error)
}

// EventKind classifies a change notification.
type EventKind string

const (
	// EventPut reports a created or updated record.
	EventPut EventKind = "put"
	// EventRemove reports a removed record.
	EventRemove EventKind = "remove"
	// EventReset reports that any amount of data may have changed,
	// for example after a reconnect.
	EventReset EventKind = "reset"
)

// Event describes one change to a source's data.
type Event struct {
	Kind EventKind `json:"kind"`
	Key  string    `json:"key,omitempty"`
}

// Subscriber is implemented by sources whose data changes while a
// grid is open. Slow receivers lose events rather than blocking the
// source; any event is enough reason to refetch. The subscription
// lasts until ctx is done, after which the channel is closed.
type Subscriber interface {
	Subscribe(ctx context.Context) <-chan Event
}

// ErrUnknownField is returned when a request sorts by a field the
// source does not have.
var ErrUnknownField = errors.New("gridsource: unknown field")

// RowKey derives a stable record key from the record's raw bytes, for
// sources whose rows carry no identifier of their own.
func RowKey(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// FormatValue renders a field value as cell text. Integral floats
// print without a fractional part because JSON has no integer type.
func FormatValue(value any) string {
	switch value := value.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		if value == math.Trunc(value) && math.Abs(value) < 1e15 {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case time.Time:
		return value.Format(time.RFC3339)
	case []byte:
		return hex.EncodeToString(value)
	default:
		return fmt.Sprint(value)
	}
}

// normalizeValue converts decoder-specific representations to the
// value types Record documents.
func normalizeValue(value any) any {
	switch value := value.(type) {
	case json.Number:
		if integer, err := value.Int64(); err == nil {
			return integer
		}
		if float, err := value.Float64(); err == nil {
			return float
		}
		return value.String()
	case int:
		return int64(value)
	case int32:
		return int64(value)
	case uint64:
		if value <= math.MaxInt64 {
			return int64(value)
		}
		return float64(value)
	case float32:
		return float64(value)
	case map[string]any, []any:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(encoded)
	default:
		return value
	}
}

// CompareValues orders two field values. Nil sorts first, then
// booleans, numbers, times and strings; strings compare without case
// first so "alice" and "Bob" sort naturally.
func CompareValues(left, right any) int {
	leftRank, rightRank := valueRank(left), valueRank(right)
	if leftRank != rightRank {
		return leftRank - rightRank
	}
	switch leftRank {
	case rankNil:
		return 0
	case rankBool:
		return boolInt(left.(bool)) - boolInt(right.(bool))
	case rankNumber:
		leftNumber, rightNumber := toFloat(left), toFloat(right)
		switch {
		case leftNumber < rightNumber:
			return -1
		case leftNumber > rightNumber:
			return 1
		}
		return 0
	case rankTime:
		return left.(time.Time).Compare(right.(time.Time))
	}
	leftText, rightText := FormatValue(left), FormatValue(right)
	if folded := strings.Compare(strings.ToLower(leftText), strings.ToLower(rightText)); folded != 0 {
		return folded
	}
	return strings.Compare(leftText, rightText)
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankTime
	rankString
)

func valueRank(value any) int {
	switch value.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case int, int32, int64, uint64, float32, float64:
		return rankNumber
	case time.Time:
		return rankTime
	}
	return rankString
}

func toFloat(value any) float64 {
	switch value := value.(type) {
	case int:
		return float64(value)
	case int32:
		return float64(value)
	case int64:
		return float64(value)
	case uint64:
		return float64(value)
	case float32:
		return float64(value)
	case float64:
		return value
	}
	return 0
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func fmtUnknownField(field string) error {
	return fmt.Errorf("%w %q", ErrUnknownField, field)
}
