// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sorturl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Direction is the direction of one sort axis.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Token returns the URL suffix for the direction.
func (direction Direction) Token() string {
	if direction == Descending {
		return "DESC"
	}
	return "ASC"
}

// Reverse returns the opposite direction.
func (direction Direction) Reverse() Direction {
	if direction == Descending {
		return Ascending
	}
	return Descending
}

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(value string) (Direction, error) {
	switch strings.ToLower(value) {
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	}
	return "", fmt.Errorf("sorturl: unknown sort direction %q", value)
}

// Descriptor is one axis of a multi-column sort.
type Descriptor struct {
	FieldID   string
	Direction Direction
}

func (descriptor Descriptor) String() string {
	return descriptor.FieldID + " " + string(descriptor.Direction)
}

// UnregisteredFieldError reports descriptors that could not be
// encoded because their field has no sort key in the registry.
type UnregisteredFieldError struct {
	Fields []string
}

func (err *UnregisteredFieldError) Error() string {
	return fmt.Sprintf("sorturl: no sort key registered for %s", strings.Join(err.Fields, ", "))
}

// InvalidTokenError reports a URL token that is not of the form
// FIELD_ASC or FIELD_DESC.
type InvalidTokenError struct {
	Token string
}

func (err *InvalidTokenError) Error() string {
	return fmt.Sprintf("sorturl: malformed sort token %q (want FIELD_ASC or FIELD_DESC)", err.Token)
}

// Binder encodes and decodes sort descriptors against a fixed column
// registry. A Binder is immutable and safe for concurrent use.
type Binder struct {
	// bases maps field id to the upper snake case token base.
	bases map[string]string
	// fields maps a token base back to its field id.
	fields map[string]string
}

// NewBinder builds a Binder from a registry mapping field id to sort
// key. The sort key may carry a direction suffix ("NAME_ASC") or be a
// bare base ("NAME"); only the base is used. Two fields sharing a base
// is an error because decoding would be ambiguous.
func NewBinder(registry map[string]string) (*Binder, error) {
	binder := &Binder{
		bases:  make(map[string]string, len(registry)),
		fields: make(map[string]string, len(registry)),
	}

	// Iterate in a fixed order so the conflict error is stable.
	fieldIDs := make([]string, 0, len(registry))
	for fieldID := range registry {
		fieldIDs = append(fieldIDs, fieldID)
	}
	sort.Strings(fieldIDs)

	for _, fieldID := range fieldIDs {
		if fieldID == "" {
			return nil, fmt.Errorf("sorturl: registry contains an empty field id")
		}
		base := registry[fieldID]
		if trimmed, _, ok := splitDirection(base); ok {
			base = trimmed
		}
		base = strings.ToUpper(base)
		if base == "" {
			return nil, fmt.Errorf("sorturl: field %q has an empty sort key", fieldID)
		}
		if existing, taken := binder.fields[base]; taken {
			return nil, fmt.Errorf("sorturl: fields %q and %q share sort key %q", existing, fieldID, base)
		}
		binder.bases[fieldID] = base
		binder.fields[base] = fieldID
	}
	return binder, nil
}

// Registered reports whether fieldID has a sort key.
func (binder *Binder) Registered(fieldID string) bool {
	_, ok := binder.bases[fieldID]
	return ok
}

// Encode converts descriptors to URL tokens, preserving order.
// Descriptors whose field is not registered are omitted from the
// result and named in the returned *UnregisteredFieldError; the
// tokens for the remaining descriptors are still returned.
func (binder *Binder) Encode(descriptors []Descriptor) ([]string, error) {
	tokens := make([]string, 0, len(descriptors))
	var missing []string
	for _, descriptor := range descriptors {
		base, ok := binder.bases[descriptor.FieldID]
		if !ok {
			missing = append(missing, descriptor.FieldID)
			continue
		}
		tokens = append(tokens, base+"_"+descriptor.Direction.Token())
	}
	if len(missing) > 0 {
		return tokens, &UnregisteredFieldError{Fields: missing}
	}
	return tokens, nil
}

// Decode converts URL tokens to descriptors, preserving order. A
// token's field is resolved through the registry first and otherwise
// converted from SNAKE_CASE to camelCase. Malformed tokens are skipped
// and reported; a repeated field keeps its first occurrence.
func (binder *Binder) Decode(tokens []string) ([]Descriptor, error) {
	descriptors := make([]Descriptor, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	var errs []error
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		base, direction, ok := splitDirection(token)
		if !ok || base == "" {
			errs = append(errs, &InvalidTokenError{Token: token})
			continue
		}
		fieldID, registered := binder.fields[strings.ToUpper(base)]
		if !registered {
			fieldID = SnakeToCamel(base)
		}
		if seen[fieldID] {
			continue
		}
		seen[fieldID] = true
		descriptors = append(descriptors, Descriptor{FieldID: fieldID, Direction: direction})
	}
	return descriptors, errors.Join(errs...)
}

// splitDirection splits "CREATED_AT_DESC" into ("CREATED_AT", Descending).
func splitDirection(token string) (string, Direction, bool) {
	separator := strings.LastIndexByte(token, '_')
	if separator < 0 {
		return "", "", false
	}
	direction, err := ParseDirection(token[separator+1:])
	if err != nil {
		return "", "", false
	}
	return token[:separator], direction, true
}

// SnakeToCamel converts "CREATED_AT" or "created_at" to "createdAt".
func SnakeToCamel(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))
	upperNext := false
	for _, character := range strings.ToLower(value) {
		if character == '_' {
			upperNext = builder.Len() > 0
			continue
		}
		if upperNext {
			character = unicode.ToUpper(character)
			upperNext = false
		}
		builder.WriteRune(character)
	}
	return builder.String()
}

// CamelToSnake converts "createdAt" to "CREATED_AT".
func CamelToSnake(value string) string {
	var builder strings.Builder
	builder.Grow(len(value) + 4)
	for index, character := range value {
		if unicode.IsUpper(character) && index > 0 {
			builder.WriteByte('_')
		}
		builder.WriteRune(unicode.ToUpper(character))
	}
	return builder.String()
}
