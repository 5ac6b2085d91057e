// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sorturl

import (
	"errors"
	"fmt"
	"net/url"
)

// QueryKey is the URL query parameter carrying sort tokens.
const QueryKey = "sort"

// SearchParams is the routing layer's view of the current URL query.
// Values for a key are ordered.
type SearchParams interface {
	Values(key string) []string
	SetValues(key string, values []string)
}

// URLValues adapts [url.Values] to [SearchParams].
type URLValues url.Values

// Values returns every value stored under key.
func (values URLValues) Values(key string) []string {
	return url.Values(values)[key]
}

// SetValues replaces the values under key; an empty list deletes it.
func (values URLValues) SetValues(key string, list []string) {
	if len(list) == 0 {
		url.Values(values).Del(key)
		return
	}
	url.Values(values)[key] = append([]string(nil), list...)
}

// Encode renders the parameters as a query string.
func (values URLValues) Encode() string {
	return url.Values(values).Encode()
}

// ParseQuery parses a raw query string such as
// "sort=NAME_ASC&sort=AGE_DESC" into URLValues.
func ParseQuery(raw string) (URLValues, error) {
	parsed, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("sorturl: parsing query %q: %w", raw, err)
	}
	return URLValues(parsed), nil
}

// Route reads and writes a grid's sort state through a SearchParams
// accessor.
type Route struct {
	params SearchParams
	binder *Binder
	key    string
}

// NewRoute binds params to binder under [QueryKey].
func NewRoute(params SearchParams, binder *Binder) *Route {
	return &Route{params: params, binder: binder, key: QueryKey}
}

// WithKey returns a copy of the route using a different query
// parameter, for pages that show more than one grid.
func (route *Route) WithKey(key string) *Route {
	copied := *route
	copied.key = key
	return &copied
}

// Sorting decodes the current sort state. Malformed tokens are
// skipped; the error reports them alongside the usable descriptors.
func (route *Route) Sorting() ([]Descriptor, error) {
	return route.binder.Decode(route.params.Values(route.key))
}

// SetSorting encodes descriptors into the query. Unregistered fields
// are left out of the URL and reported; the registered ones are still
// written.
func (route *Route) SetSorting(descriptors []Descriptor) error {
	tokens, err := route.binder.Encode(descriptors)
	route.params.SetValues(route.key, tokens)
	return err
}

// Toggle applies [Toggle] to the current sort state and writes the
// result back. Malformed tokens already in the query are dropped from
// it and reported together with any error from writing.
func (route *Route) Toggle(fieldID string, policy Policy) ([]Descriptor, error) {
	current, decodeErr := route.Sorting()
	next := Toggle(current, fieldID, policy)
	return next, errors.Join(decodeErr, route.SetSorting(next))
}
