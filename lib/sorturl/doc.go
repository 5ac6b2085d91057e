// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sorturl maps a grid's sort state to and from URL query
// tokens of the form NAME_ASC or CREATED_AT_DESC, so that a sorted
// view can be bookmarked and shared.
//
// A [Binder] is built from a column registry that maps each sortable
// field id to its sort key (the ascending token, such as "NAME_ASC").
// [Binder.Encode] and [Binder.Decode] convert between an ordered list
// of [Descriptor] values and the token list; the order is the sort
// priority. Fields missing from the registry cannot be encoded: they
// are left out of the token list and reported as an
// [*UnregisteredFieldError] so the caller decides whether that is
// fatal.
//
// [Route] binds a Binder to a [SearchParams] accessor, which is the
// only thing this package knows about the routing layer. Navigation is
// the caller's job.
package sorturl
