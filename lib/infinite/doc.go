// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package infinite implements offset-cursor infinite pagination and
// the scroll-threshold controller that drives it.
//
// A [Query] accumulates pages from an opaque [FetchFunc]. At most one
// fetch is in flight: [Query.Begin] hands out a [Request] and marks the
// query as fetching, and [Query.Complete] applies the result. Every
// [Query.Reset] (sort or filter change) and [Query.Invalidate] (source
// data changed) bumps the query's generation; a page that completes
// under an older generation is discarded rather than merged into the
// newer row set.
//
// A [Controller] watches scroll metrics and calls its bottom-reached
// callback when the remaining scroll distance drops below a threshold,
// provided the query is idle and has more pages:
//
//	controller := infinite.NewController(query, infinite.Threshold{Fraction: 0.2}, func() {
//	    if request, ok := query.Begin(); ok {
//	        commands = append(commands, infinite.FetchCmd(ctx, query, request))
//	    }
//	})
//
// Failed fetches clear the fetching flag and surface the error in
// [State]; nothing retries automatically.
package infinite
