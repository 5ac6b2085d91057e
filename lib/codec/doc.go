// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds gridkit's CBOR configuration for the grid
// socket protocol.
//
// Records cross the socket as CBOR: a record's fields are an open
// map[string]any, and CBOR keeps integers, floats, byte strings and
// nil distinct where JSON would collapse them. The encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2), so the same page always
// produces the same bytes.
//
// Buffer-oriented callers use [Marshal] and [Unmarshal]; the socket
// server and client use [NewEncoder] and [NewDecoder] on the
// connection.
//
// Wire types carry `cbor` struct tags. Types that are also written as
// JSON (the JSONL loader's records) carry only `json` tags, which
// fxamacker/cbor reads as a fallback.
package codec
