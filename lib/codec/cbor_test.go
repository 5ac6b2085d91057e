// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"
)

// samplePage mirrors the shape of a socket page response.
type samplePage struct {
	Records []sampleRecord `cbor:"records"`
	Total   int            `cbor:"total"`
	Error   string         `cbor:"error,omitempty"`
}

type sampleRecord struct {
	Key    string         `cbor:"key"`
	Fields map[string]any `cbor:"fields"`
}

// sampleJSONRecord uses json tags, relying on the fallback.
type sampleJSONRecord struct {
	Key    string `json:"key"`
	Detail string `json:"detail"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := samplePage{
		Records: []sampleRecord{{Key: "a1", Fields: map[string]any{"name": "Ada", "age": int64(36)}}},
		Total:   1,
	}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded samplePage
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Total != 1 || len(decoded.Records) != 1 {
		t.Fatalf("decoded = %+v", decoded)
	}
	fields := decoded.Records[0].Fields
	if fields["name"] != "Ada" {
		t.Errorf("name = %#v", fields["name"])
	}
	if fields["age"] != int64(36) {
		t.Errorf("age = %#v (%T), want int64(36)", fields["age"], fields["age"])
	}
}

func TestNestedMapsDecodeWithStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"address": map[string]any{"city": "Berlin"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	address, ok := decoded["address"].(map[string]any)
	if !ok {
		t.Fatalf("address decoded as %T, want map[string]any", decoded["address"])
	}
	if address["city"] != "Berlin" {
		t.Errorf("city = %#v", address["city"])
	}
}

func TestTimeEncodesAsText(t *testing.T) {
	when := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	data, err := Marshal(map[string]any{"created": when})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["created"] != "2026-03-01T12:30:00Z" {
		t.Errorf("created = %#v", decoded["created"])
	}
}

func TestMarshalDeterministic(t *testing.T) {
	record := sampleRecord{Key: "k", Fields: map[string]any{"z": 1, "a": 2, "m": 3}}
	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(record)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	pages := []samplePage{
		{Total: 3, Records: []sampleRecord{{Key: "a", Fields: map[string]any{}}}},
		{Total: 3, Error: "source closed"},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, page := range pages {
		if err := encoder.Encode(page); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for index, want := range pages {
		var got samplePage
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode page %d: %v", index, err)
		}
		if got.Total != want.Total || got.Error != want.Error || len(got.Records) != len(want.Records) {
			t.Errorf("page %d: got %+v, want %+v", index, got, want)
		}
	}
}

func TestJSONTagFallback(t *testing.T) {
	original := sampleJSONRecord{Key: "r1", Detail: "# Notes"}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleJSONRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("json-tag roundtrip: got %+v, want %+v", decoded, original)
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var page samplePage
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &page); err == nil {
		t.Error("Unmarshal accepted invalid CBOR")
	}
}

func BenchmarkMarshalPage(b *testing.B) {
	page := samplePage{Total: 50}
	for index := range 50 {
		page.Records = append(page.Records, sampleRecord{
			Key:    "row",
			Fields: map[string]any{"index": index, "name": "row name", "score": 0.5},
		})
	}
	b.ReportAllocs()
	for b.Loop() {
		Marshal(page)
	}
}
