// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gridsource

import (
	"context"
	"errors"
	"io"
	"net"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/bureau-foundation/gridkit/lib/codec"
	"github.com/bureau-foundation/gridkit/lib/sorturl"
	"github.com/bureau-foundation/gridkit/lib/testutil"
)

// startServer serves source on a fresh socket for the test's duration.
func startServer(t *testing.T, source Source) string {
	t.Helper()
	path := filepath.Join(testutil.SocketDir(t), "grid.sock")
	listener, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, listener, source, nil) }()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, done, 5*time.Second, "server shutdown"); err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	return path
}

func TestSocketFetch(t *testing.T) {
	memory := NewMemorySource(people(), MemoryOptions{})
	client := NewSocketSource(startServer(t, memory), nil)

	page, err := client.Fetch(context.Background(), Request{
		Offset:   1,
		PageSize: 2,
		Sort:     []sorturl.Descriptor{{FieldID: "age", Direction: sorturl.Descending}},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if page.TotalCount != 5 || !slices.Equal(keys(page), []string{"4", "3"}) {
		t.Fatalf("page = %v (total %d)", keys(page), page.TotalCount)
	}
	if age := page.Records[0].Fields["age"]; age != int64(72) {
		t.Fatalf("age over the wire = %#v (%T)", age, age)
	}
}

func TestSocketRemoteError(t *testing.T) {
	client := NewSocketSource(startServer(t, NewMemorySource(people(), MemoryOptions{})), nil)
	_, err := client.Fetch(context.Background(), Request{
		Sort: []sorturl.Descriptor{{FieldID: "salary", Direction: sorturl.Ascending}},
	})
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("Fetch error = %v, want *RemoteError", err)
	}
}

func TestSocketDialFailure(t *testing.T) {
	client := NewSocketSource(filepath.Join(testutil.SocketDir(t), "nothing.sock"), nil)
	if _, err := client.Fetch(context.Background(), Request{}); err == nil {
		t.Fatal("Fetch against a missing socket succeeded")
	}
}

func TestSocketSubscribe(t *testing.T) {
	memory := NewMemorySource(people(), MemoryOptions{})
	client := NewSocketSource(startServer(t, memory), nil)
	events := client.Subscribe(t.Context())
	t.Cleanup(client.Close)

	event := testutil.RequireReceive(t, events, 5*time.Second, "initial reset")
	if event.Kind != EventReset {
		t.Fatalf("first event = %+v, want reset", event)
	}

	// The server subscribes after reading the request; keep putting
	// until an event makes it through.
	testutil.RequireEventually(t, func() bool {
		memory.Put(Record{Key: "6", Fields: map[string]any{"name": "Frances Allen"}})
		select {
		case event := <-events:
			return event.Kind == EventPut && event.Key == "6"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, time.Millisecond, "put event over socket")

	client.Close()
	for range events {
	}
}

func TestSocketSubscriptionsReleasedOnDisconnect(t *testing.T) {
	memory := NewMemorySource(people(), MemoryOptions{})
	path := startServer(t, memory)
	baseline := memory.subscriberCount()

	for round := range 5 {
		client := NewSocketSource(path, nil)
		events := client.Subscribe(context.Background())
		testutil.RequireReceive(t, events, 5*time.Second, "reset in round %d", round)
		testutil.RequireEventually(t, func() bool {
			return memory.subscriberCount() == baseline+1
		}, 5*time.Second, time.Millisecond, "server never subscribed in round %d", round)

		client.Close()
		testutil.RequireClosed(t, events, 5*time.Second, "client events in round %d", round)
		testutil.RequireEventually(t, func() bool {
			return memory.subscriberCount() == baseline
		}, 5*time.Second, time.Millisecond, "server kept the subscription of round %d", round)
	}
}

// closingSource closes every subscription immediately.
type closingSource struct{ staticSource }

func (closingSource) Subscribe(context.Context) <-chan Event {
	events := make(chan Event)
	close(events)
	return events
}

func TestServeEndsStreamWhenSubscriptionCloses(t *testing.T) {
	path := startServer(t, closingSource{})
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if err := codec.NewEncoder(conn).Encode(wireRequest{Action: actionSubscribe}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame wireEvent
	if err := codec.NewDecoder(conn).Decode(&frame); !errors.Is(err, io.EOF) {
		t.Fatalf("Decode = %v (frame %+v), want EOF once the stream ends", err, frame)
	}
}

// staticSource is a Source without live updates.
type staticSource struct{}

func (staticSource) Fetch(context.Context, Request) (Page, error) {
	return Page{}, nil
}

func TestSocketSubscribeUnsupported(t *testing.T) {
	client := NewSocketSource(startServer(t, staticSource{}), nil)
	events := client.Subscribe(t.Context())
	defer client.Close()

	if event := testutil.RequireReceive(t, events, 5*time.Second, "reset"); event.Kind != EventReset {
		t.Fatalf("event = %+v", event)
	}
	select {
	case event, ok := <-events:
		if ok {
			t.Fatalf("unexpected event %+v from a source without live updates", event)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(testutil.SocketDir(t), "grid.sock")
	first, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	// Closing a unix listener removes its file; recreate the stale
	// file by disabling that.
	first.(interface{ SetUnlinkOnClose(bool) }).SetUnlinkOnClose(false)
	first.Close()

	second, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen over stale socket: %v", err)
	}
	second.Close()
}
