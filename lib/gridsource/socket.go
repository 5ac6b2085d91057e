// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gridsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/gridkit/lib/codec"
	"github.com/bureau-foundation/gridkit/lib/sorturl"
)

// Socket protocol: the client writes one CBOR request. A "fetch"
// request is answered with one page frame and the connection may carry
// further requests. A "subscribe" request turns the connection into a
// one-way stream of event frames until either side closes it.
const (
	actionFetch     = "fetch"
	actionSubscribe = "subscribe"
)

type wireSort struct {
	Field     string `cbor:"field"`
	Direction string `cbor:"direction"`
}

type wireRequest struct {
	Action   string     `cbor:"action"`
	Offset   int        `cbor:"offset,omitempty"`
	PageSize int        `cbor:"page_size,omitempty"`
	Sort     []wireSort `cbor:"sort,omitempty"`
	Filter   string     `cbor:"filter,omitempty"`
}

type wirePage struct {
	Records    []Record `cbor:"records"`
	TotalCount int      `cbor:"total_count"`
	Error      string   `cbor:"error,omitempty"`
}

type wireEvent struct {
	Kind string `cbor:"kind"`
	Key  string `cbor:"key,omitempty"`
}

// Listen creates a unix socket listener at path, removing a stale
// socket file left by a previous server.
func Listen(path string) (net.Listener, error) {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSocket != 0 {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("gridsource: removing stale socket %s: %w", path, err)
		}
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("gridsource: listen %s: %w", path, err)
	}
	return listener, nil
}

// Serve answers grid requests on listener from source until ctx is
// cancelled, then closes the listener and waits for open connections
// to finish. Subscribe requests are refused when source does not
// implement [Subscriber].
func Serve(ctx context.Context, listener net.Listener, source Source, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var connections sync.WaitGroup
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	logger.Info("grid socket serving", "address", listener.Addr().String())
	for {
		conn, err := listener.Accept()
		if err != nil {
			connections.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("gridsource: accept: %w", err)
		}
		connections.Add(1)
		go func() {
			defer connections.Done()
			serveConnection(ctx, conn, source, logger)
		}()
	}
}

func serveConnection(ctx context.Context, conn net.Conn, source Source, logger *slog.Logger) {
	defer conn.Close()
	connectionContext, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connectionContext.Done()
		conn.Close()
	}()

	decoder := codec.NewDecoder(conn)
	encoder := codec.NewEncoder(conn)
	for {
		var request wireRequest
		if err := decoder.Decode(&request); err != nil {
			if !errors.Is(err, io.EOF) && connectionContext.Err() == nil {
				logger.Debug("grid socket request decode failed", "error", err)
			}
			return
		}

		switch request.Action {
		case actionFetch:
			response := wirePage{}
			page, err := source.Fetch(connectionContext, requestFromWire(request))
			if err != nil {
				response.Error = err.Error()
			} else {
				response.Records = page.Records
				response.TotalCount = page.TotalCount
			}
			if err := encoder.Encode(response); err != nil {
				logger.Debug("grid socket response write failed", "error", err)
				return
			}

		case actionSubscribe:
			subscriber, ok := source.(Subscriber)
			if !ok {
				_ = encoder.Encode(wirePage{Error: "source does not support live updates"})
				return
			}
			// The client sends nothing after subscribing, so a read
			// only returns once it hangs up.
			go func() {
				_, _ = io.Copy(io.Discard, conn)
				cancel()
			}()
			streamEvents(connectionContext, encoder, subscriber.Subscribe(connectionContext), logger)
			return

		default:
			_ = encoder.Encode(wirePage{Error: fmt.Sprintf("unknown action %q", request.Action)})
			return
		}
	}
}

func streamEvents(ctx context.Context, encoder *codec.Encoder, events <-chan Event, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := encoder.Encode(wireEvent{Kind: string(event.Kind), Key: event.Key}); err != nil {
				logger.Debug("grid socket event write failed", "error", err)
				return
			}
		}
	}
}

func requestFromWire(request wireRequest) Request {
	converted := Request{
		Offset:   request.Offset,
		PageSize: request.PageSize,
		Filter:   request.Filter,
	}
	for _, sort := range request.Sort {
		direction, err := sorturl.ParseDirection(sort.Direction)
		if err != nil {
			direction = sorturl.Ascending
		}
		converted.Sort = append(converted.Sort, sorturl.Descriptor{FieldID: sort.Field, Direction: direction})
	}
	return converted
}

func requestToWire(request Request) wireRequest {
	converted := wireRequest{
		Action:   actionFetch,
		Offset:   request.Offset,
		PageSize: request.PageSize,
		Filter:   request.Filter,
	}
	for _, descriptor := range request.Sort {
		converted.Sort = append(converted.Sort, wireSort{Field: descriptor.FieldID, Direction: string(descriptor.Direction)})
	}
	return converted
}

// RemoteError is an error the server reported for a request.
type RemoteError struct {
	Message string
}

func (err *RemoteError) Error() string {
	return "gridsource: server: " + err.Message
}

// Backoff bounds for re-establishing a subscription.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// SocketSource fetches pages from a [Serve] endpoint. Each Fetch uses
// its own connection, so concurrent fetches never interleave frames.
type SocketSource struct {
	path   string
	logger *slog.Logger

	mutex  sync.Mutex
	cancel context.CancelFunc
}

// DialTimeout bounds connection setup for every request.
const DialTimeout = 5 * time.Second

// NewSocketSource creates a client for the socket at path. No
// connection is made until the first Fetch or Subscribe.
func NewSocketSource(path string, logger *slog.Logger) *SocketSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SocketSource{path: path, logger: logger}
}

func (source *SocketSource) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: DialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", source.path)
	if err != nil {
		return nil, fmt.Errorf("gridsource: connecting to %s: %w", source.path, err)
	}
	return conn, nil
}

// Fetch sends one request and waits for its page.
func (source *SocketSource) Fetch(ctx context.Context, request Request) (Page, error) {
	conn, err := source.dial(ctx)
	if err != nil {
		return Page{}, err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := codec.NewEncoder(conn).Encode(requestToWire(request)); err != nil {
		return Page{}, fmt.Errorf("gridsource: sending request: %w", err)
	}
	var response wirePage
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		if ctx.Err() != nil {
			return Page{}, ctx.Err()
		}
		return Page{}, fmt.Errorf("gridsource: reading page: %w", err)
	}
	if response.Error != "" {
		return Page{}, &RemoteError{Message: response.Error}
	}
	for index := range response.Records {
		for field, value := range response.Records[index].Fields {
			response.Records[index].Fields[field] = normalizeValue(value)
		}
	}
	return Page{Records: response.Records, TotalCount: response.TotalCount}, nil
}

// Subscribe opens a background subscription that reconnects with
// exponential backoff. Every successful (re)connect first delivers an
// [EventReset], since events may have been missed while disconnected.
// The channel is closed once ctx is done or Close is called.
func (source *SocketSource) Subscribe(ctx context.Context) <-chan Event {
	ctx, cancel := context.WithCancel(ctx)
	source.mutex.Lock()
	previous := source.cancel
	source.cancel = cancel
	source.mutex.Unlock()
	if previous != nil {
		previous()
	}

	events := make(chan Event, 64)
	go source.streamLoop(ctx, events)
	return events
}

// Close stops the subscription, if any.
func (source *SocketSource) Close() {
	source.mutex.Lock()
	defer source.mutex.Unlock()
	if source.cancel != nil {
		source.cancel()
		source.cancel = nil
	}
}

func (source *SocketSource) streamLoop(ctx context.Context, events chan<- Event) {
	defer close(events)
	backoff := initialBackoff
	for {
		connected, err := source.runStream(ctx, events)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = initialBackoff
		}
		source.logger.Warn("grid subscription disconnected",
			"socket", source.path,
			"error", err,
			"backoff", backoff,
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// runStream holds one subscription open. connected reports whether
// the handshake succeeded, so the caller can reset its backoff.
func (source *SocketSource) runStream(ctx context.Context, events chan<- Event) (connected bool, err error) {
	conn, err := source.dial(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := codec.NewEncoder(conn).Encode(wireRequest{Action: actionSubscribe}); err != nil {
		return false, fmt.Errorf("sending subscribe: %w", err)
	}
	send(ctx, events, Event{Kind: EventReset})

	decoder := codec.NewDecoder(conn)
	for {
		// Event frames and an error page share the stream; decode
		// into the union of both.
		var frame struct {
			Kind  string `cbor:"kind"`
			Key   string `cbor:"key"`
			Error string `cbor:"error"`
		}
		if err := decoder.Decode(&frame); err != nil {
			return true, fmt.Errorf("reading event: %w", err)
		}
		if frame.Error != "" {
			return true, &RemoteError{Message: frame.Error}
		}
		send(ctx, events, Event{Kind: EventKind(frame.Kind), Key: frame.Key})
	}
}

func send(ctx context.Context, events chan<- Event, event Event) {
	select {
	case events <- event:
	case <-ctx.Done():
	default:
		// Receiver is behind; it refetches on any event anyway.
	}
}
