// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gridsource

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/gridkit/lib/clock"
)

// WatchDebounce is how long the watcher waits after a change before
// re-reading, coalescing bursts of writes into one refresh.
const WatchDebounce = 50 * time.Millisecond

// WatchOptions configures WatchJSONL.
type WatchOptions struct {
	JSONLOptions

	// Clock drives the debounce. Nil means the real clock.
	Clock clock.Clock

	// Logger receives reload failures. Nil discards them.
	Logger *slog.Logger
}

// WatchJSONL loads path like [LoadJSONL] and keeps the source in sync
// with the file. The parent directory is watched for IN_CLOSE_WRITE
// and IN_MOVED_TO so both in-place writes and atomic renames are
// seen. Each change re-reads the whole file and diffs it against the
// previous read; only records whose line bytes changed produce Put or
// Remove calls.
//
// The returned stop function ends the watcher. It is safe to call more
// than once.
func WatchJSONL(path string, opts WatchOptions) (*MemorySource, func(), error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("gridsource: %w", err)
	}
	entries, order, err := readJSONLFile(absolutePath, opts.JSONLOptions)
	if err != nil {
		return nil, nil, err
	}
	source := NewMemorySource(orderedRecords(entries, order), MemoryOptions{SearchFields: opts.SearchFields})

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, nil, fmt.Errorf("gridsource: inotify init: %w", err)
	}
	// Watch the directory, not the file: a rename replaces the inode
	// a file watch would be attached to.
	if _, err := unix.InotifyAddWatch(fd, filepath.Dir(absolutePath), unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO); err != nil {
		unix.Close(fd)
		return nil, nil, fmt.Errorf("gridsource: inotify watch %s: %w", filepath.Dir(absolutePath), err)
	}

	watcher := &jsonlWatcher{
		fd:       fd,
		path:     absolutePath,
		filename: filepath.Base(absolutePath),
		opts:     opts.JSONLOptions,
		source:   source,
		previous: entries,
		clock:    opts.Clock,
		logger:   opts.Logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if watcher.clock == nil {
		watcher.clock = clock.Real()
	}
	if watcher.logger == nil {
		watcher.logger = slog.New(slog.DiscardHandler)
	}
	go watcher.loop()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		close(watcher.stop)
		<-watcher.done
	}
	return source, stop, nil
}

type jsonlWatcher struct {
	fd       int
	path     string
	filename string
	opts     JSONLOptions
	source   *MemorySource
	previous map[string]jsonlEntry
	clock    clock.Clock
	logger   *slog.Logger
	stop     chan struct{}
	done     chan struct{}
}

// loop polls the inotify descriptor with a short timeout so the stop
// channel is checked promptly.
func (watcher *jsonlWatcher) loop() {
	defer close(watcher.done)
	defer unix.Close(watcher.fd)

	buffer := make([]byte, 4096)
	for {
		select {
		case <-watcher.stop:
			return
		default:
		}

		descriptors := []unix.PollFd{{Fd: int32(watcher.fd), Events: unix.POLLIN}}
		count, err := unix.Poll(descriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			watcher.logger.Error("jsonl watch poll failed, live updates stopped", "path", watcher.path, "error", err)
			return
		}
		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(watcher.fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			watcher.logger.Error("jsonl watch read failed, live updates stopped", "path", watcher.path, "error", err)
			return
		}
		if !inotifyMatchesFile(buffer[:bytesRead], watcher.filename) {
			continue
		}

		select {
		case <-watcher.stop:
			return
		case <-watcher.clock.After(WatchDebounce):
		}
		drainInotify(watcher.fd, buffer)
		watcher.reload()
	}
}

func (watcher *jsonlWatcher) reload() {
	current, order, err := readJSONLFile(watcher.path, watcher.opts)
	if err != nil {
		// Mid-write or briefly absent during a replace; the event
		// from the completed write triggers another reload.
		watcher.logger.Debug("jsonl reload skipped", "path", watcher.path, "error", err)
		return
	}
	applyDiff(watcher.source, watcher.previous, current, order)
	watcher.previous = current
}

// applyDiff pushes the changes between two reads into source.
func applyDiff(source *MemorySource, previous, current map[string]jsonlEntry, order []string) {
	for _, key := range order {
		entry := current[key]
		old, existed := previous[key]
		if !existed || old.digest != entry.digest {
			source.Put(entry.record)
		}
	}
	for key := range previous {
		if _, exists := current[key]; !exists {
			source.Remove(key)
		}
	}
}

// inotifyMatchesFile reports whether any event in buffer names
// filename. Events are struct inotify_event: wd, mask, cookie and len
// (four 32-bit fields) followed by len bytes of NUL-padded name.
func inotifyMatchesFile(buffer []byte, filename string) bool {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}
		if nameLength > 0 {
			name := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
			if end := indexNUL(name); end >= 0 {
				name = name[:end]
			}
			if string(name) == filename {
				return true
			}
		}
		offset += eventSize
	}
	return false
}

func indexNUL(data []byte) int {
	for index, value := range data {
		if value == 0 {
			return index
		}
	}
	return -1
}

func drainInotify(fd int, buffer []byte) {
	for {
		if _, err := unix.Read(fd, buffer); err != nil {
			return
		}
	}
}
