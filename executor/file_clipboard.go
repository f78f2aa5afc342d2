// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bureau-foundation/remotedesk/protocol"
)

var _ protocol.ClipboardStub = (*FileClipboard)(nil)

// fileClipboardDebounce collapses the burst of events one save produces.
const fileClipboardDebounce = 50 * time.Millisecond

// FileClipboardConfig configures a FileClipboard.
type FileClipboardConfig struct {
	// Path is the file holding the clipboard text. Its directory is
	// created if missing.
	Path string

	// Clipboard receives edits to the file through Set. Required.
	Clipboard *LocalClipboard

	Logger *slog.Logger
}

// FileClipboard mirrors a LocalClipboard to a plain text file, so a
// desktop clipboard tool (wl-paste, xclip) can bridge the two. Text a
// client pastes is written to the file; edits to the file are Set on
// the clipboard, which sends them to the client. Writing back a value
// the clipboard already holds is a no-op, so the file's own writes do
// not echo.
type FileClipboard struct {
	path      string
	clipboard *LocalClipboard
	logger    *slog.Logger
	watcher   *fsnotify.Watcher

	// writes holds the latest text waiting to be written. Only the
	// newest value matters, so a pending one is replaced.
	writes chan []byte
	done   chan struct{}
}

// NewFileClipboard starts watching config.Path. A file that already
// exists primes the clipboard without being sent anywhere.
func NewFileClipboard(config FileClipboardConfig) (*FileClipboard, error) {
	if config.Clipboard == nil {
		return nil, errors.New("executor: FileClipboardConfig.Clipboard is required")
	}
	path, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving clipboard file %s: %w", config.Path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating clipboard directory: %w", err)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating clipboard watcher: %w", err)
	}
	// Watch the directory: editors and clipboard tools often replace
	// the file rather than write it in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	f := &FileClipboard{
		path:      path,
		clipboard: config.Clipboard,
		logger:    logger.With("clipboard_file", path),
		watcher:   watcher,
		writes:    make(chan []byte, 1),
		done:      make(chan struct{}),
	}
	if data, err := os.ReadFile(path); err == nil {
		f.clipboard.InjectClipboardEvent(fileTextEvent(data))
	} else if !errors.Is(err, fs.ErrNotExist) {
		f.logger.Warn("reading clipboard file failed", "error", err)
	}
	go f.run()
	return f, nil
}

// InjectClipboardEvent stores a client's clipboard value and queues
// text values for the file. It never blocks on disk.
func (f *FileClipboard) InjectClipboardEvent(event protocol.ClipboardEvent) {
	f.clipboard.InjectClipboardEvent(event)
	if event.MimeType != protocol.MimeTypeTextUTF8 {
		return
	}
	data := append([]byte(nil), event.Data...)
	for {
		select {
		case f.writes <- data:
			return
		default:
		}
		select {
		case <-f.writes:
		default:
		}
	}
}

// Close stops watching the file.
func (f *FileClipboard) Close() error {
	err := f.watcher.Close()
	<-f.done
	return err
}

func (f *FileClipboard) run() {
	defer close(f.done)

	debounce := time.NewTimer(fileClipboardDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			debounce.Reset(fileClipboardDebounce)

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("clipboard watcher error", "error", err)

		case <-debounce.C:
			f.reload()

		case data := <-f.writes:
			if err := f.write(data); err != nil {
				f.logger.Warn("writing clipboard file failed", "error", err)
			}
		}
	}
}

// reload reads the file and sets its contents on the clipboard.
func (f *FileClipboard) reload() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("reading clipboard file failed", "error", err)
		}
		return
	}
	f.clipboard.Set(fileTextEvent(data))
}

// write replaces the file atomically so a reader never sees a partial
// value.
func (f *FileClipboard) write(data []byte) error {
	temporary, err := os.CreateTemp(filepath.Dir(f.path), ".clipboard-*")
	if err != nil {
		return err
	}
	defer os.Remove(temporary.Name())
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		return err
	}
	if err := temporary.Close(); err != nil {
		return err
	}
	return os.Rename(temporary.Name(), f.path)
}

func fileTextEvent(data []byte) protocol.ClipboardEvent {
	return protocol.ClipboardEvent{MimeType: protocol.MimeTypeTextUTF8, Data: data}
}
