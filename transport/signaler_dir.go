// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var _ Signaler = (*DirectorySignaler)(nil)

const (
	offerSuffix  = ".offer"
	answerSuffix = ".answer"
)

// DirectorySignaler exchanges signals as files in a shared directory,
// one file per offerer/target pair named "<offerer>|<target>.offer" or
// ".answer" with both IDs path-escaped. Writes are atomic renames, so a
// poller never reads a partial SDP. It suits a host and client on the
// same machine or sharing a network filesystem.
type DirectorySignaler struct {
	directory string

	mu sync.Mutex
	// lastSeen maps a consumer-qualified file name to the modification
	// time it last returned.
	lastSeen map[string]time.Time
}

// NewDirectorySignaler uses directory, creating it if needed.
func NewDirectorySignaler(directory string) (*DirectorySignaler, error) {
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return nil, fmt.Errorf("creating signaling directory: %w", err)
	}
	return &DirectorySignaler{directory: directory, lastSeen: make(map[string]time.Time)}, nil
}

func (s *DirectorySignaler) PublishOffer(_ context.Context, peerID, targetID, sdp string) error {
	return s.write(signalFileName(peerID, targetID, offerSuffix), sdp)
}

func (s *DirectorySignaler) PublishAnswer(_ context.Context, offererID, peerID, sdp string) error {
	return s.write(signalFileName(offererID, peerID, answerSuffix), sdp)
}

func (s *DirectorySignaler) PollOffers(_ context.Context, peerID string) ([]SignalMessage, error) {
	return s.poll(peerID, offerSuffix, func(offerer, target string) (string, bool) {
		return offerer, target == peerID
	})
}

func (s *DirectorySignaler) PollAnswers(_ context.Context, peerID string) ([]SignalMessage, error) {
	return s.poll(peerID, answerSuffix, func(offerer, target string) (string, bool) {
		return target, offerer == peerID
	})
}

// write stores sdp under name via a temporary file and rename.
func (s *DirectorySignaler) write(name, sdp string) error {
	temporary, err := os.CreateTemp(s.directory, ".signal-*")
	if err != nil {
		return fmt.Errorf("creating signal file: %w", err)
	}
	_, writeErr := temporary.WriteString(sdp)
	closeErr := temporary.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(temporary.Name())
		return fmt.Errorf("writing signal file: %w", err)
	}
	if err := os.Rename(temporary.Name(), filepath.Join(s.directory, name)); err != nil {
		os.Remove(temporary.Name())
		return fmt.Errorf("publishing signal file: %w", err)
	}
	return nil
}

// poll returns the signals with the given suffix that match and have
// changed since this consumer last saw them. match returns the peer ID
// to report and whether the file is addressed to the consumer.
func (s *DirectorySignaler) poll(consumer, suffix string, match func(offerer, target string) (string, bool)) ([]SignalMessage, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("listing signaling directory: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []SignalMessage
	for _, entry := range entries {
		name := entry.Name()
		offerer, target, ok := parseSignalFileName(name, suffix)
		if !ok {
			continue
		}
		peerID, addressed := match(offerer, target)
		if !addressed {
			continue
		}
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading signal file %s: %w", name, err)
		}
		seenKey := consumer + ":" + name
		if last, ok := s.lastSeen[seenKey]; ok && !info.ModTime().After(last) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.directory, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading signal file %s: %w", name, err)
		}
		s.lastSeen[seenKey] = info.ModTime()
		messages = append(messages, SignalMessage{PeerID: peerID, SDP: string(data)})
	}
	return messages, nil
}

func signalFileName(offererID, targetID, suffix string) string {
	return signalKey(url.PathEscape(offererID), url.PathEscape(targetID)) + suffix
}

func parseSignalFileName(name, suffix string) (offererID, targetID string, ok bool) {
	key, found := strings.CutSuffix(name, suffix)
	if !found {
		return "", "", false
	}
	escapedOfferer, escapedTarget, ok := splitSignalKey(key)
	if !ok {
		return "", "", false
	}
	offererID, err := url.PathUnescape(escapedOfferer)
	if err != nil {
		return "", "", false
	}
	targetID, err = url.PathUnescape(escapedTarget)
	if err != nil {
		return "", "", false
	}
	return offererID, targetID, true
}
