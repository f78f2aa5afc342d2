// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/remotedesk/protocol"
)

// script is the YAML event script.
type script struct {
	Steps []step `yaml:"steps"`
}

// step holds exactly one action.
type step struct {
	Key        *keyStep        `yaml:"key,omitempty"`
	Mouse      *mouseStep      `yaml:"mouse,omitempty"`
	Wheel      *wheelStep      `yaml:"wheel,omitempty"`
	Clipboard  *string         `yaml:"clipboard,omitempty"`
	Dimensions *dimensionsStep `yaml:"dimensions,omitempty"`
	Video      *bool           `yaml:"video,omitempty"`
	Sequence   *int64          `yaml:"sequence,omitempty"`
	Sleep      *time.Duration  `yaml:"sleep,omitempty"`
}

type keyStep struct {
	USB     uint32 `yaml:"usb"`
	Pressed bool   `yaml:"pressed"`
}

type mouseStep struct {
	X      *int32 `yaml:"x,omitempty"`
	Y      *int32 `yaml:"y,omitempty"`
	Button string `yaml:"button,omitempty"`
	Down   bool   `yaml:"down,omitempty"`
}

type wheelStep struct {
	DX int32 `yaml:"dx,omitempty"`
	DY int32 `yaml:"dy,omitempty"`
}

type dimensionsStep struct {
	Width  int32 `yaml:"width"`
	Height int32 `yaml:"height"`
}

// eventSender is the part of clientconn.Client a script drives.
type eventSender interface {
	SendKeyEvent(event protocol.KeyEvent) error
	SendMouseEvent(event protocol.MouseEvent) error
	SendClipboardEvent(event protocol.ClipboardEvent) error
	SendClientDimensions(dimensions protocol.ClientDimensions) error
	SendVideoControl(control protocol.VideoControl) error
	SendSequenceNumber(sequenceNumber int64) error
}

func loadScript(path string) (*script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) (*script, error) {
	var parsed script
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}
	var errs []error
	for index, step := range parsed.Steps {
		if err := step.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", index+1, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &parsed, nil
}

func (s step) validate() error {
	actions := 0
	for _, set := range []bool{
		s.Key != nil, s.Mouse != nil, s.Wheel != nil, s.Clipboard != nil,
		s.Dimensions != nil, s.Video != nil, s.Sequence != nil, s.Sleep != nil,
	} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("want exactly one action, got %d", actions)
	}
	if s.Mouse != nil {
		if (s.Mouse.X == nil) != (s.Mouse.Y == nil) {
			return errors.New("mouse needs both x and y, or neither")
		}
		if _, err := parseButton(s.Mouse.Button); err != nil {
			return err
		}
	}
	if s.Sleep != nil && *s.Sleep < 0 {
		return errors.New("sleep must not be negative")
	}
	return nil
}

// run sends every step in order. Sleeps end early when ctx is done.
func (s *script) run(ctx context.Context, sender eventSender) error {
	for index, step := range s.Steps {
		if err := step.send(ctx, sender); err != nil {
			return fmt.Errorf("step %d: %w", index+1, err)
		}
	}
	return nil
}

func (s step) send(ctx context.Context, sender eventSender) error {
	switch {
	case s.Key != nil:
		return sender.SendKeyEvent(protocol.KeyEvent{USBKeycode: s.Key.USB, Pressed: s.Key.Pressed})
	case s.Mouse != nil:
		button, err := parseButton(s.Mouse.Button)
		if err != nil {
			return err
		}
		event := protocol.MouseEvent{Button: button, ButtonDown: s.Mouse.Down}
		if s.Mouse.X != nil {
			event = event.WithPosition(protocol.Point{X: *s.Mouse.X, Y: *s.Mouse.Y})
		}
		return sender.SendMouseEvent(event)
	case s.Wheel != nil:
		return sender.SendMouseEvent(protocol.MouseEvent{WheelOffsetX: s.Wheel.DX, WheelOffsetY: s.Wheel.DY})
	case s.Clipboard != nil:
		return sender.SendClipboardEvent(protocol.ClipboardEvent{MimeType: protocol.MimeTypeTextUTF8, Data: []byte(*s.Clipboard)})
	case s.Dimensions != nil:
		return sender.SendClientDimensions(protocol.ClientDimensions{Width: s.Dimensions.Width, Height: s.Dimensions.Height})
	case s.Video != nil:
		return sender.SendVideoControl(protocol.VideoControl{Enable: *s.Video})
	case s.Sequence != nil:
		return sender.SendSequenceNumber(*s.Sequence)
	case s.Sleep != nil:
		timer := time.NewTimer(*s.Sleep)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.New("empty step")
}

func parseButton(name string) (protocol.MouseButton, error) {
	switch name {
	case "":
		return protocol.ButtonUndefined, nil
	case "left":
		return protocol.ButtonLeft, nil
	case "middle":
		return protocol.ButtonMiddle, nil
	case "right":
		return protocol.ButtonRight, nil
	default:
		return 0, fmt.Errorf("unknown mouse button %q", name)
	}
}
