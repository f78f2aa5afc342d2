// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import "github.com/bureau-foundation/remotedesk/protocol"

// MouseInputFilter scales pointer coordinates from the client's input
// size to the host's output (capture) size and clamps them to the output
// rectangle. Key events pass through untouched.
//
// When the output size is empty there is no rectangle to clamp to and
// positioned mouse events are dropped. When only the input size is
// empty, coordinates are clamped without scaling.
type MouseInputFilter struct {
	inputStub protocol.InputStub

	inputSize  protocol.Size
	outputSize protocol.Size
}

// NewMouseInputFilter returns a filter forwarding to inputStub.
func NewMouseInputFilter(inputStub protocol.InputStub) *MouseInputFilter {
	return &MouseInputFilter{inputStub: inputStub}
}

// SetInputStub replaces the stage events are forwarded to.
func (f *MouseInputFilter) SetInputStub(inputStub protocol.InputStub) {
	f.inputStub = inputStub
}

// SetInputSize sets the size of the coordinate space events arrive in.
func (f *MouseInputFilter) SetInputSize(size protocol.Size) {
	f.inputSize = size
}

// SetOutputSize sets the size of the coordinate space events are
// delivered in.
func (f *MouseInputFilter) SetOutputSize(size protocol.Size) {
	f.outputSize = size
}

func (f *MouseInputFilter) InjectKeyEvent(event protocol.KeyEvent) {
	if f.inputStub != nil {
		f.inputStub.InjectKeyEvent(event)
	}
}

func (f *MouseInputFilter) InjectMouseEvent(event protocol.MouseEvent) {
	if f.inputStub == nil {
		return
	}
	position, ok := event.Position()
	if !ok {
		f.inputStub.InjectMouseEvent(event)
		return
	}
	if f.outputSize.IsEmpty() {
		return
	}
	mapped := protocol.Point{
		X: f.mapCoordinate(position.X, f.inputSize.Width, f.outputSize.Width),
		Y: f.mapCoordinate(position.Y, f.inputSize.Height, f.outputSize.Height),
	}
	f.inputStub.InjectMouseEvent(event.WithPosition(mapped))
}

// mapCoordinate scales value from [0, inputLength-1] to
// [0, outputLength-1], rounding to nearest, and clamps the result.
// Arithmetic is done in 64 bits so extreme client values cannot
// overflow.
func (f *MouseInputFilter) mapCoordinate(value, inputLength, outputLength int32) int32 {
	outputMax := int64(outputLength) - 1
	scaled := int64(value)
	if !f.inputSize.IsEmpty() {
		inputMax := int64(inputLength) - 1
		if inputMax > 0 {
			scaled = (scaled*outputMax + inputMax/2) / inputMax
		} else {
			scaled = 0
		}
	}
	return int32(min(max(scaled, 0), outputMax))
}
