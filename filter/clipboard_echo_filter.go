// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"encoding/binary"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/remotedesk/protocol"
)

// clipboardDigest identifies a clipboard value by its MIME type and data
// without retaining the data itself.
type clipboardDigest [32]byte

// clipboardDomainKey keys the BLAKE3 hash so clipboard digests cannot
// collide with digests computed for any other purpose.
var clipboardDomainKey = [32]byte{
	'r', 'e', 'm', 'o', 't', 'e', 'd', 'e', 's', 'k', '.', 'c', 'l', 'i', 'p', 'b',
	'o', 'a', 'r', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

func digestClipboardEvent(event protocol.ClipboardEvent) clipboardDigest {
	hasher, err := blake3.NewKeyed(clipboardDomainKey[:])
	if err != nil {
		// NewKeyed only fails for a key that is not 32 bytes.
		panic("filter: blake3 keyed hasher: " + err.Error())
	}
	// Length-prefix the MIME type so (mime, data) pairs are unambiguous.
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(event.MimeType)))
	hasher.Write(length[:])
	hasher.Write([]byte(event.MimeType))
	hasher.Write(event.Data)

	var digest clipboardDigest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// ClipboardEchoFilter sits between the client connection and the host
// clipboard. A value the client sends to the host is remembered; when
// the host clipboard then reports the same value back, it is not
// returned to the client.
//
// Client events enter through HostFilter and host events through
// ClientFilter. A nil stub on either side drops events travelling
// towards it.
type ClipboardEchoFilter struct {
	hostStub   protocol.ClipboardStub
	clientStub protocol.ClipboardStub

	clientLatest    clipboardDigest
	hasClientLatest bool

	hostFilter   hostClipboardFilter
	clientFilter clientClipboardFilter
}

// NewClipboardEchoFilter returns a filter with both stubs unset.
func NewClipboardEchoFilter() *ClipboardEchoFilter {
	f := &ClipboardEchoFilter{}
	f.hostFilter.parent = f
	f.clientFilter.parent = f
	return f
}

// SetHostStub sets the sink for events travelling to the host.
func (f *ClipboardEchoFilter) SetHostStub(hostStub protocol.ClipboardStub) {
	f.hostStub = hostStub
}

// SetClientStub sets the sink for events travelling to the client.
func (f *ClipboardEchoFilter) SetClientStub(clientStub protocol.ClipboardStub) {
	f.clientStub = clientStub
}

// HostFilter returns the stage that client-originated events are
// injected into.
func (f *ClipboardEchoFilter) HostFilter() protocol.ClipboardStub {
	return &f.hostFilter
}

// ClientFilter returns the stage that host-originated events are
// injected into.
func (f *ClipboardEchoFilter) ClientFilter() protocol.ClipboardStub {
	return &f.clientFilter
}

func (f *ClipboardEchoFilter) injectToHost(event protocol.ClipboardEvent) {
	f.clientLatest = digestClipboardEvent(event)
	f.hasClientLatest = true
	if f.hostStub != nil {
		f.hostStub.InjectClipboardEvent(event)
	}
}

func (f *ClipboardEchoFilter) injectToClient(event protocol.ClipboardEvent) {
	if f.hasClientLatest && digestClipboardEvent(event) == f.clientLatest {
		return
	}
	if f.clientStub != nil {
		f.clientStub.InjectClipboardEvent(event)
	}
}

type hostClipboardFilter struct {
	parent *ClipboardEchoFilter
}

func (h *hostClipboardFilter) InjectClipboardEvent(event protocol.ClipboardEvent) {
	h.parent.injectToHost(event)
}

type clientClipboardFilter struct {
	parent *ClipboardEchoFilter
}

func (c *clientClipboardFilter) InjectClipboardEvent(event protocol.ClipboardEvent) {
	c.parent.injectToClient(event)
}
