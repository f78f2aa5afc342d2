// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"testing"

	"github.com/bureau-foundation/remotedesk/protocol"
)

func textEvent(text string) protocol.ClipboardEvent {
	return protocol.ClipboardEvent{MimeType: protocol.MimeTypeTextUTF8, Data: []byte(text)}
}

func TestClipboardEchoFilterSuppressesEcho(t *testing.T) {
	t.Parallel()
	host := &recorder{}
	client := &recorder{}
	echo := NewClipboardEchoFilter()
	echo.SetHostStub(host)
	echo.SetClientStub(client)

	echo.HostFilter().InjectClipboardEvent(textEvent("from client"))
	if len(host.clipboard) != 1 {
		t.Fatalf("host received %d events, want 1", len(host.clipboard))
	}

	// The host clipboard reports the value it was just given.
	echo.ClientFilter().InjectClipboardEvent(textEvent("from client"))
	if len(client.clipboard) != 0 {
		t.Errorf("echo of the client's own value reached the client")
	}

	echo.ClientFilter().InjectClipboardEvent(textEvent("copied on host"))
	if len(client.clipboard) != 1 || string(client.clipboard[0].Data) != "copied on host" {
		t.Errorf("client received %+v, want the host's new value", client.clipboard)
	}
}

func TestClipboardEchoFilterComparesMimeType(t *testing.T) {
	t.Parallel()
	client := &recorder{}
	echo := NewClipboardEchoFilter()
	echo.SetClientStub(client)

	echo.HostFilter().InjectClipboardEvent(textEvent("same bytes"))
	echo.ClientFilter().InjectClipboardEvent(protocol.ClipboardEvent{MimeType: "text/html", Data: []byte("same bytes")})

	if len(client.clipboard) != 1 {
		t.Errorf("different MIME type should not be treated as an echo")
	}
}

func TestClipboardEchoFilterForwardsBeforeAnyClientValue(t *testing.T) {
	t.Parallel()
	client := &recorder{}
	echo := NewClipboardEchoFilter()
	echo.SetClientStub(client)

	echo.ClientFilter().InjectClipboardEvent(protocol.ClipboardEvent{})
	if len(client.clipboard) != 1 {
		t.Errorf("empty host value should reach the client when the client has sent nothing")
	}
}

func TestClipboardEchoFilterNilStubsDrop(t *testing.T) {
	t.Parallel()
	echo := NewClipboardEchoFilter()
	echo.HostFilter().InjectClipboardEvent(textEvent("a"))
	echo.ClientFilter().InjectClipboardEvent(textEvent("b"))

	client := &recorder{}
	echo.SetClientStub(client)
	echo.ClientFilter().InjectClipboardEvent(textEvent("a"))
	if len(client.clipboard) != 0 {
		t.Error("value recorded while the host stub was nil should still suppress its echo")
	}
	echo.SetClientStub(nil)
	echo.ClientFilter().InjectClipboardEvent(textEvent("c"))
	if len(client.clipboard) != 0 {
		t.Error("nil client stub should drop")
	}
}
