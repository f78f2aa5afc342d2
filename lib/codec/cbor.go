// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// maxPayloadArrayElements bounds arrays and maps decoded from a peer.
// Clipboard data travels as a byte string, not an array, so this limit
// only constrains structural fields.
const maxPayloadArrayElements = 4096

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Payloads are decoded into structs; any-typed targets only
		// appear in diagnostics, where string-keyed maps are expected.
		DefaultMapType:   reflect.TypeOf(map[string]any(nil)),
		MaxArrayElements: maxPayloadArrayElements,
		MaxMapPairs:      maxPayloadArrayElements,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for data.
// Used when logging a payload that failed to decode.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
