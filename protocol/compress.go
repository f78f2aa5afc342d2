// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm applied to a frame payload. The
// tag travels in every frame header; these values are protocol constants.
type Compression uint8

const (
	// CompressionNone leaves the payload as encoded CBOR.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression. Cheap enough for any
	// frame; modest ratio.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level. Better ratio for
	// text clipboard contents.
	CompressionZstd Compression = 2
)

func (compression Compression) String() string {
	switch compression {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(compression))
	}
}

// ParseCompression parses a compression name as written in configuration.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// errIncompressible is returned by the compressors when the output would
// not be smaller than the input. Callers send the payload uncompressed.
var errIncompressible = errors.New("payload is incompressible")

// uncompressedSizeLength prefixes every compressed payload with the
// original length so decompression can be bounded before it starts.
const uncompressedSizeLength = 4

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("protocol: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxPayloadLength))
	if err != nil {
		panic("protocol: zstd decoder initialization failed: " + err.Error())
	}
}

// compressPayload compresses data with the given algorithm. Returns
// errIncompressible when compression does not pay for itself.
func compressPayload(data []byte, compression Compression) ([]byte, error) {
	var body []byte
	switch compression {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// CompressBlock returns 0 for incompressible input.
		if written == 0 {
			return nil, errIncompressible
		}
		body = destination[:written]

	case CompressionZstd:
		body = zstdEncoder.EncodeAll(data, nil)

	default:
		return nil, fmt.Errorf("unsupported compression %s", compression)
	}

	if len(body)+uncompressedSizeLength >= len(data) {
		return nil, errIncompressible
	}
	compressed := make([]byte, uncompressedSizeLength+len(body))
	binary.BigEndian.PutUint32(compressed[:uncompressedSizeLength], uint32(len(data)))
	copy(compressed[uncompressedSizeLength:], body)
	return compressed, nil
}

// decompressPayload reverses compressPayload. The declared uncompressed
// size is checked against maxPayloadLength before any allocation.
func decompressPayload(compressed []byte, compression Compression) ([]byte, error) {
	if compression == CompressionNone {
		return compressed, nil
	}
	if len(compressed) < uncompressedSizeLength {
		return nil, fmt.Errorf("%s payload too short: %d bytes", compression, len(compressed))
	}
	size := binary.BigEndian.Uint32(compressed[:uncompressedSizeLength])
	if size > maxPayloadLength {
		return nil, fmt.Errorf("%s payload declares %d bytes, exceeds maximum %d", compression, size, maxPayloadLength)
	}
	body := compressed[uncompressedSizeLength:]

	switch compression {
	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(body, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != int(size) {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil

	case CompressionZstd:
		destination, err := zstdDecoder.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(destination) != int(size) {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(destination), size)
		}
		return destination, nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", compression)
	}
}
