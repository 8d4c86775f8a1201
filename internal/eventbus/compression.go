package eventbus

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
)

// Compressor encodes a message body before it goes on the wire.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Name() string
}

// NewCompressor resolves a config knob value to a Compressor. "lz4" is
// accepted for compatibility with deployments that request it, but no
// lz4 implementation exists anywhere in this module's dependency set, so
// it falls back to passthrough rather than failing configuration.
func NewCompressor(codec string) Compressor {
	switch codec {
	case "gzip":
		return gzipCompressor{}
	case "s2", "snappy":
		return s2Compressor{}
	default:
		return noopCompressor{}
	}
}

type noopCompressor struct{}

func (noopCompressor) Compress(data []byte) ([]byte, error) { return data, nil }
func (noopCompressor) Name() string                         { return "none" }

type gzipCompressor struct{}

func (gzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

func (gzipCompressor) Name() string { return "gzip" }

type s2Compressor struct{}

func (s2Compressor) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (s2Compressor) Name() string { return "s2" }

// Decompress reverses Compress given the codec name an envelope was
// tagged with. Kept alongside the compressors since the producer side
// needs it to validate round-trips in tests even though production
// decoding happens downstream of this package.
func Decompress(codec string, data []byte) ([]byte, error) {
	switch codec {
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case "s2":
		return s2.Decode(nil, data)
	default:
		return data, nil
	}
}
