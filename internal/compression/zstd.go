// Package compression wraps zstd for snapshot files.
package compression

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compression levels accepted by NewCompressor.
const (
	LevelFastest = 1
	LevelDefault = 2
	LevelBetter  = 3
	LevelBest    = 4
)

var magic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ErrNotCompressed is returned by Decompress for input without a zstd frame header.
var ErrNotCompressed = errors.New("compression: input is not zstd compressed")

type Compressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewCompressor(level int) (*Compressor, error) {
	var encoderLevel zstd.EncoderLevel
	switch level {
	case LevelFastest:
		encoderLevel = zstd.SpeedFastest
	case LevelBetter:
		encoderLevel = zstd.SpeedBetterCompression
	case LevelBest:
		encoderLevel = zstd.SpeedBestCompression
	default:
		encoderLevel = zstd.SpeedDefault
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(encoderLevel),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, err
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		encoder.Close()
		return nil, err
	}

	return &Compressor{
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Compress always emits a zstd frame, even for tiny inputs, so readers can
// rely on the header.
func (c *Compressor) Compress(data []byte) []byte {
	return c.encoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return nil, ErrNotCompressed
	}
	out, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

// IsCompressed reports whether data starts with a zstd frame header.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

func (c *Compressor) Close() error {
	c.encoder.Close()
	c.decoder.Close()
	return nil
}
