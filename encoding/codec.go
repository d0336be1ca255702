// Package encoding assembles byte-frame codecs by name and composes them
// with compression and frame size limits.
package encoding

import (
	"io"

	"github.com/pkg/errors"

	"github.com/mesos/framed-go/config"
	"github.com/mesos/framed-go/encoding/framing"
	"github.com/mesos/framed-go/encoding/length"
	"github.com/mesos/framed-go/encoding/limit"
	"github.com/mesos/framed-go/encoding/lines"
	"github.com/mesos/framed-go/encoding/snappy"
	"github.com/mesos/framed-go/recordio"
)

type (
	// ByteCodec frames byte slices and knows how to skip a bad frame.
	ByteCodec = limit.CodecWithSkipAhead[[]byte, []byte]

	// A Codec names a way of framing byte slices.
	Codec struct {
		Name string
		New  func(config.Config) ByteCodec
	}
)

// DefaultCodecs are the codecs a config.Config may select, by name.
var DefaultCodecs = map[string]Codec{
	"bytes": {
		Name: "bytes",
		New:  func(config.Config) ByteCodec { return framing.BytesCodec{} },
	},
	"length": {
		Name: "length",
		New:  func(cfg config.Config) ByteCodec { return length.New(cfg.LengthWidth) },
	},
	"lines": {
		Name: "lines",
		New:  func(config.Config) ByteCodec { return lineBytes{} },
	},
	"recordio": {
		Name: "recordio",
		New: func(cfg config.Config) ByteCodec {
			if cfg.MaxFrameSize > 0 {
				return recordio.New(recordio.MaxMessageSize(cfg.MaxFrameSize))
			}
			return recordio.New()
		},
	},
}

// New returns the codec selected by cfg, compressing frames if cfg asks for
// it and bounding their size if cfg sets a maximum frame size.
func New(cfg config.Config) (framing.Codec[[]byte, []byte], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c, ok := DefaultCodecs[cfg.Codec]
	if !ok {
		return nil, errors.Errorf("no codec named %q", cfg.Codec)
	}
	codec := c.New(cfg)
	if cfg.Compression == config.CompressionSnappy {
		codec = snappy.New(codec, cfg.MaxDecodedLen)
	}
	if cfg.MaxFrameSize > 0 {
		return limit.New[[]byte, []byte](codec, cfg.MaxFrameSize), nil
	}
	return codec, nil
}

// NewFramed returns a framed transport over rw configured by cfg.
func NewFramed(rw io.ReadWriter, cfg config.Config) (*framing.Framed[[]byte, []byte], error) {
	codec, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return framing.NewFramed[[]byte, []byte](rw, codec, cfg.FramingOptions()...), nil
}

// lineBytes is lines.Codec over byte slices.
type lineBytes struct{ lines.Codec }

func (c lineBytes) Decode(src *framing.Buffer) ([]byte, bool, error) {
	return asBytes(c.Codec.Decode(src))
}

func (c lineBytes) DecodeEOF(src *framing.Buffer) ([]byte, bool, error) {
	return asBytes(c.Codec.DecodeEOF(src))
}

func asBytes(s string, ok bool, err error) ([]byte, bool, error) {
	if !ok {
		return nil, false, err
	}
	return []byte(s), true, nil
}

func (c lineBytes) Encode(item []byte, dst *framing.Buffer) error {
	dst.Write(item)
	return nil
}
