// Package config loads the settings of framed transports from TOML files.
package config

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/mesos/framed-go/encoding/framing"
	"github.com/mesos/framed-go/encoding/length"
)

// Compression algorithms.
const (
	CompressionNone   = "none"
	CompressionSnappy = "snappy"
)

// Codecs lists the codec names a Config may select.
var Codecs = []string{"bytes", "length", "lines", "recordio"}

// Config describes a framed transport: its buffers, the codec framing the
// stream and the limits applied to it.
type Config struct {
	ReadCapacity         int
	WriteCapacity        int
	BackpressureBoundary int

	Codec       string
	LengthWidth length.Width // header width of the "length" codec

	// MaxFrameSize bounds frames in both directions; 0 disables the limit.
	MaxFrameSize int

	Compression   string
	MaxDecodedLen int // of a decompressed frame, 0 for the default
}

type fileConfig struct {
	ReadCapacity         int    `toml:"read_capacity"`
	WriteCapacity        int    `toml:"write_capacity"`
	BackpressureBoundary int    `toml:"backpressure_boundary"`
	Codec                string `toml:"codec"`
	LengthWidth          int    `toml:"length_width"`
	MaxFrameSize         int    `toml:"max_frame_size"`
	Compression          string `toml:"compression"`
	MaxDecodedLen        int    `toml:"max_decoded_len"`
}

// Default returns the configuration used for anything a file leaves out.
func Default() Config {
	return Config{
		ReadCapacity:         framing.DefaultCapacity,
		WriteCapacity:        framing.DefaultCapacity,
		BackpressureBoundary: framing.DefaultBackpressureBoundary,
		Codec:                "length",
		LengthWidth:          length.Uint32,
		Compression:          CompressionNone,
	}
}

// Load reads the TOML file at path over Default and validates the result.
func Load(path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %q", path)
	}
	return build(meta, &raw)
}

// Parse is Load for a TOML document held in memory.
func Parse(doc string) (Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(doc, &raw)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	return build(meta, &raw)
}

func build(meta toml.MetaData, raw *fileConfig) (Config, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Errorf("unknown config key %q", undecoded[0].String())
	}

	cfg := Default()
	if meta.IsDefined("read_capacity") {
		cfg.ReadCapacity = raw.ReadCapacity
	}
	if meta.IsDefined("write_capacity") {
		cfg.WriteCapacity = raw.WriteCapacity
	}
	if meta.IsDefined("backpressure_boundary") {
		cfg.BackpressureBoundary = raw.BackpressureBoundary
	}
	if meta.IsDefined("codec") {
		cfg.Codec = strings.ToLower(strings.TrimSpace(raw.Codec))
	}
	if meta.IsDefined("length_width") {
		w, err := length.ParseWidth(raw.LengthWidth)
		if err != nil {
			return Config{}, errors.Wrap(err, "parse length_width")
		}
		cfg.LengthWidth = w
	}
	if meta.IsDefined("max_frame_size") {
		cfg.MaxFrameSize = raw.MaxFrameSize
	}
	if meta.IsDefined("compression") {
		cfg.Compression = strings.ToLower(strings.TrimSpace(raw.Compression))
	}
	if meta.IsDefined("max_decoded_len") {
		cfg.MaxDecodedLen = raw.MaxDecodedLen
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that is out of range.
func (c Config) Validate() error {
	switch {
	case c.ReadCapacity < 0:
		return errors.Errorf("read_capacity must not be negative, got %d", c.ReadCapacity)
	case c.WriteCapacity < 0:
		return errors.Errorf("write_capacity must not be negative, got %d", c.WriteCapacity)
	case c.BackpressureBoundary <= 0:
		return errors.Errorf("backpressure_boundary must be positive, got %d", c.BackpressureBoundary)
	case c.MaxFrameSize < 0:
		return errors.Errorf("max_frame_size must not be negative, got %d", c.MaxFrameSize)
	case c.MaxDecodedLen < 0:
		return errors.Errorf("max_decoded_len must not be negative, got %d", c.MaxDecodedLen)
	}
	if !knownCodec(c.Codec) {
		return errors.Errorf("unknown codec %q, expected one of %s", c.Codec, strings.Join(Codecs, ", "))
	}
	if _, err := length.ParseWidth(int(c.LengthWidth)); err != nil {
		return err
	}
	switch c.Compression {
	case CompressionNone:
	case CompressionSnappy:
		// compressed payloads may contain any byte
		if c.Codec == "bytes" || c.Codec == "lines" {
			return errors.Errorf("codec %q can't carry compressed frames", c.Codec)
		}
	default:
		return errors.Errorf("unknown compression %q", c.Compression)
	}
	return nil
}

func knownCodec(name string) bool {
	for _, c := range Codecs {
		if c == name {
			return true
		}
	}
	return false
}

// FramingOptions returns the buffer settings as framing options.
func (c Config) FramingOptions() []framing.Option {
	return []framing.Option{
		framing.ReadCapacity(c.ReadCapacity),
		framing.WriteCapacity(c.WriteCapacity),
		framing.BackpressureBoundary(c.BackpressureBoundary),
	}
}
