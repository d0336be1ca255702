package main

import (
	"bytes"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	log "github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesos/framed-go/config"
	"github.com/mesos/framed-go/encoding"
	"github.com/mesos/framed-go/encoding/framing"
	"github.com/mesos/framed-go/encoding/lines"
	"github.com/mesos/framed-go/metrics"
)

// CLI is the command line of framecat. Flags override the config file.
type CLI struct {
	Verbose        int    `short:"v" type:"counter" help:"Log verbosity, repeat for more."`
	Config         string `short:"c" type:"path" help:"TOML config file."`
	Codec          string `help:"Codec framing the stream: ${codecs}."`
	MaxFrameSize   int    `help:"Maximum frame size in bytes, 0 for no limit."`
	Compression    string `help:"Frame compression: none or snappy."`
	MetricsAddress string `help:"Serve prometheus metrics on this address while running."`

	Decode DecodeCmd `cmd:"" help:"Read frames from stdin and print their payloads."`
	Encode EncodeCmd `cmd:"" help:"Frame each line read from stdin and write the frames to stdout."`
}

// Env is what commands run against.
type Env struct {
	In     io.Reader
	Out    io.Writer
	Config config.Config
}

func parserOptions() []kong.Option {
	return []kong.Option{
		kong.Name("framecat"),
		kong.Description("Convert between newline separated text and framed streams."),
		kong.UsageOnError(),
		kong.Vars{"codecs": strings.Join(config.Codecs, ", ")},
	}
}

func (c *CLI) env(in io.Reader, out io.Writer) (*Env, error) {
	if c.Verbose > 0 {
		flag.Set("logtostderr", "true")
		flag.Set("v", strconv.Itoa(c.Verbose))
		// glog complains about logging before flag.Parse otherwise
		flag.CommandLine.Parse(nil)
	}

	cfg := config.Default()
	if c.Config != "" {
		var err error
		if cfg, err = config.Load(c.Config); err != nil {
			return nil, err
		}
	}
	if c.Codec != "" {
		cfg.Codec = c.Codec
	}
	if c.MaxFrameSize > 0 {
		cfg.MaxFrameSize = c.MaxFrameSize
	}
	if c.Compression != "" {
		cfg.Compression = c.Compression
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if c.MetricsAddress != "" {
		metrics.Register()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(c.MetricsAddress, mux); err != nil {
				log.Errorf("metrics server failed: %v", err)
			}
		}()
	}
	log.V(2).Infof("framecat: %+v", cfg)
	return &Env{In: in, Out: out, Config: cfg}, nil
}

// DecodeCmd prints one payload per line.
type DecodeCmd struct {
	Format string `enum:"raw,quoted,hex" default:"raw" help:"Payload format: raw, quoted or hex."`
}

func (d *DecodeCmd) Run(env *Env) error {
	codec, err := encoding.New(env.Config)
	if err != nil {
		return err
	}
	frames := framing.NewFramedRead[[]byte](env.In, codec, env.Config.FramingOptions()...)
	for {
		frame, err := frames.ReadFrame()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "decode")
		}
		if err = d.print(env.Out, frame); err != nil {
			return err
		}
	}
}

func (d *DecodeCmd) print(w io.Writer, frame []byte) error {
	var err error
	switch d.Format {
	case "quoted":
		_, err = fmt.Fprintf(w, "%q\n", frame)
	case "hex":
		_, err = fmt.Fprintln(w, hex.EncodeToString(frame))
	default:
		if bytes.HasSuffix(frame, []byte("\n")) {
			_, err = w.Write(frame)
		} else {
			_, err = fmt.Fprintf(w, "%s\n", frame)
		}
	}
	return err
}

// EncodeCmd frames lines without their delimiter, except for the lines codec
// where the delimiter is the framing. A final line without a newline is
// framed as well.
type EncodeCmd struct{}

func (EncodeCmd) Run(env *Env) error {
	codec, err := encoding.New(env.Config)
	if err != nil {
		return err
	}
	in := framing.NewFramedRead[string](env.In, lines.Codec{}, env.Config.FramingOptions()...)
	out := framing.NewFramedWrite[[]byte](env.Out, codec, env.Config.FramingOptions()...)

	for {
		line, err := in.ReadFrame()
		if err == io.EOF {
			break
		}
		if errors.Is(err, lines.ErrUnterminated) {
			line = in.ReadBuffer().String()
			in.ReadBuffer().Reset()
		} else if err != nil {
			return errors.Wrap(err, "read line")
		}
		payload := strings.TrimSuffix(line, "\n")
		if env.Config.Codec == "lines" {
			payload += "\n"
		}
		if err = out.Feed([]byte(payload)); err != nil {
			return errors.Wrap(err, "encode")
		}
	}
	return errors.Wrap(out.Flush(), "flush")
}
