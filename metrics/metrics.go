package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Subsystem = "framing"
)

// Error types used as the "type" label of ErrorCount.
const (
	ErrorTransport = "transport"
	ErrorDecode    = "decode"
	ErrorEncode    = "encode"
	ErrorWriteZero = "write_zero"
)

var (
	FramesDecoded = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: Subsystem,
		Name:      "frames_decoded",
		Help:      "The number of frames produced by the read side.",
	})
	FramesEncoded = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: Subsystem,
		Name:      "frames_encoded",
		Help:      "The number of items encoded into the write buffer.",
	})
	BytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: Subsystem,
		Name:      "bytes_read",
		Help:      "The number of bytes read from transports.",
	})
	BytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: Subsystem,
		Name:      "bytes_written",
		Help:      "The number of bytes accepted by transport writes.",
	})
	ErrorCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: Subsystem,
		Name:      "error_count",
		Help:      "The number of errors surfaced by framed transports.",
	}, []string{"type"})
	LimitExceeded = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: Subsystem,
		Name:      "limit_exceeded",
		Help:      "The number of frames rejected for exceeding the maximum frame size.",
	})
	Defunct = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: Subsystem,
		Name:      "defunct",
		Help:      "The number of bounded decoders that gave up on their stream.",
	})
	FlushLatency = prometheus.NewSummary(prometheus.SummaryOpts{
		Subsystem: Subsystem,
		Name:      "flush_latency_microseconds",
		Help:      "Time to drain the write buffer into the transport.",
	})
)

var registerMetrics sync.Once

func Register() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(FramesDecoded)
		prometheus.MustRegister(FramesEncoded)
		prometheus.MustRegister(BytesRead)
		prometheus.MustRegister(BytesWritten)
		prometheus.MustRegister(ErrorCount)
		prometheus.MustRegister(LimitExceeded)
		prometheus.MustRegister(Defunct)
		prometheus.MustRegister(FlushLatency)
	})
}

func InMicroseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds() / time.Microsecond.Nanoseconds())
}
