package vnc

import "sync/atomic"

// Metric is a single named counter. The teacher's ClientConn kept a
// map[string]metrics.Metric of exactly this shape (bytes-received,
// bytes-sent) backed by an external metrics package not present in the
// retrieved source; reconstructed here as a self-contained counter.
type Metric interface {
	Adjust(delta int64)
	Value() int64
}

// Gauge is a Metric that simply accumulates.
type Gauge struct {
	v int64
}

func (g *Gauge) Adjust(delta int64) { atomic.AddInt64(&g.v, delta) }
func (g *Gauge) Value() int64       { return atomic.LoadInt64(&g.v) }

// sessionMetrics mirrors the teacher's ClientConn.metrics map, extended
// with a few counters the expanded decoders make meaningful.
type sessionMetrics struct {
	BytesReceived     Gauge
	BytesSent         Gauge
	RectanglesDecoded Gauge
	RectanglesSkipped Gauge
	ZlibResets        Gauge
}

func (m *sessionMetrics) asMap() map[string]Metric {
	return map[string]Metric{
		"bytes-received":     &m.BytesReceived,
		"bytes-sent":         &m.BytesSent,
		"rectangles-decoded": &m.RectanglesDecoded,
		"rectangles-skipped": &m.RectanglesSkipped,
		"zlib-resets":        &m.ZlibResets,
	}
}
