package receiver

import (
	"log/slog"
	"math"
	"time"
)

// LogSink prints the roll profile and its score at most once per interval.
type LogSink struct {
	log      *slog.Logger
	interval time.Duration
	last     time.Time
}

func NewLogSink(log *slog.Logger, interval time.Duration) *LogSink {
	return &LogSink{log: log, interval: interval}
}

func (s *LogSink) Consume(u Update) error {
	if !s.last.IsZero() && u.At.Sub(s.last) < s.interval {
		return nil
	}
	s.last = u.At

	attrs := []any{"from", u.From, "frame", u.Frame.String()}
	if len(u.Posture.Angles) > 0 {
		attrs = append(attrs, "rolls", rounded(u.Posture.Rolls()))
	}
	if u.Posture.Scored {
		attrs = append(attrs, "mse", round2(u.Posture.MSE), "poor", u.Posture.Poor)
	}
	s.log.Info("frame", attrs...)
	return nil
}

func rounded(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = round2(v)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
