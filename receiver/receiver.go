package receiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"imucast/posture"
	"imucast/protocol"
)

// MAX_DATAGRAM covers the largest frame the sampler can build.
const MAX_DATAGRAM = 1500

// Update is one decoded frame as handed to the sinks.
type Update struct {
	At      time.Time
	From    *net.UDPAddr
	Frame   protocol.Frame
	Posture posture.Report
}

type Sink interface {
	Consume(u Update) error
}

type Stats struct {
	Frames     uint64
	Malformed  uint64
	SinkErrors uint64
}

type Receiver struct {
	conn      *net.UDPConn
	channels  int
	evaluator *posture.Evaluator
	sinks     []Sink
	log       *slog.Logger
	now       func() time.Time

	frames     atomic.Uint64
	malformed  atomic.Uint64
	sinkErrors atomic.Uint64
}

// Listen binds addr ("host:port" or ":port"). channels fixes the expected
// sensor count; zero accepts any whole number of samples.
func Listen(addr string, channels int, evaluator *posture.Evaluator, log *slog.Logger) (*Receiver, error) {
	if channels < 0 {
		return nil, errors.New("receiver: channels must be >= 0")
	}
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("receiver: resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("receiver: listen %s: %w", addr, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Receiver{
		conn:      conn,
		channels:  channels,
		evaluator: evaluator,
		log:       log,
		now:       time.Now,
	}, nil
}

// Handle registers sinks. Call before Run.
func (r *Receiver) Handle(sinks ...Sink) {
	r.sinks = append(r.sinks, sinks...)
}

func (r *Receiver) LocalAddr() *net.UDPAddr {
	return r.conn.LocalAddr().(*net.UDPAddr)
}

func (r *Receiver) Stats() Stats {
	return Stats{
		Frames:     r.frames.Load(),
		Malformed:  r.malformed.Load(),
		SinkErrors: r.sinkErrors.Load(),
	}
}

// Run reads datagrams until ctx is done, then closes the socket.
func (r *Receiver) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = r.conn.Close()
	}()

	buf := make([]byte, MAX_DATAGRAM)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receiver: read: %w", err)
		}
		r.dispatch(from, buf[:n])
	}
}

func (r *Receiver) dispatch(from *net.UDPAddr, data []byte) {
	frame, err := protocol.Unmarshal(data, r.channels)
	if err != nil {
		r.malformed.Add(1)
		r.log.Debug("malformed datagram", "from", from, "len", len(data), "err", err)
		return
	}
	r.frames.Add(1)

	u := Update{At: r.now(), From: from, Frame: frame}
	if r.evaluator != nil {
		u.Posture = r.evaluator.Evaluate(frame)
		if len(u.Posture.Excluded) > 0 {
			r.log.Debug("sentinel samples not scored", "from", from, "sensors", u.Posture.Excluded)
		}
	}
	for _, s := range r.sinks {
		if err := s.Consume(u); err != nil {
			r.sinkErrors.Add(1)
			r.log.Warn("sink failed", "err", err)
		}
	}
}
