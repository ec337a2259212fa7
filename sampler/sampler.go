package sampler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"imucast/mpu6050"
	"imucast/multiplexer"
	"imucast/protocol"
)

// Transmitter hands one payload to the link. Delivery is not confirmed.
type Transmitter interface {
	Send(payload []byte)
}

type Config struct {
	Period   time.Duration
	Settings mpu6050.Settings

	// IdleBackoff is slept after a no-op tick. Zero keeps the loop a pure
	// busy poll that only yields the processor.
	IdleBackoff time.Duration

	// StatsInterval controls the housekeeping stats log; zero disables it.
	StatsInterval time.Duration

	// Now reads the monotonic clock. Defaults to time.Now.
	Now func() time.Time
}

type Stats struct {
	Ticks        uint64
	Sweeps       uint64
	ReadFailures uint64
}

// Loop owns the sampling cadence. It is driven by a single goroutine and
// holds no locks.
type Loop struct {
	cfg      Config
	mux      multiplexer.Selector
	channels []*Channel
	tx       Transmitter
	log      *slog.Logger
	sleep    func(time.Duration)

	published   bool
	lastPublish time.Time
	lastStats   time.Time

	frame   protocol.Frame
	payload []byte
	stats   Stats
}

func New(cfg Config, mux multiplexer.Selector, channels []*Channel, tx Transmitter, log *slog.Logger) (*Loop, error) {
	if cfg.Period <= 0 {
		return nil, errors.New("sampler: period must be > 0")
	}
	if mux == nil || tx == nil {
		return nil, errors.New("sampler: multiplexer and transmitter required")
	}
	if len(channels) == 0 {
		return nil, errors.New("sampler: at least one channel required")
	}
	if len(channels) != mux.Channels() {
		return nil, fmt.Errorf("sampler: %d channels but multiplexer has %d", len(channels), mux.Channels())
	}
	for i, ch := range channels {
		if ch == nil || ch.Sensor == nil {
			return nil, fmt.Errorf("sampler: channel %d has no sensor", i)
		}
		if ch.Index != i {
			return nil, fmt.Errorf("sampler: channel %d out of order (index %d)", i, ch.Index)
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}

	return &Loop{
		cfg:      cfg,
		mux:      mux,
		channels: channels,
		tx:       tx,
		log:      log,
		sleep:    time.Sleep,
		frame:    make(protocol.Frame, len(channels)),
	}, nil
}

// Init configures every sensor once. A sensor that fails stays in the sweep
// and reports the sentinel for the lifetime of the loop.
func (l *Loop) Init() {
	for _, ch := range l.channels {
		err := l.mux.Select(ch.Index)
		if err == nil {
			err = ch.Sensor.Configure(l.cfg.Settings)
		}
		if err != nil {
			ch.Health = FAILED_AT_INIT
			l.log.Warn("sensor not found", "channel", ch.Index, "line", ch.Line, "err", err)
			continue
		}
		ch.Health = HEALTHY
		l.log.Info("sensor found", "channel", ch.Index, "line", ch.Line)
	}
}

func (l *Loop) Channels() []*Channel {
	return l.channels
}

func (l *Loop) Stats() Stats {
	return l.stats
}

// Tick performs one sweep and publishes it if the period has elapsed since
// the last publish. It reports whether a frame was sent.
func (l *Loop) Tick() bool {
	l.stats.Ticks++

	now := l.cfg.Now()
	if l.published && now.Sub(l.lastPublish) < l.cfg.Period {
		return false
	}
	// stamp before the sweep so a slow sweep does not push the next deadline
	l.lastPublish = now
	l.published = true

	l.Sweep()
	l.payload = protocol.AppendFrame(l.payload[:0], l.frame)
	l.tx.Send(l.payload)
	return true
}

// Sweep reads every channel in order into the loop's frame and returns it.
// The frame is reused by the next sweep.
func (l *Loop) Sweep() protocol.Frame {
	for i, ch := range l.channels {
		l.frame[i] = l.read(ch)
	}
	l.stats.Sweeps++
	return l.frame
}

func (l *Loop) read(ch *Channel) protocol.Sample {
	if err := l.mux.Select(ch.Index); err != nil {
		l.stats.ReadFailures++
		return protocol.Sentinel
	}
	if ch.Health != HEALTHY {
		l.stats.ReadFailures++
		return protocol.Sentinel
	}
	x, y, z, err := ch.Sensor.ReadAcceleration()
	if err != nil {
		l.stats.ReadFailures++
		return protocol.Sentinel
	}
	return protocol.Sample{X: x, Y: y, Z: z}
}

// Run polls Tick until ctx is done. Housekeeping runs between ticks.
func (l *Loop) Run(ctx context.Context) {
	l.lastStats = l.cfg.Now()
	for {
		if ctx.Err() != nil {
			return
		}
		if !l.Tick() {
			l.idle()
		}
		l.housekeeping()
	}
}

func (l *Loop) idle() {
	if l.cfg.IdleBackoff > 0 {
		l.sleep(l.cfg.IdleBackoff)
		return
	}
	runtime.Gosched()
}

func (l *Loop) housekeeping() {
	if l.cfg.StatsInterval <= 0 {
		return
	}
	now := l.cfg.Now()
	if now.Sub(l.lastStats) < l.cfg.StatsInterval {
		return
	}
	l.lastStats = now
	l.log.Debug("sampler stats",
		"ticks", l.stats.Ticks,
		"sweeps", l.stats.Sweeps,
		"read_failures", l.stats.ReadFailures,
	)
}
