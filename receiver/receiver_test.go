package receiver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"imucast/posture"
	"imucast/protocol"
)

type recordSink struct {
	mu      sync.Mutex
	updates []Update
	got     chan struct{}
	err     error
}

func newRecordSink() *recordSink {
	return &recordSink{got: make(chan struct{}, 16)}
}

func (s *recordSink) Consume(u Update) error {
	s.mu.Lock()
	s.updates = append(s.updates, u)
	s.mu.Unlock()
	s.got <- struct{}{}
	return s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReceiver_DecodesAndDispatches(t *testing.T) {
	rx, err := Listen("127.0.0.1:0", 3, posture.NewEvaluator(nil, nil, posture.DEFAULT_THRESHOLD), discard())
	if err != nil {
		t.Fatalf("Listen err=%v", err)
	}
	sink := newRecordSink()
	rx.Handle(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- rx.Run(ctx) }()

	tx, err := net.DialUDP("udp4", nil, rx.LocalAddr())
	if err != nil {
		t.Fatalf("dial err=%v", err)
	}
	defer tx.Close()

	// malformed first: wrong channel count, then garbage
	_, _ = tx.Write([]byte("1.00,2.00,3.00"))
	_, _ = tx.Write([]byte("a,b,c,d"))
	_, _ = tx.Write([]byte("1.23,-2.00,9.81,0.00,0.00,0.00,0.00,0.10,-0.05"))

	select {
	case <-sink.got:
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame dispatched")
	}

	sink.mu.Lock()
	u := sink.updates[0]
	sink.mu.Unlock()
	if len(u.Frame) != 3 {
		t.Fatalf("frame len=%d", len(u.Frame))
	}
	if u.Frame[0] != (protocol.Sample{X: 1.23, Y: -2.00, Z: 9.81}) || !u.Frame[1].IsSentinel() {
		t.Fatalf("frame=%v", u.Frame)
	}
	if !u.Posture.Scored || len(u.Posture.Angles) != 3 {
		t.Fatalf("posture=%+v", u.Posture)
	}

	st := rx.Stats()
	if st.Frames != 1 || st.Malformed != 2 {
		t.Fatalf("stats=%+v", st)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run err=%v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop on cancel")
	}
}

func TestDispatch_SinkErrorsCounted(t *testing.T) {
	rx, err := Listen("127.0.0.1:0", 0, nil, discard())
	if err != nil {
		t.Fatalf("Listen err=%v", err)
	}
	defer rx.conn.Close()

	bad := newRecordSink()
	bad.err = errors.New("offline")
	good := newRecordSink()
	rx.Handle(bad, good)

	rx.dispatch(nil, []byte("1.00,2.00,3.00,4.00,5.00,6.00"))

	if len(good.updates) != 1 {
		t.Fatalf("second sink skipped after first failed")
	}
	if good.updates[0].Posture.Scored {
		t.Fatalf("no evaluator, posture should be empty")
	}
	if st := rx.Stats(); st.SinkErrors != 1 || st.Frames != 1 {
		t.Fatalf("stats=%+v", st)
	}
}

func TestListen_Rejects(t *testing.T) {
	if _, err := Listen("127.0.0.1:0", -1, nil, nil); err == nil {
		t.Fatalf("expected error for negative channels")
	}
	if _, err := Listen("not an address", 0, nil, nil); err == nil {
		t.Fatalf("expected error for bad address")
	}
}

func TestLogSink_RateLimited(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)), 20*time.Millisecond)

	ev := posture.NewEvaluator([]int{0, 1}, nil, posture.DEFAULT_THRESHOLD)
	frame := protocol.Frame{{Z: 9.81}, {Z: 9.81}, {Z: 9.81}, {Z: 9.81}}
	t0 := time.Unix(0, 0)
	for _, ms := range []int{0, 5, 19, 20, 30, 45} {
		_ = sink.Consume(Update{
			At:      t0.Add(time.Duration(ms) * time.Millisecond),
			Frame:   frame,
			Posture: ev.Evaluate(frame),
		})
	}

	out := buf.String()
	if n := strings.Count(out, "msg=frame"); n != 3 {
		t.Fatalf("logged %d times, want 3 (0, 20, 45):\n%s", n, out)
	}
	if !strings.Contains(out, "rolls=") || !strings.Contains(out, "poor=true") {
		t.Fatalf("missing posture attrs:\n%s", out)
	}
}

func TestDispatch_SentinelNotScored(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rx, err := Listen("127.0.0.1:0", 3, posture.NewEvaluator(nil, nil, posture.DEFAULT_THRESHOLD), log)
	if err != nil {
		t.Fatalf("Listen err=%v", err)
	}
	defer rx.conn.Close()

	sink := newRecordSink()
	rx.Handle(sink)
	rx.dispatch(nil, []byte("0.00,0.00,9.81,0.00,0.00,0.00,0.00,0.00,9.81"))

	p := sink.updates[0].Posture
	if len(p.Excluded) != 1 || p.Excluded[0] != 1 {
		t.Fatalf("excluded=%v", p.Excluded)
	}
	if !strings.Contains(buf.String(), "sentinel samples not scored") {
		t.Fatalf("missing debug line:\n%s", buf.String())
	}
}
