package protocol

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"testing"
)

func TestMarshal_MixedFrame(t *testing.T) {
	frame := Frame{
		{X: 1.23, Y: -2.00, Z: 9.81},
		Sentinel,
		{X: 0.00, Y: 0.10, Z: -0.05},
	}

	got := string(Marshal(frame))
	want := "1.23,-2.00,9.81,0.00,0.00,0.00,0.00,0.10,-0.05"
	if got != want {
		t.Fatalf("payload mismatch:\n got=%q\nwant=%q", got, want)
	}
}

func TestMarshal_SentinelMatchesGenuineZero(t *testing.T) {
	zero := Sample{X: 0, Y: 0, Z: 0}

	a := string(AppendSample(nil, Sentinel))
	b := string(AppendSample(nil, zero))
	if a != b || a != "0.00,0.00,0.00" {
		t.Fatalf("sentinel=%q zero=%q", a, b)
	}
}

func TestMarshal_Shape(t *testing.T) {
	field := regexp.MustCompile(`^-?\d+\.\d{2}$`)

	for n := 1; n <= 8; n++ {
		frame := make(Frame, n)
		for i := range frame {
			frame[i] = Sample{X: float32(i) * 1.111, Y: -float32(i) * 3.3333, Z: 9.80665}
		}

		payload := string(Marshal(frame))
		if strings.HasSuffix(payload, ",") || strings.ContainsAny(payload, " \n\r") {
			t.Fatalf("n=%d: bad delimiters in %q", n, payload)
		}

		fields := strings.Split(payload, ",")
		if len(fields) != 3*n {
			t.Fatalf("n=%d: expected %d fields, got %d", n, 3*n, len(fields))
		}
		for _, f := range fields {
			if !field.MatchString(f) {
				t.Fatalf("n=%d: field %q is not two-decimal", n, f)
			}
		}
	}
}

func TestAppendField_Normalizes(t *testing.T) {
	cases := []struct {
		in   float32
		want string
	}{
		{in: float32(math.Copysign(0, -1)), want: "0.00"},
		{in: -0.004, want: "0.00"},
		{in: float32(math.NaN()), want: "0.00"},
		{in: float32(math.Inf(1)), want: "0.00"},
		{in: 0.016, want: "0.02"},
		{in: -78.456, want: "-78.46"},
	}

	for _, c := range cases {
		if got := string(AppendField(nil, c.in)); got != c.want {
			t.Fatalf("AppendField(%v)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestUnmarshal_RoundTripScenario(t *testing.T) {
	frame, err := Unmarshal([]byte("1.23,-2.00,9.81,0.00,0.00,0.00,0.00,0.10,-0.05"), 3)
	if err != nil {
		t.Fatalf("Unmarshal err=%v", err)
	}
	if len(frame) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(frame))
	}
	if !frame[1].IsSentinel() {
		t.Fatalf("channel 1 should decode as sentinel, got %v", frame[1])
	}
	if frame[0].Z != 9.81 {
		t.Fatalf("channel 0 z=%v", frame[0].Z)
	}
}

func TestUnmarshal_Rejects(t *testing.T) {
	if _, err := Unmarshal(nil, 0); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := Unmarshal([]byte("1.00,2.00"), 0); !errors.Is(err, ErrFieldCount) {
		t.Fatalf("expected ErrFieldCount, got %v", err)
	}
	if _, err := Unmarshal([]byte("1.00,2.00,3.00"), 2); !errors.Is(err, ErrChannels) {
		t.Fatalf("expected ErrChannels, got %v", err)
	}
	if _, err := Unmarshal([]byte("1.00,x,3.00"), 0); err == nil {
		t.Fatalf("expected parse error, got nil")
	}
}
