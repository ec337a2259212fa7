package posture

import (
	"math"
	"testing"

	"imucast/protocol"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAngles(t *testing.T) {
	cases := []struct {
		name        string
		s           protocol.Sample
		pitch, roll float64
	}{
		{"flat", protocol.Sample{Z: 9.81}, 0, 0},
		{"nose up", protocol.Sample{Y: 9.81}, 90, 0},
		{"on side", protocol.Sample{X: -9.81}, 0, 90},
		{"sentinel", protocol.Sentinel, 0, 0},
	}
	for _, c := range cases {
		if got := Pitch(c.s); !near(got, c.pitch) {
			t.Fatalf("%s: pitch=%v want %v", c.name, got, c.pitch)
		}
		if got := Roll(c.s); !near(got, c.roll) {
			t.Fatalf("%s: roll=%v want %v", c.name, got, c.roll)
		}
	}
}

func TestMountedRoll(t *testing.T) {
	if got := MountedRoll(10, true); got != 100 {
		t.Fatalf("opposite=%v want 100", got)
	}
	if got := MountedRoll(10, false); got != -100 {
		t.Fatalf("normal=%v want -100", got)
	}
}

func TestResample(t *testing.T) {
	got := Resample([]float64{0, 10}, 3)
	want := []float64{0, 5, 10}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Fatalf("Resample=%v want %v", got, want)
		}
	}

	ref := Resample(DefaultReference, RESAMPLE_POINTS)
	if len(ref) != RESAMPLE_POINTS {
		t.Fatalf("len=%d", len(ref))
	}
	if !near(ref[0], 14) || !near(ref[RESAMPLE_POINTS-1], -2.5) {
		t.Fatalf("endpoints %v %v", ref[0], ref[RESAMPLE_POINTS-1])
	}

	if got := Resample([]float64{3}, 4); got[0] != 3 || got[3] != 3 {
		t.Fatalf("single point=%v", got)
	}
}

func TestMSE(t *testing.T) {
	if got := MSE([]float64{1, 2, 3}, []float64{1, 2, 3}); got != 0 {
		t.Fatalf("identical=%v", got)
	}
	if got := MSE([]float64{0, 0}, []float64{2, 4}); got != 10 {
		t.Fatalf("mse=%v want 10", got)
	}
	if got := MSE([]float64{1}, []float64{1, 2}); got != 0 {
		t.Fatalf("mismatched lengths=%v", got)
	}
}

func TestEvaluate(t *testing.T) {
	flat := protocol.Frame{{Z: 9.81}, {Z: 9.81}, {Z: 9.81}}

	// every sensor flat and mounted the same way rolls -90
	e := NewEvaluator(nil, []float64{-90, -90}, DEFAULT_THRESHOLD)
	r := e.Evaluate(flat)
	if !r.Scored || r.Poor || !near(r.MSE, 0) {
		t.Fatalf("matching profile: %+v", r)
	}
	for i, roll := range r.Rolls() {
		if !near(roll, -90) {
			t.Fatalf("sensor %d roll=%v", i, roll)
		}
	}

	e = NewEvaluator([]int{0, 1}, nil, DEFAULT_THRESHOLD)
	r = e.Evaluate(flat)
	if !r.Poor {
		t.Fatalf("flat chain against the default reference should be poor, mse=%v", r.MSE)
	}
	if !near(r.Angles[0].Roll, 90) || !near(r.Angles[2].Roll, -90) {
		t.Fatalf("mounted rolls=%v", r.Rolls())
	}
}

func TestEvaluate_SingleSensorUnscored(t *testing.T) {
	r := NewEvaluator(nil, nil, DEFAULT_THRESHOLD).Evaluate(protocol.Frame{{Z: 9.81}})
	if r.Scored || r.Poor {
		t.Fatalf("single sensor report=%+v", r)
	}
	if len(r.Angles) != 1 {
		t.Fatalf("angles=%d", len(r.Angles))
	}
}

// lagrange evaluates the polynomial through (xs, ys) at x.
func lagrange(xs, ys []float64, x float64) float64 {
	var sum float64
	for i := range xs {
		p := ys[i]
		for j := range xs {
			if j != i {
				p *= (x - xs[j]) / (xs[i] - xs[j])
			}
		}
		sum += p
	}
	return sum
}

func TestCubic_InterpolatesFourPoints(t *testing.T) {
	xs := Positions(4)
	got, err := Cubic(xs, DefaultReference, RESAMPLE_POINTS)
	if err != nil {
		t.Fatalf("Cubic err=%v", err)
	}
	for i, x := range Positions(RESAMPLE_POINTS) {
		if want := lagrange(xs, DefaultReference, x); math.Abs(got[i]-want) > 1e-9 {
			t.Fatalf("point %d: %v want %v", i, got[i], want)
		}
	}

	if _, err := Cubic(Positions(3), []float64{1, 2, 3}, 10); err == nil {
		t.Fatalf("expected error below four points")
	}
}

func TestCubic_LeastSquaresRecoversPolynomial(t *testing.T) {
	poly := func(x float64) float64 { return 3 - 2*x + 5*x*x - 4*x*x*x }
	xs := Positions(7)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = poly(x)
	}

	got := Curve(xs, ys, 11)
	for i, x := range Positions(11) {
		if math.Abs(got[i]-poly(x)) > 1e-9 {
			t.Fatalf("x=%v: %v want %v", x, got[i], poly(x))
		}
	}
}

func TestLinear_UnevenPositions(t *testing.T) {
	got := Linear([]float64{0, 0.5}, []float64{0, 10}, 5)
	want := []float64{0, 5, 10, 10, 10}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Fatalf("Linear=%v want %v", got, want)
		}
	}
}

func TestScore_MatchesCubicProfile(t *testing.T) {
	e := NewEvaluator(nil, nil, DEFAULT_THRESHOLD)
	xs := Positions(4)

	cases := []struct {
		profile []float64
		mse     float64
		poor    bool
	}{
		// straight lines would score these 8.97 and 13.87
		{[]float64{10, -14, -3.5, -6.5}, 16.6813, true},
		{[]float64{4, -6, -12, 3}, 14.4360, true},
		{DefaultReference, 0, false},
	}
	for _, c := range cases {
		mse, ok := e.Score(xs, c.profile)
		if !ok {
			t.Fatalf("%v: not scored", c.profile)
		}
		if math.Abs(mse-c.mse) > 1e-3 {
			t.Fatalf("%v: mse=%v want %v", c.profile, mse, c.mse)
		}
		if (mse > DEFAULT_THRESHOLD) != c.poor {
			t.Fatalf("%v: poor=%v want %v", c.profile, mse > DEFAULT_THRESHOLD, c.poor)
		}
	}
}

func TestEvaluate_SentinelExcluded(t *testing.T) {
	// scored sensors roll -90 and -180; the sentinel sits between them at -90
	frame := protocol.Frame{{Z: 9.81}, protocol.Sentinel, {X: -9.81}}
	e := NewEvaluator(nil, []float64{-90, -180}, DEFAULT_THRESHOLD)

	r := e.Evaluate(frame)
	if len(r.Excluded) != 1 || r.Excluded[0] != 1 || !r.Angles[1].Missing {
		t.Fatalf("excluded=%v angles=%+v", r.Excluded, r.Angles)
	}
	if !r.Scored || !near(r.MSE, 0) {
		t.Fatalf("report=%+v", r)
	}

	r = e.Evaluate(protocol.Frame{{Z: 9.81}, protocol.Sentinel, protocol.Sentinel})
	if r.Scored || r.Poor {
		t.Fatalf("one scored sensor should not be scored: %+v", r)
	}
}
