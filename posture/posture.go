// Package posture turns a frame of accelerations into per-sensor tilt angles
// and scores the roll profile along the sensor chain against a reference.
//
// Profiles are compared as curves over the chain, head at 0 and tail at 1.
// With four or more points the curve is the least squares cubic through
// them; with fewer it is piecewise linear.
package posture

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"imucast/protocol"
)

const (
	// RESAMPLE_POINTS is how many points both profiles are evaluated at
	// before comparison.
	RESAMPLE_POINTS = 100

	// CUBIC_MIN_POINTS is the smallest profile fitted with a cubic.
	CUBIC_MIN_POINTS = 4

	DEFAULT_THRESHOLD = 12.0

	ROLL_OFFSET = 90.0
)

// DefaultReference is the roll profile of a good posture for a four sensor
// chain, top to bottom.
var DefaultReference = []float64{14, -10, -7.5, -2.5}

const degrees = 180 / math.Pi

// Pitch is the rotation about the sensor X axis in degrees.
func Pitch(s protocol.Sample) float64 {
	x, y, z := float64(s.X), float64(s.Y), float64(s.Z)
	return math.Atan2(y, math.Sqrt(x*x+z*z)) * degrees
}

// Roll is the rotation about the sensor Y axis in degrees.
func Roll(s protocol.Sample) float64 {
	return math.Atan2(-float64(s.X), float64(s.Z)) * degrees
}

// MountedRoll folds the raw roll into the chain's frame. Sensors mounted
// facing the other way turn in the opposite sense.
func MountedRoll(roll float64, opposite bool) float64 {
	if opposite {
		return roll + ROLL_OFFSET
	}
	return -(roll + ROLL_OFFSET)
}

type Angles struct {
	Pitch float64
	Roll  float64

	// Missing marks a sentinel sample. Its angles are kept for display but
	// it does not take part in scoring.
	Missing bool
}

// Positions spreads n points evenly over [0, 1].
func Positions(n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		return out
	}
	for i := range out {
		out[i] = float64(i) / float64(n-1)
	}
	return out
}

// Resample evaluates the curve through values, taken at evenly spaced
// positions, at n evenly spaced points.
func Resample(values []float64, n int) []float64 {
	return Curve(Positions(len(values)), values, n)
}

// Curve evaluates the profile (xs, ys) at n evenly spaced points of [0, 1].
// xs must be ascending.
func Curve(xs, ys []float64, n int) []float64 {
	if len(xs) >= CUBIC_MIN_POINTS {
		if out, err := Cubic(xs, ys, n); err == nil {
			return out
		}
	}
	return Linear(xs, ys, n)
}

// Cubic fits a third degree polynomial to (xs, ys) by least squares and
// evaluates it at n evenly spaced points of [0, 1]. With exactly four points
// the fit passes through all of them.
func Cubic(xs, ys []float64, n int) ([]float64, error) {
	if len(xs) != len(ys) || len(xs) < CUBIC_MIN_POINTS {
		return nil, fmt.Errorf("posture: cubic fit needs %d or more points, got %d", CUBIC_MIN_POINTS, len(xs))
	}

	a := mat.NewDense(len(xs), 4, nil)
	for i, x := range xs {
		a.Set(i, 0, 1)
		a.Set(i, 1, x)
		a.Set(i, 2, x*x)
		a.Set(i, 3, x*x*x)
	}
	var c mat.VecDense
	if err := c.SolveVec(a, mat.NewVecDense(len(ys), append([]float64(nil), ys...))); err != nil {
		return nil, fmt.Errorf("posture: cubic fit: %w", err)
	}

	c0, c1, c2, c3 := c.AtVec(0), c.AtVec(1), c.AtVec(2), c.AtVec(3)
	out := make([]float64, n)
	for i, t := range Positions(n) {
		out[i] = c0 + t*(c1+t*(c2+t*c3))
	}
	return out, nil
}

// Linear evaluates the piecewise linear curve through (xs, ys) at n evenly
// spaced points of [0, 1]. Outside the first and last x it holds the end
// value.
func Linear(xs, ys []float64, n int) []float64 {
	out := make([]float64, n)
	if len(xs) == 0 || len(xs) != len(ys) {
		return out
	}

	seg := 0
	for i, t := range Positions(n) {
		switch {
		case t <= xs[0]:
			out[i] = ys[0]
		case t >= xs[len(xs)-1]:
			out[i] = ys[len(ys)-1]
		default:
			for xs[seg+1] < t {
				seg++
			}
			frac := (t - xs[seg]) / (xs[seg+1] - xs[seg])
			out[i] = ys[seg] + frac*(ys[seg+1]-ys[seg])
		}
	}
	return out
}

// MSE is the mean squared difference of two equally long series.
func MSE(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum / float64(len(a))
}

type Report struct {
	Angles []Angles

	// Excluded lists the sensors left out of scoring because they reported
	// the sentinel.
	Excluded []int

	// MSE is only meaningful when Scored is set: a profile needs at least
	// two scored sensors.
	MSE    float64
	Scored bool
	Poor   bool
}

// Rolls returns the mounted roll of every sensor in chain order.
func (r Report) Rolls() []float64 {
	out := make([]float64, len(r.Angles))
	for i, a := range r.Angles {
		out[i] = a.Roll
	}
	return out
}

type Evaluator struct {
	opposite  map[int]bool
	reference []float64
	threshold float64
}

// NewEvaluator uses DefaultReference when reference is empty. opposite lists
// the sensor indices mounted facing the other way.
func NewEvaluator(opposite []int, reference []float64, threshold float64) *Evaluator {
	if len(reference) == 0 {
		reference = DefaultReference
	}
	e := &Evaluator{
		opposite:  make(map[int]bool, len(opposite)),
		reference: Resample(reference, RESAMPLE_POINTS),
		threshold: threshold,
	}
	for _, i := range opposite {
		e.opposite[i] = true
	}
	return e
}

func (e *Evaluator) Evaluate(f protocol.Frame) Report {
	r := Report{Angles: make([]Angles, len(f))}
	pos := Positions(len(f))

	var xs, ys []float64
	for i, s := range f {
		a := Angles{
			Pitch:   Pitch(s),
			Roll:    MountedRoll(Roll(s), e.opposite[i]),
			Missing: s.IsSentinel(),
		}
		r.Angles[i] = a
		if a.Missing {
			r.Excluded = append(r.Excluded, i)
			continue
		}
		xs = append(xs, pos[i])
		ys = append(ys, a.Roll)
	}
	if len(xs) < 2 {
		return r
	}

	r.MSE, r.Scored = e.Score(xs, ys)
	r.Poor = r.MSE > e.threshold
	return r
}

// Score compares the roll profile (xs, ys) with the reference.
func (e *Evaluator) Score(xs, ys []float64) (float64, bool) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0, false
	}
	return MSE(Curve(xs, ys, RESAMPLE_POINTS), e.reference), true
}
