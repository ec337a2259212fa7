package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
)

const (
	SEPARATOR byte = ','
	PRECISION      = 2
	AXES           = 3
)

var (
	ErrEmpty      = errors.New("protocol: empty frame")
	ErrFieldCount = errors.New("protocol: field count is not a multiple of 3")
	ErrChannels   = errors.New("protocol: unexpected channel count")
)

// Sample is one acceleration vector in m/s².
type Sample struct {
	X, Y, Z float32
}

// Sentinel stands in for a failed read. It is indistinguishable on the wire
// from a genuine zero reading.
var Sentinel = Sample{}

// Frame holds one sample per channel in channel order.
type Frame []Sample

// AppendField appends v with exactly two fractional digits. Values that
// round to zero, and non-finite values, are written as 0.00.
func AppendField(dst []byte, v float32) []byte {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	if math.Abs(f) < 0.005 {
		f = 0
	}
	return strconv.AppendFloat(dst, f, 'f', PRECISION, 32)
}

func AppendSample(dst []byte, s Sample) []byte {
	dst = AppendField(dst, s.X)
	dst = append(dst, SEPARATOR)
	dst = AppendField(dst, s.Y)
	dst = append(dst, SEPARATOR)
	return AppendField(dst, s.Z)
}

// AppendFrame writes the samples comma separated, with no trailing separator.
func AppendFrame(dst []byte, f Frame) []byte {
	for i, s := range f {
		if i > 0 {
			dst = append(dst, SEPARATOR)
		}
		dst = AppendSample(dst, s)
	}
	return dst
}

func Marshal(f Frame) []byte {
	return AppendFrame(make([]byte, 0, len(f)*AXES*8), f)
}

// Unmarshal parses a datagram payload. When channels is positive the frame
// must carry exactly that many samples.
func Unmarshal(data []byte, channels int) (Frame, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	fields := bytes.Split(data, []byte{SEPARATOR})
	if len(fields)%AXES != 0 {
		return nil, ErrFieldCount
	}
	if channels > 0 && len(fields)/AXES != channels {
		return nil, fmt.Errorf("%w: got=%d want=%d", ErrChannels, len(fields)/AXES, channels)
	}

	values := make([]float32, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(string(field), 32)
		if err != nil {
			return nil, fmt.Errorf("protocol: field %d: %w", i, err)
		}
		values[i] = float32(v)
	}

	frame := make(Frame, 0, len(values)/AXES)
	for i := 0; i < len(values); i += AXES {
		frame = append(frame, Sample{X: values[i], Y: values[i+1], Z: values[i+2]})
	}
	return frame, nil
}

func (s Sample) IsSentinel() bool {
	return s == Sentinel
}

func (s Sample) String() string {
	return string(AppendSample(nil, s))
}

func (f Frame) String() string {
	return string(AppendFrame(nil, f))
}
