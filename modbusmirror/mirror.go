// Package modbusmirror copies every received frame into a block of holding
// registers so PLCs and SCADA tools can watch the sensor chain.
//
// Register layout, relative to the base address:
//
//	0          status: bit 0 scored, bit 1 poor posture
//	1          posture MSE x100, saturated at 65535
//	2          sensor count N
//	3..3+3N    ax, ay, az per sensor, int16 in 0.01 m/s^2
//	3+3N..3+4N mounted roll per sensor, int16 in 0.01 degrees, 0 for a
//	           sensor reporting the sentinel
package modbusmirror

import (
	"fmt"
	"math"

	"imucast/receiver"
)

const (
	STATUS_SCORED = 1 << 0
	STATUS_POOR   = 1 << 1

	HEADER_REGS = 3

	// MAX_REGS is the write multiple registers limit of one request.
	MAX_REGS = 123
)

type registerWriter interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Mirror is a receiver sink.
type Mirror struct {
	w      registerWriter
	unitID uint8
	addr   uint16
	regs   []uint16
}

func New(w registerWriter, unitID uint8, addr uint16) *Mirror {
	return &Mirror{w: w, unitID: unitID, addr: addr}
}

func (m *Mirror) Consume(u receiver.Update) error {
	m.regs = Encode(m.regs[:0], u)
	if len(m.regs) > MAX_REGS {
		return fmt.Errorf("modbusmirror: %d sensors need %d registers, limit %d", len(u.Frame), len(m.regs), MAX_REGS)
	}
	if err := m.w.WriteRegisters(m.unitID, m.addr, m.regs); err != nil {
		return fmt.Errorf("modbusmirror: write %d registers at %d: %w", len(m.regs), m.addr, err)
	}
	return nil
}

// Encode appends the register image of u to dst.
func Encode(dst []uint16, u receiver.Update) []uint16 {
	var status uint16
	if u.Posture.Scored {
		status |= STATUS_SCORED
	}
	if u.Posture.Poor {
		status |= STATUS_POOR
	}
	dst = append(dst, status, saturateU16(u.Posture.MSE*100), uint16(len(u.Frame)))

	for _, s := range u.Frame {
		dst = append(dst,
			centi(float64(s.X)),
			centi(float64(s.Y)),
			centi(float64(s.Z)),
		)
	}
	for i := range u.Frame {
		var roll float64
		if i < len(u.Posture.Angles) && !u.Posture.Angles[i].Missing {
			roll = u.Posture.Angles[i].Roll
		}
		dst = append(dst, centi(roll))
	}
	return dst
}

// centi scales v by 100 into a two's complement int16 register.
func centi(v float64) uint16 {
	v = math.Round(v * 100)
	switch {
	case math.IsNaN(v):
		v = 0
	case v > math.MaxInt16:
		v = math.MaxInt16
	case v < math.MinInt16:
		v = math.MinInt16
	}
	return uint16(int16(v))
}

func saturateU16(v float64) uint16 {
	v = math.Round(v)
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}
