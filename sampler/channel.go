package sampler

import (
	"imucast/mpu6050"
)

// Sensor is the driver contract the loop depends on.
type Sensor interface {
	Configure(s mpu6050.Settings) error
	ReadAcceleration() (x, y, z float32, err error)
}

type Health uint8

const (
	HEALTHY Health = iota
	FAILED_AT_INIT
)

func (h Health) String() string {
	switch h {
	case HEALTHY:
		return "healthy"
	case FAILED_AT_INIT:
		return "failed-at-init"
	default:
		return "unknown"
	}
}

// Channel is one sensor position and its select line.
type Channel struct {
	Index  int
	Line   string
	Sensor Sensor
	Health Health
}

// NewChannels pairs sensors with their line names in channel order.
func NewChannels(lines []string, sensors []Sensor) []*Channel {
	channels := make([]*Channel, len(sensors))
	for i, s := range sensors {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		channels[i] = &Channel{Index: i, Line: line, Sensor: s}
	}
	return channels
}
