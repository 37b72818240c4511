package clock

import (
	"time"

	"github.com/avigneron/pumphouse/domain/port/outbound"
)

type systemClock struct{}

func NewSystemClock() outbound.Clock {
	return &systemClock{}
}

func (c *systemClock) Now() time.Time {
	return time.Now()
}
