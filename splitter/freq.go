package splitter

import (
	"log"
	"time"
)

// Freq is a tick rate.
type Freq float64

// Hz is one tick per second.
const Hz Freq = 1

// Tick rates selected by the slow PC setting.
const (
	NormalRate Freq = 60 * Hz
	SlowRate   Freq = 30 * Hz
)

// Period returns the time between two consecutive ticks.
func (f Freq) Period() time.Duration {
	if f <= 0 {
		log.Panic("frequency must be positive")
	}

	return time.Duration(float64(time.Second) / float64(f))
}
