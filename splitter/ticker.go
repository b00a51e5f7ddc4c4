package splitter

import "time"

// A Ticker delivers tick boundaries.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

// A TickerFactory creates a ticker with the given period.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

// NewRealTicker returns a Ticker backed by time.Ticker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

func (r realTicker) C() <-chan time.Time {
	return r.t.C
}

func (r realTicker) Reset(d time.Duration) {
	r.t.Reset(d)
}

func (r realTicker) Stop() {
	r.t.Stop()
}
