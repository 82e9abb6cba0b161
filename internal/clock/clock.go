// Package clock abstracts time for services that classify invoices by date
// or expire caches, so tests can pin "now".
package clock

import (
	"time"

	"go.uber.org/fx"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func provideClock() Clock {
	return SystemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(provideClock),
)
