package domain

import "time"

// Clock abstracts "now" so the lifecycle engine and the sweep job are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
