package services

import "time"

// Clock is injected so validity windows can be checked at exact instants.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }
