package report

import "time"

// SetNow swaps the clock and returns a func restoring it.
func SetNow(now func() time.Time) (restore func()) {
	prev := nowFunc
	nowFunc = now
	return func() { nowFunc = prev }
}
