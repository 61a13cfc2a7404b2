package llm

import "time"

// SetBackoffBase shortens retry delays for the duration of a test.
func SetBackoffBase(d time.Duration) (restore func()) {
	prev := backoffBase
	backoffBase = d
	return func() { backoffBase = prev }
}
