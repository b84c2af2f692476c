package realtime

import "time"

// DefaultBackoff is the reconnect delay table. Attempt N waits table[N-1];
// attempts past the end of the table wait the final (capped) entry.
var DefaultBackoff = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
}

// BackoffDelay returns the delay before reconnect attempt number `attempt`
// (1-based) for the given table. It is a pure function so the schedule can be
// verified without waiting on real timers.
func BackoffDelay(attempt int, table []time.Duration) time.Duration {
	if len(table) == 0 {
		table = DefaultBackoff
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(table) {
		return table[len(table)-1]
	}
	return table[attempt-1]
}
