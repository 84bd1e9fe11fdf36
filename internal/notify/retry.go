// Package notify implements the notification dispatcher: scenario-specific
// email construction for finalized and redirected requests, PDF attachment
// rendering, and delivery with bounded retry. This file holds the retry
// primitive.
package notify

import "time"

// withRetry runs fn up to attempts times. After each failed attempt except
// the last it sleeps delay, then doubles delay for the next wait
// (e.g. 2s, 4s, 8s...). The error of the final attempt is returned when
// every attempt fails.
//
// The loop blocks the calling goroutine; there is no cancellation once a
// dispatch has started. attempts < 1 is treated as a single attempt.
func withRetry(attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
