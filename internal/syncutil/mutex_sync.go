//go:build !deadlock

// Package syncutil provides mutex primitives with optional deadlock detection.
// Build with -tags=deadlock to swap in the detector during development.
package syncutil

import "sync"

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = false

// A Mutex is a mutual exclusion lock.
type Mutex struct {
	sync.Mutex
}
