package repository

import (
	"context"
	"time"
)

// ScanLease is a per-profile mutual exclusion lock. The scheduler acquires a
// lease before enqueuing a scan so the same profile is never scanned
// concurrently. Leases expire so a crashed worker cannot block future scans.
type ScanLease interface {
	// Acquire returns true if the lease was taken, false if it is held.
	Acquire(ctx context.Context, profileID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, profileID string) error
}
