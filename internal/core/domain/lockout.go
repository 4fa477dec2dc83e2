package domain

import "time"

const (
	DefaultMaxLoginAttempts = 5
	DefaultLockDuration     = 2 * time.Hour
)

// LockoutPolicy controls how failed logins lock an account.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// DefaultLockoutPolicy locks for two hours after five failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: DefaultMaxLoginAttempts, LockDuration: DefaultLockDuration}
}

// Normalize fills zero fields with defaults.
func (p LockoutPolicy) Normalize() LockoutPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxLoginAttempts
	}
	if p.LockDuration <= 0 {
		p.LockDuration = DefaultLockDuration
	}
	return p
}

// NextFailure computes the counter and lock state after one more failed
// attempt. A lock that has already elapsed is discarded and the counter
// restarts at 1. Stores must apply the same transition atomically.
func (p LockoutPolicy) NextFailure(attempts int, lockUntil *time.Time, now time.Time) (int, *time.Time) {
	p = p.Normalize()

	if lockUntil != nil && !now.Before(*lockUntil) {
		return 1, nil
	}

	attempts++
	locked := lockUntil != nil && now.Before(*lockUntil)
	if attempts >= p.MaxAttempts && !locked {
		until := now.Add(p.LockDuration)
		return attempts, &until
	}
	return attempts, lockUntil
}
