// Package rpcclient implements the RPC Client (spec.md §4.6): a
// Connection to the Task Gateway, submitting StagedTasks and polling
// SubmittedTasks to a Result. Grounded on original_source's
// low_level/task.py and low_level/task_result.py.
package rpcclient

import "time"

// PollConfig parameterizes the polling backoff of spec.md P7: successive
// inter-poll delays form min(d*m^k, D), capped at D, for at most
// max_attempts attempts.
type PollConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultPollConfig mirrors spec.md's worked example S5.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		InitialDelay: time.Second,
		Multiplier:   2,
		MaxDelay:     5 * time.Second,
		MaxAttempts:  3,
	}
}

// Backoff is a pure, stateful sequence generator for the polling delay.
// It holds no I/O dependency so it is fully unit-testable without a
// real clock or connection.
type Backoff struct {
	cfg     PollConfig
	delay   time.Duration
	attempt int
}

// NewBackoff starts a Backoff at cfg.InitialDelay.
func NewBackoff(cfg PollConfig) *Backoff {
	return &Backoff{cfg: cfg, delay: cfg.InitialDelay}
}

// Done reports whether MaxAttempts has been exhausted.
func (b *Backoff) Done() bool {
	return b.attempt >= b.cfg.MaxAttempts
}

// Attempt returns the number of attempts consumed so far.
func (b *Backoff) Attempt() int {
	return b.attempt
}

// Next returns the delay to sleep before the next poll attempt, then
// advances the sequence: delay = min(delay*multiplier, maxDelay).
func (b *Backoff) Next() time.Duration {
	delay := b.delay
	b.attempt++
	scaled := time.Duration(float64(b.delay) * b.cfg.Multiplier)
	if scaled > b.cfg.MaxDelay {
		scaled = b.cfg.MaxDelay
	}
	b.delay = scaled
	return delay
}
