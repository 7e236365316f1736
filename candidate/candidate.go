// Package candidate holds the options being bid on: each one has a fixed
// payoff multiplier and divisor, and a mutable estimate of how many
// competitors will also pick it.
package candidate

import (
	"errors"
	"fmt"
)

// Scale is applied to the payoff before dividing, so values stay integral
// with useful precision.
const Scale = 10000

var (
	ErrInvalidMultiplier = errors.New("invalid parameter: multiplier must be positive")
	ErrInvalidDivisor    = errors.New("invalid parameter: divisor must be at least 1")
)

// Candidate is identified by pointer, and by its ID for display. It is not
// safe for concurrent mutation.
type Candidate struct {
	id         int
	multiplier int
	divisor    int
	uptake     int
}

func New(id, multiplier, divisor int) (*Candidate, error) {
	if multiplier <= 0 {
		return nil, fmt.Errorf("candidate %d: %w", id, ErrInvalidMultiplier)
	}
	if divisor < 1 {
		return nil, fmt.Errorf("candidate %d: %w", id, ErrInvalidDivisor)
	}
	return &Candidate{id: id, multiplier: multiplier, divisor: divisor}, nil
}

func (c *Candidate) ID() int {
	return c.id
}

func (c *Candidate) Multiplier() int {
	return c.multiplier
}

func (c *Candidate) Divisor() int {
	return c.divisor
}

// Uptake is the current estimate of competing demand.
func (c *Candidate) Uptake() int {
	return c.uptake
}

// SetUptake replaces the estimate unconditionally.
func (c *Candidate) SetUptake(u int) {
	c.uptake = u
}

// Value is multiplier * Scale / (divisor + uptake) with truncating integer
// division. It is recomputed on every call.
func (c *Candidate) Value() int {
	return c.multiplier * Scale / (c.divisor + c.uptake)
}

// Reset clears the uptake estimate.
func (c *Candidate) Reset() {
	c.uptake = 0
}

func (c *Candidate) String() string {
	return fmt.Sprintf("<candidate %d: mult %d | div %d | uptake %d | value %d>",
		c.id, c.multiplier, c.divisor, c.uptake, c.Value())
}
