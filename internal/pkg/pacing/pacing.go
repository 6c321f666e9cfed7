// Package pacing spaces out game requests with a dice-rolled jitter so a
// batch of accounts does not hit the game server in lockstep.
package pacing

import (
	"context"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"
)

// Config describes the delay between floors: Base plus (d(JitterSides)-1)
// steps of JitterStep.
type Config struct {
	Base        time.Duration
	JitterStep  time.Duration
	JitterSides int
	// Roller defaults to dice.DefaultRoller
	Roller dice.Roller
}

// Pacer produces and waits out delays
type Pacer struct {
	base  time.Duration
	step  time.Duration
	sides int
	roll  dice.Roller
}

// New creates a Pacer. A zero Config never waits.
func New(cfg Config) *Pacer {
	p := &Pacer{
		base:  cfg.Base,
		step:  cfg.JitterStep,
		sides: cfg.JitterSides,
		roll:  cfg.Roller,
	}
	if p.roll == nil {
		p.roll = dice.DefaultRoller
	}
	return p
}

// None is a Pacer that never waits
func None() *Pacer {
	return New(Config{})
}

// Delay returns the next delay
func (p *Pacer) Delay() time.Duration {
	d := p.base
	if p.step > 0 && p.sides > 1 {
		n, err := p.roll.Roll(p.sides)
		if err == nil && n > 1 {
			d += time.Duration(n-1) * p.step
		}
	}
	return d
}

// Wait sleeps for the next delay. It returns false when ctx is done or stop
// is closed before the delay elapses.
func (p *Pacer) Wait(ctx context.Context, stop <-chan struct{}) bool {
	d := p.Delay()
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-stop:
		return false
	}
}
