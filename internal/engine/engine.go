// Package engine drives the zoo in real time and wires every system together.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is the real time between frames.
const DefaultInterval = 100 * time.Millisecond

// Engine paces frames in real time. Speed multiplies the real delta handed
// to OnFrame; 0 pauses the loop without stopping it.
type Engine struct {
	mu       sync.Mutex
	speed    float64
	interval time.Duration
	frames   uint64
	running  bool
	cancel   context.CancelFunc

	// OnFrame receives the scaled real delta in seconds.
	OnFrame func(dt float64)
}

// NewEngine creates an engine at speed 1. A non-positive interval uses DefaultInterval.
func NewEngine(interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{speed: 1, interval: interval}
}

// Run blocks, stepping one frame per interval, until ctx is done or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		slog.Warn("engine already running")
		return
	}
	e.running = true
	e.cancel = cancel
	interval := e.interval
	e.mu.Unlock()

	slog.Info("simulation engine started", "interval", interval, "speed", e.Speed())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			e.mu.Lock()
			e.running = false
			e.cancel = nil
			frames := e.frames
			e.mu.Unlock()
			slog.Info("simulation engine stopped", "frames", frames)
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			speed := e.Speed()
			if speed <= 0 {
				continue
			}
			e.Step(elapsed * speed)
		}
	}
}

// Stop ends a running loop. Safe to call when not running.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Step runs one frame with the given delta, outside of the real-time loop.
func (e *Engine) Step(dt float64) {
	e.mu.Lock()
	e.frames++
	fn := e.OnFrame
	e.mu.Unlock()

	if fn != nil {
		fn(dt)
	}
}

// SetSpeed sets the frame multiplier. Negative values are treated as 0.
func (e *Engine) SetSpeed(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v != e.speed {
		slog.Info("engine speed changed", "from", e.speed, "to", v)
	}
	e.speed = v
}

// Speed returns the current multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// Frames returns how many frames have run.
func (e *Engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}
