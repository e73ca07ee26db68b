// Package visual maps the logical request state to the animated scalar the
// presentation layer renders. Purely cosmetic; nothing here feeds back into
// orchestration decisions.
package visual

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// State is one of the four presentation states.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateThinking  State = "thinking"
	StateSpeaking  State = "speaking"
)

var cycleOrder = []State{StateIdle, StateListening, StateThinking, StateSpeaking}

// amplitudeRange is the randomized target band per state.
var amplitudeRange = map[State][2]float64{
	StateIdle:      {0.05, 0.15},
	StateListening: {0.20, 0.50},
	StateThinking:  {0.30, 0.60},
	StateSpeaking:  {0.40, 0.90},
}

const smoothing = 0.4

// Driver owns the state machine and the smoothed amplitude signal.
type Driver struct {
	mu        sync.Mutex
	state     State
	amplitude float64
	rng       *rand.Rand
	tick      time.Duration
}

// NewDriver creates a driver starting at idle.
func NewDriver(tick time.Duration) *Driver {
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	return &Driver{
		state: StateIdle,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		tick:  tick,
	}
}

// Run advances the amplitude at a fixed tick until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.step()
		}
	}
}

// step moves the amplitude toward a freshly randomized target inside the
// current state's band: new = old + (target - old) * smoothing.
func (d *Driver) step() {
	d.mu.Lock()
	defer d.mu.Unlock()

	band := amplitudeRange[d.state]
	target := band[0] + d.rng.Float64()*(band[1]-band[0])
	d.amplitude += (target - d.amplitude) * smoothing
}

// Set drives the state from orchestration events.
func (d *Driver) Set(state State) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
}

// Cycle advances to the next state in presentation order.
func (d *Driver) Cycle() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range cycleOrder {
		if s == d.state {
			d.state = cycleOrder[(i+1)%len(cycleOrder)]
			return d.state
		}
	}
	d.state = StateIdle
	return d.state
}

// State returns the current presentation state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Amplitude returns the current smoothed scalar.
func (d *Driver) Amplitude() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.amplitude
}
