package visual

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCycleOrder(t *testing.T) {
	d := NewDriver(time.Millisecond)

	assert.Equal(t, StateIdle, d.State())
	assert.Equal(t, StateListening, d.Cycle())
	assert.Equal(t, StateThinking, d.Cycle())
	assert.Equal(t, StateSpeaking, d.Cycle())
	assert.Equal(t, StateIdle, d.Cycle())
}

func TestSetOverridesCycle(t *testing.T) {
	d := NewDriver(time.Millisecond)

	d.Set(StateSpeaking)
	assert.Equal(t, StateSpeaking, d.State())
	assert.Equal(t, StateIdle, d.Cycle())
}

func TestAmplitudeConvergesIntoBand(t *testing.T) {
	d := NewDriver(time.Millisecond)
	d.Set(StateSpeaking)

	for i := 0; i < 100; i++ {
		d.step()
	}

	band := amplitudeRange[StateSpeaking]
	amp := d.Amplitude()
	assert.GreaterOrEqual(t, amp, band[0]*0.5)
	assert.LessOrEqual(t, amp, band[1])
}

func TestAmplitudeSmoothingStepSize(t *testing.T) {
	d := NewDriver(time.Millisecond)
	d.Set(StateSpeaking)

	before := d.Amplitude()
	d.step()
	after := d.Amplitude()

	// One step can close at most the smoothing fraction of the gap to the
	// farthest possible target.
	band := amplitudeRange[StateSpeaking]
	maxMove := (band[1] - before) * smoothing
	assert.LessOrEqual(t, after-before, maxMove+1e-9)
}
