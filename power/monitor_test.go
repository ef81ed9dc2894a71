package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateZeroValueMatchesDefaults(t *testing.T) {
	var s State
	assert.False(t, s.OnBattery)
	assert.Nil(t, s.BatteryPercentage)
	assert.False(t, s.LidIsClosed)
}

func TestHandleReportsZeroValueUntilSet(t *testing.T) {
	_, h := NewMonitor(nil)
	assert.Equal(t, State{}, h.Current())
}

func TestHandleSetIsVisibleToCurrent(t *testing.T) {
	h := &Handle{}
	p := 42.5
	h.set(State{OnBattery: true, BatteryPercentage: &p, LidIsClosed: true})

	got := h.Current()
	assert.True(t, got.OnBattery)
	assert.True(t, got.LidIsClosed)
	if assert.NotNil(t, got.BatteryPercentage) {
		assert.InDelta(t, 42.5, *got.BatteryPercentage, 0.0001)
	}
}
