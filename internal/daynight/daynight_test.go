package daynight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToggle(t *testing.T) {
	c := NewCycle(0)
	assert.Equal(t, Day, c.Current())
	assert.Equal(t, DayPreset, c.Environment())

	assert.Equal(t, Night, c.Toggle())
	assert.Equal(t, NightPreset, c.Environment())
	assert.Equal(t, Day, c.Toggle())
	assert.Equal(t, 2, c.Toggles())
}

func TestAdvanceDisabled(t *testing.T) {
	c := NewCycle(0)
	assert.False(t, c.Advance(1000))
	assert.Equal(t, Day, c.Current())
}

func TestAdvancePeriod(t *testing.T) {
	c := NewCycle(2 * time.Second)
	var seen []Daytime
	c.OnChange(func(d Daytime, env EnvironmentSettings) {
		seen = append(seen, d)
		assert.Equal(t, Preset(d), env)
	})

	assert.False(t, c.Advance(1.5))
	assert.True(t, c.Advance(0.5))
	assert.Equal(t, Night, c.Current())
	assert.True(t, c.Advance(2))
	assert.Equal(t, []Daytime{Night, Day}, seen)
}

func TestManualToggleResetsTimer(t *testing.T) {
	c := NewCycle(2 * time.Second)
	c.Advance(1.5)
	c.Toggle()
	assert.False(t, c.Advance(1.5), "Ручное переключение сбрасывает таймер")
	assert.Equal(t, Night, c.Current())
}

func TestDaytimeString(t *testing.T) {
	assert.Equal(t, "day", Day.String())
	assert.Equal(t, "night", Night.String())
}
