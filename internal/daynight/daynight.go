package daynight

import (
	"sync"
	"time"
)

// Daytime время суток
type Daytime int

const (
	Day Daytime = iota
	Night
)

// String возвращает "day" или "night"
func (d Daytime) String() string {
	if d == Night {
		return "night"
	}
	return "day"
}

// MarshalText отдаёт время суток строкой
func (d Daytime) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Color цвет в RGB
type Color struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
}

var white = Color{R: 1, G: 1, B: 1}

// EnvironmentSettings освещение и цвет неба
type EnvironmentSettings struct {
	DirectionalIntensity float32 `json:"directional_intensity"`
	DirectionalColor     Color   `json:"directional_color"`
	AmbientBrightness    float32 `json:"ambient_brightness"`
	AmbientColor         Color   `json:"ambient_color"`
	SkyColor             Color   `json:"sky_color"`
}

// Пресеты дня и ночи
var (
	DayPreset = EnvironmentSettings{
		DirectionalIntensity: 10000,
		DirectionalColor:     white,
		AmbientBrightness:    100,
		AmbientColor:         white,
		SkyColor:             Color{R: 0.6, G: 0.8, B: 0.95},
	}
	NightPreset = EnvironmentSettings{
		DirectionalIntensity: 500,
		DirectionalColor:     Color{R: 0.2, G: 0.3, B: 0.7},
		AmbientBrightness:    30,
		AmbientColor:         Color{R: 0.2, G: 0.3, B: 0.6},
		SkyColor:             Color{R: 0.1, G: 0.1, B: 0.3},
	}
)

// Cycle переключатель дня и ночи.
// При Period > 0 переключается сам через Advance.
type Cycle struct {
	mu       sync.RWMutex
	current  Daytime
	period   float64
	elapsed  float64
	toggles  int
	onChange []func(Daytime, EnvironmentSettings)
}

// NewCycle создаёт цикл, начинающийся днём. period == 0 отключает автоматику.
func NewCycle(period time.Duration) *Cycle {
	if period < 0 {
		period = 0
	}
	return &Cycle{current: Day, period: period.Seconds()}
}

// OnChange подписывает обработчик на смену времени суток
func (c *Cycle) OnChange(fn func(Daytime, EnvironmentSettings)) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// Toggle переключает время суток и возвращает новое
func (c *Cycle) Toggle() Daytime {
	c.mu.Lock()
	c.elapsed = 0
	d := c.toggleLocked()
	handlers := append([]func(Daytime, EnvironmentSettings){}, c.onChange...)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(d, Preset(d))
	}
	return d
}

func (c *Cycle) toggleLocked() Daytime {
	if c.current == Day {
		c.current = Night
	} else {
		c.current = Day
	}
	c.toggles++
	return c.current
}

// Advance продвигает автоматический цикл на dt секунд.
// Возвращает true, если время суток сменилось.
func (c *Cycle) Advance(dt float64) bool {
	c.mu.Lock()
	if c.period <= 0 || dt <= 0 {
		c.mu.Unlock()
		return false
	}
	c.elapsed += dt
	changed := false
	for c.elapsed >= c.period {
		c.elapsed -= c.period
		c.toggleLocked()
		changed = true
	}
	d := c.current
	handlers := append([]func(Daytime, EnvironmentSettings){}, c.onChange...)
	c.mu.Unlock()

	if changed {
		for _, fn := range handlers {
			fn(d, Preset(d))
		}
	}
	return changed
}

// Current текущее время суток
func (c *Cycle) Current() Daytime {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Toggles сколько раз сменялось время суток
func (c *Cycle) Toggles() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.toggles
}

// Environment текущие настройки освещения
func (c *Cycle) Environment() EnvironmentSettings {
	return Preset(c.Current())
}

// Preset настройки для времени суток
func Preset(d Daytime) EnvironmentSettings {
	if d == Night {
		return NightPreset
	}
	return DayPreset
}
