package player

import (
	"math/rand"
	"time"
)

// Walker заменяет клавиатуру в безголовом режиме
type Walker interface {
	// Next возвращает ввод для кадра длительностью dt секунд
	Next(dt float64) Input
}

// Idle никогда не двигается
type Idle struct{}

// Next реализует Walker
func (Idle) Next(float64) Input { return Input{} }

// Waypoint ввод, удерживаемый заданное время
type Waypoint struct {
	Input    Input
	Duration time.Duration
}

// ScriptedWalker циклически проигрывает список вводов
type ScriptedWalker struct {
	script  []Waypoint
	index   int
	elapsed float64
}

// Scripted создаёт сценарий; пустой сценарий эквивалентен Idle
func Scripted(script ...Waypoint) *ScriptedWalker {
	filtered := make([]Waypoint, 0, len(script))
	for _, w := range script {
		if w.Duration > 0 {
			filtered = append(filtered, w)
		}
	}
	return &ScriptedWalker{script: filtered}
}

// Next реализует Walker. Ввод определяется по моменту начала кадра.
func (w *ScriptedWalker) Next(dt float64) Input {
	if len(w.script) == 0 {
		return Input{}
	}
	for w.elapsed >= w.script[w.index].Duration.Seconds() {
		w.elapsed -= w.script[w.index].Duration.Seconds()
		w.index = (w.index + 1) % len(w.script)
	}
	in := w.script[w.index].Input
	if dt > 0 {
		w.elapsed += dt
	}
	return in
}

// Square сценарий: квадрат со стороной side при скорости speed
func Square(side, speed float64) *ScriptedWalker {
	if speed <= 0 || side <= 0 {
		return Scripted()
	}
	leg := time.Duration(side / speed * float64(time.Second))
	return Scripted(
		Waypoint{Input: Input{Forward: true}, Duration: leg},
		Waypoint{Input: Input{Right: true}, Duration: leg},
		Waypoint{Input: Input{Back: true}, Duration: leg},
		Waypoint{Input: Input{Left: true}, Duration: leg},
	)
}

// directions восемь направлений и стоянка
var directions = []Input{
	{},
	{Forward: true},
	{Back: true},
	{Left: true},
	{Right: true},
	{Forward: true, Left: true},
	{Forward: true, Right: true},
	{Back: true, Left: true},
	{Back: true, Right: true},
}

// RandomWalker меняет направление каждые turnEvery секунд.
// Последовательность детерминирована сидом.
type RandomWalker struct {
	rng       *rand.Rand
	turnEvery float64
	elapsed   float64
	current   Input
}

// RandomWalk создаёт случайное блуждание
func RandomWalk(seed int64, turnEvery time.Duration) *RandomWalker {
	if turnEvery <= 0 {
		turnEvery = 3 * time.Second
	}
	w := &RandomWalker{
		rng:       rand.New(rand.NewSource(seed)),
		turnEvery: turnEvery.Seconds(),
	}
	w.current = w.pick()
	return w
}

func (w *RandomWalker) pick() Input {
	return directions[w.rng.Intn(len(directions))]
}

// Next реализует Walker
func (w *RandomWalker) Next(dt float64) Input {
	for w.elapsed >= w.turnEvery {
		w.elapsed -= w.turnEvery
		w.current = w.pick()
	}
	if dt > 0 {
		w.elapsed += dt
	}
	return w.current
}
