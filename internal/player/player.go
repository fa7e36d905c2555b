package player

import (
	"sync"

	"github.com/annel0/chunkstream/internal/vec"
)

// DefaultSpeed скорость игрока в единицах мира в секунду
const DefaultSpeed = 5.0

// Input состояние клавиш направления на текущем кадре
type Input struct {
	Forward bool `json:"forward,omitempty"`
	Back    bool `json:"back,omitempty"`
	Left    bool `json:"left,omitempty"`
	Right   bool `json:"right,omitempty"`
}

// Direction возвращает ненормированное направление: вперёд это -Z, вправо +X
func (in Input) Direction() vec.Vec3Float {
	var d vec.Vec3Float
	if in.Forward {
		d.Z -= 1
	}
	if in.Back {
		d.Z += 1
	}
	if in.Left {
		d.X -= 1
	}
	if in.Right {
		d.X += 1
	}
	return d
}

// Idle нет нажатых клавиш
func (in Input) Idle() bool {
	return in.Direction() == vec.Zero3
}

// Player управляемый куб. Реализует world.ReferenceSource.
type Player struct {
	mu       sync.RWMutex
	id       string
	position vec.Vec3Float
	speed    float64
	spawned  bool
	moved    float64
}

// New создаёт игрока; до Spawn опорной точки нет
func New(id string, speed float64) *Player {
	if speed < 0 {
		speed = 0
	}
	return &Player{id: id, speed: speed}
}

// ID идентификатор игрока
func (p *Player) ID() string {
	return p.id
}

// Spawn помещает игрока в мир
func (p *Player) Spawn(at vec.Vec3Float) {
	p.mu.Lock()
	p.position = at
	p.spawned = true
	p.mu.Unlock()
}

// Despawn убирает игрока из мира
func (p *Player) Despawn() {
	p.mu.Lock()
	p.spawned = false
	p.mu.Unlock()
}

// Spawned находится ли игрок в мире
func (p *Player) Spawned() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.spawned
}

// Step сдвигает игрока: pos += normalize(dir) * speed * dt.
// Без нажатых клавиш или вне мира позиция не меняется.
func (p *Player) Step(in Input, dt float64) vec.Vec3Float {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.spawned || dt <= 0 {
		return p.position
	}
	delta := in.Direction().NormalizedOrZero().Mul(p.speed * dt)
	p.position = p.position.Add(delta)
	p.moved += delta.Length()
	return p.position
}

// Position текущая позиция
func (p *Player) Position() vec.Vec3Float {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.position
}

// Distance пройденный путь
func (p *Player) Distance() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.moved
}

// ReferencePosition реализует world.ReferenceSource
func (p *Player) ReferencePosition() (vec.Vec3Float, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.position, p.spawned
}

// State снимок игрока для API
type State struct {
	ID       string        `json:"id"`
	Position vec.Vec3Float `json:"position"`
	Spawned  bool          `json:"spawned"`
	Speed    float64       `json:"speed"`
	Distance float64       `json:"distance"`
}

// Snapshot возвращает снимок состояния
func (p *Player) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return State{ID: p.id, Position: p.position, Spawned: p.spawned, Speed: p.speed, Distance: p.moved}
}
