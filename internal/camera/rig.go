package camera

import (
	"math"
	"sync"

	"github.com/annel0/chunkstream/internal/vec"
)

// Значения по умолчанию: камера сзади-сверху игрока
var DefaultOffset = vec.Vec3Float{X: 0, Y: 5, Z: 10}

const DefaultFollowSpeed = 2.0

// Rig камера, плавно следующая за целью
type Rig struct {
	Offset      vec.Vec3Float
	FollowSpeed float64

	mu       sync.RWMutex
	position vec.Vec3Float
	lookAt   vec.Vec3Float
}

// NewRig создаёт камеру в начальной позиции
func NewRig(start vec.Vec3Float) *Rig {
	return &Rig{
		Offset:      DefaultOffset,
		FollowSpeed: DefaultFollowSpeed,
		position:    start,
	}
}

// Follow сдвигает камеру к target+Offset на долю clamp(FollowSpeed*dt, 0, 1)
// и направляет её на цель
func (r *Rig) Follow(target vec.Vec3Float, dt float64) vec.Vec3Float {
	t := math.Max(0, math.Min(1, r.FollowSpeed*dt))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.position = r.position.Lerp(target.Add(r.Offset), t)
	r.lookAt = target
	return r.position
}

// Snap ставит камеру сразу в целевую позицию
func (r *Rig) Snap(target vec.Vec3Float) {
	r.mu.Lock()
	r.position = target.Add(r.Offset)
	r.lookAt = target
	r.mu.Unlock()
}

// Pose позиция камеры и точка, на которую она смотрит
type Pose struct {
	Position vec.Vec3Float `json:"position"`
	LookAt   vec.Vec3Float `json:"look_at"`
}

// Pose возвращает текущую позу
func (r *Rig) Pose() Pose {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Pose{Position: r.position, LookAt: r.lookAt}
}
