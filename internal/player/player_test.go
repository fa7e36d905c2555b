package player

import (
	"math"
	"testing"
	"time"

	"github.com/annel0/chunkstream/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputDirection(t *testing.T) {
	assert.Equal(t, vec.Vec3Float{Z: -1}, Input{Forward: true}.Direction())
	assert.Equal(t, vec.Vec3Float{X: 1}, Input{Right: true}.Direction())
	assert.True(t, Input{Forward: true, Back: true}.Idle(), "Противоположные клавиши гасят друг друга")
	assert.True(t, Input{}.Idle())
}

func TestPlayerReferenceRequiresSpawn(t *testing.T) {
	p := New("p1", DefaultSpeed)
	_, ok := p.ReferencePosition()
	assert.False(t, ok, "До появления опорной точки нет")

	p.Spawn(vec.Vec3Float{X: 3})
	pos, ok := p.ReferencePosition()
	require.True(t, ok)
	assert.Equal(t, vec.Vec3Float{X: 3}, pos)

	p.Despawn()
	_, ok = p.ReferencePosition()
	assert.False(t, ok)
}

func TestPlayerStep(t *testing.T) {
	p := New("p1", 5)
	p.Spawn(vec.Vec3Float{})

	pos := p.Step(Input{Forward: true}, 1)
	assert.InDelta(t, -5, pos.Z, 1e-9)

	// Диагональ нормируется: длина шага равна speed*dt
	before := p.Position()
	after := p.Step(Input{Back: true, Right: true}, 0.5)
	assert.InDelta(t, 2.5, after.Sub(before).Length(), 1e-9)
	assert.InDelta(t, 2.5/math.Sqrt2, after.X, 1e-9)

	// Без ввода позиция не меняется
	assert.Equal(t, after, p.Step(Input{}, 1))
	assert.InDelta(t, 7.5, p.Distance(), 1e-9)
}

func TestPlayerStepWhileDespawned(t *testing.T) {
	p := New("p1", 5)
	pos := p.Step(Input{Right: true}, 1)
	assert.Equal(t, vec.Zero3, pos)
	assert.False(t, p.Snapshot().Spawned)
}

func TestScriptedWalker(t *testing.T) {
	w := Scripted(
		Waypoint{Input: Input{Forward: true}, Duration: time.Second},
		Waypoint{Input: Input{Right: true}, Duration: 500 * time.Millisecond},
	)

	assert.Equal(t, Input{Forward: true}, w.Next(0.5))
	assert.Equal(t, Input{Forward: true}, w.Next(0.5))
	assert.Equal(t, Input{Right: true}, w.Next(0.5))
	assert.Equal(t, Input{Forward: true}, w.Next(0.5), "Сценарий зацикливается")

	assert.Equal(t, Input{}, Scripted().Next(1))
}

func TestSquareReturnsHome(t *testing.T) {
	p := New("p1", 5)
	p.Spawn(vec.Vec3Float{})
	w := Square(20, 5)

	const dt = 0.25
	for i := 0; i < int(16/dt); i++ {
		p.Step(w.Next(dt), dt)
	}
	pos := p.Position()
	assert.InDelta(t, 0, pos.X, 1e-6)
	assert.InDelta(t, 0, pos.Z, 1e-6)
}

func TestRandomWalkDeterministic(t *testing.T) {
	a := RandomWalk(7, time.Second)
	b := RandomWalk(7, time.Second)
	for i := 0; i < 200; i++ {
		require.Equal(t, a.Next(0.25), b.Next(0.25), "шаг %d", i)
	}
}

func TestRandomWalkHoldsDirection(t *testing.T) {
	w := RandomWalk(3, time.Second)
	first := w.Next(0.25)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, w.Next(0.25))
	}
}

func TestIdleWalker(t *testing.T) {
	assert.True(t, Idle{}.Next(1).Idle())
}
