package camera

import (
	"testing"

	"github.com/annel0/chunkstream/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestRigFollowConverges(t *testing.T) {
	r := NewRig(vec.Vec3Float{})
	target := vec.Vec3Float{X: 40, Z: -20}

	prev := r.Pose().Position.DistanceTo(target.Add(DefaultOffset))
	for i := 0; i < 300; i++ {
		r.Follow(target, 1.0/30)
		d := r.Pose().Position.DistanceTo(target.Add(DefaultOffset))
		assert.LessOrEqual(t, d, prev, "Камера не должна удаляться от цели")
		prev = d
	}
	assert.Less(t, prev, 0.01)
	assert.Equal(t, target, r.Pose().LookAt)
}

func TestRigFollowClampsLargeStep(t *testing.T) {
	r := NewRig(vec.Vec3Float{X: 100})
	pos := r.Follow(vec.Vec3Float{}, 10)
	assert.Equal(t, DefaultOffset, pos, "При speed*dt >= 1 камера встаёт в цель")

	r.Follow(vec.Vec3Float{X: 5}, -1)
	assert.Equal(t, DefaultOffset, r.Pose().Position, "Отрицательный dt не двигает камеру")
}

func TestRigSnap(t *testing.T) {
	r := NewRig(vec.Vec3Float{})
	r.Snap(vec.Vec3Float{X: 1, Y: 2, Z: 3})
	assert.Equal(t, vec.Vec3Float{X: 1, Y: 7, Z: 13}, r.Pose().Position)
}
