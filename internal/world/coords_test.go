package world

import (
	"testing"

	"github.com/annel0/chunkstream/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldToChunk_FloorForNegative(t *testing.T) {
	// Сценарий D: x = -0.5 при размере 20 лежит в чанке -1, а не 0
	c := WorldToChunk(vec.Vec3Float{X: -0.5, Y: 3, Z: 0}, 20)
	assert.Equal(t, ChunkCoord{X: -1, Z: 0}, c)

	c = WorldToChunk(vec.Vec3Float{X: -20, Z: -20.0001}, 20)
	assert.Equal(t, ChunkCoord{X: -1, Z: -2}, c)

	c = WorldToChunk(vec.Vec3Float{X: 39.999, Y: -100, Z: 0}, 20)
	assert.Equal(t, ChunkCoord{X: 1, Z: 0}, c, "Y не должна влиять на координату чанка")
}

func TestWorldToChunk_TranslationWithinChunk(t *testing.T) {
	const size = 20.0
	for k := -3; k <= 3; k++ {
		base := vec.Vec3Float{X: float64(k) * size, Z: float64(-k) * size}
		want := WorldToChunk(base, size)
		for _, d := range []float64{0, 0.25, 5, 10, 19.75} {
			moved := base.Add(vec.Vec3Float{X: d, Y: 7, Z: d})
			assert.Equal(t, want, WorldToChunk(moved, size), "сдвиг %v внутри чанка не должен менять координату", d)
		}
	}
}

func TestWorldToChunk_BoundaryCrossing(t *testing.T) {
	const size = 20.0
	for k := -4; k <= 4; k++ {
		edge := float64(k) * size
		before := WorldToChunk(vec.Vec3Float{X: edge - 0.25}, size)
		after := WorldToChunk(vec.Vec3Float{X: edge}, size)
		assert.Equal(t, before.X+1, after.X, "пересечение границы по X меняет координату на 1")
		assert.Equal(t, before.Z, after.Z)

		before = WorldToChunk(vec.Vec3Float{Z: edge - 0.25}, size)
		after = WorldToChunk(vec.Vec3Float{Z: edge}, size)
		assert.Equal(t, before.Z+1, after.Z, "пересечение границы по Z меняет координату на 1")
		assert.Equal(t, before.X, after.X)
	}
}

func TestRequiredChunks_Size(t *testing.T) {
	refs := []ChunkCoord{{0, 0}, {5, -3}, {-100, 42}}
	for _, ref := range refs {
		for r := 0; r <= 6; r++ {
			set := RequiredChunks(ref, r)
			assert.Len(t, set, (2*r+1)*(2*r+1))
			for c := range set {
				assert.LessOrEqual(t, c.ChebyshevDistance(ref), r)
			}
		}
	}
	assert.Empty(t, RequiredChunks(ChunkCoord{}, -1))
}

func TestRequiredChunks_ScenarioA(t *testing.T) {
	ref := WorldToChunk(vec.Vec3Float{}, 20)
	require.Equal(t, ChunkCoord{}, ref)

	want := ChunkSet{}
	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			want[ChunkCoord{X: x, Z: z}] = struct{}{}
		}
	}
	assert.True(t, want.Equal(RequiredChunks(ref, 1)))
}

func TestReconcile_ScenarioB(t *testing.T) {
	active := RequiredChunks(ChunkCoord{0, 0}, 1)
	ref := WorldToChunk(vec.Vec3Float{X: 21}, 20)
	require.Equal(t, ChunkCoord{X: 1, Z: 0}, ref)

	plan := Reconcile(active, RequiredChunks(ref, 1))
	assert.Equal(t, []ChunkCoord{{2, -1}, {2, 0}, {2, 1}}, plan.ToCreate)
	assert.Equal(t, []ChunkCoord{{-1, -1}, {-1, 0}, {-1, 1}}, plan.ToDestroy)
}

func TestReconcile_DisjointAndIdempotent(t *testing.T) {
	active := RequiredChunks(ChunkCoord{3, 3}, 2)
	required := RequiredChunks(ChunkCoord{-1, 4}, 3)

	plan := Reconcile(active, required)
	toCreate := NewChunkSet(plan.ToCreate...)
	for _, c := range plan.ToDestroy {
		assert.False(t, toCreate.Contains(c), "наборы создания и удаления не должны пересекаться")
		assert.True(t, active.Contains(c))
	}
	for _, c := range plan.ToCreate {
		assert.False(t, active.Contains(c))
	}

	// Применяем план и сверяем повторно
	next := ChunkSet{}
	for c := range active {
		next[c] = struct{}{}
	}
	for _, c := range plan.ToDestroy {
		delete(next, c)
	}
	for _, c := range plan.ToCreate {
		next[c] = struct{}{}
	}
	assert.True(t, next.Equal(required))
	assert.True(t, Reconcile(next, required).Empty())
}

func TestChunkCoord_Helpers(t *testing.T) {
	assert.Equal(t, "(-2,7)", ChunkCoord{-2, 7}.String())
	assert.Equal(t, vec.Vec3Float{X: -40, Z: 140}, ChunkCoord{-2, 7}.Origin(20))
	assert.Equal(t, 5, ChunkCoord{0, 0}.ChebyshevDistance(ChunkCoord{-5, 3}))
	assert.Equal(t, []ChunkCoord{{-1, 2}, {0, -1}, {0, 3}}, NewChunkSet(ChunkCoord{0, 3}, ChunkCoord{-1, 2}, ChunkCoord{0, -1}).Sorted())
}
