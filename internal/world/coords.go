package world

import (
	"fmt"
	"math"
	"sort"

	"github.com/annel0/chunkstream/internal/vec"
)

// ChunkCoord координаты чанка на бесконечной сетке (X, Z).
// Значение сравнимо через == и пригодно как ключ карты.
type ChunkCoord struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// String возвращает "(x,z)"
func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Less задаёт порядок X, затем Z
func (c ChunkCoord) Less(other ChunkCoord) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	return c.Z < other.Z
}

// ChebyshevDistance возвращает max(|dx|, |dz|)
func (c ChunkCoord) ChebyshevDistance(other ChunkCoord) int {
	dx := abs(c.X - other.X)
	dz := abs(c.Z - other.Z)
	if dx > dz {
		return dx
	}
	return dz
}

// Origin возвращает мировую позицию чанка (x*size, 0, z*size)
func (c ChunkCoord) Origin(chunkSize float64) vec.Vec3Float {
	return vec.Vec3Float{X: float64(c.X) * chunkSize, Y: 0, Z: float64(c.Z) * chunkSize}
}

// WorldToChunk переводит мировую позицию в координаты чанка.
// Используется floor, а не усечение: x = -0.5 при размере 20 даёт -1.
// Координата Y игнорируется.
func WorldToChunk(position vec.Vec3Float, chunkSize float64) ChunkCoord {
	return ChunkCoord{
		X: int(math.Floor(position.X / chunkSize)),
		Z: int(math.Floor(position.Z / chunkSize)),
	}
}

// ChunkSet множество координат чанков
type ChunkSet map[ChunkCoord]struct{}

// NewChunkSet собирает множество из перечисленных координат
func NewChunkSet(coords ...ChunkCoord) ChunkSet {
	s := make(ChunkSet, len(coords))
	for _, c := range coords {
		s[c] = struct{}{}
	}
	return s
}

// Contains проверяет принадлежность
func (s ChunkSet) Contains(c ChunkCoord) bool {
	_, ok := s[c]
	return ok
}

// Equal сравнивает два множества
func (s ChunkSet) Equal(other ChunkSet) bool {
	if len(s) != len(other) {
		return false
	}
	for c := range s {
		if !other.Contains(c) {
			return false
		}
	}
	return true
}

// Sorted возвращает элементы в порядке X, затем Z
func (s ChunkSet) Sorted() []ChunkCoord {
	out := make([]ChunkCoord, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	SortCoords(out)
	return out
}

// SortCoords сортирует срез координат на месте
func SortCoords(coords []ChunkCoord) {
	sort.Slice(coords, func(i, j int) bool { return coords[i].Less(coords[j]) })
}

// RequiredChunks возвращает квадрат со стороной 2r+1 вокруг ref:
// все координаты с расстоянием Чебышёва не больше renderDistance.
func RequiredChunks(ref ChunkCoord, renderDistance int) ChunkSet {
	if renderDistance < 0 {
		return ChunkSet{}
	}
	side := 2*renderDistance + 1
	set := make(ChunkSet, side*side)
	for x := ref.X - renderDistance; x <= ref.X+renderDistance; x++ {
		for z := ref.Z - renderDistance; z <= ref.Z+renderDistance; z++ {
			set[ChunkCoord{X: x, Z: z}] = struct{}{}
		}
	}
	return set
}

// Plan результат сверки активного и требуемого множеств.
// ToCreate и ToDestroy не пересекаются и отсортированы.
type Plan struct {
	ToCreate  []ChunkCoord
	ToDestroy []ChunkCoord
}

// Empty сообщает, что действий не требуется
func (p Plan) Empty() bool {
	return len(p.ToCreate) == 0 && len(p.ToDestroy) == 0
}

// Reconcile вычисляет ToCreate = required \ active и ToDestroy = active \ required
func Reconcile(active, required ChunkSet) Plan {
	var plan Plan
	for c := range required {
		if !active.Contains(c) {
			plan.ToCreate = append(plan.ToCreate, c)
		}
	}
	for c := range active {
		if !required.Contains(c) {
			plan.ToDestroy = append(plan.ToDestroy, c)
		}
	}
	SortCoords(plan.ToCreate)
	SortCoords(plan.ToDestroy)
	return plan
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
