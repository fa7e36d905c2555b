package scene

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/chunkstream/internal/logging"
	"github.com/annel0/chunkstream/internal/storage"
	"github.com/annel0/chunkstream/internal/vec"
	"github.com/annel0/chunkstream/internal/world"
)

// ErrUnknownEntity объект с таким идентификатором не зарегистрирован
var ErrUnknownEntity = errors.New("unknown entity")

// Kind тип объекта сцены
type Kind int

const (
	KindChunk Kind = iota
	KindDecoration
)

// String возвращает имя типа
func (k Kind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindDecoration:
		return "decoration"
	default:
		return "unknown"
	}
}

// MarshalText позволяет отдавать тип в JSON строкой
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Color цвет в линейном RGB
type Color struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
}

// Palette цвета декораций по варианту
var Palette = [world.DecorationVariants]Color{
	{R: 1, G: 0, B: 0}, // красный
	{R: 0, G: 1, B: 0}, // зелёный
	{R: 0, G: 0, B: 1}, // синий
	{R: 1, G: 1, B: 0}, // жёлтый
}

// DecorationSize ребро куба-декорации
const DecorationSize = 1.0

// decorationLift смещение декорации над плоскостью чанка
var decorationLift = vec.Vec3Float{Y: 0.5}

// Entity объект сцены
type Entity struct {
	Handle   world.EntityHandle  `json:"handle"`
	Kind     Kind                `json:"kind"`
	Coord    world.ChunkCoord    `json:"coord"`
	Position vec.Vec3Float       `json:"position"`
	Size     float64             `json:"size"`
	Variant  int                 `json:"variant,omitempty"`
	Color    *Color              `json:"color,omitempty"`
	Biome    string              `json:"biome,omitempty"`
	Terrain  *world.ChunkTerrain `json:"-"`
}

// Scene реализация world.World в памяти: хранит объекты, созданные стримером,
// и подтягивает ландшафт чанков из кэша или генератора.
type Scene struct {
	generator *world.TerrainGenerator
	terrain   storage.TerrainStore // может быть nil
	timeout   time.Duration
	logger    *logging.Logger

	mu         sync.RWMutex
	entities   map[world.EntityHandle]*Entity
	byChunk    map[world.ChunkCoord][]world.EntityHandle
	nextHandle uint64

	generated uint64
	cached    uint64
}

// New создаёт сцену. store может быть nil, тогда ландшафт генерируется каждый раз.
func New(gen *world.TerrainGenerator, store storage.TerrainStore, logger *logging.Logger) *Scene {
	if gen == nil {
		gen = world.NewTerrainGenerator(0, 0)
	}
	return &Scene{
		generator:  gen,
		terrain:    store,
		timeout:    100 * time.Millisecond,
		logger:     logger,
		entities:   make(map[world.EntityHandle]*Entity),
		byChunk:    make(map[world.ChunkCoord][]world.EntityHandle),
		nextHandle: 1,
	}
}

// CreateChunk реализует world.World
func (s *Scene) CreateChunk(coord world.ChunkCoord, position vec.Vec3Float, size float64) (world.EntityHandle, error) {
	terrain, err := s.loadTerrain(coord, size)
	if err != nil {
		return 0, err
	}

	return s.register(&Entity{
		Kind:     KindChunk,
		Coord:    coord,
		Position: position,
		Size:     size,
		Biome:    terrain.Biome.String(),
		Terrain:  terrain,
	}), nil
}

// CreateDecoration реализует world.World
func (s *Scene) CreateDecoration(coord world.ChunkCoord, position vec.Vec3Float, variant int) (world.EntityHandle, error) {
	if variant < 0 || variant >= len(Palette) {
		return 0, fmt.Errorf("decoration variant %d out of range", variant)
	}
	color := Palette[variant]

	return s.register(&Entity{
		Kind:     KindDecoration,
		Coord:    coord,
		Position: position.Add(decorationLift),
		Size:     DecorationSize,
		Variant:  variant,
		Color:    &color,
	}), nil
}

// DestroyEntity реализует world.World
func (s *Scene) DestroyEntity(handle world.EntityHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[handle]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, handle)
	}
	delete(s.entities, handle)

	handles := s.byChunk[e.Coord]
	for i, h := range handles {
		if h == handle {
			handles = append(handles[:i], handles[i+1:]...)
			break
		}
	}
	if len(handles) == 0 {
		delete(s.byChunk, e.Coord)
	} else {
		s.byChunk[e.Coord] = handles
	}
	return nil
}

func (s *Scene) register(e *Entity) world.EntityHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.Handle = world.EntityHandle(s.nextHandle)
	s.nextHandle++
	s.entities[e.Handle] = e
	s.byChunk[e.Coord] = append(s.byChunk[e.Coord], e.Handle)
	return e.Handle
}

// loadTerrain берёт ландшафт из кэша, иначе генерирует и сохраняет.
// Ошибки кэша не мешают созданию чанка.
func (s *Scene) loadTerrain(coord world.ChunkCoord, size float64) (*world.ChunkTerrain, error) {
	if s.terrain == nil {
		s.bump(&s.generated)
		return s.generator.Generate(coord, size), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	terrain, found, err := s.terrain.Load(ctx, coord)
	if err != nil {
		if errors.Is(err, storage.ErrStoreClosed) {
			return nil, fmt.Errorf("terrain for %s: %w", coord, err)
		}
		s.logger.Warn("Terrain cache read failed for %s: %v", coord, err)
	}
	if found && terrain.Size == size {
		s.bump(&s.cached)
		return terrain, nil
	}

	terrain = s.generator.Generate(coord, size)
	s.bump(&s.generated)
	if err := s.terrain.Save(ctx, terrain); err != nil {
		s.logger.Warn("Terrain cache write failed for %s: %v", coord, err)
	}
	return terrain, nil
}

func (s *Scene) bump(counter *uint64) {
	s.mu.Lock()
	*counter++
	s.mu.Unlock()
}

// Entity возвращает копию объекта
func (s *Scene) Entity(handle world.EntityHandle) (Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[handle]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

// Count общее количество объектов
func (s *Scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// CountByKind количество объектов указанного типа
func (s *Scene) CountByKind(kind Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entities {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// EntitiesAt объекты чанка в порядке создания
func (s *Scene) EntitiesAt(coord world.ChunkCoord) []Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handles := s.byChunk[coord]
	out := make([]Entity, 0, len(handles))
	for _, h := range handles {
		out = append(out, *s.entities[h])
	}
	return out
}

// Coords отсортированный список чанков, у которых есть объекты
func (s *Scene) Coords() []world.ChunkCoord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]world.ChunkCoord, 0, len(s.byChunk))
	for c := range s.byChunk {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Stats счётчики сцены
type Stats struct {
	Entities         int    `json:"entities"`
	Chunks           int    `json:"chunks"`
	Decorations      int    `json:"decorations"`
	TerrainGenerated uint64 `json:"terrain_generated"`
	TerrainCached    uint64 `json:"terrain_cached"`
}

// Stats возвращает снимок счётчиков
func (s *Scene) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Entities:         len(s.entities),
		TerrainGenerated: s.generated,
		TerrainCached:    s.cached,
	}
	for _, e := range s.entities {
		if e.Kind == KindChunk {
			st.Chunks++
		} else {
			st.Decorations++
		}
	}
	return st
}
