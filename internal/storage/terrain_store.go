package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/chunkstream/internal/world"
)

// ErrStoreClosed хранилище уже закрыто
var ErrStoreClosed = errors.New("хранилище не готово")

// TerrainStore кэш сгенерированного ландшафта чанков
type TerrainStore interface {
	// Load возвращает ландшафт чанка; found == false, если его нет в кэше
	Load(ctx context.Context, coord world.ChunkCoord) (terrain *world.ChunkTerrain, found bool, err error)
	// Save сохраняет ландшафт чанка
	Save(ctx context.Context, terrain *world.ChunkTerrain) error
	// Close освобождает ресурсы
	Close() error
}

// terrainKey ключ записи ландшафта
func terrainKey(coord world.ChunkCoord) []byte {
	return []byte(fmt.Sprintf("terrain:%d:%d", coord.X, coord.Z))
}

// MemoryTerrainStore реализует TerrainStore в памяти
type MemoryTerrainStore struct {
	mu     sync.RWMutex
	data   map[world.ChunkCoord]*world.ChunkTerrain
	closed bool
}

// NewMemoryTerrainStore создаёт пустой кэш в памяти
func NewMemoryTerrainStore() *MemoryTerrainStore {
	return &MemoryTerrainStore{data: make(map[world.ChunkCoord]*world.ChunkTerrain)}
}

// Load реализует TerrainStore
func (s *MemoryTerrainStore) Load(ctx context.Context, coord world.ChunkCoord) (*world.ChunkTerrain, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrStoreClosed
	}
	t, ok := s.data[coord]
	if !ok {
		return nil, false, nil
	}
	return cloneTerrain(t), true, nil
}

// Save реализует TerrainStore
func (s *MemoryTerrainStore) Save(ctx context.Context, terrain *world.ChunkTerrain) error {
	if terrain == nil {
		return errors.New("terrain is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.data[terrain.Coord] = cloneTerrain(terrain)
	return nil
}

// Len количество закэшированных чанков
func (s *MemoryTerrainStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close реализует TerrainStore
func (s *MemoryTerrainStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.data = nil
	s.mu.Unlock()
	return nil
}

func cloneTerrain(t *world.ChunkTerrain) *world.ChunkTerrain {
	c := *t
	c.Heights = append([]float64(nil), t.Heights...)
	return &c
}
