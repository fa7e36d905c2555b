package storage

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/annel0/chunkstream/internal/vec"
)

// MemoryPositionRepo реализует PositionRepo в памяти.
// ВНИМАНИЕ: Данные теряются при перезапуске!
type MemoryPositionRepo struct {
	mu   sync.RWMutex
	data map[string]vec.Vec3Float
}

// NewMemoryPositionRepo создает новый репозиторий позиций в памяти
func NewMemoryPositionRepo() *MemoryPositionRepo {
	return &MemoryPositionRepo{
		data: make(map[string]vec.Vec3Float),
	}
}

func validatePosition(playerID string, pos vec.Vec3Float) error {
	if playerID == "" {
		return fmt.Errorf("недействительный playerID")
	}
	for _, v := range []float64{pos.X, pos.Y, pos.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("недействительная позиция %+v", pos)
		}
	}
	return nil
}

// Save сохраняет позицию игрока в памяти
func (r *MemoryPositionRepo) Save(ctx context.Context, playerID string, pos vec.Vec3Float) error {
	if err := validatePosition(playerID, pos); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[playerID] = pos
	return nil
}

// Load загружает позицию игрока из памяти
func (r *MemoryPositionRepo) Load(ctx context.Context, playerID string) (vec.Vec3Float, bool, error) {
	select {
	case <-ctx.Done():
		return vec.Vec3Float{}, false, ctx.Err()
	default:
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.data[playerID]
	return pos, exists, nil
}

// Delete удаляет сохраненную позицию игрока из памяти
func (r *MemoryPositionRepo) Delete(ctx context.Context, playerID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, playerID)
	return nil
}
