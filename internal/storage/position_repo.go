package storage

import (
	"context"

	"github.com/annel0/chunkstream/internal/vec"
)

// PositionRepo хранит последнюю известную позицию игрока.
// Используется как источник опорной точки, когда игрок движется
// в другом процессе.
type PositionRepo interface {
	// Save сохраняет позицию игрока
	Save(ctx context.Context, playerID string, pos vec.Vec3Float) error

	// Load загружает позицию; found == false, если игрок ещё не появился
	Load(ctx context.Context, playerID string) (pos vec.Vec3Float, found bool, err error)

	// Delete удаляет позицию игрока (игрок покинул мир)
	Delete(ctx context.Context, playerID string) error
}
