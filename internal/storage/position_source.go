package storage

import (
	"context"
	"time"

	"github.com/annel0/chunkstream/internal/logging"
	"github.com/annel0/chunkstream/internal/vec"
)

// PositionSource читает позицию игрока из репозитория и отдаёт её стримеру.
// Ошибка чтения трактуется как отсутствие опорной точки: тик пропускается.
type PositionSource struct {
	repo     PositionRepo
	playerID string
	timeout  time.Duration
	lastErr  string
}

// NewPositionSource создаёт источник опорной точки
func NewPositionSource(repo PositionRepo, playerID string, timeout time.Duration) *PositionSource {
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	return &PositionSource{repo: repo, playerID: playerID, timeout: timeout}
}

// ReferencePosition реализует world.ReferenceSource
func (s *PositionSource) ReferencePosition() (vec.Vec3Float, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	pos, found, err := s.repo.Load(ctx, s.playerID)
	if err != nil {
		// Одинаковые ошибки подряд не повторяем в логе
		if msg := err.Error(); msg != s.lastErr {
			logging.Warn("⚠️ Position source for %s unavailable: %v", s.playerID, err)
			s.lastErr = msg
		}
		return vec.Vec3Float{}, false
	}
	s.lastErr = ""
	return pos, found
}
