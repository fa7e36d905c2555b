package storage

import (
	"context"
	"math"
	"testing"

	"github.com/annel0/chunkstream/internal/vec"
)

// TestMemoryPositionRepo тестирует in-memory репозиторий позиций
func TestMemoryPositionRepo(t *testing.T) {
	repo := NewMemoryPositionRepo()
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		expected := vec.Vec3Float{X: 10.5, Y: 0.5, Z: -3}

		if err := repo.Save(ctx, "alice", expected); err != nil {
			t.Fatalf("Ошибка сохранения позиции: %v", err)
		}

		actual, found, err := repo.Load(ctx, "alice")
		if err != nil {
			t.Fatalf("Ошибка загрузки позиции: %v", err)
		}
		if !found {
			t.Fatal("Позиция не найдена")
		}
		if actual != expected {
			t.Errorf("Неверная позиция: ожидалась %+v, получена %+v", expected, actual)
		}
	})

	t.Run("Load Non-Existent Player", func(t *testing.T) {
		pos, found, err := repo.Load(ctx, "nobody")
		if err != nil {
			t.Fatalf("Ошибка при загрузке несуществующего игрока: %v", err)
		}
		if found {
			t.Error("Позиция найдена для несуществующего игрока")
		}
		if pos != (vec.Vec3Float{}) {
			t.Errorf("Ожидалась пустая позиция, получена: %+v", pos)
		}
	})

	t.Run("Invalid Input", func(t *testing.T) {
		if err := repo.Save(ctx, "", vec.Vec3Float{}); err == nil {
			t.Error("Ожидалась ошибка для пустого playerID")
		}
		if err := repo.Save(ctx, "bob", vec.Vec3Float{X: math.NaN()}); err == nil {
			t.Error("Ожидалась ошибка для NaN координаты")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.Delete(ctx, "alice"); err != nil {
			t.Fatalf("Ошибка удаления: %v", err)
		}
		if _, found, _ := repo.Load(ctx, "alice"); found {
			t.Error("Позиция должна быть удалена")
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := repo.Save(cctx, "carol", vec.Vec3Float{}); err == nil {
			t.Error("Ожидалась ошибка отменённого контекста")
		}
	})
}

func TestPositionSource(t *testing.T) {
	repo := NewMemoryPositionRepo()
	src := NewPositionSource(repo, "player", 0)

	if _, ok := src.ReferencePosition(); ok {
		t.Fatal("Игрок ещё не появился, опорной точки быть не должно")
	}

	want := vec.Vec3Float{X: -0.5, Z: 41}
	if err := repo.Save(context.Background(), "player", want); err != nil {
		t.Fatalf("Ошибка сохранения позиции: %v", err)
	}

	got, ok := src.ReferencePosition()
	if !ok || got != want {
		t.Errorf("Ожидалась позиция %+v, получено %+v (ok=%v)", want, got, ok)
	}
}
