package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/chunkstream/internal/logging"
	"github.com/annel0/chunkstream/internal/vec"
	"github.com/go-redis/redis/v8"
)

// RedisPositionRepo хранит позиции игроков в Redis для быстрого доступа
type RedisPositionRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// PlayerPosition запись позиции игрока в Redis
type PlayerPosition struct {
	PlayerID  string        `json:"player_id"`
	Position  vec.Vec3Float `json:"position"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей; 0 - без ограничения
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "chunkstream:pos:",
		TTL:       5 * time.Minute,
	}
}

// NewRedisPositionRepo создаёт Redis репозиторий позиций и проверяет подключение
func NewRedisPositionRepo(ctx context.Context, config *RedisConfig) (*RedisPositionRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("🔴 Connected to Redis at %s", config.Addr)
	return &RedisPositionRepo{
		client:    client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

func (r *RedisPositionRepo) key(playerID string) string {
	return r.keyPrefix + playerID
}

// Save сохраняет позицию игрока
func (r *RedisPositionRepo) Save(ctx context.Context, playerID string, pos vec.Vec3Float) error {
	if err := validatePosition(playerID, pos); err != nil {
		return err
	}

	data, err := json.Marshal(PlayerPosition{PlayerID: playerID, Position: pos, UpdatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal position: %w", err)
	}

	if err := r.client.Set(ctx, r.key(playerID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

// Load получает позицию игрока
func (r *RedisPositionRepo) Load(ctx context.Context, playerID string) (vec.Vec3Float, bool, error) {
	data, err := r.client.Get(ctx, r.key(playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return vec.Vec3Float{}, false, nil // Позиция не найдена
	}
	if err != nil {
		return vec.Vec3Float{}, false, fmt.Errorf("failed to get position: %w", err)
	}

	var pos PlayerPosition
	if err := json.Unmarshal(data, &pos); err != nil {
		return vec.Vec3Float{}, false, fmt.Errorf("failed to unmarshal position: %w", err)
	}
	return pos.Position, true, nil
}

// Delete удаляет позицию игрока
func (r *RedisPositionRepo) Delete(ctx context.Context, playerID string) error {
	if err := r.client.Del(ctx, r.key(playerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisPositionRepo) Close() error {
	return r.client.Close()
}
