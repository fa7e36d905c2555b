package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/annel0/chunkstream/internal/world"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Sim       SimConfig       `yaml:"sim"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WorldConfig параметры бесконечного мира. Неизменяемы после запуска.
type WorldConfig struct {
	ChunkSize         float64 `yaml:"chunk_size"`
	RenderDistance    int     `yaml:"render_distance"`
	Seed              int64   `yaml:"seed"`
	DecorateOrigin    bool    `yaml:"decorate_origin"`
	TerrainResolution int     `yaml:"terrain_resolution"`
}

// SimConfig параметры игрового цикла
type SimConfig struct {
	TPS              int     `yaml:"tps"`
	PlayerSpeed      float64 `yaml:"player_speed"`
	Walk             string  `yaml:"walk"` // random | scripted | idle
	WalkSeed         int64   `yaml:"walk_seed"`
	TurnEverySeconds float64 `yaml:"turn_every_seconds"`
	DayLengthSeconds float64 `yaml:"day_length_seconds"` // 0 - только ручное переключение
}

// ServerConfig порты отладочного REST API
type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

// StorageConfig кэш сгенерированного ландшафта
type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// EventBusConfig шина событий; пустой URL - in-memory шина
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

// RedisConfig внешний источник позиции игрока; пустой адрес - локальный игрок
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	PlayerID  string `yaml:"player_id"`
}

// TelemetryConfig OpenTelemetry трассировка
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// LoggingConfig уровни логирования
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Default возвращает конфигурацию по умолчанию (значения демо)
func Default() *Config {
	return &Config{
		World: WorldConfig{
			ChunkSize:         20,
			RenderDistance:    2,
			Seed:              12345,
			TerrainResolution: world.DefaultTerrainResolution,
		},
		Sim: SimConfig{
			TPS:              30,
			PlayerSpeed:      5,
			Walk:             "random",
			WalkSeed:         1,
			TurnEverySeconds: 3,
		},
		Server:    ServerConfig{RESTPort: 0},
		Storage:   StorageConfig{InMemory: true},
		EventBus:  EventBusConfig{Stream: "CHUNKS", Retention: 24, Buffer: 1024},
		Redis:     RedisConfig{KeyPrefix: "chunkstream:pos:", PlayerID: "player"},
		Telemetry: TelemetryConfig{ServiceName: "chunkstream"},
		Logging:   LoggingConfig{Level: "info", Dir: "logs"},
	}
}

// GetRESTPort возвращает REST порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "WORLDSIM_REST_PORT", 8090)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Settings переводит секцию world в параметры стримера
func (w WorldConfig) Settings() world.Settings {
	return world.Settings{ChunkSize: w.ChunkSize, RenderDistance: w.RenderDistance}
}

// DecorationPolicy выбирает политику декораций
func (w WorldConfig) DecorationPolicy() world.DecorationPolicy {
	if w.DecorateOrigin {
		return world.DecorateAll
	}
	return world.SkipOrigin
}

// TickInterval длительность одного тика
func (s SimConfig) TickInterval() time.Duration {
	return time.Second / time.Duration(s.TPS)
}

// RetentionDuration время хранения событий в JetStream
func (e EventBusConfig) RetentionDuration() time.Duration {
	return time.Duration(e.Retention) * time.Hour
}

// Validate проверяет конфигурацию до создания мира
func (c *Config) Validate() error {
	var errs []error
	if err := c.World.Settings().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("world: %w", err))
	}
	if c.Sim.TPS <= 0 {
		errs = append(errs, fmt.Errorf("sim.tps must be positive, got %d", c.Sim.TPS))
	}
	if c.Sim.PlayerSpeed < 0 {
		errs = append(errs, fmt.Errorf("sim.player_speed must be non-negative, got %v", c.Sim.PlayerSpeed))
	}
	switch c.Sim.Walk {
	case "random", "scripted", "idle":
	default:
		errs = append(errs, fmt.Errorf("sim.walk: unknown mode %q", c.Sim.Walk))
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required when storage.in_memory is false"))
	}
	return errors.Join(errs...)
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV WORLDSIM_CONFIG,
// а при его отсутствии возвращает конфигурацию по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("WORLDSIM_CONFIG")
		if path == "" {
			return cfg, cfg.Validate()
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
