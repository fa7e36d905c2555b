package sim

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/annel0/chunkstream/internal/camera"
	"github.com/annel0/chunkstream/internal/daynight"
	"github.com/annel0/chunkstream/internal/logging"
	"github.com/annel0/chunkstream/internal/observability"
	"github.com/annel0/chunkstream/internal/player"
	"github.com/annel0/chunkstream/internal/storage"
	"github.com/annel0/chunkstream/internal/world"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Config участники симуляции. Streamer обязателен.
// Если Source не задан, опорной точкой служит Player.
type Config struct {
	Streamer  *world.Streamer
	Player    *player.Player
	Walker    player.Walker
	Source    world.ReferenceSource
	Camera    *camera.Rig
	Cycle     *daynight.Cycle
	Positions storage.PositionRepo // куда публиковать позицию локального игрока
	Logger    *logging.Logger
}

// Simulation игровой цикл: ввод, движение, сверка чанков, камера, время суток
type Simulation struct {
	streamer  *world.Streamer
	player    *player.Player
	walker    player.Walker
	source    world.ReferenceSource
	camera    *camera.Rig
	cycle     *daynight.Cycle
	positions storage.PositionRepo
	logger    *logging.Logger
	tracer    trace.Tracer

	ticks  uint64
	errors uint64
}

// New создаёт симуляцию
func New(cfg Config) (*Simulation, error) {
	if cfg.Streamer == nil {
		return nil, errors.New("streamer is required")
	}
	s := &Simulation{
		streamer:  cfg.Streamer,
		player:    cfg.Player,
		walker:    cfg.Walker,
		source:    cfg.Source,
		camera:    cfg.Camera,
		cycle:     cfg.Cycle,
		positions: cfg.Positions,
		logger:    cfg.Logger,
		tracer:    observability.Tracer(),
	}
	if s.walker == nil {
		s.walker = player.Idle{}
	}
	if s.source == nil && s.player != nil {
		s.source = s.player
	}
	return s, nil
}

// Step выполняет один кадр длительностью dt секунд.
// Позиция для сверки читается строго после движения игрока.
func (s *Simulation) Step(ctx context.Context, dt float64) (world.ChunkDelta, error) {
	ctx, span := s.tracer.Start(ctx, "sim.step")
	defer span.End()

	if s.player != nil {
		pos := s.player.Step(s.walker.Next(dt), dt)
		if s.positions != nil && s.player.Spawned() {
			if err := s.positions.Save(ctx, s.player.ID(), pos); err != nil {
				s.logger.Warn("Failed to publish position: %v", err)
			}
		}
	}

	delta, err := s.streamer.Tick(s.source)
	atomic.AddUint64(&s.ticks, 1)

	if s.camera != nil && s.source != nil {
		if target, ok := s.source.ReferencePosition(); ok {
			s.camera.Follow(target, dt)
		}
	}
	if s.cycle != nil && s.cycle.Advance(dt) {
		s.logger.Info("🌓 Daytime changed: %s", s.cycle.Current())
	}

	span.SetAttributes(
		attribute.Bool("stream.skipped", delta.Skipped),
		attribute.Int("stream.created", len(delta.Created)),
		attribute.Int("stream.destroyed", len(delta.Destroyed)),
		attribute.Int("stream.active", delta.Active),
	)
	if !delta.Skipped {
		span.SetAttributes(
			attribute.Int("stream.reference.x", delta.Reference.X),
			attribute.Int("stream.reference.z", delta.Reference.Z),
		)
	}
	if err != nil {
		atomic.AddUint64(&s.errors, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "world errors")
	}
	return delta, err
}

// Run крутит Step с частотой tps до отмены ctx.
// Ошибки мира не останавливают цикл: недостающие чанки создаются на следующих тиках.
func (s *Simulation) Run(ctx context.Context, tps int) error {
	if tps <= 0 {
		return errors.New("tps must be positive")
	}
	interval := time.Second / time.Duration(tps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("▶️ Simulation started at %d TPS", tps)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("⏹️ Simulation stopped after %d ticks", s.Ticks())
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if _, err := s.Step(ctx, dt); err != nil {
				s.logger.Warn("Tick failed: %v", err)
			}
		}
	}
}

// Ticks количество выполненных кадров
func (s *Simulation) Ticks() uint64 {
	return atomic.LoadUint64(&s.ticks)
}

// Errors количество кадров с ошибками мира
func (s *Simulation) Errors() uint64 {
	return atomic.LoadUint64(&s.errors)
}
