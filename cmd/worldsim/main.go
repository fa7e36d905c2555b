package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/chunkstream/internal/api"
	"github.com/annel0/chunkstream/internal/camera"
	"github.com/annel0/chunkstream/internal/config"
	"github.com/annel0/chunkstream/internal/daynight"
	"github.com/annel0/chunkstream/internal/eventbus"
	"github.com/annel0/chunkstream/internal/logging"
	"github.com/annel0/chunkstream/internal/metrics"
	"github.com/annel0/chunkstream/internal/observability"
	"github.com/annel0/chunkstream/internal/player"
	"github.com/annel0/chunkstream/internal/scene"
	"github.com/annel0/chunkstream/internal/sim"
	"github.com/annel0/chunkstream/internal/storage"
	"github.com/annel0/chunkstream/internal/vec"
	"github.com/annel0/chunkstream/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или WORLDSIM_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.LogDir = cfg.Logging.Dir
	if err := logging.InitDefaultLogger("worldsim"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	level := logging.ParseLevel(cfg.Logging.Level)
	logging.GetLoggerManager().SetLevels(level)

	instanceID := uuid.NewString()
	logging.Info("🌍 Запуск worldsim (instance=%s): chunk=%.1f, render_distance=%d, seed=%d",
		instanceID, cfg.World.ChunkSize, cfg.World.RenderDistance, cfg.World.Seed)

	if err := run(cfg, instanceID); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 worldsim остановлен")
}

func run(cfg *config.Config, instanceID string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТРАССИРОВКА ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, instanceID)
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry отключён: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	registry := prometheus.NewRegistry()

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		js, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, cfg.EventBus.RetentionDuration())
		if err != nil {
			return fmt.Errorf("event bus: %w", err)
		}
		logging.Info("📨 JetStream шина подключена: %s (stream=%s)", cfg.EventBus.URL, cfg.EventBus.Stream)
		bus = js
	} else {
		bus = eventbus.NewMemoryBus(cfg.EventBus.Buffer)
	}
	defer bus.Close()
	eventbus.Init(bus)

	busLogger := logging.GetComponentLogger("eventbus")
	if _, err := eventbus.StartLoggingListener(ctx, bus, busLogger); err != nil {
		return fmt.Errorf("event bus listener: %w", err)
	}
	busMetrics, err := eventbus.NewMetricsExporter(bus, registry)
	if err != nil {
		return fmt.Errorf("event bus metrics: %w", err)
	}
	busMetrics.Start()
	defer busMetrics.Stop()

	// === ХРАНИЛИЩЕ ЛАНДШАФТА ===
	terrain, err := storage.NewBadgerTerrainStore(storage.BadgerOptions{
		Path:     cfg.Storage.Path,
		InMemory: cfg.Storage.InMemory,
	})
	if err != nil {
		return fmt.Errorf("terrain store: %w", err)
	}
	defer terrain.Close()

	// === ИСТОЧНИК ОПОРНОЙ ТОЧКИ ===
	var (
		localPlayer *player.Player
		walker      player.Walker
		source      world.ReferenceSource
	)
	if cfg.Redis.Addr != "" {
		repo, err := storage.NewRedisPositionRepo(ctx, &storage.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer repo.Close()
		source = storage.NewPositionSource(repo, cfg.Redis.PlayerID, cfg.Sim.TickInterval())
		logging.Info("🎯 Опорная точка читается из Redis (player=%s)", cfg.Redis.PlayerID)
	} else {
		localPlayer = player.New(cfg.Redis.PlayerID, cfg.Sim.PlayerSpeed)
		localPlayer.Spawn(vec.Vec3Float{Y: 0.5})
		walker = newWalker(cfg)
	}

	// === МИР ===
	streamLogger := logging.GetStreamLogger()
	sc := scene.New(
		world.NewTerrainGenerator(cfg.World.Seed, cfg.World.TerrainResolution),
		terrain,
		logging.GetComponentLogger("scene"),
	)

	streamMetrics, err := metrics.NewStreamMetrics(registry)
	if err != nil {
		return fmt.Errorf("stream metrics: %w", err)
	}
	hub := api.NewDeltaHub(logging.GetAPILogger())

	streamer, err := world.NewStreamer(cfg.World.Settings(), sc,
		world.WithDecorationPolicy(cfg.World.DecorationPolicy()),
		world.WithLogger(streamLogger),
		world.WithObserver(streamMetrics),
		world.WithObserver(eventbus.NewChunkPublisher(bus, cfg.Telemetry.ServiceName, busLogger)),
		world.WithObserver(hub),
	)
	if err != nil {
		return fmt.Errorf("streamer: %w", err)
	}

	cycle := daynight.NewCycle(time.Duration(cfg.Sim.DayLengthSeconds * float64(time.Second)))
	rig := camera.NewRig(vec.Vec3Float{})
	if localPlayer != nil {
		rig.Snap(localPlayer.Position())
	}

	simulation, err := sim.New(sim.Config{
		Streamer: streamer,
		Player:   localPlayer,
		Walker:   walker,
		Source:   source,
		Camera:   rig,
		Cycle:    cycle,
		Logger:   logging.GetSimLogger(),
	})
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	// === REST API ===
	gin.SetMode(gin.ReleaseMode)
	restPort := cfg.Server.GetRESTPort()
	server, err := api.NewRestServer(api.Config{
		Port:       fmt.Sprintf(":%d", restPort),
		Streamer:   streamer,
		Scene:      sc,
		Player:     localPlayer,
		Cycle:      cycle,
		Bus:        bus,
		Hub:        hub,
		Registerer: registry,
		Gatherer:   registry,
		Logger:     logging.GetAPILogger(),
	})
	if err != nil {
		return fmt.Errorf("rest api: %w", err)
	}
	go func() {
		if err := server.Start(); err != nil {
			logging.Error("❌ Ошибка REST API: %v", err)
			stop()
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost:%d/api/world", restPort)
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", restPort)
	logging.Info("   🔌 Лента чанков: ws://localhost:%d/ws/chunks", restPort)

	// Блокируется до сигнала
	if err := simulation.Run(ctx, cfg.Sim.TPS); err != nil {
		return err
	}

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Завершение работы...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Ошибка остановки REST API: %v", err)
	}
	if err := streamer.Clear(); err != nil {
		logging.Warn("Ошибки при выгрузке чанков: %v", err)
	}
	logging.Info("📊 Итого тиков: %d, с ошибками: %d", simulation.Ticks(), simulation.Errors())
	return nil
}

func newWalker(cfg *config.Config) player.Walker {
	switch cfg.Sim.Walk {
	case "scripted":
		return player.Square(cfg.World.ChunkSize*float64(cfg.World.RenderDistance+1), cfg.Sim.PlayerSpeed)
	case "idle":
		return player.Idle{}
	default:
		return player.RandomWalk(cfg.Sim.WalkSeed, time.Duration(cfg.Sim.TurnEverySeconds*float64(time.Second)))
	}
}
