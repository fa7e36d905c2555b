package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/chunkstream/internal/daynight"
	"github.com/annel0/chunkstream/internal/eventbus"
	"github.com/annel0/chunkstream/internal/logging"
	"github.com/annel0/chunkstream/internal/middleware"
	"github.com/annel0/chunkstream/internal/player"
	"github.com/annel0/chunkstream/internal/scene"
	"github.com/annel0/chunkstream/internal/vec"
	"github.com/annel0/chunkstream/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer отладочный REST API симуляции
type RestServer struct {
	router   *gin.Engine
	http     *http.Server
	port     string
	metrics  *ServerMetrics
	streamer *world.Streamer
	scene    *scene.Scene
	player   *player.Player
	cycle    *daynight.Cycle
	bus      eventbus.EventBus
	hub      *DeltaHub
	logger   *logging.Logger
}

// Config содержит зависимости REST сервера
type Config struct {
	Port       string               // адрес для запуска сервера, например ":8090"
	Streamer   *world.Streamer      // обязателен
	Scene      *scene.Scene         // может быть nil
	Player     *player.Player       // nil, если позиция приходит извне
	Cycle      *daynight.Cycle      // может быть nil
	Bus        eventbus.EventBus    // может быть nil
	Hub        *DeltaHub            // nil отключает /ws/chunks
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Logger     *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Streamer == nil {
		return nil, errors.New("streamer is required")
	}
	if config.Port == "" {
		config.Port = ":8090"
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("chunkstream_api"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	promMw, err := middleware.NewPrometheusMiddleware("rest_api", config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("prometheus middleware: %w", err)
	}
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, config.Gatherer)

	rs := &RestServer{
		router:   router,
		port:     config.Port,
		metrics:  NewServerMetrics(),
		streamer: config.Streamer,
		scene:    config.Scene,
		player:   config.Player,
		cycle:    config.Cycle,
		bus:      config.Bus,
		hub:      config.Hub,
		logger:   config.Logger,
	}
	rs.setupRoutes()
	return rs, nil
}

// Handler возвращает http.Handler (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/world", rs.handleWorld)
		api.GET("/chunks", rs.handleChunks)
		api.GET("/chunks/:x/:z", rs.handleChunk)
		api.GET("/player", rs.handlePlayer)
		api.GET("/stats", rs.handleStats)
		api.POST("/daynight/toggle", rs.handleToggleDaynight)
	}

	if rs.hub != nil {
		rs.router.GET("/ws/chunks", rs.handleChunkFeed)
	}
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

// handleHealth проверка живости
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// WorldInfo параметры мира и опорный чанк
type WorldInfo struct {
	Settings       world.Settings    `json:"settings"`
	Reference      *world.ChunkCoord `json:"reference,omitempty"`
	ActiveChunks   int               `json:"active_chunks"`
	RequiredChunks int               `json:"required_chunks"`
	Daytime        string            `json:"daytime,omitempty"`
}

func (rs *RestServer) handleWorld(c *gin.Context) {
	settings := rs.streamer.Settings()
	side := 2*settings.RenderDistance + 1
	info := WorldInfo{
		Settings:       settings,
		ActiveChunks:   rs.streamer.ActiveCount(),
		RequiredChunks: side * side,
	}
	if ref, found := rs.streamer.ReferenceChunk(); found {
		info.Reference = &ref
	}
	if rs.cycle != nil {
		info.Daytime = rs.cycle.Current().String()
	}
	ok(c, "Параметры мира", info)
}

func (rs *RestServer) handleChunks(c *gin.Context) {
	active := rs.streamer.Active()
	ok(c, "Активные чанки", gin.H{
		"chunks": active,
		"total":  len(active),
	})
}

// ChunkInfo объекты одного активного чанка
type ChunkInfo struct {
	Coord    world.ChunkCoord     `json:"coord"`
	Origin   vec.Vec3Float        `json:"origin"`
	Handles  []world.EntityHandle `json:"handles"`
	Entities []scene.Entity       `json:"entities,omitempty"`
}

func (rs *RestServer) handleChunk(c *gin.Context) {
	x, errX := strconv.Atoi(c.Param("x"))
	z, errZ := strconv.Atoi(c.Param("z"))
	if errX != nil || errZ != nil {
		fail(c, http.StatusBadRequest, "Координаты чанка должны быть целыми числами")
		return
	}
	coord := world.ChunkCoord{X: x, Z: z}

	handles := rs.streamer.Handles(coord)
	if handles == nil {
		fail(c, http.StatusNotFound, fmt.Sprintf("Чанк %s не активен", coord))
		return
	}

	info := ChunkInfo{
		Coord:   coord,
		Origin:  coord.Origin(rs.streamer.Settings().ChunkSize),
		Handles: handles,
	}
	if rs.scene != nil {
		info.Entities = rs.scene.EntitiesAt(coord)
	}
	ok(c, "Чанк", info)
}

func (rs *RestServer) handlePlayer(c *gin.Context) {
	if rs.player == nil {
		fail(c, http.StatusNotFound, "Локальный игрок не используется")
		return
	}
	state := rs.player.Snapshot()
	data := gin.H{"player": state}
	if state.Spawned {
		data["chunk"] = world.WorldToChunk(state.Position, rs.streamer.Settings().ChunkSize)
	}
	ok(c, "Игрок", data)
}

func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	cpuPercent, _ := rs.metrics.GetCPUUsage()
	rss, _ := rs.metrics.GetRSS()
	systemMem, _ := rs.metrics.GetSystemMemory()
	stats["server"] = map[string]interface{}{
		"uptime":         rs.metrics.GetUptime(),
		"cpu_percent":    fmt.Sprintf("%.2f", cpuPercent),
		"rss_mb":         fmt.Sprintf("%.2f", rss),
		"system_mem_pct": fmt.Sprintf("%.2f", systemMem),
		"server_time":    time.Now().Unix(),
	}
	stats["memory_details"] = rs.metrics.GetDetailedMemoryStats()
	stats["stream"] = map[string]interface{}{
		"active_chunks": rs.streamer.ActiveCount(),
	}
	if rs.scene != nil {
		stats["scene"] = rs.scene.Stats()
	}
	if rs.bus != nil {
		stats["eventbus"] = rs.bus.Metrics()
	}
	if rs.hub != nil {
		stats["ws_clients"] = rs.hub.Clients()
	}

	ok(c, "Статистика получена", stats)
}

func (rs *RestServer) handleToggleDaynight(c *gin.Context) {
	if rs.cycle == nil {
		fail(c, http.StatusNotFound, "Смена дня и ночи отключена")
		return
	}
	d := rs.cycle.Toggle()
	rs.logger.Info("🌓 Daytime toggled via API: %s", d)
	ok(c, "Время суток переключено", gin.H{
		"daytime":     d,
		"environment": daynight.Preset(d),
	})
}

func (rs *RestServer) handleChunkFeed(c *gin.Context) {
	snapshot := StreamMessage{Type: MessageSnapshot, Active: rs.streamer.Active()}
	if ref, found := rs.streamer.ReferenceChunk(); found {
		snapshot.Reference = &ref
	}
	rs.hub.Serve(c.Writer, c.Request, snapshot)
}

// Start запускает REST сервер; блокируется до Shutdown
func (rs *RestServer) Start() error {
	rs.http = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rs.logger.Info("🌐 REST API listening on %s", rs.port)
	if err := rs.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер и отключает websocket клиентов
func (rs *RestServer) Shutdown(ctx context.Context) error {
	if rs.hub != nil {
		rs.hub.Close()
	}
	if rs.http == nil {
		return nil
	}
	return rs.http.Shutdown(ctx)
}
