package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/annel0/chunkstream/internal/logging"
	"github.com/annel0/chunkstream/internal/world"
	"github.com/google/uuid"
)

// Типы событий стримера
const (
	EventChunkLoaded   = "ChunkLoaded"
	EventChunkUnloaded = "ChunkUnloaded"
	EventTickFailed    = "TickFailed"
)

// ChunkEvent полезная нагрузка событий загрузки и выгрузки чанка
type ChunkEvent struct {
	Coord     world.ChunkCoord `json:"coord"`
	Reference world.ChunkCoord `json:"reference"`
	Active    int              `json:"active"`
}

// TickFailedEvent тик завершился с ошибками мира
type TickFailedEvent struct {
	Reference world.ChunkCoord `json:"reference"`
	Failures  int              `json:"failures"`
}

// ChunkPublisher публикует изменения активного множества в шину.
// Реализует world.Observer. События одного тика связаны CorrelationID.
type ChunkPublisher struct {
	bus     EventBus
	source  string
	timeout time.Duration
	logger  *logging.Logger
}

// NewChunkPublisher создаёт публикатор
func NewChunkPublisher(bus EventBus, source string, logger *logging.Logger) *ChunkPublisher {
	if source == "" {
		source = "chunkstream"
	}
	return &ChunkPublisher{bus: bus, source: source, timeout: 200 * time.Millisecond, logger: logger}
}

// OnChunkDelta реализует world.Observer
func (p *ChunkPublisher) OnChunkDelta(d world.ChunkDelta) {
	if d.Skipped || (!d.Changed() && d.Failures == 0) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	correlation := uuid.NewString()
	// Выгрузка раньше загрузки, как и в самом тике
	for _, c := range d.Destroyed {
		p.publish(ctx, EventChunkUnloaded, correlation, 3, ChunkEvent{Coord: c, Reference: d.Reference, Active: d.Active})
	}
	for _, c := range d.Created {
		p.publish(ctx, EventChunkLoaded, correlation, 3, ChunkEvent{Coord: c, Reference: d.Reference, Active: d.Active})
	}
	if d.Failures > 0 {
		p.publish(ctx, EventTickFailed, correlation, 7, TickFailedEvent{Reference: d.Reference, Failures: d.Failures})
	}
}

func (p *ChunkPublisher) publish(ctx context.Context, eventType, correlation string, priority int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal %s: %v", eventType, err)
		return
	}
	ev := NewEnvelope(eventType, p.source, data)
	ev.CorrelationID = correlation
	ev.Priority = priority
	if err := p.bus.Publish(ctx, ev); err != nil {
		p.logger.Warn("Failed to publish %s: %v", eventType, err)
	}
}

// DecodeChunkEvent разбирает полезную нагрузку ChunkLoaded/ChunkUnloaded
func DecodeChunkEvent(ev *Envelope) (ChunkEvent, error) {
	var ce ChunkEvent
	err := json.Unmarshal(ev.Payload, &ce)
	return ce, err
}
