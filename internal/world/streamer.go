package world

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/annel0/chunkstream/internal/logging"
	"github.com/annel0/chunkstream/internal/vec"
)

var (
	// ErrInvalidChunkSize размер чанка должен быть конечным и больше нуля
	ErrInvalidChunkSize = errors.New("chunk size must be a positive finite number")
	// ErrInvalidRenderDistance дальность прорисовки не может быть отрицательной
	ErrInvalidRenderDistance = errors.New("render distance must be non-negative")
	// ErrNilWorld стример нельзя создать без мира-получателя действий
	ErrNilWorld = errors.New("world collaborator is nil")
	// ErrInvariantViolated активное множество разошлось с требуемым
	ErrInvariantViolated = errors.New("active chunk set invariant violated")
)

// EntityHandle непрозрачный идентификатор объекта, созданного миром
type EntityHandle uint64

// World принимает действия стримера: создание чанков, декораций и удаление объектов.
// Рендеринг и ресурсы принадлежат реализации.
type World interface {
	CreateChunk(coord ChunkCoord, position vec.Vec3Float, size float64) (EntityHandle, error)
	CreateDecoration(coord ChunkCoord, position vec.Vec3Float, variant int) (EntityHandle, error)
	DestroyEntity(handle EntityHandle) error
}

// ReferenceSource отдаёт позицию опорной точки (обычно игрока).
// ok == false означает, что точки пока нет и тик нужно пропустить.
type ReferenceSource interface {
	ReferencePosition() (position vec.Vec3Float, ok bool)
}

// ReferenceFunc адаптер функции к ReferenceSource
type ReferenceFunc func() (vec.Vec3Float, bool)

// ReferencePosition реализует ReferenceSource
func (f ReferenceFunc) ReferencePosition() (vec.Vec3Float, bool) { return f() }

// FixedReference неподвижная опорная точка
func FixedReference(p vec.Vec3Float) ReferenceSource {
	return ReferenceFunc(func() (vec.Vec3Float, bool) { return p, true })
}

// Settings параметры мира, неизменяемые после создания стримера
type Settings struct {
	ChunkSize      float64 `json:"chunk_size"`
	RenderDistance int     `json:"render_distance"`
}

// DefaultSettings значения из демо: чанк 20 единиц, радиус 2
func DefaultSettings() Settings {
	return Settings{ChunkSize: 20, RenderDistance: 2}
}

// Validate проверяет параметры
func (s Settings) Validate() error {
	if !(s.ChunkSize > 0) || math.IsInf(s.ChunkSize, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidChunkSize, s.ChunkSize)
	}
	if s.RenderDistance < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRenderDistance, s.RenderDistance)
	}
	return nil
}

// ChunkDelta итог одного тика
type ChunkDelta struct {
	Skipped   bool          `json:"skipped,omitempty"`
	Reference ChunkCoord    `json:"reference"`
	Created   []ChunkCoord  `json:"created,omitempty"`
	Destroyed []ChunkCoord  `json:"destroyed,omitempty"`
	Active    int           `json:"active"`
	Failures  int           `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Changed сообщает, были ли созданы или удалены чанки
func (d ChunkDelta) Changed() bool {
	return len(d.Created) > 0 || len(d.Destroyed) > 0
}

// Observer получает итог каждого тика, включая пропущенные
type Observer interface {
	OnChunkDelta(delta ChunkDelta)
}

// ObserverFunc адаптер функции к Observer
type ObserverFunc func(ChunkDelta)

// OnChunkDelta реализует Observer
func (f ObserverFunc) OnChunkDelta(d ChunkDelta) { f(d) }

// Option настраивает Streamer
type Option func(*Streamer)

// WithDecorationPolicy задаёт политику декораций (по умолчанию SkipOrigin)
func WithDecorationPolicy(p DecorationPolicy) Option {
	return func(s *Streamer) {
		if p != nil {
			s.decorate = p
		}
	}
}

// WithObserver добавляет наблюдателя тиков
func WithObserver(o Observer) Option {
	return func(s *Streamer) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithLogger задаёт логгер компонента
func WithLogger(l *logging.Logger) Option {
	return func(s *Streamer) { s.logger = l }
}

// Streamer поддерживает множество активных чанков вокруг опорной точки.
// Tick вызывается из одного потока; методы чтения безопасны из других горутин.
type Streamer struct {
	settings  Settings
	world     World
	decorate  DecorationPolicy
	observers []Observer
	logger    *logging.Logger

	mu           sync.RWMutex
	active       map[ChunkCoord][]EntityHandle // чанк -> все его объекты (сам чанк первым)
	reference    ChunkCoord
	hasReference bool
}

// NewStreamer создаёт стример; некорректные параметры отклоняются
func NewStreamer(settings Settings, w World, opts ...Option) (*Streamer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrNilWorld
	}

	s := &Streamer{
		settings: settings,
		world:    w,
		decorate: SkipOrigin,
		active:   make(map[ChunkCoord][]EntityHandle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Settings возвращает параметры мира
func (s *Streamer) Settings() Settings {
	return s.settings
}

// Tick выполняет одну сверку: читает позицию один раз, удаляет ушедшие
// из радиуса чанки и создаёт недостающие.
// Ошибки мира собираются и возвращаются вместе; чанк, который не удалось
// создать, не попадает в учёт и будет создан на следующем тике.
func (s *Streamer) Tick(src ReferenceSource) (ChunkDelta, error) {
	var (
		pos vec.Vec3Float
		ok  bool
	)
	if src != nil {
		pos, ok = src.ReferencePosition()
	}
	if !ok {
		delta := ChunkDelta{Skipped: true}
		s.notify(delta)
		return delta, nil
	}

	start := time.Now()
	ref := WorldToChunk(pos, s.settings.ChunkSize)
	required := RequiredChunks(ref, s.settings.RenderDistance)

	s.mu.Lock()
	plan := Reconcile(s.activeSetLocked(), required)

	var errs []error
	delta := ChunkDelta{Reference: ref}

	for _, coord := range plan.ToDestroy {
		errs = append(errs, s.destroyLocked(coord)...)
		delta.Destroyed = append(delta.Destroyed, coord)
	}

	for _, coord := range plan.ToCreate {
		created, err := s.createLocked(coord)
		if err != nil {
			errs = append(errs, err)
		}
		if created {
			delta.Created = append(delta.Created, coord)
		}
	}

	s.reference = ref
	s.hasReference = true
	delta.Active = len(s.active)
	s.mu.Unlock()

	delta.Failures = len(errs)
	delta.Duration = time.Since(start)

	if delta.Changed() {
		s.logger.Debug("Reference chunk %s: +%d -%d, active=%d (%s)",
			ref, len(delta.Created), len(delta.Destroyed), delta.Active, delta.Duration)
	}
	if len(errs) > 0 {
		s.logger.Warn("Tick at %s finished with %d world errors", ref, len(errs))
	}

	s.notify(delta)
	return delta, errors.Join(errs...)
}

func (s *Streamer) createLocked(coord ChunkCoord) (bool, error) {
	origin := coord.Origin(s.settings.ChunkSize)

	chunk, err := s.world.CreateChunk(coord, origin, s.settings.ChunkSize)
	if err != nil {
		return false, fmt.Errorf("create chunk %s: %w", coord, err)
	}
	handles := []EntityHandle{chunk}

	var decoErr error
	if s.decorate(coord) {
		deco, err := s.world.CreateDecoration(coord, origin, DecorationVariant(coord))
		if err != nil {
			decoErr = fmt.Errorf("create decoration %s: %w", coord, err)
		} else {
			handles = append(handles, deco)
		}
	}

	s.active[coord] = handles
	if s.logger != nil {
		logging.LogChunkLoaded(s.logger, coord.X, coord.Z, origin.X, origin.Z)
	}
	return true, decoErr
}

func (s *Streamer) destroyLocked(coord ChunkCoord) []error {
	handles := s.active[coord]
	delete(s.active, coord)

	var errs []error
	for i := len(handles) - 1; i >= 0; i-- {
		if err := s.world.DestroyEntity(handles[i]); err != nil {
			errs = append(errs, fmt.Errorf("destroy entity %d of chunk %s: %w", handles[i], coord, err))
		}
	}
	if s.logger != nil {
		logging.LogChunkUnloaded(s.logger, coord.X, coord.Z, len(handles))
	}
	return errs
}

func (s *Streamer) activeSetLocked() ChunkSet {
	set := make(ChunkSet, len(s.active))
	for c := range s.active {
		set[c] = struct{}{}
	}
	return set
}

func (s *Streamer) notify(delta ChunkDelta) {
	for _, o := range s.observers {
		o.OnChunkDelta(delta)
	}
}

// Clear удаляет все активные чанки (используется при остановке)
func (s *Streamer) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, coord := range s.activeSetLocked().Sorted() {
		errs = append(errs, s.destroyLocked(coord)...)
	}
	s.hasReference = false
	return errors.Join(errs...)
}

// Active возвращает отсортированный снимок активных координат
func (s *Streamer) Active() []ChunkCoord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSetLocked().Sorted()
}

// ActiveCount количество активных чанков
func (s *Streamer) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active)
}

// IsActive проверяет, активен ли чанк
func (s *Streamer) IsActive(coord ChunkCoord) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.active[coord]
	return ok
}

// Handles возвращает копию списка объектов чанка
func (s *Streamer) Handles(coord ChunkCoord) []EntityHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handles, ok := s.active[coord]
	if !ok {
		return nil
	}
	return append([]EntityHandle(nil), handles...)
}

// ReferenceChunk возвращает чанк опорной точки последнего непропущенного тика
func (s *Streamer) ReferenceChunk() (ChunkCoord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reference, s.hasReference
}

// Verify проверяет инвариант: активное множество совпадает с требуемым
// вокруг последнего опорного чанка, и у каждого чанка есть хотя бы один объект.
func (s *Streamer) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasReference {
		if len(s.active) != 0 {
			return fmt.Errorf("%w: %d chunks active without reference", ErrInvariantViolated, len(s.active))
		}
		return nil
	}

	required := RequiredChunks(s.reference, s.settings.RenderDistance)
	plan := Reconcile(s.activeSetLocked(), required)
	if !plan.Empty() {
		return fmt.Errorf("%w: missing %v, stale %v", ErrInvariantViolated, plan.ToCreate, plan.ToDestroy)
	}
	for coord, handles := range s.active {
		if len(handles) == 0 {
			return fmt.Errorf("%w: chunk %s owns no entities", ErrInvariantViolated, coord)
		}
	}
	return nil
}
