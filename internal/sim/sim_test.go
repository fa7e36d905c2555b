package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/annel0/chunkstream/internal/camera"
	"github.com/annel0/chunkstream/internal/daynight"
	"github.com/annel0/chunkstream/internal/player"
	"github.com/annel0/chunkstream/internal/scene"
	"github.com/annel0/chunkstream/internal/storage"
	"github.com/annel0/chunkstream/internal/vec"
	"github.com/annel0/chunkstream/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newSim(t *testing.T, walker player.Walker) (*Simulation, *world.Streamer, *player.Player, *scene.Scene) {
	t.Helper()
	sc := scene.New(world.NewTerrainGenerator(9, 2), nil, nil)
	st, err := world.NewStreamer(world.DefaultSettings(), sc)
	require.NoError(t, err)
	p := player.New("player", player.DefaultSpeed)

	s, err := New(Config{
		Streamer: st,
		Player:   p,
		Walker:   walker,
		Camera:   camera.NewRig(vec.Vec3Float{}),
		Cycle:    daynight.NewCycle(0),
	})
	require.NoError(t, err)
	return s, st, p, sc
}

func TestStepSkipsUntilSpawn(t *testing.T) {
	s, st, p, _ := newSim(t, nil)

	delta, err := s.Step(context.Background(), 0.1)
	require.NoError(t, err)
	assert.True(t, delta.Skipped)
	assert.Zero(t, st.ActiveCount())

	p.Spawn(vec.Vec3Float{})
	delta, err = s.Step(context.Background(), 0.1)
	require.NoError(t, err)
	assert.Len(t, delta.Created, 25)
	require.NoError(t, st.Verify())
}

// Чанк пересчитывается по позиции после движения в том же кадре
func TestStepUsesPositionAfterMovement(t *testing.T) {
	walker := player.Scripted(player.Waypoint{Input: player.Input{Right: true}, Duration: time.Hour})
	s, st, p, _ := newSim(t, walker)
	p.Spawn(vec.Vec3Float{X: 19.9})

	_, err := s.Step(context.Background(), 0.1) // 19.9 + 0.5 = 20.4
	require.NoError(t, err)
	ref, ok := st.ReferenceChunk()
	require.True(t, ok)
	assert.Equal(t, world.ChunkCoord{X: 1, Z: 0}, ref)
}

func TestWalkInvariantHolds(t *testing.T) {
	s, st, p, sc := newSim(t, player.RandomWalk(11, 500*time.Millisecond))
	p.Spawn(vec.Vec3Float{})

	for i := 0; i < 600; i++ {
		_, err := s.Step(context.Background(), 1.0/10)
		require.NoError(t, err)
		require.NoError(t, st.Verify(), "кадр %d", i)
		require.Equal(t, 25, st.ActiveCount())
	}
	assert.Equal(t, 25, sc.CountByKind(scene.KindChunk))
	assert.Equal(t, uint64(600), s.Ticks())
	assert.Greater(t, p.Distance(), 0.0)
}

func TestCameraFollowsPlayer(t *testing.T) {
	s, _, p, _ := newSim(t, nil)
	p.Spawn(vec.Vec3Float{X: 10})
	for i := 0; i < 200; i++ {
		_, _ = s.Step(context.Background(), 0.05)
	}
	pose := s.camera.Pose()
	assert.InDelta(t, 10, pose.Position.X, 0.01)
	assert.InDelta(t, 5, pose.Position.Y, 0.01)
	assert.Equal(t, vec.Vec3Float{X: 10}, pose.LookAt)
}

func TestStepPublishesPosition(t *testing.T) {
	sc := scene.New(nil, nil, nil)
	st, err := world.NewStreamer(world.DefaultSettings(), sc)
	require.NoError(t, err)
	repo := storage.NewMemoryPositionRepo()
	p := player.New("alice", 5)
	p.Spawn(vec.Vec3Float{Z: 3})

	s, err := New(Config{Streamer: st, Player: p, Positions: repo})
	require.NoError(t, err)
	_, err = s.Step(context.Background(), 0.1)
	require.NoError(t, err)

	pos, found, err := repo.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, vec.Vec3Float{Z: 3}, pos)
}

func TestExternalSource(t *testing.T) {
	sc := scene.New(nil, nil, nil)
	st, err := world.NewStreamer(world.Settings{ChunkSize: 10, RenderDistance: 0}, sc)
	require.NoError(t, err)

	s, err := New(Config{Streamer: st, Source: world.FixedReference(vec.Vec3Float{X: -5, Z: 15})})
	require.NoError(t, err)
	_, err = s.Step(context.Background(), 0.1)
	require.NoError(t, err)
	assert.Equal(t, []world.ChunkCoord{{X: -1, Z: 1}}, st.Active())
}

type brokenWorld struct{}

func (brokenWorld) CreateChunk(world.ChunkCoord, vec.Vec3Float, float64) (world.EntityHandle, error) {
	return 0, errors.New("no memory")
}

func (brokenWorld) CreateDecoration(world.ChunkCoord, vec.Vec3Float, int) (world.EntityHandle, error) {
	return 0, errors.New("no memory")
}

func (brokenWorld) DestroyEntity(world.EntityHandle) error { return nil }

func TestStepRecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	defer otel.SetTracerProvider(prev)

	st, err := world.NewStreamer(world.Settings{ChunkSize: 1, RenderDistance: 0}, brokenWorld{})
	require.NoError(t, err)
	s, err := New(Config{Streamer: st, Source: world.FixedReference(vec.Vec3Float{})})
	require.NoError(t, err)

	_, err = s.Step(context.Background(), 0.1)
	assert.Error(t, err)
	assert.Equal(t, uint64(1), s.Errors())

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "sim.step", spans[0].Name())
	assert.Len(t, spans[0].Events(), 1, "Ошибка записана в span")
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _, p, _ := newSim(t, nil)
	p.Spawn(vec.Vec3Float{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 200) }()

	require.Eventually(t, func() bool { return s.Ticks() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}

	assert.Error(t, s.Run(context.Background(), 0))
}
