package scene

import (
	"testing"

	"github.com/annel0/chunkstream/internal/storage"
	"github.com/annel0/chunkstream/internal/vec"
	"github.com/annel0/chunkstream/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(store storage.TerrainStore) *Scene {
	return New(world.NewTerrainGenerator(42, 4), store, nil)
}

func TestSceneCreateChunkAndDecoration(t *testing.T) {
	s := newTestScene(nil)
	coord := world.ChunkCoord{X: 1, Z: -2}
	origin := coord.Origin(20)

	chunk, err := s.CreateChunk(coord, origin, 20)
	require.NoError(t, err)
	deco, err := s.CreateDecoration(coord, origin, 3)
	require.NoError(t, err)

	assert.NotEqual(t, chunk, deco, "Идентификаторы должны различаться")
	assert.Greater(t, uint64(deco), uint64(chunk), "Идентификаторы растут монотонно")

	e, ok := s.Entity(chunk)
	require.True(t, ok)
	assert.Equal(t, KindChunk, e.Kind)
	assert.Equal(t, origin, e.Position)
	assert.Equal(t, 20.0, e.Size)
	assert.NotEmpty(t, e.Biome)
	require.NotNil(t, e.Terrain)
	assert.Len(t, e.Terrain.Heights, 16)

	d, ok := s.Entity(deco)
	require.True(t, ok)
	assert.Equal(t, KindDecoration, d.Kind)
	assert.Equal(t, origin.Add(vec.Vec3Float{Y: 0.5}), d.Position, "Декорация поднята на 0.5")
	require.NotNil(t, d.Color)
	assert.Equal(t, Palette[3], *d.Color)

	at := s.EntitiesAt(coord)
	require.Len(t, at, 2)
	assert.Equal(t, chunk, at[0].Handle)
	assert.Equal(t, deco, at[1].Handle)

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 1, s.CountByKind(KindChunk))
	assert.Equal(t, 1, s.CountByKind(KindDecoration))
}

func TestSceneDecorationVariantRange(t *testing.T) {
	s := newTestScene(nil)
	_, err := s.CreateDecoration(world.ChunkCoord{}, vec.Vec3Float{}, world.DecorationVariants)
	assert.Error(t, err)
	_, err = s.CreateDecoration(world.ChunkCoord{}, vec.Vec3Float{}, -1)
	assert.Error(t, err)
	assert.Zero(t, s.Count())
}

func TestSceneDestroyEntity(t *testing.T) {
	s := newTestScene(nil)
	coord := world.ChunkCoord{X: 5}
	h, err := s.CreateChunk(coord, coord.Origin(10), 10)
	require.NoError(t, err)

	require.NoError(t, s.DestroyEntity(h))
	assert.Zero(t, s.Count())
	assert.Empty(t, s.EntitiesAt(coord))
	assert.Empty(t, s.Coords())

	err = s.DestroyEntity(h)
	assert.ErrorIs(t, err, ErrUnknownEntity, "Повторное удаление должно вернуть ErrUnknownEntity")

	// Идентификаторы не переиспользуются
	h2, err := s.CreateChunk(coord, coord.Origin(10), 10)
	require.NoError(t, err)
	assert.NotEqual(t, h, h2)
}

func TestSceneTerrainCache(t *testing.T) {
	store := storage.NewMemoryTerrainStore()
	s := newTestScene(store)
	coord := world.ChunkCoord{X: -1, Z: 4}

	h1, err := s.CreateChunk(coord, coord.Origin(20), 20)
	require.NoError(t, err)
	require.NoError(t, s.DestroyEntity(h1))
	h2, err := s.CreateChunk(coord, coord.Origin(20), 20)
	require.NoError(t, err)

	st := s.Stats()
	assert.Equal(t, uint64(1), st.TerrainGenerated)
	assert.Equal(t, uint64(1), st.TerrainCached)
	assert.Equal(t, 1, store.Len())

	e, _ := s.Entity(h2)
	assert.Equal(t, world.NewTerrainGenerator(42, 4).Generate(coord, 20).Heights, e.Terrain.Heights,
		"Кэшированный ландшафт должен совпадать со сгенерированным")
}

func TestSceneClosedStoreFailsChunk(t *testing.T) {
	store := storage.NewMemoryTerrainStore()
	require.NoError(t, store.Close())
	s := newTestScene(store)

	_, err := s.CreateChunk(world.ChunkCoord{}, vec.Vec3Float{}, 20)
	assert.ErrorIs(t, err, storage.ErrStoreClosed)
	assert.Zero(t, s.Count())
}

func TestSceneWithStreamer(t *testing.T) {
	s := newTestScene(storage.NewMemoryTerrainStore())
	st, err := world.NewStreamer(world.DefaultSettings(), s)
	require.NoError(t, err)

	_, err = st.Tick(world.FixedReference(vec.Vec3Float{}))
	require.NoError(t, err)

	stats := s.Stats()
	assert.Equal(t, 25, stats.Chunks)
	assert.Equal(t, 24, stats.Decorations, "Начало координат без декорации")

	_, err = st.Tick(world.FixedReference(vec.Vec3Float{X: 20}))
	require.NoError(t, err)
	assert.Equal(t, 25, s.CountByKind(KindChunk))
	assert.Empty(t, s.EntitiesAt(world.ChunkCoord{X: -2, Z: 0}))
	assert.Len(t, s.EntitiesAt(world.ChunkCoord{X: 3, Z: 0}), 2)

	require.NoError(t, st.Clear())
	assert.Zero(t, s.Count())
}
