package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerrainGenerator_Deterministic(t *testing.T) {
	g1 := NewTerrainGenerator(12345, 4)
	g2 := NewTerrainGenerator(12345, 4)

	for _, c := range []ChunkCoord{{0, 0}, {-3, 7}, {100, -100}} {
		a := g1.Generate(c, 20)
		b := g2.Generate(c, 20)
		assert.Equal(t, a, b, "ландшафт чанка %s должен зависеть только от сида и координаты", c)
		require.Len(t, a.Heights, 16)
		for _, h := range a.Heights {
			assert.GreaterOrEqual(t, h, 0.0)
			assert.LessOrEqual(t, h, 1.0)
		}
		assert.NotEqual(t, "unknown", a.Biome.String())
	}

	// Повторная генерация тем же генератором не зависит от порядка вызовов
	first := g1.Generate(ChunkCoord{5, 5}, 20)
	g1.Generate(ChunkCoord{-9, 2}, 20)
	assert.Equal(t, first, g1.Generate(ChunkCoord{5, 5}, 20))
}

func TestTerrainGenerator_DefaultResolution(t *testing.T) {
	g := NewTerrainGenerator(1, 0)
	assert.Equal(t, DefaultTerrainResolution, g.Resolution)
	terrain := g.Generate(ChunkCoord{1, 2}, 16)
	assert.Equal(t, DefaultTerrainResolution*DefaultTerrainResolution, len(terrain.Heights))
	assert.Equal(t, terrain.Heights[3*terrain.Resolution+5], terrain.Height(3, 5))
}

func TestBiomeFor(t *testing.T) {
	assert.Equal(t, BiomeDeepWater, biomeFor(0.1, 0.5))
	assert.Equal(t, BiomeWater, biomeFor(0.25, 0.5))
	assert.Equal(t, BiomeMountains, biomeFor(0.9, 0.5))
	assert.Equal(t, BiomeDesert, biomeFor(0.5, 0.1))
	assert.Equal(t, BiomeForest, biomeFor(0.5, 0.9))
	assert.Equal(t, BiomePlains, biomeFor(0.5, 0.5))
}
