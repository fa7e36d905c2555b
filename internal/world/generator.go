package world

import (
	"github.com/annel0/chunkstream/internal/util"
	"github.com/annel0/chunkstream/internal/vec"
)

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
	BiomeDeepWater
)

var biomeNames = map[BiomeType]string{
	BiomePlains:    "plains",
	BiomeDesert:    "desert",
	BiomeForest:    "forest",
	BiomeMountains: "mountains",
	BiomeWater:     "water",
	BiomeDeepWater: "deep_water",
}

// String возвращает имя биома
func (b BiomeType) String() string {
	if name, ok := biomeNames[b]; ok {
		return name
	}
	return "unknown"
}

// Пороговые значения высоты для определения биома
const (
	DeepWaterMax    = 0.20 // Ниже - глубинная вода
	ShallowWaterMax = 0.30 // Ниже - мелководье
	MountainStart   = 0.80 // Выше - горы
)

// DefaultTerrainResolution количество отсчётов высоты по стороне чанка
const DefaultTerrainResolution = 8

// ChunkTerrain содержимое чанка: сетка высот и биом.
// Heights[i*Resolution+j] - отсчёт в точке (x0 + i*step, z0 + j*step).
type ChunkTerrain struct {
	Coord      ChunkCoord `json:"coord"`
	Size       float64    `json:"size"`
	Resolution int        `json:"resolution"`
	Heights    []float64  `json:"heights"`
	Biome      BiomeType  `json:"biome"`
	Seed       int64      `json:"seed"`
}

// Height возвращает отсчёт (i, j)
func (t *ChunkTerrain) Height(i, j int) float64 {
	return t.Heights[i*t.Resolution+j]
}

// MeanHeight средняя высота чанка
func (t *ChunkTerrain) MeanHeight() float64 {
	if len(t.Heights) == 0 {
		return 0
	}
	var sum float64
	for _, h := range t.Heights {
		sum += h
	}
	return sum / float64(len(t.Heights))
}

// TerrainGenerator генерирует ландшафт чанков.
// Результат зависит только от сида, координаты и размера чанка.
type TerrainGenerator struct {
	Seed       int64   // Сид для генерации шума
	NoiseScale float64 // Масштаб основного шума (высота) на единицу мира
	BiomeScale float64 // Масштаб шума биомов на единицу мира
	Resolution int     // Отсчётов по стороне чанка

	height *util.Noise2D
	biome  *util.Noise2D
}

// NewTerrainGenerator создаёт новый генератор ландшафта
func NewTerrainGenerator(seed int64, resolution int) *TerrainGenerator {
	if resolution <= 0 {
		resolution = DefaultTerrainResolution
	}
	return &TerrainGenerator{
		Seed:       seed,
		NoiseScale: 0.01,  // Настройка сглаженности ландшафта
		BiomeScale: 0.004, // Настройка размера биомов
		Resolution: resolution,
		height:     util.NewNoise2D(seed),
		biome:      util.NewNoise2D(seed + 42),
	}
}

// Generate строит ландшафт чанка
func (g *TerrainGenerator) Generate(coord ChunkCoord, chunkSize float64) *ChunkTerrain {
	terrain := &ChunkTerrain{
		Coord:      coord,
		Size:       chunkSize,
		Resolution: g.Resolution,
		Heights:    make([]float64, g.Resolution*g.Resolution),
		Seed:       g.Seed,
	}

	origin := coord.Origin(chunkSize)
	step := chunkSize / float64(g.Resolution)

	for i := 0; i < g.Resolution; i++ {
		for j := 0; j < g.Resolution; j++ {
			wx := origin.X + float64(i)*step
			wz := origin.Z + float64(j)*step
			terrain.Heights[i*g.Resolution+j] = g.height.At(wx*g.NoiseScale, wz*g.NoiseScale)
		}
	}

	center := origin.Add(vec.Vec3Float{X: chunkSize / 2, Z: chunkSize / 2})
	biomeValue := g.biome.At(center.X*g.BiomeScale, center.Z*g.BiomeScale)
	terrain.Biome = biomeFor(terrain.MeanHeight(), biomeValue)
	return terrain
}

// biomeFor определяет тип биома на основе высоты и значения шума биомов (0..1)
func biomeFor(height, biomeValue float64) BiomeType {
	// Водные биомы в низинах
	if height < DeepWaterMax {
		return BiomeDeepWater
	}
	if height < ShallowWaterMax {
		return BiomeWater
	}

	// Горные биомы на возвышенностях
	if height > MountainStart {
		return BiomeMountains
	}

	switch {
	case biomeValue < 0.35:
		return BiomeDesert
	case biomeValue > 0.65:
		return BiomeForest
	default:
		return BiomePlains
	}
}
