package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	NoiseAlpha   = 2.0 // Сглаживание шума
	NoiseBeta    = 2.0 // Частота шума
	NoiseOctaves = 3   // Количество октав
)

// Noise2D генератор шума Перлина с собственным сидом.
// Экземпляр не разделяется между мирами.
type Noise2D struct {
	seed int64
	p    *perlin.Perlin
}

// NewNoise2D создаёт генератор шума для указанного сида
func NewNoise2D(seed int64) *Noise2D {
	return &Noise2D{
		seed: seed,
		p:    perlin.NewPerlin(NoiseAlpha, NoiseBeta, NoiseOctaves, seed),
	}
}

// Seed возвращает сид генератора
func (n *Noise2D) Seed() int64 {
	return n.seed
}

// At возвращает значение шума для координат в диапазоне от 0 до 1
func (n *Noise2D) At(x, y float64) float64 {
	v := (n.p.Noise2D(x, y) + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
