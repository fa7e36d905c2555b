package vec

import "math"

// Vec3Float представляет трехмерный вектор с плавающими координатами.
// Y - высота, плоскость земли - XZ.
type Vec3Float struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Zero3 нулевой вектор
var Zero3 = Vec3Float{}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3Float) Mul(scalar float64) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// NormalizedOrZero возвращает нормализованный вектор или нулевой,
// если длина равна нулю либо не является конечным числом.
func (v Vec3Float) NormalizedOrZero() Vec3Float {
	length := v.Length()
	if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return Zero3
	}
	return v.Mul(1 / length)
}

// Lerp линейно интерполирует от v к target на долю t
func (v Vec3Float) Lerp(target Vec3Float, t float64) Vec3Float {
	return v.Add(target.Sub(v).Mul(t))
}

// DistanceTo возвращает расстояние до другого вектора
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	return other.Sub(v).Length()
}

// XZ проецирует вектор на плоскость земли
func (v Vec3Float) XZ() Vec2Float {
	return Vec2Float{X: v.X, Y: v.Z}
}
