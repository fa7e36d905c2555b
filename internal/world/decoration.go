package world

// DecorationVariants количество вариантов декораций
const DecorationVariants = 4

// DecorationPolicy решает, ставить ли декорацию в чанке
type DecorationPolicy func(coord ChunkCoord) bool

// SkipOrigin ставит декорации везде, кроме чанка (0,0)
func SkipOrigin(coord ChunkCoord) bool {
	return coord.X != 0 || coord.Z != 0
}

// DecorateAll ставит декорации во всех чанках
func DecorateAll(ChunkCoord) bool { return true }

// DecorateNone отключает декорации
func DecorateNone(ChunkCoord) bool { return false }

// DecorationVariant индекс варианта (|x| + |z|) mod 4.
// Зависит только от координаты, поэтому повторное создание чанка
// даёт ту же декорацию.
func DecorationVariant(coord ChunkCoord) int {
	return (abs(coord.X) + abs(coord.Z)) % DecorationVariants
}
