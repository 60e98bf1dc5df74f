package math

import (
	m "math"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/rand"
)

/** @brief A multiplier used to convert degrees to radians. */
const K_DEG2RAD_MULTIPLIER float32 = 3.14159265358979323846 / 180.0

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

func DegToRad(degrees float32) float32 {
	return degrees * K_DEG2RAD_MULTIPLIER
}

func Sin(x float32) float32 {
	return float32(m.Sin(float64(x)))
}

func Cos(x float32) float32 {
	return float32(m.Cos(float64(x)))
}

// RandomGenerator is a seeded source of uniform values for scene setup.
type RandomGenerator struct {
	r *rand.Rand
}

func NewRandomGenerator(seed uint64) *RandomGenerator {
	return &RandomGenerator{r: rand.New(rand.NewSource(seed))}
}

// InRange returns a value in [min, max).
func (g *RandomGenerator) InRange(min, max float32) float32 {
	return min + g.r.Float32()*(max-min)
}

// Intn returns a value in [0, n).
func (g *RandomGenerator) Intn(n int) int {
	return g.r.Intn(n)
}
