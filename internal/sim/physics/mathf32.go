package physics

import "math"

func sqrtf32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func powf32(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}

func isBadf32(v float32) bool {
	return math.IsNaN(float64(v)) || math.IsInf(float64(v), 0)
}
