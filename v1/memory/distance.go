package memory

import "math"

type distanceFunc func(a, b []float32) float64

func distanceFor(metric string) distanceFunc {
	switch metric {
	case MetricL2:
		return l2Distance
	case MetricDot:
		return dotDistance
	default:
		return cosineDistance
	}
}

// cosineDistance is 1 - cos(a, b). Zero vectors are at distance 1 from
// everything.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func l2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// dotDistance negates the inner product so that smaller means more similar.
func dotDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return -dot
}
