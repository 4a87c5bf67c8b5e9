package metrics

// DefaultSmoothingSpan is the number of samples averaged per chart point.
const DefaultSmoothingSpan = 7

// Point is one chart coordinate. X is a synthetic tick index starting at 0,
// not wall-clock time.
type Point struct {
	X float64
	Y float64
}

// Project converts values into a centered moving average with radius
// span/2. Each output point averages the 2*radius+1 samples around index i,
// for every i at least radius away from both ends, so the result is 2*radius
// points shorter than the input. When the input is not longer than
// 2*radius the result is empty; callers must render that as "no data".
//
// Project does not modify values and always returns the same output for the
// same input.
func Project(values []float64, span int) []Point {
	r := span / 2
	if r < 0 {
		r = 0
	}
	n := len(values)
	if n <= 2*r {
		return nil
	}

	width := float64(2*r + 1)
	points := make([]Point, 0, n-2*r)
	for i := r; i <= n-1-r; i++ {
		var sum float64
		for _, v := range values[i-r : i+r+1] {
			sum += v
		}
		points = append(points, Point{X: float64(i - r), Y: sum / width})
	}
	return points
}

// Ys extracts the Y coordinates of a series.
func Ys(points []Point) []float64 {
	ys := make([]float64, len(points))
	for i, p := range points {
		ys[i] = p.Y
	}
	return ys
}
