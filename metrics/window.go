// Package metrics holds the dashboard's in-memory state: fixed-capacity
// rolling windows of each numeric metric, the latest scalar readings, and the
// smoothing projection used to turn a window into chart points.
package metrics

// DefaultWindowSize is the number of samples each window retains.
const DefaultWindowSize = 100

// Window is a fixed-capacity ring of float64 samples ordered oldest-first.
// Its length always equals its capacity: it is pre-filled at construction and
// every Push evicts the oldest value.
type Window struct {
	data []float64
	head int // index of the oldest value
}

// NewWindow creates a window of the given capacity with every slot set to
// fill. A capacity <= 0 uses DefaultWindowSize.
func NewWindow(capacity int, fill float64) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	data := make([]float64, capacity)
	if fill != 0 {
		for i := range data {
			data[i] = fill
		}
	}
	return &Window{data: data}
}

// Push appends v as the newest value and drops the oldest one.
func (w *Window) Push(v float64) {
	w.data[w.head] = v
	w.head++
	if w.head == len(w.data) {
		w.head = 0
	}
}

// Len returns the number of values, which always equals Cap.
func (w *Window) Len() int {
	return len(w.data)
}

// Cap returns the configured capacity.
func (w *Window) Cap() int {
	return len(w.data)
}

// At returns the i-th value in chronological order; At(0) is the oldest.
// It panics if i is out of range.
func (w *Window) At(i int) float64 {
	if i < 0 || i >= len(w.data) {
		panic("metrics: window index out of range")
	}
	return w.data[(w.head+i)%len(w.data)]
}

// Last returns the newest value.
func (w *Window) Last() float64 {
	return w.At(len(w.data) - 1)
}

// Values returns a chronological copy of the window contents.
func (w *Window) Values() []float64 {
	out := make([]float64, len(w.data))
	n := copy(out, w.data[w.head:])
	copy(out[n:], w.data[:w.head])
	return out
}

// Project returns the smoothed chart series of the window. See Project.
func (w *Window) Project(span int) []Point {
	return Project(w.Values(), span)
}
