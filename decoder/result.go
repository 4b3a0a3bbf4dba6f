package decoder

import "math"

// ShortfallScore marks a result slot for which no hypothesis survived.
// Such slots also have length 0 and Found tells how many slots are real.
var ShortfallScore = math.Inf(-1)

// Result holds the decoder output. All arrays are indexed [path][batch item].
// Paths are ordered by descending score within each batch item.
type Result struct {
	Labels  [][][]int   // label sequences padded with the blank index to MaxTime
	Scores  [][]float64 // combined acoustic and language model log probability
	Lengths [][]int     // emitted labels per path
	Found   []int       // real paths per batch item, at most TopPaths
}

func newResult(topPaths, batch, maxTime, blank int) *Result {
	r := &Result{
		Labels:  make([][][]int, topPaths),
		Scores:  make([][]float64, topPaths),
		Lengths: make([][]int, topPaths),
		Found:   make([]int, batch),
	}
	for k := range topPaths {
		r.Labels[k] = make([][]int, batch)
		r.Scores[k] = make([]float64, batch)
		r.Lengths[k] = make([]int, batch)
		for b := range batch {
			labels := make([]int, maxTime)
			for i := range labels {
				labels[i] = blank
			}
			r.Labels[k][b] = labels
			r.Scores[k][b] = ShortfallScore
		}
	}
	return r
}

// Path returns the emitted labels of path k for batch item b.
func (r *Result) Path(k, b int) []int {
	return r.Labels[k][b][:r.Lengths[k][b]]
}

// Shortfall returns the number of result slots that hold no hypothesis.
func (r *Result) Shortfall() int {
	n := 0
	for _, f := range r.Found {
		n += len(r.Scores) - f
	}
	return n
}
