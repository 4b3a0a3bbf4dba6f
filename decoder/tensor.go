package decoder

import "fmt"

// Tensor holds per-timestep class probabilities in time-major order:
// Data[(t*Batch+b)*Classes+c] is the probability of class c for batch item b
// at timestep t.
type Tensor struct {
	Data    []float32
	MaxTime int
	Batch   int
	Classes int
}

// NewTensor allocates a zeroed tensor.
func NewTensor(maxTime, batch, classes int) *Tensor {
	return &Tensor{
		Data:    make([]float32, maxTime*batch*classes),
		MaxTime: maxTime,
		Batch:   batch,
		Classes: classes,
	}
}

// TensorFromSlices copies a [time][batch][class] nested slice into a Tensor.
func TensorFromSlices(probs [][][]float32) (*Tensor, error) {
	if len(probs) == 0 {
		return nil, fmt.Errorf("%w: empty probability tensor", ErrShape)
	}
	batch := len(probs[0])
	if batch == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrShape)
	}
	classes := len(probs[0][0])
	t := NewTensor(len(probs), batch, classes)
	for ti, step := range probs {
		if len(step) != batch {
			return nil, fmt.Errorf("%w: timestep %d has %d batch items, want %d", ErrShape, ti, len(step), batch)
		}
		for b, row := range step {
			if len(row) != classes {
				return nil, fmt.Errorf("%w: timestep %d item %d has %d classes, want %d", ErrShape, ti, b, len(row), classes)
			}
			copy(t.Row(ti, b), row)
		}
	}
	return t, nil
}

// Row returns the class probabilities of item b at timestep t.
func (t *Tensor) Row(time, b int) []float32 {
	off := (time*t.Batch + b) * t.Classes
	return t.Data[off : off+t.Classes]
}

// Set stores p as the probability of class c for item b at timestep time.
func (t *Tensor) Set(time, b, c int, p float32) {
	t.Data[(time*t.Batch+b)*t.Classes+c] = p
}

func (t *Tensor) validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil tensor", ErrShape)
	}
	if t.MaxTime < 0 || t.Batch < 0 || t.Classes <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%dx%d", ErrShape, t.MaxTime, t.Batch, t.Classes)
	}
	if want := t.MaxTime * t.Batch * t.Classes; len(t.Data) != want {
		return fmt.Errorf("%w: data length %d, want %d", ErrShape, len(t.Data), want)
	}
	return nil
}
