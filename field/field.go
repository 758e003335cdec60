// Package field provides batched 1-D scalar fields sampled on uniform
// periodic grids, together with the periodic-boundary primitives the rest of
// the pipeline is built from: overlapping window extraction, resampling to
// lower resolution, periodic convolution and batch normalization.
package field

import (
	"fmt"

	"github.com/brucejunlee/data-driven-discretization-1d/stencil"
)

// Field is a batch of 1-D scalar sequences with shape (batch, x). All
// sequences in a batch share one uniform periodic grid.
type Field [][]float64

// New allocates a zero Field with the given batch size and width.
func New(batch, width int) Field {
	f := make(Field, batch)
	for i := range f {
		f[i] = make([]float64, width)
	}
	return f
}

// Width returns the number of spatial points, or 0 for an empty batch.
func (f Field) Width() int {
	if len(f) == 0 {
		return 0
	}
	return len(f[0])
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := make(Field, len(f))
	for i, row := range f {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Roll shifts every sequence k positions to the right, wrapping around the
// periodic boundary. Negative k shifts left.
func (f Field) Roll(k int) Field {
	w := f.Width()
	out := make(Field, len(f))
	for i, row := range f {
		shifted := make([]float64, w)
		for j := 0; j < w; j++ {
			shifted[mod(j+k, w)] = row[j]
		}
		out[i] = shifted
	}
	return out
}

// windowStart returns the index of the first point in a window of the given
// size for output position i. Centered windows of odd size surround i
// symmetrically; staggered windows of even size are aligned so the window
// midpoint falls halfway between i and i+1.
func windowStart(i, size int, offset stencil.GridOffset) int {
	if offset == stencil.Staggered {
		return i - size/2 + 1
	}
	return i - (size-1)/2
}

// Patches extracts overlapping windows of the given size at every position,
// wrapping indices around the periodic boundary. The result has shape
// (batch, x, size). Windows larger than the field wrap the same points
// repeatedly; this is never an error.
//
// This is the only place circular boundary conditions are applied to raw
// field values.
func Patches(f Field, size int, offset stencil.GridOffset) [][][]float64 {
	w := f.Width()
	out := make([][][]float64, len(f))
	for b, row := range f {
		patches := make([][]float64, w)
		for i := 0; i < w; i++ {
			window := make([]float64, size)
			start := windowStart(i, size, offset)
			for j := 0; j < size; j++ {
				window[j] = row[mod(start+j, w)]
			}
			patches[i] = window
		}
		out[b] = patches
	}
	return out
}

// ResampleMean reduces the field to width/factor by averaging each block of
// factor consecutive values. Returns an error when factor does not evenly
// divide the width.
func ResampleMean(f Field, factor int) (Field, error) {
	if err := checkFactor(f, factor); err != nil {
		return nil, err
	}
	w := f.Width()
	out := make(Field, len(f))
	for b, row := range f {
		coarse := make([]float64, w/factor)
		for i := range coarse {
			sum := 0.0
			for j := 0; j < factor; j++ {
				sum += row[i*factor+j]
			}
			coarse[i] = sum / float64(factor)
		}
		out[b] = coarse
	}
	return out, nil
}

// Subsample reduces the field to width/factor by keeping every factor-th
// value. Returns an error when factor does not evenly divide the width.
func Subsample(f Field, factor int) (Field, error) {
	if err := checkFactor(f, factor); err != nil {
		return nil, err
	}
	w := f.Width()
	out := make(Field, len(f))
	for b, row := range f {
		coarse := make([]float64, w/factor)
		for i := range coarse {
			coarse[i] = row[i*factor]
		}
		out[b] = coarse
	}
	return out, nil
}

// Resampler reduces a field's resolution by an integer factor.
type Resampler func(f Field, factor int) (Field, error)

// ResamplerByName returns the resampling function registered under name,
// either "mean" or "subsample".
func ResamplerByName(name string) (Resampler, error) {
	switch name {
	case "mean":
		return ResampleMean, nil
	case "subsample":
		return Subsample, nil
	default:
		return nil, fmt.Errorf("unknown resample method: %q", name)
	}
}

func checkFactor(f Field, factor int) error {
	if factor < 1 {
		return fmt.Errorf("resample factor must be positive, got %d", factor)
	}
	if f.Width()%factor != 0 {
		return fmt.Errorf("resample factor %d does not evenly divide field width %d", factor, f.Width())
	}
	return nil
}

func mod(i, n int) int {
	m := i % n
	if m < 0 {
		m += n
	}
	return m
}
