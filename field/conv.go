package field

import (
	"fmt"
	"math"

	"github.com/brucejunlee/data-driven-discretization-1d/stencil"
)

// Conv1DPeriodic is a 1-D convolution layer with circular boundary handling,
// matching the wrap convention used by Patches with a centered window.
//
// Inputs and outputs have shape (batch, x, channels). Weights are learnable
// through the flat parameter vector interface.
type Conv1DPeriodic struct {
	kernelSize  int
	inChannels  int
	outChannels int
	relu        bool

	// weights is laid out [tap][in][out]; bias has one entry per output
	// channel.
	weights []float64
	bias    []float64
}

// NewConv1DPeriodic creates a periodic convolution layer. When relu is true
// the output passes through a rectified linear activation.
func NewConv1DPeriodic(kernelSize, inChannels, outChannels int, relu bool) (*Conv1DPeriodic, error) {
	if kernelSize < 1 || inChannels < 1 || outChannels < 1 {
		return nil, fmt.Errorf("invalid conv1d shape: kernel %d, in %d, out %d",
			kernelSize, inChannels, outChannels)
	}

	numWeights := kernelSize * inChannels * outChannels
	weights := make([]float64, numWeights)

	// Deterministic Xavier-like initialization keyed on the weight index.
	scale := math.Sqrt(2.0 / float64(kernelSize*inChannels))
	for i := range weights {
		weights[i] = scale * (float64((i*7+13)%100)/100.0 - 0.5)
	}

	return &Conv1DPeriodic{
		kernelSize:  kernelSize,
		inChannels:  inChannels,
		outChannels: outChannels,
		relu:        relu,
		weights:     weights,
		bias:        make([]float64, outChannels),
	}, nil
}

// OutChannels returns the number of output channels.
func (c *Conv1DPeriodic) OutChannels() int {
	return c.outChannels
}

// Forward applies the convolution to x with shape (batch, x, inChannels).
func (c *Conv1DPeriodic) Forward(x [][][]float64) [][][]float64 {
	out := make([][][]float64, len(x))
	for b := range x {
		width := len(x[b])
		rows := make([][]float64, width)
		for i := 0; i < width; i++ {
			row := make([]float64, c.outChannels)
			copy(row, c.bias)
			for tap := 0; tap < c.kernelSize; tap++ {
				src := x[b][mod(windowStart(i, c.kernelSize, stencil.Centered)+tap, width)]
				base := tap * c.inChannels * c.outChannels
				for in := 0; in < c.inChannels; in++ {
					v := src[in]
					if v == 0 {
						continue
					}
					w := c.weights[base+in*c.outChannels:]
					for o := 0; o < c.outChannels; o++ {
						row[o] += v * w[o]
					}
				}
			}
			if c.relu {
				for o := range row {
					if row[o] < 0 {
						row[o] = 0
					}
				}
			}
			rows[i] = row
		}
		out[b] = rows
	}
	return out
}

// GetParams returns the current parameter vector (weights then biases).
func (c *Conv1DPeriodic) GetParams() []float64 {
	out := make([]float64, 0, len(c.weights)+len(c.bias))
	out = append(out, c.weights...)
	out = append(out, c.bias...)
	return out
}

// SetParams updates the parameter vector.
func (c *Conv1DPeriodic) SetParams(params []float64) {
	if len(params) != c.NumParams() {
		panic("params length must match NumParams()")
	}
	copy(c.weights, params[:len(c.weights)])
	copy(c.bias, params[len(c.weights):])
}

// NumParams returns the number of parameters.
func (c *Conv1DPeriodic) NumParams() int {
	return len(c.weights) + len(c.bias)
}

// BatchNorm normalizes each channel of a (batch, x, channels) tensor to zero
// mean and unit variance, with a learnable affine transform.
//
// In training mode statistics come from the current batch and are folded
// into running averages; in inference mode the frozen running statistics are
// used. The switch changes numeric calibration only, never shapes.
type BatchNorm struct {
	channels int
	momentum float64
	epsilon  float64

	gamma []float64
	beta  []float64

	runningMean []float64
	runningVar  []float64
}

// NewBatchNorm creates a batch normalization layer over the given number of
// channels.
func NewBatchNorm(channels int) (*BatchNorm, error) {
	if channels < 1 {
		return nil, fmt.Errorf("batch norm needs at least one channel, got %d", channels)
	}
	gamma := make([]float64, channels)
	runningVar := make([]float64, channels)
	for i := range gamma {
		gamma[i] = 1
		runningVar[i] = 1
	}
	return &BatchNorm{
		channels:    channels,
		momentum:    0.99,
		epsilon:     1e-3,
		gamma:       gamma,
		beta:        make([]float64, channels),
		runningMean: make([]float64, channels),
		runningVar:  runningVar,
	}, nil
}

// Forward normalizes x with shape (batch, x, channels).
func (bn *BatchNorm) Forward(x [][][]float64, training bool) [][][]float64 {
	mean := bn.runningMean
	variance := bn.runningVar

	if training {
		mean = make([]float64, bn.channels)
		variance = make([]float64, bn.channels)
		count := 0
		for b := range x {
			for i := range x[b] {
				for ch := 0; ch < bn.channels; ch++ {
					mean[ch] += x[b][i][ch]
				}
				count++
			}
		}
		if count > 0 {
			for ch := range mean {
				mean[ch] /= float64(count)
			}
			for b := range x {
				for i := range x[b] {
					for ch := 0; ch < bn.channels; ch++ {
						d := x[b][i][ch] - mean[ch]
						variance[ch] += d * d
					}
				}
			}
			for ch := range variance {
				variance[ch] /= float64(count)
			}
		}
		for ch := 0; ch < bn.channels; ch++ {
			bn.runningMean[ch] = bn.momentum*bn.runningMean[ch] + (1-bn.momentum)*mean[ch]
			bn.runningVar[ch] = bn.momentum*bn.runningVar[ch] + (1-bn.momentum)*variance[ch]
		}
	}

	out := make([][][]float64, len(x))
	for b := range x {
		rows := make([][]float64, len(x[b]))
		for i := range x[b] {
			row := make([]float64, bn.channels)
			for ch := 0; ch < bn.channels; ch++ {
				norm := (x[b][i][ch] - mean[ch]) / math.Sqrt(variance[ch]+bn.epsilon)
				row[ch] = bn.gamma[ch]*norm + bn.beta[ch]
			}
			rows[i] = row
		}
		out[b] = rows
	}
	return out
}

// GetParams returns the learnable affine parameters (gamma then beta).
// Running statistics are state, not parameters.
func (bn *BatchNorm) GetParams() []float64 {
	out := make([]float64, 0, 2*bn.channels)
	out = append(out, bn.gamma...)
	out = append(out, bn.beta...)
	return out
}

// SetParams updates the learnable affine parameters.
func (bn *BatchNorm) SetParams(params []float64) {
	if len(params) != bn.NumParams() {
		panic("params length must match NumParams()")
	}
	copy(bn.gamma, params[:bn.channels])
	copy(bn.beta, params[bn.channels:])
}

// NumParams returns the number of learnable parameters.
func (bn *BatchNorm) NumParams() int {
	return 2 * bn.channels
}
