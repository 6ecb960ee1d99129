// Package space describes bounded continuous spaces for actions,
// observations and goals.
package space

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distmv"
)

var (
	ErrShape  = errors.New("space: dimension mismatch")
	ErrBounds = errors.New("space: low exceeds high")
)

// Box is an axis-aligned box [Low, High] in R^n.
type Box struct {
	low  []float64
	high []float64
}

// NewBox copies low and high into a new Box.
func NewBox(low, high []float64) (Box, error) {
	if len(low) != len(high) {
		return Box{}, fmt.Errorf("%w: low has %d entries, high has %d", ErrShape, len(low), len(high))
	}
	for i := range low {
		if low[i] > high[i] {
			return Box{}, fmt.Errorf("%w: dimension %d (%g > %g)", ErrBounds, i, low[i], high[i])
		}
	}
	b := Box{
		low:  make([]float64, len(low)),
		high: make([]float64, len(high)),
	}
	copy(b.low, low)
	copy(b.high, high)
	return b, nil
}

// MustBox is NewBox for package-level constants.
func MustBox(low, high []float64) Box {
	b, err := NewBox(low, high)
	if err != nil {
		panic(err)
	}
	return b
}

// Box3 builds a 3-dimensional box from two corners.
func Box3(low, high r3.Vec) Box {
	return MustBox([]float64{low.X, low.Y, low.Z}, []float64{high.X, high.Y, high.Z})
}

// Uniform returns the box [low, high]^n.
func Uniform(n int, low, high float64) Box {
	l := make([]float64, n)
	h := make([]float64, n)
	for i := range l {
		l[i], h[i] = low, high
	}
	return MustBox(l, h)
}

// Concat stacks boxes dimension-wise.
func Concat(boxes ...Box) Box {
	var low, high []float64
	for _, b := range boxes {
		low = append(low, b.low...)
		high = append(high, b.high...)
	}
	return Box{low: low, high: high}
}

func (b Box) Dim() int { return len(b.low) }

// Lower returns a copy of the lower bound.
func (b Box) Lower() []float64 { return append([]float64(nil), b.low...) }

// Upper returns a copy of the upper bound.
func (b Box) Upper() []float64 { return append([]float64(nil), b.high...) }

// Contains reports whether x lies inside the box, bounds included.
func (b Box) Contains(x []float64) bool {
	if len(x) != len(b.low) {
		return false
	}
	for i, v := range x {
		if v < b.low[i] || v > b.high[i] {
			return false
		}
	}
	return true
}

// Clip returns a copy of x clamped into the box.
func (b Box) Clip(x []float64) ([]float64, error) {
	if len(x) != len(b.low) {
		return nil, fmt.Errorf("%w: got %d entries, want %d", ErrShape, len(x), len(b.low))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = clamp(v, b.low[i], b.high[i])
	}
	return out, nil
}

// ClipVec clamps a point of a 3-dimensional box.
func (b Box) ClipVec(v r3.Vec) r3.Vec {
	if b.Dim() != 3 {
		panic(fmt.Sprintf("space: ClipVec on %d-dimensional box", b.Dim()))
	}
	return r3.Vec{
		X: clamp(v.X, b.low[0], b.high[0]),
		Y: clamp(v.Y, b.low[1], b.high[1]),
		Z: clamp(v.Z, b.low[2], b.high[2]),
	}
}

// Diagonal is the Euclidean length of the box's main diagonal.
func (b Box) Diagonal() float64 {
	return floats.Distance(b.low, b.high, 2)
}

func (b Box) String() string {
	return fmt.Sprintf("Box(%v, %v)", b.low, b.high)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sampler draws uniform points from a Box.
type Sampler struct {
	box  Box
	dist *distmv.Uniform
}

// NewSampler seeds a uniform distribution over b.
func NewSampler(b Box, seed uint64) *Sampler {
	bnds := make([]r1.Interval, b.Dim())
	for i := range bnds {
		bnds[i] = r1.Interval{Min: b.low[i], Max: b.high[i]}
	}
	return &Sampler{
		box:  b,
		dist: distmv.NewUniform(bnds, rand.NewSource(seed)),
	}
}

// Sample returns a fresh point inside the box.
func (s *Sampler) Sample() []float64 {
	x := s.dist.Rand(nil)
	for i := range x {
		// degenerate dimensions are reported exactly
		if s.box.low[i] == s.box.high[i] {
			x[i] = s.box.low[i]
		}
	}
	return x
}

// SampleVec samples a 3-dimensional box.
func (s *Sampler) SampleVec() r3.Vec {
	x := s.Sample()
	return r3.Vec{X: x[0], Y: x[1], Z: x[2]}
}
