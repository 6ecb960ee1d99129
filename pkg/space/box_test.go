package space

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewBox(t *testing.T) {
	t.Run("rejects mismatched lengths", func(t *testing.T) {
		_, err := NewBox([]float64{0, 0}, []float64{1})
		require.ErrorIs(t, err, ErrShape)
	})

	t.Run("rejects inverted bounds", func(t *testing.T) {
		_, err := NewBox([]float64{0, 2}, []float64{1, 1})
		require.ErrorIs(t, err, ErrBounds)
	})

	t.Run("copies its inputs", func(t *testing.T) {
		low := []float64{-1, -1}
		b, err := NewBox(low, []float64{1, 1})
		require.NoError(t, err)
		low[0] = 5
		assert.Equal(t, []float64{-1, -1}, b.Lower())
	})
}

func TestBoxClip(t *testing.T) {
	b := Uniform(4, -1, 1)

	got, err := b.Clip([]float64{-3, 0.5, 1, 7})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0.5, 1, 1}, got)
	assert.True(t, b.Contains(got))

	_, err = b.Clip([]float64{0, 0})
	require.ErrorIs(t, err, ErrShape)
}

func TestBoxContains(t *testing.T) {
	b := Box3(r3.Vec{X: -0.5, Y: 0.4, Z: 0.05}, r3.Vec{X: 0.5, Y: 1, Z: 0.5})

	assert.True(t, b.Contains([]float64{-0.5, 0.4, 0.05}))
	assert.True(t, b.Contains([]float64{0.5, 1, 0.5}))
	assert.False(t, b.Contains([]float64{0.51, 0.7, 0.2}))
	assert.False(t, b.Contains([]float64{0, 0.7}))

	clipped := b.ClipVec(r3.Vec{X: 2, Y: 0, Z: 0.2})
	assert.Equal(t, r3.Vec{X: 0.5, Y: 0.4, Z: 0.2}, clipped)
}

func TestConcat(t *testing.T) {
	hand := Box3(r3.Vec{X: -0.5, Y: 0.4, Z: 0.05}, r3.Vec{X: 0.5, Y: 1, Z: 0.5})
	obj := Box3(r3.Vec{X: -0.1, Y: 0.6, Z: 0.02}, r3.Vec{X: 0.1, Y: 0.7, Z: 0.02})

	obs := Concat(hand, obj)
	assert.Equal(t, 6, obs.Dim())
	assert.Equal(t, []float64{-0.5, 0.4, 0.05, -0.1, 0.6, 0.02}, obs.Lower())
	assert.Equal(t, []float64{0.5, 1, 0.5, 0.1, 0.7, 0.02}, obs.Upper())
}

func TestDiagonal(t *testing.T) {
	b := Uniform(3, 0, 1)
	assert.InDelta(t, math.Sqrt(3), b.Diagonal(), 1e-12)
}

func TestSampler(t *testing.T) {
	obj := Box3(r3.Vec{X: -0.1, Y: 0.6, Z: 0.02}, r3.Vec{X: 0.1, Y: 0.7, Z: 0.02})

	s := NewSampler(obj, 42)
	for i := 0; i < 200; i++ {
		v := s.Sample()
		require.True(t, obj.Contains(v), "sample %v outside %v", v, obj)
		require.Equal(t, 0.02, v[2])
	}

	a := NewSampler(obj, 7).SampleVec()
	b := NewSampler(obj, 7).SampleVec()
	assert.Equal(t, a, b, "same seed should give the same sample")
}
