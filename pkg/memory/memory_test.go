package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	t.Run("drops the oldest entry when full", func(t *testing.T) {
		m := NewMemory[int](3)
		for i := 1; i <= 5; i++ {
			m.Store(i)
		}
		assert.Equal(t, []int{3, 4, 5}, m.All())
		assert.Equal(t, 3, m.Len())
	})

	t.Run("last returns the most recent entries", func(t *testing.T) {
		m := NewMemory[string](10)
		m.Store("a")
		m.Store("b")
		m.Store("c")
		assert.Equal(t, []string{"b", "c"}, m.Last(2))
		assert.Equal(t, []string{"a", "b", "c"}, m.Last(10))
		assert.Empty(t, m.Last(0))
	})

	t.Run("all returns a copy", func(t *testing.T) {
		m := NewMemory[int](2)
		m.Store(1)
		got := m.All()
		got[0] = 42
		assert.Equal(t, []int{1}, m.All())
	})

	t.Run("clear empties memory", func(t *testing.T) {
		m := NewMemory[int](2)
		m.Store(1)
		m.Clear()
		assert.Zero(t, m.Len())
		m.Store(2)
		assert.Equal(t, []int{2}, m.All())
	})

	t.Run("capacity is at least one", func(t *testing.T) {
		m := NewMemory[int](0)
		m.Store(1)
		m.Store(2)
		assert.Equal(t, []int{2}, m.All())
	})
}

func TestMemoryConcurrentStore(t *testing.T) {
	m := NewMemory[int](50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.Store(i)
				_ = m.Last(5)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.Len())
}
