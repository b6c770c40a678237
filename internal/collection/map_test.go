package collection

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncMap(t *testing.T) {
	m := NewSyncMap[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, m.Len())

	sum := 0
	m.Range(func(key string, value int) bool {
		sum += value
		return true
	})
	assert.Equal(t, 3, sum)

	m.Delete("a")
	_, ok = m.Get("a")
	assert.False(t, ok)
	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestSyncMap_TakeOnce(t *testing.T) {
	m := NewSyncMap[string, bool]()
	m.Put("refresh", true)
	var winners atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := m.Take("refresh"); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, winners.Load())
}
