package input

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainSumsDeltasAndResets(t *testing.T) {
	acc := NewAccumulator()
	acc.MouseMove(3, -1)
	acc.MouseMove(2, 4)
	acc.Scroll(1)
	acc.Scroll(0.5)

	f := acc.Drain()
	assert.Equal(t, float32(5), f.MouseDX)
	assert.Equal(t, float32(3), f.MouseDY)
	assert.Equal(t, float32(1.5), f.ScrollY)

	next := acc.Drain()
	assert.Zero(t, next.MouseDX)
	assert.Zero(t, next.MouseDY)
	assert.Zero(t, next.ScrollY)
	assert.True(t, next.Empty())
}

func TestHeldKeysPersistAcrossDrains(t *testing.T) {
	acc := NewAccumulator()
	acc.KeyDown(87)
	acc.KeyDown(68)

	f := acc.Drain()
	assert.True(t, f.Held(87))
	assert.True(t, f.Held(68))
	assert.False(t, f.Held(65))

	acc.KeyUp(87)
	f = acc.Drain()
	assert.False(t, f.Held(87))
	assert.True(t, f.Held(68))
	assert.False(t, f.Empty())
}

func TestDrainedKeysAreACopy(t *testing.T) {
	acc := NewAccumulator()
	acc.KeyDown(87)
	f := acc.Drain()

	acc.KeyUp(87)
	assert.True(t, f.Held(87))
}

func TestReset(t *testing.T) {
	acc := NewAccumulator()
	acc.KeyDown(83)
	acc.MouseMove(10, 10)
	acc.Reset()
	assert.True(t, acc.Drain().Empty())
}

func TestConcurrentProducers(t *testing.T) {
	acc := NewAccumulator()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				acc.MouseMove(1, 2)
				acc.Scroll(1)
			}
		}()
	}
	wg.Wait()

	f := acc.Drain()
	require.Equal(t, float32(800), f.MouseDX)
	assert.Equal(t, float32(1600), f.MouseDY)
	assert.Equal(t, float32(800), f.ScrollY)
}
