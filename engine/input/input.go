// Package input accumulates raw window input events between simulation ticks.
//
// Window callbacks push every key, mouse motion and scroll event into an
// Accumulator. Once per tick the simulation drains it into a Frame: the
// summed deltas since the previous drain plus the set of keys currently held.
// Consumers scale the drained deltas by the tick's elapsed time exactly once.
package input

import "sync"

// Frame is the aggregated input for one simulation tick.
type Frame struct {
	// Keys holds every key code that was down at drain time.
	Keys map[uint32]struct{}
	// MouseDX, MouseDY are the summed cursor deltas in pixels.
	MouseDX, MouseDY float32
	// ScrollY is the summed vertical scroll offset.
	ScrollY float32
}

// Held reports whether key was down when the frame was drained.
func (f Frame) Held(key uint32) bool {
	_, ok := f.Keys[key]
	return ok
}

// Empty reports whether the frame carries no keys and no motion.
func (f Frame) Empty() bool {
	return len(f.Keys) == 0 && f.MouseDX == 0 && f.MouseDY == 0 && f.ScrollY == 0
}

// Accumulator collects input events from the window thread.
type Accumulator interface {
	// KeyDown marks a key as held.
	//
	// Parameters:
	//   - key: the key code (see common.Key*)
	KeyDown(key uint32)

	// KeyUp releases a held key.
	//
	// Parameters:
	//   - key: the key code (see common.Key*)
	KeyUp(key uint32)

	// MouseMove adds a cursor delta to the running sum.
	//
	// Parameters:
	//   - dx, dy: cursor movement in pixels since the previous event
	MouseMove(dx, dy float32)

	// Scroll adds a vertical scroll offset to the running sum.
	//
	// Parameters:
	//   - dy: scroll offset reported by the window
	Scroll(dy float32)

	// Drain returns the input accumulated since the previous Drain and resets the sums.
	// Held keys are carried over until released.
	//
	// Returns:
	//   - Frame: the aggregated input
	Drain() Frame

	// Reset clears held keys and sums, used when the window loses focus.
	Reset()
}

type accumulator struct {
	mu *sync.Mutex

	keys    map[uint32]struct{}
	mouseDX float32
	mouseDY float32
	scrollY float32
}

var _ Accumulator = &accumulator{}

// NewAccumulator creates an empty Accumulator.
func NewAccumulator() Accumulator {
	return &accumulator{
		mu:   &sync.Mutex{},
		keys: make(map[uint32]struct{}),
	}
}

func (a *accumulator) KeyDown(key uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys[key] = struct{}{}
}

func (a *accumulator) KeyUp(key uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.keys, key)
}

func (a *accumulator) MouseMove(dx, dy float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mouseDX += dx
	a.mouseDY += dy
}

func (a *accumulator) Scroll(dy float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scrollY += dy
}

func (a *accumulator) Drain() Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make(map[uint32]struct{}, len(a.keys))
	for k := range a.keys {
		keys[k] = struct{}{}
	}
	f := Frame{
		Keys:    keys,
		MouseDX: a.mouseDX,
		MouseDY: a.mouseDY,
		ScrollY: a.scrollY,
	}
	a.mouseDX, a.mouseDY, a.scrollY = 0, 0, 0
	return f
}

func (a *accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.keys)
	a.mouseDX, a.mouseDY, a.scrollY = 0, 0, 0
}
