package loader

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
)

// ErrResourceNotReady is returned while a resource is still being prepared.
// Callers match it with errors.Is and retry on the next frame.
var ErrResourceNotReady = errors.New("resource not ready")

// ErrTextureNotFound is returned for names that were never registered.
var ErrTextureNotFound = errors.New("texture not registered")

// ErrLoaderClosed is returned by loads submitted after Close.
var ErrLoaderClosed = errors.New("loader closed")

// LoadState reports the progress of a registered texture.
type LoadState int

const (
	// LoadStateLoading means the texture is queued or decoding.
	LoadStateLoading LoadState = iota

	// LoadStateLoaded means the pixels are available.
	LoadStateLoaded

	// LoadStateFailed means decoding failed or the name is unknown.
	LoadStateFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadStateLoading:
		return "loading"
	case LoadStateLoaded:
		return "loaded"
	case LoadStateFailed:
		return "failed"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

type textureEntry struct {
	state      LoadState
	data       common.TextureStagingData
	err        error
	generation int
}

type pendingTexture struct {
	name, path string
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu *sync.RWMutex

	textures map[string]*textureEntry
	backend  loaderBackend

	pool     worker.DynamicWorkerPool
	workers  int
	inflight *sync.WaitGroup
	nextID   int
	closed   bool

	initial []pendingTexture
}

// Loader registers textures and decodes them asynchronously on a worker pool.
// Lookups never block: a texture that is still decoding reports ErrResourceNotReady.
type Loader interface {
	// Load registers a file-backed texture and schedules it for decoding. It returns
	// immediately. Loading a name again replaces the previous texture once the new
	// decode finishes; until then the name reports LoadStateLoading.
	//
	// Parameters:
	//   - name: the texture name used for lookups
	//   - path: the image file path
	Load(name, path string)

	// LoadBytes registers an in-memory encoded image and schedules it for decoding.
	//
	// Parameters:
	//   - name: the texture name used for lookups
	//   - data: encoded PNG, JPEG, BMP or WebP bytes
	LoadBytes(name string, data []byte)

	// State returns the load state of a texture. Unknown names report LoadStateFailed.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - LoadState: the current state
	State(name string) LoadState

	// Texture returns the decoded pixels of a texture.
	//
	// Parameters:
	//   - name: the texture name
	//
	// Returns:
	//   - common.TextureStagingData: the RGBA8 pixels when loaded
	//   - error: ErrResourceNotReady while loading, ErrTextureNotFound for unknown
	//     names, or the wrapped decode error when loading failed
	Texture(name string) (common.TextureStagingData, error)

	// AllLoaded reports whether every registered texture is LoadStateLoaded.
	// A loader with no textures reports true.
	//
	// Returns:
	//   - bool: true when nothing is pending or failed
	AllLoaded() bool

	// Names returns the registered texture names in sorted order.
	//
	// Returns:
	//   - []string: the texture names
	Names() []string

	// Wait blocks until every scheduled decode has finished.
	Wait()

	// Close stops accepting work, waits for in-flight decodes and stops the workers.
	// Calling it again is a no-op.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the image decoding backend.
// The worker count defaults to runtime.NumCPU().
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:       &sync.RWMutex{},
		textures: make(map[string]*textureEntry),
		backend:  newImageLoaderBackend(),
		workers:  runtime.NumCPU(),
		inflight: &sync.WaitGroup{},
	}
	for _, option := range options {
		option(l)
	}
	if l.pool == nil {
		l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	}

	for _, p := range l.initial {
		l.Load(p.name, p.path)
	}
	l.initial = nil
	return l
}

func (l *loader) Load(name, path string) {
	l.schedule(common.TextureSource{Name: name, Path: path})
}

func (l *loader) LoadBytes(name string, data []byte) {
	l.schedule(common.TextureSource{Name: name, Data: data})
}

// schedule registers src as loading and submits its decode to the pool.
func (l *loader) schedule(src common.TextureSource) {
	l.mu.Lock()
	if l.closed {
		l.textures[src.Name] = &textureEntry{state: LoadStateFailed, err: ErrLoaderClosed}
		l.mu.Unlock()
		return
	}
	e, ok := l.textures[src.Name]
	if !ok {
		e = &textureEntry{}
		l.textures[src.Name] = e
	}
	e.state = LoadStateLoading
	e.err = nil
	e.generation++
	gen := e.generation
	id := l.nextID
	l.nextID++
	l.inflight.Add(1)
	l.mu.Unlock()

	l.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer l.inflight.Done()
			start := time.Now()
			data, err := l.backend.Decode(src)
			l.publish(src.Name, gen, data, err)
			if err != nil {
				logger.Component("loader").Warn("texture failed to load", "name", src.Name, "path", src.Path, "error", err)
				return nil, err
			}
			logger.Component("loader").Debug("texture loaded",
				"name", src.Name, "width", data.Width, "height", data.Height, "took", time.Since(start))
			return nil, nil
		},
	})
}

// publish stores a decode result unless a newer Load superseded it.
func (l *loader) publish(name string, gen int, data common.TextureStagingData, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.textures[name]
	if !ok || e.generation != gen {
		return
	}
	if err != nil {
		e.state = LoadStateFailed
		e.err = fmt.Errorf("loading texture %q: %w", name, err)
		e.data = common.TextureStagingData{}
		return
	}
	e.state = LoadStateLoaded
	e.data = data
}

func (l *loader) State(name string) LoadState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.textures[name]
	if !ok {
		return LoadStateFailed
	}
	return e.state
}

func (l *loader) Texture(name string) (common.TextureStagingData, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.textures[name]
	if !ok {
		return common.TextureStagingData{}, fmt.Errorf("%w: %q", ErrTextureNotFound, name)
	}
	switch e.state {
	case LoadStateLoading:
		return common.TextureStagingData{}, fmt.Errorf("texture %q: %w", name, ErrResourceNotReady)
	case LoadStateFailed:
		return common.TextureStagingData{}, e.err
	}
	return e.data, nil
}

func (l *loader) AllLoaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.textures {
		if e.state != LoadStateLoaded {
			return false
		}
	}
	return true
}

func (l *loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.textures))
	for name := range l.textures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *loader) Wait() {
	l.inflight.Wait()
}

func (l *loader) Close() {
	l.mu.Lock()
	wasClosed := l.closed
	l.closed = true
	l.mu.Unlock()
	l.inflight.Wait()
	if !wasClosed {
		l.pool.Stop()
	}
}
