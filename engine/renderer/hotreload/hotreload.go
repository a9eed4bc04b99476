// Package hotreload rebuilds render pipelines when their WGSL files change on disk.
//
// A Reloader watches the directories of every shader file the registered pipelines were
// built from. Edits are debounced, re-parsed and validated with naga before the rebuilt
// pipeline is swapped in through ReplacePipeline. A broken edit is logged and the old
// pipeline keeps drawing.
package hotreload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/shader"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before it is reloaded. Editors often
// write a file in several steps.
const DefaultDebounce = 100 * time.Millisecond

// errLayoutChanged rejects an edit that adds, removes or retypes a binding or vertex
// attribute. Bind groups already built against the old layout would no longer match.
var errLayoutChanged = errors.New("bind group or vertex layout changed, restart to apply")

// PipelineTarget is the part of the renderer a Reloader swaps pipelines in.
type PipelineTarget interface {
	Pipelines() map[string]pipeline.Pipeline
	ReplacePipeline(p pipeline.Pipeline) error
}

// Reloader watches shader files and swaps rebuilt pipelines into its target.
type Reloader interface {
	// Reload rebuilds every pipeline with a shader loaded from path.
	//
	// Parameters:
	//   - path: the changed shader file
	//
	// Returns:
	//   - int: the number of pipelines swapped
	//   - error: read, parse, validation, layout and replacement failures joined; pipelines that
	//     failed keep their previous version
	Reload(path string) (int, error)

	// Dirs returns the watched directories.
	//
	// Returns:
	//   - []string: absolute directory paths
	Dirs() []string

	// Close stops the watcher goroutine and releases the watcher. Safe to call more than once.
	//
	// Returns:
	//   - error: the watcher close error
	Close() error
}

type reloader struct {
	mu        *sync.Mutex
	target    PipelineTarget
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	validate  func(source string) error
	onReload  func(path string, swapped int, err error)
	dirs      []string
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ Reloader = &reloader{}

// NewReloader starts watching the shader directories of every pipeline registered in target.
// Pipelines registered later are picked up only if their shaders share a watched directory.
//
// Parameters:
//   - target: the renderer, or anything that lists and replaces pipelines
//   - opts: functional options
//
// Returns:
//   - Reloader: the running reloader
//   - error: if the watcher cannot be created or a directory cannot be watched
func NewReloader(target PipelineTarget, opts ...ReloaderBuilderOption) (Reloader, error) {
	r := &reloader{
		mu:       &sync.Mutex{},
		target:   target,
		debounce: DefaultDebounce,
		validate: shader.Validate,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating shader watcher: %w", err)
	}
	r.watcher = w

	seen := make(map[string]bool)
	for _, p := range target.Pipelines() {
		for _, s := range pipelineShaders(p) {
			if s.Path() == "" {
				continue
			}
			dir := filepath.Dir(absPath(s.Path()))
			if seen[dir] {
				continue
			}
			seen[dir] = true
			if err := w.Add(dir); err != nil {
				w.Close()
				return nil, fmt.Errorf("watching %s: %w", dir, err)
			}
			r.dirs = append(r.dirs, dir)
		}
	}

	r.wg.Add(1)
	go r.run()
	logger.Component("hotreload").Info("watching shaders", "dirs", r.dirs)
	return r, nil
}

func (r *reloader) Dirs() []string {
	return append([]string(nil), r.dirs...)
}

func (r *reloader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.done)
		err = r.watcher.Close()
		r.wg.Wait()
	})
	return err
}

func (r *reloader) run() {
	defer r.wg.Done()
	log := logger.Component("hotreload")

	pending := make(map[string]bool)
	var fire <-chan time.Time
	for {
		select {
		case <-r.done:
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending[absPath(event.Name)] = true
			fire = time.After(r.debounce)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			for path := range pending {
				delete(pending, path)
				n, err := r.Reload(path)
				if err != nil {
					log.Warn("shader reload failed, keeping previous pipeline", "path", path, "error", err)
				} else if n > 0 {
					log.Info("shader reloaded", "path", path, "pipelines", n)
				}
				if r.onReload != nil && (n > 0 || err != nil) {
					r.onReload(path, n, err)
				}
			}
		}
	}
}

func (r *reloader) Reload(path string) (int, error) {
	// serialize with the watcher goroutine so two reloads of one pipeline cannot interleave
	r.mu.Lock()
	defer r.mu.Unlock()

	path = absPath(path)
	var source string
	loaded := false
	rebuilt := make(map[string]shader.Shader)
	swapped := 0
	var errs []error

	for key, p := range r.target.Pipelines() {
		var vertex, fragment shader.Shader
		for _, s := range pipelineShaders(p) {
			if s.Path() == "" || absPath(s.Path()) != path {
				continue
			}
			if !loaded {
				data, err := os.ReadFile(path)
				if err != nil {
					return 0, fmt.Errorf("reading %s: %w", path, err)
				}
				source, loaded = string(data), true
			}

			ns, err := r.rebuild(s, path, source, rebuilt)
			if err != nil {
				errs = append(errs, fmt.Errorf("pipeline %q: %w", key, err))
				vertex, fragment = nil, nil
				break
			}
			if s.ShaderType() == shader.ShaderTypeVertex {
				vertex = ns
			} else {
				fragment = ns
			}
		}
		if vertex == nil && fragment == nil {
			continue
		}
		next := p.WithShaders(vertex, fragment)
		if !renderer.SameLayouts(p, next) {
			errs = append(errs, fmt.Errorf("pipeline %q: %w", key, errLayoutChanged))
			continue
		}
		if err := r.target.ReplacePipeline(next); err != nil {
			errs = append(errs, fmt.Errorf("pipeline %q: %w", key, err))
			continue
		}
		swapped++
	}
	return swapped, errors.Join(errs...)
}

// rebuild parses and validates source for s, sharing results between pipelines that use
// the same shader key.
func (r *reloader) rebuild(s shader.Shader, path, source string, cache map[string]shader.Shader) (shader.Shader, error) {
	cacheKey := s.ShaderType().String() + "/" + s.Key()
	if ns, ok := cache[cacheKey]; ok {
		return ns, nil
	}
	ns, err := shader.NewShaderFromSource(s.Key(), s.ShaderType(), path, source)
	if err != nil {
		return nil, err
	}
	if r.validate != nil {
		if err := r.validate(ns.Source()); err != nil {
			return nil, err
		}
	}
	cache[cacheKey] = ns
	return ns, nil
}

func pipelineShaders(p pipeline.Pipeline) []shader.Shader {
	var out []shader.Shader
	for _, t := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		if s := p.Shader(t); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}
