package loader

import "github.com/Carmen-Shannon/automation/tools/worker"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers is an option builder that sets the maximum number of decode workers.
//
// Parameters:
//   - n: the worker count, values below 1 are raised to 1
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithTexture is an option builder that registers a file-backed texture at construction.
// Decoding starts when NewLoader returns.
//
// Parameters:
//   - name: the texture name
//   - path: the image file path
//
// Returns:
//   - LoaderBuilderOption: a function that applies the texture option to a loader
func WithTexture(name, path string) LoaderBuilderOption {
	return func(l *loader) {
		l.initial = append(l.initial, pendingTexture{name: name, path: path})
	}
}

// withBackend swaps the decoder. Used by tests.
func withBackend(b loaderBackend) LoaderBuilderOption {
	return func(l *loader) {
		l.backend = b
	}
}

// withPool swaps the worker pool. Used by tests.
func withPool(p worker.DynamicWorkerPool) LoaderBuilderOption {
	return func(l *loader) {
		l.pool = p
	}
}
