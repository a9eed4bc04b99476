package hotreload

import "time"

// ReloaderBuilderOption configures a Reloader.
type ReloaderBuilderOption func(*reloader)

// WithDebounce sets how long a file must stay unchanged before it is reloaded.
// Values <= 0 keep DefaultDebounce.
//
// Parameters:
//   - d: the quiet period
//
// Returns:
//   - ReloaderBuilderOption: option function to apply
func WithDebounce(d time.Duration) ReloaderBuilderOption {
	return func(r *reloader) {
		if d > 0 {
			r.debounce = d
		}
	}
}

// WithValidator replaces the naga validation step. A nil validator disables validation
// and leaves error reporting to the GPU driver.
//
// Parameters:
//   - validate: called with the pre-processed WGSL
//
// Returns:
//   - ReloaderBuilderOption: option function to apply
func WithValidator(validate func(source string) error) ReloaderBuilderOption {
	return func(r *reloader) {
		r.validate = validate
	}
}

// WithOnReload registers a callback run on the watcher goroutine after each debounced
// reload that touched a pipeline or failed.
//
// Parameters:
//   - fn: receives the file, the number of swapped pipelines and the joined error
//
// Returns:
//   - ReloaderBuilderOption: option function to apply
func WithOnReload(fn func(path string, swapped int, err error)) ReloaderBuilderOption {
	return func(r *reloader) {
		r.onReload = fn
	}
}
