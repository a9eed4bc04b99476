package window

// WindowBuilderOption configures a window before the platform window is created.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the title bar text.
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithWidth sets the requested client width. The stored width is replaced by the
// framebuffer width once the window exists.
//
// Parameters:
//   - width: width in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithWidth(width int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width = width
	}
}

// WithHeight sets the requested client height.
//
// Parameters:
//   - height: height in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithHeight(height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.height = height
	}
}

// WithSizeLimits bounds interactive resizing. A zero or negative value leaves that side
// unbounded.
//
// Parameters:
//   - minWidth, minHeight: the smallest client size
//   - maxWidth, maxHeight: the largest client size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.limits = sizeLimits{minWidth, minHeight, maxWidth, maxHeight}
	}
}

// WithResizable allows or forbids resizing the window by dragging its border.
func WithResizable(resizable bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.resizable = resizable
	}
}

// WithCursorCaptured hides the cursor and locks it to the window once it is created,
// which mouse-look needs to rotate past the screen edges.
//
// Parameters:
//   - captured: true to capture the cursor
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithCursorCaptured(captured bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.cursorCaptured = captured
	}
}

// WithCloseKey sets the key that closes the window. The key is not forwarded to the key
// callbacks. 0 disables closing from the keyboard.
func WithCloseKey(key uint32) WindowBuilderOption {
	return func(w *engineWindow) {
		w.closeKey = key
	}
}
