package shader

import (
	"fmt"

	"github.com/gogpu/naga"
)

// Validate compiles processed WGSL to SPIR-V with naga and reports the first error.
// The SPIR-V output is discarded; the GPU driver compiles the WGSL itself.
//
// Parameters:
//   - source: WGSL with all @oxy: annotations already expanded
//
// Returns:
//   - error: the wrapped compiler error, or nil if the source compiles
func Validate(source string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("validating wgsl: %w", err)
	}
	return nil
}
