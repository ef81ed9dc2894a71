package gpucontext

import (
	"fmt"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

// classifyAcquireError is exercised directly with wrapped sentinel errors,
// the same errors.Is shape AcquireNextTexture sees from wgpu.Surface's
// GetCurrentTexture in the Lost/Outdated/Timeout/OutOfMemory scenarios.
func TestClassifyAcquireErrorMapsKnownSentinels(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want AcquireResult
	}{
		{"lost", fmt.Errorf("acquire: %w", wgpu.ErrSurfaceLost), AcquireLost},
		{"outdated", fmt.Errorf("acquire: %w", wgpu.ErrSurfaceOutdated), AcquireOutdated},
		{"timeout", fmt.Errorf("acquire: %w", wgpu.ErrSurfaceTimeout), AcquireTimeout},
		{"out of memory", fmt.Errorf("acquire: %w", wgpu.ErrOutOfMemory), AcquireOutOfMemory},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, classifyAcquireError(c.err))
		})
	}
}

func TestClassifyAcquireErrorFallsBackToOtherError(t *testing.T) {
	assert.Equal(t, AcquireOtherError, classifyAcquireError(fmt.Errorf("device lost unexpectedly")))
}
