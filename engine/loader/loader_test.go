package loader

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedBackend blocks every decode until release is closed.
type gatedBackend struct {
	release chan struct{}
	fail    map[string]error
}

func (g *gatedBackend) Decode(src common.TextureSource) (common.TextureStagingData, error) {
	<-g.release
	if err, ok := g.fail[src.Name]; ok {
		return common.TextureStagingData{}, err
	}
	return common.TextureStagingData{Pixels: []byte{1, 2, 3, 4}, Width: 1, Height: 1}, nil
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTextureNotReadyWhileDecoding(t *testing.T) {
	gb := &gatedBackend{release: make(chan struct{})}
	l := NewLoader(withBackend(gb), WithWorkers(2))
	defer l.Close()

	l.Load("diffuse", "textures/container2.png")
	assert.Equal(t, LoadStateLoading, l.State("diffuse"))
	assert.False(t, l.AllLoaded())

	_, err := l.Texture("diffuse")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceNotReady)

	close(gb.release)
	l.Wait()

	assert.Equal(t, LoadStateLoaded, l.State("diffuse"))
	assert.True(t, l.AllLoaded())
	data, err := l.Texture("diffuse")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), data.Width)
}

func TestFailedDecodeIsReported(t *testing.T) {
	boom := errors.New("corrupt image")
	gb := &gatedBackend{release: make(chan struct{}), fail: map[string]error{"bad": boom}}
	close(gb.release)
	l := NewLoader(withBackend(gb))
	defer l.Close()

	l.Load("good", "a.png")
	l.Load("bad", "b.png")
	l.Wait()

	assert.Equal(t, LoadStateLoaded, l.State("good"))
	assert.Equal(t, LoadStateFailed, l.State("bad"))
	assert.False(t, l.AllLoaded())

	_, err := l.Texture("bad")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrResourceNotReady)
}

func TestUnknownTexture(t *testing.T) {
	l := NewLoader()
	defer l.Close()

	assert.True(t, l.AllLoaded())
	assert.Equal(t, LoadStateFailed, l.State("missing"))
	_, err := l.Texture("missing")
	assert.ErrorIs(t, err, ErrTextureNotFound)
}

func TestDecodesRealImages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "container2.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 4, 2), 0o644))

	l := NewLoader(WithTexture("diffuse", path))
	defer l.Close()
	l.LoadBytes("specular", encodePNG(t, 2, 2))
	l.Load("missing", filepath.Join(dir, "nope.png"))
	l.Wait()

	assert.Equal(t, []string{"diffuse", "missing", "specular"}, l.Names())

	diffuse, err := l.Texture("diffuse")
	require.NoError(t, err)
	assert.Equal(t, uint32(4), diffuse.Width)
	assert.Equal(t, uint32(2), diffuse.Height)
	assert.Len(t, diffuse.Pixels, 4*2*4)
	assert.Equal(t, []byte{255, 0, 0, 255}, diffuse.Pixels[:4])

	_, err = l.Texture("missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReloadSupersedesOldResult(t *testing.T) {
	gb := &gatedBackend{release: make(chan struct{})}
	close(gb.release)
	l := NewLoader(withBackend(gb))
	defer l.Close()

	l.Load("diffuse", "a.png")
	l.Wait()
	require.Equal(t, LoadStateLoaded, l.State("diffuse"))

	l.Load("diffuse", "b.png")
	l.Wait()
	assert.Equal(t, LoadStateLoaded, l.State("diffuse"))
	assert.Len(t, l.Names(), 1)
}

func TestLoadAfterClose(t *testing.T) {
	l := NewLoader()
	l.Close()
	l.Load("late", "x.png")
	assert.Equal(t, LoadStateFailed, l.State("late"))
	_, err := l.Texture("late")
	assert.ErrorIs(t, err, ErrLoaderClosed)
}

// stopCountingPool runs tasks inline and counts Stop calls.
type stopCountingPool struct {
	worker.DynamicWorkerPool
	stops int
}

func (p *stopCountingPool) SubmitTask(t worker.Task) { t.Do() }
func (p *stopCountingPool) Stop() { p.stops++ }

func TestCloseStopsPoolOnce(t *testing.T) {
	gb := &gatedBackend{release: make(chan struct{})}
	close(gb.release)
	pool := &stopCountingPool{}
	l := NewLoader(withBackend(gb), withPool(pool))

	l.Load("diffuse", "a.png")
	l.Wait()
	require.Equal(t, LoadStateLoaded, l.State("diffuse"))

	l.Close()
	l.Close()
	assert.Equal(t, 1, pool.stops)
}

func TestLoadStateString(t *testing.T) {
	assert.Equal(t, "loading", LoadStateLoading.String())
	assert.Equal(t, "loaded", LoadStateLoaded.String())
	assert.Equal(t, "failed", LoadStateFailed.String())
}
