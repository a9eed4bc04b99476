package scene

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/camera"
	"github.com/Carmen-Shannon/oxy-materials/engine/light"
	"github.com/Carmen-Shannon/oxy-materials/engine/loader"
	"github.com/Carmen-Shannon/oxy-materials/engine/model"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litVS = `//@oxy:include camera
//@oxy:include vertex
//@oxy:include model_instance
//@oxy:group 0 0 storage_uniform camera camera

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) tex_coords: vec2<f32>,
};

@vertex
fn vs_main(vertex: VertexInput, instance: ModelInstance) -> VertexOutput {
    let model = mat4x4<f32>(instance.model_0, instance.model_1, instance.model_2, instance.model_3);
    var out: VertexOutput;
    out.clip_position = camera.proj * camera.view * model * vec4<f32>(vertex.position, 1.0);
    out.tex_coords = vertex.tex_coords;
    return out;
}
`

const litFS = `//@oxy:include material_params
//@oxy:include light
//@oxy:group 1 0 storage_uniform material material_params
//@oxy:provider 1 1 material diffuse_texture
@group(1) @binding(1) var diffuse_texture: texture_2d<f32>;
//@oxy:provider 1 2 material diffuse_sampler
@group(1) @binding(2) var diffuse_sampler: sampler;
//@oxy:group 2 0 storage_uniform light light

@fragment
fn fs_main(@location(0) tex_coords: vec2<f32>) -> @location(0) vec4<f32> {
    return textureSample(diffuse_texture, diffuse_sampler, tex_coords) * light.diffuse * material.specular;
}
`

const flatVS = `//@oxy:include mesh2d_vertex

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
};

@vertex
fn vs_main(vertex: Mesh2DVertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip_position = vec4<f32>(vertex.position, 1.0);
    return out;
}
`

const flatFS = `//@oxy:include color
//@oxy:group 0 0 storage_uniform material color

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return material.color;
}
`

func mustShader(t *testing.T, key string, typ shader.ShaderType, src string) shader.Shader {
	t.Helper()
	s, err := shader.NewShaderFromSource(key, typ, "", src)
	require.NoError(t, err)
	return s
}

type recordedDraw struct {
	key      string
	mesh     string
	instance string
	count    uint32
	groups   []string
}

type fakeGPU struct {
	pipelines      map[string]pipeline.Pipeline
	meshUploads    []string
	bindGroups     []string
	sizeOverrides  map[string]map[int]uint64
	writes         []bind_group_provider.BufferWrite
	instanceWrites map[string]int
	draws          []recordedDraw
	drawErr        error
}

func newFakeGPU(pipelines ...pipeline.Pipeline) *fakeGPU {
	f := &fakeGPU{
		pipelines:      make(map[string]pipeline.Pipeline),
		sizeOverrides:  make(map[string]map[int]uint64),
		instanceWrites: make(map[string]int),
	}
	for _, p := range pipelines {
		f.pipelines[p.PipelineKey()] = p
	}
	return f
}

func (f *fakeGPU) Pipeline(key string) pipeline.Pipeline {
	return f.pipelines[key]
}

func (f *fakeGPU) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, _ []byte, _ int, _ []byte, _ int) error {
	f.meshUploads = append(f.meshUploads, provider.Label())
	return nil
}

func (f *fakeGPU) WriteInstanceBuffer(provider bind_group_provider.BindGroupProvider, _ []byte, count int) error {
	f.instanceWrites[provider.Label()] = count
	return nil
}

func (f *fakeGPU) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

func (f *fakeGPU) DrawCall(key string, mesh, instances bind_group_provider.BindGroupProvider, count uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	if f.drawErr != nil {
		return f.drawErr
	}
	d := recordedDraw{key: key, mesh: mesh.Label(), count: count}
	if instances != nil {
		d.instance = instances.Label()
	}
	for _, bg := range bindGroups {
		d.groups = append(d.groups, bg.Label())
	}
	f.draws = append(f.draws, d)
	return nil
}

func (f *fakeGPU) InitBindGroup(provider bind_group_provider.BindGroupProvider, _ wgpu.BindGroupLayoutDescriptor, _ map[int]wgpu.BufferUsage, sizes map[int]uint64) error {
	f.bindGroups = append(f.bindGroups, provider.Label())
	f.sizeOverrides[provider.Label()] = sizes
	return nil
}

func (f *fakeGPU) InitTextureView(bind_group_provider.BindGroupProvider, int, common.TextureStagingData) error {
	return nil
}

func (f *fakeGPU) InitSampler(bind_group_provider.BindGroupProvider, int, common.SamplerStagingData) error {
	return nil
}

func (f *fakeGPU) writesFor(label string) []bind_group_provider.BufferWrite {
	var out []bind_group_provider.BufferWrite
	for _, w := range f.writes {
		if w.Provider.Label() == label {
			out = append(out, w)
		}
	}
	return out
}

var _ loader.Loader = &fakeLoader{}

// fakeLoader reports fixed states and hands out 1x1 textures for loaded names.
type fakeLoader struct {
	states map[string]loader.LoadState
}

func newFakeLoader(states map[string]loader.LoadState) *fakeLoader {
	return &fakeLoader{states: states}
}

func (f *fakeLoader) Load(name, _ string) {
	f.states[name] = loader.LoadStateLoading
}

func (f *fakeLoader) LoadBytes(name string, _ []byte) {
	f.states[name] = loader.LoadStateLoading
}

func (f *fakeLoader) Wait() {}

func (f *fakeLoader) Close() {}

func (f *fakeLoader) State(name string) loader.LoadState {
	st, ok := f.states[name]
	if !ok {
		return loader.LoadStateFailed
	}
	return st
}

func (f *fakeLoader) Texture(name string) (common.TextureStagingData, error) {
	switch f.State(name) {
	case loader.LoadStateLoaded:
		return common.TextureStagingData{Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1}, nil
	case loader.LoadStateLoading:
		return common.TextureStagingData{}, fmt.Errorf("texture %q: %w", name, loader.ErrResourceNotReady)
	default:
		return common.TextureStagingData{}, fmt.Errorf("texture %q: decode failed", name)
	}
}

func (f *fakeLoader) AllLoaded() bool {
	for _, st := range f.states {
		if st != loader.LoadStateLoaded {
			return false
		}
	}
	return true
}

func (f *fakeLoader) Names() []string {
	names := make([]string, 0, len(f.states))
	for name := range f.states {
		names = append(names, name)
	}
	return names
}

type fixture struct {
	gpu    *fakeGPU
	assets *fakeLoader
	scene  Scene
	lit    material.Material
	cube   model.Model
}

func newFixture(t *testing.T, textureState loader.LoadState) *fixture {
	t.Helper()
	lit := pipeline.NewPipeline("lit",
		pipeline.WithVertexShader(mustShader(t, "lit_vs", shader.ShaderTypeVertex, litVS)),
		pipeline.WithFragmentShader(mustShader(t, "lit_fs", shader.ShaderTypeFragment, litFS)),
	)
	flat := pipeline.NewPipeline("flat", pipeline.With2D(),
		pipeline.WithVertexShader(mustShader(t, "flat_vs", shader.ShaderTypeVertex, flatVS)),
		pipeline.WithFragmentShader(mustShader(t, "flat_fs", shader.ShaderTypeFragment, flatFS)),
	)

	f := &fixture{
		gpu:    newFakeGPU(lit, flat),
		assets: newFakeLoader(map[string]loader.LoadState{"container": textureState}),
		lit: material.NewMaterial(material.KindLit,
			material.WithPipelineKey("lit"),
			material.WithTexture(material.RoleDiffuseTexture, "container"),
		),
		cube: model.NewCube("cube"),
	}
	f.scene = NewScene("test", camera.NewCamera(), f.gpu,
		WithLoader(f.assets),
		WithLights(light.NewLight()),
	)
	return f
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "load_assets", StateLoadAssets.String())
	assert.Equal(t, "main", StateMain.String())
	assert.Equal(t, "State(7)", State(7).String())
}

func TestNewSceneRequiresCameraAndRenderer(t *testing.T) {
	assert.Panics(t, func() { NewScene("x", nil, newFakeGPU()) })
	assert.Panics(t, func() { NewScene("x", camera.NewCamera(), nil) })
}

func TestBuilderOptions(t *testing.T) {
	s := NewScene("opts", camera.NewCamera(), newFakeGPU(),
		WithActive(true),
		WithLoader(newFakeLoader(map[string]loader.LoadState{})),
		WithLights(light.NewLight(), light.NewLight()),
		WithMaxLights(0),
		WithUpdate(func(Scene, float32) {}),
	).(*scene)

	assert.True(t, s.Active())
	assert.Len(t, s.Lights(), 2)
	assert.Equal(t, 1, s.maxLights)
	assert.Len(t, s.updates, 1)
	assert.Equal(t, StateLoadAssets, s.State())
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t, loader.LoadStateLoaded)

	err := f.scene.AddItem(DrawItem{Model: f.cube})
	assert.Error(t, err)

	orphan := material.NewMaterial(material.KindLit, material.WithPipelineKey("missing"))
	err = f.scene.AddItem(DrawItem{Material: orphan, Model: f.cube})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `render pipeline "missing" not registered`)

	require.NoError(t, f.scene.AddItem(DrawItem{Name: "crates", Material: f.lit, Model: f.cube}))
	err = f.scene.AddItem(DrawItem{Name: "crates", Material: f.lit, Model: f.cube})
	assert.ErrorContains(t, err, "already added")

	// a second item sharing the mesh does not upload it again
	require.NoError(t, f.scene.AddItem(DrawItem{Material: f.lit, Model: f.cube}))
	assert.Equal(t, []string{"cube_mesh"}, f.gpu.meshUploads)
	assert.Equal(t, 2, f.scene.Count())

	assert.Error(t, f.scene.SetInstances("nope", nil, 0))
}

func TestLoadAssetsWaitsForTextures(t *testing.T) {
	f := newFixture(t, loader.LoadStateLoading)
	require.NoError(t, f.scene.AddItem(DrawItem{Name: "crates", Material: f.lit, Model: f.cube}))

	f.scene.Update(0.016)
	assert.Equal(t, StateLoadAssets, f.scene.State())
	assert.Empty(t, f.gpu.bindGroups)
	require.NoError(t, f.scene.DrawCalls())
	assert.Empty(t, f.gpu.draws)

	f.assets.states["container"] = loader.LoadStateLoaded
	f.scene.Update(0.016)
	assert.Equal(t, StateMain, f.scene.State())
	assert.True(t, f.lit.Ready())
	camLabel := f.scene.Camera().BindGroupProvider().Label()
	assert.ElementsMatch(t, []string{camLabel, "lit_lights", "lit_material"}, f.gpu.bindGroups)
}

func TestPendingMaterialIsRetriedInMain(t *testing.T) {
	f := newFixture(t, loader.LoadStateLoaded)
	f.scene.Update(0.016)
	require.Equal(t, StateMain, f.scene.State())

	f.assets.states["late_texture"] = loader.LoadStateLoading
	late := material.NewMaterial(material.KindLit,
		material.WithName("late"),
		material.WithPipelineKey("lit"),
		material.WithTexture(material.RoleDiffuseTexture, "late_texture"),
	)
	require.NoError(t, f.scene.AddItem(DrawItem{Material: late, Model: f.cube}))

	f.scene.Update(0.016)
	assert.False(t, late.Ready())

	f.assets.states["late_texture"] = loader.LoadStateLoaded
	f.scene.Update(0.016)
	assert.True(t, late.Ready())
}

func TestFailedTextureDoesNotBlockMain(t *testing.T) {
	f := newFixture(t, loader.LoadStateFailed)
	require.NoError(t, f.scene.AddItem(DrawItem{Name: "crates", Material: f.lit, Model: f.cube}))
	var instances model.Instances
	instances.AddAt(common.Vec3{})
	require.NoError(t, f.scene.SetInstances("crates", instances.Marshal(), len(instances)))

	f.scene.Update(0.016)
	assert.Equal(t, StateMain, f.scene.State())
	assert.False(t, f.lit.Ready())

	require.NoError(t, f.scene.DrawCalls())
	assert.Empty(t, f.gpu.draws)
}

func TestPrepareFrameWritesUniforms(t *testing.T) {
	f := newFixture(t, loader.LoadStateLoaded)
	require.NoError(t, f.scene.AddItem(DrawItem{Name: "crates", Material: f.lit, Model: f.cube}))
	var instances model.Instances
	instances.AddAt(common.Vec3{})
	instances.AddAt(common.Vec3{2, 0, 0})
	require.NoError(t, f.scene.SetInstances("crates", instances.Marshal(), len(instances)))

	f.scene.Update(0.016)
	require.NoError(t, f.scene.PrepareFrame())

	cam := f.scene.Camera().BindGroupProvider().Label()
	camWrites := f.gpu.writesFor(cam)
	require.Len(t, camWrites, 1)
	assert.Len(t, camWrites[0].Data, 144)

	lightWrites := f.gpu.writesFor("lit_lights")
	require.Len(t, lightWrites, 1)
	assert.Len(t, lightWrites[0].Data, 64)

	matWrites := f.gpu.writesFor("lit_material")
	require.Len(t, matWrites, 1)
	assert.Len(t, matWrites[0].Data, 32)

	assert.Equal(t, 2, f.gpu.instanceWrites["crates_instances"])

	// unchanged instances are not uploaded again
	delete(f.gpu.instanceWrites, "crates_instances")
	require.NoError(t, f.scene.PrepareFrame())
	assert.NotContains(t, f.gpu.instanceWrites, "crates_instances")
}

func TestPrepareFrameBeforeInitWritesNothing(t *testing.T) {
	f := newFixture(t, loader.LoadStateLoading)
	require.NoError(t, f.scene.AddItem(DrawItem{Material: f.lit, Model: f.cube}))
	require.NoError(t, f.scene.PrepareFrame())
	assert.Empty(t, f.gpu.writes)
}

func TestLightDataWithoutLights(t *testing.T) {
	s := NewScene("dark", camera.NewCamera(), newFakeGPU(), WithLoader(newFakeLoader(map[string]loader.LoadState{}))).(*scene)

	assert.Len(t, s.lightData(lightBinding{role: "light"}), 64)
	assert.Len(t, s.lightData(lightBinding{role: "point_light"}), 80)
	assert.Len(t, s.lightData(lightBinding{role: "light", storage: true}), 64)
}

func TestLightDataStorageArray(t *testing.T) {
	s := NewScene("lights", camera.NewCamera(), newFakeGPU(),
		WithLoader(newFakeLoader(map[string]loader.LoadState{})),
		WithLights(light.NewLight(), light.NewLight(light.WithType(light.LightTypePoint)), light.NewLight()),
		WithMaxLights(2),
	).(*scene)

	assert.Len(t, s.lightData(lightBinding{role: "light", storage: true}), 2*64)

	// single point uniforms come from the first point light
	point := s.lightData(lightBinding{role: "point_light"})
	want := s.lights[1].PointUniform()
	assert.Equal(t, want.Marshal(), point)
}

func TestDrawCallsBindGroupsInGroupOrder(t *testing.T) {
	f := newFixture(t, loader.LoadStateLoaded)
	require.NoError(t, f.scene.AddItem(DrawItem{Name: "crates", Material: f.lit, Model: f.cube}))

	f.scene.Update(0.016)

	// instanced shader with no instance data yet: skipped
	require.NoError(t, f.scene.DrawCalls())
	assert.Empty(t, f.gpu.draws)

	var instances model.Instances
	for i := range 10 {
		instances.AddAt(common.Vec3{float32(i), 0, 0})
	}
	require.NoError(t, f.scene.SetInstances("crates", instances.Marshal(), len(instances)))
	require.NoError(t, f.scene.PrepareFrame())
	require.NoError(t, f.scene.DrawCalls())

	require.Len(t, f.gpu.draws, 1)
	d := f.gpu.draws[0]
	assert.Equal(t, "lit", d.key)
	assert.Equal(t, "cube_mesh", d.mesh)
	assert.Equal(t, "crates_instances", d.instance)
	assert.Equal(t, uint32(10), d.count)
	require.Len(t, d.groups, 3)
	assert.Equal(t, f.scene.Camera().BindGroupProvider().Label(), d.groups[0])
	assert.Equal(t, "lit_material", d.groups[1])
	assert.Equal(t, "lit_lights", d.groups[2])
}

func TestReloadedPipelineReplacesGroupCacheEntry(t *testing.T) {
	f := newFixture(t, loader.LoadStateLoaded)
	require.NoError(t, f.scene.AddItem(DrawItem{Name: "crates", Material: f.lit, Model: f.cube}))
	require.NoError(t, f.scene.SetInstances("crates", make([]byte, 64), 1))
	f.scene.Update(0.016)
	require.NoError(t, f.scene.DrawCalls())

	cache := f.scene.(*scene).groupCache
	before := f.gpu.pipelines["lit"]
	require.Contains(t, cache, before)

	for range 3 {
		f.gpu.pipelines["lit"] = f.gpu.pipelines["lit"].WithShaders(nil, nil)
		require.NoError(t, f.scene.DrawCalls())
	}

	require.Len(t, cache, 1)
	assert.Contains(t, cache, f.gpu.pipelines["lit"])
	assert.NotContains(t, cache, before)
	require.Len(t, f.gpu.draws, 4)
	assert.Equal(t, f.gpu.draws[0].groups, f.gpu.draws[3].groups)
}

func TestOverlayItemsDrawLastByZ(t *testing.T) {
	f := newFixture(t, loader.LoadStateLoaded)

	newFlat := func(name string) material.Material {
		return material.NewMaterial(material.KindMesh2D,
			material.WithName(name),
			material.WithPipelineKey("flat"),
			material.WithGroup(0),
		)
	}
	front := model.NewQuad2D("front", 0, 0, 0.5, 0.5, 0.9, model.PackColor(1, 0, 0, 1)).Model()
	back := model.NewQuad2D("back", 0, 0, 0.5, 0.5, 0.1, model.PackColor(0, 0, 1, 1)).Model()

	require.NoError(t, f.scene.AddItem(DrawItem{Name: "front", Material: newFlat("front"), Model: front, Overlay: true, Z: 0.9}))
	require.NoError(t, f.scene.AddItem(DrawItem{Name: "crates", Material: f.lit, Model: f.cube}))
	require.NoError(t, f.scene.AddItem(DrawItem{Name: "back", Material: newFlat("back"), Model: back, Overlay: true, Z: 0.1}))
	require.NoError(t, f.scene.SetInstances("crates", make([]byte, 64), 1))

	f.scene.Update(0.016)
	require.NoError(t, f.scene.DrawCalls())

	require.Len(t, f.gpu.draws, 3)
	assert.Equal(t, "lit", f.gpu.draws[0].key)
	assert.Equal(t, "back_mesh", f.gpu.draws[1].mesh)
	assert.Equal(t, "front_mesh", f.gpu.draws[2].mesh)

	// non-instanced overlay: one instance, no instance buffer, material at group 0
	assert.Equal(t, uint32(1), f.gpu.draws[1].count)
	assert.Empty(t, f.gpu.draws[1].instance)
	assert.Equal(t, []string{"back_material"}, f.gpu.draws[1].groups)
}

func TestDrawCallErrorIsWrapped(t *testing.T) {
	f := newFixture(t, loader.LoadStateLoaded)
	require.NoError(t, f.scene.AddItem(DrawItem{Name: "crates", Material: f.lit, Model: f.cube}))
	require.NoError(t, f.scene.SetInstances("crates", make([]byte, 64), 1))
	f.scene.Update(0.016)

	boom := errors.New("boom")
	f.gpu.drawErr = boom
	err := f.scene.DrawCalls()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `item "crates"`)
}

func TestUpdateCallbacksRunInMain(t *testing.T) {
	f := newFixture(t, loader.LoadStateLoading)

	var calls int
	var lastElapsed float32
	f.scene.OnUpdate(func(s Scene, dt float32) {
		calls++
		lastElapsed = s.Elapsed()
		for _, l := range s.Lights() {
			l.MoveLight(s.Elapsed())
		}
	})

	f.scene.Update(0.5)
	assert.Zero(t, calls)

	f.assets.states["container"] = loader.LoadStateLoaded
	f.scene.Update(0.5) // switches state, no callbacks yet
	assert.Zero(t, calls)

	f.scene.Update(0.25)
	f.scene.Update(0.25)
	assert.Equal(t, 2, calls)
	assert.InDelta(t, 0.5, lastElapsed, 1e-6)
	assert.InDelta(t, 0.479426, f.scene.Lights()[0].Position()[0], 1e-5)
}
