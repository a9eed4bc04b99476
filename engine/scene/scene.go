package scene

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-materials/engine/camera"
	"github.com/Carmen-Shannon/oxy-materials/engine/light"
	"github.com/Carmen-Shannon/oxy-materials/engine/loader"
	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
	"github.com/Carmen-Shannon/oxy-materials/engine/model"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// State is the scene's asset lifecycle state.
type State int

const (
	// StateLoadAssets waits for every registered texture to finish loading. Nothing is drawn.
	StateLoadAssets State = iota

	// StateMain draws every ready item and runs the update callbacks.
	StateMain
)

func (s State) String() string {
	switch s {
	case StateLoadAssets:
		return "load_assets"
	case StateMain:
		return "main"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultMaxLights is the number of lights a storage light array is sized for.
const DefaultMaxLights = 16

// UpdateFunc is called once per tick while the scene is in StateMain.
type UpdateFunc func(s Scene, dt float32)

// GPU is the part of the renderer a scene drives. Satisfied by renderer.Renderer.
type GPU interface {
	material.ResourceInitializer
	Pipeline(key string) pipeline.Pipeline
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error
	WriteInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, count int) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	DrawCall(pipelineKey string, meshProvider, instanceProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error
}

// DrawItem is one mesh drawn with one material. Instance data is set separately with
// Scene.SetInstances; an item without instance data draws a single instance and binds
// no instance buffer.
type DrawItem struct {
	// Name identifies the item for SetInstances. Defaults to "<material>/<model>".
	Name string

	Material material.Material
	Model    model.Model

	// Overlay items are drawn after every other item, ordered by Z ascending.
	Overlay bool
	Z       float32
}

// drawItem is a DrawItem plus the scene's per-item GPU state.
type drawItem struct {
	DrawItem

	instances     bind_group_provider.BindGroupProvider
	instanceData  []byte
	instanceCount int
	dirty         bool
	failed        bool
}

type lightBinding struct {
	binding int
	role    string
	storage bool
}

// lightGroup is the lights bind group created for one pipeline's layout.
type lightGroup struct {
	provider bind_group_provider.BindGroupProvider
	bindings []lightBinding
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name    string
	active  bool
	state   State
	elapsed float32

	cam    camera.Camera
	gpu    GPU
	assets loader.Loader

	lights    []light.Light
	maxLights int

	items     []*drawItem
	itemIndex map[string]*drawItem
	meshReady map[model.Model]bool

	cameraReady   bool
	cameraBinding int
	lightGroups   map[string]*lightGroup
	groupCache    map[pipeline.Pipeline][]shader.AnnotationArg

	updates []UpdateFunc

	// reused every frame
	writePool          []bind_group_provider.BufferWrite
	drawBindGroupsPool []bind_group_provider.BindGroupProvider
	drawOrder          []*drawItem
}

// Scene owns the camera, lights, texture loader and draw items of one view and moves
// them through the asset lifecycle: LoadAssets until every texture is decoded, then
// Main. The tick goroutine calls Update; the render goroutine calls PrepareFrame and
// DrawCalls. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// State returns the asset lifecycle state.
	State() State

	// Elapsed returns the seconds spent in StateMain.
	Elapsed() float32

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Loader returns the texture loader materials resolve their textures from.
	Loader() loader.Loader

	// AddLight adds a light. The first light feeds single light uniforms.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// Lights returns a copy of the scene's lights.
	Lights() []light.Light

	// AddItem adds a mesh and the material it is drawn with. The mesh is uploaded
	// immediately unless another item already uploaded it; the material's bind group is
	// created by Update once its textures are loaded.
	//
	// Parameters:
	//   - item: the draw item
	//
	// Returns:
	//   - error: missing material, model or pipeline, a duplicate name, or a mesh upload failure
	AddItem(item DrawItem) error

	// SetInstances replaces an item's per-instance records. The upload happens in the
	// next PrepareFrame.
	//
	// Parameters:
	//   - name: the item name
	//   - data: marshalled instance records
	//   - count: the number of instances in data
	//
	// Returns:
	//   - error: if no item has the name
	SetInstances(name string, data []byte, count int) error

	// Count returns the number of draw items.
	Count() int

	// OnUpdate registers a callback run by Update in StateMain.
	//
	// Parameters:
	//   - fn: the callback
	OnUpdate(fn UpdateFunc)

	// Update advances the scene by one tick. In StateLoadAssets it waits until no
	// texture is still loading, initializes pending materials and switches to StateMain.
	// In StateMain it retries materials that are still pending, advances Elapsed and
	// runs the update callbacks.
	//
	// Parameters:
	//   - dt: tick duration in seconds
	Update(dt float32)

	// PrepareFrame writes the camera snapshot, light and material uniforms and any
	// changed instance data to the GPU.
	//
	// Returns:
	//   - error: an instance buffer upload failure
	PrepareFrame() error

	// DrawCalls records a draw for every ready item: scene items in insertion order,
	// then overlay items by Z. Draws nothing outside StateMain.
	//
	// Returns:
	//   - error: the first failed draw call
	DrawCalls() error

	// Release frees the scene's GPU resources and closes the loader.
	Release()
}

var _ Scene = &scene{}

// NewScene creates a new Scene drawing through gpu. The camera and gpu are required
// and NewScene panics if either is nil. Without WithLoader the scene creates its own
// loader with default workers.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - gpu: the renderer (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, gpu GPU, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if gpu == nil {
		panic("scene: NewScene requires a non-nil renderer")
	}

	s := &scene{
		mu:                 &sync.RWMutex{},
		name:               name,
		cam:                cam,
		gpu:                gpu,
		maxLights:          DefaultMaxLights,
		itemIndex:          make(map[string]*drawItem),
		meshReady:          make(map[model.Model]bool),
		lightGroups:        make(map[string]*lightGroup),
		groupCache:         make(map[pipeline.Pipeline][]shader.AnnotationArg),
		drawBindGroupsPool: make([]bind_group_provider.BindGroupProvider, 0, 3),
	}
	for _, option := range options {
		option(s)
	}
	if s.assets == nil {
		s.assets = loader.NewLoader()
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *scene) Elapsed() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Loader() loader.Loader {
	return s.assets
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) AddItem(item DrawItem) error {
	if item.Material == nil || item.Model == nil {
		return errors.New("draw item requires a material and a model")
	}
	if item.Name == "" {
		item.Name = item.Material.Name() + "/" + item.Model.Name()
	}
	key := item.Material.PipelineKey()
	if s.gpu.Pipeline(key) == nil {
		return fmt.Errorf("item %q: render pipeline %q not registered", item.Name, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.itemIndex[item.Name]; exists {
		return fmt.Errorf("item %q already added to scene %q", item.Name, s.name)
	}
	if !s.meshReady[item.Model] {
		mdl := item.Model
		if err := s.gpu.InitMeshBuffers(mdl.MeshProvider(), mdl.VertexData(), mdl.VertexCount(), mdl.IndexData(), mdl.IndexCount()); err != nil {
			return fmt.Errorf("item %q: %w", item.Name, err)
		}
		s.meshReady[item.Model] = true
	}

	it := &drawItem{
		DrawItem:      item,
		instanceCount: 1,
	}
	s.items = append(s.items, it)
	s.itemIndex[item.Name] = it
	logger.Component("scene").Debug("item added", "scene", s.name, "item", item.Name, "pipeline", key)
	return nil
}

func (s *scene) SetInstances(name string, data []byte, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.itemIndex[name]
	if !ok {
		return fmt.Errorf("no item %q in scene %q", name, s.name)
	}
	if it.instances == nil {
		it.instances = bind_group_provider.NewBindGroupProvider(name+"_instances", bind_group_provider.WithInstanceCount(count))
	}
	it.instanceData = data
	it.instanceCount = count
	it.dirty = true
	return nil
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *scene) OnUpdate(fn UpdateFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, fn)
}

func (s *scene) Update(dt float32) {
	s.mu.Lock()
	switch s.state {
	case StateLoadAssets:
		if !s.assetsSettled() {
			s.mu.Unlock()
			return
		}
		s.initPending()
		s.state = StateMain
		logger.Component("scene").Info("assets loaded", "scene", s.name, "textures", len(s.assets.Names()))
		s.mu.Unlock()
		return
	case StateMain:
		s.initPending()
		s.elapsed += dt
	}
	updates := slices.Clone(s.updates)
	s.mu.Unlock()

	// callbacks run unlocked so they can call back into the scene
	for _, fn := range updates {
		fn(s, dt)
	}
}

// assetsSettled reports whether no texture is still loading. Failed textures count as
// settled; the materials using them fail to initialize and are not drawn.
func (s *scene) assetsSettled() bool {
	if s.assets.AllLoaded() {
		return true
	}
	for _, name := range s.assets.Names() {
		if s.assets.State(name) == loader.LoadStateLoading {
			return false
		}
	}
	return true
}

// initPending creates the bind groups of every item whose material is not ready yet,
// along with the camera and lights groups its pipeline needs. Caller holds s.mu.
func (s *scene) initPending() {
	log := logger.Component("scene")
	for _, it := range s.items {
		mat := it.Material
		if it.failed || mat.Ready() {
			continue
		}
		p := s.gpu.Pipeline(mat.PipelineKey())
		if p == nil {
			continue
		}
		layout := newPipelineLayout(p)

		if err := s.initShared(p, layout); err != nil {
			log.Error("shared bind group init failed", "scene", s.name, "pipeline", p.PipelineKey(), "error", err)
			it.failed = true
			continue
		}

		err := mat.InitGPU(s.gpu, layout, s.assets)
		switch {
		case err == nil:
			log.Debug("material ready", "scene", s.name, "material", mat.Name())
		case errors.Is(err, loader.ErrResourceNotReady):
			// retried next tick
		default:
			log.Error("material init failed", "scene", s.name, "item", it.Name, "error", err)
			it.failed = true
		}
	}
}

// initShared creates the camera group and this pipeline's lights group if the pipeline
// declares them and they do not exist yet. Caller holds s.mu.
func (s *scene) initShared(p pipeline.Pipeline, layout *pipelineLayout) error {
	for g, desc := range layout.layouts {
		switch renderer.PipelineGroupIdentity(p, g) {
		case shader.AnnotationArgCamera:
			if s.cameraReady {
				continue
			}
			if err := s.gpu.InitBindGroup(s.cam.BindGroupProvider(), desc, nil, nil); err != nil {
				return fmt.Errorf("camera bind group: %w", err)
			}
			s.cameraBinding = 0
			for _, e := range desc.Entries {
				if layout.BindingRole(g, int(e.Binding)) == string(shader.AnnotationArgCamera) {
					s.cameraBinding = int(e.Binding)
				}
			}
			s.cameraReady = true
		case shader.AnnotationArgLights:
			key := p.PipelineKey()
			if _, ok := s.lightGroups[key]; ok {
				continue
			}
			lg := &lightGroup{provider: bind_group_provider.NewBindGroupProvider(key + "_lights")}
			sizeOverrides := make(map[int]uint64)
			for _, e := range desc.Entries {
				if e.Buffer.Type == wgpu.BufferBindingTypeUndefined {
					continue
				}
				lb := lightBinding{
					binding: int(e.Binding),
					role:    layout.BindingRole(g, int(e.Binding)),
					storage: e.Buffer.Type != wgpu.BufferBindingTypeUniform,
				}
				if lb.storage {
					sizeOverrides[lb.binding] = uint64(s.maxLights * lightRecordSize(lb.role))
				}
				lg.bindings = append(lg.bindings, lb)
			}
			if err := s.gpu.InitBindGroup(lg.provider, desc, nil, sizeOverrides); err != nil {
				return fmt.Errorf("lights bind group: %w", err)
			}
			s.lightGroups[key] = lg
		}
	}
	return nil
}

func (s *scene) PrepareFrame() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writes := s.writePool[:0]

	if s.cameraReady {
		u := s.cam.Snapshot().Uniform()
		writes = append(writes, bind_group_provider.Write(s.cam.BindGroupProvider(), s.cameraBinding, u.Marshal()))
	}

	for _, lg := range s.lightGroups {
		for _, lb := range lg.bindings {
			writes = append(writes, bind_group_provider.Write(lg.provider, lb.binding, s.lightData(lb)))
		}
	}

	seen := make(map[material.Material]bool, len(s.items))
	for _, it := range s.items {
		if seen[it.Material] {
			continue
		}
		seen[it.Material] = true
		writes = append(writes, it.Material.BufferWrites()...)
	}

	if len(writes) > 0 {
		s.gpu.WriteBuffers(writes)
	}
	s.writePool = writes[:0]

	for _, it := range s.items {
		if !it.dirty {
			continue
		}
		if err := s.gpu.WriteInstanceBuffer(it.instances, it.instanceData, it.instanceCount); err != nil {
			return fmt.Errorf("item %q instances: %w", it.Name, err)
		}
		it.dirty = false
	}
	return nil
}

// lightData marshals the scene's lights for one binding. Caller holds s.mu.
func (s *scene) lightData(lb lightBinding) []byte {
	pointRole := lb.role == string(shader.AnnotationArgPointLight)

	if lb.storage {
		n := min(len(s.lights), s.maxLights)
		buf := make([]byte, 0, n*lightRecordSize(lb.role))
		for _, l := range s.lights[:n] {
			if pointRole {
				u := l.PointUniform()
				buf = append(buf, u.Marshal()...)
			} else {
				u := l.Uniform()
				buf = append(buf, u.Marshal()...)
			}
		}
		if len(buf) == 0 {
			return make([]byte, lightRecordSize(lb.role))
		}
		return buf
	}

	l := s.primaryLight(pointRole)
	if l == nil {
		return make([]byte, lightRecordSize(lb.role))
	}
	if pointRole {
		u := l.PointUniform()
		return u.Marshal()
	}
	u := l.Uniform()
	return u.Marshal()
}

// primaryLight returns the light feeding single light uniforms: the first point light
// for point light bindings, otherwise the first light.
func (s *scene) primaryLight(point bool) light.Light {
	if point {
		for _, l := range s.lights {
			if l.Type() == light.LightTypePoint {
				return l
			}
		}
	}
	if len(s.lights) == 0 {
		return nil
	}
	return s.lights[0]
}

func lightRecordSize(role string) int {
	if role == string(shader.AnnotationArgPointLight) {
		var p light.GPUPointLight
		return p.Size()
	}
	var l light.GPULight
	return l.Size()
}

func (s *scene) DrawCalls() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateMain {
		return nil
	}

	order := s.drawOrder[:0]
	for _, it := range s.items {
		if !it.Overlay {
			order = append(order, it)
		}
	}
	overlayStart := len(order)
	for _, it := range s.items {
		if it.Overlay {
			order = append(order, it)
		}
	}
	slices.SortStableFunc(order[overlayStart:], func(a, b *drawItem) int {
		switch {
		case a.Z < b.Z:
			return -1
		case a.Z > b.Z:
			return 1
		default:
			return 0
		}
	})
	s.drawOrder = order[:0]

	for _, it := range order {
		if it.failed || it.instanceCount == 0 || !it.Material.Ready() {
			continue
		}
		key := it.Material.PipelineKey()
		p := s.gpu.Pipeline(key)
		if p == nil {
			continue
		}

		bindGroups, ok := s.bindGroupsFor(p, it)
		if !ok {
			continue
		}

		var instanceProvider bind_group_provider.BindGroupProvider
		if it.instances != nil {
			instanceProvider = it.instances
		} else if vs := p.Shader(shader.ShaderTypeVertex); vs != nil && len(vs.VertexLayout(renderer.InstanceSlot)) > 0 {
			// the shader reads instance records nobody has set yet
			continue
		}
		if err := s.gpu.DrawCall(key, it.Model.MeshProvider(), instanceProvider, uint32(it.instanceCount), bindGroups); err != nil {
			return fmt.Errorf("draw call failed for item %q in scene %q: %w", it.Name, s.name, err)
		}
	}
	return nil
}

// bindGroupsFor resolves the provider of every group the pipeline declares, in group
// order so bindGroups[i] maps to @group(i). Caller holds s.mu.
func (s *scene) bindGroupsFor(p pipeline.Pipeline, it *drawItem) ([]bind_group_provider.BindGroupProvider, bool) {
	identities, ok := s.groupCache[p]
	if !ok {
		layouts := renderer.PipelineBindGroupLayouts(p)
		maxGroup := -1
		for g := range layouts {
			maxGroup = max(maxGroup, g)
		}
		identities = make([]shader.AnnotationArg, maxGroup+1)
		for g := range identities {
			identities[g] = renderer.PipelineGroupIdentity(p, g)
		}
		// a hot reloaded pipeline replaces the entry of the one it was built from
		for cached := range s.groupCache {
			if cached.PipelineKey() == p.PipelineKey() {
				delete(s.groupCache, cached)
			}
		}
		s.groupCache[p] = identities
	}

	bindGroups := s.drawBindGroupsPool[:0]
	for _, identity := range identities {
		var provider bind_group_provider.BindGroupProvider
		switch identity {
		case shader.AnnotationArgCamera:
			if s.cameraReady {
				provider = s.cam.BindGroupProvider()
			}
		case shader.AnnotationArgMaterial:
			provider = it.Material.BindGroupProvider()
		case shader.AnnotationArgLights:
			if lg, ok := s.lightGroups[p.PipelineKey()]; ok {
				provider = lg.provider
			}
		}
		if provider == nil {
			return nil, false
		}
		bindGroups = append(bindGroups, provider)
	}
	s.drawBindGroupsPool = bindGroups[:0]
	return bindGroups, true
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	released := make(map[material.Material]bool, len(s.items))
	for _, it := range s.items {
		if it.instances != nil {
			it.instances.Release()
		}
		if !released[it.Material] {
			it.Material.BindGroupProvider().Release()
			released[it.Material] = true
		}
	}
	for mdl := range s.meshReady {
		mdl.MeshProvider().Release()
	}
	for _, lg := range s.lightGroups {
		lg.provider.Release()
	}
	if s.cameraReady {
		s.cam.BindGroupProvider().Release()
	}
	s.assets.Close()
}

// pipelineLayout exposes a pipeline's merged bind group layouts as a
// material.BindingLayout.
type pipelineLayout struct {
	p       pipeline.Pipeline
	layouts map[int]wgpu.BindGroupLayoutDescriptor
}

var _ material.BindingLayout = &pipelineLayout{}

func newPipelineLayout(p pipeline.Pipeline) *pipelineLayout {
	return &pipelineLayout{p: p, layouts: renderer.PipelineBindGroupLayouts(p)}
}

func (l *pipelineLayout) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return l.layouts[group]
}

func (l *pipelineLayout) BindingRole(group, binding int) string {
	return renderer.PipelineBindingRole(l.p, group, binding)
}
