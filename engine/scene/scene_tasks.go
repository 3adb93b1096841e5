package scene

import (
	"context"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/loader"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
)

// Pipeline keys.
const (
	PipelineColor          = "color"
	PipelineColorInstanced = "color_instanced"
	PipelineTextured       = "textured"
	PipelineLit            = "lit"
	PipelineSkybox         = "skybox"
)

// Task names that are not derived from a pipeline, texture or drawable.
const (
	samplerTask = "sampler"
	lightsTask  = "lights"
)

func pipelineTask(key string) string  { return "pipeline/" + key }
func textureTask(path string) string  { return "texture/" + path }
func drawableTask(name string) string { return "drawable/" + name }

// pipelineSpec names the shader pair and fixed-function state of one pipeline.
type pipelineSpec struct {
	key      string
	vertex   string
	fragment string
	options  []pipeline.PipelineBuilderOption
}

var pipelineSpecs = []pipelineSpec{
	{key: PipelineColor, vertex: "color.vert.wgsl", fragment: "color.frag.wgsl"},
	{key: PipelineColorInstanced, vertex: "color_instanced.vert.wgsl", fragment: "color.frag.wgsl"},
	{key: PipelineTextured, vertex: "textured.vert.wgsl", fragment: "textured.frag.wgsl"},
	{key: PipelineLit, vertex: "lit.vert.wgsl", fragment: "lit.frag.wgsl"},
	// Drawn first without touching depth, so everything after it lands in front.
	{key: PipelineSkybox, vertex: "skybox.vert.wgsl", fragment: "skybox.frag.wgsl", options: []pipeline.PipelineBuilderOption{
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithDepthWriteEnabled(false),
	}},
}

// meshSpec is a procedural drawable.
type meshSpec struct {
	name         string
	pipeline     string
	mesh         colorMesh
	constantsKey string
	constants    uint64
	instances    uint32
}

var meshSpecs = []meshSpec{
	{name: DrawableCube, pipeline: PipelineColor, mesh: cubeMesh, constantsKey: "constants", constants: model.GPUConstantsSize, instances: 1},
	{name: DrawablePyramid, pipeline: PipelineColorInstanced, mesh: pyramidMesh, constantsKey: "instanced_constants", constants: model.GPUInstancedConstantsSize, instances: model.NumPyramidInstances},
}

// modelSpec is a textured drawable loaded from an OBJ file.
type modelSpec struct {
	name     string
	pipeline string
	mesh     string
	texture  string
	lit      bool
}

var modelSpecs = []modelSpec{
	{name: DrawableSkybox, pipeline: PipelineSkybox, mesh: "SkyboxCube.obj", texture: "OutputCube.dds"},
	{name: DrawableAlienTree, pipeline: PipelineTextured, mesh: "Alientree.obj", texture: "AlienTree.dds"},
	{name: DrawableWaterTower, pipeline: PipelineTextured, mesh: "WaterTower.obj", texture: "watertower_diffuse.dds"},
	{name: DrawableFloor, pipeline: PipelineLit, mesh: "FloorPlane.obj", texture: "grass_seamless.dds", lit: true},
}

// sceneSampler filters linearly, wraps U and V and clamps W.
var sceneSampler = common.SamplerStagingData{
	AddressModeU: common.AddressModeRepeat,
	AddressModeV: common.AddressModeRepeat,
	AddressModeW: common.AddressModeClampToEdge,
	MagFilter:    common.FilterModeLinear,
	MinFilter:    common.FilterModeLinear,
	MipmapFilter: common.FilterModeLinear,
}

// tasks builds the load graph of one device generation.
//
// Parameters:
//   - gen: the generation the tasks belong to
//
// Returns:
//   - []resource.Task: every task, roots first
func (s *scene) tasks(gen uint64) []resource.Task {
	var tasks []resource.Task
	for _, spec := range pipelineSpecs {
		tasks = append(tasks, s.pipelineTask(gen, spec))
	}
	tasks = append(tasks, s.samplerTask(gen), s.lightsTask(gen))

	var textures []string
	for _, spec := range modelSpecs {
		if !slices.Contains(textures, spec.texture) {
			textures = append(textures, spec.texture)
			tasks = append(tasks, s.textureTask(gen, spec.texture))
		}
	}
	for _, spec := range meshSpecs {
		tasks = append(tasks, s.meshTask(gen, spec))
	}
	for _, spec := range modelSpecs {
		tasks = append(tasks, s.modelTask(gen, spec))
	}
	return tasks
}

// guard runs fn only while gen is still the live device generation. Release waits for every guarded run to return.
func (s *scene) guard(gen uint64, name string, fn func(ctx context.Context, deps resource.Results) (any, error)) func(context.Context, resource.Results) (any, error) {
	return func(ctx context.Context, deps resource.Results) (any, error) {
		s.life.RLock()
		defer s.life.RUnlock()
		if s.generation != gen {
			return nil, fmt.Errorf("%s: %w", name, ErrReleased)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn(ctx, deps)
	}
}

func (s *scene) pipelineTask(gen uint64, spec pipelineSpec) resource.Task {
	name := pipelineTask(spec.key)
	return resource.Task{
		Name: name,
		Run: s.guard(gen, name, func(_ context.Context, _ resource.Results) (any, error) {
			if p := s.renderer.Pipeline(spec.key); p != nil {
				return p, nil
			}
			vs, err := s.loadShader(spec.vertex, shader.StageVertex)
			if err != nil {
				return nil, err
			}
			fs, err := s.loadShader(spec.fragment, shader.StageFragment)
			if err != nil {
				return nil, err
			}
			opts := append([]pipeline.PipelineBuilderOption{pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs)}, spec.options...)
			p, err := pipeline.NewPipeline(spec.key, opts...)
			if err != nil {
				return nil, err
			}
			if err := s.renderer.RegisterPipelines(p); err != nil {
				return nil, err
			}
			return s.renderer.Pipeline(spec.key), nil
		}),
	}
}

// loadShader reads and reflects one WGSL file from the shader store.
func (s *scene) loadShader(file string, stage shader.Stage) (shader.Shader, error) {
	src, err := s.shaders.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", file, err)
	}
	return shader.NewShader(file, stage, string(src), shader.WithPreProcessor(s.preProcessor))
}

func (s *scene) samplerTask(gen uint64) resource.Task {
	return resource.Task{
		Name: samplerTask,
		Run: s.guard(gen, samplerTask, func(_ context.Context, _ resource.Results) (any, error) {
			smp, err := s.renderer.InitSampler("linear wrap", sceneSampler)
			if err != nil {
				return nil, err
			}
			s.own(smp)
			return smp, nil
		}),
	}
}

func (s *scene) lightsTask(gen uint64) resource.Task {
	return resource.Task{
		Name: lightsTask,
		Run: s.guard(gen, lightsTask, func(_ context.Context, _ resource.Results) (any, error) {
			buf, err := s.renderer.InitUniform("light properties", light.GPULightPropertiesSize)
			if err != nil {
				return nil, err
			}
			s.own(buf)
			s.mu.Lock()
			s.lightBuffer = buf
			s.mu.Unlock()
			return buf, nil
		}),
	}
}

func (s *scene) textureTask(gen uint64, path string) resource.Task {
	name := textureTask(path)
	return resource.Task{
		Name: name,
		Run: s.guard(gen, name, func(_ context.Context, _ resource.Results) (any, error) {
			data, err := s.assets.Texture(path)
			if err != nil {
				return nil, err
			}
			tex, err := s.renderer.InitTexture(path, data)
			if err != nil {
				return nil, err
			}
			s.own(tex)
			return tex, nil
		}),
	}
}

func (s *scene) meshTask(gen uint64, spec meshSpec) resource.Task {
	name := drawableTask(spec.name)
	return resource.Task{
		Name: name,
		Deps: []string{pipelineTask(spec.pipeline)},
		Run: s.guard(gen, name, func(_ context.Context, deps resource.Results) (any, error) {
			p, err := resource.ResultAs[pipeline.Pipeline](deps, pipelineTask(spec.pipeline))
			if err != nil {
				return nil, err
			}
			if err := checkStride(p, model.GPUColorVertexSize); err != nil {
				return nil, err
			}

			d := s.drawables[spec.name]
			mesh, err := s.renderer.InitMesh(spec.name, spec.mesh.vertexBytes(), spec.mesh.indexBytes(), spec.mesh.indexCount())
			if err != nil {
				return nil, err
			}
			if err := s.bindConstants(d, p, spec.constantsKey, spec.constants); err != nil {
				mesh.Release()
				return nil, err
			}
			d.SetPipeline(p)
			d.SetMesh(mesh)
			return d, nil
		}),
	}
}

func (s *scene) modelTask(gen uint64, spec modelSpec) resource.Task {
	name := drawableTask(spec.name)
	deps := []string{pipelineTask(spec.pipeline), textureTask(spec.texture), samplerTask}
	if spec.lit {
		deps = append(deps, lightsTask)
	}
	return resource.Task{
		Name: name,
		Deps: deps,
		Run: s.guard(gen, name, func(_ context.Context, deps resource.Results) (any, error) {
			p, err := resource.ResultAs[pipeline.Pipeline](deps, pipelineTask(spec.pipeline))
			if err != nil {
				return nil, err
			}
			tex, err := resource.ResultAs[renderer.Texture](deps, textureTask(spec.texture))
			if err != nil {
				return nil, err
			}
			smp, err := resource.ResultAs[renderer.Sampler](deps, samplerTask)
			if err != nil {
				return nil, err
			}
			if err := checkStride(p, loader.VertexStride); err != nil {
				return nil, err
			}

			g, err := s.loader.Load(spec.mesh)
			if err != nil {
				return nil, err
			}
			d := s.drawables[spec.name]
			mesh, err := s.renderer.InitMesh(spec.name, g.VertexBytes(), g.IndexBytes(), g.IndexCount())
			if err != nil {
				return nil, err
			}
			if err := s.bindModel(d, p, tex, smp, spec.lit, deps); err != nil {
				mesh.Release()
				return nil, err
			}
			s.disown(tex)
			d.AddTexture(tex)
			d.SetPipeline(p)
			d.SetMesh(mesh)
			return d, nil
		}),
	}
}

// bindModel creates the constant, texture and optional light bind groups of a loaded model.
func (s *scene) bindModel(d model.Drawable, p pipeline.Pipeline, tex renderer.Texture, smp renderer.Sampler, lit bool, deps resource.Results) error {
	if err := s.bindConstants(d, p, "constants", model.GPUConstantsSize); err != nil {
		return err
	}

	texAt, ok := provider(p, shader.BindingRoleDiffuseTexture)
	if !ok {
		return fmt.Errorf("pipeline %s has no %s binding", p.Key(), shader.BindingRoleDiffuseTexture)
	}
	smpAt, ok := provider(p, shader.BindingRoleDiffuseSampler)
	if !ok {
		return fmt.Errorf("pipeline %s has no %s binding", p.Key(), shader.BindingRoleDiffuseSampler)
	}
	if texAt.Group != smpAt.Group {
		return fmt.Errorf("pipeline %s: texture and sampler in different groups", p.Key())
	}
	bg, err := s.renderer.InitBindGroup(p.Key(), texAt.Group,
		renderer.BindGroupEntry{Binding: texAt.Binding, Texture: tex},
		renderer.BindGroupEntry{Binding: smpAt.Binding, Sampler: smp},
	)
	if err != nil {
		return err
	}
	d.SetBindGroup(texAt.Group, bg)

	if !lit {
		return nil
	}
	lights, err := resource.ResultAs[renderer.Buffer](deps, lightsTask)
	if err != nil {
		return err
	}
	at, ok := groupAnnotation(p, "light_properties")
	if !ok {
		return fmt.Errorf("pipeline %s does not bind light_properties", p.Key())
	}
	lbg, err := s.renderer.InitBindGroup(p.Key(), at.Group, renderer.BindGroupEntry{Binding: at.Binding, Buffer: lights})
	if err != nil {
		return err
	}
	d.SetBindGroup(at.Group, lbg)
	return nil
}

// bindConstants creates the drawable's constant buffer and the bind group holding it.
func (s *scene) bindConstants(d model.Drawable, p pipeline.Pipeline, key string, size uint64) error {
	at, ok := groupAnnotation(p, key)
	if !ok {
		return fmt.Errorf("pipeline %s does not bind %s", p.Key(), key)
	}
	cb, err := s.renderer.InitUniform(d.Name()+" constants", size)
	if err != nil {
		return err
	}
	bg, err := s.renderer.InitBindGroup(p.Key(), at.Group, renderer.BindGroupEntry{Binding: at.Binding, Buffer: cb})
	if err != nil {
		cb.Release()
		return err
	}
	d.SetConstantBuffer(cb)
	d.SetBindGroup(at.Group, bg)
	return nil
}

// groupAnnotation finds the group annotation that binds a registry key in either stage of p.
func groupAnnotation(p pipeline.Pipeline, key string) (shader.Annotation, bool) {
	for _, stage := range []shader.Stage{shader.StageVertex, shader.StageFragment} {
		for _, a := range p.Shader(stage).Declarations() {
			if a.Type == shader.AnnotationTypeGroup && a.Key == key {
				return a, true
			}
		}
	}
	return shader.Annotation{}, false
}

// provider finds the fragment binding tagged with a role.
func provider(p pipeline.Pipeline, role shader.BindingRole) (shader.Annotation, bool) {
	for _, a := range p.Shader(shader.StageFragment).Declarations() {
		if a.Type == shader.AnnotationTypeProvider && a.Role == role {
			return a, true
		}
	}
	return shader.Annotation{}, false
}

// checkStride fails when the pipeline's reflected vertex input does not match the mesh vertex size.
func checkStride(p pipeline.Pipeline, stride uint64) error {
	layout, ok := p.VertexLayout()
	if !ok {
		return fmt.Errorf("pipeline %s has no vertex input", p.Key())
	}
	if layout.Stride != stride {
		return fmt.Errorf("pipeline %s expects %d byte vertices, mesh has %d", p.Key(), layout.Stride, stride)
	}
	return nil
}
