package shader

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-materials/engine/camera"
	"github.com/Carmen-Shannon/oxy-materials/engine/light"
	"github.com/Carmen-Shannon/oxy-materials/engine/model"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/material"
)

// registeredStruct is a Go GPU type as WGSL sees it.
type registeredStruct struct {
	Source   string // the struct definition pasted by include
	Type     string // the WGSL type name group declarations use
	Instance bool   // advances once per instance as vertex input
}

var structRegistry = map[AnnotationArg]registeredStruct{
	AnnotationArgCamera:             {Source: camera.GPUCameraUniformSource, Type: "CameraUniform"},
	annotationArgVertex:             {Source: model.GPUVertexSource, Type: "VertexInput"},
	annotationArgMesh2DVertex:       {Source: model.GPUMesh2DVertexSource, Type: "Mesh2DVertexInput"},
	annotationArgModelInstance:      {Source: model.GPUModelInstanceSource, Type: "ModelInstance", Instance: true},
	annotationArgPointLightInstance: {Source: light.GPUPointLightInstanceSource, Type: "PointLightInstance", Instance: true},
	AnnotationArgLight:              {Source: light.GPULightSource, Type: "Light"},
	AnnotationArgPointLight:         {Source: light.GPUPointLightSource, Type: "PointLight"},
	AnnotationArgMaterialParams:     {Source: material.GPUMaterialParamsSource, Type: "MaterialParams"},
	AnnotationArgColor:              {Source: material.GPUColorSource, Type: "ColorUniform"},
}

// instanceTypes are the WGSL names of the per-instance structs.
var instanceTypes = func() map[string]bool {
	out := make(map[string]bool)
	for _, e := range structRegistry {
		if e.Instance {
			out[e.Type] = true
		}
	}
	return out
}()

// PreProcessor expands the @oxy: annotations of a WGSL source.
type PreProcessor interface {
	// Process replaces every annotation line: include with the struct definition (once
	// per struct), group with its @group/@binding declaration, provider with nothing.
	//
	// Parameters:
	//   - source: annotated WGSL
	//
	// Returns:
	//   - string: plain WGSL
	//   - error: the first malformed annotation
	Process(source string) (string, error)

	// Declarations returns the group and provider annotations of the last Process call
	// in source order.
	Declarations() []Annotation
}

type preProcessor struct {
	declarations []Annotation
}

var _ PreProcessor = &preProcessor{}

func NewPreProcessor() PreProcessor {
	return &preProcessor{}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = nil

	var out strings.Builder
	out.Grow(len(source))
	included := make(map[AnnotationArg]bool)
	written := 0

	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}

		text := line
		if a != nil {
			switch a.Type {
			case annotationTypeInclude:
				if included[a.Struct] {
					continue
				}
				included[a.Struct] = true
				text = structRegistry[a.Struct].Source
			case AnnotationTypeBindingGroup:
				text = a.declaration()
				p.declarations = append(p.declarations, *a)
			case AnnotationTypeProvider:
				p.declarations = append(p.declarations, *a)
				continue
			}
		}
		if written > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(text)
		written++
	}
	return out.String(), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
