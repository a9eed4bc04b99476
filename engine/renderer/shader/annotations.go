// Annotations are WGSL line comments of the form //@oxy:<directive> <args...>. They let a
// shader pull in the Go-side struct layouts and declare which scene resource owns each
// bind group without writing the @group/@binding plumbing by hand.
//
//	//@oxy:include <struct>
//	//@oxy:group <group> <binding> <space> <var> <struct | array<struct>>
//	//@oxy:provider <group> <binding> <identity> [role]
package shader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/material"
)

const annotationPrefix = "@oxy:"

// AnnotationType is the directive following @oxy:.
type AnnotationType string

const (
	// annotationTypeInclude pastes a registered struct definition. It is consumed by the
	// pre-processor and never reaches the declarations list.
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup emits a @group/@binding variable of a registered struct.
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider names the owner and role of a hand-written binding such as
	// a texture or sampler. It emits nothing.
	AnnotationTypeProvider AnnotationType = "provider"
)

// AnnotationArg is a struct key, address space or provider identity.
type AnnotationArg string

// Struct keys. Each has a Go GPU type with an embedded .wgsl definition.
const (
	AnnotationArgCamera             AnnotationArg = "camera"
	annotationArgVertex             AnnotationArg = "vertex"
	annotationArgMesh2DVertex       AnnotationArg = "mesh2d_vertex"
	annotationArgModelInstance      AnnotationArg = "model_instance"
	annotationArgPointLightInstance AnnotationArg = "point_light_instance"
	AnnotationArgLight              AnnotationArg = "light"
	AnnotationArgPointLight         AnnotationArg = "point_light"
	AnnotationArgMaterialParams     AnnotationArg = material.RoleMaterialParams
	AnnotationArgColor              AnnotationArg = material.RoleColor
)

// Address spaces and the var<> they expand to.
const (
	annotationArgStorageTypeUniform   AnnotationArg = "storage_uniform"
	annotationArgStorageTypeRead      AnnotationArg = "storage_read"
	annotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

var addressSpaces = map[AnnotationArg]string{
	annotationArgStorageTypeUniform:   "var<uniform>",
	annotationArgStorageTypeRead:      "var<storage, read>",
	annotationArgStorageTypeReadWrite: "var<storage, read_write>",
}

// Provider identities. The scene fills a group from the provider that owns it.
const (
	AnnotationArgMaterial AnnotationArg = "material"
	AnnotationArgLights   AnnotationArg = "lights"
)

var providerIdentities = map[AnnotationArg]bool{
	AnnotationArgCamera:   true,
	AnnotationArgMaterial: true,
	AnnotationArgLights:   true,
}

// structOwners maps the struct keys a group may hold to the provider that writes them.
// Vertex and instance structs have no owner.
var structOwners = map[AnnotationArg]AnnotationArg{
	AnnotationArgCamera:         AnnotationArgCamera,
	AnnotationArgLight:          AnnotationArgLights,
	AnnotationArgPointLight:     AnnotationArgLights,
	AnnotationArgMaterialParams: AnnotationArgMaterial,
	AnnotationArgColor:          AnnotationArgMaterial,
}

// validBindingRoles holds every texture role of material.TextureRoles and its sampler.
var validBindingRoles = func() map[AnnotationArg]bool {
	roles := make(map[AnnotationArg]bool, 2*len(material.TextureRoles))
	for tex, smp := range material.TextureRoles {
		roles[AnnotationArg(tex)] = true
		roles[AnnotationArg(smp)] = true
	}
	return roles
}()

// Annotation is one parsed directive.
type Annotation struct {
	Type AnnotationType
	Line int

	// Group and Binding are -1 for includes.
	Group   int
	Binding int

	// include and group
	Struct AnnotationArg
	Array  bool

	// group
	Space AnnotationArg
	Var   string

	// provider; BindingRole may be empty
	Provider    AnnotationArg
	BindingRole string
}

// Identity returns the provider owning the annotation's group, or "" when nothing does.
func (a Annotation) Identity() AnnotationArg {
	switch a.Type {
	case AnnotationTypeProvider:
		return a.Provider
	case AnnotationTypeBindingGroup:
		return structOwners[a.Struct]
	}
	return ""
}

// Role returns what the binding holds: the declared role of a provider annotation, or
// the struct key of a group annotation.
func (a Annotation) Role() string {
	switch a.Type {
	case AnnotationTypeProvider:
		return a.BindingRole
	case AnnotationTypeBindingGroup:
		return string(a.Struct)
	}
	return ""
}

// StructType returns the struct key of an include or group annotation, array<> unwrapped.
func (a Annotation) StructType() AnnotationArg {
	return a.Struct
}

// declaration renders a group annotation as WGSL.
func (a Annotation) declaration() string {
	typ := structRegistry[a.Struct].Type
	if a.Array {
		typ = "array<" + typ + ">"
	}
	return fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", a.Group, a.Binding, addressSpaces[a.Space], a.Var, typ)
}

type directive struct {
	minArgs, maxArgs int
	usage            string
	parse            func(a *Annotation, args []string) error
}

var directives = map[AnnotationType]directive{
	annotationTypeInclude: {1, 1, "<struct>", func(a *Annotation, args []string) error {
		a.Group, a.Binding = -1, -1
		return a.setStruct(args[0])
	}},
	AnnotationTypeBindingGroup: {5, 5, "<group> <binding> <space> <var> <struct>", func(a *Annotation, args []string) error {
		if err := a.setSlot(args[0], args[1]); err != nil {
			return err
		}
		a.Space = AnnotationArg(args[2])
		if _, ok := addressSpaces[a.Space]; !ok {
			return fmt.Errorf("unknown address space %q", args[2])
		}
		a.Var = args[3]
		return a.setStruct(args[4])
	}},
	AnnotationTypeProvider: {3, 4, "<group> <binding> <identity> [role]", func(a *Annotation, args []string) error {
		if err := a.setSlot(args[0], args[1]); err != nil {
			return err
		}
		a.Provider = AnnotationArg(args[2])
		if !providerIdentities[a.Provider] {
			return fmt.Errorf("unknown provider identity %q", args[2])
		}
		if len(args) == 4 {
			if !validBindingRoles[AnnotationArg(args[3])] {
				return fmt.Errorf("unknown binding role %q", args[3])
			}
			a.BindingRole = args[3]
		}
		return nil
	}},
}

func (a *Annotation) setStruct(arg string) error {
	key, array := arg, false
	if inner, ok := strings.CutPrefix(arg, "array<"); ok {
		key, array = strings.TrimSuffix(inner, ">"), true
	}
	if _, ok := structRegistry[AnnotationArg(key)]; !ok {
		return fmt.Errorf("unknown struct type %q", key)
	}
	a.Struct, a.Array = AnnotationArg(key), array
	return nil
}

func (a *Annotation) setSlot(group, binding string) error {
	var err error
	if a.Group, err = strconv.Atoi(group); err != nil || a.Group < 0 {
		return fmt.Errorf("invalid group %q", group)
	}
	if a.Binding, err = strconv.Atoi(binding); err != nil || a.Binding < 0 {
		return fmt.Errorf("invalid binding %q", binding)
	}
	return nil
}

// parseAnnotation parses line as an annotation. Lines that are not a comment carrying
// the @oxy: prefix yield nil and no error.
//
// Parameters:
//   - line: one line of WGSL
//   - lineNum: its 1-based number, used in errors
//
// Returns:
//   - *Annotation: the annotation, or nil
//   - error: the malformed annotation, prefixed with the line number
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	comment, ok := strings.CutPrefix(strings.TrimSpace(line), "//")
	if !ok {
		return nil, nil
	}
	_, body, ok := strings.Cut(comment, annotationPrefix)
	if !ok {
		return nil, nil
	}

	fields := strings.Fields(body)
	if len(fields) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}
	kind := AnnotationType(fields[0])
	d, ok := directives[kind]
	if !ok {
		return nil, fmt.Errorf("line %d: unknown @oxy directive %q", lineNum, fields[0])
	}
	args := fields[1:]
	if len(args) < d.minArgs || len(args) > d.maxArgs {
		return nil, fmt.Errorf("line %d: usage: //@oxy:%s %s", lineNum, kind, d.usage)
	}

	a := &Annotation{Type: kind, Line: lineNum}
	if err := d.parse(a, args); err != nil {
		return nil, fmt.Errorf("line %d: @oxy:%s: %w", lineNum, kind, err)
	}
	return a, nil
}
