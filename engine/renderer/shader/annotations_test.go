package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotationIgnoresPlainLines(t *testing.T) {
	for _, line := range []string{
		"",
		"struct Foo { a: f32 };",
		"// a normal comment",
		"let x = 1; // @oxy:include camera",
	} {
		a, err := parseAnnotation(line, 1)
		require.NoError(t, err, line)
		assert.Nil(t, a, line)
	}
}

func TestParseAnnotationInclude(t *testing.T) {
	a, err := parseAnnotation("  //@oxy:include camera", 3)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, annotationTypeInclude, a.Type)
	assert.Equal(t, AnnotationArgCamera, a.StructType())
	assert.Equal(t, 3, a.Line)
	assert.Equal(t, -1, a.Group)
	assert.Empty(t, a.Identity())
	assert.Empty(t, a.Role())
}

func TestParseAnnotationGroup(t *testing.T) {
	a, err := parseAnnotation("//@oxy:group 1 0 storage_uniform material material_params", 7)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, AnnotationTypeBindingGroup, a.Type)
	assert.Equal(t, 1, a.Group)
	assert.Equal(t, 0, a.Binding)
	assert.Equal(t, "material", a.Var)
	assert.False(t, a.Array)
	assert.Equal(t, AnnotationArgMaterialParams, a.StructType())
	assert.Equal(t, AnnotationArgMaterial, a.Identity())
	assert.Equal(t, "material_params", a.Role())
}

func TestParseAnnotationGroupArray(t *testing.T) {
	a, err := parseAnnotation("//@oxy:group 2 0 storage_read lights array<light>", 1)
	require.NoError(t, err)
	assert.Equal(t, AnnotationArgLight, a.StructType())
	assert.True(t, a.Array)
	assert.Equal(t, AnnotationArgLights, a.Identity())
	assert.Equal(t, "@group(2) @binding(0) var<storage, read> lights: array<Light>;", a.declaration())
}

func TestParseAnnotationProvider(t *testing.T) {
	a, err := parseAnnotation("//@oxy:provider 1 3 material diffuse_texture", 1)
	require.NoError(t, err)
	assert.Equal(t, AnnotationTypeProvider, a.Type)
	assert.Equal(t, 3, a.Binding)
	assert.Equal(t, AnnotationArgMaterial, a.Identity())
	assert.Equal(t, "diffuse_texture", a.Role())

	a, err = parseAnnotation("//@oxy:provider 0 0 camera", 1)
	require.NoError(t, err)
	assert.Equal(t, AnnotationArgCamera, a.Identity())
	assert.Empty(t, a.Role())
}

func TestParseAnnotationErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{name: "empty", line: "//@oxy:", want: "empty"},
		{name: "unknown directive", line: "//@oxy:bogus 1", want: "unknown @oxy directive"},
		{name: "include arity", line: "//@oxy:include", want: "usage: //@oxy:include <struct>"},
		{name: "include unknown struct", line: "//@oxy:include teapot", want: "unknown struct type"},
		{name: "group arity", line: "//@oxy:group 0 0 storage_uniform camera", want: "usage: //@oxy:group"},
		{name: "group bad number", line: "//@oxy:group x 0 storage_uniform camera camera", want: "invalid group"},
		{name: "group negative binding", line: "//@oxy:group 0 -1 storage_uniform camera camera", want: "invalid binding"},
		{name: "group address space", line: "//@oxy:group 0 0 private camera camera", want: "unknown address space"},
		{name: "group struct", line: "//@oxy:group 0 0 storage_uniform camera array<teapot>", want: "unknown struct type \"teapot\""},
		{name: "provider arity", line: "//@oxy:provider 1 1", want: "usage: //@oxy:provider"},
		{name: "provider identity", line: "//@oxy:provider 1 1 shadow", want: "unknown provider identity"},
		{name: "provider role", line: "//@oxy:provider 1 1 material bump_texture", want: "unknown binding role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseAnnotation(tt.line, 12)
			require.Error(t, err)
			assert.Nil(t, a)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "line 12")
		})
	}
}

func TestValidBindingRolesPairTexturesWithSamplers(t *testing.T) {
	assert.Contains(t, validBindingRoles, AnnotationArg("base_texture"))
	assert.Contains(t, validBindingRoles, AnnotationArg("base_sampler"))
	assert.Contains(t, validBindingRoles, AnnotationArg("mix_texture"))
	assert.Contains(t, validBindingRoles, AnnotationArg("specular_sampler"))
	assert.Len(t, validBindingRoles, 8)
}
