package shader

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslStruct is a struct declaration or an entry point's parameter list.
type wgslStruct struct {
	name   string
	fields []wgslField
}

// wgslField is a member or parameter. location is -1 without @location.
type wgslField struct {
	name     string
	typeName string
	location int
	builtin  bool
}

// vertexInput reports whether s feeds a vertex buffer: it has @location members and no
// @builtin ones, which tells it apart from a vertex output.
func (s wgslStruct) vertexInput() bool {
	located := false
	for _, f := range s.fields {
		if f.builtin {
			return false
		}
		located = located || f.location >= 0
	}
	return located
}

// vertexBufferLayout packs the members of s in declaration order without padding.
func (s wgslStruct) vertexBufferLayout(instance bool) (wgpu.VertexBufferLayout, bool) {
	layout := wgpu.VertexBufferLayout{StepMode: wgpu.VertexStepModeVertex}
	if instance {
		layout.StepMode = wgpu.VertexStepModeInstance
	}
	for _, f := range s.fields {
		vf, ok := vertexFormats[f.typeName]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         vf.format,
			Offset:         layout.ArrayStride,
			ShaderLocation: uint32(f.location),
		})
		layout.ArrayStride += vf.size
	}
	return layout, true
}

var (
	structDecl   = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	resourceDecl = regexp.MustCompile(`@group\(\s*(\d+)\s*\)\s*@binding\(\s*(\d+)\s*\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
	entryDecl    = map[ShaderType]*regexp.Regexp{
		ShaderTypeVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)\s*\(`),
		ShaderTypeFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)\s*\(`),
	}
)

// reflection is what the renderer reads off a pre-processed WGSL module: entry points,
// vertex buffer layouts and bind group layouts.
type reflection struct {
	source  string
	structs []wgslStruct
	layouts *layoutResolver
}

func newReflection(source string) *reflection {
	r := &reflection{source: stripComments(source)}
	for _, m := range structDecl.FindAllStringSubmatch(r.source, -1) {
		r.structs = append(r.structs, wgslStruct{name: m[1], fields: parseFields(m[2])})
	}
	r.layouts = newLayoutResolver(r.structs)
	return r
}

// entryPoint finds the first function of the stage and its parameters.
func (r *reflection) entryPoint(stage ShaderType) (string, []wgslField, bool) {
	re, ok := entryDecl[stage]
	if !ok {
		return "", nil, false
	}
	loc := re.FindStringSubmatchIndex(r.source)
	if loc == nil {
		return "", nil, false
	}
	name := r.source[loc[2]:loc[3]]
	end := closingParen(r.source, loc[1])
	if end < 0 {
		return name, nil, false
	}
	return name, parseFields(r.source[loc[1]:end]), true
}

// vertexLayouts assigns one buffer slot per vertex input struct. The slots follow the
// vertex entry point's parameters, so declared but unused structs take none. Without
// struct parameters every vertex input struct is used in source order. Structs named
// in instance step per instance.
func (r *reflection) vertexLayouts(instance map[string]bool) map[int][]wgpu.VertexBufferLayout {
	var inputs []wgslStruct
	if _, params, ok := r.entryPoint(ShaderTypeVertex); ok {
		for _, p := range params {
			i := slices.IndexFunc(r.structs, func(s wgslStruct) bool { return s.name == p.typeName })
			if i >= 0 && r.structs[i].vertexInput() {
				inputs = append(inputs, r.structs[i])
			}
		}
	}
	if len(inputs) == 0 {
		for _, s := range r.structs {
			if s.vertexInput() {
				inputs = append(inputs, s)
			}
		}
	}

	out := make(map[int][]wgpu.VertexBufferLayout)
	for _, s := range inputs {
		if l, ok := s.vertexBufferLayout(instance[s.name]); ok {
			out[len(out)] = []wgpu.VertexBufferLayout{l}
		}
	}
	return out
}

// bindGroups collects every @group/@binding variable into per-group layouts with entries
// sorted by binding. Buffer entries get the host size of their type as MinBindingSize so
// buffers can be created from the layout alone.
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layouts by group
//   - map[int]map[int]string: variable names by group and binding
func (r *reflection) bindGroups(visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, m := range resourceDecl.FindAllStringSubmatch(r.source, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		typeName := strings.TrimSpace(m[5])

		e := classifyResource(uint32(binding), visibility, m[3], typeName)
		if e.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := r.layouts.layout(typeName); ok {
				e.Buffer.MinBindingSize = l.size
			}
		}
		entries[group] = append(entries[group], e)
		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = m[4]
	}

	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, es := range entries {
		slices.SortFunc(es, func(a, b wgpu.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		out[g] = wgpu.BindGroupLayoutDescriptor{Entries: es}
	}
	return out, names
}

// closingParen returns the index of the ')' closing the '(' just before start, or -1.
func closingParen(s string, start int) int {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth--; depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseFields parses a struct body or parameter list.
func parseFields(body string) []wgslField {
	var fields []wgslField
	for _, decl := range splitTopLevel(body) {
		if f, ok := parseField(decl); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// parseField parses "[@attr(...)]... name: type".
func parseField(decl string) (wgslField, bool) {
	f := wgslField{location: -1}
	rest := strings.TrimSpace(decl)
	for strings.HasPrefix(rest, "@") {
		var attr, args string
		attr, args, rest = cutAttribute(rest)
		switch attr {
		case "location":
			if n, err := strconv.Atoi(args); err == nil {
				f.location = n
			}
		case "builtin":
			f.builtin = true
		}
	}
	name, typ, ok := strings.Cut(rest, ":")
	f.name, f.typeName = strings.TrimSpace(name), strings.TrimSpace(typ)
	return f, ok && f.name != "" && f.typeName != ""
}

// cutAttribute splits "@name(args) rest" or "@name rest".
func cutAttribute(s string) (name, args, rest string) {
	s = s[1:]
	end := strings.IndexFunc(s, func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if end < 0 {
		return s, "", ""
	}
	name, rest = s[:end], strings.TrimSpace(s[end:])
	if strings.HasPrefix(rest, "(") {
		if i := closingParen(rest, 1); i >= 0 {
			return name, strings.TrimSpace(rest[1:i]), strings.TrimSpace(rest[i+1:])
		}
	}
	return name, "", rest
}

// splitTopLevel splits s at commas outside <> and ().
func splitTopLevel(s string) []string {
	var parts []string
	depth, from := 0, 0
	for i, c := range s {
		switch {
		case c == '<' || c == '(':
			depth++
		case (c == '>' || c == ')') && depth > 0:
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[from:i])
			from = i + 1
		}
	}
	return append(parts, s[from:])
}

// stripComments drops line comments and nested block comments, keeping line breaks.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	depth := 0
	for i := 0; i < len(src); {
		rest := src[i:]
		switch {
		case strings.HasPrefix(rest, "/*"):
			depth++
			i += 2
		case depth > 0 && strings.HasPrefix(rest, "*/"):
			depth--
			i += 2
		case depth > 0:
			i++
		case strings.HasPrefix(rest, "//"):
			if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
				i += nl
			} else {
				i = len(src)
			}
		default:
			b.WriteByte(src[i])
			i++
		}
	}
	return b.String()
}
