package shader

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// Reflection covers what the flock's WGSL uses: uniform blocks of 32-bit scalars, vectors and
// mat4x4, unfilterable texture_2d<f32> inputs, rgba float storage texture outputs and one
// vertex input struct. Anything else is reported as ErrUnsupportedBinding.

var (
	lineComment     = regexp.MustCompile(`//[^\n]*`)
	structDecl      = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	memberDecl      = regexp.MustCompile(`^(?:@location\((\d+)\)\s*)?(\w+)\s*:\s*(\S+)$`)
	resourceDecl    = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([\w\s,]+)>)?\s+(\w+)\s*:\s*([^;]+);`)
	entryPointDecl  = regexp.MustCompile(`@(vertex|fragment|compute)\s*(?:@workgroup_size\(([^)]*)\)\s*)?fn\s+(\w+)\s*\(`)
	storageTexParam = regexp.MustCompile(`^texture_storage_2d<\s*(\w+)\s*,\s*(\w+)\s*>$`)
)

type memberLayout struct {
	size, align uint64
}

// uniformMembers are the host-shareable member types of a uniform block.
var uniformMembers = map[string]memberLayout{
	"f32":         {4, 4},
	"u32":         {4, 4},
	"i32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec3<f32>":   {12, 16},
	"vec4<f32>":   {16, 16},
	"mat4x4<f32>": {64, 16},
}

var vertexAttributes = map[string]struct {
	format wgpu.VertexFormat
	size   uint64
}{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
}

var storageFormats = map[string]wgpu.TextureFormat{
	"rgba32float": wgpu.TextureFormatRGBA32Float,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
}

var storageAccess = map[string]wgpu.StorageTextureAccess{
	"write":      wgpu.StorageTextureAccessWriteOnly,
	"read":       wgpu.StorageTextureAccessReadOnly,
	"read_write": wgpu.StorageTextureAccessReadWrite,
}

var stageVisibility = map[Stage]wgpu.ShaderStage{
	StageCompute:  wgpu.ShaderStageCompute,
	StageVertex:   wgpu.ShaderStageVertex,
	StageFragment: wgpu.ShaderStageFragment,
}

type member struct {
	name     string
	typ      string
	location int // -1 without @location
}

// reflection is the result of scanning an expanded source for one stage.
type reflection struct {
	entryPoint    string
	workgroupSize [3]uint32
	layouts       map[int]wgpu.BindGroupLayoutDescriptor
	vertexBuffers []wgpu.VertexBufferLayout
}

func reflectSource(key string, stage Stage, source string) (*reflection, error) {
	src := lineComment.ReplaceAllString(source, "")
	structs := parseStructs(src)
	r := &reflection{layouts: make(map[int]wgpu.BindGroupLayoutDescriptor)}

	var paramsAt int
	for _, m := range entryPointDecl.FindAllStringSubmatchIndex(src, -1) {
		if src[m[2]:m[3]] != stage.String() {
			continue
		}
		r.entryPoint = src[m[6]:m[7]]
		paramsAt = m[1]
		if stage == StageCompute {
			size, err := parseWorkgroupSize(src, m)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			r.workgroupSize = size
		}
		break
	}
	if r.entryPoint == "" {
		return nil, fmt.Errorf("%w: %s has no @%s function", ErrNoEntryPoint, key, stage)
	}

	for _, m := range resourceDecl.FindAllStringSubmatch(src, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		entry, err := layoutEntry(structs, uint32(binding), stageVisibility[stage], strings.TrimSpace(m[3]), m[4], strings.TrimSpace(m[5]))
		if err != nil {
			return nil, fmt.Errorf("%s @group(%d) @binding(%d): %w", key, group, binding, err)
		}
		desc := r.layouts[group]
		desc.Label = fmt.Sprintf("%s group %d", key, group)
		desc.Entries = append(desc.Entries, entry)
		r.layouts[group] = desc
	}
	for _, desc := range r.layouts {
		slices.SortFunc(desc.Entries, func(a, b wgpu.BindGroupLayoutEntry) int { return cmp.Compare(a.Binding, b.Binding) })
	}

	if stage == StageVertex {
		buffers, err := vertexBuffers(structs, entryParams(src, paramsAt))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		r.vertexBuffers = buffers
	}
	return r, nil
}

func parseStructs(src string) map[string][]member {
	structs := make(map[string][]member)
	for _, m := range structDecl.FindAllStringSubmatch(src, -1) {
		var members []member
		for _, field := range strings.Split(m[2], ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			parts := memberDecl.FindStringSubmatch(field)
			if parts == nil {
				continue
			}
			location := -1
			if parts[1] != "" {
				location, _ = strconv.Atoi(parts[1])
			}
			members = append(members, member{name: parts[2], typ: parts[3], location: location})
		}
		structs[m[1]] = members
	}
	return structs
}

// parseWorkgroupSize reads @workgroup_size from an entry point match. Omitted dimensions are 1.
func parseWorkgroupSize(src string, m []int) ([3]uint32, error) {
	size := [3]uint32{1, 1, 1}
	if m[4] < 0 {
		return size, nil
	}
	for i, dim := range strings.Split(src[m[4]:m[5]], ",") {
		dim = strings.TrimSpace(dim)
		if dim == "" {
			continue
		}
		if i > 2 {
			return size, fmt.Errorf("%w: workgroup size %q", ErrUnsupportedBinding, src[m[4]:m[5]])
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(dim, "u"), 10, 32)
		if err != nil || n == 0 {
			return size, fmt.Errorf("%w: workgroup size %q", ErrUnsupportedBinding, src[m[4]:m[5]])
		}
		size[i] = uint32(n)
	}
	return size, nil
}

func layoutEntry(structs map[string][]member, binding uint32, visibility wgpu.ShaderStage, space, name, typ string) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	switch {
	case space == "uniform":
		size, err := blockSize(structs, typ)
		if err != nil {
			return entry, err
		}
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.MinBindingSize = size
	case space != "":
		return entry, fmt.Errorf("%w: var<%s> %s", ErrUnsupportedBinding, space, name)
	case typ == "texture_2d<f32>":
		entry.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	default:
		m := storageTexParam.FindStringSubmatch(typ)
		if m == nil {
			return entry, fmt.Errorf("%w: %s: %s", ErrUnsupportedBinding, name, typ)
		}
		format, ok := storageFormats[m[1]]
		if !ok {
			return entry, fmt.Errorf("%w: %s: texel format %s", ErrUnsupportedBinding, name, m[1])
		}
		access, ok := storageAccess[m[2]]
		if !ok {
			return entry, fmt.Errorf("%w: %s: access %s", ErrUnsupportedBinding, name, m[2])
		}
		entry.StorageTexture.Format = format
		entry.StorageTexture.Access = access
		entry.StorageTexture.ViewDimension = wgpu.TextureViewDimension2D
	}
	return entry, nil
}

// blockSize lays out a uniform struct with WGSL alignment rules and returns its size.
func blockSize(structs map[string][]member, name string) (uint64, error) {
	members, ok := structs[name]
	if !ok || len(members) == 0 {
		return 0, fmt.Errorf("%w: uniform of unknown struct %q", ErrUnsupportedBinding, name)
	}
	var offset, align uint64 = 0, 1
	for _, m := range members {
		l, ok := uniformMembers[m.typ]
		if !ok {
			return 0, fmt.Errorf("%w: %s.%s is %s", ErrUnsupportedBinding, name, m.name, m.typ)
		}
		offset = alignTo(offset, l.align) + l.size
		align = max(align, l.align)
	}
	return alignTo(offset, align), nil
}

func alignTo(n, align uint64) uint64 {
	return (n + align - 1) / align * align
}

// entryParams returns the parameter list of the function whose opening parenthesis ends at start.
func entryParams(src string, start int) []string {
	depth := 1
	for i := start; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return strings.Split(src[start:i], ",")
			}
		}
	}
	return nil
}

// vertexBuffers builds one tightly packed buffer layout per struct parameter of the vertex entry point.
func vertexBuffers(structs map[string][]member, params []string) ([]wgpu.VertexBufferLayout, error) {
	var layouts []wgpu.VertexBufferLayout
	for _, param := range params {
		param = strings.TrimSpace(param)
		if param == "" || strings.HasPrefix(param, "@builtin") {
			continue
		}
		_, typ, ok := strings.Cut(param, ":")
		if !ok {
			continue
		}
		typ = strings.TrimSpace(typ)
		members, ok := structs[typ]
		if !ok {
			continue
		}
		layout := wgpu.VertexBufferLayout{StepMode: wgpu.VertexStepModeVertex}
		for _, m := range members {
			attr, ok := vertexAttributes[m.typ]
			if !ok || m.location < 0 {
				return nil, fmt.Errorf("%w: vertex attribute %s.%s: %s", ErrUnsupportedBinding, typ, m.name, m.typ)
			}
			layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
				Format:         attr.format,
				Offset:         layout.ArrayStride,
				ShaderLocation: uint32(m.location),
			})
			layout.ArrayStride += attr.size
		}
		layouts = append(layouts, layout)
	}
	return layouts, nil
}
