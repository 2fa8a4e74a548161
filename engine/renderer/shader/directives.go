package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-birds/engine/birds"
	"github.com/Carmen-Shannon/oxy-birds/engine/camera"
	"github.com/Carmen-Shannon/oxy-birds/engine/flock"
)

// directivePrefix starts every directive comment in the WGSL assets.
const directivePrefix = "//@oxy:"

// Block names a uniform block whose WGSL struct lives next to its Go type.
type Block string

const (
	// BlockCamera is the CameraUniform of the camera package.
	BlockCamera Block = "camera"

	// BlockFlock is the FlockUniforms read by both simulation kernels.
	BlockFlock Block = "flock_uniforms"

	// BlockBird is the BirdUniforms of the bird vertex stage.
	BlockBird Block = "bird_uniforms"

	// blockBirdVertex is the VertexInput of the bird mesh. It is only ever included.
	blockBirdVertex Block = "bird_vertex"
)

// Owner says where the texture behind a binding comes from.
type Owner string

const (
	// OwnerInput is a kernel input. Its variable names the dependency read.
	OwnerInput Owner = "input"

	// OwnerOutput is the storage texture a kernel writes. Its variable names the variable computed.
	OwnerOutput Owner = "output"

	// OwnerSimulation is a current simulation texture sampled by the bird vertex stage.
	OwnerSimulation Owner = "simulation"
)

// BindingKind tells uniform bindings from texture bindings.
type BindingKind int

const (
	BindingUniform BindingKind = iota
	BindingTexture
)

// Binding is a resource declared with a directive. Uniform bindings carry the Block they hold,
// texture bindings carry their Owner and the simulation variable they stand for.
type Binding struct {
	Kind     BindingKind
	Group    int
	Index    int
	Block    Block
	Owner    Owner
	Variable string
	// Line is the 1-based source line of the directive.
	Line int
}

type blockSource struct {
	wgsl     string
	typeName string
}

var blocks = map[Block]blockSource{
	BlockCamera:     {camera.GPUCameraUniformSource, "CameraUniform"},
	BlockFlock:      {flock.GPUFlockUniformsSource, "FlockUniforms"},
	BlockBird:       {birds.GPUBirdUniformsSource, "BirdUniforms"},
	blockBirdVertex: {birds.GPUBirdVertexSource, "VertexInput"},
}

var (
	identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	owners       = map[Owner]bool{OwnerInput: true, OwnerOutput: true, OwnerSimulation: true}
)

// expand replaces the directives of source with WGSL and returns the declared bindings in source order.
//
//	//@oxy:include <block>                         injects the block's struct
//	//@oxy:uniform <group> <binding> <var> <block>  injects the struct and declares var<uniform>
//	//@oxy:texture <group> <binding> <owner> <var>  tags the hand-written texture declaration below it
//
// A struct is injected once however many directives name it.
func expand(source string) (string, []Binding, error) {
	var (
		out      strings.Builder
		bindings []Binding
		injected = make(map[Block]bool)
	)
	inject := func(b Block) {
		if injected[b] {
			return
		}
		injected[b] = true
		out.WriteString(blocks[b].wgsl)
		out.WriteByte('\n')
	}

	for i, line := range strings.Split(source, "\n") {
		lineNum := i + 1
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), directivePrefix)
		if !ok {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return "", nil, fmt.Errorf("%w: line %d: empty directive", ErrDirective, lineNum)
		}

		switch verb, args := fields[0], fields[1:]; verb {
		case "include":
			if len(args) != 1 {
				return "", nil, fmt.Errorf("%w: line %d: include takes a block name", ErrDirective, lineNum)
			}
			block := Block(args[0])
			if _, ok := blocks[block]; !ok {
				return "", nil, fmt.Errorf("%w: line %d: unknown block %q", ErrDirective, lineNum, args[0])
			}
			inject(block)
		case "uniform":
			if len(args) != 4 {
				return "", nil, fmt.Errorf("%w: line %d: uniform takes group, binding, name and block", ErrDirective, lineNum)
			}
			b, err := slot(args, lineNum)
			if err != nil {
				return "", nil, err
			}
			block := Block(args[3])
			src, ok := blocks[block]
			if !ok || block == blockBirdVertex {
				return "", nil, fmt.Errorf("%w: line %d: %q is not a uniform block", ErrDirective, lineNum, args[3])
			}
			if !identPattern.MatchString(args[2]) {
				return "", nil, fmt.Errorf("%w: line %d: bad variable name %q", ErrDirective, lineNum, args[2])
			}
			inject(block)
			fmt.Fprintf(&out, "@group(%d) @binding(%d) var<uniform> %s: %s;\n", b.Group, b.Index, args[2], src.typeName)
			b.Kind, b.Block = BindingUniform, block
			bindings = append(bindings, b)
		case "texture":
			if len(args) != 4 {
				return "", nil, fmt.Errorf("%w: line %d: texture takes group, binding, owner and variable", ErrDirective, lineNum)
			}
			b, err := slot(args, lineNum)
			if err != nil {
				return "", nil, err
			}
			if !owners[Owner(args[2])] {
				return "", nil, fmt.Errorf("%w: line %d: unknown owner %q", ErrDirective, lineNum, args[2])
			}
			if !identPattern.MatchString(args[3]) {
				return "", nil, fmt.Errorf("%w: line %d: bad variable %q", ErrDirective, lineNum, args[3])
			}
			b.Kind, b.Owner, b.Variable = BindingTexture, Owner(args[2]), args[3]
			bindings = append(bindings, b)
		default:
			return "", nil, fmt.Errorf("%w: line %d: unknown directive %q", ErrDirective, lineNum, verb)
		}
	}
	return strings.TrimSuffix(out.String(), "\n"), bindings, nil
}

// slot parses the group and binding arguments shared by uniform and texture directives.
func slot(args []string, lineNum int) (Binding, error) {
	group, err := strconv.Atoi(args[0])
	if err != nil || group < 0 {
		return Binding{}, fmt.Errorf("%w: line %d: bad group %q", ErrDirective, lineNum, args[0])
	}
	index, err := strconv.Atoi(args[1])
	if err != nil || index < 0 {
		return Binding{}, fmt.Errorf("%w: line %d: bad binding %q", ErrDirective, lineNum, args[1])
	}
	return Binding{Group: group, Index: index, Line: lineNum}, nil
}
