package birds

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

const (
	// VerticesPerBird is three triangles: body, left wing, right wing.
	VerticesPerBird = 9

	// MeshScale is applied to the template after all vertices are written.
	MeshScale float32 = 0.2

	// DefaultWingSpan is the wing tip distance from the body axis before scaling.
	DefaultWingSpan float32 = 20
)

// ErrInvalidGeometry is returned by BuildGeometry for impossible agent or grid sizes.
var ErrInvalidGeometry = errors.New("invalid bird geometry")

// Geometry is the static bird vertex buffer.
type Geometry struct {
	Vertices   []GPUBirdVertex
	AgentCount int
	GridWidth  int
	WingSpan   float32
}

// VertexCount returns the number of vertices to draw.
func (g *Geometry) VertexCount() uint32 {
	return uint32(len(g.Vertices))
}

// Bytes returns a view of the vertex data for upload. The view shares memory with Vertices.
func (g *Geometry) Bytes() []byte {
	return common.SliceToBytes(g.Vertices)
}

// template returns the nine unscaled vertex positions of one bird.
func template(wingSpan float32) [VerticesPerBird][3]float32 {
	return [VerticesPerBird][3]float32{
		// body
		{0, 0, -20}, {0, 4, -20}, {0, 0, 30},
		// left wing
		{0, 0, -15}, {-wingSpan, 0, 0}, {0, 0, 15},
		// right wing
		{0, 0, 15}, {wingSpan, 0, 0}, {0, 0, -15},
	}
}

// BuildGeometry lays out agentCount birds of nine vertices each.
//
// Every vertex carries the simulation reference of triangle v/3, so the three
// triangles of one bird reference three consecutive cells of the grid.
//
// Parameters:
//   - agentCount: number of birds
//   - gridWidth: width of the square simulation grid
//   - wingSpan: wing tip offset along x before scaling
//   - colorizer: picks each vertex color
//
// Returns:
//   - *Geometry: the built vertex buffer
//   - error: ErrInvalidGeometry for non-positive sizes or a grid too small for the agents
func BuildGeometry(agentCount, gridWidth int, wingSpan float32, colorizer Colorizer) (*Geometry, error) {
	if agentCount < 1 || gridWidth < 1 || gridWidth*gridWidth < agentCount {
		return nil, fmt.Errorf("%w: agents=%d, grid width=%d", ErrInvalidGeometry, agentCount, gridWidth)
	}
	if colorizer == nil {
		return nil, fmt.Errorf("%w: nil colorizer", ErrInvalidGeometry)
	}

	points := agentCount * VerticesPerBird
	vertices := make([]GPUBirdVertex, points)
	shape := template(wingSpan)

	// The cache only applies to non-gradient colors, and gradient is always on.
	const gradient = true
	colorCache := make(map[string]common.Color)

	w := float32(gridWidth)
	for v := range points {
		i := v / 3
		order := float32(v/VerticesPerBird) / float32(agentCount)
		key := strconv.FormatFloat(float64(order), 'g', -1, 32)

		var c common.Color
		if cached, ok := colorCache[key]; !gradient && ok {
			c = cached
		} else {
			c = colorizer.Color(order)
		}
		if _, ok := colorCache[key]; !gradient && !ok {
			colorCache[key] = c
		}

		p := shape[v%VerticesPerBird]
		vertices[v] = GPUBirdVertex{
			Position:   [3]float32{p[0] * MeshScale, p[1] * MeshScale, p[2] * MeshScale},
			Color:      [3]float32{c.R, c.G, c.B},
			Reference:  [2]float32{float32(i%gridWidth) / w, float32(i/gridWidth) / w},
			BirdVertex: float32(v % VerticesPerBird),
		}
	}

	return &Geometry{
		Vertices:   vertices,
		AgentCount: agentCount,
		GridWidth:  gridWidth,
		WingSpan:   wingSpan,
	}, nil
}
