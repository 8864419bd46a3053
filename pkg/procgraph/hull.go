package procgraph

import (
	"github.com/matzehuels/procgraph/pkg/element"
	"github.com/matzehuels/procgraph/pkg/geom"
)

// GroupHull returns the padded hull around the centers of nodes.
func GroupHull(nodes []*element.Node, opts geom.HullOptions) (geom.Polygon, error) {
	points := make([]geom.Point, len(nodes))
	for i, n := range nodes {
		points[i] = n.Center()
	}
	return geom.ComputeGroupHull(points, opts)
}

// ServiceBox returns the axis-aligned box around the scaled bounds of
// nodes, grown by padding.
func ServiceBox(nodes []*element.Node, padding float64) geom.Rect {
	var points []geom.Point
	for _, n := range nodes {
		points = append(points, n.ScaledBounds().Corners()...)
	}
	return geom.AxisAlignedBoundingBox(points, padding)
}

// SubprocessHull returns the hull of the graph's nodes whose statement
// belongs to subprocess.
func (g *Graph) SubprocessHull(subprocess string, opts geom.HullOptions) (geom.Polygon, error) {
	return GroupHull(g.FindNodesByField("subprocess", subprocess), opts)
}
