// SPDX-License-Identifier: Unlicense OR MIT

package errormetric

import (
	"math"

	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// RMSError returns the root-mean-square nearest-neighbour distance
// from each point in a to its closest point in b.
func RMSError(a, b []vecmath.Vec3) float32 {
	if len(a) == 0 {
		return 0
	}
	tree := NewKDTree(b)
	var sumSq float64
	for _, p := range a {
		_, d := tree.Nearest(p)
		sumSq += float64(d) * float64(d)
	}
	return float32(math.Sqrt(sumSq / float64(len(a))))
}

// BoundingSphere and MergeSpheres are the vecmath primitives,
// re-exported here so callers working with geometric error also reach
// for spatial bounds from one package.
var (
	BoundingSphere = vecmath.BoundingSphere
	MergeSpheres   = vecmath.MergeSpheres
)

// InheritUV blends the uv coordinate of q from the two nearest
// neighbours in a LOD-0 KD-tree, weighted by inverse distance. eps
// guards against division by zero when q coincides with a source
// vertex.
func InheritUV(tree *KDTree, lod0UV [][2]float32, q vecmath.Vec3, eps float32) [2]float32 {
	neighbors := tree.NearestK(q, 2)
	if len(neighbors) == 0 {
		return [2]float32{0, 0}
	}
	if len(neighbors) == 1 {
		return lod0UV[neighbors[0]]
	}

	d0 := tree.points[neighbors[0]].Sub(q).Len() + eps
	d1 := tree.points[neighbors[1]].Sub(q).Len() + eps
	w0 := 1 / d0
	w1 := 1 / d1
	sum := w0 + w1

	uv0, uv1 := lod0UV[neighbors[0]], lod0UV[neighbors[1]]
	return [2]float32{
		(uv0[0]*w0 + uv1[0]*w1) / sum,
		(uv0[1]*w0 + uv1[1]*w1) / sum,
	}
}
