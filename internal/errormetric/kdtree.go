// SPDX-License-Identifier: Unlicense OR MIT

// Package errormetric computes the geometric error between mesh
// versions and the spatial queries the LOD builder needs to do it:
// nearest-neighbour lookup via a balanced k-d tree, RMS error, and
// bounding-sphere construction over cluster hierarchies.
package errormetric

import (
	"sort"

	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// KDTree is a balanced, static k-d tree over 3D points, split at the
// median on x, y and z in turn by depth (axis = depth % 3).
type KDTree struct {
	points []vecmath.Vec3
	nodes  []kdNode
}

type kdNode struct {
	idx         int32 // index into points
	left, right int32 // node index, -1 if absent
}

// NewKDTree builds a tree over pts. pts is not retained by reference
// beyond copying into the tree's own point buffer.
func NewKDTree(pts []vecmath.Vec3) *KDTree {
	t := &KDTree{points: append([]vecmath.Vec3(nil), pts...)}
	idx := make([]int32, len(pts))
	for i := range idx {
		idx[i] = int32(i)
	}
	t.nodes = make([]kdNode, 0, len(pts))
	t.build(idx, 0)
	return t
}

func (t *KDTree) build(idx []int32, depth int) int32 {
	if len(idx) == 0 {
		return -1
	}
	axis := depth % 3
	sort.Slice(idx, func(i, j int) bool {
		return axisOf(t.points[idx[i]], axis) < axisOf(t.points[idx[j]], axis)
	})
	mid := len(idx) / 2
	node := kdNode{idx: idx[mid]}
	nodeIdx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node)

	left := t.build(idx[:mid], depth+1)
	right := t.build(idx[mid+1:], depth+1)
	t.nodes[nodeIdx].left = left
	t.nodes[nodeIdx].right = right
	return nodeIdx
}

func axisOf(v vecmath.Vec3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Nearest returns the index (into the original pts slice passed to
// NewKDTree) and distance of the closest point to q.
func (t *KDTree) Nearest(q vecmath.Vec3) (idx int32, dist float32) {
	if len(t.nodes) == 0 {
		return -1, 0
	}
	best := int32(-1)
	bestDist := float32(-1)
	var search func(node int32, depth int)
	search = func(node int32, depth int) {
		if node < 0 {
			return
		}
		n := t.nodes[node]
		p := t.points[n.idx]
		d := p.Sub(q).Len()
		if best < 0 || d < bestDist {
			best, bestDist = n.idx, d
		}
		axis := depth % 3
		diff := axisOf(q, axis) - axisOf(p, axis)
		near, far := n.left, n.right
		if diff > 0 {
			near, far = n.right, n.left
		}
		search(near, depth+1)
		if bestDist < 0 || absF(diff) < bestDist {
			search(far, depth+1)
		}
	}
	search(0, 0)
	return best, bestDist
}

// NearestK returns up to k nearest neighbours, sorted by ascending
// distance. Used for UV inheritance, which blends the two closest LOD
// 0 vertices; k is always small (2) so this scans rather than walking
// the tree with a bounded priority queue.
func (t *KDTree) NearestK(q vecmath.Vec3, k int) []int32 {
	type hit struct {
		idx  int32
		dist float32
	}
	var hits []hit
	for i, p := range t.points {
		hits = append(hits, hit{int32(i), p.Sub(q).Len()})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	if k > len(hits) {
		k = len(hits)
	}
	out := make([]int32, k)
	for i := 0; i < k; i++ {
		out[i] = hits[i].idx
	}
	return out
}

func absF(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
