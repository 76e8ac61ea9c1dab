// SPDX-License-Identifier: Unlicense OR MIT

// Package simplify reduces the triangle count of a mesh via quadric
// error-metric edge collapse, preserving border edges.
package simplify

import (
	"container/heap"

	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// Simplifier reduces a mesh toward targetTris triangles. Border edges
// (belonging to exactly one input triangle) are preserved in the
// output, and take precedence over the target: when only border-locked
// edges remain, the result has more than targetTris triangles.
// Returned normals are per-face, aligned with outTris;
// callers average them to per-vertex normals.
type Simplifier interface {
	Simplify(verts []vecmath.Vec3, tris [][3]int32, targetTris int) (outVerts []vecmath.Vec3, outTris [][3]int32, faceNormals []vecmath.Vec3, err error)
}

// QuadricCollapser implements Simplifier using Garland-Heckbert
// quadric error metrics and greedy edge collapse.
type QuadricCollapser struct{}

// NewQuadricCollapser returns the default Simplifier.
func NewQuadricCollapser() *QuadricCollapser { return &QuadricCollapser{} }

type quadric [10]float64 // symmetric 4x4 upper triangle: a2,ab,ac,ad,b2,bc,bd,c2,cd,d2

func planeQuadric(a, b, c vecmath.Vec3) quadric {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.Len() == 0 {
		return quadric{}
	}
	n = n.Normalize()
	d := -n.Dot(a)
	A, B, C, D := float64(n.X), float64(n.Y), float64(n.Z), float64(d)
	return quadric{A * A, A * B, A * C, A * D, B * B, B * C, B * D, C * C, C * D, D * D}
}

func (q quadric) add(o quadric) quadric {
	var r quadric
	for i := range q {
		r[i] = q[i] + o[i]
	}
	return r
}

// cost evaluates v^T Q v for point v.
func (q quadric) cost(v vecmath.Vec3) float64 {
	x, y, z := float64(v.X), float64(v.Y), float64(v.Z)
	return x*x*q[0] + 2*x*y*q[1] + 2*x*z*q[2] + 2*x*q[3] +
		y*y*q[4] + 2*y*z*q[5] + 2*y*q[6] +
		z*z*q[7] + 2*z*q[8] + q[9]
}

type edgeCandidate struct {
	a, b int32
	cost float64
	midp vecmath.Vec3
	gen  int // generation of a and b at time of insertion, for lazy invalidation
}

type candidateHeap []*edgeCandidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(*edgeCandidate)) }
func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Simplify collapses edges cheapest-first until the triangle count
// reaches targetTris or no more non-border edges can be collapsed.
func (s *QuadricCollapser) Simplify(verts []vecmath.Vec3, tris [][3]int32, targetTris int) ([]vecmath.Vec3, [][3]int32, []vecmath.Vec3, error) {
	if targetTris >= len(tris) || len(tris) == 0 {
		return append([]vecmath.Vec3(nil), verts...), append([][3]int32(nil), tris...), faceNormals(verts, tris), nil
	}

	nv := len(verts)
	pos := append([]vecmath.Vec3(nil), verts...)
	alive := make([]bool, nv)
	for i := range alive {
		alive[i] = true
	}
	remap := make([]int32, nv) // union-find style collapse target
	for i := range remap {
		remap[i] = int32(i)
	}
	var find func(int32) int32
	find = func(v int32) int32 {
		for remap[v] != v {
			remap[v] = remap[remap[v]]
			v = remap[v]
		}
		return v
	}

	quadrics := make([]quadric, nv)
	border := make([]bool, nv)
	edgeUse := make(map[[2]int32]int)
	edgeKey := func(a, b int32) [2]int32 {
		if a > b {
			a, b = b, a
		}
		return [2]int32{a, b}
	}
	for _, t := range tris {
		q := planeQuadric(pos[t[0]], pos[t[1]], pos[t[2]])
		quadrics[t[0]] = quadrics[t[0]].add(q)
		quadrics[t[1]] = quadrics[t[1]].add(q)
		quadrics[t[2]] = quadrics[t[2]].add(q)
		edgeUse[edgeKey(t[0], t[1])]++
		edgeUse[edgeKey(t[1], t[2])]++
		edgeUse[edgeKey(t[0], t[2])]++
	}
	for e, count := range edgeUse {
		if count == 1 {
			border[e[0]] = true
			border[e[1]] = true
		}
	}

	gen := make([]int, nv)

	h := &candidateHeap{}
	pushEdge := func(a, b int32) {
		if border[a] || border[b] {
			return
		}
		q := quadrics[a].add(quadrics[b])
		mid := pos[a].Add(pos[b]).Scale(0.5)
		cost := q.cost(mid)
		heap.Push(h, &edgeCandidate{a: a, b: b, cost: cost, midp: mid, gen: gen[a] + gen[b]})
	}
	for e := range edgeUse {
		pushEdge(e[0], e[1])
	}

	triCount := len(tris)
	liveTris := make([]bool, len(tris))
	for i := range liveTris {
		liveTris[i] = true
	}
	// adjacency: vertex -> triangle indices, for incident-triangle collapse.
	vertTris := make([][]int32, nv)
	for i, t := range tris {
		for _, v := range t {
			vertTris[v] = append(vertTris[v], int32(i))
		}
	}

	for triCount > targetTris && h.Len() > 0 {
		cand := heap.Pop(h).(*edgeCandidate)
		ra, rb := find(cand.a), find(cand.b)
		if ra == rb || !alive[ra] || !alive[rb] {
			continue
		}
		if cand.gen != gen[ra]+gen[rb] {
			continue // stale; endpoints changed since this candidate was queued
		}

		// Collapse rb into ra.
		pos[ra] = cand.midp
		quadrics[ra] = quadrics[ra].add(quadrics[rb])
		alive[rb] = false
		remap[rb] = ra
		gen[ra]++

		removed := 0
		for _, ti := range append(vertTris[ra], vertTris[rb]...) {
			if !liveTris[ti] {
				continue
			}
			t := tris[ti]
			v0, v1, v2 := find(t[0]), find(t[1]), find(t[2])
			if v0 == v1 || v1 == v2 || v0 == v2 {
				liveTris[ti] = false
				removed++
				continue
			}
			vertTris[ra] = append(vertTris[ra], ti)
		}
		triCount -= removed

		for _, ti := range vertTris[ra] {
			if !liveTris[ti] {
				continue
			}
			t := tris[ti]
			a, b, c := find(t[0]), find(t[1]), find(t[2])
			for _, pair := range [][2]int32{{a, b}, {b, c}, {a, c}} {
				if pair[0] != ra && pair[1] != ra {
					continue
				}
				pushEdge(pair[0], pair[1])
			}
		}
	}

	// Build output: renumber surviving vertices, remap triangles.
	newIndex := make([]int32, nv)
	for i := range newIndex {
		newIndex[i] = -1
	}
	var outVerts []vecmath.Vec3
	for i := 0; i < nv; i++ {
		r := find(int32(i))
		if int(r) != i {
			continue
		}
		if !alive[r] {
			continue
		}
		newIndex[r] = int32(len(outVerts))
		outVerts = append(outVerts, pos[r])
	}

	var outTris [][3]int32
	for ti, live := range liveTris {
		if !live {
			continue
		}
		t := tris[ti]
		a, b, c := find(t[0]), find(t[1]), find(t[2])
		if a == b || b == c || a == c {
			continue
		}
		ia, ib, ic := newIndex[a], newIndex[b], newIndex[c]
		if ia < 0 || ib < 0 || ic < 0 {
			continue
		}
		outTris = append(outTris, [3]int32{ia, ib, ic})
	}

	return outVerts, outTris, faceNormals(outVerts, outTris), nil
}

func faceNormals(verts []vecmath.Vec3, tris [][3]int32) []vecmath.Vec3 {
	out := make([]vecmath.Vec3, len(tris))
	for i, t := range tris {
		n := verts[t[1]].Sub(verts[t[0]]).Cross(verts[t[2]].Sub(verts[t[0]]))
		out[i] = n.Normalize()
	}
	return out
}
