// SPDX-License-Identifier: Unlicense OR MIT

package render

import (
	"sort"
	"strconv"

	"github.com/oOo0oOo/gonanite/internal/lod"
	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// ClusterRenderer holds the three equal-length buffers (positions,
// normals, uvs) that reflect one instance's current live cut, and the
// texture they're drawn with. SetCut concatenates every cut cluster's
// soup in cut order, and re-concatenates only when the cut's cluster
// set changed since the last call; Draw only issues the draw, matching the original tool's
// "first call allocates; subsequent calls resize or overwrite" buffer
// contract from a CPU-side backing store instead of a GPU one.
type ClusterRenderer struct {
	Texture *Texture

	verts   []vecmath.Vec3
	normals []vecmath.Vec3
	uv      [][2]float32

	lastCutKey string
}

// NewClusterRenderer returns a ClusterRenderer drawing with tex.
func NewClusterRenderer(tex *Texture) *ClusterRenderer {
	return &ClusterRenderer{Texture: tex}
}

// SetCut rebuilds the concatenated buffers from dag's clusters named
// by cut, in cut's order. Safe to call every frame; it is a no-op
// unless the cut's cluster set actually differs from last time.
func (cr *ClusterRenderer) SetCut(dag *lod.DAG, cut []int32) {
	key := cutKey(cut)
	if key == cr.lastCutKey {
		return
	}
	cr.lastCutKey = key

	cr.verts = cr.verts[:0]
	cr.normals = cr.normals[:0]
	cr.uv = cr.uv[:0]
	for _, c := range cut {
		cl := dag.Clusters[c]
		cr.verts = append(cr.verts, cl.Verts...)
		cr.normals = append(cr.normals, cl.Normals...)
		cr.uv = append(cr.uv, cl.UV...)
	}
}

// Draw issues a single triangle-list draw of the current cut's
// buffers against r.
func (cr *ClusterRenderer) Draw(r Renderer) {
	if len(cr.verts) == 0 {
		return
	}
	r.DrawTriangles(cr.verts, cr.normals, cr.uv, cr.Texture)
}

// cutKey builds a deterministic identity for a cut's cluster set so
// SetCut can detect "nothing changed" without re-concatenating every
// frame; cluster ids are small dense integers, so a delimited decimal
// join is cheap and collision-free.
func cutKey(cut []int32) string {
	// Cut order is not guaranteed stable across CutSelector.Step calls
	// (map iteration), so the key must be order-independent: sum and
	// count alone would collide too easily, so every id is written,
	// sorted, into the key.
	ids := append([]int32(nil), cut...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var b []byte
	for _, id := range ids {
		b = strconv.AppendInt(b, int64(id), 10)
		b = append(b, ',')
	}
	return string(b)
}
