// SPDX-License-Identifier: Unlicense OR MIT

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oOo0oOo/gonanite/internal/lod"
	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

func twoClusterDAG() *lod.DAG {
	tri := func(x float32) []vecmath.Vec3 { return []vecmath.Vec3{{X: x}, {X: x + 1}, {X: x + 2}} }
	c0 := lod.Cluster{Verts: tri(0), Normals: tri(0), UV: [][2]float32{{0, 0}, {1, 0}, {1, 1}}}
	c1 := lod.Cluster{Verts: tri(10), Normals: tri(10), UV: [][2]float32{{0, 0}, {1, 0}, {1, 1}}}
	return &lod.DAG{Clusters: []lod.Cluster{c0, c1}, Children: [][]int32{nil, nil}, Root: 1}
}

func TestSetCutConcatenatesClusterBuffers(t *testing.T) {
	dag := twoClusterDAG()
	cr := NewClusterRenderer(nil)
	cr.SetCut(dag, []int32{0, 1})

	require.Len(t, cr.verts, 6)
	require.Len(t, cr.uv, 6)
	assert.Equal(t, dag.Clusters[0].Verts[0], cr.verts[0])
	assert.Equal(t, dag.Clusters[1].Verts[0], cr.verts[3])
}

func TestSetCutSkipsRebuildWhenCutUnchanged(t *testing.T) {
	dag := twoClusterDAG()
	cr := NewClusterRenderer(nil)
	cr.SetCut(dag, []int32{0, 1})
	firstVerts := append([]vecmath.Vec3(nil), cr.verts...)

	// Same cluster set, different slice order: must be treated as the
	// same cut (cutKey is order-independent) and left untouched.
	cr.SetCut(dag, []int32{1, 0})
	assert.Equal(t, firstVerts, cr.verts)
}

func TestSetCutRebuildsWhenCutChanges(t *testing.T) {
	dag := twoClusterDAG()
	cr := NewClusterRenderer(nil)
	cr.SetCut(dag, []int32{0})
	require.Len(t, cr.verts, 3)

	cr.SetCut(dag, []int32{0, 1})
	assert.Len(t, cr.verts, 6)
}

func TestDrawSkipsEmptyCut(t *testing.T) {
	cr := NewClusterRenderer(nil)
	r := NewSoftwareRasterizer(4, 4)
	r.Clear()
	before := append([]byte(nil), r.Framebuffer().Pix...)
	cr.Draw(r)
	assert.Equal(t, before, r.Framebuffer().Pix)
}
