// SPDX-License-Identifier: Unlicense OR MIT

package lod

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oOo0oOo/gonanite/internal/meshio"
	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// gridMesh builds an nxn grid of quads (2*n*n triangles) as a
// stand-in for a loaded OBJ mesh, large enough to exercise more than
// one coarsening layer under small test-sized cluster/group configs.
func gridMesh(n int) *meshio.Mesh {
	var verts []vecmath.Vec3
	var normals []vecmath.Vec3
	var uv [][2]float32
	index := func(x, y int) int32 { return int32(y*(n+1) + x) }
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			verts = append(verts, vecmath.Vec3{X: float32(x), Y: 0, Z: float32(y)})
			normals = append(normals, vecmath.Vec3{X: 0, Y: 1, Z: 0})
			uv = append(uv, [2]float32{float32(x) / float32(n), float32(y) / float32(n)})
		}
	}
	var tris [][3]int32
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a, b, c, d := index(x, y), index(x+1, y), index(x+1, y+1), index(x, y+1)
			tris = append(tris, [3]int32{a, b, c})
			tris = append(tris, [3]int32{a, c, d})
		}
	}
	return &meshio.Mesh{Vertices: verts, Normals: normals, UV: uv, Tris: tris}
}

func testBuilder() *DAGBuilder {
	b := NewDAGBuilder()
	b.Config = Config{ClusterSizeInitial: 8, ClusterSize: 6, GroupSize: 2, Epsilon: 0.001, Workers: 2}
	return b
}

func TestBuildProducesSingleRoot(t *testing.T) {
	mesh := gridMesh(8)
	dag, err := testBuilder().Build(mesh)
	require.NoError(t, err)
	require.NotEmpty(t, dag.Clusters)

	root := dag.Clusters[dag.Root]
	assert.Empty(t, root.Parents, "root must have no parents")
	assert.NotEmpty(t, root.Verts, "root must carry real geometry so it is directly drawable")
}

// TestBuildLOD0TriangleCountMatchesInput checks P1 (tiling) at LOD 0:
// the triangle soup of the LOD 0 clusters, taken together, covers
// exactly the input triangle count, with no duplication or omission.
func TestBuildLOD0TriangleCountMatchesInput(t *testing.T) {
	mesh := gridMesh(6)
	b := testBuilder()
	layer0, soup0 := b.buildLOD0(mesh)

	triVerts := 0
	for _, s := range soup0 {
		triVerts += len(s.verts)
	}
	assert.Equal(t, len(mesh.Tris)*3, triVerts)
	assert.Equal(t, len(mesh.Tris), len(layer0.tris))
}

func TestBuildErrorMonotonicAlongEveryEdge(t *testing.T) {
	mesh := gridMesh(8)
	dag, err := testBuilder().Build(mesh)
	require.NoError(t, err)

	for g, c := range dag.Clusters {
		for _, childID := range dag.Children[g] {
			child := dag.Clusters[childID]
			assert.GreaterOrEqual(t, c.Error, child.Error,
				"parent %d error %f must be >= child %d error %f", g, c.Error, childID, child.Error)
		}
	}
}

func TestBuildBoundingSphereContainsChildren(t *testing.T) {
	mesh := gridMesh(8)
	dag, err := testBuilder().Build(mesh)
	require.NoError(t, err)

	const tau = 1e-4
	for g, c := range dag.Clusters {
		for _, childID := range dag.Children[g] {
			child := dag.Clusters[childID]
			dist := c.Center.Sub(child.Center).Len()
			assert.LessOrEqual(t, dist+child.Radius, c.Radius+tau,
				"parent %d sphere must enclose child %d sphere", g, childID)
		}
	}
}

func TestBuildCoParentsShareIdenticalChildSet(t *testing.T) {
	mesh := gridMesh(8)
	dag, err := testBuilder().Build(mesh)
	require.NoError(t, err)

	// P2: co-parent closure. Group clusters by their (sorted) parent
	// set and verify every parent in that set reports the exact same
	// children set.
	parentSetKey := func(parents []int32) string {
		out := ""
		for _, p := range parents {
			out += fmt.Sprintf(",%d", p)
		}
		return out
	}
	seen := map[string][]int32{}
	for _, c := range dag.Clusters {
		if len(c.Parents) == 0 {
			continue
		}
		seen[parentSetKey(c.Parents)] = c.Parents
	}
	for _, parents := range seen {
		if len(parents) < 2 {
			continue
		}
		first := dag.Children[parents[0]]
		for _, p := range parents[1:] {
			assert.ElementsMatch(t, first, dag.Children[p],
				"co-parents %v must share an identical child set", parents)
		}
	}
}

func TestBuildUVInheritedForCoarserLayers(t *testing.T) {
	mesh := gridMesh(8)
	dag, err := testBuilder().Build(mesh)
	require.NoError(t, err)

	foundCoarse := false
	for g, c := range dag.Clusters {
		if len(dag.Children[g]) == 0 {
			continue // LOD 0 leaf
		}
		require.Len(t, c.UV, len(c.Verts))
		foundCoarse = true
	}
	assert.True(t, foundCoarse, "expected at least one coarsened cluster above LOD 0")
}

func TestBuildRejectsEmptyMesh(t *testing.T) {
	_, err := testBuilder().Build(&meshio.Mesh{})
	assert.Error(t, err)
}
