// SPDX-License-Identifier: Unlicense OR MIT

package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oOo0oOo/gonanite/internal/lod"
	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

func sampleDAG() *lod.DAG {
	leaf := lod.Cluster{
		Verts:   []vecmath.Vec3{{X: 0}, {X: 1}, {X: 2}},
		Normals: []vecmath.Vec3{{Y: 1}, {Y: 1}, {Y: 1}},
		UV:      [][2]float32{{0, 0}, {1, 0}, {1, 1}},
		Error:   0,
		Center:  vecmath.Vec3{X: 1},
		Radius:  1,
		Parents: []int32{1},
	}
	root := lod.Cluster{
		Verts:   []vecmath.Vec3{{X: 0}, {X: 1}, {X: 2}},
		Normals: []vecmath.Vec3{{Y: 1}, {Y: 1}, {Y: 1}},
		UV:      [][2]float32{{0, 0}, {1, 0}, {1, 1}},
		Error:   1,
		Center:  vecmath.Vec3{X: 1},
		Radius:  1,
		Parents: nil,
	}
	return &lod.DAG{
		Clusters: []lod.Cluster{leaf, root},
		Children: [][]int32{nil, {0}},
		Root:     1,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mesh.cache")
	dag := sampleDAG()

	require.NoError(t, Save(path, dag, "mesh.obj", "mesh.png"))

	got, err := Load(path)
	require.NoError(t, err)
	require.Len(t, got.Clusters, len(dag.Clusters))

	assert.Equal(t, dag.Root, got.Root)
	for i, c := range dag.Clusters {
		assert.Equal(t, c.Verts, got.Clusters[i].Verts)
		assert.Equal(t, c.Error, got.Clusters[i].Error)
		assert.Equal(t, c.Parents, got.Clusters[i].Parents)
	}
	assert.Equal(t, dag.Children, got.Children)
}

func TestLoadMissingFileReportsNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.cache"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCorruptFileIsCacheCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.cache")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrCacheCorrupt)
}
