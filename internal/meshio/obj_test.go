// SPDX-License-Identifier: Unlicense OR MIT

package meshio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOBJ(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mesh.obj")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOBJTriangle(t *testing.T) {
	path := writeOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`)
	mesh, err := LoadOBJ(path)
	require.NoError(t, err)
	require.Len(t, mesh.Vertices, 3)
	require.Len(t, mesh.Tris, 1)
	assert.Equal(t, [3]int32{0, 1, 2}, mesh.Tris[0])
	for _, n := range mesh.Normals {
		assert.Equal(t, float32(1), n.Z)
	}
}

func TestLoadOBJQuadSplitsIntoTwoTriangles(t *testing.T) {
	path := writeOBJ(t, `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`)
	mesh, err := LoadOBJ(path)
	require.NoError(t, err)
	require.Len(t, mesh.Tris, 2)
	assert.Equal(t, [3]int32{0, 1, 2}, mesh.Tris[0])
	assert.Equal(t, [3]int32{0, 2, 3}, mesh.Tris[1])
}

func TestLoadOBJNormalizesToUnitRange(t *testing.T) {
	path := writeOBJ(t, `
v 0 0 0
v 10 0 0
v 0 0 0
f 1 2 3
`)
	mesh, err := LoadOBJ(path)
	require.NoError(t, err)
	assert.Equal(t, float32(0), mesh.Vertices[0].X)
	assert.Equal(t, float32(1), mesh.Vertices[1].X)
}

// A face that omits vt/vn on some vertices while the file still carries
// vt/vn lines elsewhere must not look those up with the sentinel -1
// index: doing so would index texCoords/normals out of bounds.
func TestLoadOBJFaceWithMissingTexCoordAndNormal(t *testing.T) {
	path := writeOBJ(t, `
v 0 0 0
v 1 0 0
v 0 1 0
vt 0.5 0.5
vn 0 1 0
f 1 2 3
`)
	mesh, err := LoadOBJ(path)
	require.NoError(t, err)
	require.Len(t, mesh.Vertices, 3)
	for _, uv := range mesh.UV {
		assert.Equal(t, [2]float32{0, 0}, uv)
	}
	for _, n := range mesh.Normals {
		assert.Equal(t, float32(1), n.Y)
	}
}

func TestLoadOBJRejectsBadFaceVertexCount(t *testing.T) {
	path := writeOBJ(t, `
v 0 0 0
v 1 0 0
f 1 2
`)
	_, err := LoadOBJ(path)
	require.Error(t, err)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
