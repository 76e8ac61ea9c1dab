// SPDX-License-Identifier: Unlicense OR MIT

// Package meshio parses the triangle-mesh subset of the Wavefront OBJ
// format consumed by the LOD builder, and loads the diffuse texture
// that goes with it.
package meshio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// ParseError reports a malformed OBJ file. It is fatal: callers abort
// the build rather than guess at recovery.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("meshio: %s:%d: %s", e.Path, e.Line, e.Msg)
}

// Mesh is LOD 0 of the input asset: vertices with aligned normals and
// uvs, plus the triangle index list.
type Mesh struct {
	Vertices []vecmath.Vec3
	Normals  []vecmath.Vec3
	UV       [][2]float32
	Tris     [][3]int32
}

// LoadOBJ parses the `v`/`vt`/`vn`/`f` subset described in spec.md §6,
// splits quads into two triangles, and normalises vertex coordinates
// so that the global minimum channel value is 0 and the global
// maximum is 1 (matching the original tool's single-scalar min/max
// normalisation, not a per-axis one).
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("meshio: open %s: %w", path, err)
	}
	defer f.Close()

	var (
		positions []vecmath.Vec3
		texCoords [][2]float32
		normals   []vecmath.Vec3
		tris      [][3]int32
		vtOf      = map[int32]int32{}
		vnOf      = map[int32]int32{}
	)

	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scan.Scan() {
		line++
		text := scan.Text()
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, &ParseError{path, line, err.Error()}
			}
			positions = append(positions, vecmath.Vec3{X: v[0], Y: v[1], Z: v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, &ParseError{path, line, err.Error()}
			}
			texCoords = append(texCoords, [2]float32{v[0], v[1]})
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, &ParseError{path, line, err.Error()}
			}
			normals = append(normals, vecmath.Vec3{X: v[0], Y: v[1], Z: v[2]})
		case "f":
			faceVerts, err := parseFace(fields[1:])
			if err != nil {
				return nil, &ParseError{path, line, err.Error()}
			}
			for _, fv := range faceVerts {
				if fv.vt >= 0 {
					vtOf[fv.v] = fv.vt
				}
				if fv.vn >= 0 {
					vnOf[fv.v] = fv.vn
				}
			}
			switch len(faceVerts) {
			case 3:
				tris = append(tris, [3]int32{faceVerts[0].v, faceVerts[1].v, faceVerts[2].v})
			case 4:
				tris = append(tris, [3]int32{faceVerts[0].v, faceVerts[1].v, faceVerts[2].v})
				tris = append(tris, [3]int32{faceVerts[0].v, faceVerts[2].v, faceVerts[3].v})
			default:
				return nil, &ParseError{path, line, "face must have 3 or 4 vertices"}
			}
		}
	}
	if err := scan.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("meshio: read %s: %w", path, err)
	}

	uv := make([][2]float32, len(positions))
	nrm := make([]vecmath.Vec3, len(positions))
	for i := range positions {
		if t, ok := vtOf[int32(i)]; ok && int(t) < len(texCoords) {
			uv[i] = texCoords[t]
		}
		if n, ok := vnOf[int32(i)]; ok && int(n) < len(normals) {
			nrm[i] = normals[n]
		} else {
			nrm[i] = vecmath.Vec3{X: 0, Y: 1, Z: 0}
		}
	}

	normalizeInPlace(positions)

	return &Mesh{Vertices: positions, Normals: nrm, UV: uv, Tris: tris}, nil
}

type faceVertex struct {
	v, vt, vn int32
}

// parseFace parses "v/vt/vn" triples (vt/vn optional) with 1-based
// indices, converting to 0-based. A missing vt/vn component is
// reported as index -1.
func parseFace(fields []string) ([]faceVertex, error) {
	out := make([]faceVertex, 0, len(fields))
	for _, field := range fields {
		parts := strings.Split(field, "/")
		v, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("bad face vertex index %q", field)
		}
		fv := faceVertex{v: int32(v - 1), vt: -1, vn: -1}
		if len(parts) > 1 && parts[1] != "" {
			vt, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, fmt.Errorf("bad face texture index %q", field)
			}
			fv.vt = int32(vt - 1)
		}
		if len(parts) > 2 && parts[2] != "" {
			vn, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("bad face normal index %q", field)
			}
			fv.vn = int32(vn - 1)
		}
		out = append(out, fv)
	}
	return out, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d components, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("bad float %q", fields[i])
		}
		out[i] = float32(v)
	}
	return out, nil
}

// normalizeInPlace shifts and scales verts so the global minimum
// channel value maps to 0 and the global maximum maps to 1.
func normalizeInPlace(verts []vecmath.Vec3) {
	if len(verts) == 0 {
		return
	}
	min, max := verts[0].X, verts[0].X
	consider := func(c float32) {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	for _, v := range verts {
		consider(v.X)
		consider(v.Y)
		consider(v.Z)
	}
	span := max - min
	if span == 0 {
		span = 1
	}
	for i, v := range verts {
		verts[i] = vecmath.Vec3{
			X: (v.X - min) / span,
			Y: (v.Y - min) / span,
			Z: (v.Z - min) / span,
		}
	}
}
