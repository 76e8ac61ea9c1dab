// SPDX-License-Identifier: Unlicense OR MIT

// Package cache persists a built cluster DAG to disk so repeat runs
// against the same source mesh skip the offline build.
package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"

	"github.com/oOo0oOo/gonanite/internal/lod"
	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// version is bumped whenever the on-disk record shape changes.
// Loading a file written by a different version is a CacheCorrupt.
const version = 1

// ErrCacheCorrupt reports a cache file that exists but could not be
// decoded, or was written by an incompatible version. Callers should
// treat it exactly like a miss and rebuild.
var ErrCacheCorrupt = errors.New("cache: corrupt or incompatible cache file")

// record is the gob-serialised on-disk shape. Field names are part of
// the wire format once shipped; cluster_parents/children are built as
// CSR-style flat arrays to keep the encoding simple.
type record struct {
	Version    int
	ObjPath    string
	TexturePath string

	ParentsFlat []int32
	ParentsOff  []int32 // ParentsOff[i]:ParentsOff[i+1] indexes ParentsFlat for cluster i
	ChildrenFlat []int32
	ChildrenOff  []int32

	Verts   [][]vecmath.Vec3
	Normals [][]vecmath.Vec3
	UV      [][][2]float32
	Error   []float32
	Center  []vecmath.Vec3
	Radius  []float32
	Root    int32
}

// Load reads a DAG previously written by Save. A missing file is
// reported as (nil, os.ErrNotExist) — not an error condition the
// caller needs to log, per §7 CacheMiss; a file that exists but fails
// to decode, or carries a stale version, is ErrCacheCorrupt, which the
// caller treats identically to a miss (rebuild, don't abort).
func Load(path string) (*lod.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	defer f.Close()

	var rec record
	if err := gob.NewDecoder(f).Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCacheCorrupt, path, err)
	}
	if rec.Version != version {
		return nil, fmt.Errorf("%w: %s: version %d, want %d", ErrCacheCorrupt, path, rec.Version, version)
	}

	n := len(rec.Verts)
	clusters := make([]lod.Cluster, n)
	children := make([][]int32, n)
	for i := 0; i < n; i++ {
		clusters[i] = lod.Cluster{
			Verts:   rec.Verts[i],
			Normals: rec.Normals[i],
			UV:      rec.UV[i],
			Error:   rec.Error[i],
			Center:  rec.Center[i],
			Radius:  rec.Radius[i],
			Parents: sliceCSR(rec.ParentsFlat, rec.ParentsOff, i),
		}
		children[i] = sliceCSR(rec.ChildrenFlat, rec.ChildrenOff, i)
	}

	return &lod.DAG{Clusters: clusters, Children: children, Root: rec.Root}, nil
}

// Save writes dag to path, overwriting any existing file. objPath and
// texturePath are stored in the file; Load does not return them and
// does not compare them against the current source assets.
func Save(path string, dag *lod.DAG, objPath, texturePath string) error {
	n := len(dag.Clusters)
	rec := record{
		Version:     version,
		ObjPath:     objPath,
		TexturePath: texturePath,
		Verts:       make([][]vecmath.Vec3, n),
		Normals:     make([][]vecmath.Vec3, n),
		UV:          make([][][2]float32, n),
		Error:       make([]float32, n),
		Center:      make([]vecmath.Vec3, n),
		Radius:      make([]float32, n),
		ParentsOff:  make([]int32, n+1),
		ChildrenOff: make([]int32, n+1),
		Root:        dag.Root,
	}

	for i, c := range dag.Clusters {
		rec.Verts[i] = c.Verts
		rec.Normals[i] = c.Normals
		rec.UV[i] = c.UV
		rec.Error[i] = c.Error
		rec.Center[i] = c.Center
		rec.Radius[i] = c.Radius
		rec.ParentsFlat = append(rec.ParentsFlat, c.Parents...)
		rec.ParentsOff[i+1] = int32(len(rec.ParentsFlat))
		rec.ChildrenFlat = append(rec.ChildrenFlat, dag.Children[i]...)
		rec.ChildrenOff[i+1] = int32(len(rec.ChildrenFlat))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cache: create %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("cache: encode %s: %w", path, err)
	}
	return nil
}

func sliceCSR(flat, offsets []int32, i int) []int32 {
	start, end := offsets[i], offsets[i+1]
	if start == end {
		return nil
	}
	return append([]int32(nil), flat[start:end]...)
}
