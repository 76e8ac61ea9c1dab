// SPDX-License-Identifier: Unlicense OR MIT

package lod

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/oOo0oOo/gonanite/internal/dual"
	"github.com/oOo0oOo/gonanite/internal/errormetric"
	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// groupResult is one group's simplified, repartitioned output.
type groupResult struct {
	soups         []clusterSoup // per new local cluster; error left zero, assigned to oldIDs instead
	oldIDs        []int32       // source cluster ids (local to the current layer) this group covers
	groupError    float32       // cost of replacing oldIDs' clusters with this group's output
	localMeshData localMeshData // indexed mesh driving the next coarsening round
}

// groupAndSimplify partitions layer's clusters into simplification
// groups, simplifies each group independently (optionally across a
// bounded worker pool), and merges the groups into the next, coarser
// layer. It returns the next layer, the soup for its new clusters,
// the local (to next) cluster ids each old cluster's group produced,
// and — indexed by the current layer's own cluster id — the cost of
// replacing that cluster with its new parent. That cost belongs to
// the cluster being coarsened away from, not the parent it produces:
// a leaf's own error is the price of promoting it, not a property of
// its own (perfect) geometry.
func (b *DAGBuilder) groupAndSimplify(layer buildLayer) (buildLayer, []clusterSoup, [][]int32, []float32, error) {
	clusterAdj := dual.ClusterAdjacency(layer.triAdj, layer.cluster)
	numGroupsWanted := groupCount(layer.numClusters, b.Config.GroupSize)
	groupOf, err := b.Partitioner.Partition(clusterAdj, numGroupsWanted)
	if err != nil {
		slog.Warn("lod: group partition failed, using a single group", "err", err)
		groupOf = make([]int32, layer.numClusters)
	}
	numGroups := maxPlus1(groupOf)

	clusterTris := make([][]int32, layer.numClusters)
	for ti, c := range layer.cluster {
		clusterTris[c] = append(clusterTris[c], int32(ti))
	}

	clustersInGroup := make([][]int32, numGroups)
	for c, g := range groupOf {
		clustersInGroup[g] = append(clustersInGroup[g], int32(c))
	}

	results := make([]groupResult, numGroups)
	groupErrs := make([]error, numGroups)

	workers := b.Config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > numGroups {
		workers = numGroups
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	jobs := make(chan int, numGroups)
	for g := 0; g < numGroups; g++ {
		jobs <- g
	}
	close(jobs)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range jobs {
				results[g], groupErrs[g] = b.simplifyGroup(layer, clusterTris, clustersInGroup[g])
			}
		}()
	}
	wg.Wait()

	for _, err := range groupErrs {
		if err != nil {
			return buildLayer{}, nil, nil, nil, err
		}
	}

	// Merge groups into the next layer, in group order, with no
	// cross-group vertex dedup: each group's vertices get their own
	// index range, so a vertex on the seam between two groups appears
	// once per group. Triangles on either side of such a seam share no
	// vertex index, and the next layer's triangle adjacency (and the
	// cluster adjacency built from it) has no edges across the seam.
	// The final clusters are soup (no shared indexing) regardless.
	var nextVerts, nextNormals []vecmath.Vec3
	var nextTris [][3]int32
	var nextCluster []int32
	var nextSoups []clusterSoup
	parentsOfCurrent := make([][]int32, layer.numClusters)
	oldErrors := make([]float32, layer.numClusters)
	clusterOffset := 0

	for g := 0; g < numGroups; g++ {
		res := results[g]
		vertOffset := int32(len(nextVerts))
		localVerts, localTris, localNormals, localCluster, localNumClusters := res.localMesh()
		nextVerts = append(nextVerts, localVerts...)
		nextNormals = append(nextNormals, localNormals...)
		for _, t := range localTris {
			nextTris = append(nextTris, [3]int32{t[0] + vertOffset, t[1] + vertOffset, t[2] + vertOffset})
		}
		for _, c := range localCluster {
			nextCluster = append(nextCluster, c+int32(clusterOffset))
		}
		nextSoups = append(nextSoups, res.soups...)

		parentIDs := make([]int32, localNumClusters)
		for k := range parentIDs {
			parentIDs[k] = int32(clusterOffset + k)
		}
		for _, oldID := range res.oldIDs {
			parentsOfCurrent[oldID] = parentIDs
			oldErrors[oldID] = res.groupError
		}
		clusterOffset += localNumClusters
	}

	next := buildLayer{
		verts:       nextVerts,
		normals:     nextNormals,
		tris:        nextTris,
		triAdj:      dual.TriAdjacency(nextTris),
		cluster:     nextCluster,
		numClusters: clusterOffset,
	}
	return next, nextSoups, parentsOfCurrent, oldErrors, nil
}

// simplifyGroup gathers one group's triangles, simplifies them,
// repartitions the result if it is still large, and builds the soup
// and local indexed mesh for each new cluster the group produced.
func (b *DAGBuilder) simplifyGroup(layer buildLayer, clusterTris [][]int32, oldIDs []int32) (groupResult, error) {
	var groupTris [][3]int32
	for _, c := range oldIDs {
		for _, ti := range clusterTris[c] {
			groupTris = append(groupTris, layer.tris[ti])
		}
	}

	localVerts, localTris, localToGlobal := reindex(layer.verts, groupTris)
	target := ceilDiv(len(localTris), 2)
	simpVerts, simpTris, faceNormals, err := b.Simplifier.Simplify(localVerts, localTris, target)
	if err != nil {
		return groupResult{}, err
	}
	_ = localToGlobal

	groupError := errormetric.RMSError(simpVerts, localVerts)
	vertNormals := vertexNormals(simpVerts, simpTris, faceNormals)

	var membership []int32
	numNew := 1
	if len(simpTris) < 4 {
		// SimplifierFailure-adjacent: too few triangles to repartition
		// meaningfully; the group is already coarse and contributes a
		// single-cluster parent.
		membership = make([]int32, len(simpTris))
	} else {
		numNew = newClusterCount(len(simpTris), b.Config.ClusterSize)
		if numNew <= 1 {
			membership = make([]int32, len(simpTris))
		} else {
			adj := dual.TriAdjacency(simpTris)
			m, perr := b.Partitioner.Partition(toWeighted(adj), numNew)
			if perr != nil {
				slog.Warn("lod: cluster partition failed, using a single cluster", "err", perr)
				membership = make([]int32, len(simpTris))
				numNew = 1
			} else {
				membership = m
				numNew = maxPlus1(m)
			}
		}
	}

	soups := make([]clusterSoup, numNew)
	for ti, tri := range simpTris {
		c := membership[ti]
		for _, vi := range tri {
			soups[c].verts = append(soups[c].verts, simpVerts[vi])
			soups[c].normals = append(soups[c].normals, vertNormals[vi])
		}
	}

	return groupResult{
		soups:      soups,
		oldIDs:     oldIDs,
		groupError: groupError,
		localMeshData: localMeshData{
			verts:       simpVerts,
			normals:     vertNormals,
			tris:        simpTris,
			cluster:     membership,
			numClusters: numNew,
		},
	}, nil
}

// localMeshData is the indexed form of a group's simplified output,
// used to drive the next coarsening round.
type localMeshData struct {
	verts       []vecmath.Vec3
	normals     []vecmath.Vec3
	tris        [][3]int32
	cluster     []int32
	numClusters int
}

func (r groupResult) localMesh() ([]vecmath.Vec3, [][3]int32, []vecmath.Vec3, []int32, int) {
	return r.localMeshData.verts, r.localMeshData.tris, r.localMeshData.normals, r.localMeshData.cluster, r.localMeshData.numClusters
}

// reindex builds a locally-indexed (vertex, triangle) mesh from a
// disjoint slice of global-indexed triangles, deduplicating shared
// vertices. The returned slice maps local index back to global index.
func reindex(globalVerts []vecmath.Vec3, tris [][3]int32) ([]vecmath.Vec3, [][3]int32, []int32) {
	localOf := make(map[int32]int32)
	var verts []vecmath.Vec3
	var localToGlobal []int32
	local := func(g int32) int32 {
		if l, ok := localOf[g]; ok {
			return l
		}
		l := int32(len(verts))
		localOf[g] = l
		verts = append(verts, globalVerts[g])
		localToGlobal = append(localToGlobal, g)
		return l
	}

	out := make([][3]int32, len(tris))
	for i, t := range tris {
		out[i] = [3]int32{local(t[0]), local(t[1]), local(t[2])}
	}
	return verts, out, localToGlobal
}

// vertexNormals averages the face normals of every triangle incident
// to each vertex, renormalizing the result.
func vertexNormals(verts []vecmath.Vec3, tris [][3]int32, faceNormals []vecmath.Vec3) []vecmath.Vec3 {
	out := make([]vecmath.Vec3, len(verts))
	for i, t := range tris {
		n := faceNormals[i]
		for _, vi := range t {
			out[vi] = out[vi].Add(n)
		}
	}
	for i, n := range out {
		out[i] = n.Normalize()
	}
	return out
}
