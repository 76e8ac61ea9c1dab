// SPDX-License-Identifier: Unlicense OR MIT

// Package lod builds the cluster DAG: a hierarchy of triangle clusters
// produced by repeatedly partitioning, simplifying and regrouping a
// mesh until a single root cluster remains.
package lod

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/oOo0oOo/gonanite/internal/dual"
	"github.com/oOo0oOo/gonanite/internal/errormetric"
	"github.com/oOo0oOo/gonanite/internal/meshio"
	"github.com/oOo0oOo/gonanite/internal/partition"
	"github.com/oOo0oOo/gonanite/internal/simplify"
	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// Config holds the tuning constants of the builder.
type Config struct {
	ClusterSizeInitial int     // target triangles per LOD 0 cluster
	ClusterSize        int     // target triangles per cluster at coarser layers
	GroupSize          int     // target clusters per simplification group
	Epsilon            float32 // monotonic error lift factor
	Workers            int     // bounded goroutine count for per-group simplification; 0 means runtime.GOMAXPROCS(0)
}

// DefaultConfig returns the constants used by the reference builder.
func DefaultConfig() Config {
	return Config{
		ClusterSizeInitial: 160,
		ClusterSize:        128,
		GroupSize:          8,
		Epsilon:            0.001,
	}
}

// Cluster is one node of the cluster DAG. Verts/Normals/UV are an
// unindexed triangle soup (3 aligned entries per triangle), ready to
// hand straight to a renderer. Index 0 is not reserved; an empty
// Parents slice marks the DAG root.
type Cluster struct {
	Verts   []vecmath.Vec3
	Normals []vecmath.Vec3
	UV      [][2]float32
	Error   float32
	Center  vecmath.Vec3
	Radius  float32
	Parents []int32
}

// DAG is the immutable result of a build: a flat, globally renumbered
// cluster list plus each cluster's children (the reverse of Parents).
type DAG struct {
	Clusters []Cluster
	Children [][]int32
	Root     int32
}

// DAGBuilder constructs a DAG from a loaded mesh.
type DAGBuilder struct {
	Partitioner partition.Partitioner
	Simplifier  simplify.Simplifier
	Config      Config
}

// NewDAGBuilder returns a builder using the default partitioner,
// simplifier and config.
func NewDAGBuilder() *DAGBuilder {
	return &DAGBuilder{
		Partitioner: partition.NewMSTBisector(),
		Simplifier:  simplify.NewQuadricCollapser(),
		Config:      DefaultConfig(),
	}
}

// buildLayer is the indexed working representation used while
// building: it drives the next round of grouping and simplification.
// It is discarded once the layer's clusters have been soup-ified into
// the final DAG.
type buildLayer struct {
	verts       []vecmath.Vec3
	normals     []vecmath.Vec3
	tris        [][3]int32
	triAdj      [][]int32
	cluster     []int32 // per-tri cluster id, dense 0..numClusters-1
	numClusters int
}

// clusterSoup is a cluster's final per-vertex payload before global
// assembly assigns it a DAG index and UV.
type clusterSoup struct {
	verts   []vecmath.Vec3
	normals []vecmath.Vec3
	uv      [][2]float32 // nil until UV inheritance fills it in; LOD 0 sets it directly
	error   float32
}

// Build runs the full offline pipeline (§4.4): LOD 0 construction,
// iterative coarsening to a single root, global renumbering, the
// bottom-up bounding-sphere/error-monotonicity pass, and UV
// inheritance for every cluster above LOD 0.
func (b *DAGBuilder) Build(mesh *meshio.Mesh) (*DAG, error) {
	if len(mesh.Tris) == 0 {
		return nil, fmt.Errorf("lod: empty mesh")
	}

	layer0, soup0 := b.buildLOD0(mesh)
	layers := []buildLayer{layer0}
	soups := [][]clusterSoup{soup0}
	var parentsPerLayer [][][]int32

	for layers[len(layers)-1].numClusters > 1 {
		curIdx := len(layers) - 1
		cur := layers[curIdx]
		layerStart := time.Now()
		next, nextSoup, parentsOfCur, oldErrors, err := b.groupAndSimplify(cur)
		if err != nil {
			return nil, err
		}
		// The error this round computes is the cost of replacing cur's own
		// clusters with next's; it belongs to cur (the finer layer being
		// coarsened away from), not to the new clusters next produces.
		for c, e := range oldErrors {
			soups[curIdx][c].error = e
		}
		slog.Info("lod: built layer", "index", len(layers), "clusters", next.numClusters, "tris", len(next.tris), "elapsed", time.Since(layerStart))
		parentsPerLayer = append(parentsPerLayer, parentsOfCur)
		layers = append(layers, next)
		soups = append(soups, nextSoup)
	}
	parentsPerLayer = append(parentsPerLayer, make([][]int32, layers[len(layers)-1].numClusters))

	// Termination: the lone top cluster becomes the root. It never went
	// through a coarsening round of its own, so its error was never set
	// by the loop above; a root without a real parent to compare against
	// instead gets 1.5x the worst error of the layer just below it, and
	// stays directly drawable as the initial live cut rather than a
	// geometry-less wrapper node.
	lastLayer := len(layers) - 1
	var maxBelowErr float32
	if lastLayer > 0 {
		for _, s := range soups[lastLayer-1] {
			if s.error > maxBelowErr {
				maxBelowErr = s.error
			}
		}
	}
	soups[lastLayer][0].error = maxBelowErr * 1.5

	offsets := make([]int, len(layers))
	total := 0
	for i, l := range layers {
		offsets[i] = total
		total += l.numClusters
	}

	clusters := make([]Cluster, total)
	for i := range layers {
		for c := 0; c < layers[i].numClusters; c++ {
			g := offsets[i] + c
			s := soups[i][c]
			var parentsGlobal []int32
			if i+1 < len(layers) {
				for _, p := range parentsPerLayer[i][c] {
					parentsGlobal = append(parentsGlobal, int32(offsets[i+1])+p)
				}
			}
			clusters[g] = Cluster{Verts: s.verts, Normals: s.normals, UV: s.uv, Error: s.error, Parents: parentsGlobal}
		}
	}

	children := make([][]int32, total)
	for g, c := range clusters {
		for _, p := range c.Parents {
			children[p] = append(children[p], int32(g))
		}
	}

	if len(layers) > 1 {
		lod0Tree := errormetric.NewKDTree(mesh.Vertices)
		for g := offsets[1]; g < total; g++ {
			cl := &clusters[g]
			cl.UV = make([][2]float32, len(cl.Verts))
			for vi, v := range cl.Verts {
				cl.UV[vi] = errormetric.InheritUV(lod0Tree, mesh.UV, v, 1e-8)
			}
		}
	}

	// Bottom-up bounding-sphere and error-monotonicity pass. Parents
	// always sit at a higher global id than their children (later
	// layers are appended after earlier ones), so ascending order is
	// leaves-first.
	for g := 0; g < total; g++ {
		c := &clusters[g]
		sphere := vecmath.BoundingSphere(c.Verts)
		c.Center, c.Radius = sphere.Center, sphere.Radius

		kids := children[g]
		if len(kids) == 0 {
			continue
		}
		spheres := []vecmath.Sphere{{Center: c.Center, Radius: c.Radius}}
		var maxKidErr float32
		for _, k := range kids {
			kc := clusters[k]
			spheres = append(spheres, vecmath.Sphere{Center: kc.Center, Radius: kc.Radius})
			if kc.Error > maxKidErr {
				maxKidErr = kc.Error
			}
		}
		sort.Slice(spheres, func(i, j int) bool { return spheres[i].Radius > spheres[j].Radius })
		merged := vecmath.MergeSpheres(spheres)
		c.Center, c.Radius = merged.Center, merged.Radius
		if c.Error <= maxKidErr {
			c.Error = maxKidErr * (1 + b.Config.Epsilon)
		}
	}

	return &DAG{Clusters: clusters, Children: children, Root: int32(total - 1)}, nil
}

func (b *DAGBuilder) buildLOD0(mesh *meshio.Mesh) (buildLayer, []clusterSoup) {
	triAdj := dual.TriAdjacency(mesh.Tris)
	numClusters := ceilDiv(len(mesh.Tris), b.Config.ClusterSizeInitial)
	if numClusters < 1 {
		numClusters = 1
	}
	membership, err := b.Partitioner.Partition(toWeighted(triAdj), numClusters)
	if err != nil {
		slog.Warn("lod: LOD 0 partition failed, using a single cluster", "err", err)
		membership = make([]int32, len(mesh.Tris))
	}

	layer := buildLayer{
		verts:       mesh.Vertices,
		normals:     mesh.Normals,
		tris:        mesh.Tris,
		triAdj:      triAdj,
		cluster:     membership,
		numClusters: maxPlus1(membership),
	}

	soups := make([]clusterSoup, layer.numClusters)
	for ti, tri := range mesh.Tris {
		c := membership[ti]
		for _, vi := range tri {
			soups[c].verts = append(soups[c].verts, mesh.Vertices[vi])
			soups[c].normals = append(soups[c].normals, mesh.Normals[vi])
			soups[c].uv = append(soups[c].uv, mesh.UV[vi])
		}
	}
	return layer, soups
}

func toWeighted(adj [][]int32) [][]dual.WeightedEdge {
	out := make([][]dual.WeightedEdge, len(adj))
	for i, neighbors := range adj {
		edges := make([]dual.WeightedEdge, len(neighbors))
		for j, n := range neighbors {
			edges[j] = dual.WeightedEdge{To: n, Weight: 1}
		}
		out[i] = edges
	}
	return out
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

func maxPlus1(membership []int32) int {
	m := int32(-1)
	for _, c := range membership {
		if c > m {
			m = c
		}
	}
	return int(m) + 1
}

// groupCount picks the number of simplification groups for a layer of
// k clusters (§4.4 step 3).
func groupCount(k, groupSize int) int {
	if k > 2*groupSize {
		return k / groupSize
	}
	if k > 4 {
		return 2
	}
	return 1
}

// newClusterCount picks how many clusters a group's simplified output
// repartitions into (§4.4 step 4).
func newClusterCount(triCount, clusterSize int) int {
	if triCount > 2*clusterSize {
		return ceilDiv(triCount, clusterSize)
	}
	return 1
}
