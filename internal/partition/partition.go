// SPDX-License-Identifier: Unlicense OR MIT

// Package partition assigns graph nodes (triangles, or clusters) to a
// requested number of parts, minimizing the adjacency weight cut
// between parts.
package partition

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/prim_kruskal"

	"github.com/oOo0oOo/gonanite/internal/dual"
)

// ErrPartitionerFailure wraps any underlying graph-algorithm failure
// the Partitioner could not recover from on its own.
var ErrPartitionerFailure = errors.New("partition: partitioner failed")

// Partitioner groups the nodes of a weighted adjacency graph into a
// requested number of parts. Implementations may fall back to a single
// part (all nodes assigned 0) rather than fail outright; callers that
// need a hard failure should check the returned error.
type Partitioner interface {
	Partition(adjacency [][]dual.WeightedEdge, numParts int) (membership []int32, err error)
}

// MSTBisector partitions by computing a minimum spanning tree over the
// adjacency (edge weight = desirability of staying together) and
// repeatedly cutting one MST edge at a time until the forest has the
// requested number of components. Each cut is chosen to minimize a
// score combining the edge's weight with how unevenly it would split
// its component, balancing the dual objective in spec.md §4.2
// (minimize cut weight, keep part sizes close) rather than optimizing
// cut weight alone.
type MSTBisector struct{}

// NewMSTBisector returns the default Partitioner.
func NewMSTBisector() *MSTBisector { return &MSTBisector{} }

func (p *MSTBisector) Partition(adjacency [][]dual.WeightedEdge, numParts int) ([]int32, error) {
	n := len(adjacency)
	if n == 0 {
		return nil, nil
	}
	if numParts <= 1 {
		return singlePartition(n), nil
	}
	if numParts >= n {
		return identityPartition(n), nil
	}

	g := core.NewGraph(core.WithWeighted())
	unweighted := core.NewGraph()
	for i := 0; i < n; i++ {
		if err := g.AddVertex(strconv.Itoa(i)); err != nil {
			return singlePartition(n), fmt.Errorf("%w: add vertex: %v", ErrPartitionerFailure, err)
		}
		if err := unweighted.AddVertex(strconv.Itoa(i)); err != nil {
			return singlePartition(n), fmt.Errorf("%w: add vertex: %v", ErrPartitionerFailure, err)
		}
	}
	seen := make(map[[2]int32]bool)
	for from, edges := range adjacency {
		for _, e := range edges {
			key := [2]int32{int32(from), e.To}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			w := e.Weight
			if w <= 0 {
				w = 1
			}
			if _, err := g.AddEdge(strconv.Itoa(from), strconv.Itoa(int(e.To)), int64(w)); err != nil {
				return singlePartition(n), fmt.Errorf("%w: add edge: %v", ErrPartitionerFailure, err)
			}
			if _, err := unweighted.AddEdge(strconv.Itoa(from), strconv.Itoa(int(e.To)), 0); err != nil {
				return singlePartition(n), fmt.Errorf("%w: add edge: %v", ErrPartitionerFailure, err)
			}
		}
	}

	// A BFS from node 0 that doesn't reach every vertex means the
	// adjacency is disconnected; bail out to a single partition before
	// even attempting the MST rather than relying on Kruskal's error
	// return to notice it.
	reach, err := bfs.BFS(unweighted, "0")
	if err != nil {
		return singlePartition(n), fmt.Errorf("%w: connectivity check: %v", ErrPartitionerFailure, err)
	}
	if len(reach.Order) != n {
		return singlePartition(n), nil
	}

	mstEdges, _, err := prim_kruskal.Kruskal(g)
	if err != nil {
		// Any other Kruskal failure degrades gracefully to a single
		// partition, per the partitioner's documented failure mode.
		return singlePartition(n), nil
	}

	edges := make([]bisectEdge, len(mstEdges))
	for i, e := range mstEdges {
		from, _ := strconv.Atoi(e.From)
		to, _ := strconv.Atoi(e.To)
		edges[i] = bisectEdge{from: from, to: to, weight: float64(e.Weight)}
	}

	cuts := numParts - 1
	if cuts > len(edges) {
		cuts = len(edges)
	}
	cut := make([]bool, len(edges))
	for i := 0; i < cuts; i++ {
		best := bestCutCandidate(n, edges, cut)
		if best < 0 {
			break
		}
		cut[best] = true
	}

	dsu := newDSU(n)
	for i, e := range edges {
		if !cut[i] {
			dsu.union(e.from, e.to)
		}
	}

	membership := make([]int32, n)
	rootID := make(map[int]int32)
	next := int32(0)
	for i := 0; i < n; i++ {
		r := dsu.find(i)
		id, ok := rootID[r]
		if !ok {
			id = next
			rootID[r] = id
			next++
		}
		membership[i] = id
	}
	return membership, nil
}

// bisectEdge is one MST edge with its endpoints resolved back to
// adjacency-matrix node indices.
type bisectEdge struct {
	from, to int
	weight   float64
}

// bestCutCandidate scores every edge not yet in cut by how well
// removing it would balance the component it sits in, and returns the
// index of the best one (or -1 if no component has an internal edge
// left to cut). For each component the edges form a tree, so cutting
// any one edge splits it into exactly two parts; the score favors
// light edges whose removal produces a near-even split, rather than
// the globally lightest edge regardless of the split it produces.
func bestCutCandidate(n int, edges []bisectEdge, cut []bool) int {
	adj := make([][]int, n) // node -> indices into edges, excluding cut ones
	dsu := newDSU(n)
	for i, e := range edges {
		if cut[i] {
			continue
		}
		adj[e.from] = append(adj[e.from], i)
		adj[e.to] = append(adj[e.to], i)
		dsu.union(e.from, e.to)
	}

	compSize := make(map[int]int)
	for i := 0; i < n; i++ {
		compSize[dsu.find(i)]++
	}

	best, bestScore := -1, 0.0
	visited := make([]bool, n)
	for root := 0; root < n; root++ {
		if visited[root] {
			continue
		}
		size := compSize[dsu.find(root)]
		if size < 2 {
			visited[root] = true
			continue
		}
		childSizeOf := dfsSubtreeSizes(root, adj, edges, visited)
		for i := range edges {
			if cut[i] {
				continue
			}
			childSize, ok := childSizeOf[i]
			if !ok {
				continue // edge outside this root's component
			}
			skew := float64(abs(size-2*childSize)) / float64(size)
			score := edges[i].weight * (1 + skew)
			if best < 0 || score < bestScore {
				best, bestScore = i, score
			}
		}
	}
	return best
}

// dfsSubtreeSizes walks the tree rooted at root within adj (a forest
// with cut edges excluded), marks every visited node, and returns, for
// every tree edge reached from root, the size of the subtree hanging
// off its child endpoint. Cutting edge i splits its component into a
// childSizeOf[i]-node part and a (componentSize-childSizeOf[i])-node
// part.
func dfsSubtreeSizes(root int, adj [][]int, edges []bisectEdge, visited []bool) map[int]int {
	n := len(adj)
	size := make([]int, n)
	parent := make([]int, n)
	parentEdge := make([]int, n)
	order := make([]int, 0, n)
	for i := range parent {
		parent[i] = -1
		parentEdge[i] = -1
	}

	stack := []int{root}
	visited[root] = true
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, u)
		for _, ei := range adj[u] {
			e := edges[ei]
			v := e.to
			if v == u {
				v = e.from
			}
			if visited[v] {
				continue
			}
			visited[v] = true
			parent[v] = u
			parentEdge[v] = ei
			stack = append(stack, v)
		}
	}

	for i := range size {
		if visited[i] {
			size[i] = 1
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		u := order[i]
		if p := parent[u]; p >= 0 {
			size[p] += size[u]
		}
	}

	childSizeOf := make(map[int]int, len(order))
	for _, v := range order {
		if ei := parentEdge[v]; ei >= 0 {
			childSizeOf[ei] = size[v]
		}
	}
	return childSizeOf
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func singlePartition(n int) []int32 {
	return make([]int32, n)
}

func identityPartition(n int) []int32 {
	m := make([]int32, n)
	for i := range m {
		m[i] = int32(i)
	}
	return m
}

type dsu struct {
	parent []int
	rank   []int
}

func newDSU(n int) *dsu {
	d := &dsu{parent: make([]int, n), rank: make([]int, n)}
	for i := range d.parent {
		d.parent[i] = i
	}
	return d
}

func (d *dsu) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}
	return x
}

func (d *dsu) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	if ra == rb {
		return
	}
	if d.rank[ra] < d.rank[rb] {
		ra, rb = rb, ra
	}
	d.parent[rb] = ra
	if d.rank[ra] == d.rank[rb] {
		d.rank[ra]++
	}
}
