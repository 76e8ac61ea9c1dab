// SPDX-License-Identifier: Unlicense OR MIT

// Package dual builds adjacency graphs over triangles and clusters so
// the partitioner can cut them along shared edges.
package dual

// edgeKey is an unordered vertex pair, always stored low-index-first.
type edgeKey struct {
	a, b int32
}

func makeEdge(a, b int32) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// TriAdjacency builds the unweighted dual graph of a triangle list:
// two triangles are adjacent if they share an edge (an unordered pair
// of vertex indices). The result is indexed by triangle id.
func TriAdjacency(tris [][3]int32) [][]int32 {
	edgeToTris := make(map[edgeKey][]int32)
	for i, tri := range tris {
		e := [3]edgeKey{
			makeEdge(tri[0], tri[1]),
			makeEdge(tri[1], tri[2]),
			makeEdge(tri[0], tri[2]),
		}
		for _, k := range e {
			edgeToTris[k] = append(edgeToTris[k], int32(i))
		}
	}

	adjacency := make([][]int32, len(tris))
	for _, sharing := range edgeToTris {
		for i := 0; i < len(sharing); i++ {
			for j := i + 1; j < len(sharing); j++ {
				t1, t2 := sharing[i], sharing[j]
				adjacency[t1] = append(adjacency[t1], t2)
				adjacency[t2] = append(adjacency[t2], t1)
			}
		}
	}
	return adjacency
}

// WeightedEdge is one entry of a weighted adjacency list.
type WeightedEdge struct {
	To     int32
	Weight int32
}

// ClusterAdjacency builds a weighted adjacency list over clusters from
// a member-level (triangle) adjacency and a membership assignment: the
// weight between two clusters is the number of member-level edges that
// cross between them. Self-adjacency (a member's neighbor in the same
// cluster) is excluded.
func ClusterAdjacency(memberAdjacency [][]int32, membership []int32) [][]WeightedEdge {
	numClusters := int32(0)
	for _, c := range membership {
		if c+1 > numClusters {
			numClusters = c + 1
		}
	}

	weights := make([]map[int32]int32, numClusters)
	for i := range weights {
		weights[i] = make(map[int32]int32)
	}

	for member, neighbors := range memberAdjacency {
		cur := membership[member]
		for _, nb := range neighbors {
			other := membership[nb]
			if cur != other {
				weights[cur][other]++
			}
		}
	}

	out := make([][]WeightedEdge, numClusters)
	for c, m := range weights {
		edges := make([]WeightedEdge, 0, len(m))
		for to, w := range m {
			edges = append(edges, WeightedEdge{To: to, Weight: w})
		}
		out[c] = edges
	}
	return out
}
