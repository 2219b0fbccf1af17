package hypercube

// desc-topo.go holds the topology layer: the hypercube of degree d, its node
// ids and adjacency relation, the listing of its edges, and a graph-package
// representation of the cube used to measure hop distances independently of
// the bit-twiddling router.

import (
	"fmt"
	"math"
	"math/bits"
	"sync"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// MaxDimension is the largest supported degree; every node id then fits in 30 bits
const MaxDimension = 30

// Node is a hypercube vertex, a d-bit integer
type Node int

// Edge is an undirected hypercube edge, reported with A < B
type Edge struct {
	A Node `json:"a" yaml:"a"`
	B Node `json:"b" yaml:"b"`
}

func (e Edge) String() string {
	return fmt.Sprintf("(%d,%d)", e.A, e.B)
}

// Hypercube is the topology of degree d: 2^d nodes, with an edge between
// two nodes exactly when they differ in one bit.  The degree is fixed at
// construction; the graph view and the shortest-path trees are built on first
// use and are safe to share between goroutines.
type Hypercube struct {
	degree int

	graphOnce sync.Once
	connGraph *simple.WeightedUndirectedGraph

	// cachedSP saves the result of computing shortest-path trees,
	// keyed by the root of the tree
	spMu     sync.Mutex
	cachedSP map[Node]path.Shortest
}

// NewHypercube is a constructor
func NewHypercube(d int) (*Hypercube, error) {
	if d < 0 || d > MaxDimension {
		return nil, fmt.Errorf("%w: %d not in [0,%d]", ErrInvalidDimension, d, MaxDimension)
	}
	hc := new(Hypercube)
	hc.degree = d
	hc.cachedSP = make(map[Node]path.Shortest)
	return hc, nil
}

// Degree returns d
func (hc *Hypercube) Degree() int {
	return hc.degree
}

// NodeCount returns 2^d
func (hc *Hypercube) NodeCount() int {
	return 1 << hc.degree
}

// ValidNode reports whether n is a node of the cube
func (hc *Hypercube) ValidNode(n Node) bool {
	return n >= 0 && int(n) < hc.NodeCount()
}

func (hc *Hypercube) checkNodes(nodes ...Node) error {
	for _, n := range nodes {
		if !hc.ValidNode(n) {
			return invalidNodeErr(n, hc)
		}
	}
	return nil
}

// HammingDistance counts the bit positions where a and b differ, which on a
// hypercube is the length of every minimal path between them
func HammingDistance(a, b Node) int {
	return bits.OnesCount(uint(a ^ b))
}

// AreAdjacent reports whether a and b are both nodes of the cube and are
// joined by an edge
func (hc *Hypercube) AreAdjacent(a, b Node) bool {
	if !hc.ValidNode(a) || !hc.ValidNode(b) {
		return false
	}
	return HammingDistance(a, b) == 1
}

// Neighbors lists the d nodes adjacent to n, in increasing bit order
func (hc *Hypercube) Neighbors(n Node) ([]Node, error) {
	if err := hc.checkNodes(n); err != nil {
		return nil, err
	}
	nbrs := make([]Node, 0, hc.degree)
	for k := 0; k < hc.degree; k++ {
		nbrs = append(nbrs, n^(1<<k))
	}
	return nbrs, nil
}

// Edges lists every edge of the cube exactly once, ordered by the smaller
// endpoint and then by the larger one
func (hc *Hypercube) Edges() []Edge {
	edges := make([]Edge, 0, hc.degree*hc.NodeCount()/2)
	for i := 0; i < hc.NodeCount(); i++ {
		for k := 0; k < hc.degree; k++ {
			j := i ^ (1 << k)
			// only the endpoint with the bit clear reports the edge
			if i < j {
				edges = append(edges, Edge{A: Node(i), B: Node(j)})
			}
		}
	}
	return edges
}

// Graph returns the cube as a graph with every edge weighted 1, so that a
// shortest path in the graph minimizes the number of hops.
func (hc *Hypercube) Graph() graph.Undirected {
	hc.graphOnce.Do(func() {
		hc.connGraph = simple.NewWeightedUndirectedGraph(0, math.Inf(1))
		for i := 0; i < hc.NodeCount(); i++ {
			hc.connGraph.AddNode(simple.Node(i))
		}
		for _, e := range hc.Edges() {
			weightedEdge := simple.WeightedEdge{F: simple.Node(e.A), T: simple.Node(e.B), W: 1.0}
			hc.connGraph.SetWeightedEdge(weightedEdge)
		}
	})
	return hc.connGraph
}

// Connected reports whether the graph view has a single connected component.
func (hc *Hypercube) Connected() bool {
	return len(topo.ConnectedComponents(hc.Graph())) == 1
}

// getSPTree returns the shortest path tree rooted in 'from'.  If the tree is
// found in the cache it is returned, if not it is computed, saved, and returned.
func (hc *Hypercube) getSPTree(from Node) path.Shortest {
	g := hc.Graph()

	hc.spMu.Lock()
	defer hc.spMu.Unlock()

	spTree, present := hc.cachedSP[from]
	if present {
		return spTree
	}
	spTree = path.DijkstraFrom(simple.Node(from), g)
	hc.cachedSP[from] = spTree
	return spTree
}

// HopDistance measures the number of hops between a and b by searching the
// graph view of the cube.  A tree already rooted in b serves as well as one
// rooted in a, since the graph is undirected.
func (hc *Hypercube) HopDistance(a, b Node) (int, error) {
	if err := hc.checkNodes(a, b); err != nil {
		return 0, err
	}

	hc.spMu.Lock()
	spTree, present := hc.cachedSP[b]
	hc.spMu.Unlock()

	var weight float64
	if present {
		weight = spTree.WeightTo(int64(a))
	} else {
		weight = hc.getSPTree(a).WeightTo(int64(b))
	}
	return int(weight), nil
}
