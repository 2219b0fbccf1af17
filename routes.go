package hypercube

// routes.go provides functions to create and access shortest path routes through the hypercube

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat/combin"
)

// On a hypercube a path is minimal exactly when every hop flips one of the bits in
// which the source and destination differ, and flips each such bit once.  Dimension-order
// routing resolves those bits in increasing bit index, which gives one canonical path.
// Every other ordering of the differing bits gives another minimal path, and the
// orderings are all of them.

// Path is a sequence of nodes, source first and destination last, in which
// consecutive nodes are adjacent
type Path []Node

// Src returns the first node of the path
func (p Path) Src() Node {
	return p[0]
}

// Dst returns the last node of the path
func (p Path) Dst() Node {
	return p[len(p)-1]
}

// Hops returns the number of links the path traverses
func (p Path) Hops() int {
	return len(p) - 1
}

// String renders the path as (n0,n1,...,nk)
func (p Path) String() string {
	return ShowPath(p)
}

// ShowPath returns a string that lists the nodes of a path as a parenthesized, comma-separated tuple
func ShowPath(p Path) string {
	pathString := make([]string, 0, len(p))
	for _, n := range p {
		pathString = append(pathString, strconv.Itoa(int(n)))
	}
	return "(" + strings.Join(pathString, ",") + ")"
}

// ValidPath reports whether p is non-empty, lies inside the cube, and steps
// between adjacent nodes only
func (hc *Hypercube) ValidPath(p Path) bool {
	if len(p) == 0 || !hc.ValidNode(p[0]) {
		return false
	}
	for idx := 1; idx < len(p); idx++ {
		if !hc.AreAdjacent(p[idx-1], p[idx]) {
			return false
		}
	}
	return true
}

type rtEndpts struct {
	srcID, dstID Node
}

// Router computes routes through a hypercube.  Dimension-order routes are
// cached per endpoint pair; a Router may be shared by concurrent callers.
type Router struct {
	cube *Hypercube

	mu      sync.Mutex
	rtCache map[rtEndpts]Path
}

// NewRouter is a constructor
func NewRouter(cube *Hypercube) *Router {
	rtr := new(Router)
	rtr.cube = cube
	rtr.rtCache = make(map[rtEndpts]Path)
	return rtr
}

// Cube returns the topology the router works on
func (rtr *Router) Cube() *Hypercube {
	return rtr.cube
}

// diffBits lists, in increasing order, the bit positions in which src and dst differ
func (rtr *Router) diffBits(src, dst Node) []int {
	diff := make([]int, 0, HammingDistance(src, dst))
	for i := 0; i < rtr.cube.Degree(); i++ {
		if (src^dst)&(1<<i) != 0 {
			diff = append(diff, i)
		}
	}
	return diff
}

// flipInOrder walks from src flipping the given bit positions one hop at a time
func flipInOrder(src Node, order []int) Path {
	p := make(Path, 0, len(order)+1)
	curr := src
	p = append(p, curr)
	for _, bit := range order {
		curr ^= 1 << bit
		p = append(p, curr)
	}
	return p
}

// ShortestPath returns the dimension-order route from src to dst.  Its length is the
// Hamming distance between the endpoints; when src == dst the route is the single node src.
func (rtr *Router) ShortestPath(src, dst Node) (Path, error) {
	if err := rtr.cube.checkNodes(src, dst); err != nil {
		return nil, err
	}

	endpoints := rtEndpts{srcID: src, dstID: dst}

	rtr.mu.Lock()
	defer rtr.mu.Unlock()

	route, found := rtr.rtCache[endpoints]
	if !found {
		route = flipInOrder(src, rtr.diffBits(src, dst))
		rtr.rtCache[endpoints] = route
	}

	// hand out a copy so callers cannot disturb the cache
	return slices.Clone(route), nil
}

// MaxAllPathsHops is the largest Hamming distance AllShortestPaths enumerates;
// 10! is already 3628800 paths
const MaxAllPathsHops = 10

// AllShortestPaths returns every minimal route from src to dst, one per ordering of
// the bits in which they differ, so there are HammingDistance(src,dst)! of them.
// The order of the returned paths carries no meaning.  Endpoints more than
// MaxAllPathsHops apart are refused with ErrTooManyPaths.
func (rtr *Router) AllShortestPaths(src, dst Node) ([]Path, error) {
	if err := rtr.cube.checkNodes(src, dst); err != nil {
		return nil, err
	}

	diff := rtr.diffBits(src, dst)
	if len(diff) == 0 {
		return []Path{{src}}, nil
	}
	if len(diff) > MaxAllPathsHops {
		return nil, fmt.Errorf("%w: %d and %d differ in %d bits, at most %d allowed",
			ErrTooManyPaths, src, dst, len(diff), MaxAllPathsHops)
	}

	perms := combin.Permutations(len(diff), len(diff))
	paths := make([]Path, 0, len(perms))
	order := make([]int, len(diff))
	for _, perm := range perms {
		for i, idx := range perm {
			order[i] = diff[idx]
		}
		paths = append(paths, flipInOrder(src, order))
	}
	return paths, nil
}
