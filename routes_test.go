package hypercube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/path"
)

func factorial(n int) int {
	f := 1
	for i := 2; i <= n; i++ {
		f *= i
	}
	return f
}

func assertMinimalPath(t *testing.T, cube *Hypercube, p Path, src, dst Node) {
	t.Helper()
	require.NotEmpty(t, p)
	assert.Equal(t, src, p.Src())
	assert.Equal(t, dst, p.Dst())
	assert.Equal(t, HammingDistance(src, dst), p.Hops())
	assert.True(t, cube.ValidPath(p), "path %s is not a walk on the cube", p)
}

func TestShortestPathDimensionOrder(t *testing.T) {
	rtr := NewRouter(mustCube(t, 5))

	p, err := rtr.ShortestPath(1, 13)
	require.NoError(t, err)
	assert.Equal(t, Path{1, 5, 13}, p)
	assert.Equal(t, "(1,5,13)", p.String())

	p, err = rtr.ShortestPath(0, 31)
	require.NoError(t, err)
	assert.Equal(t, Path{0, 1, 3, 7, 15, 31}, p)
}

func TestShortestPathAllPairs(t *testing.T) {
	cube := mustCube(t, 4)
	rtr := NewRouter(cube)
	for a := Node(0); int(a) < cube.NodeCount(); a++ {
		for b := Node(0); int(b) < cube.NodeCount(); b++ {
			p, err := rtr.ShortestPath(a, b)
			require.NoError(t, err)
			assertMinimalPath(t, cube, p, a, b)
		}
	}
}

func TestShortestPathSameNode(t *testing.T) {
	rtr := NewRouter(mustCube(t, 3))
	p, err := rtr.ShortestPath(6, 6)
	require.NoError(t, err)
	assert.Equal(t, Path{6}, p)
	assert.Equal(t, 0, p.Hops())
}

func TestShortestPathInvalidNode(t *testing.T) {
	rtr := NewRouter(mustCube(t, 3))
	for _, pair := range [][2]Node{{0, 8}, {8, 0}, {-1, 3}} {
		p, err := rtr.ShortestPath(pair[0], pair[1])
		assert.ErrorIs(t, err, ErrInvalidNode)
		assert.Nil(t, p)
	}
}

func TestShortestPathReturnsCopies(t *testing.T) {
	rtr := NewRouter(mustCube(t, 3))
	p, err := rtr.ShortestPath(0, 7)
	require.NoError(t, err)
	p[1] = 6

	again, err := rtr.ShortestPath(0, 7)
	require.NoError(t, err)
	assert.Equal(t, Path{0, 1, 3, 7}, again)
}

func TestAllShortestPathsExample(t *testing.T) {
	rtr := NewRouter(mustCube(t, 5))
	paths, err := rtr.AllShortestPaths(6, 28)
	require.NoError(t, err)

	want := []Path{
		{6, 4, 12, 28},
		{6, 4, 20, 28},
		{6, 14, 12, 28},
		{6, 14, 30, 28},
		{6, 22, 20, 28},
		{6, 22, 30, 28},
	}
	assert.ElementsMatch(t, want, paths)
}

func TestAllShortestPathsAllPairs(t *testing.T) {
	cube := mustCube(t, 4)
	rtr := NewRouter(cube)
	for a := Node(0); int(a) < cube.NodeCount(); a++ {
		for b := Node(0); int(b) < cube.NodeCount(); b++ {
			paths, err := rtr.AllShortestPaths(a, b)
			require.NoError(t, err)
			assert.Len(t, paths, factorial(HammingDistance(a, b)), "%d->%d", a, b)

			seen := make(map[string]bool)
			for _, p := range paths {
				assertMinimalPath(t, cube, p, a, b)
				seen[p.String()] = true
			}
			assert.Len(t, seen, len(paths), "duplicate paths %d->%d", a, b)

			canonical, err := rtr.ShortestPath(a, b)
			require.NoError(t, err)
			assert.True(t, seen[canonical.String()], "dimension-order path %s missing", canonical)
		}
	}
}

func TestAllShortestPathsMatchesGraphSearch(t *testing.T) {
	cube := mustCube(t, 3)
	rtr := NewRouter(cube)
	allPaths := path.DijkstraAllPaths(cube.Graph())

	for a := Node(0); int(a) < cube.NodeCount(); a++ {
		for b := Node(0); int(b) < cube.NodeCount(); b++ {
			if a == b {
				continue
			}
			graphPaths, _ := allPaths.AllBetween(int64(a), int64(b))
			want := make([]string, 0, len(graphPaths))
			for _, gp := range graphPaths {
				p := make(Path, 0, len(gp))
				for _, n := range gp {
					p = append(p, Node(n.ID()))
				}
				want = append(want, p.String())
			}

			paths, err := rtr.AllShortestPaths(a, b)
			require.NoError(t, err)
			got := make([]string, 0, len(paths))
			for _, p := range paths {
				got = append(got, p.String())
			}
			assert.ElementsMatch(t, want, got, "%d->%d", a, b)
		}
	}
}

func TestAllShortestPathsSameNode(t *testing.T) {
	rtr := NewRouter(mustCube(t, 3))
	paths, err := rtr.AllShortestPaths(5, 5)
	require.NoError(t, err)
	assert.Equal(t, []Path{{5}}, paths)
}

func TestAllShortestPathsInvalidNode(t *testing.T) {
	rtr := NewRouter(mustCube(t, 3))
	paths, err := rtr.AllShortestPaths(0, 9)
	assert.ErrorIs(t, err, ErrInvalidNode)
	assert.Nil(t, paths)
}

func TestValidPath(t *testing.T) {
	cube := mustCube(t, 3)
	assert.True(t, cube.ValidPath(Path{0}))
	assert.True(t, cube.ValidPath(Path{0, 1, 0}))
	assert.False(t, cube.ValidPath(Path{}))
	assert.False(t, cube.ValidPath(Path{0, 3}))
	assert.False(t, cube.ValidPath(Path{9}))
}

func TestAllShortestPathsRefusesLongDistances(t *testing.T) {
	rtr := NewRouter(mustCube(t, 21))

	paths, err := rtr.AllShortestPaths(0, 1<<21-1)
	assert.ErrorIs(t, err, ErrTooManyPaths)
	assert.Nil(t, paths)

	_, err = rtr.AllShortestPaths(0, 1<<(MaxAllPathsHops+1)-1)
	assert.ErrorIs(t, err, ErrTooManyPaths)

	// the dimension-order route is still available
	p, err := rtr.ShortestPath(0, 1<<21-1)
	require.NoError(t, err)
	assert.Equal(t, 21, p.Hops())
}
