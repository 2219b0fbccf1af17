package hypercube

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateRatesSinglePath(t *testing.T) {
	rates, err := EstimateRates([]Path{{0, 1, 3, 7}}, 1.0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0}, rates)
}

func TestEstimateRatesSharedLink(t *testing.T) {
	for k := 1; k <= 5; k++ {
		paths := make([]Path, k)
		for i := range paths {
			paths[i] = Path{0, 1}
		}
		rates, err := EstimateRates(paths, 10.0)
		require.NoError(t, err)
		require.Len(t, rates, k)
		for _, r := range rates {
			assert.InDelta(t, 10.0/float64(k), r, 1e-12)
		}
	}
}

func TestEstimateRatesBottleneckIsMostContendedLink(t *testing.T) {
	// 0->1 carries all three paths, 1->3 only the first two
	paths := []Path{{0, 1, 3, 7}, {0, 1, 3}, {0, 1}, {2, 3, 7}}
	rates, err := EstimateRates(paths, 6.0)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.0, 2.0, 2.0, 3.0}, rates)
}

func TestEstimateRatesDirectedLinks(t *testing.T) {
	// opposite directions of an edge are different links
	rates, err := EstimateRates([]Path{{0, 1}, {1, 0}}, 4.0)
	require.NoError(t, err)
	assert.Equal(t, []float64{4.0, 4.0}, rates)
}

func TestEstimateRatesEmptyPathGetsFullBandwidth(t *testing.T) {
	rates, err := EstimateRates([]Path{{3}, {0, 1}, {0, 1}}, 2.0)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.0, 1.0, 1.0}, rates)
}

func TestEstimateRatesNoPaths(t *testing.T) {
	rates, err := EstimateRates(nil, 2.0)
	require.NoError(t, err)
	assert.Empty(t, rates)
}

func TestEstimateRatesIsPure(t *testing.T) {
	paths := []Path{{0, 1, 3}, {0, 1}, {4, 5, 7}}
	before := make([]Path, len(paths))
	for i, p := range paths {
		before[i] = append(Path(nil), p...)
	}

	first, err := EstimateRates(paths, 3.0)
	require.NoError(t, err)
	second, err := EstimateRates(paths, 3.0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, paths)
}

func TestEstimateRatesBounds(t *testing.T) {
	cube := mustCube(t, 5)
	rtr := NewRouter(cube)
	flows := PermutationTraffic(cube, NewRandomSource("bounds", 0), 1, 0)

	paths := make([]Path, 0, len(flows))
	for _, f := range flows {
		p, err := rtr.ShortestPath(f.Src, f.Dst)
		require.NoError(t, err)
		paths = append(paths, p)
	}

	const bw = 100.0
	rates, err := EstimateRates(paths, bw)
	require.NoError(t, err)
	for i, r := range rates {
		assert.Greater(t, r, 0.0, "path %s", paths[i])
		assert.LessOrEqual(t, r, bw, "path %s", paths[i])
	}
}

func TestEstimateRatesInvalidBandwidth(t *testing.T) {
	for _, bw := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := EstimateRates([]Path{{0, 1}}, bw)
		assert.ErrorIs(t, err, ErrInvalidBandwidth, "bandwidth %v", bw)
	}
}

func TestLinkUsage(t *testing.T) {
	usage := LinkUsage([]Path{{0, 1, 3}, {0, 1}, {5}})
	assert.Equal(t, map[Link]int{
		{From: 0, To: 1}: 2,
		{From: 1, To: 3}: 1,
	}, usage)
	assert.Nil(t, Path{5}.Links())
	assert.Equal(t, "1->3", Link{From: 1, To: 3}.String())
}

func TestBottleneckEstimate(t *testing.T) {
	rtr := NewRouter(mustCube(t, 5))
	a, err := rtr.ShortestPath(1, 13)
	require.NoError(t, err)
	b, err := rtr.ShortestPath(1, 5)
	require.NoError(t, err)

	// both routes leave 1 over the link to 5
	through, err := BottleneckEstimate([]Path{a, b}, 1e9)
	require.NoError(t, err)
	assert.Equal(t, 5e8, through)

	through, err = BottleneckEstimate([]Path{{2}}, 1e9)
	require.NoError(t, err)
	assert.Equal(t, 1e9, through)

	_, err = BottleneckEstimate([]Path{a}, 0)
	assert.ErrorIs(t, err, ErrInvalidBandwidth)
}
