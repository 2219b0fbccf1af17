package hypercube

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFlows(t *testing.T) {
	input := `# src dst size start
0 1 2 0
0,7,3,0   # commas work too

5	2	10	4
`
	flows, err := ReadFlows(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Flow{
		{Src: 0, Dst: 1, Size: 2, Start: 0},
		{Src: 0, Dst: 7, Size: 3, Start: 0},
		{Src: 5, Dst: 2, Size: 10, Start: 4},
	}, flows)
}

func TestReadFlowsMalformed(t *testing.T) {
	tests := map[string]string{
		"too few fields":  "0 1 2\n",
		"too many fields": "0 1 2 3 4\n",
		"not an integer":  "0 1 two 0\n",
		"fraction":        "0 1 2.5 0\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadFlows(strings.NewReader(input))
			assert.ErrorIs(t, err, ErrInvalidFlowRecord)
		})
	}
}

func TestValidateFlowsReportsEveryBadRecord(t *testing.T) {
	cube := mustCube(t, 3)
	flows := []Flow{
		{Src: 0, Dst: 1, Size: 2, Start: 0},
		{Src: 0, Dst: 8, Size: 2, Start: 0},
		{Src: -1, Dst: 1, Size: 2, Start: 0},
		{Src: 0, Dst: 1, Size: 0, Start: 0},
		{Src: 0, Dst: 1, Size: -3, Start: 0},
		{Src: 0, Dst: 1, Size: 1, Start: -1},
		{Src: 3, Dst: 3, Size: 1, Start: 2},
	}

	err := ValidateFlows(cube, flows)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFlowRecord)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	var indices []int
	for _, e := range joined.Unwrap() {
		var rec *InvalidFlowRecordError
		require.True(t, errors.As(e, &rec))
		indices = append(indices, rec.Index)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, indices)
	assert.Contains(t, err.Error(), "flow record 1 (0->8 size 2 start 0): destination 8 not in [0,8)")
}

func TestValidateFlowsAcceptsGoodInput(t *testing.T) {
	cube := mustCube(t, 3)
	assert.NoError(t, ValidateFlows(cube, []Flow{{Src: 0, Dst: 7, Size: 1, Start: 0}, {Src: 2, Dst: 2, Size: 5, Start: 9}}))
	assert.NoError(t, ValidateFlows(cube, nil))
}

func TestFlowListFiles(t *testing.T) {
	fl := CreateFlowList("pair")
	fl.AddFlow(0, 1, 2, 0)
	fl.AddFlow(6, 1, 4, 3)

	dir := t.TempDir()
	for _, name := range []string{"flows.yaml", "flows.json", "flows.txt"} {
		filename := filepath.Join(dir, name)
		require.NoError(t, fl.WriteToFile(filename))

		flows, err := LoadFlows(filename)
		require.NoError(t, err, name)
		assert.Equal(t, fl.Flows, flows, name)
	}
}

func TestLoadFlowsMissingFile(t *testing.T) {
	_, err := LoadFlows(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

// seqSource replays fixed samples, cycling when they run out
type seqSource struct {
	samples []float64
	next    int
}

func (s *seqSource) RandU01() float64 {
	u := s.samples[s.next%len(s.samples)]
	s.next++
	return u
}

func TestRandPermDeterministicSource(t *testing.T) {
	items := []int{0, 1, 2, 3}

	// a zero sample always swaps with the first position
	got := RandPerm(items, &seqSource{samples: []float64{0}})
	assert.Equal(t, []int{1, 2, 3, 0}, got)

	// a sample just below one always swaps in place
	got = RandPerm(items, &seqSource{samples: []float64{0.9999999}})
	assert.Equal(t, []int{0, 1, 2, 3}, got)

	assert.Equal(t, []int{0, 1, 2, 3}, items, "input was modified")
}

func TestRandPermIsPermutation(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5}
	rng := NewRandomSource("perm-test", 3)
	for trial := 0; trial < 20; trial++ {
		got := RandPerm(items, rng)
		assert.ElementsMatch(t, items, got)
	}
	assert.Empty(t, RandPerm([]int{}, rng))
}

func TestPermutationTraffic(t *testing.T) {
	cube := mustCube(t, 4)
	flows := PermutationTraffic(cube, NewRandomSource("traffic-test", 0), 8, 2)
	require.Len(t, flows, cube.NodeCount())
	require.NoError(t, ValidateFlows(cube, flows))

	dsts := make([]Node, 0, len(flows))
	for i, f := range flows {
		assert.Equal(t, Node(i), f.Src)
		assert.Equal(t, 8, f.Size)
		assert.Equal(t, 2, f.Start)
		dsts = append(dsts, f.Dst)
	}
	all := make([]Node, cube.NodeCount())
	for i := range all {
		all[i] = Node(i)
	}
	assert.ElementsMatch(t, all, dsts)
}
