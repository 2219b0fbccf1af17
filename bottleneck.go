package hypercube

// bottleneck.go estimates the throughput paths achieve when they share links.
// Every path crossing a link gets an equal share of its bandwidth, and a path
// is held to the share of its most contended link.

import (
	"fmt"
	"math"
)

// Link is a directed edge, as traversed by one hop of a path
type Link struct {
	From Node
	To   Node
}

func (lnk Link) String() string {
	return fmt.Sprintf("%d->%d", lnk.From, lnk.To)
}

// Links decomposes the path into the directed links between consecutive nodes.
// A single-node path has none.
func (p Path) Links() []Link {
	if len(p) < 2 {
		return nil
	}
	links := make([]Link, 0, len(p)-1)
	for idx := 1; idx < len(p); idx++ {
		links = append(links, Link{From: p[idx-1], To: p[idx]})
	}
	return links
}

// LinkUsage counts, for every link, the number of paths that traverse it
func LinkUsage(paths []Path) map[Link]int {
	usage := make(map[Link]int)
	for _, p := range paths {
		for _, lnk := range p.Links() {
			usage[lnk] += 1
		}
	}
	return usage
}

func checkBandwidth(bw float64) error {
	if !(bw > 0) || math.IsInf(bw, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidBandwidth, bw)
	}
	return nil
}

// EstimateRates returns, for each path in order, linkBandwidth divided by the largest
// usage count among the path's own links.  A path with no links (source equal to
// destination) touches no shared resource and is given the full linkBandwidth.
// The inputs are not modified.
func EstimateRates(paths []Path, linkBandwidth float64) ([]float64, error) {
	if err := checkBandwidth(linkBandwidth); err != nil {
		return nil, err
	}

	usage := LinkUsage(paths)

	rates := make([]float64, len(paths))
	for idx, p := range paths {
		bottleneck := 1
		for _, lnk := range p.Links() {
			if usage[lnk] > bottleneck {
				bottleneck = usage[lnk]
			}
		}
		rates[idx] = linkBandwidth / float64(bottleneck)
	}
	return rates, nil
}

// BottleneckEstimate computes the throughput of a single flow spread over all of
// the given paths: linkBandwidth divided by the largest usage count of any link in
// the set.  A set with no links at all is unconstrained and yields linkBandwidth.
func BottleneckEstimate(paths []Path, linkBandwidth float64) (float64, error) {
	if err := checkBandwidth(linkBandwidth); err != nil {
		return 0.0, err
	}

	maxUsage := 1
	for _, cnt := range LinkUsage(paths) {
		if cnt > maxUsage {
			maxUsage = cnt
		}
	}
	return linkBandwidth / float64(maxUsage), nil
}
